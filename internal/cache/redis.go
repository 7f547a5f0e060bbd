package cache

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/verte-zerg/typespeed/internal/logger"
)

// Connect dials Redis, attaches command logging and checks the connection.
func Connect(ctx context.Context, addr string, log *logger.Logger) (redis.UniversalClient, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	r := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{addr},
	})
	if log != nil {
		r.AddHook(redisLog{log: log})
	}
	if err := r.Ping(ctx).Err(); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return r, nil
}

type redisLog struct {
	log *logger.Logger
}

func (h redisLog) DialHook(hook redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := hook(ctx, network, addr)
		if err != nil {
			h.log.Warn("redis: dial failed", "addr", addr, "error", err)
		} else {
			h.log.Debug("redis: dialed", "network", network, "addr", addr)
		}
		return conn, err
	}
}

func (h redisLog) ProcessHook(hook redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := hook(ctx, cmd)
		h.log.Debug("redis: command", "cmd", cmd.Name(), "duration_ms", time.Since(start).Milliseconds())
		return err
	}
}

func (h redisLog) ProcessPipelineHook(hook redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := hook(ctx, cmds)
		h.log.Debug("redis: pipeline", "commands", len(cmds))
		return err
	}
}
