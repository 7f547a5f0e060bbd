// Package cache keeps computed leaderboards in Redis.
//
// Entries are keyed by a generation counter. Any write to the result
// collection bumps the counter, so stale entries are never read again and
// simply expire.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/verte-zerg/typespeed/internal/model"
)

const defaultTTL = 30 * time.Second

type Config struct {
	Redis  redis.UniversalClient
	Prefix string
	TTL    time.Duration
}

type Leaderboard struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewLeaderboard(c Config) *Leaderboard {
	ttl := c.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	prefix := c.Prefix
	if prefix == "" {
		prefix = "typespeed"
	}
	return &Leaderboard{
		redis:  c.Redis,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Key resolves the entry key of a leaderboard under the current generation.
// A lookup must use the same key for Get and Set, so a fill that races with
// Invalidate lands in the retired generation.
func (l *Leaderboard) Key(ctx context.Context, difficulty model.Difficulty, limit int) (string, error) {
	version, err := l.redis.Get(ctx, l.versionKey()).Int64()
	if err != nil && err != redis.Nil {
		return "", fmt.Errorf("get leaderboard version: %w", err)
	}
	scope := string(difficulty)
	if scope == "" {
		scope = "all"
	}
	return fmt.Sprintf("%s:leaderboard:%d:%s:%d", l.prefix, version, scope, limit), nil
}

// Get returns the leaderboard cached under key. The bool is false on a miss.
func (l *Leaderboard) Get(ctx context.Context, key string) ([]model.TestResult, bool, error) {
	raw, err := l.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get leaderboard: %w", err)
	}
	var results []model.TestResult
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, false, fmt.Errorf("decode leaderboard: %w", err)
	}
	return results, true, nil
}

// Set stores a computed leaderboard under key.
func (l *Leaderboard) Set(ctx context.Context, key string, results []model.TestResult) error {
	raw, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("encode leaderboard: %w", err)
	}
	if err := l.redis.Set(ctx, key, raw, l.ttl).Err(); err != nil {
		return fmt.Errorf("set leaderboard: %w", err)
	}
	return nil
}

// Invalidate starts a new generation.
func (l *Leaderboard) Invalidate(ctx context.Context) error {
	if err := l.redis.Incr(ctx, l.versionKey()).Err(); err != nil {
		return fmt.Errorf("invalidate leaderboard: %w", err)
	}
	return nil
}

func (l *Leaderboard) versionKey() string {
	return fmt.Sprintf("%s:leaderboard:version", l.prefix)
}
