package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/typespeed/internal/cache"
	"github.com/verte-zerg/typespeed/internal/config"
	"github.com/verte-zerg/typespeed/internal/logger"
	"github.com/verte-zerg/typespeed/internal/metrics"
	"github.com/verte-zerg/typespeed/internal/results"
	"github.com/verte-zerg/typespeed/internal/server"
	"github.com/verte-zerg/typespeed/internal/store"
)

const jwtSecretEnv = "TYPESPEED_JWT_SECRET"

var (
	serveAddr        string
	serveDBDriver    string
	serveDBDSN       string
	serveRedisAddr   string
	serveRedisPrefix string
	serveJWTSecret   string
	serveLogMode     string
	serveCORSOrigins []string
	servePprof       bool
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the results HTTP server",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&serveDBDriver, "db-driver", store.DriverSQLite, "database driver (sqlite or postgres)")
	cmd.Flags().StringVar(&serveDBDSN, "db-dsn", "", "database DSN (default: local sqlite file)")
	cmd.Flags().StringVar(&serveRedisAddr, "redis-addr", "", "redis address for the leaderboard cache")
	cmd.Flags().StringVar(&serveRedisPrefix, "redis-prefix", "typespeed", "redis key prefix")
	cmd.Flags().StringVar(&serveJWTSecret, "jwt-secret", "", "HS256 secret; enables auth on writes (env "+jwtSecretEnv+")")
	cmd.Flags().StringVar(&serveLogMode, "log-mode", "dev", "log mode (dev or prod)")
	cmd.Flags().StringSliceVar(&serveCORSOrigins, "cors-origin", nil, "allowed CORS origin (repeatable)")
	cmd.Flags().BoolVar(&servePprof, "pprof", false, "expose /debug/pprof")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	sc := fileCfg.Server
	applyStringConfig(cmd, "addr", &serveAddr, sc.Addr)
	applyStringConfig(cmd, "db-driver", &serveDBDriver, sc.DBDriver)
	applyStringConfig(cmd, "db-dsn", &serveDBDSN, sc.DBDSN)
	applyStringConfig(cmd, "redis-addr", &serveRedisAddr, sc.RedisAddr)
	applyStringConfig(cmd, "redis-prefix", &serveRedisPrefix, sc.RedisPrefix)
	applyStringConfig(cmd, "jwt-secret", &serveJWTSecret, sc.JWTSecret)
	applyStringConfig(cmd, "log-mode", &serveLogMode, sc.LogMode)
	applySliceConfig(cmd, "cors-origin", &serveCORSOrigins, sc.CORSOrigins)
	applyBoolConfig(cmd, "pprof", &servePprof, sc.Pprof)
	if serveJWTSecret == "" {
		serveJWTSecret = os.Getenv(jwtSecretEnv)
	}

	log, err := logger.New(serveLogMode)
	if err != nil {
		return err
	}
	defer log.Sync()

	dsn := serveDBDSN
	if dsn == "" {
		if serveDBDriver != store.DriverSQLite {
			return fmt.Errorf("--db-dsn is required for driver %q", serveDBDriver)
		}
		dsn = config.DefaultDBPath()
	}
	st, err := store.Open(serveDBDriver, dsn)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			log.Error("failed to close db", "error", cerr)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	rc := results.Config{Store: st, Metrics: m, Logger: log}
	if serveRedisAddr != "" {
		rdb, err := cache.Connect(ctx, serveRedisAddr, log)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := rdb.Close(); cerr != nil {
				log.Error("failed to close redis", "error", cerr)
			}
		}()
		rc.Cache = cache.NewLeaderboard(cache.Config{Redis: rdb, Prefix: serveRedisPrefix})
		log.Info("leaderboard cache enabled", "redis_addr", serveRedisAddr)
	}
	if serveJWTSecret == "" {
		log.Warn("no jwt secret configured, writes are unauthenticated")
	}

	srv, err := server.Init(server.Config{
		Addr:        serveAddr,
		JWTSecret:   serveJWTSecret,
		CORSOrigins: serveCORSOrigins,
		Pprof:       servePprof,
		ReleaseMode: serveLogMode == "prod",
		Results:     results.NewService(rc),
		Metrics:     m,
		Logger:      log,
		Health:      st.Ping,
	})
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
