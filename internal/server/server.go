// Package server exposes the results service over HTTP.
package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/typespeed/internal/auth"
	"github.com/verte-zerg/typespeed/internal/logger"
	"github.com/verte-zerg/typespeed/internal/metrics"
	"github.com/verte-zerg/typespeed/internal/model"
	"github.com/verte-zerg/typespeed/internal/results"
)

// Results is the service the HTTP handlers delegate to.
type Results interface {
	Create(ctx context.Context, in model.NewTestResult) (*model.TestResult, error)
	List(ctx context.Context, req results.ListRequest) (*model.ResultPage, error)
	UserStats(ctx context.Context, username string) (*model.UserStats, error)
	Leaderboard(ctx context.Context, req results.LeaderboardRequest) ([]model.TestResult, error)
	DeleteUserResults(ctx context.Context, username string) (int64, error)
}

type Config struct {
	Addr        string
	JWTSecret   string
	CORSOrigins []string
	Pprof       bool
	ReleaseMode bool

	Results Results
	Metrics *metrics.Metrics
	Logger  *logger.Logger
	// Health reports whether the backing store is reachable.
	Health func(ctx context.Context) error
}

type Server struct {
	c      Config
	log    *logger.Logger
	tokens *auth.JWTService
	engine *gin.Engine
	http   *http.Server
}

func Init(c Config) (*Server, error) {
	if c.Results == nil {
		return nil, fmt.Errorf("server: results service is required")
	}
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	s := &Server{c: c, log: c.Logger}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if c.JWTSecret != "" {
		s.tokens = auth.NewJWTService(c.JWTSecret)
	}

	s.initAPI()
	return s, nil
}

func (s *Server) initAPI() {
	if s.c.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	e := gin.New()
	e.Use(gin.Recovery())
	e.Use(requestID())
	e.Use(requestLogger(s.log))
	e.Use(instrument(s.c.Metrics))
	if len(s.c.CORSOrigins) > 0 {
		e.Use(cors.New(cors.Config{
			AllowOrigins:     s.c.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type", requestIDHeader},
			ExposeHeaders:    []string{requestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	if s.c.Metrics != nil {
		e.GET("/metrics", gin.WrapH(s.c.Metrics.Handler()))
	}
	if s.c.Pprof {
		pprof.Register(e, "/debug/pprof")
	}
	e.GET("/healthcheck", s.healthcheck)

	api := e.Group("/api/test-results")
	{
		api.GET("", s.listResults)
		api.GET("/stats/:username", s.userStats)
		api.GET("/leaderboard", s.leaderboard)
	}
	protected := e.Group("/api/test-results")
	protected.Use(s.requireAuth())
	{
		protected.POST("", s.createResult)
		protected.DELETE("/user/:username", s.deleteUserResults)
	}

	s.engine = e
	s.http = &http.Server{
		Addr:              s.c.Addr,
		Handler:           e,
		ReadHeaderTimeout: 60 * time.Second,
	}
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		s.log.Info("server: HTTP listening", "addr", s.c.Addr)
		if err := s.http.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	eg.Go(func() error {
		<-ctx.Done()
		return s.Shutdown()
	})

	if err := eg.Wait(); err != nil {
		s.log.Error("server: shutdown with error", "error", err)
		return err
	}
	return nil
}

func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		s.log.Error("server: shutdown HTTP failed", "error", err)
		return err
	}
	s.log.Info("server: shutdown completed")
	return nil
}
