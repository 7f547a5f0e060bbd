package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/verte-zerg/typespeed/internal/errors"
	"github.com/verte-zerg/typespeed/internal/logger"
	"github.com/verte-zerg/typespeed/internal/metrics"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	usernameKey     = "auth_username"
)

// requestID propagates the caller's request id or assigns a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		fields := []interface{}{
			"method", strings.ToUpper(c.Request.Method),
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", c.GetString(requestIDKey),
		}
		if user := c.GetString(usernameKey); user != "" {
			fields = append(fields, "username", user)
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

func instrument(m *metrics.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		m.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// requireAuth resolves the bearer token into a username. Without a
// configured secret every request passes and the payload username is trusted.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.tokens == nil {
			c.Next()
			return
		}
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			abortWithError(c, errors.New(errors.CodeUnauthenticated, errors.WithMessagef("missing bearer token")))
			return
		}
		username, err := s.tokens.ValidateToken(token)
		if err != nil {
			abortWithError(c, errors.New(errors.CodeUnauthenticated,
				errors.WithMessagef("invalid bearer token"),
				errors.WithCause(err),
			))
			return
		}
		c.Set(usernameKey, username)
		c.Next()
	}
}

func bearerToken(header string) string {
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

type errorEnvelope struct {
	Error *errors.Error `json:"error"`
}

// respondError writes the error envelope. Internal causes are logged and
// never sent to the caller.
func (s *Server) respondError(c *gin.Context, err error) {
	e := errors.Convert(err)
	if e.Code == errors.CodeInternal {
		s.log.Error("request failed", "error", err, "request_id", c.GetString(requestIDKey))
		e = errors.New(errors.CodeInternal)
	}
	c.JSON(e.HTTPStatusCode(), errorEnvelope{Error: e})
}

func abortWithError(c *gin.Context, e *errors.Error) {
	c.AbortWithStatusJSON(e.HTTPStatusCode(), errorEnvelope{Error: e})
}

func respondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
