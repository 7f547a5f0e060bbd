package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/verte-zerg/typespeed/internal/errors"
	"github.com/verte-zerg/typespeed/internal/model"
	"github.com/verte-zerg/typespeed/internal/results"
)

func (s *Server) healthcheck(c *gin.Context) {
	if s.c.Health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.c.Health(ctx); err != nil {
			s.log.Warn("healthcheck failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	respondOK(c, gin.H{"status": "ok"})
}

func (s *Server) createResult(c *gin.Context) {
	var in model.NewTestResult
	if err := c.ShouldBindJSON(&in); err != nil {
		s.respondError(c, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("malformed request body"),
			errors.WithCause(err),
		))
		return
	}

	if caller := c.GetString(usernameKey); caller != "" {
		switch in.Username {
		case "":
			in.Username = caller
		case caller:
		default:
			s.respondError(c, errors.New(errors.CodePermissionDenied,
				errors.WithMessagef("cannot submit results for another user"),
			))
			return
		}
	}

	res, err := s.c.Results.Create(c.Request.Context(), in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": res})
}

func (s *Server) listResults(c *gin.Context) {
	var fe []errors.FieldError
	req := results.ListRequest{
		ResultFilter: model.ResultFilter{
			Username:   strings.TrimSpace(c.Query("username")),
			Difficulty: model.Difficulty(strings.ToLower(strings.TrimSpace(c.Query("difficulty")))),
		},
	}
	req.Limit = queryInt(c, "limit", &fe)
	req.Offset = queryInt(c, "offset", &fe)
	req.StartDate = queryTime(c, "start_date", false, &fe)
	req.EndDate = queryTime(c, "end_date", true, &fe)
	if len(fe) > 0 {
		s.respondError(c, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("invalid list query"),
			errors.WithFields(fe),
		))
		return
	}

	page, err := s.c.Results.List(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, page)
}

func (s *Server) userStats(c *gin.Context) {
	st, err := s.c.Results.UserStats(c.Request.Context(), c.Param("username"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"data": st})
}

func (s *Server) leaderboard(c *gin.Context) {
	var fe []errors.FieldError
	req := results.LeaderboardRequest{
		Difficulty: model.Difficulty(strings.ToLower(strings.TrimSpace(c.Query("difficulty")))),
		Limit:      queryInt(c, "limit", &fe),
	}
	if len(fe) > 0 {
		s.respondError(c, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("invalid leaderboard query"),
			errors.WithFields(fe),
		))
		return
	}

	board, err := s.c.Results.Leaderboard(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"data": board})
}

func (s *Server) deleteUserResults(c *gin.Context) {
	username := c.Param("username")
	if caller := c.GetString(usernameKey); caller != "" && caller != username {
		s.respondError(c, errors.New(errors.CodePermissionDenied,
			errors.WithMessagef("cannot delete results of another user"),
		))
		return
	}

	n, err := s.c.Results.DeleteUserResults(c.Request.Context(), username)
	if err != nil {
		s.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": n})
}

// queryInt parses an optional integer query parameter. Absent values are 0.
func queryInt(c *gin.Context, name string, fe *[]errors.FieldError) int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*fe = append(*fe, errors.FieldError{Field: name, Message: "must be an integer"})
		return 0
	}
	return v
}

// queryTime parses an RFC 3339 timestamp or a plain date. A plain date as an
// upper bound covers the whole day.
func queryTime(c *gin.Context, name string, endOfDay bool, fe *[]errors.FieldError) *time.Time {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return &t
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		*fe = append(*fe, errors.FieldError{Field: name, Message: "must be an RFC 3339 timestamp or YYYY-MM-DD date"})
		return nil
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t
}
