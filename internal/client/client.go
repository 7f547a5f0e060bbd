// Package client talks to a remote typespeed results server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/typespeed/internal/errors"
	"github.com/verte-zerg/typespeed/internal/model"
)

const defaultTimeout = 10 * time.Second

type Config struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

type Client struct {
	base  *url.URL
	token string
	http  *http.Client
}

func New(c Config) (*Client, error) {
	raw := strings.TrimSpace(c.BaseURL)
	if raw == "" {
		return nil, fmt.Errorf("server url is empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	hc := c.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{base: base, token: c.Token, http: hc}, nil
}

// Create submits one completed test.
func (c *Client) Create(ctx context.Context, in model.NewTestResult) (*model.TestResult, error) {
	var out struct {
		Data *model.TestResult `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/test-results", nil, in, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return nil, fmt.Errorf("server returned no result")
	}
	return out.Data, nil
}

// ListResults fetches one page of a user's results.
func (c *Client) ListResults(ctx context.Context, filter model.ResultFilter, limit, offset int) (*model.ResultPage, error) {
	q := url.Values{}
	q.Set("username", filter.Username)
	if filter.Difficulty != "" {
		q.Set("difficulty", string(filter.Difficulty))
	}
	if filter.StartDate != nil {
		q.Set("start_date", filter.StartDate.UTC().Format(time.RFC3339Nano))
	}
	if filter.EndDate != nil {
		q.Set("end_date", filter.EndDate.UTC().Format(time.RFC3339Nano))
	}
	if limit != 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset != 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	var page model.ResultPage
	if err := c.do(ctx, http.MethodGet, "/api/test-results", q, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// UserStats fetches aggregate stats; nil means the user has no results.
func (c *Client) UserStats(ctx context.Context, username string) (*model.UserStats, error) {
	var out struct {
		Data *model.UserStats `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/test-results/stats/"+url.PathEscape(username), nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// Leaderboard fetches the ranking, optionally for one difficulty.
func (c *Client) Leaderboard(ctx context.Context, difficulty model.Difficulty, limit int) ([]model.TestResult, error) {
	q := url.Values{}
	if difficulty != "" {
		q.Set("difficulty", string(difficulty))
	}
	if limit != 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out struct {
		Data []model.TestResult `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/test-results/leaderboard", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// DeleteUserResults removes every result of a user and returns the count.
func (c *Client) DeleteUserResults(ctx context.Context, username string) (int64, error) {
	var out struct {
		Deleted int64 `json:"deleted"`
	}
	if err := c.do(ctx, http.MethodDelete, "/api/test-results/user/"+url.PathEscape(username), nil, nil, &out); err != nil {
		return 0, err
	}
	return out.Deleted, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			// Best-effort body close.
			_ = cerr
		}
	}()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeError turns an error envelope into a coded error.
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var env struct {
		Error *errors.Error `json:"error"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && env.Error != nil && env.Error.Code != "" {
		return env.Error
	}
	return errors.Internal(fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
}
