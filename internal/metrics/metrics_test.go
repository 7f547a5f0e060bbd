package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.ObserveRequest(http.MethodGet, "/api/test-results", http.StatusOK, 5*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "/api/test-results", http.StatusOK, 7*time.Millisecond)
	m.ResultCreated("hard")
	m.ResultsDeleted(3)
	m.CacheLookup(true)
	m.CacheLookup(false)
	m.CacheLookup(false)

	body := scrape(t, m)
	require.Contains(t, body, `typespeed_http_requests_total{method="GET",route="/api/test-results",status="200"} 2`)
	require.Contains(t, body, `typespeed_results_created_total{difficulty="hard"} 1`)
	require.Contains(t, body, `typespeed_results_deleted_total 3`)
	require.Contains(t, body, `typespeed_leaderboard_cache_lookups_total{outcome="miss"} 2`)
	require.Contains(t, body, `typespeed_http_request_duration_seconds_count{method="GET",route="/api/test-results"} 2`)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.ObserveRequest("GET", "/", 200, time.Millisecond)
		m.ResultCreated("easy")
		m.ResultsDeleted(1)
		m.CacheLookup(true)
	})
}

func TestRegistryGathersCollectors(t *testing.T) {
	m := New()
	m.ResultsDeleted(2)

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	require.True(t, names["typespeed_results_deleted_total"])
	require.True(t, names["go_goroutines"], "runtime collectors are registered")
}

func TestHandlerExposition(t *testing.T) {
	m := New()
	m.ResultCreated("easy")

	body := scrape(t, m)
	require.True(t, strings.Contains(body, `typespeed_results_created_total{difficulty="easy"} 1`))
	require.True(t, strings.Contains(body, "go_goroutines"))
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}
