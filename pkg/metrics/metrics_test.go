package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/getmockd/seedql/pkg/seed"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_SeedEvents(t *testing.T) {
	m := New()

	m.OnRegister("g", "GetUser", seed.KindOperation)
	m.OnMatch("g", "GetUser", seed.KindOperation)
	m.OnMatch("g", "GetUser", seed.KindNetworkError)
	m.OnMiss("g", "GetUser")
	m.OnWarnings("GetUser", 3)
	m.OnExhausted("g", "GetUser")
	m.OnError("GetUser", errors.New("boom"))
	m.OnInstanceCreated("pets", "current", 10*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.registrations.WithLabelValues("operation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.matches.WithLabelValues("operation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.matches.WithLabelValues("networkError")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.misses))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.warnings))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.exhausted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mergeErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.instances))
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveRequest("graphql", 200, 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)
	assert.True(t, strings.Contains(text, `seedql_requests_total{route="graphql",status="200"} 1`), text)
	assert.Contains(t, text, "seedql_request_duration_seconds_bucket")
	assert.Contains(t, text, "go_goroutines")
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.OnMiss("g", "Op")
	assert.Equal(t, 1.0, testutil.ToFloat64(a.misses))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.misses))
}
