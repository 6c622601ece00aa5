package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.ObserveAuth("authorized")
	m.ObserveAuth("authorized")
	m.ObserveAuth("session_mismatch")
	m.ObserveSignup(ResultSuccess)
	m.ObserveLogin(ResultRejected)
	m.ObserveRateLimited("login")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.authDecisions.WithLabelValues("authorized")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.authDecisions.WithLabelValues("session_mismatch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.signups.WithLabelValues(ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.logins.WithLabelValues(ResultRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimited.WithLabelValues("login")))
}

func TestInstancesAreIsolated(t *testing.T) {
	a, b := New(), New()
	a.ObserveLogin(ResultSuccess)

	assert.Equal(t, 0.0, testutil.ToFloat64(b.logins.WithLabelValues(ResultSuccess)))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodGet, "/protected/", http.StatusUnauthorized, 5*time.Millisecond)
	m.ObserveLogin(ResultSuccess)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `avatargate_logins_total{result="success"} 1`)
	assert.Contains(t, string(body), `avatargate_http_request_duration_seconds_count{method="GET",route="/protected/",status="401"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
