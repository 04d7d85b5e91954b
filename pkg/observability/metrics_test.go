package observability

import (
	"database/sql"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_RegistersOnce(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)
	require.NotNil(t, metrics)

	assert.Panics(t, func() { NewMetrics(registry) }, "duplicate registration must panic")
}

func TestMetrics_RecordStorageOperation(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	metrics.RecordStorageOperation("get", "memory", 2*time.Millisecond, nil, "")
	metrics.RecordStorageOperation("get", "memory", time.Millisecond, errors.New("x"), "not_found")

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.StorageOperationsTotal.WithLabelValues("get", "memory", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.StorageOperationsTotal.WithLabelValues("get", "memory", "error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.StorageErrorsTotal.WithLabelValues("get", "memory", "not_found")))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.StorageOperationDuration))
}

func TestMetrics_RecordDBStats(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	metrics.RecordDBStats(sql.DBStats{InUse: 3, Idle: 2, WaitCount: 7, WaitDuration: 1500 * time.Millisecond})

	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.DBConnectionsActive))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.DBConnectionsIdle))
	assert.Equal(t, float64(7), testutil.ToFloat64(metrics.DBConnectionsWaitCount))
	assert.Equal(t, 1.5, testutil.ToFloat64(metrics.DBConnectionsWaitDuration))
}

func TestMetrics_RecordProfiles(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	metrics.RecordProfiles(ProfileSnapshot{Total: 5, Active: 4, ByRole: map[string]int{"user": 3, "admin": 2}})
	assert.Equal(t, float64(5), testutil.ToFloat64(metrics.ProfilesTotal))
	assert.Equal(t, float64(4), testutil.ToFloat64(metrics.ProfilesActive))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.ProfilesByRole.WithLabelValues("admin")))

	// A role that disappears from the snapshot is dropped
	metrics.RecordProfiles(ProfileSnapshot{Total: 3, Active: 3, ByRole: map[string]int{"user": 3}})
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.ProfilesByRole))
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	t.Run("records HTTP metrics", func(t *testing.T) {
		metrics := NewMetrics(prometheus.NewRegistry())

		handler := HTTPMetricsMiddleware(metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("OK"))
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/test", nil))

		expected := `
# HELP userdeck_http_requests_total Total number of HTTP requests
# TYPE userdeck_http_requests_total counter
userdeck_http_requests_total{method="GET",path="/test",status="200"} 1
`
		assert.NoError(t, testutil.CollectAndCompare(metrics.HTTPRequestsTotal, strings.NewReader(expected)))
		assert.Equal(t, 1, testutil.CollectAndCount(metrics.HTTPRequestDuration))
		assert.Equal(t, 1, testutil.CollectAndCount(metrics.HTTPResponseSize))
	})

	t.Run("labels by route template under mux", func(t *testing.T) {
		metrics := NewMetrics(prometheus.NewRegistry())

		router := mux.NewRouter()
		router.Use(HTTPMetricsMiddleware(metrics))
		router.HandleFunc("/api/users/{uid}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		for _, uid := range []string{"a", "b", "c"} {
			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/users/"+uid, nil))
		}

		assert.Equal(t, float64(3), testutil.ToFloat64(
			metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/users/{uid}", "404")))
	})

	t.Run("records request size with content length", func(t *testing.T) {
		metrics := NewMetrics(prometheus.NewRegistry())
		handler := HTTPMetricsMiddleware(metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.Copy(io.Discard, r.Body)
		}))

		req := httptest.NewRequest("POST", "/api/users", strings.NewReader(`{"uid":"x"}`))
		handler.ServeHTTP(httptest.NewRecorder(), req)
		assert.Equal(t, 1, testutil.CollectAndCount(metrics.HTTPRequestSize))
	})
}

func TestRegisterMetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)
	metrics.RateLimitRejectionsTotal.WithLabelValues("signup").Inc()

	mux := http.NewServeMux()
	RegisterMetricsEndpoint(mux, registry)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `userdeck_rate_limit_rejections_total{limiter="signup"} 1`)
}
