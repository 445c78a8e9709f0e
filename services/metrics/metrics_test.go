package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m := New()
	m.ObserveRequest("/login", http.MethodPost, http.StatusOK)
	m.ObserveRequest("/login", http.MethodPost, http.StatusOK)
	m.ObserveScore(1, 2)
	m.ObserveScore(0, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("/login", http.MethodPost, "200")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.QuizSubmissions))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `enghaven_http_requests_total{method="POST",route="/login",status="200"} 2`)
	assert.Contains(t, string(body), "enghaven_quiz_score_ratio_count 1")
}
