package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the portal's Prometheus collectors on their own registry.
type Metrics struct {
	registry *prometheus.Registry

	Requests        *prometheus.CounterVec
	Logins          *prometheus.CounterVec
	Signups         prometheus.Counter
	Enrollments     *prometheus.CounterVec
	AttendanceMarks *prometheus.CounterVec
	QuizSubmissions prometheus.Counter
	QuizScores      prometheus.Histogram
	QuizForfeits    prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "enghaven_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "enghaven_logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		Signups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "enghaven_signups_total",
			Help: "Accounts created through signup.",
		}),
		Enrollments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "enghaven_enrollments_total",
			Help: "Enrollment submissions, by whether a proof was stored.",
		}, []string{"proof"}),
		AttendanceMarks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "enghaven_attendance_marks_total",
			Help: "Attendance check-ins, by whether a new record was created.",
		}, []string{"created"}),
		QuizSubmissions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "enghaven_quiz_submissions_total",
			Help: "Quiz submissions recorded.",
		}),
		QuizScores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "enghaven_quiz_score_ratio",
			Help:    "Score over number of questions of each submission.",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		QuizForfeits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "enghaven_quiz_forfeits_total",
			Help: "Quiz forfeits reported by clients.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Requests,
		m.Logins,
		m.Signups,
		m.Enrollments,
		m.AttendanceMarks,
		m.QuizSubmissions,
		m.QuizScores,
		m.QuizForfeits,
	)
	return m
}

func (m *Metrics) ObserveRequest(route, method string, status int) {
	m.Requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}

func (m *Metrics) ObserveScore(score, total int) {
	m.QuizSubmissions.Inc()
	if total > 0 {
		m.QuizScores.Observe(float64(score) / float64(total))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
