package service

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API and
// the scheduling engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	batchCommits    *prometheus.CounterVec
	autoRuns        prometheus.Counter
	autoSessions    prometheus.Counter
	autoShortfalls  prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	batchCommits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_batch_commits_total",
		Help: "Batch commit attempts partitioned by outcome",
	}, []string{"result"})

	autoRuns := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_auto_schedule_runs_total",
		Help: "Total auto-schedule runs",
	})

	autoSessions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_auto_schedule_sessions_created_total",
		Help: "Sessions proposed by the auto-scheduler",
	})

	autoShortfalls := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_auto_schedule_shortfalls_total",
		Help: "Subjects left with unscheduled minutes after a run",
	})

	registry.MustRegister(requestDuration, requestTotal, batchCommits, autoRuns, autoSessions, autoShortfalls)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		batchCommits:    batchCommits,
		autoRuns:        autoRuns,
		autoSessions:    autoSessions,
		autoShortfalls:  autoShortfalls,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one handled request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := []string{method, path, fmt.Sprintf("%d", status)}
	s.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	s.requestTotal.WithLabelValues(labels...).Inc()
}

// ObserveBatchCommit records a batch commit outcome: "committed",
// "rejected" or "dry_run".
func (s *MetricsService) ObserveBatchCommit(result string) {
	s.batchCommits.WithLabelValues(result).Inc()
}

// ObserveAutoScheduleRun records one bulk run and its yield.
func (s *MetricsService) ObserveAutoScheduleRun(sessionsCreated, shortfalls int) {
	s.autoRuns.Inc()
	s.autoSessions.Add(float64(sessionsCreated))
	s.autoShortfalls.Add(float64(shortfalls))
}
