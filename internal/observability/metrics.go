package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce            sync.Once
	httpRequestsTotal       *prometheus.CounterVec
	httpLatencySeconds      *prometheus.HistogramVec
	httpErrorsTotal         *prometheus.CounterVec
	attemptsStartedTotal    prometheus.Counter
	attemptsFinishedTotal   *prometheus.CounterVec
	answersSavedTotal       prometheus.Counter
	violationsRecordedTotal prometheus.Counter
	uploadsTotal            *prometheus.CounterVec
	uploadsRejectedTotal    *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cbt_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cbt_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cbt_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		attemptsStartedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cbt_exam_attempts_started_total",
			Help: "Total number of exam attempts started.",
		})

		attemptsFinishedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cbt_exam_attempts_finished_total",
			Help: "Total number of exam attempts finalized, by reason.",
		}, []string{"reason"})

		answersSavedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cbt_exam_answers_saved_total",
			Help: "Total number of answers upserted during attempts.",
		})

		violationsRecordedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cbt_exam_violations_recorded_total",
			Help: "Total number of focus/fullscreen violations recorded.",
		})

		uploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cbt_uploads_total",
			Help: "Total number of accepted file uploads, by detected type.",
		}, []string{"type"})

		uploadsRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cbt_uploads_rejected_total",
			Help: "Total number of rejected file uploads, by reason.",
		}, []string{"reason"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			attemptsStartedTotal,
			attemptsFinishedTotal,
			answersSavedTotal,
			violationsRecordedTotal,
			uploadsTotal,
			uploadsRejectedTotal,
		)
	})
}

// HTTPRequests exposes the request counter.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the error counter.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// AttemptsStarted exposes the started-attempt counter.
func AttemptsStarted() prometheus.Counter {
	RegisterMetrics()
	return attemptsStartedTotal
}

// AttemptsFinished exposes the finished-attempt counter.
func AttemptsFinished() *prometheus.CounterVec {
	RegisterMetrics()
	return attemptsFinishedTotal
}

// AnswersSaved exposes the answer autosave counter.
func AnswersSaved() prometheus.Counter {
	RegisterMetrics()
	return answersSavedTotal
}

// ViolationsRecorded exposes the violation counter.
func ViolationsRecorded() prometheus.Counter {
	RegisterMetrics()
	return violationsRecordedTotal
}

// Uploads exposes the accepted-upload counter.
func Uploads() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadsTotal
}

// UploadsRejected exposes the rejected-upload counter.
func UploadsRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadsRejectedTotal
}
