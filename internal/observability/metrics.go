package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
	httpErrorsTotal       *prometheus.CounterVec
	contentQueriesTotal   *prometheus.CounterVec
	contentEntriesServed  prometheus.Histogram
	uploadsTotal          *prometheus.CounterVec
	uploadRejectedTotal   *prometheus.CounterVec
	uploadLatencySeconds  prometheus.Histogram
	riskPredictionsTotal  *prometheus.CounterVec
	eventsPublishFailures *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "learngap_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "learngap_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "learngap_http_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		contentQueriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "learngap_content_queries_total",
			Help: "Content resolutions grouped by whether class and subject were wildcards.",
		}, []string{"class_scope", "subject_scope"})

		contentEntriesServed = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "learngap_content_entries",
			Help:    "Number of content entries returned per resolution.",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		})

		uploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "learngap_uploads_total",
			Help: "Stored uploads grouped by kind (notes, file, submission).",
		}, []string{"kind"})

		uploadRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "learngap_upload_rejected_total",
			Help: "Rejected uploads grouped by reason.",
		}, []string{"reason"})

		uploadLatencySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "learngap_upload_latency_seconds",
			Help:    "Time spent validating and storing uploads.",
			Buckets: prometheus.DefBuckets,
		})

		riskPredictionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "learngap_risk_predictions_total",
			Help: "Risk predictions grouped by label and provider.",
		}, []string{"label", "provider"})

		eventsPublishFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "learngap_event_publish_failures_total",
			Help: "Domain events that could not be delivered to a broker.",
		}, []string{"broker"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			contentQueriesTotal,
			contentEntriesServed,
			uploadsTotal,
			uploadRejectedTotal,
			uploadLatencySeconds,
			riskPredictionsTotal,
			eventsPublishFailures,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// ContentQueries exposes the content resolution counter.
func ContentQueries() *prometheus.CounterVec {
	RegisterMetrics()
	return contentQueriesTotal
}

// ContentEntries exposes the histogram of entries per resolution.
func ContentEntries() prometheus.Histogram {
	RegisterMetrics()
	return contentEntriesServed
}

// Uploads exposes the stored upload counter.
func Uploads() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadsTotal
}

// UploadRejected exposes the rejected upload counter.
func UploadRejected() *prometheus.CounterVec {
	RegisterMetrics()
	return uploadRejectedTotal
}

// UploadLatency exposes the upload latency histogram.
func UploadLatency() prometheus.Histogram {
	RegisterMetrics()
	return uploadLatencySeconds
}

// RiskPredictions exposes the risk prediction counter.
func RiskPredictions() *prometheus.CounterVec {
	RegisterMetrics()
	return riskPredictionsTotal
}

// EventPublishFailures exposes the broker failure counter.
func EventPublishFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return eventsPublishFailures
}
