package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics
type Metrics struct {
	FetchAttempts   *prometheus.CounterVec
	FetchRequests   *prometheus.CounterVec
	FetchDuration   prometheus.Histogram
	RowsProcessed   *prometheus.CounterVec
	RecordsUpserted prometheus.Counter
	StageDuration   *prometheus.HistogramVec
	ErrorsCount     *prometheus.CounterVec
}

// NewMetrics creates new prometheus metrics on the default registry
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWithRegistry(namespace, prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry creates the metrics on the given registerer
func NewMetricsWithRegistry(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		FetchAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_attempts_total",
			Help:      "Portal search attempts by outcome",
		}, []string{"outcome"}),
		FetchRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      "Request keys by final result",
		}, []string{"result"}),
		FetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Time taken by a single portal search",
			Buckets:   prometheus.DefBuckets,
		}),
		RowsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_processed_total",
			Help:      "Rows handled per pipeline stage and result",
		}, []string{"stage", "result"}),
		RecordsUpserted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_upserted_total",
			Help:      "The total number of fare records written to the sink",
		}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Time taken by each pipeline stage",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		}, []string{"stage"}),
		ErrorsCount: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "The total number of errors",
		}, []string{"operation"}),
	}
}

// ObserveAttempt records the outcome and latency of one fetch attempt
func (m *Metrics) ObserveAttempt(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.FetchAttempts.WithLabelValues(outcome).Inc()
	m.FetchDuration.Observe(took.Seconds())
}

// ObserveRequest records the final result of a request key
func (m *Metrics) ObserveRequest(result string) {
	if m == nil {
		return
	}
	m.FetchRequests.WithLabelValues(result).Inc()
}

// AddRows adds n rows to a stage counter
func (m *Metrics) AddRows(stage, result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RowsProcessed.WithLabelValues(stage, result).Add(float64(n))
}

// AddUpserted adds n written records
func (m *Metrics) AddUpserted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RecordsUpserted.Add(float64(n))
}

// ObserveStage records how long a stage took
func (m *Metrics) ObserveStage(stage string, took time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(took.Seconds())
}

// IncError counts an error for an operation
func (m *Metrics) IncError(operation string) {
	if m == nil {
		return
	}
	m.ErrorsCount.WithLabelValues(operation).Inc()
}
