package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 聚合链路的 Prometheus 指标；nil 接收者上的方法都是空操作，方便测试直接传 nil
type Metrics struct {
	providerRequests *prometheus.CounterVec
	categoryResults  *prometheus.CounterVec
	aggregation      *prometheus.HistogramVec
	storeErrors      *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		providerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "newsdesk",
			Name:      "provider_requests_total",
			Help:      "Provider fetches by outcome",
		}, []string{"provider", "result"}),
		categoryResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "newsdesk",
			Name:      "category_results_total",
			Help:      "Category aggregations by terminal state",
		}, []string{"category", "state"}),
		aggregation: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "newsdesk",
			Name:      "aggregation_duration_seconds",
			Help:      "Time spent aggregating one category",
			Buckets:   prometheus.DefBuckets,
		}, []string{"category"}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "newsdesk",
			Name:      "store_errors_total",
			Help:      "Cache store failures by operation",
		}, []string{"op"}),
	}
	if reg != nil {
		reg.MustRegister(m.providerRequests, m.categoryResults, m.aggregation, m.storeErrors)
	}
	return m
}

func (m *Metrics) ProviderRequest(provider, result string) {
	if m == nil {
		return
	}
	m.providerRequests.WithLabelValues(provider, result).Inc()
}

func (m *Metrics) CategoryResult(category, state string, took time.Duration) {
	if m == nil {
		return
	}
	m.categoryResults.WithLabelValues(category, state).Inc()
	m.aggregation.WithLabelValues(category).Observe(took.Seconds())
}

func (m *Metrics) StoreError(op string) {
	if m == nil {
		return
	}
	m.storeErrors.WithLabelValues(op).Inc()
}
