package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ChatRequests        *prometheus.CounterVec
	ChatDuration        prometheus.Histogram
	ActiveConversations prometheus.Gauge
	RateLimitRejections prometheus.Counter
	ProviderErrors      *prometheus.CounterVec
	MemoryOps           *prometheus.CounterVec
	TokensStreamed      prometheus.Counter
	DirectiveHits       *prometheus.CounterVec
}

// NewMetrics registers the instruments with reg. Pass
// prometheus.DefaultRegisterer in production; tests use their own registry
// so instances stay isolated.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ChatRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_requests_total",
			Help:      "Chat requests by terminal outcome.",
		}, []string{"outcome"}),
		ChatDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chat_request_duration_seconds",
			Help:      "End-to-end chat request duration in seconds.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}),
		ActiveConversations: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_conversations",
			Help:      "Number of conversations with an in-flight chat request.",
		}),
		RateLimitRejections: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_rejections_total",
			Help:      "Requests rejected by admission control.",
		}),
		ProviderErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Provider errors by provider and code.",
		}, []string{"provider", "code"}),
		MemoryOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_ops_total",
			Help:      "Vector memory operations by kind and status.",
		}, []string{"op", "status"}),
		TokensStreamed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_streamed_total",
			Help:      "Token chunks forwarded to clients.",
		}),
		DirectiveHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "directive_hits_total",
			Help:      "Analytics directives detected by the intent classifier.",
		}, []string{"directive"}),
	}
}

func (m *Metrics) ObserveChat(outcome string, d time.Duration) {
	m.ChatRequests.WithLabelValues(outcome).Inc()
	m.ChatDuration.Observe(d.Seconds())
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
