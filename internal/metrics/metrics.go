package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultOK              = "ok"
	ResultCacheHit        = "cache_hit"
	ResultUnauthenticated = "unauthenticated"
	ResultRejected        = "rejected"
	ResultUnreachable     = "unreachable"
	ResultError           = "error"

	LookupHit  = "hit"
	LookupMiss = "miss"
)

type Metrics struct {
	RequestsTotal           *prometheus.CounterVec
	RequestDuration         *prometheus.HistogramVec
	CacheLookupsTotal       *prometheus.CounterVec
	CacheInvalidationsTotal *prometheus.CounterVec
	ReauthenticationsTotal  *prometheus.CounterVec
}

// New registers the collectors on reg. A nil reg yields unregistered collectors,
// which is what tests and one-shot commands usually want.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guacc_requests_total",
			Help: "Total number of remote API requests by method and result",
		}, []string{"method", "result"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "guacc_request_duration_seconds",
			Help:    "Duration of remote API requests that reached the network",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms .. ~10s
		}, []string{"method"}),

		CacheLookupsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guacc_cache_lookups_total",
			Help: "Total number of response cache lookups by namespace and result",
		}, []string{"namespace", "result"}),

		CacheInvalidationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guacc_cache_invalidations_total",
			Help: "Total number of response cache invalidations by namespace",
		}, []string{"namespace"}),

		ReauthenticationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guacc_reauthentications_total",
			Help: "Total number of reauthentication attempts by result",
		}, []string{"result"}),
	}
}
