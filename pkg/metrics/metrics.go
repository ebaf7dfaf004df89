package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	PageRenders = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "inkpress", Name: "page_renders_total", Help: "Number of post page renders by outcome."},
		[]string{"outcome"},
	)
	RenderCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "inkpress", Name: "render_cache_hits_total", Help: "Number of render cache hits."},
	)
	RenderCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "inkpress", Name: "render_cache_misses_total", Help: "Number of render cache misses."},
	)
	LinkChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "inkpress", Name: "link_checks_total", Help: "Number of checked links by result."},
		[]string{"result"},
	)
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "inkpress", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "inkpress", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(PageRenders, RenderCacheHits, RenderCacheMisses, LinkChecks, RateLimitAllowed, RateLimitRejected)
}
