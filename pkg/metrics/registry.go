// Package metrics centralizes prometheus registration for the fabric's
// services: each long-lived process builds one Registry and registers its
// own collectors (pkg/liquidity.Monitor, pkg/relay.Metrics) into it, then
// serves it on MetricsListenAddr.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry wraps a prometheus.Registry so every fabric binary constructs
// its metrics surface the same way instead of reaching for the global
// DefaultRegisterer.
type Registry struct {
	reg *prometheus.Registry
}

// NewRegistry builds an empty Registry with the standard process and Go
// runtime collectors attached, matching what promhttp.Handler() provides
// by default for the global registry.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
	return &Registry{reg: reg}
}

// Register adds one or more collectors, panicking on a duplicate
// registration since that indicates a wiring bug caught at startup, not a
// runtime condition to recover from.
func (r *Registry) Register(collectors ...prometheus.Collector) {
	r.reg.MustRegister(collectors...)
}

// Registerer exposes the underlying prometheus.Registerer for packages
// that register their own collectors at construction time
// (pkg/relay.NewMetrics). pkg/liquidity instead hands its collectors to
// Register via Monitor.Collectors.
func (r *Registry) Registerer() prometheus.Registerer { return r.reg }

// Handler returns the http.Handler that serves this registry's metrics in
// the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
