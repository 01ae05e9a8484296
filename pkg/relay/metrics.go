package relay

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes the relay's prometheus instrumentation: counters for
// delivery outcomes and a gauge for the current in-flight set size.
type Metrics struct {
	Submitted prometheus.Counter
	Deduped   prometheus.Counter
	Failed    prometheus.Counter
	InFlight  prometheus.Gauge
}

// NewMetrics constructs and registers a Metrics with the given registerer.
// Passing nil skips registration (tests build a Metrics without a live
// registry).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fabric_relay",
			Name:      "deliveries_submitted_total",
			Help:      "Deliveries successfully submitted to a destination chain.",
		}),
		Deduped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fabric_relay",
			Name:      "deliveries_deduped_total",
			Help:      "Deliveries skipped because they were already in flight or delivered.",
		}),
		Failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fabric_relay",
			Name:      "deliveries_failed_total",
			Help:      "Deliveries that exhausted retries without succeeding.",
		}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fabric_relay",
			Name:      "deliveries_in_flight",
			Help:      "Current size of the relay's in-flight delivery set.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Submitted, m.Deduped, m.Failed, m.InFlight)
	}
	return m
}
