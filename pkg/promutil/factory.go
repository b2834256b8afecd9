package promutil

import "github.com/prometheus/client_golang/prometheus"

// Factory produces collectors that are already registered under their
// owner, so the owner never deals with registration or the http handler.
// Similar to usage of promauto.
//
// A process keeps one Registry. Every metric owner, such as a queue or a
// workload run, gets its Factory from NewFactory and drops everything it
// registered with UnregisterOwner when it goes away.
type Factory interface {
	// NewCounter works like prometheus.NewCounter and registers the result.
	// Panics if it can't register successfully.
	NewCounter(opts prometheus.CounterOpts) prometheus.Counter

	// NewGauge works like prometheus.NewGauge and registers the result.
	// Panics if it can't register successfully.
	NewGauge(opts prometheus.GaugeOpts) prometheus.Gauge

	// NewHistogram works like prometheus.NewHistogram and registers the result.
	// Panics if it can't register successfully.
	NewHistogram(opts prometheus.HistogramOpts) prometheus.Histogram
}
