package containers

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hanfei1991/blockingqueue/pkg/promutil"
)

const metricSubsystem = "blocking_queue"

// Metrics holds the collectors a BlockingQueue reports to.
// A nil *Metrics disables reporting.
type Metrics struct {
	pushed   prometheus.Counter
	popped   prometheus.Counter
	cleared  prometheus.Counter
	depth    prometheus.Gauge
	waitTime prometheus.Histogram
}

// NewMetrics creates and registers queue metrics through f.
func NewMetrics(f promutil.Factory) *Metrics {
	return &Metrics{
		pushed: f.NewCounter(prometheus.CounterOpts{
			Subsystem: metricSubsystem,
			Name:      "pushed_total",
			Help:      "Total number of items pushed.",
		}),
		popped: f.NewCounter(prometheus.CounterOpts{
			Subsystem: metricSubsystem,
			Name:      "popped_total",
			Help:      "Total number of items removed by Pop or TryPop.",
		}),
		cleared: f.NewCounter(prometheus.CounterOpts{
			Subsystem: metricSubsystem,
			Name:      "cleared_total",
			Help:      "Total number of items discarded by Clear.",
		}),
		depth: f.NewGauge(prometheus.GaugeOpts{
			Subsystem: metricSubsystem,
			Name:      "depth",
			Help:      "Number of items currently queued.",
		}),
		waitTime: f.NewHistogram(prometheus.HistogramOpts{
			Subsystem: metricSubsystem,
			Name:      "pop_wait_seconds",
			Help:      "Time Pop spent blocked on an empty queue.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
	}
}

func (m *Metrics) onPush(depth int) {
	if m == nil {
		return
	}
	m.pushed.Inc()
	m.depth.Set(float64(depth))
}

func (m *Metrics) onPop(depth int) {
	if m == nil {
		return
	}
	m.popped.Inc()
	m.depth.Set(float64(depth))
}

func (m *Metrics) onClear(n int) {
	if m == nil {
		return
	}
	m.cleared.Add(float64(n))
	m.depth.Set(0)
}

func (m *Metrics) setDepth(depth int) {
	if m == nil {
		return
	}
	m.depth.Set(float64(depth))
}

func (m *Metrics) onWait(d time.Duration) {
	if m == nil {
		return
	}
	m.waitTime.Observe(d.Seconds())
}
