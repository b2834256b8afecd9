package promutil

import (
	"github.com/prometheus/client_golang/prometheus"
)

type wrappingFactory struct {
	r *Registry
	// id identifies the owner; Registry.Unregister(id) drops every
	// collector this factory produced.
	id string
	// prefix is prepended to the namespace, giving
	// $prefix_$namespace_$subsystem_$name
	prefix string
	// constLabels are added to every metric
	constLabels prometheus.Labels
}

func (f *wrappingFactory) NewCounter(opts prometheus.CounterOpts) prometheus.Counter {
	f.wrap(&opts.Namespace, &opts.ConstLabels)
	c := prometheus.NewCounter(opts)
	f.r.MustRegister(f.id, c)
	return c
}

func (f *wrappingFactory) NewGauge(opts prometheus.GaugeOpts) prometheus.Gauge {
	f.wrap(&opts.Namespace, &opts.ConstLabels)
	g := prometheus.NewGauge(opts)
	f.r.MustRegister(f.id, g)
	return g
}

func (f *wrappingFactory) NewHistogram(opts prometheus.HistogramOpts) prometheus.Histogram {
	f.wrap(&opts.Namespace, &opts.ConstLabels)
	h := prometheus.NewHistogram(opts)
	f.r.MustRegister(f.id, h)
	return h
}

// wrap applies the factory prefix and const labels to the namespace and
// const labels of a collector's opts.
func (f *wrappingFactory) wrap(namespace *string, constLabels *prometheus.Labels) {
	*namespace = wrapNamespace(f.prefix, *namespace)
	*constLabels = mergeConstLabels(*constLabels, f.constLabels)
}

func wrapNamespace(prefix, namespace string) string {
	switch {
	case prefix == "":
		return namespace
	case namespace == "":
		return prefix
	default:
		return prefix + "_" + namespace
	}
}

// mergeConstLabels returns a copy of cls with extra added. Panics on a
// duplicate name.
func mergeConstLabels(cls, extra prometheus.Labels) prometheus.Labels {
	if len(extra) == 0 {
		return cls
	}
	merged := make(prometheus.Labels, len(cls)+len(extra))
	for name, value := range cls {
		merged[name] = value
	}
	for name, value := range extra {
		if _, exists := merged[name]; exists {
			panic("duplicate label name " + name)
		}
		merged[name] = value
	}
	return merged
}
