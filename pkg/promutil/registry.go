package promutil

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	dto "github.com/prometheus/client_model/go"
)

// The process registry holds only wrapped metrics plus the runtime
// collectors, not whatever was put into prometheus.DefaultRegistry.
var (
	globalMetricRegistry                     = NewRegistry()
	globalMetricGatherer prometheus.Gatherer = globalMetricRegistry
)

func init() {
	globalMetricRegistry.MustRegister(systemID, collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	globalMetricRegistry.MustRegister(systemID, collectors.NewGoCollector())
}

// Registry is a prometheus.Registry that remembers the owner of every
// collector, so an owner's metrics can be dropped together.
type Registry struct {
	mu sync.Mutex
	*prometheus.Registry

	byOwner map[string][]prometheus.Collector
}

func NewRegistry() *Registry {
	return &Registry{
		Registry: prometheus.NewRegistry(),
		byOwner:  make(map[string][]prometheus.Collector),
	}
}

// MustRegister registers c on behalf of ownerID. Panics if c cannot be
// registered.
func (r *Registry) MustRegister(ownerID string, c prometheus.Collector) {
	if c == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Registry.MustRegister(c)
	r.byOwner[ownerID] = append(r.byOwner[ownerID], c)
}

// Unregister drops every collector registered on behalf of ownerID.
func (r *Registry) Unregister(ownerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.byOwner[ownerID] {
		r.Registry.Unregister(c)
	}
	delete(r.byOwner, ownerID)
}

// Gather implements prometheus.Gatherer.
func (r *Registry) Gather() ([]*dto.MetricFamily, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.Registry.Gather()
}
