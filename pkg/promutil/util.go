package promutil

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const systemID = "system"

const (
	// constLabelOwnerKey is used to recognize metrics of the same owner
	constLabelOwnerKey = "owner"
)

// HTTPHandlerForMetric return http.Handler for prometheus metric
func HTTPHandlerForMetric() http.Handler {
	return promhttp.HandlerFor(
		globalMetricGatherer,
		promhttp.HandlerOpts{},
	)
}

// NewFactory returns a Factory registering into the process registry.
// Every metric produced carries an "owner" const label set to ownerID,
// so several owners can share metric names.
func NewFactory(ownerID string, prefix string) Factory {
	return NewFactoryWithRegistry(globalMetricRegistry, ownerID, prefix)
}

// NewFactoryWithRegistry is NewFactory over an explicit Registry.
func NewFactoryWithRegistry(r *Registry, ownerID string, prefix string) Factory {
	return &wrappingFactory{
		r:      r,
		id:     ownerID,
		prefix: prefix,
		constLabels: prometheus.Labels{
			constLabelOwnerKey: ownerID,
		},
	}
}

// UnregisterOwner unregisters all metrics produced by factories of ownerID.
func UnregisterOwner(ownerID string) {
	globalMetricRegistry.Unregister(ownerID)
}
