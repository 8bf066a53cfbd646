package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace is the metric namespace used when Config.Namespace is empty.
const DefaultNamespace = "rxflow"

// Config holds configuration for metrics collection.
type Config struct {
	// Enabled controls whether metrics collection is active.
	Enabled bool

	// Registry is the Prometheus registry to use. If nil, metrics are created
	// but not registered anywhere.
	Registry prometheus.Registerer

	// Namespace overrides the default "rxflow" namespace for metrics.
	Namespace string

	// Labels are additional constant labels to add to all metrics.
	Labels prometheus.Labels
}

// DefaultConfig returns a default metrics configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:   true,
		Registry:  prometheus.DefaultRegisterer,
		Namespace: DefaultNamespace,
		Labels:    nil,
	}
}

// Build returns the Registry described by config, or nil when metrics are
// disabled. Components treat a nil *Registry as "metrics off".
func (c Config) Build() *Registry {
	if !c.Enabled {
		return nil
	}
	if c.Registry == prometheus.DefaultRegisterer && c.Namespace == DefaultNamespace && c.Labels == nil {
		return DefaultRegistry
	}
	return NewRegistryWithConfig(c)
}
