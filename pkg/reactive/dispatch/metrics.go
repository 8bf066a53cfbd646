package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/rxflow/pkg/metrics"
)

type counter func(*metrics.Registry) *prometheus.CounterVec

var (
	receivedTotal counter = func(m *metrics.Registry) *prometheus.CounterVec { return m.DispatchReceived }
	droppedTotal  counter = func(m *metrics.Registry) *prometheus.CounterVec { return m.DispatchDropped }
	failedTotal   counter = func(m *metrics.Registry) *prometheus.CounterVec { return m.DispatchFailed }
	canceledTotal counter = func(m *metrics.Registry) *prometheus.CounterVec { return m.DispatchCanceled }
)

// count increments the selected dispatch counter when metrics are enabled.
func (c *Coordinator[T, R]) count(pick counter) {
	if m := c.config.Metrics; m != nil {
		pick(m).WithLabelValues(c.labels()...).Inc()
	}
}

func (c *Coordinator[T, R]) labels() []string {
	return []string{c.config.Strategy.String(), c.config.Name}
}
