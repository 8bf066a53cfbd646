// Package metrics provides Prometheus instrumentation for rxflow components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for rxflow components.
type Registry struct {
	// Subscription Metrics
	SubscriptionsActive *prometheus.GaugeVec
	Disposals           *prometheus.CounterVec

	// Dispatch Metrics
	DispatchReceived *prometheus.CounterVec
	DispatchStarted  *prometheus.CounterVec
	DispatchDropped  *prometheus.CounterVec
	DispatchFailed   *prometheus.CounterVec
	DispatchCanceled *prometheus.CounterVec
	DispatchQueued   *prometheus.GaugeVec
	DispatchInFlight *prometheus.GaugeVec
	DispatchDuration *prometheus.HistogramVec

	// Rate Limit Metrics
	LimiterAllowed *prometheus.CounterVec
	LimiterDenied  *prometheus.CounterVec
	LimiterWait    *prometheus.HistogramVec

	// Aggregation Metrics
	AggregateResolutions *prometheus.CounterVec
	AggregateItems       *prometheus.CounterVec
}

// DefaultRegistry is the default metrics registry used by rxflow components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	return NewRegistryWithConfig(Config{Registry: reg})
}

// NewRegistryWithConfig creates a metrics registry honoring the namespace and
// constant labels of config. A nil config.Registry registers nothing globally.
func NewRegistryWithConfig(config Config) *Registry {
	factory := promauto.With(config.Registry)
	ns := config.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	labels := config.Labels

	dispatchLabels := []string{"strategy", "name"}

	return &Registry{
		// Subscription Metrics
		SubscriptionsActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "subscription",
				Name:        "active",
				Help:        "Number of live subscriptions",
				ConstLabels: labels,
			},
			[]string{"component", "name"},
		),

		Disposals: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "subscription",
				Name:        "disposals_total",
				Help:        "Total number of subscriptions disposed before completion",
				ConstLabels: labels,
			},
			[]string{"component", "name"},
		),

		// Dispatch Metrics
		DispatchReceived: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "dispatch",
				Name:        "received_total",
				Help:        "Total number of values pushed into dispatch coordinators",
				ConstLabels: labels,
			},
			dispatchLabels,
		),

		DispatchStarted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "dispatch",
				Name:        "started_total",
				Help:        "Total number of units of work started",
				ConstLabels: labels,
			},
			dispatchLabels,
		),

		DispatchDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "dispatch",
				Name:        "dropped_total",
				Help:        "Total number of values discarded by the backpressure strategy",
				ConstLabels: labels,
			},
			dispatchLabels,
		),

		DispatchFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "dispatch",
				Name:        "failed_total",
				Help:        "Total number of units of work that returned an error",
				ConstLabels: labels,
			},
			dispatchLabels,
		),

		DispatchCanceled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "dispatch",
				Name:        "canceled_total",
				Help:        "Total number of units of work whose token was canceled",
				ConstLabels: labels,
			},
			dispatchLabels,
		),

		DispatchQueued: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "dispatch",
				Name:        "queued",
				Help:        "Number of values waiting in the pending-work queue",
				ConstLabels: labels,
			},
			dispatchLabels,
		),

		DispatchInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "dispatch",
				Name:        "in_flight",
				Help:        "Number of units of work currently executing",
				ConstLabels: labels,
			},
			dispatchLabels,
		),

		DispatchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   ns,
				Subsystem:   "dispatch",
				Name:        "unit_duration_seconds",
				Help:        "Time spent executing units of work",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: labels,
			},
			dispatchLabels,
		),

		// Rate Limit Metrics
		LimiterAllowed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "ratelimit",
				Name:        "allowed_total",
				Help:        "Total number of tokens granted by rate limiters",
				ConstLabels: labels,
			},
			[]string{"limiter"},
		),

		LimiterDenied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "ratelimit",
				Name:        "denied_total",
				Help:        "Total number of token requests refused by rate limiters",
				ConstLabels: labels,
			},
			[]string{"limiter"},
		),

		LimiterWait: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   ns,
				Subsystem:   "ratelimit",
				Name:        "wait_seconds",
				Help:        "Time callers spent waiting for tokens",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: labels,
			},
			[]string{"limiter"},
		),

		// Aggregation Metrics
		AggregateResolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "aggregate",
				Name:        "resolutions_total",
				Help:        "Total number of aggregator futures resolved, by outcome",
				ConstLabels: labels,
			},
			[]string{"aggregator", "outcome"},
		),

		AggregateItems: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "aggregate",
				Name:        "items_total",
				Help:        "Total number of values folded into aggregators",
				ConstLabels: labels,
			},
			[]string{"aggregator"},
		),
	}
}
