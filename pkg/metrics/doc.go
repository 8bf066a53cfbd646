// Package metrics provides Prometheus instrumentation for rxflow components.
//
// # Overview
//
// The metrics package provides instrumentation for:
//   - Subscriptions (live subscriptions, disposals before completion)
//   - Dispatch coordinators (values received, units started, dropped,
//     failed and canceled, queue depth, in-flight units, unit duration)
//   - Terminal aggregators (resolutions by outcome, folded items)
//
// # Quick Start
//
// Pass a Registry to the component configuration:
//
//	reg := metrics.NewRegistry(prometheus.DefaultRegisterer)
//
//	cfg := dispatch.DefaultConfig()
//	cfg.Name = "thumbnails"
//	cfg.Metrics = reg
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//	log.Fatal(http.ListenAndServe(":8080", nil))
//
// # Custom Registry
//
// Use a custom Prometheus registry for isolation, which is also what tests do:
//
//	cfg := metrics.Config{
//		Enabled:   true,
//		Registry:  prometheus.NewRegistry(),
//		Namespace: "ingest",
//	}
//	reg := cfg.Build()
//
// A nil *Registry disables instrumentation in every component.
//
// # Labels
//
// Dispatch metrics carry "strategy" and "name" labels; aggregation metrics
// carry "aggregator" and, for resolutions, "outcome" (succeeded, failed or
// canceled).
package metrics
