/*
Package rxflow provides a push-based event-stream runtime for Go: observable
sources, cancellable asynchronous dispatch under selectable backpressure
strategies, and aggregation of a stream into a single awaited result.

Streams (pkg/reactive):
  - disposable: Idempotent resource-release handles and composites
  - observable: Observer/Observable contracts, Subject and basic sources
  - dispatch: Asynchronous units of work per value (sequential, drop,
    parallel, switch, throttle-first-last)
  - aggregate: Sum, Count, Average, Min, Max and friends resolving a future
  - future: Single-assignment result cell
  - timing: Injectable time provider, interval and cron sources
  - bridge: Redis pub/sub and MQTT sources and publishers

Rate limiting (pkg/ratelimit):
  - bucket: Token bucket on an injectable time provider
  - distributed: Token bucket shared through Redis

Supporting packages:
  - config: YAML/TOML dispatch profiles
  - metrics: Prometheus instrumentation

Example usage:

	import (
		"github.com/vnykmshr/rxflow/pkg/reactive/dispatch"
		"github.com/vnykmshr/rxflow/pkg/reactive/observable"
	)

	cfg := dispatch.DefaultConfig()
	cfg.Strategy = dispatch.Drop

	sub, err := dispatch.Subscribe(clicks, handleClick, cfg, logError, nil)
	if err != nil {
		return err
	}
	defer sub.Dispose()
*/
package rxflow
