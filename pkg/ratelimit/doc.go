/*
Package ratelimit groups the rate limiters that pace units of work.

  - bucket: in-process token bucket driven by a timing.TimeProvider
  - distributed: token bucket shared between processes through Redis

Both satisfy dispatch.Limiter, so either can throttle a Coordinator:

	limiter, err := bucket.New(bucket.Every(100*time.Millisecond), 5)
	if err != nil {
		return err
	}
	cfg := dispatch.DefaultConfig()
	cfg.Strategy = dispatch.Parallel
	cfg.Limiter = limiter

Each unit waits for a token on its own context before its function runs, so
disposing the coordinator abandons the wait and returns the token.

The distributed limiter keeps its state in a Redis hash updated by a Lua
script, and can fall back to a local bucket while Redis is unreachable:

	local, _ := bucket.New(10, 10)
	shared, err := distributed.New(distributed.Config{
		Client:   client,
		Key:      "rxflow:ingest",
		Rate:     50,
		Burst:    50,
		Fallback: local,
	})
*/
package ratelimit
