/*
Package bucket implements a token bucket rate limiter.

Tokens accrue at Limit per second up to Burst. Allow never blocks, while Wait
sleeps on the bucket's TimeProvider until the tokens exist. Reserve borrows
against future refill and reports how long to wait.

	b, err := bucket.NewWithConfig(bucket.Config{
		Rate:          bucket.Every(200 * time.Millisecond),
		Burst:         3,
		InitialTokens: -1,
		TimeProvider:  tp,
	})

A zero Rate never refills: once the initial tokens are spent, Wait fails
with ErrLimitExceeded, as does any request for more than Burst tokens.
*/
package bucket
