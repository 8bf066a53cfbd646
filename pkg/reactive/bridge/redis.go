package bridge

import (
	"context"

	"github.com/redis/go-redis/v9"

	rxerrors "github.com/vnykmshr/rxflow/pkg/common/errors"
	"github.com/vnykmshr/rxflow/pkg/common/validation"
	"github.com/vnykmshr/rxflow/pkg/reactive/disposable"
	"github.com/vnykmshr/rxflow/pkg/reactive/observable"
)

// RedisSubscribe returns an Observable of messages published to channels.
//
// Each subscription opens its own Redis pub/sub connection and waits for the
// server to confirm it; if that fails the subscription completes with a
// failure. Messages are forwarded in the order Redis delivers them. Disposing
// the subscription closes the pub/sub connection. A connection closed by the
// client completes the subscription successfully.
func RedisSubscribe(client redis.UniversalClient, channels ...string) (observable.Observable[*redis.Message], error) {
	if err := validation.ValidateNotNil("bridge", "redis client", client); err != nil {
		return nil, err
	}
	if len(channels) == 0 {
		return nil, rxerrors.NewValidationError("bridge", "channels", channels, "cannot be empty").
			WithHint("pass at least one channel name")
	}

	return observable.Create(func(o observable.Observer[*redis.Message]) disposable.Disposable {
		ctx, cancel := context.WithCancel(context.Background())
		pubsub := client.Subscribe(ctx, channels...)

		go func() {
			if _, err := pubsub.Receive(ctx); err != nil {
				if ctx.Err() == nil {
					o.OnCompleted(observable.Failure(rxerrors.NewOperationError("bridge", "RedisSubscribe", err)))
				}
				return
			}

			messages := pubsub.Channel()
			for {
				select {
				case <-ctx.Done():
					return
				case msg, ok := <-messages:
					if !ok {
						o.OnCompleted(observable.Success)
						return
					}
					o.OnNext(msg)
				}
			}
		}()

		return disposable.Combine(disposable.FromCancel(cancel), disposable.FromCloser(pubsub))
	}), nil
}

// RedisPublish returns a unit of work that publishes its value to channel.
// It is meant to be run by a dispatch.Coordinator.
func RedisPublish(client redis.UniversalClient, channel string) func(ctx context.Context, message string) error {
	return func(ctx context.Context, message string) error {
		if err := client.Publish(ctx, channel, message).Err(); err != nil {
			return rxerrors.NewOperationError("bridge", "RedisPublish", err).WithContext("channel=" + channel)
		}
		return nil
	}
}
