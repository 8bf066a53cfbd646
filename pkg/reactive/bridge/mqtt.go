package bridge

import (
	"context"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	rxerrors "github.com/vnykmshr/rxflow/pkg/common/errors"
	"github.com/vnykmshr/rxflow/pkg/common/validation"
	"github.com/vnykmshr/rxflow/pkg/reactive/disposable"
	"github.com/vnykmshr/rxflow/pkg/reactive/observable"
)

// MQTTClient is the subset of mqtt.Client used by the MQTT bridge.
// This allows the bridge to be exercised with a fake client in tests.
type MQTTClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
	Unsubscribe(topics ...string) mqtt.Token
}

var _ MQTTClient = mqtt.Client(nil)

// MQTTSubscribe returns an Observable of messages received on topic. The
// topic may contain MQTT wildcards.
//
// A subscription the broker rejects completes with a failure. Disposing the
// subscription unsubscribes from topic.
func MQTTSubscribe(client MQTTClient, topic string, qos byte) (observable.Observable[mqtt.Message], error) {
	if err := validation.ValidateNotNil("bridge", "mqtt client", client); err != nil {
		return nil, err
	}
	if err := validation.ValidateNotEmpty("bridge", "topic", topic); err != nil {
		return nil, err
	}

	return observable.Create(func(o observable.Observer[mqtt.Message]) disposable.Disposable {
		// The router goroutine and the watcher below both call into o.
		var mu sync.Mutex
		done := make(chan struct{})
		token := client.Subscribe(topic, qos, func(_ mqtt.Client, msg mqtt.Message) {
			mu.Lock()
			defer mu.Unlock()
			o.OnNext(msg)
		})

		go func() {
			select {
			case <-done:
			case <-token.Done():
				if err := token.Error(); err != nil {
					mu.Lock()
					defer mu.Unlock()
					o.OnCompleted(observable.Failure(
						rxerrors.NewOperationError("bridge", "MQTTSubscribe", err).WithContext("topic=" + topic)))
				}
			}
		}()

		return disposable.NewFunc(func() {
			close(done)
			unsub := client.Unsubscribe(topic)
			select {
			case <-unsub.Done():
				if err := unsub.Error(); err != nil {
					rxerrors.HandleUnhandled(rxerrors.NewOperationError("bridge", "MQTTUnsubscribe", err).
						WithContext("topic=" + topic))
				}
			default:
			}
		})
	}), nil
}

// MQTTPublish returns a unit of work that publishes its payload to topic and
// waits for the broker acknowledgment required by qos, or for ctx to end.
func MQTTPublish(client MQTTClient, topic string, qos byte) func(ctx context.Context, payload []byte) error {
	return func(ctx context.Context, payload []byte) error {
		token := client.Publish(topic, qos, false, payload)
		select {
		case <-token.Done():
			if err := token.Error(); err != nil {
				return rxerrors.NewOperationError("bridge", "MQTTPublish", err).WithContext("topic=" + topic)
			}
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
