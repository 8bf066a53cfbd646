// Package bridge connects rxflow streams to external message brokers.
//
// RedisSubscribe and MQTTSubscribe turn broker subscriptions into
// Observables whose disposal releases the broker subscription.
// RedisPublish and MQTTPublish return units of work suitable for a
// dispatch.Coordinator, so publishing inherits the coordinator's strategy
// and cancellation:
//
//	events, err := bridge.MQTTSubscribe(client, "sensors/+/temp", 1)
//	if err != nil {
//		return err
//	}
//	sub, err := dispatch.Subscribe(events, handle, cfg, logErr, nil)
package bridge
