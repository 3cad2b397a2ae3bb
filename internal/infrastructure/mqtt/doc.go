// Package mqtt provides the message bus connectivity for the HAL bridge.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// The bridge uses MQTT as the inter-process message bus carrying the
// parameter RPC surface and status traffic:
//
//	Bus clients ↔ MQTT Broker ↔ HAL Bridge (gateway) / helper process
//
// The parameter RPC uses correlated request/response topics; see
// Topics for the exact scheme.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, cfg.Service.ID)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllParameterRequests(), 1,
//	    func(topic string, payload []byte) error {
//	        return handle(topic, payload)
//	    })
package mqtt
