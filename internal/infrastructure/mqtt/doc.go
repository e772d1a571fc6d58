// Package mqtt provides MQTT connectivity for the cross-instance
// notification relay.
//
// When several Inkwell instances sit behind a load balancer, a WebSocket
// client is attached to exactly one of them. Each instance publishes its
// notifications on <prefix>/notifications and re-delivers what its peers
// publish, so every connected client sees every mutation.
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topic := client.Topics().Notifications()
//	err = client.Subscribe(topic, 1, func(topic string, payload []byte) error {
//	    return nil
//	})
//
// Each instance also keeps a retained status message on
// <prefix>/system/status, replaced by the broker's Last Will when the
// instance disappears without disconnecting.
package mqtt
