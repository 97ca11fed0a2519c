// Package mqtt connects Show Logic Core to the MQTT bus.
//
// The core publishes forwarded trigger commands to the output and audio
// services and listens for remote activations, presentation events and
// retained presentation state:
//
//	Show Logic Core ↔ Mosquitto ↔ output, audio, MIDI, remotes
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Publish(mqtt.Topics{}.Trigger("next_slide"), payload, 1, false)
//
// The broker publishes {"status":"offline"} on showlogic/system/status if
// the core disappears without a clean disconnect.
package mqtt
