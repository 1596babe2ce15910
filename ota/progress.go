package ota

import (
	"encoding/json"
	"log"

	"github.com/golang-io/iotcore/mqtt"
	"github.com/golang-io/iotcore/mqttpacket"
)

const maxProgressJSONBytes = 128

// Progress is one snapshot of an in-flight OTA run.
type Progress struct {
	Bytes uint32
	Total uint32
	State State
}

type progressWire struct {
	Bytes uint32 `json:"bytes"`
	Total uint32 `json:"total"`
	State string `json:"state"`
}

// Publisher serializes Progress as compact JSON and publishes it over MQTT
// at QoS 0. Publish failures are logged and swallowed — the OTA engine never
// fails a run because telemetry about it failed to send.
type Publisher struct {
	client *mqtt.Client
	topic  string
}

// NewPublisher binds a Publisher to an already-connected MQTT client and a
// topic.
func NewPublisher(client *mqtt.Client, topic string) *Publisher {
	return &Publisher{client: client, topic: topic}
}

// Publish sends one progress snapshot. Errors are logged, never returned,
// per the core's "publisher failures are swallowed" propagation policy.
func (p *Publisher) Publish(progress Progress) {
	if p == nil || p.client == nil {
		return
	}
	wire := progressWire{Bytes: progress.Bytes, Total: progress.Total, State: progress.State.String()}
	body, err := json.Marshal(wire)
	if err != nil {
		log.Printf("ota: progress marshal failed: %v", err)
		return
	}
	if len(body) > maxProgressJSONBytes {
		log.Printf("ota: progress payload exceeds %d bytes, dropping", maxProgressJSONBytes)
		return
	}
	if err := p.client.Publish(p.topic, body, mqttpacket.QoS0); err != nil {
		log.Printf("ota: progress publish failed: %v", err)
	}
}
