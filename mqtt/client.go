// Package mqtt implements the MQTT 3.1.1 client codec this core needs:
// CONNECT/CONNACK, PUBLISH (outbound and inbound poll), and SUBSCRIBE/SUBACK.
// It is generic over transport.Transport and never shares a Transport with
// the HTTP client. Grounded on the teacher's client.go (Client wraps a
// connection, options pattern, log.Printf at lifecycle boundaries) and
// byte-for-byte on original_source/src/network/application/mqtt/client.rs.
package mqtt

import (
	"log"

	"github.com/golang-io/iotcore/internal/telemetry"
	"github.com/golang-io/iotcore/mqttpacket"
	"github.com/golang-io/iotcore/neterr"
	"github.com/golang-io/iotcore/transport"
)

// Client frames outbound CONNECT/PUBLISH/SUBSCRIBE packets and decodes
// inbound PUBLISH packets over one Transport. No automatic reconnect; no
// keep-alive PINGREQ (§9 Open Question 4); no packet identifier on PUBLISH
// for any QoS (§9 Open Question 2).
type Client struct {
	t       transport.Transport
	options Options

	connected bool
}

// New constructs a Client. The Transport must already be dialed; Connect
// performs the MQTT handshake over it.
func New(t transport.Transport, opts ...Option) *Client {
	return &Client{t: t, options: newOptions(opts...)}
}

// Connect sends CONNECT and blocks for exactly 4 bytes of CONNACK.
func (c *Client) Connect() error {
	pkt := mqttpacket.Connect{
		CleanSession: c.options.CleanSession,
		KeepAlive:    uint16(c.options.KeepAlive.Seconds()),
		ClientID:     c.options.ClientID,
	}
	if err := pkt.Pack(c.t); err != nil {
		return neterr.New(neterr.KindWriteError, "mqtt.Connect", err)
	}
	if err := c.t.Flush(); err != nil {
		return neterr.New(neterr.KindWriteError, "mqtt.Connect", err)
	}
	telemetry.Stats().MQTTPacketsSent.Inc()

	var ack mqttpacket.Connack
	if err := ack.Unpack(c.t); err != nil {
		if err == mqttpacket.ErrProtocolError {
			return neterr.New(neterr.KindProtocolError, "mqtt.Connect", err)
		}
		return neterr.New(neterr.KindReadError, "mqtt.Connect", err)
	}
	switch {
	case ack.ReturnCode == mqttpacket.ConnackAccepted:
		c.connected = true
		log.Printf("mqtt: connected as %s (session-present=%v)", c.options.ClientID, ack.SessionPresent)
		return nil
	case ack.ReturnCode >= 1 && ack.ReturnCode <= 5:
		return neterr.New(neterr.KindConnectionRefused, "mqtt.Connect", nil)
	default:
		return neterr.New(neterr.KindProtocolError, "mqtt.Connect", nil)
	}
}

// Publish sends a PUBLISH packet with the given topic, payload and QoS. No
// packet identifier is written for any QoS, and no acknowledgement is read.
func (c *Client) Publish(topic string, payload []byte, qos mqttpacket.QoS) error {
	if !c.connected {
		return neterr.New(neterr.KindNotOpen, "mqtt.Publish", nil)
	}
	pkt := mqttpacket.Publish{Topic: topic, Payload: payload, QoS: qos}
	if err := pkt.Pack(c.t); err != nil {
		return neterr.New(neterr.KindWriteError, "mqtt.Publish", err)
	}
	if err := c.t.Flush(); err != nil {
		return neterr.New(neterr.KindWriteError, "mqtt.Publish", err)
	}
	telemetry.Stats().MQTTPacketsSent.Inc()
	return nil
}

// subscribePacketIdentifier is fixed at 1: this core never has more than one
// outstanding SUBSCRIBE in flight.
const subscribePacketIdentifier = 1

// Subscribe sends SUBSCRIBE for one topic filter and blocks for exactly 5
// bytes of SUBACK, validating the echoed packet identifier.
func (c *Client) Subscribe(topicFilter string, qos mqttpacket.QoS) error {
	if !c.connected {
		return neterr.New(neterr.KindNotOpen, "mqtt.Subscribe", nil)
	}
	pkt := mqttpacket.Subscribe{
		PacketIdentifier: subscribePacketIdentifier,
		TopicFilter:      topicFilter,
		RequestedQoS:     qos,
	}
	if err := pkt.Pack(c.t); err != nil {
		return neterr.New(neterr.KindWriteError, "mqtt.Subscribe", err)
	}
	if err := c.t.Flush(); err != nil {
		return neterr.New(neterr.KindWriteError, "mqtt.Subscribe", err)
	}
	telemetry.Stats().MQTTPacketsSent.Inc()

	var ack mqttpacket.Suback
	if err := ack.Unpack(c.t, subscribePacketIdentifier); err != nil {
		if err == mqttpacket.ErrProtocolError {
			return neterr.New(neterr.KindProtocolError, "mqtt.Subscribe", err)
		}
		return neterr.New(neterr.KindReadError, "mqtt.Subscribe", err)
	}
	log.Printf("mqtt: subscribed to %q (granted qos=%d)", topicFilter, ack.GrantedQoS)
	return nil
}

// Poll performs one non-blocking-at-the-protocol-level attempt to read an
// inbound PUBLISH. It reads a single header byte; if the Transport reports
// EOF (0, nil) there is no message. Any non-PUBLISH packet type is silently
// discarded per §9 Open Question 3 — this core does not dispatch PINGRESP,
// PUBACK, or any other inbound kind.
func (c *Client) Poll() (*mqttpacket.Publish, error) {
	var first [1]byte
	n, err := c.t.Read(first[:])
	if transport.IsEOF(n, err) {
		return nil, nil
	}
	if err != nil {
		return nil, neterr.New(neterr.KindReadError, "mqtt.Poll", err)
	}

	kind := first[0] >> 4
	remaining, err := mqttpacket.DecodeLength(c.t)
	if err != nil {
		return nil, neterr.New(neterr.KindProtocolError, "mqtt.Poll", err)
	}
	if kind != mqttpacket.KindPublish {
		// Discard the body of whatever this was so the stream stays aligned.
		if remaining > 0 {
			if _, err := discardN(c.t, remaining); err != nil {
				return nil, neterr.New(neterr.KindReadError, "mqtt.Poll", err)
			}
		}
		return nil, nil
	}

	pub, err := mqttpacket.UnpackPublishBody(c.t, remaining)
	if err != nil {
		return nil, neterr.New(neterr.KindProtocolError, "mqtt.Poll", err)
	}
	telemetry.Stats().MQTTPacketsReceived.Inc()
	return &pub, nil
}

func discardN(t transport.Transport, n uint32) (int, error) {
	buf := make([]byte, n)
	total := 0
	for total < len(buf) {
		k, err := t.Read(buf[total:])
		if err != nil {
			return total, err
		}
		if k == 0 {
			return total, neterr.New(neterr.KindConnectionClosed, "mqtt.discardN", nil)
		}
		total += k
	}
	return total, nil
}

// Close closes the underlying Transport, per the core's ownership contract:
// each client exclusively owns its Transport and closes it on drop.
func (c *Client) Close() error {
	c.connected = false
	return c.t.Close()
}
