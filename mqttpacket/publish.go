package mqttpacket

import (
	"bytes"
	"io"
)

// QoS is the MQTT quality-of-service level.
type QoS uint8

const (
	QoS0 QoS = 0
	QoS1 QoS = 1
	QoS2 QoS = 2
)

func (q QoS) String() string {
	switch q {
	case QoS0:
		return "AtMostOnce"
	case QoS1:
		return "AtLeastOnce"
	case QoS2:
		return "ExactlyOnce"
	default:
		return "Unknown"
	}
}

// Publish is an outbound or inbound PUBLISH packet. Per §9 Open Question 2,
// this core never writes or reads a packet identifier for any QoS — a
// deliberate, documented departure from strict MQTT 3.1.1.
type Publish struct {
	Topic   string
	Payload []byte
	QoS     QoS
}

// Pack writes the complete PUBLISH packet to w: topic length + topic +
// payload, framed by a fixed header whose QoS bits are set but never
// followed by a packet identifier.
func (p Publish) Pack(w io.Writer) error {
	var body bytes.Buffer
	body.Write(s2b(p.Topic))
	body.Write(p.Payload)

	fh := FixedHeader{Kind: KindPublish, QoS: uint8(p.QoS), RemainingLength: uint32(body.Len())}
	if err := fh.Pack(w); err != nil {
		return err
	}
	_, err := w.Write(body.Bytes())
	return err
}

// UnpackPublishBody decodes a PUBLISH variable header + payload from exactly
// remainingLength bytes read from r. The caller (mqtt.Client.Poll) has
// already consumed the whole fixed header, Remaining Length field included,
// and passes the decoded length in; this function reads only the body —
// mirroring the teacher's lowmem decoder shape of "decode the length, then
// read exactly that many bytes".
func UnpackPublishBody(r io.Reader, remainingLength uint32) (Publish, error) {
	buf := make([]byte, remainingLength)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Publish{}, err
	}
	if len(buf) < 2 {
		return Publish{}, ErrProtocolError
	}
	topicLen := int(buf[0])<<8 | int(buf[1])
	if len(buf) < 2+topicLen {
		return Publish{}, ErrProtocolError
	}
	topic := string(buf[2 : 2+topicLen])
	payload := buf[2+topicLen:]
	return Publish{Topic: topic, Payload: payload}, nil
}
