package mqttpacket

import (
	"bytes"
	"testing"
)

func TestConnectPacksExpectedShape(t *testing.T) {
	c := Connect{CleanSession: true, KeepAlive: 60, ClientID: "dev-1"}
	var buf bytes.Buffer
	if err := c.Pack(&buf); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	b := buf.Bytes()
	if b[0] != 0x10 {
		t.Fatalf("fixed header byte = %#x, want 0x10", b[0])
	}
	// variable header: 2(len)+4("MQTT")+1(level)+1(flags)+2(keepalive) = 10
	// payload: 2(len)+5("dev-1") = 7
	if b[1] != 17 {
		t.Fatalf("remaining length = %d, want 17", b[1])
	}
	if string(b[4:8]) != "MQTT" {
		t.Fatalf("protocol name = %q, want MQTT", b[4:8])
	}
	if b[8] != ProtocolLevel {
		t.Fatalf("protocol level = %#x, want %#x", b[8], ProtocolLevel)
	}
	if b[9] != 0x02 {
		t.Fatalf("connect flags = %#x, want 0x02 (clean session)", b[9])
	}
}

func TestConnackUnpackAccepted(t *testing.T) {
	buf := bytes.NewReader([]byte{0x20, 0x02, 0x00, 0x00})
	var ack Connack
	if err := ack.Unpack(buf); err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if ack.ReturnCode != ConnackAccepted {
		t.Fatalf("ReturnCode = %d, want 0", ack.ReturnCode)
	}
}

func TestConnackUnpackRejectsBadShape(t *testing.T) {
	buf := bytes.NewReader([]byte{0x20, 0x03, 0x00, 0x00})
	var ack Connack
	if err := ack.Unpack(buf); err != ErrProtocolError {
		t.Fatalf("expected ErrProtocolError for bad remaining length, got %v", err)
	}
}

func TestPublishPackUnpackRoundTrip(t *testing.T) {
	p := Publish{Topic: "device/ota/progress", Payload: []byte(`{"bytes":10}`), QoS: QoS0}
	var buf bytes.Buffer
	if err := p.Pack(&buf); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	var fh FixedHeader
	if err := fh.Unpack(&buf); err != nil {
		t.Fatalf("Unpack fixed header: %v", err)
	}
	got, err := UnpackPublishBody(&buf, fh.RemainingLength)
	if err != nil {
		t.Fatalf("UnpackPublishBody: %v", err)
	}
	if got.Topic != p.Topic || !bytes.Equal(got.Payload, p.Payload) {
		t.Fatalf("round trip mismatch: got %+v", got)
	}
}

func TestPublishPackQoSBits(t *testing.T) {
	testCases := []struct {
		qos  QoS
		byte byte
	}{
		{QoS0, 0x30},
		{QoS1, 0x32},
		{QoS2, 0x34},
	}
	for _, tc := range testCases {
		p := Publish{Topic: "t", Payload: []byte("x"), QoS: tc.qos}
		var buf bytes.Buffer
		if err := p.Pack(&buf); err != nil {
			t.Fatalf("Pack: %v", err)
		}
		if got := buf.Bytes()[0]; got != tc.byte {
			t.Fatalf("QoS %d: fixed header byte = %#x, want %#x", tc.qos, got, tc.byte)
		}
	}
}

func TestSubscribeSubackRoundTrip(t *testing.T) {
	s := Subscribe{PacketIdentifier: 1, TopicFilter: "device/cmd", RequestedQoS: QoS0}
	var buf bytes.Buffer
	if err := s.Pack(&buf); err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if buf.Bytes()[0] != 0x82 {
		t.Fatalf("fixed header byte = %#x, want 0x82", buf.Bytes()[0])
	}

	ackBuf := bytes.NewReader([]byte{0x90, 0x03, 0x00, 0x01, 0x00})
	var ack Suback
	if err := ack.Unpack(ackBuf, 1); err != nil {
		t.Fatalf("Unpack: %v", err)
	}
}

func TestSubackRejectsMismatchedPacketIdentifier(t *testing.T) {
	ackBuf := bytes.NewReader([]byte{0x90, 0x03, 0x00, 0x02, 0x00})
	var ack Suback
	if err := ack.Unpack(ackBuf, 1); err != ErrProtocolError {
		t.Fatalf("expected ErrProtocolError, got %v", err)
	}
}
