package mqttpacket

import (
	"bytes"
	"encoding/binary"
	"io"
)

// Subscribe is a SUBSCRIBE request for exactly one topic filter. The spec
// fixes the packet identifier at 1; this core never multiplexes concurrent
// subscribe requests.
type Subscribe struct {
	PacketIdentifier uint16
	TopicFilter      string
	RequestedQoS     QoS
}

func (s Subscribe) Pack(w io.Writer) error {
	var body bytes.Buffer
	var pi [2]byte
	binary.BigEndian.PutUint16(pi[:], s.PacketIdentifier)
	body.Write(pi[:])
	body.Write(s2b(s.TopicFilter))
	body.WriteByte(byte(s.RequestedQoS))

	fh := FixedHeader{Kind: KindSubscribe, QoS: 1, RemainingLength: uint32(body.Len())}
	if err := fh.Pack(w); err != nil {
		return err
	}
	_, err := w.Write(body.Bytes())
	return err
}

// Suback is the 5-byte SUBACK response: packet type/flags byte, remaining
// length byte, packet identifier (2 bytes), granted-QoS byte.
type Suback struct {
	PacketIdentifier uint16
	GrantedQoS       byte
}

// Unpack reads exactly 5 bytes from r and validates packet type and that the
// echoed packet identifier matches want.
func (s *Suback) Unpack(r io.Reader, want uint16) error {
	var b [5]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return err
	}
	if b[0] != (KindSuback << 4) {
		return ErrProtocolError
	}
	pi := binary.BigEndian.Uint16(b[2:4])
	if pi != want {
		return ErrProtocolError
	}
	s.PacketIdentifier = pi
	s.GrantedQoS = b[4]
	return nil
}
