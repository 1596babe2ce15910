package mqttpacket

import (
	"bytes"
	"encoding/binary"
	"io"
)

const (
	ProtocolName  = "MQTT"
	ProtocolLevel = 0x04 // MQTT 3.1.1
)

// Connect is the CONNECT packet's variable header + payload, grounded
// byte-for-byte on original_source/src/network/application/mqtt/client.rs's
// connect() (protocol-name length + "MQTT" + level + flags + keep-alive,
// followed by client-id length + client-id bytes), expressed in the
// teacher's Pack(io.Writer)/Unpack(io.Reader) idiom.
type Connect struct {
	CleanSession bool
	KeepAlive    uint16
	ClientID     string
}

func s2b(s string) []byte {
	b := make([]byte, 2, 2+len(s))
	binary.BigEndian.PutUint16(b, uint16(len(s)))
	return append(b, s...)
}

// Pack writes the complete CONNECT packet (fixed header + variable header +
// payload) to w.
func (c Connect) Pack(w io.Writer) error {
	var vh bytes.Buffer
	vh.Write(s2b(ProtocolName))
	vh.WriteByte(ProtocolLevel)
	var flags byte
	if c.CleanSession {
		flags |= 0x02
	}
	vh.WriteByte(flags)
	var keepAlive [2]byte
	binary.BigEndian.PutUint16(keepAlive[:], c.KeepAlive)
	vh.Write(keepAlive[:])

	var payload bytes.Buffer
	payload.Write(s2b(c.ClientID))

	fh := FixedHeader{Kind: KindConnect, RemainingLength: uint32(vh.Len() + payload.Len())}
	if err := fh.Pack(w); err != nil {
		return err
	}
	if _, err := w.Write(vh.Bytes()); err != nil {
		return err
	}
	_, err := w.Write(payload.Bytes())
	return err
}

// ConnackReturnCode is the CONNACK return code byte (offset 3).
type ConnackReturnCode byte

const (
	ConnackAccepted ConnackReturnCode = 0
)

// Connack is the 4-byte CONNACK packet: 0x20, 0x02, session-present flag,
// return code. It is always exactly 4 bytes on the wire in MQTT 3.1.1.
type Connack struct {
	SessionPresent bool
	ReturnCode     ConnackReturnCode
}

// Unpack reads exactly 4 bytes from r and validates the fixed shape.
func (c *Connack) Unpack(r io.Reader) error {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return err
	}
	if b[0] != (KindConnack<<4) || b[1] != 0x02 {
		return ErrProtocolError
	}
	c.SessionPresent = b[2]&0x01 != 0
	c.ReturnCode = ConnackReturnCode(b[3])
	return nil
}
