package mqttpacket

import (
	"bytes"
	"testing"
)

func TestEncodeLengthByteCount(t *testing.T) {
	testCases := []struct {
		name  string
		v     uint32
		bytes int
	}{
		{"zero", 0, 1},
		{"max1", 127, 1},
		{"min2", 128, 2},
		{"max2", 16383, 2},
		{"min3", 16384, 3},
		{"max3", 2097151, 3},
		{"min4", 2097152, 4},
		{"max4", 268435455, 4},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			enc, err := EncodeLength(tc.v)
			if err != nil {
				t.Fatalf("EncodeLength(%d): %v", tc.v, err)
			}
			if len(enc) != tc.bytes {
				t.Fatalf("EncodeLength(%d) = %d bytes, want %d", tc.v, len(enc), tc.bytes)
			}
		})
	}
}

func TestEncodeLengthTooLarge(t *testing.T) {
	if _, err := EncodeLength(uint32(268435456)); err != ErrPacketTooLarge {
		t.Fatalf("expected ErrPacketTooLarge, got %v", err)
	}
}

func TestLengthRoundTrip(t *testing.T) {
	for _, v := range []uint32{0, 1, 127, 128, 16383, 16384, 2097151, 2097152, 268435455} {
		enc, err := EncodeLength(v)
		if err != nil {
			t.Fatalf("EncodeLength(%d): %v", v, err)
		}
		got, err := DecodeLength(bytes.NewReader(enc))
		if err != nil {
			t.Fatalf("DecodeLength(%d): %v", v, err)
		}
		if got != v {
			t.Fatalf("round trip %d: got %d", v, got)
		}
	}
}

func TestDecodeLengthRejectsFifthContinuationByte(t *testing.T) {
	malformed := []byte{0xFF, 0xFF, 0xFF, 0xFF}
	if _, err := DecodeLength(bytes.NewReader(malformed)); err != ErrProtocolError {
		t.Fatalf("expected ErrProtocolError on 4 continuation bytes, got %v", err)
	}
}
