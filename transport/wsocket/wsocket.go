// Package wsocket adapts a gorilla/websocket connection to the
// transport.Transport interface. WebSocket is named in the spec as an
// out-of-scope "marker-only protocol slot" — a collaborator the core may be
// handed but never depends on directly. This adapter exists so that slot has
// a real, testable implementation rather than a bare comment.
package wsocket

import (
	"io"

	"github.com/gorilla/websocket"
)

// Transport frames Read/Write calls as binary WebSocket messages. It is not
// used by the default MQTT/HTTP wiring in cmd/otaupdate; it is offered for
// collaborators that terminate OTA or MQTT traffic over a WebSocket hop.
type Transport struct {
	conn *websocket.Conn

	// reader holds the in-progress message reader between Read calls, since
	// gorilla/websocket delivers whole messages and Read here must support
	// partial reads against one logical message just like any other
	// transport.Transport.
	reader io.Reader
}

// New wraps an already-established gorilla/websocket connection.
func New(conn *websocket.Conn) *Transport {
	conn.SetReadLimit(maxMessageBytes)
	return &Transport{conn: conn}
}

// maxMessageBytes bounds a single inbound WebSocket message; this module
// never deals in firmware-sized payloads over this slot, only MQTT/HTTP
// framing, both of which are bounded well under this.
const maxMessageBytes = 4096

func (t *Transport) Read(b []byte) (int, error) {
	for {
		if t.reader == nil {
			_, r, err := t.conn.NextReader()
			if err != nil {
				return 0, err
			}
			t.reader = r
		}
		n, err := t.reader.Read(b)
		if err == io.EOF {
			t.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (t *Transport) Write(b []byte) (int, error) {
	if err := t.conn.WriteMessage(websocket.BinaryMessage, b); err != nil {
		return 0, err
	}
	return len(b), nil
}

// Flush is a no-op: gorilla/websocket writes a complete frame per WriteMessage.
func (t *Transport) Flush() error {
	return nil
}

func (t *Transport) Close() error {
	return t.conn.Close()
}
