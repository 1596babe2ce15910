package transport

import "net"

// NetConn adapts a net.Conn (TCP, TLS, or any other net.Conn collaborator) to
// the Transport interface. This is the common case for a device dialing a
// real broker or firmware server; net.Conn itself is the out-of-scope
// "individual transport implementation" named in the spec, this type is just
// the thin seam between it and the core.
type NetConn struct {
	Conn net.Conn
}

// NewNetConn wraps an already-dialed net.Conn.
func NewNetConn(conn net.Conn) *NetConn {
	return &NetConn{Conn: conn}
}

func (t *NetConn) Read(b []byte) (int, error) {
	return t.Conn.Read(b)
}

func (t *NetConn) Write(b []byte) (int, error) {
	return t.Conn.Write(b)
}

// Flush is a no-op for net.Conn: writes are not buffered by this adapter.
func (t *NetConn) Flush() error {
	return nil
}

func (t *NetConn) Close() error {
	return t.Conn.Close()
}
