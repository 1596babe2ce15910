// Package httpclient implements the bounded-buffer HTTP/1.1 client the OTA
// engine uses for ranged firmware downloads. It is generic over
// transport.Transport, not net/http — the spec requires building request
// framing and response parsing by hand rather than delegating to a
// higher-level HTTP library. Grounded byte-for-byte on
// original_source/src/network/application/http/client.rs.
package httpclient

import (
	"io"
	"strconv"
	"strings"

	"github.com/golang-io/iotcore/internal/telemetry"
	"github.com/golang-io/iotcore/neterr"
	"github.com/golang-io/iotcore/transport"
)

const (
	maxHeaders         = 16
	maxHeaderNameLen   = 64
	maxHeaderValueLen  = 256
	maxRequestBufBytes = 2048
	maxResponseBufByte = 2048
	bodyReadChunk      = 256
)

// Method is an HTTP request method token. Only GET and POST are ever
// produced by this client.
type Method int

const (
	MethodGet Method = iota
	MethodPost
)

func (m Method) String() string {
	if m == MethodPost {
		return "POST"
	}
	return "GET"
}

// Header is a bounded name/value pair.
type Header struct {
	Name  string
	Value string
}

// Request is a single HTTP/1.1 request.
type Request struct {
	Method  Method
	Path    string
	Headers []Header
	Body    []byte
}

// Response is a single HTTP/1.1 response.
type Response struct {
	StatusCode int
	Headers    []Header
	Body       []byte
}

// Header looks up the first header matching name, case-insensitively.
func (r *Response) Header(name string) (string, bool) {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// Client sends requests over one owned Transport and parses the response.
type Client struct {
	t transport.Transport
}

// New wraps an already-connected Transport.
func New(t transport.Transport) *Client {
	return &Client{t: t}
}

// Close closes the underlying Transport.
func (c *Client) Close() error {
	return c.t.Close()
}

// Do sends req and blocks for a complete response or a typed Network error.
func (c *Client) Do(req *Request) (*Response, error) {
	buf, err := buildRequest(req)
	if err != nil {
		return nil, err
	}
	if _, err := c.t.Write(buf); err != nil {
		return nil, neterr.New(neterr.KindWriteError, "http.Do", err)
	}
	if err := c.t.Flush(); err != nil {
		return nil, neterr.New(neterr.KindWriteError, "http.Do", err)
	}
	telemetry.Stats().HTTPRequestsTotal.Inc()

	raw, err := readUntilHeadersOrEOF(c.t)
	if err != nil {
		return nil, err
	}
	return parseResponse(c.t, raw)
}

func buildRequest(req *Request) ([]byte, error) {
	var b strings.Builder
	b.WriteString(req.Method.String())
	b.WriteByte(' ')
	b.WriteString(req.Path)
	b.WriteString(" HTTP/1.1\r\n")

	hasUserAgent := false
	for _, h := range req.Headers {
		if strings.EqualFold(h.Name, "User-Agent") {
			hasUserAgent = true
		}
		b.WriteString(h.Name)
		b.WriteString(": ")
		b.WriteString(h.Value)
		b.WriteString("\r\n")
	}
	if !hasUserAgent {
		b.WriteString("User-Agent:;\r\n")
	}

	if req.Body != nil {
		b.WriteString("Content-Length: ")
		b.WriteString(strconv.Itoa(len(req.Body)))
		b.WriteString("\r\n\r\n")
		b.Write(req.Body) // strings.Builder.Write accepts []byte
	} else {
		b.WriteString("\r\n")
	}

	if b.Len() > maxRequestBufBytes {
		return nil, neterr.New(neterr.KindWriteError, "http.buildRequest", errRequestTooLarge)
	}
	return []byte(b.String()), nil
}

// readUntilHeadersOrEOF reads into a bounded staging buffer until EOF with
// data, the buffer fills, or "\r\n\r\n" appears — mirroring the Rust
// client's receive loop exactly.
func readUntilHeadersOrEOF(t transport.Transport) ([]byte, error) {
	staging := make([]byte, maxResponseBufByte)
	total := 0
	for {
		n, err := t.Read(staging[total:])
		if err != nil && err != io.EOF {
			return nil, neterr.New(neterr.KindReadError, "http.readResponse", err)
		}
		if n == 0 {
			if total > 0 {
				break
			}
			return nil, neterr.New(neterr.KindConnectionClosed, "http.readResponse", nil)
		}
		total += n
		if total >= len(staging) {
			break
		}
		if headerEnd(staging[:total]) >= 0 {
			break
		}
	}
	return staging[:total], nil
}

func headerEnd(b []byte) int {
	return strings.Index(string(b), "\r\n\r\n")
}

func parseResponse(t transport.Transport, raw []byte) (*Response, error) {
	pos := headerEnd(raw)
	if pos < 0 {
		return nil, neterr.New(neterr.KindProtocolError, "http.parseResponse", errMissingHeaderTerminator)
	}
	headerText := string(raw[:pos])
	bodyInitial := raw[pos+4:]

	lines := strings.Split(headerText, "\r\n")
	if len(lines) == 0 || lines[0] == "" {
		return nil, neterr.New(neterr.KindProtocolError, "http.parseResponse", errMissingStatusLine)
	}
	statusParts := strings.SplitN(lines[0], " ", 3)
	if len(statusParts) < 2 {
		return nil, neterr.New(neterr.KindProtocolError, "http.parseResponse", errMalformedStatusLine)
	}
	statusCode, err := strconv.Atoi(statusParts[1])
	if err != nil {
		return nil, neterr.New(neterr.KindProtocolError, "http.parseResponse", err)
	}

	resp := &Response{StatusCode: statusCode}
	contentLength := -1
	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		nv := strings.SplitN(line, ":", 2)
		if len(nv) != 2 {
			return nil, neterr.New(neterr.KindProtocolError, "http.parseResponse", errMalformedHeaderLine)
		}
		name := strings.TrimSpace(nv[0])
		value := strings.TrimSpace(nv[1])
		if len(name) > maxHeaderNameLen || len(value) > maxHeaderValueLen {
			return nil, neterr.New(neterr.KindProtocolError, "http.parseResponse", errHeaderTooLarge)
		}
		if strings.EqualFold(name, "Content-Length") {
			cl, err := strconv.Atoi(value)
			if err == nil {
				contentLength = cl
			}
		}
		resp.Headers = append(resp.Headers, Header{Name: name, Value: value})
		if len(resp.Headers) > maxHeaders {
			return nil, neterr.New(neterr.KindProtocolError, "http.parseResponse", errTooManyHeaders)
		}
	}

	body := append([]byte(nil), bodyInitial...)
	if contentLength >= 0 {
		body, err = completeBody(t, body, contentLength)
		if err != nil {
			return nil, err
		}
	}
	resp.Body = body
	return resp, nil
}

// completeBody continues reading from t until body holds exactly
// contentLength bytes, per the Rust client's follow-on read loop.
func completeBody(t transport.Transport, body []byte, contentLength int) ([]byte, error) {
	for len(body) < contentLength {
		if len(body) >= maxResponseBufByte {
			return nil, neterr.New(neterr.KindProtocolError, "http.completeBody", errBodyOverflow)
		}
		remaining := contentLength - len(body)
		readLen := remaining
		if readLen > bodyReadChunk {
			readLen = bodyReadChunk
		}
		tmp := make([]byte, readLen)
		n, err := t.Read(tmp)
		if err != nil && err != io.EOF {
			return nil, neterr.New(neterr.KindReadError, "http.completeBody", err)
		}
		if n == 0 {
			return nil, neterr.New(neterr.KindConnectionClosed, "http.completeBody", nil)
		}
		body = append(body, tmp[:n]...)
	}
	if len(body) > contentLength {
		body = body[:contentLength]
	}
	return body, nil
}
