// Package ota implements the one-shot OTA update driver: a state machine
// that erases, ranged-downloads, CRC-verifies, and arms a firmware image on
// an inactive partition, using an HTTP client for transfer and a Storage for
// the write target. Grounded on original_source/src/ota/mod.rs's
// Ota::run_http, translated into a Go Engine with a context-aware Run
// method.
package ota

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/golang-io/iotcore/crc32engine"
	"github.com/golang-io/iotcore/httpclient"
	"github.com/golang-io/iotcore/internal/telemetry"
	"github.com/golang-io/iotcore/neterr"
	"github.com/golang-io/iotcore/storage"
)

const (
	maxChunkSize      = 2048
	verifyReadChunk   = 1024
	maxAttempts       = 3
)

// Config is everything one OTA run needs. HTTP must already be connected to
// the firmware server; Storage is exclusively owned by the Engine for the
// run's duration.
type Config struct {
	HTTP             *httpclient.Client
	Storage          storage.Storage
	Platform         Platform
	BaseOffset       uint32
	Descriptor       Descriptor
	ChunkSize        uint32
	EraseBeforeWrite bool
	VerifyCRC32      bool
	Host             string
	Publisher        *Publisher
}

// Engine drives exactly one OTA run. Terminal states (Completed, Failed,
// Canceled) require constructing a new Engine to run again.
type Engine struct {
	cfg Config

	mu        sync.Mutex
	state     State
	canceled  bool
	downloaded uint32
}

// New validates cfg's shape (but does not touch Storage or the network yet)
// and returns an Idle Engine.
func New(cfg Config) (*Engine, error) {
	if cfg.ChunkSize == 0 || cfg.ChunkSize > maxChunkSize {
		return nil, newErr(KindInvalidConfig, "ota.New", fmt.Errorf("chunk size %d out of range [1,%d]", cfg.ChunkSize, maxChunkSize))
	}
	return &Engine{cfg: cfg, state: StateIdle}, nil
}

// State reports the engine's current phase.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Cancel requests cancellation. It is safe to call from another goroutine
// while Run is in progress; it takes effect at the next cancellation
// checkpoint (before each erase, at the top of each download iteration).
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.canceled = true
}

func (e *Engine) isCanceled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.canceled
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
	log.Printf("ota: state -> %s", s)
}

func (e *Engine) publish(bytesDone uint32) {
	if e.cfg.Publisher == nil {
		return
	}
	e.cfg.Publisher.Publish(Progress{Bytes: bytesDone, Total: e.cfg.Descriptor.Size, State: e.State()})
}

// Run executes the full erase/download/verify/finalize pipeline
// synchronously. ctx is checked at the same checkpoints as explicit
// cancellation via Cancel; it is not used to interrupt a blocking Transport
// call mid-flight.
func (e *Engine) Run(ctx context.Context) error {
	telemetry.Stats().OTAActiveRuns.Inc()
	defer telemetry.Stats().OTAActiveRuns.Dec()

	d := e.cfg.Descriptor
	if d.Size == 0 {
		e.setState(StateFailed)
		return newErr(KindInvalidConfig, "ota.Run", fmt.Errorf("firmware size is zero"))
	}
	endOffset := uint64(e.cfg.BaseOffset) + uint64(d.Size)
	if endOffset > 0xFFFFFFFF || uint32(endOffset) > e.cfg.Storage.Capacity() {
		e.setState(StateFailed)
		return newErr(KindInvalidConfig, "ota.Run", fmt.Errorf("partition [%d,%d) exceeds storage capacity %d", e.cfg.BaseOffset, endOffset, e.cfg.Storage.Capacity()))
	}
	if e.isCanceled() || ctxDone(ctx) {
		e.setState(StateCanceled)
		return ErrCanceled
	}

	if e.cfg.EraseBeforeWrite {
		if e.isCanceled() || ctxDone(ctx) {
			e.setState(StateCanceled)
			return ErrCanceled
		}
		e.setState(StateErasing)
		if err := e.cfg.Storage.Erase(e.cfg.BaseOffset, uint32(endOffset)); err != nil {
			e.setState(StateFailed)
			return wrapStorage("ota.Erase", err)
		}
	}

	if err := e.runDownload(ctx, uint32(endOffset)); err != nil {
		return err
	}
	if err := e.runVerify(); err != nil {
		return err
	}
	if err := e.runFinalize(); err != nil {
		return err
	}

	e.setState(StateCompleted)
	e.publish(d.Size)
	return nil
}

func ctxDone(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func (e *Engine) runDownload(ctx context.Context, endOffset uint32) error {
	d := e.cfg.Descriptor
	e.setState(StateDownloading)
	e.downloaded = 0
	crc := crc32engine.New()

	for e.downloaded < d.Size {
		if e.isCanceled() || ctxDone(ctx) {
			e.setState(StateCanceled)
			return ErrCanceled
		}
		chunkLen := d.Size - e.downloaded
		if chunkLen > e.cfg.ChunkSize {
			chunkLen = e.cfg.ChunkSize
		}
		start := e.downloaded
		endInclusive := start + chunkLen - 1

		resp, err := e.fetchChunkWithRetry(start, endInclusive)
		if err != nil {
			e.setState(StateFailed)
			return err
		}
		if err := validateChunkResponse(resp, start, endInclusive, d.Size, chunkLen); err != nil {
			e.setState(StateFailed)
			return wrapNetwork("ota.download", neterr.New(neterr.KindProtocolError, "ota.download", err))
		}

		chunk := resp.Body
		if d.Encoding == EncodingBase64 {
			decoded, err := base64.StdEncoding.DecodeString(string(resp.Body))
			if err != nil {
				e.setState(StateFailed)
				return newErr(KindProtocol, "ota.download", err)
			}
			chunk = decoded
		}

		writeOffset := e.cfg.BaseOffset + start
		if uint64(writeOffset)+uint64(len(chunk)) > uint64(endOffset) {
			e.setState(StateFailed)
			return newErr(KindProtocol, "ota.download", fmt.Errorf("chunk would write past partition end"))
		}
		if err := e.cfg.Storage.WriteAt(writeOffset, chunk); err != nil {
			e.setState(StateFailed)
			return wrapStorage("ota.download", err)
		}
		crc.Update(chunk)
		e.downloaded += uint32(len(chunk))
		telemetry.Stats().OTABytesDownloaded.Add(float64(len(chunk)))
		e.publish(e.downloaded)
	}
	return nil
}

func (e *Engine) fetchChunkWithRetry(start, endInclusive uint32) (*httpclient.Response, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			telemetry.Stats().OTARetries.Inc()
			log.Printf("ota: retrying chunk bytes=%d-%d (attempt %d)", start, endInclusive, attempt+1)
		}
		req := &httpclient.Request{
			Method: httpclient.MethodGet,
			Path:   e.cfg.Descriptor.URL,
			Headers: []httpclient.Header{
				{Name: "Host", Value: e.cfg.Host},
				{Name: "Range", Value: fmt.Sprintf("bytes=%d-%d", start, endInclusive)},
			},
		}
		resp, err := e.cfg.HTTP.Do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return nil, wrapNetwork("ota.download", lastErr)
}

func validateChunkResponse(resp *httpclient.Response, start, endInclusive, total, wantLen uint32) error {
	if resp.StatusCode != 206 {
		return newErr(KindProtocol, "ota.validateChunkResponse", fmt.Errorf("status %d, want 206", resp.StatusCode))
	}
	cr, ok := resp.Header("Content-Range")
	if !ok {
		return newErr(KindProtocol, "ota.validateChunkResponse", fmt.Errorf("missing Content-Range"))
	}
	gotStart, gotEnd, gotTotal, err := parseContentRange(cr)
	if err != nil {
		return newErr(KindProtocol, "ota.validateChunkResponse", err)
	}
	if gotStart != start || gotEnd != endInclusive {
		return newErr(KindProtocol, "ota.validateChunkResponse", fmt.Errorf("Content-Range %q does not match requested range %d-%d", cr, start, endInclusive))
	}
	if gotTotal != "*" {
		totalNum, err := strconv.ParseUint(gotTotal, 10, 32)
		if err != nil || uint32(totalNum) != total {
			return newErr(KindProtocol, "ota.validateChunkResponse", fmt.Errorf("Content-Range total %q does not match firmware size %d", gotTotal, total))
		}
	}
	if uint32(len(resp.Body)) != wantLen {
		return newErr(KindProtocol, "ota.validateChunkResponse", fmt.Errorf("body length %d, want %d", len(resp.Body), wantLen))
	}
	return nil
}

// parseContentRange parses "bytes START-END/TOTAL" (TOTAL may be "*").
func parseContentRange(v string) (start, end uint32, total string, err error) {
	const prefix = "bytes "
	if !strings.HasPrefix(v, prefix) {
		return 0, 0, "", fmt.Errorf("malformed Content-Range %q", v)
	}
	rest := v[len(prefix):]
	slashParts := strings.SplitN(rest, "/", 2)
	if len(slashParts) != 2 {
		return 0, 0, "", fmt.Errorf("malformed Content-Range %q", v)
	}
	dashParts := strings.SplitN(slashParts[0], "-", 2)
	if len(dashParts) != 2 {
		return 0, 0, "", fmt.Errorf("malformed Content-Range %q", v)
	}
	s, err := strconv.ParseUint(dashParts[0], 10, 32)
	if err != nil {
		return 0, 0, "", err
	}
	e, err := strconv.ParseUint(dashParts[1], 10, 32)
	if err != nil {
		return 0, 0, "", err
	}
	return uint32(s), uint32(e), slashParts[1], nil
}

func (e *Engine) runVerify() error {
	e.setState(StateVerifying)
	d := e.cfg.Descriptor
	if !e.cfg.VerifyCRC32 || !d.HasChecksum {
		return nil
	}

	crc := crc32engine.New()
	buf := make([]byte, verifyReadChunk)
	var read uint32
	for read < d.Size {
		n := d.Size - read
		if n > verifyReadChunk {
			n = verifyReadChunk
		}
		if err := e.cfg.Storage.ReadAt(e.cfg.BaseOffset+read, buf[:n]); err != nil {
			e.setState(StateFailed)
			return wrapStorage("ota.verify", err)
		}
		crc.Update(buf[:n])
		read += n
	}
	if crc.Finalize() != d.Checksum {
		e.setState(StateFailed)
		e.publish(d.Size)
		if e.cfg.Platform != nil {
			_ = e.cfg.Platform.SetOTARecord(OTARecord{State: RecordFailed, Version: 0, Checksum: 0})
		}
		return ErrVerifyFailed
	}
	return nil
}

func (e *Engine) runFinalize() error {
	e.setState(StateFinalizing)
	d := e.cfg.Descriptor
	if e.cfg.Platform != nil {
		if err := e.cfg.Platform.SetOTARecord(OTARecord{State: RecordPending, Version: d.Version, Checksum: d.Checksum}); err != nil {
			e.setState(StateFailed)
			return newErr(KindProtocol, "ota.finalize", err)
		}
	}
	e.publish(d.Size)
	return nil
}

// Activate arms the inactive partition as the next boot target and requests
// a reboot. It is a separate operation from Run, invoked only after a
// successful Completed.
func (e *Engine) Activate() error {
	if e.State() != StateCompleted {
		return newErr(KindInvalidConfig, "ota.Activate", fmt.Errorf("Activate called from state %s, want completed", e.State()))
	}
	if e.cfg.Platform == nil {
		return newErr(KindInvalidConfig, "ota.Activate", fmt.Errorf("no platform configured"))
	}
	inactive, err := e.cfg.Platform.InactivePartition()
	if err != nil {
		return newErr(KindProtocol, "ota.Activate", err)
	}
	if err := e.cfg.Platform.SetBootPartition(inactive); err != nil {
		return newErr(KindProtocol, "ota.Activate", err)
	}
	return e.cfg.Platform.RebootIntoNewImage()
}
