// Package crc32engine implements the streaming CRC-32/IEEE checksum the OTA
// engine uses to verify a downloaded image against Storage after the write
// completes. It is a custom, from-scratch table-driven implementation (not a
// hash/crc32 wrapper) so the running state stays internal and unobservable
// mid-stream, matching original_source/src/ota/mod.rs's verification step.
package crc32engine

import "sync"

const polynomial uint32 = 0xEDB88320

var (
	tableOnce sync.Once
	table     [256]uint32
)

func buildTable() {
	for i := uint32(0); i < 256; i++ {
		crc := i
		for bit := 0; bit < 8; bit++ {
			if crc&1 != 0 {
				crc = (crc >> 1) ^ polynomial
			} else {
				crc >>= 1
			}
		}
		table[i] = crc
	}
}

// Engine accumulates a CRC-32/IEEE checksum across one or more calls to
// Update, then yields the final value via Finalize.
type Engine struct {
	crc uint32
}

// New returns an Engine primed to the algorithm's initial state.
func New() *Engine {
	tableOnce.Do(buildTable)
	return &Engine{crc: 0xFFFFFFFF}
}

// Update folds additional bytes into the running checksum. It may be called
// any number of times, in any chunk sizes, with an identical result to
// calling it once on the concatenation of all chunks (see crc32_test.go).
func (e *Engine) Update(data []byte) {
	crc := e.crc
	for _, b := range data {
		crc = table[byte(crc)^b] ^ (crc >> 8)
	}
	e.crc = crc
}

// Finalize applies the algorithm's final XOR and returns the checksum. The
// Engine's internal state is not meant to be read before Finalize is called.
func (e *Engine) Finalize() uint32 {
	return e.crc ^ 0xFFFFFFFF
}

// Checksum is a convenience wrapper computing the CRC-32/IEEE of a single
// byte slice in one call.
func Checksum(data []byte) uint32 {
	e := New()
	e.Update(data)
	return e.Finalize()
}
