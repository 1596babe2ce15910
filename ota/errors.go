package ota

import (
	"fmt"

	"github.com/golang-io/iotcore/neterr"
	"github.com/golang-io/iotcore/storage"
)

// Kind identifies the taxonomy branch of an *Error.
type Kind uint8

const (
	KindNetwork Kind = iota
	KindStorage
	KindInvalidConfig
	KindVerifyFailed
	KindCanceled
	KindProtocol
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindStorage:
		return "storage"
	case KindInvalidConfig:
		return "invalid-config"
	case KindVerifyFailed:
		return "verify-failed"
	case KindCanceled:
		return "canceled"
	case KindProtocol:
		return "protocol"
	default:
		return "unknown"
	}
}

// Error is the OTA engine's error taxonomy: Network(kind), Storage(kind),
// InvalidConfig, VerifyFailed, Canceled, Protocol.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func newErr(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ota: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("ota: %s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

var (
	ErrInvalidConfig = &Error{Kind: KindInvalidConfig}
	ErrVerifyFailed  = &Error{Kind: KindVerifyFailed}
	ErrCanceled      = &Error{Kind: KindCanceled}
	ErrProtocol      = &Error{Kind: KindProtocol}
)

func networkErr(op string, err error) *Error { return newErr(KindNetwork, op, err) }

func storageErr(op string, err error) *Error { return newErr(KindStorage, op, err) }

// wrapStorage translates a *storage.Error into the OTA taxonomy's
// Storage(kind) branch, preserving the underlying storage error kind in the
// message.
func wrapStorage(op string, err error) *Error {
	if serr, ok := err.(*storage.Error); ok {
		return storageErr(op, serr)
	}
	return storageErr(op, err)
}

// wrapNetwork translates a *neterr.Error into the OTA taxonomy's
// Network(kind) branch.
func wrapNetwork(op string, err error) *Error {
	if nerr, ok := err.(*neterr.Error); ok {
		return networkErr(op, nerr)
	}
	return networkErr(op, err)
}
