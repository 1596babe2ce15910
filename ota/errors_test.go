package ota

import (
	"errors"
	"testing"

	"github.com/golang-io/iotcore/storage"
)

func TestErrorIsComparesKindOnly(t *testing.T) {
	a := newErr(KindNetwork, "ota.download", errors.New("timeout"))
	if !errors.Is(a, networkErr("ota.other", nil)) {
		t.Fatal("errors.Is should match same Kind regardless of Op/Err")
	}
	if errors.Is(a, ErrVerifyFailed) {
		t.Fatal("errors.Is should not match a different Kind")
	}
}

func TestWrapStoragePreservesStorageKind(t *testing.T) {
	serr := &storage.Error{Kind: storage.KindEraseError, Op: "Erase"}
	wrapped := wrapStorage("ota.Erase", serr)
	if wrapped.Kind != KindStorage {
		t.Fatalf("Kind = %v, want KindStorage", wrapped.Kind)
	}
	if !errors.Is(wrapped, serr) {
		t.Fatal("errors.Is should see through to the wrapped storage.Error")
	}
}

func TestKindStringCoversAllValues(t *testing.T) {
	kinds := []Kind{KindNetwork, KindStorage, KindInvalidConfig, KindVerifyFailed, KindCanceled, KindProtocol}
	for _, k := range kinds {
		if k.String() == "unknown" {
			t.Errorf("Kind %d stringified as unknown", k)
		}
	}
}
