package storage

import (
	"bytes"
	"testing"
)

func TestMemoryErasedIsAllFF(t *testing.T) {
	m := NewMemory(64)
	buf := make([]byte, 64)
	if err := m.ReadAt(0, buf); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	for i, b := range buf {
		if b != 0xFF {
			t.Fatalf("byte %d: got %#x, want 0xFF", i, b)
		}
	}
}

func TestMemoryWriteReadRoundTrip(t *testing.T) {
	m := NewMemory(64)
	want := []byte("firmware-chunk")
	if err := m.WriteAt(8, want); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	got := make([]byte, len(want))
	if err := m.ReadAt(8, got); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestMemoryEraseResetsToFF(t *testing.T) {
	m := NewMemory(32)
	if err := m.WriteAt(0, []byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	if err := m.Erase(0, 4); err != nil {
		t.Fatalf("Erase: %v", err)
	}
	got := make([]byte, 4)
	if err := m.ReadAt(0, got); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	for _, b := range got {
		if b != 0xFF {
			t.Fatalf("expected erased byte to be 0xFF, got %#x", b)
		}
	}
}

func TestMemoryOutOfBounds(t *testing.T) {
	m := NewMemory(16)
	if err := m.ReadAt(10, make([]byte, 10)); err == nil {
		t.Fatal("expected OutOfBounds error")
	}
	if err := m.WriteAt(10, make([]byte, 10)); err == nil {
		t.Fatal("expected OutOfBounds error")
	}
	if err := m.Erase(0, 17); err == nil {
		t.Fatal("expected OutOfBounds error")
	}
}

func TestMemoryCapacity(t *testing.T) {
	m := NewMemory(128)
	if got := m.Capacity(); got != 128 {
		t.Fatalf("Capacity() = %d, want 128", got)
	}
}
