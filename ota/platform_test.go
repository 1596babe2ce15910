package ota

import "testing"

func TestHooksActiveInactiveSwapOnSetBootPartition(t *testing.T) {
	a := Partition{Start: 0, Size: 1024}
	b := Partition{Start: 1024, Size: 1024}
	h := NewHooks(a, b)

	active, _ := h.ActivePartition()
	inactive, _ := h.InactivePartition()
	if active != a || inactive != b {
		t.Fatalf("initial active/inactive = %v/%v, want %v/%v", active, inactive, a, b)
	}

	if err := h.SetBootPartition(b); err != nil {
		t.Fatalf("SetBootPartition: %v", err)
	}
	active, _ = h.ActivePartition()
	inactive, _ = h.InactivePartition()
	if active != b || inactive != a {
		t.Fatalf("after SetBootPartition(b): active/inactive = %v/%v, want %v/%v", active, inactive, b, a)
	}
}

func TestHooksSetBootPartitionIgnoresNonInactiveTarget(t *testing.T) {
	a := Partition{Start: 0, Size: 1024}
	b := Partition{Start: 1024, Size: 1024}
	h := NewHooks(a, b)

	if err := h.SetBootPartition(Partition{Start: 9999, Size: 1}); err != nil {
		t.Fatalf("SetBootPartition: %v", err)
	}
	active, _ := h.ActivePartition()
	if active != a {
		t.Fatalf("active partition changed on an unrelated SetBootPartition call: %v", active)
	}
}

func TestHooksRecordRoundTrip(t *testing.T) {
	h := NewHooks(Partition{}, Partition{})
	rec := OTARecord{State: RecordPending, Version: 3, Checksum: 0xABCD}
	if err := h.SetOTARecord(rec); err != nil {
		t.Fatalf("SetOTARecord: %v", err)
	}
	got, err := h.GetOTARecord()
	if err != nil {
		t.Fatalf("GetOTARecord: %v", err)
	}
	if got != rec {
		t.Fatalf("got %+v, want %+v", got, rec)
	}
}

func TestRebootIntoNewImagePromotesPendingToSuccess(t *testing.T) {
	h := NewHooks(Partition{}, Partition{})
	_ = h.SetOTARecord(OTARecord{State: RecordPending, Version: 1, Checksum: 2})
	if err := h.RebootIntoNewImage(); err != nil {
		t.Fatalf("RebootIntoNewImage: %v", err)
	}
	rec, _ := h.GetOTARecord()
	if rec.State != RecordSuccess {
		t.Fatalf("record state after reboot = %v, want Success", rec.State)
	}
	if h.RebootCount() != 1 {
		t.Fatalf("RebootCount = %d, want 1", h.RebootCount())
	}
}

func TestConfirmBootNoopWhenNotPending(t *testing.T) {
	h := NewHooks(Partition{}, Partition{})
	_ = h.SetOTARecord(OTARecord{State: RecordIdle})
	if err := ConfirmBoot(h); err != nil {
		t.Fatalf("ConfirmBoot: %v", err)
	}
	rec, _ := h.GetOTARecord()
	if rec.State != RecordIdle {
		t.Fatalf("ConfirmBoot changed a non-Pending record: %v", rec.State)
	}
}

func TestConfirmBootPromotesPending(t *testing.T) {
	h := NewHooks(Partition{}, Partition{})
	_ = h.SetOTARecord(OTARecord{State: RecordPending, Version: 5})
	if err := ConfirmBoot(h); err != nil {
		t.Fatalf("ConfirmBoot: %v", err)
	}
	rec, _ := h.GetOTARecord()
	if rec.State != RecordSuccess || rec.Version != 5 {
		t.Fatalf("got %+v, want Success with version preserved", rec)
	}
}
