package ota

import "sync"

// Partition is a contiguous byte range on Storage, identified by a byte
// offset and size.
type Partition struct {
	Start uint32
	Size  uint32
}

// RecordState is the OTA-persistent record's state tag.
type RecordState uint8

const (
	RecordIdle RecordState = iota
	RecordPending
	RecordSuccess
	RecordFailed
)

// OTARecord is the small structure held in a platform-provided non-volatile
// slot distinct from the image partitions, used to communicate update status
// across reboots.
type OTARecord struct {
	State    RecordState
	Version  uint32
	Checksum uint32
}

// Platform is the set of hooks the OTA engine uses to select, arm, and
// activate partitions, and to read/write the persistent record. A real
// device implements this over its bootloader/NVRAM; Hooks below is a
// RAM-backed stand-in for tests and demos.
type Platform interface {
	ActivePartition() (Partition, error)
	InactivePartition() (Partition, error)
	SetBootPartition(Partition) error
	GetOTARecord() (OTARecord, error)
	SetOTARecord(OTARecord) error
	RebootIntoNewImage() error
}

// Hooks is a RAM-backed reference Platform implementation. It is not a
// production NVRAM driver — it exists so the OTA engine's activation
// handshake and post-reboot confirmation can be exercised in tests without a
// real bootloader.
type Hooks struct {
	mu sync.Mutex

	active   Partition
	inactive Partition
	record   OTARecord

	rebootCount int
}

// NewHooks constructs a Hooks with the given A/B partitions, active side
// initially partition a.
func NewHooks(a, b Partition) *Hooks {
	return &Hooks{active: a, inactive: b}
}

func (h *Hooks) ActivePartition() (Partition, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active, nil
}

func (h *Hooks) InactivePartition() (Partition, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.inactive, nil
}

// SetBootPartition swaps active/inactive at once when p is the current
// inactive partition, so ActivePartition reports p from then on; any other
// p is ignored.
func (h *Hooks) SetBootPartition(p Partition) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if p == h.inactive {
		h.active, h.inactive = h.inactive, h.active
	}
	return nil
}

func (h *Hooks) GetOTARecord() (OTARecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.record, nil
}

func (h *Hooks) SetOTARecord(rec OTARecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.record = rec
	return nil
}

// RebootIntoNewImage simulates a reboot: in this RAM-backed stand-in it does
// not exit the process. It increments a counter a test can observe, and
// promotes a Pending record to Success (the post-reboot confirmation
// contract), mirroring what real application startup code does.
func (h *Hooks) RebootIntoNewImage() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rebootCount++
	if h.record.State == RecordPending {
		h.record.State = RecordSuccess
	}
	return nil
}

// RebootCount reports how many times RebootIntoNewImage has been called.
func (h *Hooks) RebootCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rebootCount
}

// ConfirmBoot is the post-reboot confirmation hook application startup code
// runs: if the persistent record is Pending, promote it to Success.
func ConfirmBoot(p Platform) error {
	rec, err := p.GetOTARecord()
	if err != nil {
		return err
	}
	if rec.State != RecordPending {
		return nil
	}
	rec.State = RecordSuccess
	return p.SetOTARecord(rec)
}
