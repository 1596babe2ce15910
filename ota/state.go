package ota

// State is the OTA engine's current phase. Transitions are one-directional
// through the pipeline; Failed and Canceled are absorbing until a new Engine
// is constructed.
type State uint8

const (
	StateIdle State = iota
	StateErasing
	StateDownloading
	StateVerifying
	StateFinalizing
	StateCompleted
	StateFailed
	StateCanceled
)

var stateNames = map[State]string{
	StateIdle:        "idle",
	StateErasing:     "erasing",
	StateDownloading: "downloading",
	StateVerifying:   "verifying",
	StateFinalizing:  "finalizing",
	StateCompleted:   "completed",
	StateFailed:      "failed",
	StateCanceled:    "canceled",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}
