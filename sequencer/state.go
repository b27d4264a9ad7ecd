package sequencer

import "fmt"

// State is the looper's record/play state
type State int

const (
	StateIdle State = iota
	StateRec
	StatePlay
	StateWaitingForRec
	StateWaitingForPlay
	StateWaitingForPlayAfterRec // still recording until the bar line
	StateWaitingForStop         // resolved on the bar line but never entered by a toggle
)

var stateNames = [...]string{
	StateIdle:                   "IDLE",
	StateRec:                    "REC",
	StatePlay:                   "PLAY",
	StateWaitingForRec:          "WAITING_FOR_REC",
	StateWaitingForPlay:         "WAITING_FOR_PLAY",
	StateWaitingForPlayAfterRec: "WAITING_FOR_PLAY_AFTER_REC",
	StateWaitingForStop:         "WAITING_FOR_STOP",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Recording reports whether incoming notes land in the loop
func (s State) Recording() bool {
	return s == StateRec || s == StateWaitingForPlayAfterRec
}

// Waiting reports whether a transition is queued for the next bar line
func (s State) Waiting() bool {
	switch s {
	case StateWaitingForRec, StateWaitingForPlay, StateWaitingForPlayAfterRec, StateWaitingForStop:
		return true
	}
	return false
}

// Snapshot is a copy of the sequencer's observable state
type Snapshot struct {
	State        State
	Clock        uint64
	RecStart     uint64
	LoopLen      uint64
	Events       int
	PendingStart int
	PendingEnd   int
	Thru         bool
}

// Status is what the Manager publishes after every event
type Status struct {
	Snapshot
	Transport bool   // external transport running
	Tick      uint64 // external clock tick since Start
	Sources   int    // inputs still open
}

// Bars returns the loop length in whole bars
func (s Snapshot) Bars() uint64 {
	return s.LoopLen / BarLength
}
