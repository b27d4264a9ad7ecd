package sequencer

import (
	"errors"
	"fmt"

	"go-looper/debug"
	"go-looper/midi"
)

const (
	// BarLength is the quantization unit in clock ticks
	BarLength = midi.TicksPerBar
	// SyncThreshold is how many ticks past a bar line still count as on it
	SyncThreshold = 7
)

// ErrClockUnderflow means an offset was computed for a clock before the recording start
var ErrClockUnderflow = errors.New("clock before record start")

// pendingNote is a note captured near a bar line while not recording
type pendingNote struct {
	offset uint64
	msg    midi.Message
}

// Sequencer records notes against the external clock and loops them back.
// It is not safe for concurrent use; the Manager serializes all calls.
type Sequencer struct {
	clock    uint64
	state    State
	recStart uint64
	loopLen  uint64

	sequence     map[uint64][]midi.Message
	events       int
	pendingStart []pendingNote
	pendingEnd   []pendingNote

	thru bool
	send func(raw []byte) error

	onStateChange func(from, to State)
}

// New creates an idle sequencer writing to send. With thru set, every played
// note is also forwarded to send as it arrives.
func New(send func(raw []byte) error, thru bool) *Sequencer {
	return &Sequencer{
		state:    StateIdle,
		sequence: make(map[uint64][]midi.Message),
		thru:     thru,
		send:     send,
	}
}

// SetOnStateChange registers a callback fired after every state transition
func (s *Sequencer) SetOnStateChange(fn func(from, to State)) {
	s.onStateChange = fn
}

func (s *Sequencer) State() State { return s.state }
func (s *Sequencer) Clock() uint64 { return s.clock }
func (s *Sequencer) RecStart() uint64 { return s.recStart }
func (s *Sequencer) LoopLen() uint64 { return s.loopLen }
func (s *Sequencer) Thru() bool { return s.thru }
func (s *Sequencer) SetThru(thru bool) { s.thru = thru }

// EventsAt returns a copy of the messages recorded at offset
func (s *Sequencer) EventsAt(offset uint64) []midi.Message {
	return append([]midi.Message(nil), s.sequence[offset]...)
}

// Snapshot copies the observable state
func (s *Sequencer) Snapshot() Snapshot {
	return Snapshot{
		State:        s.state,
		Clock:        s.clock,
		RecStart:     s.recStart,
		LoopLen:      s.loopLen,
		Events:       s.events,
		PendingStart: len(s.pendingStart),
		PendingEnd:   len(s.pendingEnd),
		Thru:         s.thru,
	}
}

// ToggleRecord handles the record button
func (s *Sequencer) ToggleRecord() {
	switch s.state {
	case StatePlay, StateIdle, StateWaitingForPlay, StateWaitingForPlayAfterRec, StateWaitingForStop:
		s.beginRecord()
	case StateRec:
		s.endRecord()
	case StateWaitingForRec:
		s.beginPlay()
	}
}

// TogglePlay handles the play button
func (s *Sequencer) TogglePlay() {
	switch s.state {
	case StateRec:
		s.endRecord()
	case StateIdle, StateWaitingForRec, StateWaitingForStop:
		s.beginPlay()
	case StatePlay:
		s.endPlay()
	}
}

// Tick advances the sequencer by one clock pulse. It resolves transitions queued
// for the bar line, plays the loop and moves the clock forward.
func (s *Sequencer) Tick() {
	if s.clock%BarLength == 0 {
		switch s.state {
		case StateWaitingForRec:
			s.startTake(s.clock)
			debug.Log("seq", "rec started from sync, tick: %d", s.clock)
		case StateWaitingForPlayAfterRec:
			s.loopLen = s.elapsed()
			s.setState(StatePlay)
			debug.Log("seq", "rec stop, play started (sync), tick: %d len: %d", s.clock, s.loopLen)
		case StateWaitingForPlay:
			s.setState(StatePlay)
			debug.Log("seq", "play started (sync), tick: %d len: %d", s.clock, s.loopLen)
		case StateWaitingForStop:
			s.setState(StateIdle)
			debug.Log("seq", "stopped (sync), tick: %d", s.clock)
		}
	}

	if s.state == StatePlay && s.loopLen > 0 {
		for _, msg := range s.sequence[s.clock%s.loopLen] {
			s.emit(msg)
		}
	}

	s.clock++
}

// RecordOrBuffer takes a played note at the current clock. While recording it
// goes into the loop; otherwise notes near a bar line are kept aside in case a
// record request lands on that line.
func (s *Sequencer) RecordOrBuffer(msg midi.Message) {
	if !msg.IsNote() {
		return
	}
	if msg.Param2() < 0 {
		debug.Log("seq", "dropped truncated note %s", msg)
		return
	}

	if s.state.Recording() {
		s.appendMessage(s.elapsed(), msg)
	} else {
		pos := s.clock % BarLength
		switch {
		case pos < SyncThreshold:
			s.pendingStart = append(s.pendingStart, pendingNote{offset: pos, msg: msg})
		case pos == SyncThreshold:
			s.pendingStart = nil
			debug.Log("seq", "pending_start cleared")
		case pos == BarLength-SyncThreshold:
			s.pendingEnd = nil
			debug.Log("seq", "pending_end cleared")
		case BarLength-pos < 2*SyncThreshold:
			s.pendingEnd = append(s.pendingEnd, pendingNote{offset: 0, msg: msg})
		}
	}

	if s.thru {
		s.emit(msg)
	}
}

// ResetClock rewinds to tick 0 after the transport stops. A take in progress
// is rebased so it keeps measuring from the restart.
func (s *Sequencer) ResetClock() {
	s.clock = 0
	s.recStart = 0
	s.pendingStart = nil
	s.pendingEnd = nil
	debug.Log("seq", "clock reset, state: %s", s.state)
}

func (s *Sequencer) beginRecord() {
	pos := s.clock % BarLength
	if pos < SyncThreshold {
		s.startTake(s.clock - pos)
		debug.Log("seq", "rec started, clock: %d", s.recStart)
		return
	}
	s.setState(StateWaitingForRec)
	s.pendingStart = nil
	debug.Log("seq", "preparing for rec at: %d", s.clock)
}

// startTake begins a new recording at start, seeding it with the notes
// played just before the bar line.
func (s *Sequencer) startTake(start uint64) {
	s.recStart = start
	s.sequence = make(map[uint64][]midi.Message)
	s.events = 0
	for _, p := range s.pendingEnd {
		s.appendMessage(p.offset, p.msg)
		debug.Log("seq", "appended pending at: %d", p.offset)
	}
	s.pendingEnd = nil
	s.pendingStart = nil
	s.setState(StateRec)
}

func (s *Sequencer) endRecord() {
	if s.clock%BarLength == 0 {
		s.loopLen = s.elapsed()
		s.setState(StatePlay)
		debug.Log("seq", "rec stopped, len: %d", s.loopLen)
		return
	}
	s.setState(StateWaitingForPlayAfterRec)
	debug.Log("seq", "preparing for stop rec at: %d", s.clock)
}

func (s *Sequencer) beginPlay() {
	if s.clock%BarLength == 0 {
		s.setState(StatePlay)
		debug.Log("seq", "play started %d", s.clock)
		return
	}
	s.setState(StateWaitingForPlay)
	debug.Log("seq", "preparing for play at: %d", s.clock)
}

func (s *Sequencer) endPlay() {
	s.setState(StateIdle)
	debug.Log("seq", "idle at %d", s.clock)
}

func (s *Sequencer) setState(next State) {
	prev := s.state
	s.state = next
	if prev != next && s.onStateChange != nil {
		s.onStateChange(prev, next)
	}
}

// elapsed is the offset of the current clock within the take
func (s *Sequencer) elapsed() uint64 {
	if s.clock < s.recStart {
		panic(fmt.Errorf("%w: clock %d, rec start %d", ErrClockUnderflow, s.clock, s.recStart))
	}
	return s.clock - s.recStart
}

func (s *Sequencer) appendMessage(offset uint64, msg midi.Message) {
	s.sequence[offset] = append(s.sequence[offset], msg)
	s.events++
}

func (s *Sequencer) emit(msg midi.Message) {
	raw, err := msg.Encode()
	if err != nil {
		panic(err)
	}
	if s.send == nil {
		return
	}
	if err := s.send(raw); err != nil {
		debug.LogEvery(16, "seq", "send failed: %v", err)
	}
}
