package midi

import (
	"errors"
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// MIDI status bytes
const (
	NoteOff uint8 = 0x80
	NoteOn  uint8 = 0x90
	CC      uint8 = 0xB0

	TimingClock  uint8 = 0xF8
	StartByte    uint8 = 0xFA
	ContinueByte uint8 = 0xFB
	StopByte     uint8 = 0xFC
)

var (
	// ErrMalformedMessage is returned by Decode for frames of 0 or more than 3 bytes.
	ErrMalformedMessage = errors.New("malformed midi message")
	// ErrUnencodableMessage is returned by Encode for anything but note and CC messages.
	ErrUnencodableMessage = errors.New("unencodable midi message")
)

// Kind classifies a message by its status byte
type Kind uint8

const (
	KindOther Kind = iota
	KindNoteOn
	KindNoteOff
	KindControlChange
	KindStart
	KindStop
	KindContinue
	KindClock
)

var kindNames = [...]string{
	KindOther:         "other",
	KindNoteOn:        "note-on",
	KindNoteOff:       "note-off",
	KindControlChange: "control-change",
	KindStart:         "start",
	KindStop:          "stop",
	KindContinue:      "continue",
	KindClock:         "clock",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Classify maps a status byte to its Kind
func Classify(status uint8) Kind {
	switch status >> 4 {
	case NoteOff >> 4:
		return KindNoteOff
	case NoteOn >> 4:
		return KindNoteOn
	case CC >> 4:
		return KindControlChange
	}
	switch status {
	case StartByte:
		return KindStart
	case StopByte:
		return KindStop
	case ContinueByte:
		return KindContinue
	case TimingClock:
		return KindClock
	}
	return KindOther
}

// Message is a decoded MIDI event stamped with the tick it was observed at.
// Absent parameters are -1.
type Message struct {
	tick   uint64
	status uint8
	param1 int
	param2 int
	kind   Kind
}

// NewMessage builds a message; the kind is derived from status
func NewMessage(tick uint64, status uint8, param1, param2 int) Message {
	return Message{
		tick:   tick,
		status: status,
		param1: param1,
		param2: param2,
		kind:   Classify(status),
	}
}

// Decode builds a message from however many bytes a read produced (1 to 3).
func Decode(tick uint64, raw []byte) (Message, error) {
	switch len(raw) {
	case 1:
		return NewMessage(tick, raw[0], -1, -1), nil
	case 2:
		return NewMessage(tick, raw[0], int(raw[1]), -1), nil
	case 3:
		return NewMessage(tick, raw[0], int(raw[1]), int(raw[2])), nil
	}
	return Message{}, fmt.Errorf("%w: %d bytes", ErrMalformedMessage, len(raw))
}

// Encode returns the 3-byte wire form of a note or CC message.
func (m Message) Encode() ([]byte, error) {
	switch m.kind {
	case KindNoteOn, KindNoteOff, KindControlChange:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnencodableMessage, m.kind)
	}
	if m.param1 < 0 || m.param2 < 0 {
		return nil, fmt.Errorf("%w: %s without data bytes", ErrUnencodableMessage, m.kind)
	}
	return []byte{m.status, uint8(m.param1), uint8(m.param2)}, nil
}

func (m Message) Tick() uint64 { return m.tick }
func (m Message) Status() uint8 { return m.status }
func (m Message) Param1() int { return m.param1 }
func (m Message) Param2() int { return m.param2 }
func (m Message) Kind() Kind { return m.kind }

// Channel returns the 0-based channel of a channel message
func (m Message) Channel() uint8 {
	return m.status & 0x0F
}

// IsNote reports whether m is a note-on or note-off
func (m Message) IsNote() bool {
	return m.kind == KindNoteOn || m.kind == KindNoteOff
}

// IsTransport reports whether m is one of the realtime clock/transport messages
func (m Message) IsTransport() bool {
	switch m.kind {
	case KindClock, KindStart, KindStop, KindContinue:
		return true
	}
	return false
}

func (m Message) String() string {
	if raw, err := m.Encode(); err == nil {
		return fmt.Sprintf("@%d %s", m.tick, gomidi.Message(raw).String())
	}
	if m.IsTransport() {
		return fmt.Sprintf("@%d %s", m.tick, gomidi.Message([]byte{m.status}).String())
	}
	return fmt.Sprintf("@%d %s status=0x%02x p1=%d p2=%d", m.tick, m.kind, m.status, m.param1, m.param2)
}
