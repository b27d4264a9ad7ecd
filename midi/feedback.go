package midi

// Feedback lights the record and play buttons of the control surface.
// Only lamps whose value changed since the previous Show are sent.
type Feedback struct {
	send    func(raw []byte) error
	channel uint8
	sent    map[uint8]uint8
}

// Lamp values
const (
	LampOff uint8 = 0
	LampOn  uint8 = 127
)

func NewFeedback(send func(raw []byte) error, channel uint8) *Feedback {
	return &Feedback{
		send:    send,
		channel: channel & 0x0F,
		sent:    make(map[uint8]uint8),
	}
}

// Show updates both lamps
func (f *Feedback) Show(recording, playing bool) error {
	if err := f.set(RecordCC, recording); err != nil {
		return err
	}
	return f.set(PlayCC, playing)
}

func (f *Feedback) set(cc uint8, on bool) error {
	value := LampOff
	if on {
		value = LampOn
	}
	if prev, ok := f.sent[cc]; ok && prev == value {
		return nil
	}
	if err := f.send([]byte{CC | f.channel, cc, value}); err != nil {
		return err
	}
	f.sent[cc] = value
	return nil
}

// Reset forgets what was sent so the next Show repaints every lamp
func (f *Feedback) Reset() {
	f.sent = make(map[uint8]uint8)
}
