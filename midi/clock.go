package midi

// TicksPerBar is the quantization unit: 4 beats of 24 clock pulses
const TicksPerBar = 96

// ClockHandler receives the callbacks a Clock fires
type ClockHandler interface {
	OnTick()
	OnBar()
	OnStop()
}

// Clock follows an external MIDI clock and transport.
// Clock pulses are ignored while the transport is stopped.
type Clock struct {
	handler ClockHandler
	tick    uint64
	playing bool
}

// NewClock creates a stopped clock at tick 0
func NewClock(handler ClockHandler) *Clock {
	return &Clock{handler: handler}
}

// Process applies one transport message. Non-transport messages are ignored.
func (c *Clock) Process(msg Message) {
	switch msg.Kind() {
	case KindClock:
		if !c.playing {
			return
		}
		c.tick++
		c.handler.OnTick()
		if c.tick%TicksPerBar == 0 {
			c.handler.OnBar()
		}
	case KindStart:
		c.handler.OnBar()
		c.tick = 0
		c.playing = true
	case KindContinue:
		c.playing = true
	case KindStop:
		c.playing = false
		c.handler.OnStop()
	}
}

// Tick returns pulses counted since the last Start
func (c *Clock) Tick() uint64 {
	return c.tick
}

func (c *Clock) IsPlaying() bool {
	return c.playing
}

// Bar returns the number of completed bars
func (c *Clock) Bar() uint64 {
	return c.tick / TicksPerBar
}

// Position returns the tick within the current bar
func (c *Clock) Position() uint64 {
	return c.tick % TicksPerBar
}
