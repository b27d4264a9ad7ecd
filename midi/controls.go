package midi

// Control change numbers of the control surface buttons
const (
	RecordCC uint8 = 0x0B
	PlayCC   uint8 = 0x0E
	QuitCC   uint8 = 0x40
)

// ControlHandler receives the transport toggles mapped from control changes
type ControlHandler interface {
	ToggleRecord()
	TogglePlay()
}

// Controls maps control-surface CC messages to transport toggles
type Controls struct {
	handler ControlHandler
}

func NewControls(handler ControlHandler) *Controls {
	return &Controls{handler: handler}
}

// Process dispatches a CC message; anything else is ignored
func (c *Controls) Process(msg Message) {
	if msg.Kind() != KindControlChange {
		return
	}
	switch msg.Param1() {
	case int(RecordCC):
		c.handler.ToggleRecord()
	case int(PlayCC):
		c.handler.TogglePlay()
	}
}

// IsQuit reports whether msg is the button that shuts the looper down
func IsQuit(msg Message) bool {
	return msg.Kind() == KindControlChange && msg.Param1() == int(QuitCC)
}
