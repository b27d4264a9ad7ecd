package midi

import (
	"fmt"
	"strings"
	"sync"

	"go-looper/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

// PortSource reads frames from a driver input port
type PortSource struct {
	id       string
	inPort   drivers.In
	stopFunc func()
	frames   chan []byte

	mu     sync.Mutex
	closed bool
}

// NewPortSource starts listening on inPort
func NewPortSource(id string, inPort drivers.In) (*PortSource, error) {
	ps := &PortSource{
		id:     id,
		inPort: inPort,
		frames: make(chan []byte, frameBuffer),
	}

	// Without UseTimeCode rtmidi filters 0xF8 timing clock along with MTC.
	stop, err := gomidi.ListenTo(inPort, func(msg gomidi.Message, timestampms int32) {
		if len(msg) == 0 {
			return
		}
		ps.deliver(append([]byte(nil), msg...))
	}, gomidi.UseTimeCode(), gomidi.HandleError(func(err error) {
		debug.Log("port", "%s: listener error: %v", id, err)
	}))
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	ps.stopFunc = stop

	return ps, nil
}

// deliver runs on the driver thread and may race with Close
func (ps *PortSource) deliver(frame []byte) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.closed {
		return
	}
	select {
	case ps.frames <- frame:
	default:
		debug.LogEvery(16, "port", "%s: frame dropped, consumer behind", ps.id)
	}
}

func (ps *PortSource) ID() string {
	return ps.id
}

func (ps *PortSource) Frames() <-chan []byte {
	return ps.frames
}

func (ps *PortSource) Close() error {
	ps.mu.Lock()
	if ps.closed {
		ps.mu.Unlock()
		return nil
	}
	ps.closed = true
	close(ps.frames)
	ps.mu.Unlock()

	// stop waits for a running callback, which needs mu
	if ps.stopFunc != nil {
		ps.stopFunc()
	}
	return nil
}

// PortSink writes frames to a driver output port
type PortSink struct {
	outPort drivers.Out
	send    func(msg gomidi.Message) error
}

func NewPortSink(outPort drivers.Out) (*PortSink, error) {
	send, err := gomidi.SendTo(outPort)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}
	return &PortSink{outPort: outPort, send: send}, nil
}

func (ps *PortSink) Write(raw []byte) error {
	return ps.send(gomidi.Message(raw))
}

func (ps *PortSink) Close() error {
	return ps.outPort.Close()
}

// findInPort returns the first input whose name contains name (case-insensitive)
func findInPort(name string) (drivers.In, error) {
	for _, port := range gomidi.GetInPorts() {
		if containsCI(port.String(), name) {
			return port, nil
		}
	}
	return nil, fmt.Errorf("input port %q not found", name)
}

func findOutPort(name string) (drivers.Out, error) {
	for _, port := range gomidi.GetOutPorts() {
		if containsCI(port.String(), name) {
			return port, nil
		}
	}
	return nil, fmt.Errorf("output port %q not found", name)
}

func containsCI(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
