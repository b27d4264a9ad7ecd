package sequencer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go-looper/debug"
	"go-looper/midi"
)

// ErrQuit is returned by Run when the quit button is pressed on the control surface
var ErrQuit = errors.New("quit requested from control surface")

// Role says which part of the looper a source feeds
type Role uint8

const (
	RoleTransport Role = 1 << iota // clock and start/stop/continue
	RoleNotes                      // notes to record
	RoleControls                   // record/play buttons
)

var roleNames = map[string]Role{
	"transport": RoleTransport,
	"notes":     RoleNotes,
	"controls":  RoleControls,
}

// ParseRoles converts config role names into a Role set
func ParseRoles(names []string) (Role, error) {
	var roles Role
	for _, name := range names {
		r, ok := roleNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return 0, fmt.Errorf("unknown role %q", name)
		}
		roles |= r
	}
	return roles, nil
}

func (r Role) String() string {
	var parts []string
	for _, name := range []string{"transport", "notes", "controls"} {
		if r&roleNames[name] != 0 {
			parts = append(parts, name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "+")
}

// Input is a source together with what it is routed to
type Input struct {
	Source midi.Source
	Roles  Role
}

// Options configures a Manager
type Options struct {
	Inputs   []Input
	Output   midi.Sink // loop playback and thru
	Feedback midi.Sink // control surface lamps, optional
	Thru     bool
}

type inputFrame struct {
	input  Input
	raw    []byte
	closed bool
}

// Manager is the single serialization point between the MIDI sources and the
// clock, controls and sequencer. Only Status is safe to call from other goroutines
// while Run is active; ToggleRecording and TogglePlayback are queued into Run.
type Manager struct {
	clock    *midi.Clock
	controls *midi.Controls
	seq      *Sequencer
	feedback *midi.Feedback

	inputs   []Input
	output   midi.Sink
	fbSink   midi.Sink
	open     int
	frames   chan inputFrame
	commands chan func()

	mu     sync.RWMutex
	status Status

	// Notify TUI of updates
	UpdateChan chan struct{}
}

// NewManager wires the clock and controls to a new sequencer
func NewManager(opts Options) *Manager {
	m := &Manager{
		inputs:     opts.Inputs,
		output:     opts.Output,
		fbSink:     opts.Feedback,
		frames:     make(chan inputFrame, 64),
		commands:   make(chan func(), 8),
		UpdateChan: make(chan struct{}, 1),
	}

	var send func(raw []byte) error
	if opts.Output != nil {
		send = opts.Output.Write
	}
	m.seq = New(send, opts.Thru)
	m.clock = midi.NewClock(transport{seq: m.seq})
	m.controls = midi.NewControls(m.seq)

	if opts.Feedback != nil {
		m.feedback = midi.NewFeedback(opts.Feedback.Write, 0)
	}
	m.seq.SetOnStateChange(m.stateChanged)

	m.status = Status{Snapshot: m.seq.Snapshot(), Sources: len(opts.Inputs)}
	return m
}

// transport forwards clock callbacks to the sequencer
type transport struct {
	seq *Sequencer
}

func (t transport) OnTick() {
	t.seq.Tick()
}

func (t transport) OnBar() {
	debug.LogEvery(4, "clock", "bar at seq clock %d", t.seq.Clock())
}

func (t transport) OnStop() {
	t.seq.ResetClock()
}

// Sequencer exposes the sequencer for inspection; do not call it while Run is active
func (m *Manager) Sequencer() *Sequencer {
	return m.seq
}

// Run routes frames from every input until ctx is done, the quit control is
// pressed or every source has closed.
func (m *Manager) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m.open = len(m.inputs)
	for _, in := range m.inputs {
		go m.forward(ctx, in)
	}
	if m.feedback != nil {
		m.feedback.Reset()
		m.showFeedback(m.seq.State())
	}
	m.publish()

	for m.open > 0 {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-m.commands:
			fn()
			m.publish()
		case f := <-m.frames:
			if f.closed {
				m.open--
				debug.Log("dispatch", "source %s closed, %d left", f.input.Source.ID(), m.open)
				m.publish()
				continue
			}
			if err := m.dispatch(f); err != nil {
				return err
			}
			m.publish()
		}
	}
	return nil
}

// forward copies one source's frames into the dispatch channel
func (m *Manager) forward(ctx context.Context, in Input) {
	for raw := range in.Source.Frames() {
		select {
		case m.frames <- inputFrame{input: in, raw: raw}:
		case <-ctx.Done():
			return
		}
	}
	select {
	case m.frames <- inputFrame{input: in, closed: true}:
	case <-ctx.Done():
	}
}

func (m *Manager) dispatch(f inputFrame) error {
	msg, err := midi.Decode(m.clock.Tick(), f.raw)
	if err != nil {
		debug.LogEvery(16, "dispatch", "%s: %v", f.input.Source.ID(), err)
		return nil
	}

	roles := f.input.Roles
	if roles&RoleControls != 0 && msg.Kind() == midi.KindControlChange {
		if midi.IsQuit(msg) {
			debug.Log("dispatch", "quit from %s", f.input.Source.ID())
			return ErrQuit
		}
		m.controls.Process(msg)
	}
	if roles&RoleTransport != 0 && msg.IsTransport() {
		m.clock.Process(msg)
	}
	if roles&RoleNotes != 0 && msg.IsNote() {
		m.seq.RecordOrBuffer(msg)
	}
	return nil
}

func (m *Manager) stateChanged(from, to State) {
	debug.Log("seq", "%s -> %s at clock %d", from, to, m.seq.Clock())
	if m.feedback != nil {
		m.showFeedback(to)
	}
}

func (m *Manager) showFeedback(state State) {
	if err := m.feedback.Show(state.Recording(), state == StatePlay); err != nil {
		debug.Log("dispatch", "feedback: %v", err)
	}
}

// publish copies the current state for readers outside the Run goroutine
func (m *Manager) publish() {
	m.mu.Lock()
	m.status = Status{
		Snapshot:  m.seq.Snapshot(),
		Transport: m.clock.IsPlaying(),
		Tick:      m.clock.Tick(),
		Sources:   m.open,
	}
	m.mu.Unlock()

	select {
	case m.UpdateChan <- struct{}{}:
	default:
	}
}

// Status returns the last published state
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// ToggleRecording queues a record button press
func (m *Manager) ToggleRecording() {
	m.enqueue("record", m.seq.ToggleRecord)
}

// TogglePlayback queues a play button press
func (m *Manager) TogglePlayback() {
	m.enqueue("play", m.seq.TogglePlay)
}

// ToggleThru queues switching note echo on or off
func (m *Manager) ToggleThru() {
	m.enqueue("thru", func() {
		m.seq.SetThru(!m.seq.Thru())
		debug.Log("dispatch", "thru %v", m.seq.Thru())
	})
}

func (m *Manager) enqueue(name string, fn func()) {
	select {
	case m.commands <- fn:
	default:
		debug.Log("dispatch", "%s command dropped, queue full", name)
	}
}

// Close closes every input and both sinks
func (m *Manager) Close() error {
	var errs []error
	for _, in := range m.inputs {
		if err := in.Source.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", in.Source.ID(), err))
		}
	}
	if m.output != nil {
		if err := m.output.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close output: %w", err))
		}
	}
	if m.fbSink != nil && m.fbSink != m.output {
		if err := m.fbSink.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close feedback: %w", err))
		}
	}
	return errors.Join(errs...)
}
