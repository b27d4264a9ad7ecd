package midi

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"go-looper/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"go.bug.st/serial"
)

// ErrBadEndpoint is returned for endpoint descriptors that cannot be parsed
var ErrBadEndpoint = errors.New("bad endpoint")

// EndpointKind identifies how an endpoint is reached
type EndpointKind string

const (
	EndpointPort   EndpointKind = "port"   // rtmidi port, matched by name
	EndpointDevice EndpointKind = "dev"    // raw MIDI character device
	EndpointCard   EndpointKind = "card"   // ALSA card name, resolved to its raw device
	EndpointSerial EndpointKind = "serial" // serial line carrying MIDI bytes
)

// DefaultSerialBaud is the DIN MIDI baud rate
const DefaultSerialBaud = 31250

// CardsPath lists the ALSA sound cards
var CardsPath = "/proc/asound/cards"

// Endpoint is a parsed "kind:target" descriptor
type Endpoint struct {
	Kind   EndpointKind
	Target string
	Baud   int // serial only
}

// ParseEndpoint parses descriptors like "port:Launchpad", "dev:/dev/snd/midiC1D0",
// "card:Interface" or "serial:/dev/ttyUSB0@31250".
func ParseEndpoint(desc string) (Endpoint, error) {
	kind, target, ok := strings.Cut(strings.TrimSpace(desc), ":")
	if !ok || target == "" {
		return Endpoint{}, fmt.Errorf("%w: %q", ErrBadEndpoint, desc)
	}
	e := Endpoint{Kind: EndpointKind(kind), Target: target}
	switch e.Kind {
	case EndpointPort, EndpointDevice, EndpointCard:
	case EndpointSerial:
		e.Baud = DefaultSerialBaud
		if path, baud, ok := strings.Cut(target, "@"); ok {
			n, err := strconv.Atoi(baud)
			if err != nil || n <= 0 {
				return Endpoint{}, fmt.Errorf("%w: baud %q", ErrBadEndpoint, baud)
			}
			e.Target = path
			e.Baud = n
		}
	default:
		return Endpoint{}, fmt.Errorf("%w: unknown kind %q", ErrBadEndpoint, kind)
	}
	return e, nil
}

func (e Endpoint) String() string {
	if e.Kind == EndpointSerial {
		return fmt.Sprintf("%s:%s@%d", e.Kind, e.Target, e.Baud)
	}
	return fmt.Sprintf("%s:%s", e.Kind, e.Target)
}

// ResolveCard finds the raw MIDI device of the first card whose
// /proc/asound/cards line contains name.
func ResolveCard(cards io.Reader, name string) (string, error) {
	scanner := bufio.NewScanner(cards)
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		num, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		if containsCI(line, name) {
			return fmt.Sprintf("/dev/snd/midiC%dD0", num), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("sound card %q not found", name)
}

func resolveCardPath(name string) (string, error) {
	f, err := os.Open(CardsPath)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return ResolveCard(f, name)
}

// Opener opens endpoints. A serial line used both ways is opened once.
type Opener struct {
	mu     sync.Mutex
	serial map[string]*sharedSerial
}

func NewOpener() *Opener {
	return &Opener{serial: make(map[string]*sharedSerial)}
}

// OpenSource opens desc for reading
func (o *Opener) OpenSource(desc string) (Source, error) {
	e, err := ParseEndpoint(desc)
	if err != nil {
		return nil, err
	}
	switch e.Kind {
	case EndpointPort:
		in, err := findInPort(e.Target)
		if err != nil {
			return nil, err
		}
		return NewPortSource(e.String(), in)
	case EndpointSerial:
		port, err := o.openSerial(e)
		if err != nil {
			return nil, err
		}
		return NewStreamSource(e.String(), port), nil
	}
	path, err := devicePath(e)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	debug.Log("stream", "opened %s for reading (%s)", path, e)
	return NewStreamSource(e.String(), f), nil
}

// OpenSink opens desc for writing
func (o *Opener) OpenSink(desc string) (Sink, error) {
	e, err := ParseEndpoint(desc)
	if err != nil {
		return nil, err
	}
	switch e.Kind {
	case EndpointPort:
		out, err := findOutPort(e.Target)
		if err != nil {
			return nil, err
		}
		return NewPortSink(out)
	case EndpointSerial:
		port, err := o.openSerial(e)
		if err != nil {
			return nil, err
		}
		return NewStreamSink(port), nil
	}
	path, err := devicePath(e)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	debug.Log("stream", "opened %s for writing (%s)", path, e)
	return NewStreamSink(f), nil
}

func devicePath(e Endpoint) (string, error) {
	if e.Kind == EndpointCard {
		return resolveCardPath(e.Target)
	}
	return e.Target, nil
}

// sharedSerial closes the underlying port when its last user closes it
type sharedSerial struct {
	opener *Opener
	key    string
	port   serial.Port
	refs   int
}

func (o *Opener) openSerial(e Endpoint) (*sharedSerial, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if s, ok := o.serial[e.Target]; ok {
		s.refs++
		return s, nil
	}
	port, err := serial.Open(e.Target, &serial.Mode{BaudRate: e.Baud})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", e.Target, err)
	}
	debug.Log("serial", "opened %s at %d baud", e.Target, e.Baud)
	s := &sharedSerial{opener: o, key: e.Target, port: port, refs: 1}
	o.serial[e.Target] = s
	return s, nil
}

func (s *sharedSerial) Read(p []byte) (int, error) {
	return s.port.Read(p)
}

func (s *sharedSerial) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *sharedSerial) Close() error {
	s.opener.mu.Lock()
	defer s.opener.mu.Unlock()

	s.refs--
	if s.refs > 0 {
		return nil
	}
	delete(s.opener.serial, s.key)
	debug.Log("serial", "closing %s", s.key)
	return s.port.Close()
}

// ListPorts returns the driver's input and output port names.
// Port enumeration can hang on CoreMIDI, so it gives up after timeout.
func ListPorts(timeout time.Duration) (ins, outs []string, err error) {
	type portsResult struct {
		inPorts  []drivers.In
		outPorts []drivers.Out
	}

	ch := make(chan portsResult, 1)
	go func() {
		ch <- portsResult{inPorts: gomidi.GetInPorts(), outPorts: gomidi.GetOutPorts()}
	}()

	select {
	case result := <-ch:
		for _, p := range result.inPorts {
			ins = append(ins, p.String())
		}
		for _, p := range result.outPorts {
			outs = append(outs, p.String())
		}
		return ins, outs, nil
	case <-time.After(timeout):
		return nil, nil, fmt.Errorf("listing ports timed out after %s", timeout)
	}
}

// ListSerialPorts returns the serial lines available for serial endpoints
func ListSerialPorts() ([]string, error) {
	return serial.GetPortsList()
}
