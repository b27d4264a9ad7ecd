package midi

import (
	"io"
	"sync"

	"go-looper/debug"

	"gitlab.com/gomidi/midi/v2/drivers"
)

// NewFrameReader splits a raw byte stream into frames with the parser rtmidi
// ports go through. Realtime bytes come out on their own even inside another
// message, running status is kept and SysEx is dropped.
func NewFrameReader(onFrame func(frame []byte)) *drivers.Reader {
	return drivers.NewReader(drivers.ListenConfig{
		OnErr: func(err error) {
			debug.Log("stream", "parse: %v", err)
		},
	}, func(frame []byte, _ int32) {
		onFrame(frame)
	})
}

// StreamSource frames bytes read from a character device or serial line
type StreamSource struct {
	id     string
	r      io.ReadCloser
	frames chan []byte
	done   chan struct{}
	once   sync.Once
}

// NewStreamSource starts reading r in the background
func NewStreamSource(id string, r io.ReadCloser) *StreamSource {
	s := &StreamSource{
		id:     id,
		r:      r,
		frames: make(chan []byte, frameBuffer),
		done:   make(chan struct{}),
	}
	go s.readLoop()
	return s
}

func (s *StreamSource) readLoop() {
	defer close(s.frames)

	var pending [][]byte
	reader := NewFrameReader(func(frame []byte) {
		pending = append(pending, frame)
	})

	buf := make([]byte, 64)
	for {
		n, err := s.r.Read(buf)
		pending = pending[:0]
		reader.EachMessage(buf[:n], 0)
		for _, frame := range pending {
			select {
			case s.frames <- frame:
			case <-s.done:
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				debug.Log("stream", "%s: read: %v", s.id, err)
			}
			return
		}
	}
}

func (s *StreamSource) ID() string {
	return s.id
}

func (s *StreamSource) Frames() <-chan []byte {
	return s.frames
}

// Close closes the reader; the frame channel closes once the read loop exits
func (s *StreamSource) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.r.Close()
	})
	return err
}

// StreamSink writes frames to a character device or serial line
type StreamSink struct {
	mu sync.Mutex
	w  io.WriteCloser
}

func NewStreamSink(w io.WriteCloser) *StreamSink {
	return &StreamSink{w: w}
}

func (s *StreamSink) Write(raw []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.w.Write(raw)
	return err
}

func (s *StreamSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Close()
}
