package midi

// Source yields raw MIDI frames (1-3 bytes each, realtime bytes on their own).
// The channel is closed when the source fails or is closed.
type Source interface {
	ID() string
	Frames() <-chan []byte
	Close() error
}

// Sink accepts raw frames. Write may block.
type Sink interface {
	Write(raw []byte) error
	Close() error
}

// frameBuffer sizes source channels; a bar of clock alone is 96 frames
const frameBuffer = 512
