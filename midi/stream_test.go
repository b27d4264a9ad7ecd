package midi

import (
	"io"
	"testing"
	"time"
)

func TestStreamSourceCloseUnblocksReader(t *testing.T) {
	r, w := io.Pipe()
	src := NewStreamSource("pipe", r)

	go w.Write([]byte{0xF8, 0xF8})
	for i := 0; i < 2; i++ {
		select {
		case frame := <-src.Frames():
			if len(frame) != 1 || frame[0] != TimingClock {
				t.Fatalf("frame = % x", frame)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("no frame")
		}
	}

	if err := src.Close(); err != nil {
		t.Fatal(err)
	}
	select {
	case _, ok := <-src.Frames():
		if ok {
			t.Fatal("frame after close")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("frames channel not closed")
	}
	if err := src.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
