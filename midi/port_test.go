package midi

import (
	"sync"
	"testing"

	"gitlab.com/gomidi/midi/v2/drivers"
)

type fakeIn struct {
	open    bool
	config  drivers.ListenConfig
	onMsg   func(msg []byte, milliseconds int32)
	stopped int
}

func (f *fakeIn) Open() error {
	f.open = true
	return nil
}

func (f *fakeIn) Close() error {
	f.open = false
	return nil
}

func (f *fakeIn) IsOpen() bool { return f.open }
func (f *fakeIn) Number() int { return 0 }
func (f *fakeIn) String() string { return "fake in" }
func (f *fakeIn) Underlying() interface{} { return nil }

func (f *fakeIn) Listen(onMsg func(msg []byte, milliseconds int32), config drivers.ListenConfig) (func(), error) {
	f.onMsg = onMsg
	f.config = config
	return func() { f.stopped++ }, nil
}

func TestPortSourceReceivesClock(t *testing.T) {
	in := &fakeIn{}
	src, err := NewPortSource("port:fake", in)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	if !in.config.TimeCode {
		t.Fatal("listening without time code filters timing clock")
	}

	in.onMsg([]byte{TimingClock}, 0)
	in.onMsg([]byte{NoteOn, 60, 100}, 1)

	assertFrames(t, [][]byte{<-src.Frames(), <-src.Frames()}, [][]byte{{TimingClock}, {NoteOn, 60, 100}})
}

func TestPortSourceCallbackAfterClose(t *testing.T) {
	in := &fakeIn{}
	src, err := NewPortSource("port:fake", in)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 2000; i++ {
			in.onMsg([]byte{TimingClock}, 0)
		}
	}()
	src.Close()
	wg.Wait()

	// A late driver callback must not send on the closed channel
	in.onMsg([]byte{TimingClock}, 0)
	src.Close()

	if in.stopped != 1 {
		t.Fatalf("stop called %d times; want 1", in.stopped)
	}
	for range src.Frames() {
	}
}
