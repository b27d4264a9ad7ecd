package midi

import "testing"

type recordingControlHandler struct {
	record, play int
}

func (h *recordingControlHandler) ToggleRecord() { h.record++ }
func (h *recordingControlHandler) TogglePlay() { h.play++ }

func TestControlsMapping(t *testing.T) {
	cases := []struct {
		name         string
		msg          Message
		record, play int
	}{
		{"record button", NewMessage(0, 0xB0, 0x0B, 127), 1, 0},
		{"record button other channel", NewMessage(0, 0xB5, 0x0B, 0), 1, 0},
		{"play button", NewMessage(0, 0xB0, 0x0E, 127), 0, 1},
		{"other cc", NewMessage(0, 0xB0, 0x07, 100), 0, 0},
		{"note with record number", NewMessage(0, 0x90, 0x0B, 100), 0, 0},
		{"clock", NewMessage(0, 0xF8, -1, -1), 0, 0},
	}
	for _, tc := range cases {
		h := &recordingControlHandler{}
		NewControls(h).Process(tc.msg)
		if h.record != tc.record || h.play != tc.play {
			t.Errorf("%s: record=%d play=%d; want %d %d", tc.name, h.record, h.play, tc.record, tc.play)
		}
	}
}

func TestIsQuit(t *testing.T) {
	if !IsQuit(NewMessage(0, 0xB0, 0x40, 127)) {
		t.Error("CC 0x40 should quit")
	}
	if IsQuit(NewMessage(0, 0x90, 0x40, 127)) {
		t.Error("note 0x40 should not quit")
	}
}
