package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"go-looper/sequencer"
	"go-looper/theme"
)

func TestCurrentStep(t *testing.T) {
	cases := map[uint64]int{
		0:   -1,
		1:   0,
		6:   0,
		7:   1,
		96:  15,
		97:  0,
		145: 8,
	}
	for clock, want := range cases {
		if got := currentStep(clock); got != want {
			t.Errorf("currentStep(%d) = %d; want %d", clock, got, want)
		}
	}
}

func TestInSyncWindow(t *testing.T) {
	want := map[int]bool{0: true, 1: true, 2: false, 7: false, 12: false, 13: true, 15: true}
	for step, w := range want {
		if got := inSyncWindow(step); got != w {
			t.Errorf("inSyncWindow(%d) = %v; want %v", step, got, w)
		}
	}
}

func TestViewShowsState(t *testing.T) {
	m := NewModel(sequencer.NewManager(sequencer.Options{}), theme.New(theme.Default()))
	view := m.View()
	for _, want := range []string{"IDLE", "no loop", "REC", "PLAY"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestDoneMsgQuits(t *testing.T) {
	m := NewModel(sequencer.NewManager(sequencer.Options{}), theme.New(theme.Default()))
	next, cmd := m.Update(DoneMsg{Err: sequencer.ErrQuit})
	if cmd == nil {
		t.Fatal("DoneMsg did not quit")
	}
	if next.(Model).Err() != sequencer.ErrQuit {
		t.Fatalf("Err() = %v", next.(Model).Err())
	}
	if next.View() != "" {
		t.Fatal("view not cleared after quit")
	}
}

func TestKeysQueueCommands(t *testing.T) {
	mgr := sequencer.NewManager(sequencer.Options{})
	m := NewModel(mgr, theme.New(theme.Default()))

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}); cmd == nil {
		t.Fatal("q did not quit")
	}
	// Commands only run inside Manager.Run; the sequencer is untouched
	if mgr.Status().State != sequencer.StateIdle {
		t.Fatalf("state changed outside Run: %s", mgr.Status().State)
	}
}
