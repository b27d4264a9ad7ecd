package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-looper/sequencer"
	"go-looper/theme"
	"go-looper/widgets"
)

// stepsPerBar is the resolution of the bar strip (sixteenth notes)
const stepsPerBar = 16

type Model struct {
	Manager  *sequencer.Manager
	Theme    *theme.Theme
	quitting bool
	err      error
}

type UpdateMsg struct{}

// DoneMsg tells the UI the looper stopped running
type DoneMsg struct {
	Err error
}

func NewModel(manager *sequencer.Manager, th *theme.Theme) Model {
	return Model{
		Manager: manager,
		Theme:   th,
	}
}

func ListenForUpdates(manager *sequencer.Manager) tea.Cmd {
	return func() tea.Msg {
		<-manager.UpdateChan
		return UpdateMsg{}
	}
}

func (m Model) Init() tea.Cmd {
	return ListenForUpdates(m.Manager)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "r":
			m.Manager.ToggleRecording()

		case "p", " ":
			m.Manager.TogglePlayback()

		case "t":
			m.Manager.ToggleThru()
		}

	case UpdateMsg:
		return m, ListenForUpdates(m.Manager)

	case DoneMsg:
		m.quitting = true
		m.err = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

// Err returns why the looper stopped, if it stopped on its own
func (m Model) Err() error {
	return m.err
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	st := m.Manager.Status()

	// Styles
	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	stateStyle := lipgloss.NewStyle().Bold(true).Foreground(m.stateColor(st.State))
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())

	transport := "STOP"
	if st.Transport {
		transport = "RUN"
	}

	loop := "no loop"
	if st.LoopLen > 0 {
		loop = fmt.Sprintf("loop %d bars (%d ticks)", st.Bars(), st.LoopLen)
	}

	header := headerStyle.Render(fmt.Sprintf("go-looper  %s  bar %d.%d  %s",
		transport, st.Tick/sequencer.BarLength+1, st.Tick%sequencer.BarLength/24+1, loop))

	state := stateStyle.Render(st.State.String())
	lamps := m.lamp("REC", st.State.Recording()) + "  " + m.lamp("PLAY", st.State == sequencer.StatePlay)

	thru := "off"
	if st.Thru {
		thru = "on"
	}
	info := dimStyle.Render(fmt.Sprintf("clock %d  rec start %d  events %d  pending %d/%d  thru %s  sources %d",
		st.Clock, st.RecStart, st.Events, st.PendingStart, st.PendingEnd, thru, st.Sources))

	legend := dimStyle.Render(strings.Join([]string{
		widgets.RenderLegendItem(widgets.Pad{Color: m.Theme.RGB(stateRole(st.State)), Symbol: m.Theme.Symbols.StepPlayhead}, "playhead", "last tick played"),
		widgets.RenderLegendItem(widgets.Pad{Color: m.Theme.RGB(theme.RoleMuted), Symbol: m.Theme.Symbols.StepWindow}, "sync", "record lands on this bar line"),
	}, "\n"))

	help := dimStyle.Render(widgets.RenderKeyHelp([]widgets.KeySection{{
		Title: "keys",
		Keys: []widgets.KeyBinding{
			{Key: "r", Desc: "toggle record"},
			{Key: "p / space", Desc: "toggle play"},
			{Key: "t", Desc: "toggle thru"},
			{Key: "q", Desc: "quit"},
		},
	}}))

	// Build output
	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")
	out.WriteString(state)
	out.WriteString("   ")
	out.WriteString(lamps)
	out.WriteString("\n\n")
	out.WriteString(widgets.RenderPadRow(m.barStrip(st), 4))
	out.WriteString("\n")
	out.WriteString(legend)
	out.WriteString("\n\n")
	out.WriteString(info)
	out.WriteString("\n\n")
	out.WriteString(help)

	return out.String()
}

// barStrip renders the position of the sequencer clock within the bar
func (m Model) barStrip(st sequencer.Status) []widgets.Pad {
	sym := m.Theme.Symbols
	current := currentStep(st.Clock)
	stateRGB := m.Theme.RGB(stateRole(st.State))
	muted := m.Theme.RGB(theme.RoleMuted)
	surface := m.Theme.RGB(theme.RoleSurface)

	pads := make([]widgets.Pad, stepsPerBar)
	for i := range pads {
		switch {
		case i == current:
			pads[i] = widgets.Pad{Color: stateRGB, Symbol: sym.StepPlayhead}
		case i < current:
			pads[i] = widgets.Pad{Color: stateRGB, Symbol: sym.StepPassed}
		case inSyncWindow(i):
			pads[i] = widgets.Pad{Color: muted, Symbol: sym.StepWindow}
		default:
			pads[i] = widgets.Pad{Color: surface, Symbol: sym.StepEmpty}
		}
	}
	return pads
}

// currentStep is the strip step of the last tick the sequencer played
func currentStep(clock uint64) int {
	if clock == 0 {
		return -1
	}
	pos := (clock - 1) % sequencer.BarLength
	return int(pos * stepsPerBar / sequencer.BarLength)
}

// inSyncWindow reports whether a strip step overlaps the ticks where notes
// are kept aside for a record request landing on the bar line
func inSyncWindow(step int) bool {
	ticksPerStep := sequencer.BarLength / stepsPerBar
	first := uint64(step * ticksPerStep)
	last := first + uint64(ticksPerStep) - 1
	return first < sequencer.SyncThreshold || sequencer.BarLength-last < 2*sequencer.SyncThreshold
}

func (m Model) lamp(name string, on bool) string {
	sym, color := m.Theme.Symbols.LampOff, m.Theme.Muted()
	if on {
		sym, color = m.Theme.Symbols.LampOn, m.Theme.Active()
	}
	return lipgloss.NewStyle().Foreground(color).Render(fmt.Sprintf("%c %s", sym, name))
}

func (m Model) stateColor(s sequencer.State) lipgloss.Color {
	switch {
	case s.Recording():
		return m.Theme.Active()
	case s == sequencer.StatePlay:
		return m.Theme.Success()
	case s.Waiting():
		return m.Theme.Warning()
	}
	return m.Theme.FG()
}

func stateRole(s sequencer.State) float64 {
	switch {
	case s.Recording():
		return theme.RoleActive
	case s == sequencer.StatePlay:
		return theme.RoleSuccess
	case s.Waiting():
		return theme.RoleWarning
	}
	return theme.RoleFG
}
