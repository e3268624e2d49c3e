package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-cvseq/sequencer"
	"go-cvseq/theme"
	"go-cvseq/widgets"
)

// semitone in V/oct
const semitone = 1.0 / 12

type Model struct {
	Manager  *sequencer.Manager
	Theme    *theme.Theme
	Project  string
	quitting bool
	showHelp bool
	browser  *Browser
	browsing bool
	track    int // cursor
	step     int
	status   string
}

type UpdateMsg struct{}

// statusMsg carries the result of a save/load back to the model
type statusMsg string

func NewModel(manager *sequencer.Manager, th *theme.Theme, project string) Model {
	return Model{
		Manager: manager,
		Theme:   th,
		Project: project,
		browser: NewBrowser(manager, project),
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

func (m Model) send(kind sequencer.ChangeKind, value float64) {
	m.Manager.Send(sequencer.Change{Kind: kind, Track: m.track, Step: m.step, Value: value})
}

// nudge sends a relative edit, applied against the live panel value
func (m Model) nudge(kind sequencer.ChangeKind, delta float64) {
	m.Manager.Send(sequencer.Change{Kind: kind, Track: m.track, Step: m.step, Value: delta, Delta: true})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg.String())

	case UpdateMsg:
		return m, ListenForUpdates(m.Manager)

	case statusMsg:
		m.status = string(msg)
	}

	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	if m.browsing && key != "ctrl+c" {
		m.browser.Status = ""
		m.browsing = m.browser.HandleKey(key)
		m.Project = m.browser.Project
		m.status = m.browser.Status
		return m, nil
	}

	snap := m.Manager.Snapshot()

	switch key {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "?":
		m.showHelp = !m.showHelp

	case " ":
		m.send(sequencer.ChangeRun, 0)
	case "r":
		m.send(sequencer.ChangeReset, 0)
	case "c":
		m.send(sequencer.ChangeCopy, 0)
	case "x":
		m.send(sequencer.ChangeDelete, 0)

	case "1", "2", "3", "4", "5", "6", "7", "8":
		m.send(sequencer.ChangeScene, float64(key[0]-'1'))

	case "up", "k":
		m.track = (m.track + sequencer.NumTracks - 1) % sequencer.NumTracks
	case "down", "j":
		m.track = (m.track + 1) % sequencer.NumTracks
	case "left", "h":
		m.step = (m.step + sequencer.NumSteps - 1) % sequencer.NumSteps
	case "right", "l":
		m.step = (m.step + 1) % sequencer.NumSteps

	case "enter", "g":
		m.send(sequencer.ChangeGate, 0)
	case "+", "=":
		m.nudge(sequencer.ChangePitch, semitone)
	case "-", "_":
		m.nudge(sequencer.ChangePitch, -semitone)
	case "]":
		m.nudge(sequencer.ChangePitch, 1)
	case "[":
		m.nudge(sequencer.ChangePitch, -1)

	case "s":
		m.nudge(sequencer.ChangeStepCount, -1)
	case "S":
		m.nudge(sequencer.ChangeStepCount, 1)
	case "v":
		m.nudge(sequencer.ChangeDivision, -1)
	case "V":
		m.nudge(sequencer.ChangeDivision, 1)
	case "o":
		m.nudge(sequencer.ChangeDirection, 1)

	case ",":
		m.nudge(sequencer.ChangeSwing, -0.05)
	case ".":
		m.nudge(sequencer.ChangeSwing, 0.05)
	case "<":
		m.nudge(sequencer.ChangePulseWidth, -0.05)
	case ">":
		m.nudge(sequencer.ChangePulseWidth, 0.05)
	case "b":
		m.nudge(sequencer.ChangeBPM, -1)
	case "B":
		m.nudge(sequencer.ChangeBPM, 1)

	case "e":
		m.send(sequencer.ChangeClockConnect, boolValue(!snap.Inputs.ClockConnected))
	case "t":
		m.send(sequencer.ChangeClockPulse, 0)
	case "a":
		if snap.Inputs.SceneCVConnected {
			m.send(sequencer.ChangeSceneCV, -1)
		} else {
			m.send(sequencer.ChangeSceneCV, float64(snap.State.CurrentScene))
		}
	case "A":
		if snap.Inputs.SceneCVConnected {
			m.send(sequencer.ChangeSceneCV, float64((snap.State.CurrentScene+1)%sequencer.NumScenes))
		}

	case "p":
		if m.Manager.Store() != nil {
			m.browser.Project = m.Project
			m.browser.Refresh()
			m.browsing = true
		}
	case "w":
		return m, m.save()
	case "L":
		return m, m.load()
	}

	return m, nil
}

func (m Model) save() tea.Cmd {
	mgr, project := m.Manager, m.Project
	return func() tea.Msg {
		name, err := mgr.Save(project, "")
		if err != nil {
			return statusMsg("save failed: " + err.Error())
		}
		return statusMsg("saved " + project + "/" + name)
	}
}

func (m Model) load() tea.Cmd {
	mgr, project := m.Manager, m.Project
	return func() tea.Msg {
		name, err := mgr.Load(project, "")
		if err != nil {
			return statusMsg("load failed: " + err.Error())
		}
		return statusMsg("loaded " + project + "/" + name)
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.browsing {
		return m.browser.View() + m.statusLine()
	}

	snap := m.Manager.Snapshot()
	th := m.Theme

	headerStyle := lipgloss.NewStyle().Foreground(th.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(th.Muted())
	labelStyle := lipgloss.NewStyle().Foreground(th.FG()).Width(4)

	runState := "STOP"
	if snap.State.Running {
		runState = "RUN "
	}
	clockSrc := "int"
	if snap.Inputs.ClockConnected {
		clockSrc = "ext"
	}

	header := headerStyle.Render(fmt.Sprintf("go-cvseq  %s  %6.1fbpm (%s)  swing:%3.0f%%  pw:%3.0f%%  scene:%d  %s",
		runState, snap.BPM, clockSrc, snap.Params.Swing*100, snap.Params.PulseWidth*100,
		snap.State.CurrentScene+1, snap.Mode()))

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n")

	for t := 0; t < sequencer.NumTracks; t++ {
		out.WriteString(m.trackView(&snap, t, labelStyle))
		out.WriteString("\n")
	}

	out.WriteString(m.sceneView(&snap))
	out.WriteString("\n\n")

	if m.showHelp {
		out.WriteString(widgets.RenderKeyHelp(keyHelp))
	} else {
		out.WriteString(dimStyle.Render("space:run  1-8:scene  c:copy  x:delete  r:reset  hjkl:cursor  g:gate  +/-:pitch  w:save  p:projects  ?:help  q:quit"))
	}

	out.WriteString(m.statusLine())
	return out.String()
}

func (m Model) statusLine() string {
	if m.status == "" {
		return ""
	}
	style := lipgloss.NewStyle().Foreground(m.Theme.FG()).Background(m.Theme.Muted()).Padding(0, 1)
	return "\n" + style.Render(m.status)
}

func (m Model) trackView(snap *sequencer.Snapshot, t int, labelStyle lipgloss.Style) string {
	th := m.Theme
	tp := snap.Params.Tracks[t]
	td := snap.State.Scenes[snap.State.CurrentScene].Tracks[t]
	committed := snap.Committed[t]

	cells := make([]widgets.StepCell, sequencer.NumSteps)
	for i := range cells {
		cells[i] = widgets.StepCell{
			Gate:     td.Gates[i],
			Active:   i < tp.StepCount,
			Playhead: i == committed,
			Cursor:   t == m.track && i == m.step,
			Light:    snap.Outputs.Lights.Step[t][i],
		}
	}
	sym := widgets.StepSymbols{
		GateOn:   th.Symbols.GateOn,
		GateOff:  th.Symbols.GateOff,
		Beyond:   th.Symbols.StepBeyond,
		Playhead: th.Symbols.Playhead,
	}
	grid := widgets.RenderStepRow(cells, sym,
		th.Palette.Lookup(theme.RoleActive), th.Palette.Lookup(theme.RoleMuted), th.Palette.Lookup(theme.RoleCursor))

	o := snap.Outputs.Tracks[t]
	info := fmt.Sprintf("len:%d %-3s %-8s  pitch:%5.2fV %s  gate:%s",
		tp.StepCount, sequencer.DivisionName(tp.DivisionIndex), tp.Direction,
		o.Pitch, widgets.RenderMeter(o.Pitch, sequencer.MaxPitchVoltage, 10, th.Palette.Lookup(theme.RoleAccent)),
		widgets.RenderLED(th.Palette.Lookup(theme.RoleSuccess), o.Gate/sequencer.GateHighVoltage, th.Symbols.LED))

	if t == m.track {
		info += fmt.Sprintf("  step %d: %5.2fV", m.step+1, snap.Params.Pitches[t][m.step])
	}

	lines := strings.Split(grid, "\n")
	return labelStyle.Render(fmt.Sprintf("T%d", t+1)) + lines[0] + "   " + info + "\n" +
		labelStyle.Render("") + lines[1]
}

func (m Model) sceneView(snap *sequencer.Snapshot) string {
	th := m.Theme
	l := &snap.Outputs.Lights

	var pads []string
	for i := 0; i < sequencer.NumScenes; i++ {
		sym := th.Symbols.SceneEmpty
		if !snap.State.Scenes[i].IsEmpty {
			sym = th.Symbols.Scene
		}
		pads = append(pads, widgets.RenderScenePad(fmt.Sprint(i+1), l.Scene[i], sym))
	}

	led := func(v float64) string {
		return widgets.RenderLED(th.Palette.Lookup(theme.RoleWarning), v, th.Symbols.LED)
	}
	return fmt.Sprintf("scenes %s   copy %s  delete %s  run %s   clk %s rst %s   scene cv %.0fV",
		strings.Join(pads, " "), led(l.Copy), led(l.Delete), led(l.Run),
		led(snap.Outputs.Clock/sequencer.GateHighVoltage), led(snap.Outputs.Reset/sequencer.GateHighVoltage),
		snap.Outputs.SceneCV)
}

var keyHelp = []widgets.KeySection{
	{Title: "Transport", Keys: []widgets.KeyBinding{
		{Key: "space", Desc: "run / stop"},
		{Key: "r", Desc: "reset all tracks"},
		{Key: "b / B", Desc: "tempo -/+ 1 bpm"},
		{Key: "e", Desc: "toggle external clock"},
		{Key: "t", Desc: "send one clock pulse"},
	}},
	{Title: "Scenes", Keys: []widgets.KeyBinding{
		{Key: "1-8", Desc: "select / create scene"},
		{Key: "c", Desc: "arm copy (then pick target)"},
		{Key: "x", Desc: "arm delete (then pick scene)"},
		{Key: "a / A", Desc: "scene cv on-off / next"},
	}},
	{Title: "Track", Keys: []widgets.KeyBinding{
		{Key: "hjkl", Desc: "move cursor"},
		{Key: "g", Desc: "toggle gate"},
		{Key: "+/-  [/]", Desc: "pitch semitone / octave"},
		{Key: "s / S", Desc: "steps -/+"},
		{Key: "v / V", Desc: "division -/+"},
		{Key: "o", Desc: "cycle direction"},
		{Key: ", / .", Desc: "swing -/+"},
		{Key: "< / >", Desc: "pulse width -/+"},
	}},
	{Title: "Project", Keys: []widgets.KeyBinding{
		{Key: "w", Desc: "save"},
		{Key: "L", Desc: "load latest save"},
		{Key: "p", Desc: "project browser"},
		{Key: "q", Desc: "quit"},
	}},
}
