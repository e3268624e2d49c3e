package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"go-cvseq/sequencer"
	"go-cvseq/theme"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	store := sequencer.NewProjectStore(t.TempDir(), sequencer.FormatJSON)
	mgr := sequencer.NewManager(sequencer.RunnerConfig{}, 1, store)
	return NewModel(mgr, theme.New(theme.Plasma()), "untitled")
}

func press(t *testing.T, m Model, key string) Model {
	t.Helper()
	var msg tea.KeyMsg
	switch key {
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestViewShowsPanel(t *testing.T) {
	m := newTestModel(t)
	view := m.View()
	for _, want := range []string{"go-cvseq", "RUN", "scene:1"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestBrowserOpensAndCloses(t *testing.T) {
	m := newTestModel(t)

	m = press(t, m, "p")
	if !m.browsing || !strings.Contains(m.View(), "PROJECTS") {
		t.Fatalf("browser not shown:\n%s", m.View())
	}

	m = press(t, m, "esc")
	if m.browsing {
		t.Fatal("esc did not close the browser")
	}
}

func TestBrowserCreatesProject(t *testing.T) {
	m := newTestModel(t)
	m = press(t, m, "p")
	m = press(t, m, "n")
	for _, r := range "live set" {
		m = press(t, m, string(r))
	}
	m = press(t, m, "enter")

	if m.Project != "live set" {
		t.Fatalf("project %q", m.Project)
	}
	projects, err := m.Manager.Store().ListProjects()
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(projects) != 1 || projects[0] != "live-set" {
		t.Fatalf("projects %v", projects)
	}
}

func TestCursorWraps(t *testing.T) {
	m := newTestModel(t)
	m = press(t, m, "k")
	if m.track != sequencer.NumTracks-1 {
		t.Fatalf("track %d", m.track)
	}
	m = press(t, m, "h")
	if m.step != sequencer.NumSteps-1 {
		t.Fatalf("step %d", m.step)
	}
}

func TestQuit(t *testing.T) {
	m := newTestModel(t)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("no quit command")
	}
	if next.(Model).View() != "" {
		t.Fatal("view not cleared on quit")
	}
}

func TestRepeatedEditsAccumulate(t *testing.T) {
	m := newTestModel(t)
	for _, key := range []string{"B", "B", "B", "+", "+"} {
		m = press(t, m, key)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Manager.Run(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for {
		snap := m.Manager.Snapshot()
		if snap.Params.BPM == sequencer.DefaultBPM+3 && snap.Params.Pitches[0][0] > 0.16 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("bpm %v pitch %v after repeated keys", snap.Params.BPM, snap.Params.Pitches[0][0])
		}
		time.Sleep(10 * time.Millisecond)
	}
}
