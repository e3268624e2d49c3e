package tui

import (
	"fmt"
	"strings"

	"go-cvseq/sequencer"
	"go-cvseq/widgets"
)

// InputMode for text input
type InputMode int

const (
	InputNone InputMode = iota
	InputNewProject
	InputRenameProject
	InputRenameSave
)

// Browser lists projects and their saves
type Browser struct {
	store   *sequencer.ProjectStore
	manager *sequencer.Manager

	projects []string
	saves    []sequencer.SaveInfo

	projectIdx int
	saveIdx    int
	column     int // 0=projects, 1=saves

	inputMode   InputMode
	inputBuffer string

	confirmMode   bool
	confirmMsg    string
	confirmAction func() error

	// Project is the project new saves go to
	Project string
	Status  string
}

// NewBrowser creates a browser over the manager's store
func NewBrowser(manager *sequencer.Manager, project string) *Browser {
	b := &Browser{
		store:   manager.Store(),
		manager: manager,
		Project: project,
	}
	b.Refresh()
	return b
}

// IsInputMode returns true if the browser is accepting text input
func (b *Browser) IsInputMode() bool {
	return b.inputMode != InputNone || b.confirmMode
}

// Refresh reloads project and save lists
func (b *Browser) Refresh() {
	if b.store == nil {
		return
	}
	projects, err := b.store.ListProjects()
	if err != nil {
		b.Status = err.Error()
	}
	b.projects = projects

	if b.projectIdx >= len(b.projects) {
		b.projectIdx = max(0, len(b.projects)-1)
	}

	b.saves = nil
	if len(b.projects) > 0 {
		saves, err := b.store.ListSaves(b.projects[b.projectIdx])
		if err != nil {
			b.Status = err.Error()
		}
		b.saves = saves
	}

	if b.saveIdx >= len(b.saves) {
		b.saveIdx = max(0, len(b.saves)-1)
	}
}

func (b *Browser) View() string {
	var out strings.Builder

	project := "(none)"
	if b.Project != "" {
		project = b.Project
	}
	out.WriteString(fmt.Sprintf("PROJECTS  current: %s\n\n", project))

	if b.confirmMode {
		out.WriteString("─────────────────────────────────────────────────\n")
		out.WriteString(fmt.Sprintf("\n%s\n\n", b.confirmMsg))
		out.WriteString("  [y] Yes    [n] No\n")
		out.WriteString("\n─────────────────────────────────────────────────\n")
		return out.String()
	}

	if b.inputMode != InputNone {
		var label string
		switch b.inputMode {
		case InputNewProject:
			label = "New project name"
		case InputRenameProject:
			label = "Rename project to"
		case InputRenameSave:
			label = "Name this save"
		}
		out.WriteString("─────────────────────────────────────────────────\n")
		out.WriteString(fmt.Sprintf("\n%s: %s_\n", label, b.inputBuffer))
		out.WriteString("\n[enter] confirm  [esc] cancel\n")
		out.WriteString("\n─────────────────────────────────────────────────\n")
		return out.String()
	}

	out.WriteString("Projects                    Saves\n")
	out.WriteString("─────────────────────────────────────────────────\n")

	const maxRows = 12
	rows := max(min(maxRows, max(1, len(b.projects))), min(maxRows, max(1, len(b.saves))))

	for row := 0; row < rows; row++ {
		if row < len(b.projects) {
			name := b.projects[row]
			if len(name) > 20 {
				name = name[:17] + "..."
			}
			out.WriteString(fmt.Sprintf("%s%-20s", b.marker(row == b.projectIdx, 0), name))
		} else {
			out.WriteString(strings.Repeat(" ", 22))
		}

		out.WriteString("    ")

		if row < len(b.saves) {
			save := b.saves[row]
			display := save.Timestamp.Format("01-02 15:04:05")
			if save.Name != "" {
				display += " " + save.Name
			}
			if len(display) > 24 {
				display = display[:21] + "..."
			}
			out.WriteString(b.marker(row == b.saveIdx, 1) + display)
		}
		out.WriteString("\n")
	}

	if len(b.projects) == 0 {
		out.WriteString("  (no projects yet)\n")
	}

	out.WriteString("\n")
	out.WriteString(widgets.RenderKeyHelp([]widgets.KeySection{
		{Keys: []widgets.KeyBinding{
			{Key: "h / l", Desc: "switch columns"},
			{Key: "j / k", Desc: "navigate list"},
			{Key: "enter", Desc: "load selected"},
			{Key: "n", Desc: "new project"},
			{Key: "r", Desc: "rename"},
			{Key: "d", Desc: "delete"},
			{Key: "esc", Desc: "back to panel"},
		}},
	}))
	return out.String()
}

func (b *Browser) marker(selected bool, column int) string {
	switch {
	case !selected:
		return "  "
	case b.column == column:
		return "> "
	default:
		return "* "
	}
}

// HandleKey returns false when the browser should close
func (b *Browser) HandleKey(key string) bool {
	if b.confirmMode {
		switch key {
		case "y", "Y":
			if b.confirmAction != nil {
				if err := b.confirmAction(); err != nil {
					b.Status = err.Error()
				}
			}
			b.confirmMode = false
			b.confirmAction = nil
			b.Refresh()
		case "n", "N", "esc", "q":
			b.confirmMode = false
			b.confirmAction = nil
		}
		return true
	}

	if b.inputMode != InputNone {
		switch key {
		case "enter":
			b.commitInput()
		case "esc":
			b.inputMode = InputNone
			b.inputBuffer = ""
		case "backspace":
			if len(b.inputBuffer) > 0 {
				b.inputBuffer = b.inputBuffer[:len(b.inputBuffer)-1]
			}
		default:
			// printable, no path separators
			if len(key) == 1 && key[0] >= 32 && key[0] < 127 && key != "/" && key != "\\" {
				b.inputBuffer += key
			}
		}
		return true
	}

	switch key {
	case "esc", "q", "p":
		return false
	case "h", "left":
		b.column = 0
	case "l", "right":
		if len(b.projects) > 0 {
			b.column = 1
		}
	case "j", "down":
		if b.column == 0 {
			if b.projectIdx < len(b.projects)-1 {
				b.projectIdx++
				b.saveIdx = 0
				b.Refresh()
			}
		} else if b.saveIdx < len(b.saves)-1 {
			b.saveIdx++
		}
	case "k", "up":
		if b.column == 0 {
			if b.projectIdx > 0 {
				b.projectIdx--
				b.saveIdx = 0
				b.Refresh()
			}
		} else if b.saveIdx > 0 {
			b.saveIdx--
		}
	case "enter", " ":
		b.loadSelected()
	case "n":
		b.inputMode = InputNewProject
		b.inputBuffer = ""
	case "r":
		if b.column == 0 && len(b.projects) > 0 {
			b.inputMode = InputRenameProject
			b.inputBuffer = b.projects[b.projectIdx]
		} else if b.column == 1 && len(b.saves) > 0 {
			b.inputMode = InputRenameSave
			b.inputBuffer = b.saves[b.saveIdx].Name
		}
	case "d":
		b.deleteSelected()
	}
	return true
}

func (b *Browser) commitInput() {
	name := strings.TrimSpace(b.inputBuffer)
	var err error

	switch b.inputMode {
	case InputNewProject:
		if name != "" {
			if err = b.store.CreateProject(name); err == nil {
				b.Project = name
			}
		}
	case InputRenameProject:
		if name != "" && len(b.projects) > 0 {
			old := b.projects[b.projectIdx]
			if err = b.store.RenameProject(old, name); err == nil && b.Project == old {
				b.Project = name
			}
		}
	case InputRenameSave:
		// empty name removes the name
		if len(b.saves) > 0 {
			_, err = b.store.RenameSave(b.projects[b.projectIdx], b.saves[b.saveIdx].Filename, name)
		}
	}
	if err != nil {
		b.Status = err.Error()
	}

	b.inputMode = InputNone
	b.inputBuffer = ""
	b.Refresh()
}

func (b *Browser) loadSelected() {
	if len(b.projects) == 0 {
		return
	}

	project := b.projects[b.projectIdx]
	filename := ""
	if b.column == 1 && len(b.saves) > 0 {
		filename = b.saves[b.saveIdx].Filename
	}

	loaded, err := b.manager.Load(project, filename)
	if err != nil {
		b.Status = err.Error()
		return
	}
	b.Project = project
	b.Status = "loaded " + project + "/" + loaded
}

func (b *Browser) deleteSelected() {
	if b.column == 0 {
		if len(b.projects) == 0 {
			return
		}
		name := b.projects[b.projectIdx]
		b.confirmMsg = fmt.Sprintf("Delete project '%s' and all saves?", name)
		b.confirmAction = func() error {
			if b.Project == name {
				b.Project = ""
			}
			return b.store.DeleteProject(name)
		}
	} else {
		if len(b.saves) == 0 {
			return
		}
		project, save := b.projects[b.projectIdx], b.saves[b.saveIdx]
		b.confirmMsg = fmt.Sprintf("Delete save '%s'?", save.Timestamp.Format("2006-01-02 15:04:05"))
		b.confirmAction = func() error {
			return b.store.DeleteSave(project, save.Filename)
		}
	}
	b.confirmMode = true
}
