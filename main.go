package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"go-cvseq/config"
	"go-cvseq/debug"
	"go-cvseq/sequencer"
	"go-cvseq/theme"
	"go-cvseq/tui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if cfg.Debug.Enabled {
		if path, err := cfg.DebugPath(); err == nil {
			if err := debug.Enable(path, cfg.Debug.Level); err != nil {
				fmt.Printf("debug log disabled: %v\n", err)
			}
		}
		defer debug.Disable()
	}

	palette, err := theme.LoadOrDefault(cfg.UI.Palette)
	if err != nil {
		debug.Warn("theme", "using built-in palette: %v", err)
	}
	th := theme.New(palette)

	projectsDir, err := cfg.ProjectsDir()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	store := sequencer.NewProjectStore(projectsDir, sequencer.ParseFormat(cfg.Storage.Format))

	manager := sequencer.NewManager(sequencer.RunnerConfig{
		SampleRate: cfg.Engine.SampleRate,
		BlockSize:  cfg.Engine.BlockSize,
	}, cfg.Engine.Seed, store)

	// Power-on panel from config
	p := &manager.Engine().Params
	p.BPM = cfg.Engine.BPM
	p.Swing = cfg.Engine.Swing
	p.PulseWidth = cfg.Engine.PulseWidth

	project := cfg.UI.LastProject
	if cfg.Storage.Autosave && project != "" {
		if name, err := manager.Load(project, ""); err == nil {
			debug.Log("main", "restored %s/%s", project, name)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go manager.Run(ctx)

	m := tui.NewModel(manager, th, project)
	prog := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := prog.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if cfg.Storage.Autosave {
		if _, err := manager.Save(project, "autosave"); err != nil {
			fmt.Printf("autosave failed: %v\n", err)
		}
	}
}
