package sequencer

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"

	"go-cvseq/debug"
)

// UI refresh rate
const snapshotFPS = 30

// ChangeKind names a host-side control change
type ChangeKind int

const (
	ChangeBPM ChangeKind = iota
	ChangeSwing
	ChangePulseWidth
	ChangeStepCount
	ChangeDivision
	ChangeDirection
	ChangePitch
	ChangeGate // press a gate button
	ChangeScene
	ChangeCopy
	ChangeDelete
	ChangeRun
	ChangeReset
	ChangeSceneCV // Value < 0 unplugs the jack
	ChangeClockConnect
	ChangeClockPulse
)

// Change is one complete control update, applied between blocks.
// With Delta set, Value is added to the live panel value instead of
// replacing it.
type Change struct {
	Kind  ChangeKind
	Track int
	Step  int
	Value float64
	Delta bool
}

func (c Change) target(cur float64) float64 {
	if c.Delta {
		return cur + c.Value
	}
	return c.Value
}

// Snapshot is what the UI sees of the engine, copied at a fixed rate
type Snapshot struct {
	State     State
	Params    Params
	Inputs    Inputs
	Outputs   Outputs
	Steps     [NumTracks]int // playback position
	Committed [NumTracks]int // step on the outputs
	BPM       float64
	Samples   uint64
}

// Mode is the scene store's modal state at snapshot time
func (s *Snapshot) Mode() SceneMode {
	return s.State.SceneMode()
}

// RunnerConfig sizes the processing blocks
type RunnerConfig struct {
	SampleRate int
	BlockSize  int
}

// Manager runs an Engine in real time and brokers changes from the UI
type Manager struct {
	cfg    RunnerConfig
	engine *Engine
	in     Inputs
	out    Outputs
	store  *ProjectStore

	changes chan Change
	loads   chan *Document
	samples uint64

	mu   sync.RWMutex // guards snap
	snap Snapshot
	prev Snapshot // last published, for change logging

	// Notify TUI of updates
	UpdateChan chan struct{}
}

// NewManager creates a manager around a fresh engine
func NewManager(cfg RunnerConfig, seed uint64, store *ProjectStore) *Manager {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 48000
	}
	if cfg.BlockSize <= 0 {
		cfg.BlockSize = 64
	}
	m := &Manager{
		cfg:        cfg,
		engine:     NewEngine(seed),
		store:      store,
		changes:    make(chan Change, 256),
		loads:      make(chan *Document, 8),
		UpdateChan: make(chan struct{}, 1),
	}
	m.publish()
	m.prev = m.snap
	return m
}

// Engine exposes the engine for setup before Run starts
func (m *Manager) Engine() *Engine {
	return m.engine
}

// Send queues a change. It never blocks; a full queue drops the change.
func (m *Manager) Send(c Change) bool {
	select {
	case m.changes <- c:
		return true
	default:
		debug.Warn("manager", "change queue full, dropped kind=%d", c.Kind)
		return false
	}
}

// Run processes blocks until ctx is done
func (m *Manager) Run(ctx context.Context) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	blockDur := time.Duration(float64(time.Second) * float64(m.cfg.BlockSize) / float64(m.cfg.SampleRate))
	ticker := time.NewTicker(blockDur)
	uiTicker := time.NewTicker(time.Second / snapshotFPS)
	defer ticker.Stop()
	defer uiTicker.Stop()

	debug.Log("manager", "running: rate=%d block=%d (%v)", m.cfg.SampleRate, m.cfg.BlockSize, blockDur)

	for {
		select {
		case <-ctx.Done():
			debug.Log("manager", "stopped after %d samples", m.samples)
			return
		case doc := <-m.loads:
			m.engine.Load(doc)
		case <-ticker.C:
			m.drainChanges()
			m.processBlock()
		case <-uiTicker.C:
			m.publish()
			m.notifyUpdate()
		}
	}
}

// drainChanges applies every queued change without blocking
func (m *Manager) drainChanges() {
	for {
		select {
		case c := <-m.changes:
			m.apply(c)
		default:
			return
		}
	}
}

func (m *Manager) apply(c Change) {
	p := &m.engine.Params
	t := clampInt(c.Track, 0, NumTracks-1)
	step := clampInt(c.Step, 0, NumSteps-1)

	switch c.Kind {
	case ChangeBPM:
		p.BPM = clampFloat(c.target(p.BPM), MinBPM, MaxBPM)
	case ChangeSwing:
		p.Swing = clampFloat(c.target(p.Swing), 0, 1)
	case ChangePulseWidth:
		p.PulseWidth = clampFloat(c.target(p.PulseWidth), 0, 1)
	case ChangeStepCount:
		p.Tracks[t].StepCount = clampInt(int(c.target(float64(p.Tracks[t].StepCount))), 1, NumSteps)
	case ChangeDivision:
		p.Tracks[t].DivisionIndex = clampDivision(int(c.target(float64(p.Tracks[t].DivisionIndex))))
	case ChangeDirection:
		d := int(c.target(float64(p.Tracks[t].Direction)))
		if c.Delta {
			// stepping wraps around the modes
			d = (d%NumDirections + NumDirections) % NumDirections
		}
		p.Tracks[t].Direction = clampDirection(Direction(d))
	case ChangePitch:
		p.Pitches[t][step] = clampFloat(c.target(p.Pitches[t][step]), 0, MaxPitchVoltage)
	case ChangeGate:
		p.GateButtons[t][step] = true
	case ChangeScene:
		p.SceneButtons[clampInt(int(c.Value), 0, NumScenes-1)] = true
	case ChangeCopy:
		p.CopyButton = true
	case ChangeDelete:
		p.DeleteButton = true
	case ChangeRun:
		p.RunButton = true
	case ChangeReset:
		p.ResetButton = true
	case ChangeSceneCV:
		m.in.SceneCVConnected = c.Value >= 0
		m.in.SceneCV = c.Value
	case ChangeClockConnect:
		m.in.ClockConnected = c.Value != 0
	case ChangeClockPulse:
		m.in.Clock = GateHighVoltage
	}
}

// processBlock runs one block. Momentary buttons and clock pulses are
// held for the first sample only.
func (m *Manager) processBlock() {
	dt := 1 / float64(m.cfg.SampleRate)
	for i := 0; i < m.cfg.BlockSize; i++ {
		m.engine.Process(dt, &m.in, &m.out)
		if i == 0 {
			m.engine.Params.ReleaseButtons()
			m.in.Clock = 0
		}
	}
	m.samples += uint64(m.cfg.BlockSize)
}

// publish copies engine state for readers and logs what changed
func (m *Manager) publish() {
	var snap Snapshot
	snap.State = m.engine.state
	snap.Params = m.engine.Params
	snap.Inputs = m.in
	snap.Outputs = m.out
	for t := range m.engine.tracks {
		snap.Steps[t] = m.engine.tracks[t].CurrentStep
		snap.Committed[t] = m.engine.tracks[t].Out.CommittedStep
	}
	snap.BPM = m.engine.state.Clock.BPM()
	snap.Samples = m.samples

	m.mu.Lock()
	m.snap = snap
	m.mu.Unlock()

	m.logTransitions(&snap)
	m.prev = snap
}

func (m *Manager) logTransitions(snap *Snapshot) {
	if snap.State.CurrentScene != m.prev.State.CurrentScene {
		debug.Log("scene", "scene %d -> %d", m.prev.State.CurrentScene+1, snap.State.CurrentScene+1)
	}
	if snap.State.Running != m.prev.State.Running {
		debug.Log("clock", "running=%v bpm=%.1f", snap.State.Running, snap.BPM)
	}
	if mode, prevMode := snap.Mode(), m.prev.Mode(); mode != prevMode {
		debug.Log("scene", "mode %s -> %s", prevMode, mode)
	}
	debug.LogEvery(snapshotFPS*10, "clock", "samples=%d bpm=%.1f", snap.Samples, snap.BPM)
}

// Snapshot returns the latest published engine view
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap
}

// notifyUpdate pings the TUI without blocking
func (m *Manager) notifyUpdate() {
	select {
	case m.UpdateChan <- struct{}{}:
	default:
	}
}

// Save writes the latest snapshot of the engine to a project
func (m *Manager) Save(project, name string) (string, error) {
	if m.store == nil {
		return "", errors.New("no project store")
	}
	snap := m.Snapshot()
	filename, err := m.store.Save(project, name, &snap.State)
	if err != nil {
		debug.Warn("save", "save %s failed: %v", project, err)
		return "", err
	}
	debug.Log("save", "saved %s/%s", project, filename)
	return filename, nil
}

// Load reads a save (latest if filename is empty) and queues the parsed
// document for the running loop, which applies it onto the live state
// between blocks.
func (m *Manager) Load(project, filename string) (string, error) {
	if m.store == nil {
		return "", errors.New("no project store")
	}
	doc, loaded, err := m.store.ReadDocument(project, filename)
	if err != nil {
		debug.Warn("save", "load %s failed: %v", project, err)
		return "", err
	}

	select {
	case m.loads <- doc:
	default:
		return "", errors.Errorf("load queue full, %s/%s not loaded", project, loaded)
	}
	debug.Log("save", "loaded %s/%s", project, loaded)
	return loaded, nil
}

// Store returns the project store (may be nil)
func (m *Manager) Store() *ProjectStore {
	return m.store
}
