package sequencer

import "math/rand/v2"

// DefaultPulseWidth is the gate length as a fraction of a step
const DefaultPulseWidth = 0.5

// Engine is the whole sequencer: clock, three tracks, scene store and panel.
// Process is the only mutating entry point on the hot path; it never
// allocates, blocks or logs.
type Engine struct {
	Params Params

	state  State
	tracks [NumTracks]TrackSequencer
	rnd    *rand.Rand

	resetTrig  EdgeDetector
	resetBtn   EdgeDetector
	runBtn     EdgeDetector
	copyBtn    EdgeDetector
	deleteBtn  EdgeDetector
	sceneBtns  [NumScenes]EdgeDetector
	gateBtns   [NumTracks][NumSteps]EdgeDetector
	clockOut   PulseGenerator
	resetOut   PulseGenerator
	sceneLoads uint64
}

// NewEngine creates an engine in its power-on state. seed drives the
// random direction mode.
func NewEngine(seed uint64) *Engine {
	e := &Engine{
		rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
	e.Reset()
	return e
}

// Reset restores power-on state: scenes cleared, scene 0 populated,
// running, panel at defaults, every track on step 0.
func (e *Engine) Reset() {
	e.state.Init()
	e.Params = DefaultParams()
	e.Params.LoadScene(e.state.Scene())
	for t := range e.tracks {
		e.tracks[t] = NewTrackSequencer()
		e.tracks[t].Reset(e.state.Track(t))
	}
	e.clockOut.Clear()
	e.resetOut.Clear()
}

// State exposes the engine state. Callers must not touch it while
// Process may run.
func (e *Engine) State() *State {
	return &e.state
}

// Track exposes one track's playback state (read-only by convention)
func (e *Engine) Track(t int) *TrackSequencer {
	return &e.tracks[t]
}

// SceneLoads counts how often the panel was reloaded from a scene
func (e *Engine) SceneLoads() uint64 {
	return e.sceneLoads
}

// Load applies a decoded document onto the live state. Fields the
// document leaves out keep their current values. Clock and playback
// positions are kept; arm states are cleared.
func (e *Engine) Load(doc *Document) {
	Apply(doc, &e.state)
	e.state.CopySource = -1
	e.state.DeleteArmed = false
	e.loadScene()
}

// Process runs the engine for one time step of dt seconds
func (e *Engine) Process(dt float64, in *Inputs, out *Outputs) {
	s := &e.state

	e.writeParams()

	resetIn := e.resetTrig.Process(in.Reset)
	resetPressed := e.resetBtn.ProcessBool(e.Params.ResetButton)
	if resetIn || resetPressed {
		e.resetTracks()
	}

	if in.SceneCVConnected && s.SelectByCV(in.SceneCV) {
		e.loadScene()
	}
	for i := range e.sceneBtns {
		if e.sceneBtns[i].ProcessBool(e.Params.SceneButtons[i]) && s.TapScene(i) {
			e.loadScene()
		}
	}
	if e.copyBtn.ProcessBool(e.Params.CopyButton) {
		s.TapCopy()
	}
	if e.deleteBtn.ProcessBool(e.Params.DeleteButton) {
		s.TapDelete()
	}
	if e.runBtn.ProcessBool(e.Params.RunButton) {
		s.Running = !s.Running
	}

	tick := s.Clock.Process(dt, s.Running, in.ClockConnected, e.Params.BPM, in.Clock)
	if tick {
		e.clockOut.Trigger(TriggerPulseLength)
	}

	period := s.Clock.TickPeriod()
	scene := s.Scene()
	swing := clampFloat(e.Params.Swing, 0, 1)
	pw := clampFloat(e.Params.PulseWidth, 0, 1)
	for t := range e.tracks {
		e.tracks[t].Process(dt, tick, s.Running, period, &scene.Tracks[t], swing, pw, e.rnd)
	}

	e.writeOutputs(dt, out)
}

// writeParams copies the panel into the current scene
func (e *Engine) writeParams() {
	scene := e.state.Scene()
	for t := range scene.Tracks {
		td := &scene.Tracks[t]
		tp := &e.Params.Tracks[t]
		td.StepCount = tp.StepCount
		td.DivisionIndex = tp.DivisionIndex
		td.Direction = tp.Direction
		td.Pitches = e.Params.Pitches[t]
		td.Normalize()

		for i := range td.Gates {
			if e.gateBtns[t][i].ProcessBool(e.Params.GateButtons[t][i]) {
				td.Gates[i] = !td.Gates[i]
			}
		}
	}
}

// loadScene pushes the current scene back onto the panel so the next
// writeParams does not overwrite it with the old scene's knobs.
func (e *Engine) loadScene() {
	e.Params.LoadScene(e.state.Scene())
	e.sceneLoads++
}

func (e *Engine) resetTracks() {
	for t := range e.tracks {
		e.tracks[t].Reset(e.state.Track(t))
	}
	e.state.Clock.ResetPhase()
	e.resetOut.Trigger(TriggerPulseLength)
}

func (e *Engine) writeOutputs(dt float64, out *Outputs) {
	s := &e.state
	scene := s.Scene()

	out.Clock = volts(e.clockOut.Process(dt))
	out.Reset = volts(e.resetOut.Process(dt))
	out.SceneCV = float64(s.CurrentScene)

	for t := range e.tracks {
		ts := &e.tracks[t]
		td := &scene.Tracks[t]
		gateHigh := ts.Out.ProcessGate(dt)

		if s.Running {
			out.Tracks[t] = TrackOutput{Pitch: ts.Out.CommittedPitch, Gate: volts(gateHigh)}
		} else {
			out.Tracks[t] = TrackOutput{Pitch: td.Pitches[ts.CurrentStep], Gate: volts(td.Gates[ts.CurrentStep])}
		}

		for i := 0; i < NumSteps; i++ {
			out.Lights.Gate[t][i] = 0.1
			if td.Gates[i] {
				out.Lights.Gate[t][i] = 1
			}
			out.Lights.Step[t][i] = 0
		}
		if c := ts.Out.CommittedStep; c < td.StepCount {
			out.Lights.Step[t][c] = 0.5
			if gateHigh {
				out.Lights.Step[t][c] = 1
			}
		}
	}

	writeSceneLights(s, &out.Lights)
}

func writeSceneLights(s *State, l *Lights) {
	for i := range s.Scenes {
		l.Scene[i][SceneLightCopy] = boolLight(i == s.CopySource, 1, 0)
		l.Scene[i][SceneLightCurrent] = boolLight(i == s.CurrentScene, 1, 0)
		l.Scene[i][SceneLightData] = boolLight(!s.Scenes[i].IsEmpty, 0.5, 0.1)
	}
	l.Copy = boolLight(s.CopySource >= 0, 1, 0)
	l.Delete = boolLight(s.DeleteArmed, 1, 0)
	l.Run = boolLight(s.Running, 1, 0)
}

func boolLight(on bool, hi, lo float64) float64 {
	if on {
		return hi
	}
	return lo
}

func volts(high bool) float64 {
	if high {
		return GateHighVoltage
	}
	return 0
}
