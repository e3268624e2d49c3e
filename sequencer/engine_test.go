package sequencer

import (
	"math"
	"testing"
)

const testRate = 48000.0

// run advances the engine by n samples and counts rising edges on the
// clock output.
func run(e *Engine, in *Inputs, out *Outputs, n int) (clockEdges int) {
	dt := 1 / testRate
	prev := out.Clock
	for i := 0; i < n; i++ {
		e.Process(dt, in, out)
		if out.Clock > 0 && prev == 0 {
			clockEdges++
		}
		prev = out.Clock
	}
	return clockEdges
}

// press holds a button for one sample and releases it on the next
func press(e *Engine, in *Inputs, out *Outputs, set func(p *Params)) {
	set(&e.Params)
	run(e, in, out, 1)
	e.Params.ReleaseButtons()
	run(e, in, out, 1)
}

func seconds(s float64) int {
	return int(s * testRate)
}

func TestEngine_PowerOn(t *testing.T) {
	e := NewEngine(1)
	s := e.State()
	if s.CurrentScene != 0 || s.Scenes[0].IsEmpty || !s.Running {
		t.Fatalf("power-on state: scene=%d empty=%v running=%v", s.CurrentScene, s.Scenes[0].IsEmpty, s.Running)
	}
	for i := 1; i < NumScenes; i++ {
		if !s.Scenes[i].IsEmpty {
			t.Fatalf("scene %d should start empty", i)
		}
	}
	if e.Params.BPM != DefaultBPM || e.Params.Tracks[0].StepCount != NumSteps {
		t.Fatalf("default params: %+v", e.Params.Tracks[0])
	}
}

func TestEngine_InternalClockDrivesTracks(t *testing.T) {
	e := NewEngine(1)
	for i := range e.Params.Pitches[0] {
		e.Params.Pitches[0][i] = float64(i) / 4
	}
	var in Inputs
	var out Outputs

	// 120 BPM: ticks at 0.5 s and 1.0 s
	if edges := run(e, &in, &out, seconds(1.1)); edges != 2 {
		t.Fatalf("clock out fired %d times, want 2", edges)
	}
	for tr := 0; tr < NumTracks; tr++ {
		if e.Track(tr).CurrentStep != 2 {
			t.Fatalf("track %d on step %d, want 2", tr, e.Track(tr).CurrentStep)
		}
	}
	if out.Tracks[0].Pitch != 0.5 {
		t.Fatalf("track 0 pitch %v, want step 2 pitch", out.Tracks[0].Pitch)
	}
	if out.SceneCV != 0 {
		t.Fatalf("scene cv %v", out.SceneCV)
	}
}

func TestEngine_GateFollowsPulseWidth(t *testing.T) {
	e := NewEngine(1)
	e.Params.PulseWidth = 0.2
	var in Inputs
	var out Outputs

	run(e, &in, &out, seconds(0.5)+2) // just past the first tick
	if out.Tracks[0].Gate != GateHighVoltage {
		t.Fatal("gate should be high right after an advance")
	}
	if out.Lights.Step[0][1] != 1 {
		t.Fatalf("step light %v while gate high", out.Lights.Step[0][1])
	}
	run(e, &in, &out, seconds(0.11)) // 0.1 s gate is over
	if out.Tracks[0].Gate != 0 {
		t.Fatal("gate should have closed")
	}
	if out.Lights.Step[0][1] != 0.5 {
		t.Fatalf("step light %v after gate", out.Lights.Step[0][1])
	}
}

func TestEngine_RunButtonStops(t *testing.T) {
	e := NewEngine(1)
	e.Params.Pitches[1][0] = 2
	var in Inputs
	var out Outputs

	press(e, &in, &out, func(p *Params) { p.RunButton = true })
	if e.State().Running {
		t.Fatal("run button should stop")
	}
	if out.Lights.Run != 0 {
		t.Fatal("run light should be off")
	}
	if edges := run(e, &in, &out, seconds(2)); edges != 0 {
		t.Fatalf("clock fired %d times while stopped", edges)
	}
	// stopped: static pitch and gate of the current step
	if out.Tracks[1].Pitch != 2 || out.Tracks[1].Gate != GateHighVoltage {
		t.Fatalf("stopped output %+v", out.Tracks[1])
	}
}

func TestEngine_GateButtonToggles(t *testing.T) {
	e := NewEngine(1)
	var in Inputs
	var out Outputs

	press(e, &in, &out, func(p *Params) { p.GateButtons[2][5] = true })
	if e.State().Scene().Tracks[2].Gates[5] {
		t.Fatal("gate button should toggle the gate off")
	}
	if out.Lights.Gate[2][5] != 0.1 || out.Lights.Gate[2][4] != 1 {
		t.Fatalf("gate lights %v", out.Lights.Gate[2])
	}
	press(e, &in, &out, func(p *Params) { p.GateButtons[2][5] = true })
	if !e.State().Scene().Tracks[2].Gates[5] {
		t.Fatal("second press should toggle it back")
	}
}

func TestEngine_SceneButtonLoadsParams(t *testing.T) {
	e := NewEngine(1)
	var in Inputs
	var out Outputs

	e.Params.Pitches[0][0] = 2
	e.Params.Tracks[0].StepCount = 5
	press(e, &in, &out, func(p *Params) { p.SceneButtons[3] = true })

	s := e.State()
	if s.CurrentScene != 3 || s.Scenes[3].IsEmpty {
		t.Fatalf("scene 3 not selected: current=%d", s.CurrentScene)
	}
	if s.Scenes[3].Tracks[0].Pitches[0] != 2 || s.Scenes[3].Tracks[0].StepCount != 5 {
		t.Fatal("new scene was not initialised from the edited one")
	}

	// edits now land in scene 3 only
	e.Params.Pitches[0][0] = 4
	run(e, &in, &out, 1)
	if s.Scenes[3].Tracks[0].Pitches[0] != 4 || s.Scenes[0].Tracks[0].Pitches[0] != 2 {
		t.Fatal("edit leaked into another scene")
	}

	press(e, &in, &out, func(p *Params) { p.SceneButtons[0] = true })
	if e.Params.Pitches[0][0] != 2 {
		t.Fatalf("panel not reloaded from scene 0: %v", e.Params.Pitches[0][0])
	}
	if out.Lights.Scene[3][SceneLightData] != 0.5 || out.Lights.Scene[0][SceneLightCurrent] != 1 {
		t.Fatalf("scene lights %v", out.Lights.Scene)
	}
}

func TestEngine_CopyAndDeleteButtons(t *testing.T) {
	e := NewEngine(1)
	var in Inputs
	var out Outputs

	e.Params.Pitches[2][7] = 3
	press(e, &in, &out, func(p *Params) { p.CopyButton = true })
	if out.Lights.Copy != 1 || out.Lights.Scene[0][SceneLightCopy] != 1 {
		t.Fatal("copy lights not lit")
	}
	press(e, &in, &out, func(p *Params) { p.SceneButtons[6] = true })
	s := e.State()
	if s.CurrentScene != 6 || s.Scenes[6].Tracks != s.Scenes[0].Tracks {
		t.Fatal("copy to scene 6 failed")
	}

	press(e, &in, &out, func(p *Params) { p.DeleteButton = true })
	if out.Lights.Delete != 1 {
		t.Fatal("delete light not lit")
	}
	press(e, &in, &out, func(p *Params) { p.SceneButtons[6] = true })
	if s.CurrentScene != 0 || !s.Scenes[6].IsEmpty {
		t.Fatalf("delete of current scene: current=%d", s.CurrentScene)
	}
	if e.Params.Pitches[2][7] != 3 {
		t.Fatal("panel not reloaded from scene 0 after delete")
	}
}

func TestEngine_SceneCV(t *testing.T) {
	e := NewEngine(1)
	var in Inputs
	var out Outputs
	e.State().Copy(0, 4)
	e.State().Scenes[4].Tracks[1].Pitches[0] = 1.5

	in.SceneCV = 4.2
	run(e, &in, &out, 10)
	if e.State().CurrentScene != 0 {
		t.Fatal("unplugged scene cv must be ignored")
	}
	in.SceneCVConnected = true
	run(e, &in, &out, 1)
	if e.State().CurrentScene != 4 || e.Params.Pitches[1][0] != 1.5 {
		t.Fatalf("scene cv did not select scene 4: current=%d", e.State().CurrentScene)
	}
	in.SceneCV = 5.5 // empty scene
	run(e, &in, &out, 10)
	if e.State().CurrentScene != 4 {
		t.Fatal("scene cv selected an empty scene")
	}
	if out.SceneCV != 4 {
		t.Fatalf("scene cv out %v", out.SceneCV)
	}
}

func TestEngine_ResetInput(t *testing.T) {
	e := NewEngine(1)
	var in Inputs
	var out Outputs
	run(e, &in, &out, seconds(1.6))
	if e.Track(0).CurrentStep != 3 {
		t.Fatalf("step %d before reset", e.Track(0).CurrentStep)
	}

	in.Reset = 10
	run(e, &in, &out, 1)
	if out.Reset != GateHighVoltage {
		t.Fatal("reset out should pulse")
	}
	in.Reset = 0
	for tr := 0; tr < NumTracks; tr++ {
		if e.Track(tr).CurrentStep != 0 || e.Track(tr).Out.CommittedStep != 0 {
			t.Fatalf("track %d not reset", tr)
		}
	}
	if e.State().Clock.Phase > 1/testRate*3 {
		t.Fatalf("clock phase %v not reset", e.State().Clock.Phase)
	}

	run(e, &in, &out, seconds(0.01))
	if out.Reset != 0 {
		t.Fatal("reset pulse should be 1 ms")
	}
}

func TestEngine_ExternalClock(t *testing.T) {
	e := NewEngine(1)
	in := Inputs{ClockConnected: true}
	var out Outputs

	edges := 0
	for i := 0; i < 4; i++ {
		in.Clock = 10
		edges += run(e, &in, &out, 1)
		in.Clock = 0
		edges += run(e, &in, &out, seconds(0.2)-1)
	}
	if edges != 4 {
		t.Fatalf("clock out fired %d times, want one per input edge", edges)
	}
	if e.Track(0).CurrentStep != 4 {
		t.Fatalf("step %d, want 4", e.Track(0).CurrentStep)
	}
	if bpm := e.State().Clock.BPM(); math.Abs(bpm-300) > 0.1 {
		t.Fatalf("tracked tempo %v, want 300", bpm)
	}
}

func TestEngine_ClampsPanel(t *testing.T) {
	e := NewEngine(1)
	var in Inputs
	var out Outputs
	e.Params.Tracks[0].StepCount = 40
	e.Params.Tracks[1].DivisionIndex = -5
	e.Params.Tracks[2].Direction = Direction(17)
	e.Params.Pitches[0][0] = 12
	e.Params.Swing = 3
	run(e, &in, &out, seconds(1.1))

	sc := e.State().Scene()
	if sc.Tracks[0].StepCount != NumSteps || sc.Tracks[1].DivisionIndex != 0 || sc.Tracks[2].Direction != DirRandom {
		t.Fatalf("panel not clamped: %+v", sc.Tracks)
	}
	if sc.Tracks[0].Pitches[0] != MaxPitchVoltage {
		t.Fatalf("pitch %v not clamped", sc.Tracks[0].Pitches[0])
	}
}

func TestEngine_Load(t *testing.T) {
	e := NewEngine(1)
	var in Inputs
	var out Outputs
	run(e, &in, &out, 100)

	st := sampleState()
	st.Scenes[0].IsEmpty = true
	doc := NewDocument(st)
	loads := e.SceneLoads()
	e.Load(&doc)

	s := e.State()
	if s.CurrentScene != 3 || s.Running || s.Scenes[0].IsEmpty {
		t.Fatalf("load: current=%d running=%v", s.CurrentScene, s.Running)
	}
	if e.SceneLoads() != loads+1 {
		t.Fatal("load should reload the panel")
	}
	if e.Params.Tracks[1].DivisionIndex != 6 {
		t.Fatalf("panel division %d", e.Params.Tracks[1].DivisionIndex)
	}
	run(e, &in, &out, 1)
	if s.Scenes[3] != st.Scenes[3] {
		t.Fatal("first step after load rewrote the scene")
	}
}

func TestEngine_SwingKeepsEveryGateEdge(t *testing.T) {
	tests := []struct {
		swing, pw float64
	}{
		{0, 0.9},
		{1, 0.5},
		{1, 0.9},
		{0.6, 0.9},
		{0.3, 1},
	}
	for _, tt := range tests {
		e := NewEngine(1)
		e.Params.Swing = tt.swing
		e.Params.PulseWidth = tt.pw
		var in Inputs
		var out Outputs

		dt := 1 / testRate
		edges, commits := 0, 0
		prevGate := 0.0
		prevStep := e.Track(0).Out.CommittedStep
		for i := 0; i < seconds(4.1); i++ {
			e.Process(dt, &in, &out)
			if out.Tracks[0].Gate > 0 && prevGate == 0 {
				edges++
			}
			if c := e.Track(0).Out.CommittedStep; c != prevStep {
				commits++
				prevStep = c
			}
			prevGate = out.Tracks[0].Gate
		}
		if commits != 8 || edges != commits {
			t.Errorf("swing=%v pw=%v: %d commits, %d gate edges", tt.swing, tt.pw, commits, edges)
		}
	}
}

func TestEngine_ResetRestoresPowerOn(t *testing.T) {
	e := NewEngine(1)
	var in Inputs
	var out Outputs
	press(e, &in, &out, func(p *Params) { p.SceneButtons[2] = true })
	run(e, &in, &out, seconds(0.7))

	e.Reset()
	s := e.State()
	if s.CurrentScene != 0 || !s.Scenes[2].IsEmpty || !s.Running || e.Track(0).CurrentStep != 0 {
		t.Fatal("Reset did not restore power-on state")
	}
}

func TestEngine_ProcessDoesNotAllocate(t *testing.T) {
	e := NewEngine(1)
	e.Params.Tracks[0].Direction = DirRandom
	e.Params.Tracks[1].DivisionIndex = 7
	e.Params.Swing = 0.5
	var in Inputs
	var out Outputs
	allocs := testing.AllocsPerRun(1000, func() {
		e.Process(1/testRate, &in, &out)
	})
	if allocs != 0 {
		t.Fatalf("Process allocated %v times per call", allocs)
	}
}
