package sequencer

// TrackParams are the per-track panel controls
type TrackParams struct {
	StepCount     int
	DivisionIndex int
	Direction     Direction
}

// Params is the panel as the engine sees it at the start of a step.
// Buttons are momentary levels; the engine edge-detects them.
type Params struct {
	BPM        float64
	Swing      float64 // 0..1
	PulseWidth float64 // 0..1

	Tracks  [NumTracks]TrackParams
	Pitches [NumTracks][NumSteps]float64

	GateButtons  [NumTracks][NumSteps]bool
	SceneButtons [NumScenes]bool
	CopyButton   bool
	DeleteButton bool
	RunButton    bool
	ResetButton  bool
}

// Inputs are the jack voltages for one step
type Inputs struct {
	Clock            float64
	ClockConnected   bool
	Reset            float64
	SceneCV          float64
	SceneCVConnected bool
}

// TrackOutput is one track's pitch/gate jack pair
type TrackOutput struct {
	Pitch float64
	Gate  float64
}

// Lights mirrors every indicator on the panel (brightness 0..1)
type Lights struct {
	Run    float64
	Copy   float64
	Delete float64
	Gate   [NumTracks][NumSteps]float64
	Step   [NumTracks][NumSteps]float64
	Scene  [NumScenes][3]float64 // R copy source, G current, B has data
}

// Scene light channels
const (
	SceneLightCopy = iota
	SceneLightCurrent
	SceneLightData
)

// Outputs are the jack voltages and lights written by one step
type Outputs struct {
	Clock   float64
	Reset   float64
	SceneCV float64
	Tracks  [NumTracks]TrackOutput
	Lights  Lights
}

// DefaultParams returns the panel at power-on
func DefaultParams() Params {
	p := Params{
		BPM:        DefaultBPM,
		PulseWidth: DefaultPulseWidth,
	}
	for t := range p.Tracks {
		p.Tracks[t] = TrackParams{
			StepCount:     DefaultStepCount,
			DivisionIndex: DefaultDivision,
			Direction:     DirForward,
		}
	}
	return p
}

// LoadScene copies a scene's track settings and pitches onto the panel.
// Gates live only in the scene; gate buttons toggle them.
func (p *Params) LoadScene(sc *SceneData) {
	for t := range sc.Tracks {
		td := &sc.Tracks[t]
		p.Tracks[t] = TrackParams{
			StepCount:     td.StepCount,
			DivisionIndex: td.DivisionIndex,
			Direction:     td.Direction,
		}
		p.Pitches[t] = td.Pitches
	}
}

// ReleaseButtons lets go of every momentary button
func (p *Params) ReleaseButtons() {
	p.GateButtons = [NumTracks][NumSteps]bool{}
	p.SceneButtons = [NumScenes]bool{}
	p.CopyButton = false
	p.DeleteButton = false
	p.RunButton = false
	p.ResetButton = false
}
