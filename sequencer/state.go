package sequencer

const (
	NumTracks = 3
	NumSteps  = 8
	NumScenes = 8
)

// Direction is the playback order of a track
type Direction int

const (
	DirForward Direction = iota
	DirReverse
	DirPendulum
	DirRandom

	NumDirections = int(DirRandom) + 1
)

var directionNames = []string{"Forward", "Reverse", "Pendulum", "Random"}

// String returns the panel label for the direction
func (d Direction) String() string {
	return directionNames[clampDirection(d)]
}

func clampDirection(d Direction) Direction {
	if d < DirForward {
		return DirForward
	}
	if d > DirRandom {
		return DirRandom
	}
	return d
}

// Division ratios in clocks per step. Values below 1 are multiplications
// (steps per clock), e.g. 1/4 means four steps per incoming tick.
var divisionRatios = [...]float64{4, 2, 1, 1.0 / 2, 1.0 / 3, 1.0 / 4, 1.0 / 6, 1.0 / 8}

var divisionNames = []string{"/4", "/2", "x1", "x2", "x3", "x4", "x6", "x8"}

const (
	NumDivisions     = len(divisionRatios)
	DefaultDivision  = 2 // x1
	MaxPitchVoltage  = 5.0
	MaxSceneVoltage  = float64(NumScenes - 1)
	GateHighVoltage  = 10.0
	DefaultStepCount = NumSteps
)

// DivisionRatio returns the clocks-per-step ratio for a (clamped) table index
func DivisionRatio(idx int) float64 {
	return divisionRatios[clampDivision(idx)]
}

// DivisionName returns the panel label for a (clamped) table index
func DivisionName(idx int) string {
	return divisionNames[clampDivision(idx)]
}

func clampDivision(idx int) int {
	return clampInt(idx, 0, NumDivisions-1)
}

// TrackData is one track's configuration inside a scene
type TrackData struct {
	StepCount     int
	DivisionIndex int
	Direction     Direction
	Pitches       [NumSteps]float64
	Gates         [NumSteps]bool
}

// SceneData is a snapshot of all tracks
type SceneData struct {
	Tracks  [NumTracks]TrackData
	IsEmpty bool
}

// State is everything the engine persists or needs across steps.
// All fields are fixed-size values, so a plain assignment is a deep copy.
type State struct {
	Scenes       [NumScenes]SceneData
	CurrentScene int
	CopySource   int // -1 = no copy pending
	DeleteArmed  bool
	Running      bool

	Clock ClockState // runtime only
}

// NewTrackData returns the default track: 8 steps, all gates on, unity, forward
func NewTrackData() TrackData {
	t := TrackData{
		StepCount:     DefaultStepCount,
		DivisionIndex: DefaultDivision,
		Direction:     DirForward,
	}
	for i := range t.Gates {
		t.Gates[i] = true
	}
	return t
}

// NewSceneData returns an empty scene holding default tracks
func NewSceneData() SceneData {
	s := SceneData{IsEmpty: true}
	for i := range s.Tracks {
		s.Tracks[i] = NewTrackData()
	}
	return s
}

// NewState creates the power-on state: scene 0 populated, running
func NewState() *State {
	s := &State{}
	s.Init()
	return s
}

// Init restores the power-on state in place
func (s *State) Init() {
	for i := range s.Scenes {
		s.Scenes[i] = NewSceneData()
	}
	s.Scenes[0].IsEmpty = false
	s.CurrentScene = 0
	s.CopySource = -1
	s.DeleteArmed = false
	s.Running = true
	s.Clock = NewClockState()
}

// Scene returns the current scene
func (s *State) Scene() *SceneData {
	return &s.Scenes[s.CurrentScene]
}

// Track returns a track of the current scene
func (s *State) Track(t int) *TrackData {
	return &s.Scenes[s.CurrentScene].Tracks[t]
}

// Normalize clamps every index into range so the playback path never has to
func (t *TrackData) Normalize() {
	t.StepCount = clampInt(t.StepCount, 1, NumSteps)
	t.DivisionIndex = clampDivision(t.DivisionIndex)
	t.Direction = clampDirection(t.Direction)
	for i := range t.Pitches {
		t.Pitches[i] = clampFloat(t.Pitches[i], 0, MaxPitchVoltage)
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
