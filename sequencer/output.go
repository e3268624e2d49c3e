package sequencer

// Commit timing limits (seconds)
const (
	SwingThreshold = 0.001
	MinGateLength  = 0.001
	MaxGateFactor  = 0.95
)

// PendingCommit is a swing-deferred commit waiting for its deadline
type PendingCommit struct {
	Active    bool
	Step      int
	Remaining float64
	StepDur   float64
}

// OutputSync holds what a track is actually sounding. Pitch, gate and the
// active-step light all follow the committed step, never the raw playhead.
type OutputSync struct {
	CommittedStep  int
	CommittedPitch float64
	Pending        PendingCommit

	gate PulseGenerator
	high bool // gate level on the last sample

	// length of a pulse waiting out its one-sample low gap
	retrigger float64
}

// Reset commits step 0 and drops anything in flight
func (o *OutputSync) Reset(t *TrackData) {
	o.Pending = PendingCommit{}
	o.gate.Clear()
	o.retrigger = 0
	o.high = false
	o.CommittedStep = 0
	o.CommittedPitch = t.Pitches[0]
}

// Schedule handles one advance event landing on step. A previous deferred
// commit is flushed first so every advance commits exactly once.
func (o *OutputSync) Schedule(step int, delay, stepDur float64, t *TrackData, pulseWidth float64) {
	if o.Pending.Active {
		o.Pending.Active = false
		o.commit(o.Pending.Step, o.Pending.StepDur, t, pulseWidth)
	}
	if t.Gates[step] && delay > SwingThreshold {
		o.Pending = PendingCommit{Active: true, Step: step, Remaining: delay, StepDur: stepDur}
		return
	}
	o.commit(step, stepDur, t, pulseWidth)
}

// Advance counts down a deferred commit and fires it at its deadline
func (o *OutputSync) Advance(dt float64, t *TrackData, pulseWidth float64) {
	if !o.Pending.Active {
		return
	}
	o.Pending.Remaining -= dt
	if o.Pending.Remaining <= 0 {
		o.Pending.Active = false
		o.commit(o.Pending.Step, o.Pending.StepDur, t, pulseWidth)
	}
}

func (o *OutputSync) commit(step int, stepDur float64, t *TrackData, pulseWidth float64) {
	o.CommittedStep = step
	o.CommittedPitch = t.Pitches[step]
	if !t.Gates[step] {
		return
	}
	length := GateLength(stepDur, pulseWidth)
	if o.high || o.gate.Active() || o.retrigger > 0 {
		o.gate.Clear()
		o.retrigger = length
		return
	}
	o.gate.Trigger(length)
}

// ProcessGate advances the gate pulse and reports whether it is high.
// A commit that lands while the gate is high holds it low for one sample
// so each commit produces its own rising edge.
func (o *OutputSync) ProcessGate(dt float64) bool {
	if o.retrigger > 0 {
		o.gate.Trigger(o.retrigger)
		o.retrigger = 0
		o.high = false
		return false
	}
	o.high = o.gate.Process(dt)
	return o.high
}

// GateActive reports whether a gate pulse is in flight
func (o *OutputSync) GateActive() bool {
	return o.gate.Active() || o.retrigger > 0
}

// GateLength is the pulse-width fraction of a step, kept audible and
// short of the next step.
func GateLength(stepDur, pulseWidth float64) float64 {
	g := stepDur * pulseWidth
	if hi := stepDur * MaxGateFactor; g > hi {
		g = hi
	}
	if g < MinGateLength {
		g = MinGateLength
	}
	return g
}
