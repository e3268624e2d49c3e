package sequencer

// Clock timing limits (seconds)
const (
	DefaultClockPeriod = 0.5 // 120 BPM
	MinClockPeriod     = 0.001
	MinExternalPeriod  = 0.01
	MaxExternalPeriod  = 4.0
	TriggerPulseLength = 0.001

	MinBPM     = 30.0
	MaxBPM     = 300.0
	DefaultBPM = 120.0
)

// ClockState acquires the master clock: self-generated from a BPM or
// derived from external rising edges, with a running period estimate.
type ClockState struct {
	Phase    float64 // internal clock phase 0..1
	Period   float64 // last accepted period estimate
	Elapsed  float64 // seconds since power-on
	LastRise float64
	HasRise  bool

	trigger EdgeDetector
}

// NewClockState returns a clock with the safe default period
func NewClockState() ClockState {
	return ClockState{Period: DefaultClockPeriod}
}

// Process advances the clock by dt and reports whether a tick occurred.
// external selects the edge-derived mode; voltage is the raw clock jack.
// No ticks are emitted while stopped, though edges are still tracked so
// the period estimate stays warm and no stale edge fires on restart.
func (c *ClockState) Process(dt float64, running, external bool, bpm, voltage float64) bool {
	c.Elapsed += dt

	if external {
		if !c.trigger.Process(voltage) {
			return false
		}
		if c.HasRise {
			delta := c.Elapsed - c.LastRise
			if delta >= MinExternalPeriod && delta <= MaxExternalPeriod {
				c.Period = delta
			}
		}
		c.LastRise = c.Elapsed
		c.HasRise = true
		return running
	}

	bpm = clampFloat(bpm, MinBPM, MaxBPM)
	c.Period = 60 / bpm
	if !running {
		return false
	}
	c.Phase += bpm / 60 * dt
	if c.Phase >= 1 {
		c.Phase -= 1
		return true
	}
	return false
}

// TickPeriod is the period estimate with a floor, safe to divide by
func (c *ClockState) TickPeriod() float64 {
	if c.Period < MinClockPeriod {
		return MinClockPeriod
	}
	return c.Period
}

// ResetPhase restarts the internal clock cycle
func (c *ClockState) ResetPhase() {
	c.Phase = 0
}

// BPM returns the period estimate expressed as beats per minute
func (c *ClockState) BPM() float64 {
	return 60 / c.TickPeriod()
}
