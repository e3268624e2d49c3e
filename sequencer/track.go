package sequencer

import "math"

// trackMode is the timing state of a track between ticks
type trackMode int

const (
	modeIdle trackMode = iota
	modeDivision
	modeSubdivide
)

// TrackSequencer turns master ticks into step advances for one track.
// It owns only its own playback state; the TrackData it plays is passed
// in on every call so a scene switch simply re-points it.
type TrackSequencer struct {
	CurrentStep int
	Pendulum    int     // +1 / -1
	ClockPhase  float64 // division accumulator
	SubPhase    float64 // seconds since the tick that opened the subdivision
	SubIndex    int     // last emitted sub-step
	SubSteps    int     // sub-steps for the tick in flight
	StepParity  int     // 0/1, flips every advance

	mode trackMode
	Out  OutputSync
}

// NewTrackSequencer returns a track parked on step 0
func NewTrackSequencer() TrackSequencer {
	return TrackSequencer{Pendulum: 1}
}

// Reset parks the track on step 0 and forgets all timing state
func (s *TrackSequencer) Reset(t *TrackData) {
	s.CurrentStep = 0
	s.Pendulum = 1
	s.ClockPhase = 0
	s.SubPhase = 0
	s.SubIndex = 0
	s.SubSteps = 0
	s.StepParity = 0
	s.mode = modeIdle
	s.Out.Reset(t)
}

// Process runs one time step for the track. tick is the master clock edge,
// period the current tick period estimate. Returns true if the track advanced.
func (s *TrackSequencer) Process(dt float64, tick, running bool, period float64, t *TrackData, swing, pulseWidth float64, rnd Intner) bool {
	if s.CurrentStep >= t.StepCount {
		s.CurrentStep = t.StepCount - 1
	}
	if period < MinClockPeriod {
		period = MinClockPeriod
	}

	s.Out.Advance(dt, t, pulseWidth)

	if !running {
		s.mode = modeIdle
		return false
	}
	if !s.advanceDue(dt, tick, period, t) {
		return false
	}

	s.CurrentStep, s.Pendulum = NextStep(t.Direction, s.CurrentStep, t.StepCount, s.Pendulum, rnd)
	s.StepParity ^= 1

	stepDur := StepDuration(period, t.DivisionIndex)
	delay := SwingDelay(s.StepParity, swing, stepDur)
	s.Out.Schedule(s.CurrentStep, delay, stepDur, t, pulseWidth)
	return true
}

// advanceDue decides whether this time step carries an advance event.
// The ratio is re-read on every tick so a division change lands on the
// next tick boundary.
func (s *TrackSequencer) advanceDue(dt float64, tick bool, period float64, t *TrackData) bool {
	if tick {
		r := DivisionRatio(t.DivisionIndex)
		if r >= 1 {
			s.mode = modeDivision
			s.ClockPhase += 1 / r
			if s.ClockPhase >= 1 {
				s.ClockPhase -= 1
				return true
			}
			return false
		}
		s.mode = modeSubdivide
		s.SubSteps = int(math.Round(1 / r))
		s.SubPhase = 0
		s.SubIndex = 0
		return true
	}

	if s.mode != modeSubdivide {
		return false
	}
	s.SubPhase += dt
	subDur := period / float64(s.SubSteps)
	expected := int(s.SubPhase / subDur)
	if expected > s.SubSteps-1 {
		expected = s.SubSteps - 1
	}
	if expected <= s.SubIndex {
		return false
	}
	s.SubIndex = expected
	if s.SubIndex == s.SubSteps-1 {
		s.mode = modeIdle
	}
	return true
}

// StepDuration is the length of one step of a track at the given tick period
func StepDuration(period float64, divisionIndex int) float64 {
	r := DivisionRatio(divisionIndex)
	if r >= 1 {
		return period * r
	}
	return period / math.Round(1/r)
}

// SwingDelay is how late an advance commits: odd-parity steps only,
// at most half a step at full swing.
func SwingDelay(parity int, swing, stepDur float64) float64 {
	if parity != 1 || swing <= 0 {
		return 0
	}
	return stepDur * clampFloat(swing, 0, 1) * 0.5
}
