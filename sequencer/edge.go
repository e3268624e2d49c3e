package sequencer

// Trigger thresholds for jack inputs (volts)
const (
	TriggerOnVoltage  = 1.0
	TriggerOffVoltage = 0.0
)

// EdgeDetector turns a sampled level into rising-edge events.
// One instance per physical input or button; it remembers the previous level.
type EdgeDetector struct {
	high bool
}

// Process takes a voltage with hysteresis and reports a rising edge
func (e *EdgeDetector) Process(v float64) bool {
	if e.high {
		if v <= TriggerOffVoltage {
			e.high = false
		}
		return false
	}
	if v >= TriggerOnVoltage {
		e.high = true
		return true
	}
	return false
}

// ProcessBool is Process for buttons that are already a boolean level
func (e *EdgeDetector) ProcessBool(pressed bool) bool {
	rising := pressed && !e.high
	e.high = pressed
	return rising
}

// High reports the last latched level
func (e *EdgeDetector) High() bool {
	return e.high
}

// Reset forgets the previous level
func (e *EdgeDetector) Reset() {
	e.high = false
}

// PulseGenerator holds an output high for a fixed time after a trigger
type PulseGenerator struct {
	remaining float64
}

// Trigger starts (or extends) a pulse of the given length in seconds
func (p *PulseGenerator) Trigger(duration float64) {
	if duration > p.remaining {
		p.remaining = duration
	}
}

// Process advances time by dt and reports whether the pulse is high
func (p *PulseGenerator) Process(dt float64) bool {
	if p.remaining > 0 {
		p.remaining -= dt
		return true
	}
	return false
}

// Active reports whether a pulse is pending without advancing time
func (p *PulseGenerator) Active() bool {
	return p.remaining > 0
}

// Remaining returns the time left on the current pulse
func (p *PulseGenerator) Remaining() float64 {
	if p.remaining < 0 {
		return 0
	}
	return p.remaining
}

// Clear drops any pulse in flight
func (p *PulseGenerator) Clear() {
	p.remaining = 0
}
