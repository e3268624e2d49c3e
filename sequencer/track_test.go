package sequencer

import (
	"math"
	"math/rand/v2"
	"testing"
)

// runTrack drives a track with a tick every tickEvery samples (starting at
// sample 0) and returns the number of advances.
func runTrack(ts *TrackSequencer, td *TrackData, samples, tickEvery int, dt float64) int {
	rnd := rand.New(rand.NewPCG(1, 1))
	period := float64(tickEvery) * dt
	advances := 0
	for i := 0; i < samples; i++ {
		if ts.Process(dt, i%tickEvery == 0, true, period, td, 0, 0.5, rnd) {
			advances++
		}
	}
	return advances
}

func TestTrack_DivisionCounts(t *testing.T) {
	tests := []struct {
		div  int
		want int
	}{
		{0, 2}, // /4 over 8 ticks
		{1, 4}, // /2
		{2, 8}, // x1
	}
	for _, tt := range tests {
		td := NewTrackData()
		td.DivisionIndex = tt.div
		ts := NewTrackSequencer()
		ts.Reset(&td)
		got := runTrack(&ts, &td, 8*500, 500, 0.001)
		if got != tt.want {
			t.Errorf("%s: %d advances over 8 ticks, want %d", DivisionName(tt.div), got, tt.want)
		}
	}
}

func TestTrack_MultiplicationCounts(t *testing.T) {
	for div, k := range map[int]int{3: 2, 4: 3, 5: 4, 6: 6, 7: 8} {
		td := NewTrackData()
		td.DivisionIndex = div
		ts := NewTrackSequencer()
		ts.Reset(&td)
		// four ticks, then run to just before the fifth
		got := runTrack(&ts, &td, 4*500, 500, 0.001)
		if got != 4*k {
			t.Errorf("%s: %d advances over 4 ticks, want %d", DivisionName(div), got, 4*k)
		}
	}
}

func TestTrack_SubStepsEvenlySpaced(t *testing.T) {
	td := NewTrackData()
	td.DivisionIndex = 5 // x4
	ts := NewTrackSequencer()
	ts.Reset(&td)

	dt := 0.001
	var at []int
	for i := 0; i < 500; i++ {
		if ts.Process(dt, i == 0, true, 0.5, &td, 0, 0.5, nil) {
			at = append(at, i)
		}
	}
	want := []int{0, 125, 250, 375}
	if len(at) != len(want) {
		t.Fatalf("advances at %v, want %v", at, want)
	}
	for i := range want {
		if d := at[i] - want[i]; d < 0 || d > 1 {
			t.Fatalf("advances at %v, want %v (±1 sample)", at, want)
		}
	}
}

func TestTrack_StoppedDoesNotAdvance(t *testing.T) {
	td := NewTrackData()
	ts := NewTrackSequencer()
	ts.Reset(&td)
	for i := 0; i < 2000; i++ {
		if ts.Process(0.001, i%500 == 0, false, 0.5, &td, 0, 0.5, nil) {
			t.Fatalf("advanced while stopped at sample %d", i)
		}
	}
	if ts.CurrentStep != 0 {
		t.Fatalf("step moved to %d while stopped", ts.CurrentStep)
	}
}

func TestTrack_StepCountShrinkMidFlight(t *testing.T) {
	td := NewTrackData()
	ts := NewTrackSequencer()
	ts.Reset(&td)
	ts.CurrentStep = 7

	td.StepCount = 4
	ts.Process(0.001, false, true, 0.5, &td, 0, 0.5, nil)
	if ts.CurrentStep != 3 {
		t.Fatalf("step %d, want clamped to 3", ts.CurrentStep)
	}
	ts.Process(0.001, true, true, 0.5, &td, 0, 0.5, nil)
	if ts.CurrentStep != 0 {
		t.Fatalf("step %d after advance, want wrap to 0", ts.CurrentStep)
	}
}

func TestTrack_Reset(t *testing.T) {
	td := NewTrackData()
	td.Direction = DirPendulum
	ts := NewTrackSequencer()
	ts.Reset(&td)
	runTrack(&ts, &td, 5000, 500, 0.001)

	ts.Reset(&td)
	if ts.CurrentStep != 0 || ts.Pendulum != 1 || ts.StepParity != 0 || ts.ClockPhase != 0 {
		t.Fatalf("reset left state behind: %+v", ts)
	}
	if ts.Out.CommittedStep != 0 || ts.Out.Pending.Active {
		t.Fatalf("reset left output state behind: %+v", ts.Out)
	}
}

func TestStepDuration(t *testing.T) {
	tests := []struct {
		div  int
		want float64
	}{
		{0, 2.0},
		{1, 1.0},
		{2, 0.5},
		{3, 0.25},
		{4, 0.5 / 3},
		{7, 0.0625},
	}
	for _, tt := range tests {
		if got := StepDuration(0.5, tt.div); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("%s: step duration %v, want %v", DivisionName(tt.div), got, tt.want)
		}
	}
}

func TestSwingDelay(t *testing.T) {
	if d := SwingDelay(1, 1, 0.5); d != 0.25 {
		t.Fatalf("full swing odd step delay %v, want 0.25", d)
	}
	if d := SwingDelay(0, 1, 0.5); d != 0 {
		t.Fatalf("even step delayed by %v", d)
	}
	if d := SwingDelay(1, 0, 0.5); d != 0 {
		t.Fatalf("no swing delayed by %v", d)
	}
}
