package passlib

import (
	"errors"
	"math"
	"testing"
	"time"
)

// manualClock only moves when a trial advances it, so observed durations are
// exactly what the trial reports.
type manualClock struct{ t time.Time }

func newManualClock() *manualClock { return &manualClock{t: time.Unix(0, 0)} }

func (c *manualClock) now() time.Time { return c.t }

func (c *manualClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func testCalibrator(c *manualClock) Calibrator {
	return Calibrator{
		Target:        100 * time.Millisecond,
		Rounds:        3,
		Granularity:   1000,
		BenchmarkSize: 16,
		now:           c.now,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Calibrator.Run
// ──────────────────────────────────────────────────────────────────────────────

func TestCalibrator_ScalesToTarget(t *testing.T) {
	clock := newManualClock()
	// one microsecond per iteration
	res, err := testCalibrator(clock).Run(20000, func(_ string, wf uint32) error {
		clock.advance(time.Duration(wf) * time.Microsecond)
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.WorkFactor != 100000 {
		t.Errorf("work factor = %d, want 100000", res.WorkFactor)
	}
	want := []time.Duration{20 * time.Millisecond, 100 * time.Millisecond, 100 * time.Millisecond}
	if len(res.Trials) != len(want) {
		t.Fatalf("trials = %v, want %v", res.Trials, want)
	}
	for i := range want {
		if res.Trials[i] != want[i] {
			t.Errorf("trial %d = %s, want %s", i, res.Trials[i], want[i])
		}
	}
	if res.Elapsed != 220*time.Millisecond {
		t.Errorf("elapsed = %s, want 220ms", res.Elapsed)
	}
}

func TestCalibrator_PassesSyntheticPassword(t *testing.T) {
	clock := newManualClock()
	var sizes []int
	_, err := testCalibrator(clock).Run(1000, func(pw string, _ uint32) error {
		sizes = append(sizes, len(pw))
		clock.advance(time.Second)
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, n := range sizes {
		if n != 16 {
			t.Errorf("benchmark password length = %d, want 16", n)
		}
	}
}

func TestCalibrator_NeverDecreases(t *testing.T) {
	clock := newManualClock()
	durations := []time.Duration{10 * time.Millisecond, 200 * time.Millisecond, 50 * time.Millisecond}
	i := 0
	res, err := testCalibrator(clock).Run(1000, func(string, uint32) error {
		clock.advance(durations[i])
		i++
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// 1000 → 10000; the slow 200ms trial would give 5000 and is ignored; → 20000
	if res.WorkFactor != 20000 {
		t.Errorf("work factor = %d, want 20000", res.WorkFactor)
	}
}

func TestCalibrator_KeepsFloorOnSlowHost(t *testing.T) {
	clock := newManualClock()
	res, err := testCalibrator(clock).Run(20000, func(string, uint32) error {
		clock.advance(2 * time.Second)
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.WorkFactor != 20000 {
		t.Errorf("work factor = %d, want floor 20000", res.WorkFactor)
	}
}

func TestCalibrator_RoundsDownToGranularity(t *testing.T) {
	clock := newManualClock()
	c := testCalibrator(clock)
	c.Rounds = 1
	res, err := c.Run(1000, func(string, uint32) error {
		clock.advance(30 * time.Millisecond) // 1000 × 100/30 = 3333.3
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.WorkFactor != 3000 {
		t.Errorf("work factor = %d, want 3000", res.WorkFactor)
	}
}

func TestCalibrator_ZeroDurationClamps(t *testing.T) {
	clock := newManualClock()
	c := testCalibrator(clock)
	c.Rounds = 1
	res, err := c.Run(1000, func(string, uint32) error { return nil })
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := uint32(math.MaxUint32 / 1000 * 1000)
	if res.WorkFactor != want {
		t.Errorf("work factor = %d, want %d", res.WorkFactor, want)
	}
}

func TestCalibrator_TrialError(t *testing.T) {
	clock := newManualClock()
	boom := errors.New("boom")
	res, err := testCalibrator(clock).Run(5000, func(string, uint32) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected trial error, got %v", err)
	}
	if res.WorkFactor != 5000 {
		t.Errorf("work factor = %d, want unchanged 5000", res.WorkFactor)
	}
}

func TestCalibrator_ZeroTargetDisables(t *testing.T) {
	calls := 0
	res, err := Calibrator{}.Run(7000, func(string, uint32) error { calls++; return nil })
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 0 || res.WorkFactor != 7000 {
		t.Errorf("calls = %d, work factor = %d; want 0, 7000", calls, res.WorkFactor)
	}
}

func TestCalibrator_InvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		c    Calibrator
	}{
		{"rounds=0", Calibrator{Target: time.Millisecond, Rounds: 0, Granularity: 1, BenchmarkSize: 1}},
		{"granularity=0", Calibrator{Target: time.Millisecond, Rounds: 1, Granularity: 0, BenchmarkSize: 1}},
		{"benchmark=0", Calibrator{Target: time.Millisecond, Rounds: 1, Granularity: 1, BenchmarkSize: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.c.Run(1, func(string, uint32) error { return nil })
			if !errors.Is(err, ErrInvalidOption) {
				t.Errorf("expected ErrInvalidOption, got %v", err)
			}
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// PBKDF2Algorithm calibration
// ──────────────────────────────────────────────────────────────────────────────

// stepClock advances by step on every reading, so every trial observes step.
type stepClock struct {
	t    time.Time
	step time.Duration
}

func (c *stepClock) now() time.Time {
	c.t = c.t.Add(c.step)
	return c.t
}

func TestPBKDF2Algorithm_CalibrateRaisesWorkFactor(t *testing.T) {
	a, err := NewPBKDF2Algorithm(PBKDF2Options{Iterations: 1000})
	if err != nil {
		t.Fatalf("NewPBKDF2Algorithm: %v", err)
	}
	clock := &stepClock{step: time.Millisecond}
	res, err := a.calibrateWith(Calibrator{
		Target:        5 * time.Millisecond,
		Rounds:        2,
		Granularity:   1000,
		BenchmarkSize: 64,
		now:           clock.now,
	})
	if err != nil {
		t.Fatalf("calibrateWith: %v", err)
	}
	// 1000 → 5000 → 25000
	if res.WorkFactor != 25000 || a.WorkFactor() != 25000 {
		t.Errorf("work factor = %d (algorithm %d), want 25000", res.WorkFactor, a.WorkFactor())
	}

	tok, err := a.Create("after-calibration")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	fields, _ := unmarshalPBKDF2(tok)
	if fields.workFactor != 25000 {
		t.Errorf("token work factor = %d, want 25000", fields.workFactor)
	}
}

func TestPBKDF2Algorithm_CalibrateFailureKeepsWorkFactor(t *testing.T) {
	a, _ := NewPBKDF2Algorithm(PBKDF2Options{Iterations: 1000})
	a.rand = failingReader{}
	_, err := a.calibrateWith(Calibrator{
		Target: time.Millisecond, Rounds: 1, Granularity: 1, BenchmarkSize: 1,
	})
	if !errors.Is(err, ErrEntropy) {
		t.Fatalf("expected ErrEntropy, got %v", err)
	}
	if a.WorkFactor() != 1000 {
		t.Errorf("work factor = %d, want 1000", a.WorkFactor())
	}
}

func TestAlgorithms_EntropyFailure(t *testing.T) {
	p, _ := NewPBKDF2Algorithm(PBKDF2Options{Iterations: 1})
	p.rand = failingReader{}
	if _, err := p.Create("pw"); !errors.Is(err, ErrEntropy) {
		t.Errorf("pbkdf2: expected ErrEntropy, got %v", err)
	}

	a, _ := NewArgon2Algorithm(Argon2Options{Memory: 16, Time: 1, Threads: 1})
	a.rand = failingReader{}
	if _, err := a.Create("pw"); !errors.Is(err, ErrEntropy) {
		t.Errorf("argon2: expected ErrEntropy, got %v", err)
	}
}
