package passlib

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	// DefaultCalibrationTarget is the minimum wall-clock cost of one Create
	// after calibration.
	DefaultCalibrationTarget = 100 * time.Millisecond

	// DefaultCalibrationRounds is the number of benchmark trials.
	DefaultCalibrationRounds = 3

	// DefaultCalibrationGranularity is the step the work factor is rounded
	// down to after each trial, so noisy timings do not produce a new value
	// on every process start.
	DefaultCalibrationGranularity uint32 = 1000

	// DefaultBenchmarkSize is the length of the synthetic benchmark password
	// (1 MiB).
	DefaultBenchmarkSize = 1 << 20
)

// Calibrator raises a work factor until one trial costs at least Target.
//
// The zero value is not useful; start from the fields of [PBKDF2Options] or
// set every field explicitly.
type Calibrator struct {
	// Target is the minimum duration of one trial. Zero disables calibration.
	Target time.Duration

	// Rounds is the number of trials. Each trial runs at the work factor
	// produced by the previous one.
	Rounds int

	// Granularity is the rounding step of the work factor.
	Granularity uint32

	// BenchmarkSize is the byte length of the synthetic password.
	BenchmarkSize int

	now func() time.Time
}

// CalibrationResult describes one completed calibration.
type CalibrationResult struct {
	// Floor is the work factor calibration started from.
	Floor uint32
	// WorkFactor is the calibrated value; never below Floor.
	WorkFactor uint32
	// Trials holds the observed duration of every trial, in order.
	Trials []time.Duration
	// Elapsed is the total wall-clock time spent calibrating.
	Elapsed time.Duration
}

// Trial runs one create at workFactor against password.
type Trial func(password string, workFactor uint32) error

// Run benchmarks trial and returns the calibrated work factor.
//
// After each trial the work factor is scaled by Target/observed and rounded
// down to Granularity. The maximum across trials is kept, so one fast outlier
// cannot lower the result, and floor is never undercut.
func (c Calibrator) Run(floor uint32, trial Trial) (CalibrationResult, error) {
	res := CalibrationResult{Floor: floor, WorkFactor: floor}
	if c.Target <= 0 {
		return res, nil
	}
	if err := c.validate(); err != nil {
		return res, err
	}

	now := c.now
	if now == nil {
		now = time.Now
	}
	password := strings.Repeat("a", c.BenchmarkSize)
	started := now()

	for i := 0; i < c.Rounds; i++ {
		t0 := now()
		if err := trial(password, res.WorkFactor); err != nil {
			res.Elapsed = now().Sub(started)
			return res, fmt.Errorf("passlib: calibration trial %d: %w", i+1, err)
		}
		observed := now().Sub(t0)
		res.Trials = append(res.Trials, observed)
		res.WorkFactor = max(res.WorkFactor, c.scale(res.WorkFactor, observed))
	}

	res.Elapsed = now().Sub(started)
	return res, nil
}

// scale returns workFactor·Target/observed rounded down to Granularity and
// clamped to the uint32 range.
func (c Calibrator) scale(workFactor uint32, observed time.Duration) uint32 {
	if observed <= 0 {
		observed = time.Nanosecond
	}
	next := float64(workFactor) * (float64(c.Target) / float64(observed))
	g := float64(c.Granularity)
	next = math.Floor(next/g) * g
	if next >= math.MaxUint32 {
		return math.MaxUint32 / c.Granularity * c.Granularity
	}
	return uint32(next)
}

func (c Calibrator) validate() error {
	if c.Rounds < 1 {
		return fmt.Errorf("%w: calibration rounds must be ≥ 1, got %d", ErrInvalidOption, c.Rounds)
	}
	if c.Granularity < 1 {
		return fmt.Errorf("%w: calibration granularity must be ≥ 1", ErrInvalidOption)
	}
	if c.BenchmarkSize < 1 {
		return fmt.Errorf("%w: benchmark size must be ≥ 1, got %d", ErrInvalidOption, c.BenchmarkSize)
	}
	return nil
}
