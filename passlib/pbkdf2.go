package passlib

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"io"
	"time"
)

// ──────────────────────────────────────────────────────────────────────────────
// Options
// ──────────────────────────────────────────────────────────────────────────────

const (
	// DefaultPBKDF2Iterations is the built-in work-factor floor of version 1.
	// Calibration only ever raises it.
	DefaultPBKDF2Iterations uint32 = 20000
)

// PBKDF2Options configures the version 1 algorithm.
//
// Iterations is recorded in every token, so raising it only affects newly
// created tokens; existing tokens keep verifying at the count they carry.
type PBKDF2Options struct {
	// Iterations is the work-factor floor. Minimum: 1.
	// Default: [DefaultPBKDF2Iterations] (20000).
	Iterations uint32

	// CalibrationTarget is the minimum cost of one Create. Zero disables
	// calibration and tokens use Iterations as-is.
	// Default: [DefaultCalibrationTarget] (100 ms).
	CalibrationTarget time.Duration

	// CalibrationRounds is the number of benchmark trials.
	// Default: [DefaultCalibrationRounds] (3).
	CalibrationRounds int

	// CalibrationGranularity is the rounding step of the calibrated value.
	// Default: [DefaultCalibrationGranularity] (1000).
	CalibrationGranularity uint32

	// BenchmarkSize is the byte length of the synthetic benchmark password.
	// Default: [DefaultBenchmarkSize] (1 MiB).
	BenchmarkSize int
}

// DefaultPBKDF2Options returns PBKDF2Options with the recommended defaults.
func DefaultPBKDF2Options() PBKDF2Options {
	return PBKDF2Options{
		Iterations:             DefaultPBKDF2Iterations,
		CalibrationTarget:      DefaultCalibrationTarget,
		CalibrationRounds:      DefaultCalibrationRounds,
		CalibrationGranularity: DefaultCalibrationGranularity,
		BenchmarkSize:          DefaultBenchmarkSize,
	}
}

func (o PBKDF2Options) calibrator() Calibrator {
	return Calibrator{
		Target:        o.CalibrationTarget,
		Rounds:        o.CalibrationRounds,
		Granularity:   o.CalibrationGranularity,
		BenchmarkSize: o.BenchmarkSize,
	}
}

func validatePBKDF2Options(opts PBKDF2Options) error {
	if opts.Iterations < 1 {
		return fmt.Errorf("%w: pbkdf2 iterations must be ≥ 1, got %d", ErrInvalidOption, opts.Iterations)
	}
	if opts.CalibrationTarget < 0 {
		return fmt.Errorf("%w: calibration target must not be negative, got %s", ErrInvalidOption, opts.CalibrationTarget)
	}
	if opts.CalibrationTarget == 0 {
		return nil
	}
	return opts.calibrator().validate()
}

// ──────────────────────────────────────────────────────────────────────────────
// PBKDF2Algorithm
// ──────────────────────────────────────────────────────────────────────────────

// PBKDF2Algorithm implements [Version1]:
//
//	key   = PBKDF2-HMAC-SHA512(password, salt, work_factor, 64)
//	check = SHA-224(version ‖ work_factor ‖ salt)
//	mac   = HMAC-SHA-256(key, version ‖ work_factor ‖ salt ‖ check)
//
// # Thread safety
//
// Create and Verify are safe for concurrent use. Calibrate mutates the work
// factor and must complete before the first concurrent Create; the
// [Registry] guarantees this.
type PBKDF2Algorithm struct {
	opts       PBKDF2Options
	workFactor uint32
	rand       io.Reader
}

// NewPBKDF2Algorithm constructs a PBKDF2Algorithm with the given options.
// Use [DefaultPBKDF2Options] for recommended defaults.
func NewPBKDF2Algorithm(opts PBKDF2Options) (*PBKDF2Algorithm, error) {
	if err := validatePBKDF2Options(opts); err != nil {
		return nil, err
	}
	return &PBKDF2Algorithm{opts: opts, workFactor: opts.Iterations, rand: rand.Reader}, nil
}

// Version returns [Version1].
func (a *PBKDF2Algorithm) Version() Version { return Version1 }

// WorkFactor returns the iteration count new tokens are created with.
func (a *PBKDF2Algorithm) WorkFactor() uint32 { return a.workFactor }

// Options returns the configured options.
func (a *PBKDF2Algorithm) Options() PBKDF2Options { return a.opts }

// Create returns a new version 1 token for password at the current work
// factor.
func (a *PBKDF2Algorithm) Create(password string) (Token, error) {
	return a.create(password, a.workFactor)
}

func (a *PBKDF2Algorithm) create(password string, workFactor uint32) (Token, error) {
	salt, err := secureRandom(a.rand, pbkdf2SaltLen)
	if err != nil {
		return nil, err
	}
	f := &pbkdf2Fields{workFactor: workFactor, salt: salt}
	f.check = digest(SHA224, f.header())

	key, err := slowDerive([]byte(password), f.salt, f.workFactor, pbkdf2KeyLen, SHA512)
	if err != nil {
		return nil, err
	}
	f.mac = keyedDigest(SHA256, key, f.signed())
	return f.marshal(), nil
}

// Verify reports whether password matches token.
//
// The structural check is compared before key derivation, so a corrupted
// token is rejected without paying the KDF cost. The key is derived with the
// work factor recorded in token, never the current one.
func (a *PBKDF2Algorithm) Verify(token Token, password string) (bool, error) {
	return classify(a.check(token, password))
}

func (a *PBKDF2Algorithm) check(token Token, password string) error {
	f, err := unmarshalPBKDF2(token)
	if err != nil {
		return err
	}
	// the check covers only public fields, so a plain comparison leaks nothing
	if !bytes.Equal(digest(SHA224, f.header()), f.check) {
		return errIntegrity
	}
	key, err := slowDerive([]byte(password), f.salt, f.workFactor, pbkdf2KeyLen, SHA512)
	if err != nil {
		return err
	}
	if !constantTimeEqual(keyedDigest(SHA256, key, f.signed()), f.mac) {
		return errIntegrity
	}
	return nil
}

// Calibrate benchmarks Create against a large synthetic password and raises
// the work factor until one call costs at least the configured target.
func (a *PBKDF2Algorithm) Calibrate() (CalibrationResult, error) {
	return a.calibrateWith(a.opts.calibrator())
}

func (a *PBKDF2Algorithm) calibrateWith(c Calibrator) (CalibrationResult, error) {
	res, err := c.Run(a.workFactor, func(password string, workFactor uint32) error {
		_, err := a.create(password, workFactor)
		return err
	})
	if err != nil {
		return res, err
	}
	a.workFactor = res.WorkFactor
	return res, nil
}
