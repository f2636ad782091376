package passlib

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"io"
)

// ──────────────────────────────────────────────────────────────────────────────
// Options
// ──────────────────────────────────────────────────────────────────────────────

const (
	// DefaultArgon2Memory is the default memory cost in KiB (64 MiB).
	// OWASP ASVS Level 2 requires ≥ 19 MiB; 64 MiB is the standard production
	// recommendation for Argon2id.
	DefaultArgon2Memory uint32 = 64 * 1024

	// DefaultArgon2Time is the default number of passes.
	DefaultArgon2Time uint32 = 3

	// DefaultArgon2Threads is the default degree of parallelism.
	DefaultArgon2Threads uint8 = 2

	// maxArgon2Memory bounds the memory a token may demand during verify
	// (4 GiB). A forged token must not be able to exhaust the host.
	maxArgon2Memory uint32 = 4 * 1024 * 1024
)

// Argon2Options configures the [Version2] algorithm.
//
// All parameters are written into every token, so changing them only affects
// newly created tokens.
type Argon2Options struct {
	// Memory is the memory cost in KiB.
	// Minimum: 8 * Threads. Maximum: 4 GiB. Default: [DefaultArgon2Memory] (64 MiB).
	Memory uint32

	// Time is the number of passes over memory.
	// Minimum: 1. Default: [DefaultArgon2Time] (3).
	Time uint32

	// Threads is the degree of parallelism.
	// Minimum: 1. Default: [DefaultArgon2Threads] (2).
	Threads uint8
}

// DefaultArgon2Options returns Argon2Options with the recommended defaults.
func DefaultArgon2Options() Argon2Options {
	return Argon2Options{
		Memory:  DefaultArgon2Memory,
		Time:    DefaultArgon2Time,
		Threads: DefaultArgon2Threads,
	}
}

func validateArgon2Options(opts Argon2Options) error {
	if opts.Time < 1 {
		return fmt.Errorf("%w: argon2 time must be ≥ 1, got %d", ErrInvalidOption, opts.Time)
	}
	if opts.Threads < 1 {
		return fmt.Errorf("%w: argon2 threads must be ≥ 1, got %d", ErrInvalidOption, opts.Threads)
	}
	if opts.Memory < 8*uint32(opts.Threads) {
		return fmt.Errorf("%w: argon2 memory (%d KiB) must be ≥ 8×threads (%d KiB)",
			ErrInvalidOption, opts.Memory, 8*uint32(opts.Threads))
	}
	if opts.Memory > maxArgon2Memory {
		return fmt.Errorf("%w: argon2 memory (%d KiB) must be ≤ %d KiB",
			ErrInvalidOption, opts.Memory, maxArgon2Memory)
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Argon2Algorithm
// ──────────────────────────────────────────────────────────────────────────────

// Argon2Algorithm implements [Version2]:
//
//	key   = Argon2id(password, salt, time, memory, threads, 32)
//	check = SHA-224(version ‖ time ‖ memory ‖ threads ‖ salt)
//	mac   = HMAC-SHA-256(key, version ‖ … ‖ salt ‖ check)
//
// Its cost is fixed by [Argon2Options]; it is never calibrated.
//
// # Thread safety
//
// Argon2Algorithm is immutable after construction and safe for concurrent use.
type Argon2Algorithm struct {
	opts Argon2Options
	rand io.Reader
}

// NewArgon2Algorithm constructs an Argon2Algorithm with the given options.
// Use [DefaultArgon2Options] for recommended defaults.
func NewArgon2Algorithm(opts Argon2Options) (*Argon2Algorithm, error) {
	if err := validateArgon2Options(opts); err != nil {
		return nil, err
	}
	return &Argon2Algorithm{opts: opts, rand: rand.Reader}, nil
}

// Version returns [Version2].
func (a *Argon2Algorithm) Version() Version { return Version2 }

// Options returns the current Argon2 parameter set.
func (a *Argon2Algorithm) Options() Argon2Options { return a.opts }

// Create returns a new version 2 token for password.
func (a *Argon2Algorithm) Create(password string) (Token, error) {
	salt, err := secureRandom(a.rand, argon2SaltLen)
	if err != nil {
		return nil, err
	}
	f := &argon2Fields{
		time:    a.opts.Time,
		memory:  a.opts.Memory,
		threads: a.opts.Threads,
		salt:    salt,
	}
	f.check = digest(SHA224, f.header())

	key, err := memoryHardDerive([]byte(password), f.salt, f.time, f.memory, f.threads, argon2KeyLen)
	if err != nil {
		return nil, err
	}
	f.mac = keyedDigest(SHA256, key, f.signed())
	return f.marshal(), nil
}

// Verify reports whether password matches token. The parameters are read
// from token itself, so verification keeps working after the options change.
func (a *Argon2Algorithm) Verify(token Token, password string) (bool, error) {
	return classify(a.check(token, password))
}

func (a *Argon2Algorithm) check(token Token, password string) error {
	f, err := unmarshalArgon2(token)
	if err != nil {
		return err
	}
	if !bytes.Equal(digest(SHA224, f.header()), f.check) {
		return errIntegrity
	}
	key, err := memoryHardDerive([]byte(password), f.salt, f.time, f.memory, f.threads, argon2KeyLen)
	if err != nil {
		return err
	}
	if !constantTimeEqual(keyedDigest(SHA256, key, f.signed()), f.mac) {
		return errIntegrity
	}
	return nil
}
