package passlib

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
)

// supportedVersions is the closed set of formats compiled into this build.
var supportedVersions = []Version{Version1, Version2}

// Config holds the runtime configuration of a [Registry].
type Config struct {
	// PBKDF2 configures [Version1].
	PBKDF2 PBKDF2Options

	// Argon2 configures [Version2].
	Argon2 Argon2Options

	// Logger receives calibration and version-selection events.
	// Defaults to [slog.Default] when nil. Passwords and tokens are never logged.
	Logger *slog.Logger
}

// DefaultConfig returns a [Config] populated with the recommended defaults.
func DefaultConfig() Config {
	return Config{
		PBKDF2: DefaultPBKDF2Options(),
		Argon2: DefaultArgon2Options(),
	}
}

// Registry is the version dispatcher. It owns one [Algorithm] per supported
// [Version], calibrates each at most once, and routes Create, Verify and
// NeedsUpgrade by the version tag.
//
// Construct one Registry at process start and share it by reference.
//
// # Thread safety
//
// All Registry methods are safe for concurrent use. Concurrent creates for
// an uncalibrated version wait on a single shared calibration run.
type Registry struct {
	entries map[Version]*entry
	logger  *slog.Logger
}

const (
	stateUninitialized int32 = iota
	stateInitializing
	stateReady
)

// entry is the runtime state of one version. done is closed once the
// algorithm is ready (or failed to become ready); the close publishes the
// calibrated work factor to every waiter.
type entry struct {
	alg   Algorithm
	once  sync.Once
	state atomic.Int32
	done  chan struct{}
	err   error
}

// NewRegistry creates a Registry for every supported version configured
// from cfg. No calibration happens here; it runs on the first Create of each
// version.
func NewRegistry(cfg Config) (*Registry, error) {
	algs := make([]Algorithm, 0, len(supportedVersions))
	for _, v := range supportedVersions {
		alg, err := newAlgorithm(v, cfg)
		if err != nil {
			return nil, fmt.Errorf("passlib: failed to create %s algorithm: %w", v, err)
		}
		algs = append(algs, alg)
	}
	return newRegistry(cfg.Logger, algs...), nil
}

// NewDefaultRegistry creates a Registry using [DefaultConfig].
//
//	reg, err := passlib.NewDefaultRegistry()
//	token, _ := reg.Create(ctx, "secret")
func NewDefaultRegistry() (*Registry, error) {
	return NewRegistry(DefaultConfig())
}

func newAlgorithm(v Version, cfg Config) (Algorithm, error) {
	switch v {
	case Version1:
		return NewPBKDF2Algorithm(cfg.PBKDF2)
	case Version2:
		return NewArgon2Algorithm(cfg.Argon2)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownVersion, v)
	}
}

func newRegistry(logger *slog.Logger, algs ...Algorithm) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		entries: make(map[Version]*entry, len(algs)),
		logger:  logger,
	}
	for _, alg := range algs {
		r.entries[alg.Version()] = &entry{alg: alg, done: make(chan struct{})}
	}
	return r
}

// Versions returns the registered versions in ascending order.
func (r *Registry) Versions() []Version {
	out := make([]Version, 0, len(r.entries))
	for v := range r.entries {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// Ready reports whether v is registered and its one-time initialisation has
// completed successfully.
func (r *Registry) Ready(v Version) bool {
	e, ok := r.entries[v]
	return ok && e.state.Load() == stateReady && e.err == nil
}

// Create returns a token for password under [CurrentVersion].
func (r *Registry) Create(ctx context.Context, password string) (Token, error) {
	return r.CreateVersion(ctx, password, CurrentVersion)
}

// CreateVersion returns a token for password under version v.
//
// The first call for a version that needs calibration starts it; every
// caller, including the first, waits for that single run. If ctx ends while
// waiting, ctx.Err() is returned and calibration carries on for the others.
// Key derivation itself is not interruptible.
//
// Returns [ErrUnknownVersion] when v is not registered. A calibration error
// is returned to every caller for the lifetime of the Registry.
func (r *Registry) CreateVersion(ctx context.Context, password string, v Version) (Token, error) {
	alg, err := r.resolve(ctx, v)
	if err != nil {
		return nil, err
	}
	if v != CurrentVersion {
		r.logger.Warn("passlib: creating token with non-current version",
			"version", v.String(), "current", CurrentVersion.String())
	}
	return alg.Create(password)
}

// Verify reports whether password matches token.
//
// A wrong password, a corrupted token and a truncated token of a known
// version all return (false, nil). Errors are reserved for tokens that carry
// no readable version tag ([ErrMalformedToken]) or an unregistered one
// ([ErrUnknownVersion]), and for a ctx that is already done.
//
// Verify never waits for calibration: it uses the work factor recorded in
// the token.
func (r *Registry) Verify(ctx context.Context, token Token, password string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	v, err := readVersion(token)
	if err != nil {
		return false, err
	}
	e, ok := r.entries[v]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownVersion, v)
	}
	ok, err = e.alg.Verify(token, password)
	if err != nil {
		return false, nil
	}
	return ok, nil
}

// VerifyString is [Registry.Verify] for the base64 text form of a token.
func (r *Registry) VerifyString(ctx context.Context, token, password string) (bool, error) {
	t, err := ParseToken(token)
	if err != nil {
		return false, err
	}
	return r.Verify(ctx, t, password)
}

// NeedsUpgrade reports whether token should be re-created under
// [CurrentVersion]. See the package-level [NeedsUpgrade].
func (r *Registry) NeedsUpgrade(token Token) bool {
	return NeedsUpgrade(token)
}

// NeedsUpgradeString is [Registry.NeedsUpgrade] for the text form.
func (r *Registry) NeedsUpgradeString(token string) bool {
	return NeedsUpgradeString(token)
}

// NeedsUpgrade reports whether token was produced by anything other than
// [CurrentVersion]. Only the version tag is inspected, so this does not check
// the token's integrity. Input without a readable tag needs upgrading.
func NeedsUpgrade(token Token) bool {
	v, err := readVersion(token)
	return err != nil || v != CurrentVersion
}

// NeedsUpgradeString is [NeedsUpgrade] for the base64 text form. Text that is
// not base64 needs upgrading.
func NeedsUpgradeString(token string) bool {
	t, err := ParseToken(token)
	return err != nil || NeedsUpgrade(t)
}

// ──────────────────────────────────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────────────────────────────────

func (r *Registry) resolve(ctx context.Context, v Version) (Algorithm, error) {
	e, ok := r.entries[v]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVersion, v)
	}
	if e.state.Load() != stateReady {
		e.once.Do(func() { r.initialize(v, e) })
		select {
		case <-e.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if e.err != nil {
		return nil, e.err
	}
	return e.alg, nil
}

// initialize runs once per entry. Calibration happens on its own goroutine
// so a caller abandoning its wait does not abandon the run.
func (r *Registry) initialize(v Version, e *entry) {
	c, ok := e.alg.(calibrator)
	if !ok {
		e.state.Store(stateReady)
		close(e.done)
		return
	}
	e.state.Store(stateInitializing)
	go func() {
		defer close(e.done)
		r.logger.Info("passlib: calibrating work factor", "version", v.String())
		res, err := c.Calibrate()
		if err != nil {
			e.err = fmt.Errorf("passlib: %s calibration failed: %w", v, err)
			r.logger.Error("passlib: calibration failed", "version", v.String(), "error", err)
		} else {
			r.logger.Info("passlib: calibrated work factor",
				"version", v.String(),
				"floor", res.Floor,
				"work_factor", res.WorkFactor,
				"trials", len(res.Trials),
				"elapsed", res.Elapsed)
		}
		e.state.Store(stateReady)
	}()
}
