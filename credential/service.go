package credential

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hasbyte1/go-passlib/passlib"
)

// Hasher is the part of [passlib.Registry] a [Service] depends on.
type Hasher interface {
	Create(ctx context.Context, password string) (passlib.Token, error)
	Verify(ctx context.Context, token passlib.Token, password string) (bool, error)
	NeedsUpgrade(token passlib.Token) bool
}

// Config holds the runtime configuration of a [Service].
type Config struct {
	// UpgradeOnLogin re-creates tokens of non-current versions after a
	// successful login.
	UpgradeOnLogin bool

	// Logger receives upgrade failures. Defaults to [slog.Default] when nil.
	Logger *slog.Logger
}

// DefaultConfig returns a [Config] with upgrades enabled.
func DefaultConfig() Config {
	return Config{UpgradeOnLogin: true}
}

// Service runs the credential workflows. All methods are safe for concurrent
// use when the [Hasher] and [Store] are.
type Service struct {
	hasher Hasher
	store  Store
	config Config
	logger *slog.Logger
	now    func() time.Time

	decoyMu sync.Mutex
	decoy   passlib.Token
}

// NewService constructs a [Service] with the supplied dependencies.
func NewService(hasher Hasher, store Store, cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		hasher: hasher,
		store:  store,
		config: cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Enroll creates a token for password and stores a new record for subject.
// Returns [ErrExists] when subject is already enrolled.
func (s *Service) Enroll(ctx context.Context, subject, password string) (*Record, error) {
	if subject == "" {
		return nil, ErrInvalidSubject
	}
	token, err := s.hasher.Create(ctx, password)
	if err != nil {
		return nil, fmt.Errorf("credential: create token: %w", err)
	}

	now := s.now()
	rec := &Record{
		ID:        uuid.NewString(),
		Subject:   subject,
		Token:     token,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("credential: persist record: %w", err)
	}
	return rec, nil
}

// Authenticate reports whether password is the password of subject.
//
// An unknown subject returns (false, nil) after a verification against a
// decoy token, so it costs about as much as a wrong password. Errors are
// returned for store failures and for stored tokens passlib cannot decode.
func (s *Service) Authenticate(ctx context.Context, subject, password string) (bool, error) {
	rec, err := s.store.Get(ctx, subject)
	if errors.Is(err, ErrNotFound) {
		s.burn(ctx, password)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("credential: load record: %w", err)
	}

	ok, err := s.hasher.Verify(ctx, rec.Token, password)
	if err != nil {
		return false, fmt.Errorf("credential: verify %s: %w", rec.ID, err)
	}
	if !ok {
		return false, nil
	}

	if s.config.UpgradeOnLogin && s.hasher.NeedsUpgrade(rec.Token) {
		s.upgrade(ctx, rec, password)
	}
	return true, nil
}

// ChangePassword replaces the token of subject after verifying oldPassword.
// Returns [ErrInvalidCredentials] when oldPassword does not verify or subject
// is unknown.
func (s *Service) ChangePassword(ctx context.Context, subject, oldPassword, newPassword string) error {
	rec, err := s.store.Get(ctx, subject)
	if errors.Is(err, ErrNotFound) {
		s.burn(ctx, oldPassword)
		return ErrInvalidCredentials
	}
	if err != nil {
		return fmt.Errorf("credential: load record: %w", err)
	}

	ok, err := s.hasher.Verify(ctx, rec.Token, oldPassword)
	if err != nil {
		return fmt.Errorf("credential: verify %s: %w", rec.ID, err)
	}
	if !ok {
		return ErrInvalidCredentials
	}

	token, err := s.hasher.Create(ctx, newPassword)
	if err != nil {
		return fmt.Errorf("credential: create token: %w", err)
	}
	rec.Token = token
	rec.UpdatedAt = s.now()
	if err := s.store.Update(ctx, rec); err != nil {
		return fmt.Errorf("credential: persist record: %w", err)
	}
	return nil
}

// Remove deletes the record of subject. Returns [ErrNotFound] when absent.
func (s *Service) Remove(ctx context.Context, subject string) error {
	return s.store.Delete(ctx, subject)
}

// upgrade re-creates rec's token under the current version. Failures are
// logged and otherwise ignored.
func (s *Service) upgrade(ctx context.Context, rec *Record, password string) {
	token, err := s.hasher.Create(ctx, password)
	if err != nil {
		s.logger.Warn("credential: password token upgrade generation failed",
			"record_id", rec.ID, "error", err)
		return
	}
	rec.Token = token
	rec.UpdatedAt = s.now()
	if err := s.store.Update(ctx, rec); err != nil {
		s.logger.Warn("credential: password token upgrade update failed",
			"record_id", rec.ID, "error", err)
	}
}

// burn verifies password against a decoy token so that an unknown subject
// costs a full verification.
func (s *Service) burn(ctx context.Context, password string) {
	if decoy := s.decoyToken(ctx); decoy != nil {
		_, _ = s.hasher.Verify(ctx, decoy, password)
	}
}

// decoyToken mints the decoy on first use. A failed attempt is retried by the
// next caller.
func (s *Service) decoyToken(ctx context.Context) passlib.Token {
	s.decoyMu.Lock()
	defer s.decoyMu.Unlock()
	if s.decoy == nil {
		token, err := s.hasher.Create(ctx, uuid.NewString())
		if err != nil {
			s.logger.Warn("credential: decoy token generation failed", "error", err)
			return nil
		}
		s.decoy = token
	}
	return s.decoy
}
