package credential

import (
	"bytes"
	"context"
	"time"

	"github.com/hasbyte1/go-passlib/passlib"
)

// Record is the stored credential of one subject.
type Record struct {
	// ID is a random UUID assigned at enrolment. It never changes.
	ID string

	// Subject is the unique login name the record is keyed by.
	Subject string

	// Token is the password token. It is replaced on password change and on
	// upgrade.
	Token passlib.Token

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	cp := *r
	cp.Token = bytes.Clone(r.Token)
	return &cp
}

// Store defines the persistence operations for [Record] values, keyed by
// subject. Implementations must be safe for concurrent use and must not
// retain the records passed to them.
type Store interface {
	// Create persists a new record.
	// Returns [ErrExists] when the subject already has one.
	Create(ctx context.Context, rec *Record) error

	// Get retrieves the record of subject.
	// Returns [ErrNotFound] when no record exists.
	Get(ctx context.Context, subject string) (*Record, error)

	// Update replaces the stored record of rec.Subject.
	// Returns [ErrNotFound] when no record exists.
	Update(ctx context.Context, rec *Record) error

	// Delete removes the record of subject.
	// Returns [ErrNotFound] when no record exists.
	Delete(ctx context.Context, subject string) error
}
