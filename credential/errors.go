// Package credential stores passlib tokens against a subject (a user name, an
// account ID) and runs the enroll, login and password-change workflows on top
// of a [passlib.Registry].
//
// It is storage-agnostic: persistence is delegated to a [Store]. A
// thread-safe in-memory implementation lives in credential/inmemory and a
// Redis-backed one in credential/redisstore.
//
// # Upgrades
//
// When [Config.UpgradeOnLogin] is set, a successful [Service.Authenticate]
// against a token created by a non-current version re-creates the token
// under the current version and writes it back. The write is best effort; a
// failure is logged and the login still succeeds.
package credential

import "errors"

var (
	// ErrNotFound is returned by a [Store] when no record exists for a subject.
	ErrNotFound = errors.New("credential: record not found")

	// ErrExists is returned by a [Store] when creating a record for a subject
	// that already has one.
	ErrExists = errors.New("credential: record already exists")

	// ErrInvalidCredentials is returned by [Service.ChangePassword] when the
	// current password does not verify or the subject is unknown.
	ErrInvalidCredentials = errors.New("credential: invalid credentials")

	// ErrInvalidSubject is returned when a subject is empty.
	ErrInvalidSubject = errors.New("credential: invalid subject")
)
