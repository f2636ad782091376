package passlib

import (
	"fmt"
	"strconv"
)

// Version identifies a token format. It is the first field of every token
// and the sole key used to dispatch verification.
type Version uint16

const (
	// Version1 is the PBKDF2-HMAC-SHA512 format with a calibrated work factor.
	Version1 Version = 1

	// Version2 is the Argon2id format. It is registered so tokens can be
	// created and verified ahead of a rollout, but it is not yet current.
	Version2 Version = 2

	// CurrentVersion is the version [Registry.Create] produces and the one
	// [Registry.NeedsUpgrade] compares against.
	CurrentVersion = Version1
)

// String returns "v<N>".
func (v Version) String() string { return "v" + strconv.Itoa(int(v)) }

// ParseVersion converts textual configuration (an environment variable, a
// flag, a column value) into a [Version].
//
// Anything that is not a base-10 unsigned 16-bit integer fails with
// [ErrInvalidVersionType]. Whether the version is registered is checked later,
// by the [Registry].
func ParseVersion(s string) (Version, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidVersionType, s)
	}
	return Version(n), nil
}

// Algorithm is implemented by each token format. An Algorithm handles exactly
// one [Version] and must be safe for concurrent use once it is ready.
type Algorithm interface {
	// Version returns the version tag this algorithm writes and accepts.
	Version() Version

	// Create derives a key from password and returns a fresh token.
	// Two calls with the same password never return the same token.
	Create(password string) (Token, error)

	// Verify reports whether password matches token.
	// It returns (false, nil) on a wrong password or a failed integrity
	// check, and (false, err) wrapping [ErrMalformedToken] or
	// [ErrVersionMismatch] when token cannot be decoded by this algorithm.
	Verify(token Token, password string) (bool, error)
}

// calibrator is implemented by algorithms whose work factor is tuned to the
// host once before the first Create.
type calibrator interface {
	Calibrate() (CalibrationResult, error)
}

// classify turns the outcome of an internal check into the public
// (bool, error) shape of [Algorithm.Verify].
func classify(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case isDecodeError(err):
		return false, err
	default:
		// integrity and KDF failures are indistinguishable from a wrong password
		return false, nil
	}
}
