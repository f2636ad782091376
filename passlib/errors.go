package passlib

import "errors"

// Sentinel errors returned by passlib operations.
//
// Use [errors.Is] for comparisons:
//
//	token, err := reg.CreateVersion(ctx, password, v)
//	if errors.Is(err, passlib.ErrUnknownVersion) {
//	    // v is not compiled into this build
//	}
//
// Only [ErrInvalidVersionType], [ErrUnknownVersion], [ErrKDF], [ErrEntropy]
// and [ErrInvalidOption] ever reach callers of [Registry.Create].
// [Registry.Verify] reports a wrong password, a corrupted token and a forged
// token identically as (false, nil).
var (
	// ErrInvalidVersionType is returned by [ParseVersion] when the supplied
	// text is not an unsigned 16-bit integer.
	ErrInvalidVersionType = errors.New("passlib: invalid version type")

	// ErrUnknownVersion is returned when a requested or encoded version has
	// no registered algorithm.
	ErrUnknownVersion = errors.New("passlib: unknown version")

	// ErrMalformedToken is returned when a token's length or encoding does
	// not match the layout of its version.
	ErrMalformedToken = errors.New("passlib: malformed token")

	// ErrVersionMismatch is returned by an [Algorithm] handed a token whose
	// version tag belongs to a different algorithm.
	ErrVersionMismatch = errors.New("passlib: version mismatch")

	// ErrKDF is returned when the key-derivation function rejects its
	// parameters (e.g. zero iterations or an oversized output length).
	ErrKDF = errors.New("passlib: key derivation rejected parameters")

	// ErrEntropy is returned when the secure random source fails to deliver
	// the requested number of bytes.
	ErrEntropy = errors.New("passlib: secure random source failed")

	// ErrInvalidOption is returned when a constructor is called with a
	// parameter value that falls outside the allowed range.
	ErrInvalidOption = errors.New("passlib: invalid option value")

	// errIntegrity marks a structural-check or auth-code mismatch. It never
	// leaves the package; verification collapses it to false.
	errIntegrity = errors.New("passlib: integrity check failed")
)
