// Package passlib stores passwords as opaque, versioned tokens that can be
// persisted, re-verified, and upgraded as recommendations change.
//
// # Architecture
//
// Each token format is an [Algorithm] bound to one [Version]. Two formats ship
// with this package:
//
//   - [PBKDF2Algorithm]: [Version1], PBKDF2-HMAC-SHA512 with a work factor
//     calibrated to the host (the current version)
//   - [Argon2Algorithm]: [Version2], Argon2id with fixed memory/time cost
//
// The [Registry] is the dispatcher. It holds one algorithm per version,
// calibrates each at most once on first use, and routes every call by the
// version tag embedded in the token.
//
// # Quick start
//
//	reg, err := passlib.NewDefaultRegistry()
//	if err != nil { log.Fatal(err) }
//
//	token, _ := reg.Create(ctx, "my-secret-password")
//	ok, _    := reg.Verify(ctx, token, "my-secret-password") // true
//	stored   := token.String()                               // base64 for text columns
//
// # Token format (version 1)
//
//	offset  size  field
//	0       2     version, big-endian
//	2       4     work factor (PBKDF2 iterations), big-endian
//	6       32    salt
//	38      28    SHA-224 structural check over bytes [0,38)
//	66      32    HMAC-SHA-256 over bytes [0,66), keyed by the derived key
//
// The structural check lets a corrupted token be rejected before the key is
// derived. The auth code covers everything before it, so no field can be
// swapped between tokens.
//
// # Upgrades
//
// Call [Registry.NeedsUpgrade] after every successful verification. It
// returns true when the stored token was produced by a version other than
// [CurrentVersion]; re-create and persist immediately:
//
//	ok, _ := reg.Verify(ctx, stored, password)
//	if ok && reg.NeedsUpgrade(stored) {
//	    fresh, _ := reg.Create(ctx, password)
//	    persist(userID, fresh)
//	}
//
// Raising the work factor never invalidates existing tokens: each token
// carries its own.
//
// # Failure model
//
// A failed Create is a configuration or environment error. A failed Verify
// is always (false, nil), whether the password was wrong or the token was
// corrupted, except when the token has no readable or no registered version.
package passlib
