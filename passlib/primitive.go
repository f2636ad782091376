package passlib

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"fmt"
	"hash"
	"io"
	"math"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
)

// ──────────────────────────────────────────────────────────────────────────────
// Digests
// ──────────────────────────────────────────────────────────────────────────────

// Digest names a hash construction used by a token format.
type Digest uint8

const (
	// SHA224 produces the 28-byte structural check.
	SHA224 Digest = iota + 1
	// SHA256 keys the 32-byte auth code.
	SHA256
	// SHA512 drives the PBKDF2 pseudo-random function.
	SHA512
)

// String returns the conventional lower-case digest name.
func (d Digest) String() string {
	switch d {
	case SHA224:
		return "sha224"
	case SHA256:
		return "sha256"
	case SHA512:
		return "sha512"
	default:
		return fmt.Sprintf("digest(%d)", uint8(d))
	}
}

// Size returns the digest length in bytes, or 0 for an unknown digest.
func (d Digest) Size() int {
	switch d {
	case SHA224:
		return sha256.Size224
	case SHA256:
		return sha256.Size
	case SHA512:
		return sha512.Size
	default:
		return 0
	}
}

func (d Digest) constructor() (func() hash.Hash, bool) {
	switch d {
	case SHA224:
		return sha256.New224, true
	case SHA256:
		return sha256.New, true
	case SHA512:
		return sha512.New, true
	default:
		return nil, false
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Primitive adapter
// ──────────────────────────────────────────────────────────────────────────────
//
// Every function below is stateless; concurrent calls never share anything.

// secureRandom returns n bytes read from r. A short read is an error, never a
// partially filled buffer.
func secureRandom(r io.Reader, n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEntropy, err)
	}
	return b, nil
}

// slowDerive runs PBKDF2 with an HMAC over d as the pseudo-random function.
func slowDerive(password, salt []byte, iterations uint32, keyLen int, d Digest) ([]byte, error) {
	h, ok := d.constructor()
	if !ok {
		return nil, fmt.Errorf("%w: unsupported digest %s", ErrKDF, d)
	}
	if iterations < 1 {
		return nil, fmt.Errorf("%w: iterations must be ≥ 1, got %d", ErrKDF, iterations)
	}
	if keyLen < 1 || uint64(keyLen) > uint64(math.MaxUint32)*uint64(d.Size()) {
		return nil, fmt.Errorf("%w: key length %d outside [1, (2^32-1)·%d]", ErrKDF, keyLen, d.Size())
	}
	if uint64(iterations) > math.MaxInt32 {
		return nil, fmt.Errorf("%w: iterations %d exceed the supported maximum", ErrKDF, iterations)
	}
	return pbkdf2.Key(password, salt, int(iterations), keyLen, h), nil
}

// memoryHardDerive runs Argon2id. Parameter bounds are checked here because
// argon2.IDKey panics on zero threads.
func memoryHardDerive(password, salt []byte, time, memory uint32, threads uint8, keyLen uint32) ([]byte, error) {
	if time < 1 {
		return nil, fmt.Errorf("%w: argon2 time must be ≥ 1, got %d", ErrKDF, time)
	}
	if threads < 1 {
		return nil, fmt.Errorf("%w: argon2 threads must be ≥ 1, got %d", ErrKDF, threads)
	}
	if memory < 8*uint32(threads) || memory > maxArgon2Memory {
		return nil, fmt.Errorf("%w: argon2 memory %d KiB outside [%d, %d]",
			ErrKDF, memory, 8*uint32(threads), maxArgon2Memory)
	}
	if keyLen < 4 {
		return nil, fmt.Errorf("%w: argon2 key_len must be ≥ 4, got %d", ErrKDF, keyLen)
	}
	return argon2.IDKey(password, salt, time, memory, threads, keyLen), nil
}

// digest hashes data with d. It panics on an unknown digest; every caller
// passes a package constant.
func digest(d Digest, data []byte) []byte {
	h, ok := d.constructor()
	if !ok {
		panic("passlib: unknown digest " + d.String())
	}
	w := h()
	w.Write(data)
	return w.Sum(nil)
}

// keyedDigest computes HMAC-d of data under key.
func keyedDigest(d Digest, key, data []byte) []byte {
	h, ok := d.constructor()
	if !ok {
		panic("passlib: unknown digest " + d.String())
	}
	mac := hmac.New(h, key)
	mac.Write(data)
	return mac.Sum(nil)
}

// constantTimeEqual reports whether a and b hold the same bytes. Lengths are
// public in every token format, so the length check may return early.
func constantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
