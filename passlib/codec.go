package passlib

import (
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
)

// ──────────────────────────────────────────────────────────────────────────────
// Layout tables
// ──────────────────────────────────────────────────────────────────────────────
//
// Every field of every format is fixed-length. The "to" constants are the
// offsets one past the end of the named field, so the public prefix of a
// token is always token[:toX] for some compile-time X.

const versionLen = 2

// Version 1:
//
//	version(2) | work_factor(4) | salt(32) | check(28) | mac(32)
const (
	pbkdf2WorkFactorLen = 4
	pbkdf2SaltLen       = 32
	pbkdf2CheckLen      = 28 // SHA-224
	pbkdf2MACLen        = 32 // HMAC-SHA-256
	pbkdf2KeyLen        = 64

	pbkdf2ToWorkFactor = versionLen + pbkdf2WorkFactorLen
	pbkdf2ToSalt       = pbkdf2ToWorkFactor + pbkdf2SaltLen
	pbkdf2ToCheck      = pbkdf2ToSalt + pbkdf2CheckLen
	pbkdf2TokenLen     = pbkdf2ToCheck + pbkdf2MACLen
)

// Version 2:
//
//	version(2) | time(4) | memory(4) | threads(1) | salt(32) | check(28) | mac(32)
const (
	argon2TimeLen    = 4
	argon2MemoryLen  = 4
	argon2ThreadsLen = 1
	argon2SaltLen    = 32
	argon2CheckLen   = 28
	argon2MACLen     = 32
	argon2KeyLen     = 32

	argon2ToParams = versionLen + argon2TimeLen + argon2MemoryLen + argon2ThreadsLen
	argon2ToSalt   = argon2ToParams + argon2SaltLen
	argon2ToCheck  = argon2ToSalt + argon2CheckLen
	argon2TokenLen = argon2ToCheck + argon2MACLen
)

// readVersion returns the version tag without decoding anything else.
func readVersion(t []byte) (Version, error) {
	if len(t) < versionLen {
		return 0, fmt.Errorf("%w: %d bytes is too short for a version tag", ErrMalformedToken, len(t))
	}
	return Version(binary.BigEndian.Uint16(t)), nil
}

// checkFrame validates the version tag and total length shared by every
// decoder.
func checkFrame(t []byte, want Version, length int) error {
	v, err := readVersion(t)
	if err != nil {
		return err
	}
	if v != want {
		return fmt.Errorf("%w: token is %s, decoder is %s", ErrVersionMismatch, v, want)
	}
	if len(t) != length {
		return fmt.Errorf("%w: %s token is %d bytes, want %d", ErrMalformedToken, want, len(t), length)
	}
	return nil
}

func isDecodeError(err error) bool {
	return errors.Is(err, ErrMalformedToken) || errors.Is(err, ErrVersionMismatch)
}

// ──────────────────────────────────────────────────────────────────────────────
// Version 1 codec
// ──────────────────────────────────────────────────────────────────────────────

type pbkdf2Fields struct {
	workFactor uint32
	salt       []byte
	check      []byte
	mac        []byte
}

// header is version‖work_factor‖salt, the input of the structural check.
func (f *pbkdf2Fields) header() []byte {
	b := cryptobyte.NewBuilder(make([]byte, 0, pbkdf2TokenLen))
	b.AddUint16(uint16(Version1))
	b.AddUint32(f.workFactor)
	b.AddBytes(f.salt)
	return b.BytesOrPanic()
}

// signed is header‖check, the input of the auth code.
func (f *pbkdf2Fields) signed() []byte {
	return append(f.header(), f.check...)
}

func (f *pbkdf2Fields) marshal() Token {
	return Token(append(f.signed(), f.mac...))
}

func unmarshalPBKDF2(t []byte) (*pbkdf2Fields, error) {
	if err := checkFrame(t, Version1, pbkdf2TokenLen); err != nil {
		return nil, err
	}
	f := &pbkdf2Fields{
		salt:  make([]byte, pbkdf2SaltLen),
		check: make([]byte, pbkdf2CheckLen),
		mac:   make([]byte, pbkdf2MACLen),
	}
	s := cryptobyte.String(t)
	var version uint16
	if !s.ReadUint16(&version) ||
		!s.ReadUint32(&f.workFactor) ||
		!s.CopyBytes(f.salt) ||
		!s.CopyBytes(f.check) ||
		!s.CopyBytes(f.mac) ||
		!s.Empty() {
		return nil, fmt.Errorf("%w: %s layout", ErrMalformedToken, Version1)
	}
	return f, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Version 2 codec
// ──────────────────────────────────────────────────────────────────────────────

type argon2Fields struct {
	time    uint32
	memory  uint32
	threads uint8
	salt    []byte
	check   []byte
	mac     []byte
}

func (f *argon2Fields) header() []byte {
	b := cryptobyte.NewBuilder(make([]byte, 0, argon2TokenLen))
	b.AddUint16(uint16(Version2))
	b.AddUint32(f.time)
	b.AddUint32(f.memory)
	b.AddUint8(f.threads)
	b.AddBytes(f.salt)
	return b.BytesOrPanic()
}

func (f *argon2Fields) signed() []byte {
	return append(f.header(), f.check...)
}

func (f *argon2Fields) marshal() Token {
	return Token(append(f.signed(), f.mac...))
}

func unmarshalArgon2(t []byte) (*argon2Fields, error) {
	if err := checkFrame(t, Version2, argon2TokenLen); err != nil {
		return nil, err
	}
	f := &argon2Fields{
		salt:  make([]byte, argon2SaltLen),
		check: make([]byte, argon2CheckLen),
		mac:   make([]byte, argon2MACLen),
	}
	s := cryptobyte.String(t)
	var version uint16
	if !s.ReadUint16(&version) ||
		!s.ReadUint32(&f.time) ||
		!s.ReadUint32(&f.memory) ||
		!s.ReadUint8(&f.threads) ||
		!s.CopyBytes(f.salt) ||
		!s.CopyBytes(f.check) ||
		!s.CopyBytes(f.mac) ||
		!s.Empty() {
		return nil, fmt.Errorf("%w: %s layout", ErrMalformedToken, Version2)
	}
	return f, nil
}
