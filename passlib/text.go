package passlib

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Token is the opaque, self-describing value produced by [Registry.Create].
// It is plain data owned by the caller; persist it as raw bytes or, for
// text-oriented stores, as the string returned by [Token.String].
type Token []byte

// String returns the standard base64 encoding of t.
func (t Token) String() string {
	return base64.StdEncoding.EncodeToString(t)
}

// Version returns the version tag of t, or [ErrMalformedToken] when t is too
// short to carry one.
func (t Token) Version() (Version, error) {
	return readVersion(t)
}

// ParseToken decodes the text form of a token. Standard base64 is expected;
// unpadded standard base64 is accepted as well since some stores trim "=".
// The result is not validated beyond the base64 layer.
func ParseToken(s string) (Token, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty text", ErrMalformedToken)
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return Token(b), nil
	}
	b, err := base64.RawStdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64: %v", ErrMalformedToken, err)
	}
	return Token(b), nil
}
