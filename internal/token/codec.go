package token

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var ErrMalformed = errors.New("token is malformed")
var ErrUnexpectedAlgorithm = errors.New("unexpected signing algorithm")

// Codec encodes and decodes the signed token format. Decode rejects
// structural problems (segment count, non-JSON parts, unsupported alg)
// without touching the signature: the signing secret is per-user, so
// verification can only happen after the subject claim has been read and
// the user resolved.
type Codec struct{}

func (Codec) Encode(claims Claims, secret string) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func (Codec) Decode(raw string) (*Token, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrMalformed
	}

	var claims Claims
	parsed, _, err := jwt.NewParser().ParseUnverified(raw, &claims)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if parsed.Method == nil || parsed.Method.Alg() != jwt.SigningMethodHS256.Alg() {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedAlgorithm, parsed.Header["alg"])
	}

	return &Token{Raw: raw, Claims: claims}, nil
}
