package token

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	IsRefresh bool `json:"isRefresh,omitempty"`
	jwt.RegisteredClaims
}

// Token is a decoded bearer token. Raw keeps the exact string the client
// presented, which the revocation store keys on.
type Token struct {
	Raw    string
	Claims Claims
}

func (t *Token) UserID() (uint, error) {
	id, err := strconv.ParseUint(t.Claims.Subject, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
