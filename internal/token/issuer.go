package token

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Skotchmaster/authgate/internal/models"
)

// Issuer builds access and refresh tokens for a user identity. Issuance is
// pure given (identity, now): iat = nbf = now, and the jti/issuer claims
// are copied verbatim from the identity's current credentials.
type Issuer struct {
	Codec      Codec
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (i *Issuer) AccessToken(id models.Identity, now time.Time) (string, time.Time, error) {
	return i.sign(id, now, i.AccessTTL, false)
}

func (i *Issuer) RefreshToken(id models.Identity, now time.Time) (string, time.Time, error) {
	return i.sign(id, now, i.RefreshTTL, true)
}

func (i *Issuer) sign(id models.Identity, now time.Time, ttl time.Duration, refresh bool) (string, time.Time, error) {
	exp := now.Add(ttl)
	claims := Claims{
		IsRefresh: refresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    id.Issuer,
			Audience:  jwt.ClaimStrings{i.Audience},
			ID:        id.TokenID,
			Subject:   strconv.FormatUint(uint64(id.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := i.Codec.Encode(claims, id.TokenSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}
