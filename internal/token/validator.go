package token

import (
	"errors"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Skotchmaster/authgate/internal/models"
)

var (
	ErrIncorrectID        = errors.New("incorrect id")
	ErrAudienceNotAllowed = errors.New("audience not allowed")
	ErrIncorrectIssuer    = errors.New("incorrect issuer")
	ErrNotYetValid        = errors.New("token not yet valid")
	ErrIssuedInFuture     = errors.New("token issued in the future")
	ErrExpired            = errors.New("token expired")
	ErrSignatureMismatch  = errors.New("signature mismatch")
	ErrIncorrectSubject   = errors.New("incorrect subject")
)

// Validator checks a decoded token against the identity's current
// credentials. Every rule is evaluated independently and all violations
// are returned, so callers see the complete diagnostic regardless of
// evaluation order.
type Validator struct {
	Audience string
}

func (v *Validator) Validate(tok *Token, id models.Identity, now time.Time) []error {
	var errs []error

	if tok.Claims.ID != id.TokenID {
		errs = append(errs, ErrIncorrectID)
	}
	if !slices.Contains(tok.Claims.Audience, v.Audience) {
		errs = append(errs, ErrAudienceNotAllowed)
	}
	if tok.Claims.Issuer != id.Issuer {
		errs = append(errs, ErrIncorrectIssuer)
	}
	if tok.Claims.NotBefore == nil || now.Before(tok.Claims.NotBefore.Time) {
		errs = append(errs, ErrNotYetValid)
	}
	if tok.Claims.IssuedAt == nil || now.Before(tok.Claims.IssuedAt.Time) {
		errs = append(errs, ErrIssuedInFuture)
	}
	if tok.Claims.ExpiresAt == nil || !now.Before(tok.Claims.ExpiresAt.Time) {
		errs = append(errs, ErrExpired)
	}
	if err := v.verifySignature(tok, id); err != nil {
		errs = append(errs, ErrSignatureMismatch)
	}
	if sub, err := tok.UserID(); err != nil || sub != id.ID {
		errs = append(errs, ErrIncorrectSubject)
	}

	return errs
}

func (v *Validator) verifySignature(tok *Token, id models.Identity) error {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	_, err := parser.Parse(tok.Raw, func(t *jwt.Token) (any, error) {
		return []byte(id.TokenSecret), nil
	})
	return err
}
