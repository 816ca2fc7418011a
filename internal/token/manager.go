package token

import (
	"context"
	"errors"
	"time"

	"github.com/Skotchmaster/authgate/internal/models"
	"github.com/Skotchmaster/authgate/pkg/logging"
)

// ErrTokenNotValid is the single error returned for a token that passed
// every claims and signature check but has no live revocation entry. It is
// deliberately the same generic message a forged token gets, so callers
// cannot tell a revoked token from a fake one.
var ErrTokenNotValid = errors.New("token is not valid")

type Pair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// Manager is the orchestration surface over issuer, validator and
// revocation store that the rest of the service calls.
type Manager struct {
	Issuer     *Issuer
	Validator  *Validator
	Revocation *RevocationStore
	Codec      Codec

	// FailClosed makes Issue fail when a revocation entry cannot be
	// recorded. Default is fail-open: login still succeeds and the token
	// simply cannot be instantly revoked.
	FailClosed bool

	Now func() time.Time
}

func NewManager(issuer *Issuer, validator *Validator, revocation *RevocationStore, failClosed bool) *Manager {
	return &Manager{
		Issuer:     issuer,
		Validator:  validator,
		Revocation: revocation,
		FailClosed: failClosed,
		Now:        time.Now,
	}
}

func (m *Manager) Issue(ctx context.Context, id models.Identity) (*Pair, error) {
	now := m.Now()

	access, accessExp, err := m.Issuer.AccessToken(id, now)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := m.Issuer.RefreshToken(id, now)
	if err != nil {
		return nil, err
	}

	if err := m.record(ctx, id, access, accessExp); err != nil {
		return nil, err
	}
	if err := m.record(ctx, id, refresh, refreshExp); err != nil {
		return nil, err
	}

	return &Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (m *Manager) record(ctx context.Context, id models.Identity, raw string, exp time.Time) error {
	err := m.Revocation.Record(ctx, id, raw, exp)
	if err == nil {
		return nil
	}
	if m.FailClosed {
		return err
	}
	l := logging.FromContext(ctx)
	l.Warn("revocation record failed, token will not be instantly revocable",
		"user_id", id.ID, "error", err)
	return nil
}

// Parse wraps the codec and collapses every decode failure into a nil
// token, so callers get one uniform "missing or garbage token"
// classification. The decode error is still returned for diagnostics.
func (m *Manager) Parse(raw string) (*Token, error) {
	tok, err := m.Codec.Decode(raw)
	if err != nil {
		return nil, err
	}
	return tok, nil
}

func (m *Manager) Validate(tok *Token, id models.Identity, now time.Time) []error {
	return m.Validator.Validate(tok, id, now)
}

func (m *Manager) IsLive(ctx context.Context, id models.Identity, raw string) (bool, error) {
	return m.Revocation.IsLive(ctx, id, raw)
}

// ValidateForUse runs the full validator suite and then requires a live
// revocation entry. By the time the revocation check runs the token has
// already passed every claims rule, so the only remaining question is
// binary and the answer is the single ErrTokenNotValid.
func (m *Manager) ValidateForUse(ctx context.Context, tok *Token, id models.Identity, now time.Time) []error {
	if errs := m.Validator.Validate(tok, id, now); len(errs) > 0 {
		return errs
	}

	live, err := m.Revocation.IsLive(ctx, id, tok.Raw)
	if err != nil {
		logging.FromContext(ctx).Warn("revocation lookup failed", "user_id", id.ID, "error", err)
		return []error{ErrTokenNotValid}
	}
	if !live {
		return []error{ErrTokenNotValid}
	}
	return nil
}

// Refresh rotates the identity's token pair: every previously issued token
// is revoked before the new pair is recorded, so a used refresh token can
// never be replayed.
func (m *Manager) Refresh(ctx context.Context, id models.Identity) (*Pair, error) {
	if err := m.Revocation.RevokeAll(ctx, id); err != nil {
		return nil, err
	}
	return m.Issue(ctx, id)
}

func (m *Manager) Revoke(ctx context.Context, id models.Identity) error {
	return m.Revocation.RevokeAll(ctx, id)
}
