package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/authgate/internal/audit"
	"github.com/Skotchmaster/authgate/internal/events"
	"github.com/Skotchmaster/authgate/internal/hash"
	"github.com/Skotchmaster/authgate/internal/models"
	"github.com/Skotchmaster/authgate/internal/repo"
	"github.com/Skotchmaster/authgate/internal/token"
	"github.com/Skotchmaster/authgate/pkg/logging"
)

var ErrValidation = errors.New("validation error")
var ErrConflict = errors.New("user already exist")
var ErrInvalidCredentials = errors.New("invalid email or password")
var ErrInvalidRefreshToken = errors.New("invalid refresh token")

type AuthService struct {
	Repo     *repo.GormRepo
	Tokens   *token.Manager
	Producer *events.Producer
	Audit    *audit.Recorder
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

func (s *AuthService) Register(ctx context.Context, email, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := models.User{
		Email:        email,
		PasswordHash: pwHash,
		Issuer:       "authgate/" + uuid.NewString(),
		TokenID:      uuid.NewString(),
		TokenSecret:  uuid.NewString(),
		Status:       models.StatusActive,
	}

	if err := s.Repo.CreateIfNotExists(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			l.Warn("register_error", "reason", "user already exist")
			return nil, ErrConflict
		}
		l.Error("register_error", "error", err)
		return nil, err
	}

	s.publish(ctx, events.TypeUserRegistered, user.ID)
	s.Audit.Record(ctx, audit.Entry{Event: "register", UserID: user.ID})
	return &user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "email", email)

	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	user, err := s.Repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			l.Warn("login_failed", "reason", "unknown email")
			return nil, ErrInvalidCredentials
		}
		l.Error("login_failed", "error", err)
		return nil, err
	}
	if user.Status != models.StatusActive {
		l.Warn("login_failed", "reason", "inactive user")
		return nil, ErrInvalidCredentials
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "reason", "bad password")
		return nil, ErrInvalidCredentials
	}

	pair, err := s.Tokens.Issue(ctx, user.Identity())
	if err != nil {
		l.Error("login_failed", "error", err)
		return nil, err
	}

	s.publish(ctx, events.TypeUserLoggedIn, user.ID)
	s.Audit.Record(ctx, audit.Entry{Event: "login", UserID: user.ID})
	l.Info("login_successful", "user_id", user.ID)

	return &LoginResult{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		AccessExp:    pair.AccessExpiresAt,
		RefreshExp:   pair.RefreshExpiresAt,
	}, nil
}

// Refresh exchanges a live refresh token for a new pair. The old pair is
// revoked before the new one is issued, so a presented refresh token can
// be used exactly once.
func (s *AuthService) Refresh(ctx context.Context, rawRefresh string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	tok, decErr := s.Tokens.Parse(rawRefresh)
	if tok == nil {
		l.Debug("refresh_failed", "reason", "undecodable token", "error", decErr)
		return nil, ErrInvalidRefreshToken
	}
	if !tok.Claims.IsRefresh {
		l.Warn("refresh_failed", "reason", "access token presented for refresh")
		return nil, ErrInvalidRefreshToken
	}

	uid, err := tok.UserID()
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}
	user, err := s.Repo.FindByID(ctx, uid)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	id := user.Identity()
	if errs := s.Tokens.ValidateForUse(ctx, tok, id, s.Tokens.Now()); len(errs) > 0 {
		l.Warn("refresh_failed", "reason", "token rejected", "errors", errStrings(errs))
		s.Audit.Record(ctx, audit.Entry{Event: "refresh_rejected", UserID: uid, Errors: errStrings(errs)})
		return nil, ErrInvalidRefreshToken
	}

	pair, err := s.Tokens.Refresh(ctx, id)
	if err != nil {
		l.Error("refresh_failed", "error", err)
		return nil, err
	}

	s.publish(ctx, events.TypeTokensRefreshed, user.ID)
	s.Audit.Record(ctx, audit.Entry{Event: "refresh", UserID: user.ID})

	return &LoginResult{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		AccessExp:    pair.AccessExpiresAt,
		RefreshExp:   pair.RefreshExpiresAt,
	}, nil
}

func (s *AuthService) LogOut(ctx context.Context, id models.Identity) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	if err := s.Tokens.Revoke(ctx, id); err != nil {
		l.Error("logout_failed", "user_id", id.ID, "error", err)
		return err
	}

	s.publish(ctx, events.TypeUserLoggedOut, id.ID)
	s.Audit.Record(ctx, audit.Entry{Event: "logout", UserID: id.ID})
	return nil
}

// LogOutEverywhere rotates the user's token_id and token_secret and wipes
// the revocation store. Rotation alone already invalidates every issued
// token; the revoke keeps the store from holding dead entries until their
// TTL runs out.
func (s *AuthService) LogOutEverywhere(ctx context.Context, userID uint) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout_everywhere")

	user, err := s.Repo.RotateCredentials(ctx, userID)
	if err != nil {
		l.Error("rotate_failed", "user_id", userID, "error", err)
		return err
	}

	if err := s.Tokens.Revoke(ctx, user.Identity()); err != nil {
		l.Warn("revoke_after_rotate_failed", "user_id", userID, "error", err)
	}

	s.publish(ctx, events.TypeCredentialsRotated, userID)
	s.Audit.Record(ctx, audit.Entry{Event: "credentials_rotated", UserID: userID})
	return nil
}

func (s *AuthService) publish(ctx context.Context, eventType string, userID uint) {
	if err := s.Producer.PublishEvent(ctx, eventType, userID); err != nil {
		logging.FromContext(ctx).Warn("event publish failed", "type", eventType, "error", err)
	}
}

func errStrings(errs []error) []string {
	out := make([]string, 0, len(errs))
	for _, err := range errs {
		out = append(out, err.Error())
	}
	return out
}
