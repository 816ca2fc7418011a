package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/authgate/internal/models"
	"github.com/Skotchmaster/authgate/internal/repo"
	"github.com/Skotchmaster/authgate/internal/token"
	"github.com/Skotchmaster/authgate/pkg/logging"
)

const (
	CtxUserID   = "user_id"
	CtxIdentity = "identity"
)

type UserResolver interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

// PipelineContext carries the per-request state between stages: the raw
// bearer string, the decoded token once structure checks pass, and the
// resolved identity once the user lookup succeeds.
type PipelineContext struct {
	RawToken string
	Token    *token.Token
	Identity models.Identity
}

// Pipeline is the ordered chain of request checks in front of every
// protected route. Stages run strictly in order and the cheap, context-free
// ones come first, so absent or garbage credentials are rejected before the
// database or cache is ever touched.
type Pipeline struct {
	Tokens *token.Manager
	Users  UserResolver
	Now    func() time.Time
}

func NewPipeline(tokens *token.Manager, users UserResolver) *Pipeline {
	return &Pipeline{Tokens: tokens, Users: users, Now: time.Now}
}

type stage func(c echo.Context, pc *PipelineContext) error

func (p *Pipeline) stages() []stage {
	return []stage{
		p.presence,
		p.structure,
		p.resolveUser,
		p.validateClaims,
		p.checkRevocation,
	}
}

func (p *Pipeline) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		pc := &PipelineContext{}
		for _, s := range p.stages() {
			if err := s(c, pc); err != nil {
				return err
			}
		}

		c.Set(CtxUserID, pc.Identity.ID)
		c.Set(CtxIdentity, pc.Identity)
		return next(c)
	}
}

func (p *Pipeline) presence(c echo.Context, pc *PipelineContext) error {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	raw, found := strings.CutPrefix(header, "Bearer ")
	raw = strings.TrimSpace(raw)
	if !found || raw == "" {
		return halt("token not present")
	}
	pc.RawToken = raw
	return nil
}

func (p *Pipeline) structure(c echo.Context, pc *PipelineContext) error {
	tok, err := p.Tokens.Parse(pc.RawToken)
	if tok == nil {
		l := logging.FromContext(c.Request().Context())
		l.Debug("token decode failed", "error", err)
		return halt("token not valid", err.Error())
	}
	pc.Token = tok
	return nil
}

func (p *Pipeline) resolveUser(c echo.Context, pc *PipelineContext) error {
	uid, err := pc.Token.UserID()
	if err != nil {
		return halt("invalid user for token")
	}

	user, err := p.Users.FindByID(c.Request().Context(), uid)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			logging.FromContext(c.Request().Context()).Warn("user lookup failed", "user_id", uid, "error", err)
		}
		return halt("invalid user for token")
	}
	pc.Identity = user.Identity()
	return nil
}

func (p *Pipeline) validateClaims(c echo.Context, pc *PipelineContext) error {
	errs := p.Tokens.Validate(pc.Token, pc.Identity, p.Now())
	if len(errs) > 0 {
		return halt("token not valid", errStrings(errs)...)
	}
	return nil
}

func (p *Pipeline) checkRevocation(c echo.Context, pc *PipelineContext) error {
	live, err := p.Tokens.IsLive(c.Request().Context(), pc.Identity, pc.RawToken)
	if err != nil {
		logging.FromContext(c.Request().Context()).Warn("revocation lookup failed", "user_id", pc.Identity.ID, "error", err)
		return halt("token not valid")
	}
	if !live {
		return halt("token not valid")
	}
	return nil
}

func halt(message string, details ...string) *echo.HTTPError {
	body := echo.Map{"message": message}
	if len(details) > 0 {
		body["errors"] = details
	}
	return echo.NewHTTPError(http.StatusUnauthorized, body)
}

func errStrings(errs []error) []string {
	out := make([]string, 0, len(errs))
	for _, err := range errs {
		out = append(out, err.Error())
	}
	return out
}
