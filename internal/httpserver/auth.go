package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/authgate/internal/middleware"
	"github.com/Skotchmaster/authgate/internal/models"
	"github.com/Skotchmaster/authgate/internal/service"
	"github.com/Skotchmaster/authgate/pkg/logging"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.Register(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
		case errors.Is(err, service.ErrConflict):
			return echo.NewHTTPError(http.StatusConflict, "user already exist")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "register failed")
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":    user.ID,
		"email": user.Email,
	})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidCredentials):
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":       res.AccessToken,
		"refresh_token":      res.RefreshToken,
		"access_expires_at":  res.AccessExp.Unix(),
		"refresh_expires_at": res.RefreshExp.Unix(),
	})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("refresh_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Refresh(ctx, req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefreshToken) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "refresh failed")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":       res.AccessToken,
		"refresh_token":      res.RefreshToken,
		"access_expires_at":  res.AccessExp.Unix(),
		"refresh_expires_at": res.RefreshExp.Unix(),
	})
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()

	id, ok := c.Get(middleware.CtxIdentity).(models.Identity)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "token not present")
	}

	if err := h.Svc.LogOut(ctx, id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "logout failed")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "logged out",
	})
}

func (h *AuthHTTP) LogOutEverywhere(c echo.Context) error {
	ctx := c.Request().Context()

	id, ok := c.Get(middleware.CtxIdentity).(models.Identity)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "token not present")
	}

	if err := h.Svc.LogOutEverywhere(ctx, id.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "logout failed")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "logged out everywhere",
	})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	id, ok := c.Get(middleware.CtxIdentity).(models.Identity)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "token not present")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":     id.ID,
		"issuer": id.Issuer,
	})
}
