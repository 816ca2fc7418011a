package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/authgate/internal/middleware"
)

type Deps struct {
	AuthHandler *AuthHTTP
	Pipeline    *middleware.Pipeline
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	e.POST("/register", d.AuthHandler.Register)
	e.POST("/login", d.AuthHandler.Login)
	e.POST("/refresh", d.AuthHandler.Refresh)

	private := e.Group("")
	private.Use(d.Pipeline.RequireAuth)

	private.POST("/logout", d.AuthHandler.LogOut)
	private.POST("/logout/all", d.AuthHandler.LogOutEverywhere)
	private.GET("/me", d.AuthHandler.Me)
}
