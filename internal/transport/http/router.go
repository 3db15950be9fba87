package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/pineapple_admin/internal/handlers"
	"github.com/Skotchmaster/pineapple_admin/internal/middleware/auth"
	"github.com/Skotchmaster/pineapple_admin/internal/middleware/csrf"
	"github.com/Skotchmaster/pineapple_admin/internal/notify"
	"github.com/Skotchmaster/pineapple_admin/pkg/logging"
)

type Deps struct {
	Renderer       echo.Renderer
	Guard          *auth.Guard
	AuthHandler    *handlers.AuthHandler
	DashHandler    *handlers.DashboardHandler
	ProductHandler *handlers.ProductHandler

	// CSRF is nil when forms are not protected.
	CSRF *csrf.Config
	// Ready reports whether the session store can be used.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.Renderer = d.Renderer

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				logging.FromContext(c.Request().Context()).Error("not_ready", "error", err)
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})

	e.Use(notify.Middleware(), auth.Unauthenticated())
	if d.CSRF != nil {
		e.Use(csrf.Middleware(*d.CSRF))
	}
	e.Use(d.Guard.Identify)

	e.GET("/login", d.AuthHandler.LoginPage)
	e.POST("/login", d.AuthHandler.Login)
	e.POST("/logout", d.AuthHandler.Logout)

	e.GET("/", handlers.Home, d.Guard.RequireSession)
	e.GET("/dashboard", d.DashHandler.Show, d.Guard.RequireSession)

	products := e.Group("/products", d.Guard.RequireSession)

	products.GET("", d.ProductHandler.List)
	products.GET("/new", d.ProductHandler.New)
	products.POST("", d.ProductHandler.Create)
	products.GET("/:id/edit", d.ProductHandler.Edit)
	products.POST("/:id", d.ProductHandler.Update)
	products.GET("/:id/delete", d.ProductHandler.ConfirmDelete)
	products.POST("/:id/delete", d.ProductHandler.Delete)
}
