package auth

import (
	"context"
	"sync/atomic"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/pineapple_admin/internal/notify"
	"github.com/Skotchmaster/pineapple_admin/pkg/apiclient"
	"github.com/Skotchmaster/pineapple_admin/pkg/logging"
)

type signalKey struct{}

type signal struct {
	raised atomic.Bool
}

// Listener is handed to the API client. It marks the request whose call was
// answered with 401; the session is already gone by then.
var Listener = apiclient.ListenerFunc(func(ctx context.Context) {
	if s, ok := ctx.Value(signalKey{}).(*signal); ok {
		s.raised.Store(true)
	}
})

// Raised reports whether an API call made with ctx came back 401.
func Raised(ctx context.Context) bool {
	s, ok := ctx.Value(signalKey{}).(*signal)
	return ok && s.raised.Load()
}

// Unauthenticated turns a raised signal into a redirect to the login page.
// Handlers that hit a 401 just return; nothing else decides about the redirect.
func Unauthenticated() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s := &signal{}
			ctx := context.WithValue(c.Request().Context(), signalKey{}, s)
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)
			if !s.raised.Load() || c.Response().Committed {
				return err
			}

			logging.FromContext(ctx).Warn("session_rejected", "status", 401, "uri", c.Request().RequestURI)
			return notify.Redirect(c, LoginPath)
		}
	}
}
