package auth

import (
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/pineapple_admin/internal/models"
	"github.com/Skotchmaster/pineapple_admin/internal/notify"
	"github.com/Skotchmaster/pineapple_admin/internal/session"
	"github.com/Skotchmaster/pineapple_admin/pkg/logging"
	"github.com/Skotchmaster/pineapple_admin/pkg/tokens"
)

const (
	ctxSessionID = "sid"
	ctxUser      = "user"

	LoginPath = "/login"
)

// Guard ties the session cookie to the store. Holding a cookie is not enough to
// pass: the store must still have a token for that sid.
type Guard struct {
	Store  session.Store
	Secret []byte
	Secure bool
}

func (g *Guard) RequireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		sid := g.cookieSessionID(c)
		if sid == "" || !g.Store.IsActive(ctx, sid) {
			logging.FromContext(ctx).Info("session_required", "uri", c.Request().RequestURI)
			return notify.Redirect(c, LoginURL(c.Request().RequestURI))
		}

		c.Set(ctxSessionID, sid)
		if u, err := g.Store.CurrentUser(ctx, sid); err == nil {
			c.Set(ctxUser, u)
		}
		return next(c)
	}
}

// Identify sets the sid when the request carries a valid cookie and lets every
// request through.
func (g *Guard) Identify(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if sid := g.cookieSessionID(c); sid != "" {
			c.Set(ctxSessionID, sid)
		}
		return next(c)
	}
}

// Renew ends whatever session the request named and issues a fresh sid with
// its own cookie. Every login attempt starts from a renewed sid.
func (g *Guard) Renew(c echo.Context) (string, error) {
	prev := SessionID(c)
	if prev == "" {
		prev = g.cookieSessionID(c)
	}
	if prev != "" {
		if err := g.Store.Clear(c.Request().Context(), prev); err != nil {
			return "", fmt.Errorf("clear previous session: %w", err)
		}
	}

	sid := uuid.NewString()
	tok, err := tokens.SignSession(sid, g.Secret)
	if err != nil {
		return "", err
	}
	c.SetCookie(tokens.CreateCookie(tokens.SessionCookie, tok, "/", g.Secure))
	c.Set(ctxSessionID, sid)
	c.Set(ctxUser, nil)
	return sid, nil
}

func (g *Guard) End(c echo.Context) {
	c.SetCookie(tokens.DeleteCookie(tokens.SessionCookie, "/"))
	c.Set(ctxSessionID, "")
	c.Set(ctxUser, nil)
}

func (g *Guard) cookieSessionID(c echo.Context) string {
	ck, err := c.Cookie(tokens.SessionCookie)
	if err != nil || ck.Value == "" {
		return ""
	}
	sid, err := tokens.SessionIDFromToken(ck.Value, g.Secret)
	if err != nil {
		logging.FromContext(c.Request().Context()).Warn("session_cookie_rejected", "error", err)
		return ""
	}
	return sid
}

func SessionID(c echo.Context) string {
	sid, _ := c.Get(ctxSessionID).(string)
	return sid
}

func User(c echo.Context) *models.User {
	u, _ := c.Get(ctxUser).(*models.User)
	return u
}

func LoginURL(from string) string {
	if from == "" || from == LoginPath {
		return LoginPath
	}
	return LoginPath + "?from=" + url.QueryEscape(from)
}
