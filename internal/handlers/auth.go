package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/pineapple_admin/internal/middleware/auth"
	"github.com/Skotchmaster/pineapple_admin/internal/notify"
	"github.com/Skotchmaster/pineapple_admin/internal/service"
	"github.com/Skotchmaster/pineapple_admin/internal/web"
	"github.com/Skotchmaster/pineapple_admin/pkg/apiclient"
	"github.com/Skotchmaster/pineapple_admin/pkg/logging"
)

const (
	msgLoginMissing = "Ingresa tu correo y contraseña"
	msgBadLogin     = "Credenciales inválidas"
	msgLoginFailed  = "Error al iniciar sesión"
)

type AuthHandler struct {
	Auth  *service.AuthService
	Guard *auth.Guard
}

type loginView struct {
	Email string
	// From is kept so the form can send it back; login does not use it yet.
	From string
}

func (h *AuthHandler) LoginPage(c echo.Context) error {
	if h.Auth.IsAuthenticated(c.Request().Context(), auth.SessionID(c)) {
		return notify.Redirect(c, "/dashboard")
	}
	return render(c, http.StatusOK, web.PageLogin, web.Page{
		Title: "Iniciar sesión",
		Data:  loginView{From: c.QueryParam("from")},
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx)
	n := notify.For(c)

	view := loginView{
		Email: strings.TrimSpace(c.FormValue("email")),
		From:  c.FormValue("from"),
	}
	password := c.FormValue("password")
	page := web.Page{Title: "Iniciar sesión", Data: view}

	if view.Email == "" || password == "" {
		n.Warning(msgLoginMissing)
		return render(c, http.StatusUnprocessableEntity, web.PageLogin, page)
	}

	sid, err := h.Guard.Renew(c)
	if err != nil {
		l.Error("session_start_failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not start session")
	}

	resp, err := h.Auth.Login(ctx, sid, view.Email, password)
	if err != nil {
		l.Warn("login_failed", "status", apiclient.StatusOf(err), "email", view.Email, "error", err)
		if rejected(err) {
			n.Error(msgBadLogin)
			return err
		}
		if errs, ok := apiclient.AsValidation(err); ok {
			n.ValidationErrors(errs)
			return render(c, http.StatusUnprocessableEntity, web.PageLogin, page)
		}
		n.Error(msgLoginFailed)
		return render(c, http.StatusOK, web.PageLogin, page)
	}

	l.Info("login_succeeded", "user_id", resp.User.ID)
	return notify.Redirect(c, "/dashboard")
}

// Logout always ends the console session, even if the API call fails.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	if sid := auth.SessionID(c); sid != "" {
		if err := h.Auth.Logout(ctx, sid); err != nil && !rejected(err) {
			logging.FromContext(ctx).Warn("logout_failed", "status", apiclient.StatusOf(err), "error", err)
		}
	}
	h.Guard.End(c)
	return notify.Redirect(c, auth.LoginPath)
}
