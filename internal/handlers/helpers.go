package handlers

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/pineapple_admin/internal/middleware/auth"
	"github.com/Skotchmaster/pineapple_admin/internal/middleware/csrf"
	"github.com/Skotchmaster/pineapple_admin/internal/notify"
	"github.com/Skotchmaster/pineapple_admin/internal/web"
	"github.com/Skotchmaster/pineapple_admin/pkg/apiclient"
)

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid product id")
	}
	return id, nil
}

// render shows the page together with every dialog still pending for this
// request.
func render(c echo.Context, code int, name string, p web.Page) error {
	p.CSRF = csrf.Token(c)
	if p.User == nil {
		p.User = auth.User(c)
	}
	p.Dialogs = append(notify.FromContext(c).Take(), p.Dialogs...)
	return c.Render(code, name, p)
}

// rejected is true when the API refused the session. The handler then returns
// the error as is and the unauthenticated middleware redirects.
func rejected(err error) bool {
	return errors.Is(err, apiclient.ErrUnauthenticated)
}
