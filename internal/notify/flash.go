package notify

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
)

const (
	FlashCookie = "console_flash"
	ctxFlash    = "flash"

	// MaxFlashSize bounds the encoded cookie value. Browsers drop cookies over 4 KB.
	MaxFlashSize = 3500
	maxFlashText = 280
)

// FlashPresenter collects the dialogs of one request. Whatever is not rendered by the
// time the handler redirects travels to the next page in a read-once cookie.
type FlashPresenter struct {
	mu      sync.Mutex
	dialogs []Dialog
}

func (f *FlashPresenter) Present(d Dialog) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dialogs = append(f.dialogs, d)
}

func (f *FlashPresenter) Take() []Dialog {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.dialogs
	f.dialogs = nil
	return out
}

func (f *FlashPresenter) Pending() []Dialog {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Dialog(nil), f.dialogs...)
}

func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			f := &FlashPresenter{}
			if ck, err := c.Cookie(FlashCookie); err == nil && ck.Value != "" {
				if dialogs, err := DecodeDialogs(ck.Value); err == nil {
					f.dialogs = dialogs
				}
				c.SetCookie(&http.Cookie{Name: FlashCookie, Path: "/", MaxAge: -1, HttpOnly: true})
			}
			c.Set(ctxFlash, f)
			return next(c)
		}
	}
}

func FromContext(c echo.Context) *FlashPresenter {
	if f, ok := c.Get(ctxFlash).(*FlashPresenter); ok {
		return f
	}
	f := &FlashPresenter{}
	c.Set(ctxFlash, f)
	return f
}

// For builds the notifier of the current request.
func For(c echo.Context) *Service {
	return New(FromContext(c), FormAsker{Decision: c.FormValue("decision")})
}

// Redirect keeps the pending dialogs for the next page and answers 303.
func Redirect(c echo.Context, url string) error {
	if pending := FromContext(c).Take(); len(pending) > 0 {
		if v, err := encodeFlash(pending); err == nil {
			c.SetCookie(&http.Cookie{
				Name:     FlashCookie,
				Value:    v,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
	}
	return c.Redirect(http.StatusSeeOther, url)
}

// encodeFlash fits the dialogs into one cookie. Long texts are shortened first;
// if that is still too big only the latest dialog is kept.
func encodeFlash(dialogs []Dialog) (string, error) {
	v, err := EncodeDialogs(dialogs)
	if err != nil || len(v) <= MaxFlashSize {
		return v, err
	}
	short := make([]Dialog, len(dialogs))
	for i, d := range dialogs {
		d.Text = truncate(d.Text, maxFlashText)
		short[i] = d
	}
	v, err = EncodeDialogs(short)
	if err != nil || len(v) <= MaxFlashSize {
		return v, err
	}
	return EncodeDialogs(short[len(short)-1:])
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func EncodeDialogs(dialogs []Dialog) (string, error) {
	b, err := json.Marshal(dialogs)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeDialogs(v string) ([]Dialog, error) {
	b, err := base64.RawURLEncoding.DecodeString(v)
	if err != nil {
		return nil, err
	}
	var dialogs []Dialog
	if err := json.Unmarshal(b, &dialogs); err != nil {
		return nil, err
	}
	return dialogs, nil
}
