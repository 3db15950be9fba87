// Package web renders the console pages.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/pineapple_admin/internal/models"
	"github.com/Skotchmaster/pineapple_admin/internal/notify"
)

//go:embed templates/*.html
var files embed.FS

const (
	PageLogin       = "login"
	PageDashboard   = "dashboard"
	PageProducts    = "products"
	PageProductForm = "product_form"
	PageConfirm     = "confirm"
)

// Page is what every template gets. Data holds the page-specific view.
type Page struct {
	Title   string
	Active  string
	User    *models.User
	CSRF    string
	Dialogs []notify.Dialog
	Data    any
}

type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"timer": func(d time.Duration) int64 { return d.Milliseconds() },
}

func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: map[string]*template.Template{}}
	for _, name := range []string{PageLogin, PageDashboard, PageProducts, PageProductForm, PageConfirm} {
		t, err := template.New(name).Funcs(funcs).ParseFS(files, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

func (r *Renderer) Render(w io.Writer, name string, data any, c echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}
