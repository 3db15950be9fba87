// Package notify shows operator feedback as dialogs: transient acknowledgments,
// modal errors and yes/no confirmations.
package notify

import (
	"context"
	"strings"
	"time"

	"github.com/Skotchmaster/pineapple_admin/pkg/apiclient"
)

type Icon string

const (
	IconSuccess Icon = "success"
	IconError   Icon = "error"
	IconWarning Icon = "warning"
	IconInfo    Icon = "info"
)

const (
	SuccessTimer        = 1500 * time.Millisecond
	DefaultConfirmTitle = "¿Estás seguro?"
)

type Dialog struct {
	Icon              Icon          `json:"icon"`
	Title             string        `json:"title"`
	Text              string        `json:"text"`
	Timer             time.Duration `json:"timer,omitempty"`
	ShowConfirmButton bool          `json:"show_confirm,omitempty"`
	ShowCancelButton  bool          `json:"show_cancel,omitempty"`
	ConfirmText       string        `json:"confirm_text,omitempty"`
	CancelText        string        `json:"cancel_text,omitempty"`
}

type Result int

const (
	Dismissed Result = iota
	Confirmed
	Cancelled
)

type Presenter interface {
	Present(d Dialog)
}

type Asker interface {
	Ask(ctx context.Context, d Dialog) (Result, error)
}

// Confirmer is what screens get when they need a yes/no answer.
type Confirmer interface {
	Confirm(ctx context.Context, message string, title ...string) bool
}

type Service struct {
	presenter Presenter
	asker     Asker
}

func New(p Presenter, a Asker) *Service {
	return &Service{presenter: p, asker: a}
}

func (s *Service) Success(message string) {
	s.presenter.Present(Dialog{
		Icon:  IconSuccess,
		Title: "¡Éxito!",
		Text:  message,
		Timer: SuccessTimer,
	})
}

func (s *Service) Error(message string) {
	s.presenter.Present(modal(IconError, "Error", message))
}

func (s *Service) Warning(message string) {
	s.presenter.Present(modal(IconWarning, "¡Atención!", message))
}

func (s *Service) Info(message string) {
	s.presenter.Present(modal(IconInfo, "Información", message))
}

// ValidationErrors shows every message in one error dialog, one per line.
func (s *Service) ValidationErrors(errs apiclient.ValidationErrors) {
	s.presenter.Present(modal(IconError, "Error de validación", strings.Join(errs.Messages(), "\n")))
}

// Confirm is true only when the operator explicitly confirmed.
func (s *Service) Confirm(ctx context.Context, message string, title ...string) bool {
	if s.asker == nil {
		return false
	}
	res, err := s.asker.Ask(ctx, ConfirmDialog(message, title...))
	return err == nil && res == Confirmed
}

func ConfirmDialog(message string, title ...string) Dialog {
	t := DefaultConfirmTitle
	if len(title) > 0 && title[0] != "" {
		t = title[0]
	}
	return Dialog{
		Icon:              IconWarning,
		Title:             t,
		Text:              message,
		ShowConfirmButton: true,
		ShowCancelButton:  true,
		ConfirmText:       "Sí, confirmar",
		CancelText:        "Cancelar",
	}
}

func modal(icon Icon, title, text string) Dialog {
	return Dialog{
		Icon:              icon,
		Title:             title,
		Text:              text,
		ShowConfirmButton: true,
		ConfirmText:       "OK",
	}
}
