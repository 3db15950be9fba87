// Package audit records what operators did through the console.
package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/pineapple_admin/pkg/logging"
)

type Type string

const (
	Login          Type = "login"
	Logout         Type = "logout"
	ProductCreated Type = "product_created"
	ProductUpdated Type = "product_updated"
	ProductDeleted Type = "product_deleted"
)

type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	ActorEmail string    `json:"actor_email,omitempty"`
	ProductID  int64     `json:"product_id,omitempty"`
	Name       string    `json:"name,omitempty"`
	At         time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Multi publishes to every sink and reports all failures together.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Emit stamps e and publishes it. A failed publish is logged and never
// reaches the operator.
func Emit(ctx context.Context, p Publisher, e Event) {
	if p == nil {
		return
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	if err := p.Publish(ctx, e); err != nil {
		logging.FromContext(ctx).Warn("audit_publish_failed", "type", e.Type, "event_id", e.ID, "error", err)
	}
}
