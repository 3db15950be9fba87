package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/pineapple_admin/internal/models"
)

var ErrNoSession = errors.New("no active session")

// Entry names. A session never owns anything else.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

type Session struct {
	Token string
	User  models.User
}

// Store persists one operator session per sid. IsActive only looks at the
// presence of a token; the API is the one that rejects stale tokens.
type Store interface {
	Save(ctx context.Context, sid string, s Session) error
	Clear(ctx context.Context, sid string) error
	IsActive(ctx context.Context, sid string) bool
	CurrentToken(ctx context.Context, sid string) (string, error)
	CurrentUser(ctx context.Context, sid string) (*models.User, error)
}

// Provider binds a Store to one sid for the API client.
type Provider struct {
	Store     Store
	SessionID string
}

// Token reads the bearer token of the bound sid. A token that no longer opens,
// for example after SESSION_SECRET changed, ends the session.
func (p Provider) Token(ctx context.Context) (string, error) {
	if p.SessionID == "" {
		return "", nil
	}
	token, err := p.Store.CurrentToken(ctx, p.SessionID)
	switch {
	case errors.Is(err, ErrNoSession):
		return "", nil
	case errors.Is(err, ErrSealed):
		if err := p.Store.Clear(ctx, p.SessionID); err != nil {
			return "", fmt.Errorf("clear unreadable session: %w", err)
		}
		return "", nil
	}
	return token, err
}

func (p Provider) Clear(ctx context.Context) error {
	if p.SessionID == "" {
		return nil
	}
	return p.Store.Clear(ctx, p.SessionID)
}
