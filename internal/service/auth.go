package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/pineapple_admin/internal/audit"
	"github.com/Skotchmaster/pineapple_admin/internal/models"
	"github.com/Skotchmaster/pineapple_admin/internal/session"
	"github.com/Skotchmaster/pineapple_admin/pkg/apiclient"
	"github.com/Skotchmaster/pineapple_admin/pkg/logging"
)

type AuthService struct {
	base
	Audit audit.Publisher
}

func NewAuthService(api *apiclient.Client, store session.Store, pub audit.Publisher) *AuthService {
	return &AuthService{base: base{API: api, Store: store}, Audit: pub}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a token and stores token and user under sid.
func (s *AuthService) Login(ctx context.Context, sid, email, password string) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := s.client(sid).Post(ctx, "/auth/login", loginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, ErrNoToken
	}
	if err := s.Store.Save(ctx, sid, session.Session{Token: resp.Token, User: resp.User}); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	audit.Emit(ctx, s.Audit, audit.Event{Type: audit.Login, ActorEmail: resp.User.Email})
	return &resp, nil
}

// Logout tells the API and then drops the session whatever the API said.
func (s *AuthService) Logout(ctx context.Context, sid string) error {
	user, _ := s.Store.CurrentUser(ctx, sid)
	apiErr := s.client(sid).Post(ctx, "/auth/logout", nil, nil)

	if err := s.Store.Clear(ctx, sid); err != nil {
		return errors.Join(apiErr, fmt.Errorf("clear session: %w", err))
	}

	e := audit.Event{Type: audit.Logout}
	if user != nil {
		e.ActorEmail = user.Email
	}
	audit.Emit(ctx, s.Audit, e)

	if apiErr != nil {
		logging.FromContext(ctx).Warn("logout_api_failed", "status", apiclient.StatusOf(apiErr), "error", apiErr)
	}
	return apiErr
}

func (s *AuthService) Me(ctx context.Context, sid string) (*models.User, error) {
	var out apiclient.Envelope[models.User]
	if err := s.client(sid).Get(ctx, "/auth/me", &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (s *AuthService) IsAuthenticated(ctx context.Context, sid string) bool {
	return sid != "" && s.Store.IsActive(ctx, sid)
}
