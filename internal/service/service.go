package service

import (
	"errors"

	"github.com/Skotchmaster/pineapple_admin/internal/session"
	"github.com/Skotchmaster/pineapple_admin/pkg/apiclient"
)

var (
	ErrValidation = errors.New("form is not valid")
	ErrNotFound   = errors.New("product not found")
	ErrNoToken    = errors.New("login answer carries no token")
)

// base binds the shared API client to one console session per call.
type base struct {
	API   *apiclient.Client
	Store session.Store
}

func (b base) client(sid string) *apiclient.Client {
	return b.API.Session(session.Provider{Store: b.Store, SessionID: sid})
}
