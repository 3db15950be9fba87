package service

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/pineapple_admin/internal/audit"
	"github.com/Skotchmaster/pineapple_admin/internal/forms"
	"github.com/Skotchmaster/pineapple_admin/internal/models"
	"github.com/Skotchmaster/pineapple_admin/internal/session"
	"github.com/Skotchmaster/pineapple_admin/pkg/apiclient"
)

type ProductService struct {
	base
	Audit audit.Publisher
}

func NewProductService(api *apiclient.Client, store session.Store, pub audit.Publisher) *ProductService {
	return &ProductService{base: base{API: api, Store: store}, Audit: pub}
}

func (s *ProductService) List(ctx context.Context, sid string) ([]models.Product, error) {
	var out apiclient.Envelope[[]models.Product]
	if err := s.client(sid).Get(ctx, "/productos", &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// Get fails with ErrNotFound when the API answers without data.
func (s *ProductService) Get(ctx context.Context, sid string, id int64) (*models.Product, error) {
	var out apiclient.Envelope[*models.Product]
	if err := s.client(sid).Get(ctx, productPath(id), &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		return nil, ErrNotFound
	}
	return out.Data, nil
}

// Create and Update refuse a form that does not validate without calling the API.
func (s *ProductService) Create(ctx context.Context, sid string, f *forms.Product) (*models.Product, error) {
	if !f.Validate() {
		return nil, ErrValidation
	}
	var out apiclient.Envelope[*models.Product]
	if err := s.client(sid).PostForm(ctx, "/productos", f.Multipart(), &out); err != nil {
		return nil, err
	}
	s.emit(ctx, sid, audit.ProductCreated, out.Data, f.Nombre)
	return out.Data, nil
}

func (s *ProductService) Update(ctx context.Context, sid string, id int64, f *forms.Product) (*models.Product, error) {
	if !f.Validate() {
		return nil, ErrValidation
	}
	var out apiclient.Envelope[*models.Product]
	if err := s.client(sid).PutForm(ctx, productPath(id), f.Multipart(), &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		out.Data = &models.Product{ID: id}
	}
	s.emit(ctx, sid, audit.ProductUpdated, out.Data, f.Nombre)
	return out.Data, nil
}

// Delete returns the API message, if any.
func (s *ProductService) Delete(ctx context.Context, sid string, id int64) (string, error) {
	var out apiclient.Envelope[any]
	if err := s.client(sid).Delete(ctx, productPath(id), &out); err != nil {
		return "", err
	}
	s.emit(ctx, sid, audit.ProductDeleted, &models.Product{ID: id}, "")
	return out.Message, nil
}

func (s *ProductService) emit(ctx context.Context, sid string, typ audit.Type, p *models.Product, name string) {
	e := audit.Event{Type: typ, Name: name}
	if p != nil {
		e.ProductID = p.ID
		if e.Name == "" {
			e.Name = p.Nombre
		}
	}
	if u, err := s.Store.CurrentUser(ctx, sid); err == nil {
		e.ActorEmail = u.Email
	}
	audit.Emit(ctx, s.Audit, e)
}

func productPath(id int64) string {
	return fmt.Sprintf("/productos/%d", id)
}
