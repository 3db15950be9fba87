package service

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/pineapple_admin/internal/audit"
	"github.com/Skotchmaster/pineapple_admin/internal/forms"
	"github.com/Skotchmaster/pineapple_admin/pkg/apiclient"
)

func TestProductList(t *testing.T) {
	api, client := newFakeAPI(t)
	api.handle("GET /productos", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":[{"id":1,"nombre":"Piña","precio":"12.50","stock":3},{"id":2,"nombre":"Mango","precio":7,"stock":20}]}`)
	})
	store := InitTestStore(t)
	login(t, store, "sid-1")

	products, err := NewProductService(client, store, nil).List(context.Background(), "sid-1")
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.True(t, products[0].Precio.Equal(decimal.RequireFromString("12.5")))
	assert.True(t, products[1].Precio.Equal(decimal.NewFromInt(7)))
	assert.True(t, products[0].LowStock())
	assert.False(t, products[1].LowStock())
	assert.Equal(t, "Bearer tok-sid-1", api.authOf("GET /productos"))
}

func TestProductGet_NoDataIsNotFound(t *testing.T) {
	api, client := newFakeAPI(t)
	api.on("GET /productos/4", http.StatusOK, map[string]any{"data": nil})
	svc := NewProductService(client, InitTestStore(t), nil)

	_, err := svc.Get(context.Background(), "sid-1", 4)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProductCreate_InvalidFormNeverCallsAPI(t *testing.T) {
	api, client := newFakeAPI(t)
	svc := NewProductService(client, InitTestStore(t), nil)

	f := &forms.Product{Nombre: "", Precio: "0", Stock: "-1"}
	_, err := svc.Create(context.Background(), "sid-1", f)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Len(t, f.Errors, 3)
	assert.False(t, api.called("POST /productos"))

	_, err = svc.Update(context.Background(), "sid-1", 1, f)
	assert.ErrorIs(t, err, ErrValidation)
	assert.False(t, api.called("PUT /productos/1"))
}

func TestProductCreate_SendsMultipartAndAudits(t *testing.T) {
	api, client := newFakeAPI(t)
	var got map[string]string
	api.handle("POST /productos", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		got = map[string]string{
			"nombre": r.FormValue("nombre"),
			"precio": r.FormValue("precio"),
			"stock":  r.FormValue("stock"),
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"data":{"id":11,"nombre":"Piña","precio":"2.00","stock":0},"message":"Producto creado"}`)
	})
	store := InitTestStore(t)
	login(t, store, "sid-1")
	sink := &auditSink{}

	p, err := NewProductService(client, store, sink).Create(context.Background(), "sid-1", &forms.Product{Nombre: "Piña", Precio: "2.00", Stock: "0"})
	require.NoError(t, err)
	assert.Equal(t, int64(11), p.ID)
	assert.Equal(t, map[string]string{"nombre": "Piña", "precio": "2.00", "stock": "0"}, got)

	require.Len(t, sink.events, 1)
	assert.Equal(t, audit.ProductCreated, sink.events[0].Type)
	assert.Equal(t, int64(11), sink.events[0].ProductID)
	assert.Equal(t, "admin@example.com", sink.events[0].ActorEmail)
}

func TestProductUpdate_ValidationErrorFromAPI(t *testing.T) {
	api, client := newFakeAPI(t)
	api.on("PUT /productos/5", http.StatusUnprocessableEntity, map[string]any{
		"message": "The given data was invalid.",
		"errors":  map[string][]string{"nombre": {"El nombre ya existe"}},
	})
	sink := &auditSink{}
	svc := NewProductService(client, InitTestStore(t), sink)

	_, err := svc.Update(context.Background(), "sid-1", 5, &forms.Product{Nombre: "Piña", Precio: "1", Stock: "1"})
	errs, ok := apiclient.AsValidation(err)
	require.True(t, ok)
	assert.Equal(t, []string{"El nombre ya existe"}, errs.Messages())
	assert.Empty(t, sink.events)
}

func TestProductDelete(t *testing.T) {
	api, client := newFakeAPI(t)
	api.on("DELETE /productos/8", http.StatusOK, map[string]any{"message": "Producto eliminado"})
	store := InitTestStore(t)
	login(t, store, "sid-1")
	sink := &auditSink{}

	msg, err := NewProductService(client, store, sink).Delete(context.Background(), "sid-1", 8)
	require.NoError(t, err)
	assert.Equal(t, "Producto eliminado", msg)
	assert.Equal(t, "Bearer tok-sid-1", api.authOf("DELETE /productos/8"))
	require.Len(t, sink.events, 1)
	assert.Equal(t, int64(8), sink.events[0].ProductID)
}

func TestProductDelete_UnauthorizedClearsSession(t *testing.T) {
	api, client := newFakeAPI(t)
	api.on("DELETE /productos/8", http.StatusUnauthorized, map[string]string{"message": "Unauthenticated."})
	store := InitTestStore(t)
	login(t, store, "sid-1")

	_, err := NewProductService(client, store, nil).Delete(context.Background(), "sid-1", 8)
	assert.ErrorIs(t, err, apiclient.ErrUnauthenticated)
	assert.False(t, store.IsActive(context.Background(), "sid-1"))
}
