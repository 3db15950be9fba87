package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/pineapple_admin/internal/forms"
	"github.com/Skotchmaster/pineapple_admin/internal/middleware/auth"
	"github.com/Skotchmaster/pineapple_admin/internal/notify"
	"github.com/Skotchmaster/pineapple_admin/internal/service"
	"github.com/Skotchmaster/pineapple_admin/internal/util"
	"github.com/Skotchmaster/pineapple_admin/internal/web"
	"github.com/Skotchmaster/pineapple_admin/pkg/apiclient"
	"github.com/Skotchmaster/pineapple_admin/pkg/logging"
)

const (
	msgCreated      = "Producto creado correctamente"
	msgUpdated      = "Producto actualizado correctamente"
	msgDeleted      = "Producto eliminado correctamente"
	msgSaveFailed   = "Error al guardar el producto"
	msgListFailed   = "Error al cargar los productos"
	msgDeleteFailed = "Error al eliminar el producto"
	msgLoadFailed   = "Error al cargar el producto: "
	msgNotFound     = "No se encontró el producto"

	deleteTitle  = "¿Eliminar producto?"
	deletePrompt = "Esta acción no se puede deshacer. ¿Deseas continuar?"

	productsPath = "/products"
)

type ProductHandler struct {
	Products *service.ProductService
	// Confirmer answers the delete question for a request. Defaults to the
	// decision posted by the confirmation page.
	Confirmer func(c echo.Context) notify.Confirmer
}

type productFormView struct {
	ID     int64
	Action string
	Form   forms.Product
}

type confirmView struct {
	Dialog notify.Dialog
	Action string
}

func (h *ProductHandler) confirmer(c echo.Context) notify.Confirmer {
	if h.Confirmer != nil {
		return h.Confirmer(c)
	}
	return notify.For(c)
}

func (h *ProductHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)

	products, err := h.Products.List(ctx, auth.SessionID(c))
	if err != nil {
		if rejected(err) {
			return err
		}
		logging.FromContext(ctx).Error("list_products_failed", "status", apiclient.StatusOf(err), "error", err)
		notify.For(c).Error(msgListFailed)
		products = nil
	}

	return render(c, http.StatusOK, web.PageProducts, web.Page{
		Title:  "Productos",
		Active: "products",
		Data:   util.Paginate(products, page, size),
	})
}

func (h *ProductHandler) New(c echo.Context) error {
	return h.renderForm(c, http.StatusOK, 0, forms.Product{})
}

func (h *ProductHandler) Create(c echo.Context) error {
	f := forms.ParseProduct(c)
	_, err := h.Products.Create(c.Request().Context(), auth.SessionID(c), &f)
	return h.afterSave(c, 0, f, err, msgCreated)
}

func (h *ProductHandler) Edit(c echo.Context) error {
	ctx := c.Request().Context()
	n := notify.For(c)

	id, err := parseID(c)
	if err != nil {
		n.Error(msgNotFound)
		return notify.Redirect(c, productsPath)
	}

	p, err := h.Products.Get(ctx, auth.SessionID(c), id)
	switch {
	case err == nil:
		return h.renderForm(c, http.StatusOK, id, forms.FromProduct(*p))
	case rejected(err):
		return err
	case errors.Is(err, service.ErrNotFound):
		n.Error(msgNotFound)
	default:
		logging.FromContext(ctx).Error("get_product_failed", "product_id", id, "status", apiclient.StatusOf(err), "error", err)
		n.Error(msgLoadFailed + apiclient.MessageOf(err))
	}
	return notify.Redirect(c, productsPath)
}

func (h *ProductHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		notify.For(c).Error(msgNotFound)
		return notify.Redirect(c, productsPath)
	}
	f := forms.ParseProduct(c)
	_, err = h.Products.Update(c.Request().Context(), auth.SessionID(c), id, &f)
	return h.afterSave(c, id, f, err, msgUpdated)
}

// ConfirmDelete asks before anything is removed.
func (h *ProductHandler) ConfirmDelete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		notify.For(c).Error(msgNotFound)
		return notify.Redirect(c, productsPath)
	}
	return render(c, http.StatusOK, web.PageConfirm, web.Page{
		Title:  deleteTitle,
		Active: "products",
		Data: confirmView{
			Dialog: notify.ConfirmDialog(deletePrompt, deleteTitle),
			Action: fmt.Sprintf("%s/%d/delete", productsPath, id),
		},
	})
}

func (h *ProductHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	n := notify.For(c)

	id, err := parseID(c)
	if err != nil {
		n.Error(msgNotFound)
		return notify.Redirect(c, productsPath)
	}
	if !h.confirmer(c).Confirm(ctx, deletePrompt, deleteTitle) {
		return notify.Redirect(c, productsPath)
	}

	if _, err := h.Products.Delete(ctx, auth.SessionID(c), id); err != nil {
		if rejected(err) {
			return err
		}
		logging.FromContext(ctx).Error("delete_product_failed", "product_id", id, "status", apiclient.StatusOf(err), "error", err)
		n.Error(msgDeleteFailed)
		return notify.Redirect(c, productsPath)
	}

	n.Success(msgDeleted)
	return notify.Redirect(c, productsPath)
}

func (h *ProductHandler) afterSave(c echo.Context, id int64, f forms.Product, err error, success string) error {
	ctx := c.Request().Context()
	n := notify.For(c)

	switch {
	case err == nil:
		n.Success(success)
		return notify.Redirect(c, productsPath)
	case rejected(err):
		return err
	case errors.Is(err, service.ErrValidation):
		if msg := f.Error("imagen"); msg != "" {
			n.Error(msg)
		}
		return h.renderForm(c, http.StatusUnprocessableEntity, id, f)
	}

	if errs, ok := apiclient.AsValidation(err); ok {
		n.ValidationErrors(errs)
		return h.renderForm(c, http.StatusUnprocessableEntity, id, f)
	}
	logging.FromContext(ctx).Error("save_product_failed", "product_id", id, "status", apiclient.StatusOf(err), "error", err)
	n.Error(msgSaveFailed)
	return h.renderForm(c, http.StatusOK, id, f)
}

func (h *ProductHandler) renderForm(c echo.Context, code int, id int64, f forms.Product) error {
	title, action := "Nuevo Producto", productsPath
	if id != 0 {
		title, action = "Editar Producto", fmt.Sprintf("%s/%d", productsPath, id)
	}
	return render(c, code, web.PageProductForm, web.Page{
		Title:  title,
		Active: "products",
		Data:   productFormView{ID: id, Action: action, Form: f},
	})
}
