// Package forms reads and checks the product form before anything is sent to
// the API.
package forms

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/pineapple_admin/internal/models"
	"github.com/Skotchmaster/pineapple_admin/pkg/apiclient"
)

const MaxImageSize = 2097152

var AllowedImageTypes = []string{"image/jpeg", "image/png", "image/webp"}

const (
	MsgNombreRequired = "El nombre es requerido"
	MsgPrecioInvalid  = "El precio debe ser mayor a 0"
	MsgStockInvalid   = "El stock no puede ser negativo"
	MsgImageType      = "Formato de imagen no válido. Use JPEG, PNG o WebP"
	MsgImageSize      = "La imagen no debe exceder 2MB"
)

var fieldMessages = map[string]string{
	"nombre": MsgNombreRequired,
	"precio": MsgPrecioInvalid,
	"stock":  MsgStockInvalid,
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("form")
	})
	_ = v.RegisterValidation("decimal_gt0", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
		return err == nil && d.IsPositive()
	})
	_ = v.RegisterValidation("nonneg_int", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(strings.TrimSpace(fl.Field().String()))
		return err == nil && n >= 0
	})
	return v
}

type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Product keeps the values as typed so a rejected form can be shown again.
type Product struct {
	Nombre      string `form:"nombre" validate:"required"`
	Precio      string `form:"precio" validate:"required,decimal_gt0"`
	Stock       string `form:"stock" validate:"required,nonneg_int"`
	Descripcion string `form:"descripcion"`

	// ImagenURL is the image the product already has, for the preview.
	ImagenURL string
	Image     *Image

	Errors map[string]string
}

func FromProduct(p models.Product) Product {
	f := Product{
		Nombre: p.Nombre,
		Precio: p.Precio.String(),
		Stock:  strconv.Itoa(p.Stock),
	}
	if p.Descripcion != nil {
		f.Descripcion = *p.Descripcion
	}
	if p.ImagenURL != nil {
		f.ImagenURL = *p.ImagenURL
	}
	return f
}

// ParseProduct reads the submitted form. The image is read and checked here;
// the other fields are checked by Validate.
func ParseProduct(c echo.Context) Product {
	f := Product{
		Nombre:      strings.TrimSpace(c.FormValue("nombre")),
		Precio:      strings.TrimSpace(c.FormValue("precio")),
		Stock:       strings.TrimSpace(c.FormValue("stock")),
		Descripcion: c.FormValue("descripcion"),
		ImagenURL:   c.FormValue("imagen_url"),
	}

	fh, err := c.FormFile("imagen")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	case err != nil:
		f.setError("imagen", MsgImageType)
	default:
		img, msg := readImage(fh)
		if msg != "" {
			f.setError("imagen", msg)
		} else {
			f.Image = img
		}
	}
	return f
}

// Validate reports whether the form can be sent. Field messages end up in
// Errors, keyed by form field.
func (f *Product) Validate() bool {
	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			f.setError("form", err.Error())
			return false
		}
		for _, fe := range verrs {
			f.setError(fe.Field(), fieldMessages[fe.Field()])
		}
	}
	return len(f.Errors) == 0
}

func (f Product) Valid() bool { return len(f.Errors) == 0 }

func (f Product) Error(field string) string { return f.Errors[field] }

// Multipart is the body for POST /productos and PUT /productos/:id.
func (f Product) Multipart() *apiclient.Form {
	form := apiclient.NewForm().
		Set("nombre", f.Nombre).
		Set("precio", f.Precio).
		Set("stock", f.Stock).
		Set("descripcion", f.Descripcion)
	if f.Image != nil {
		form.AddFile("imagen", f.Image.Filename, f.Image.ContentType, f.Image.Data)
	}
	return form
}

func (f *Product) setError(field, msg string) {
	if f.Errors == nil {
		f.Errors = map[string]string{}
	}
	if _, ok := f.Errors[field]; !ok {
		f.Errors[field] = msg
	}
}

func readImage(fh *multipart.FileHeader) (*Image, string) {
	if fh.Size > MaxImageSize {
		return nil, MsgImageSize
	}
	file, err := fh.Open()
	if err != nil {
		return nil, MsgImageType
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxImageSize+1))
	if err != nil {
		return nil, MsgImageType
	}
	if len(data) > MaxImageSize {
		return nil, MsgImageSize
	}

	ct := http.DetectContentType(data)
	if !slices.Contains(AllowedImageTypes, ct) {
		return nil, MsgImageType
	}
	return &Image{Filename: fh.Filename, ContentType: ct, Data: data}, ""
}
