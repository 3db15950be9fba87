package models

import (
	"github.com/shopspring/decimal"
)

type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type Product struct {
	ID          int64           `json:"id"`
	Nombre      string          `json:"nombre"`
	Precio      decimal.Decimal `json:"precio"`
	Stock       int             `json:"stock"`
	Descripcion *string         `json:"descripcion,omitempty"`
	ImagenURL   *string         `json:"imagen_url,omitempty"`
}

const LowStockThreshold = 10

func (p Product) LowStock() bool {
	return p.Stock < LowStockThreshold
}

type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type DashboardStats struct {
	TotalProducts int
	LowStock      int
}
