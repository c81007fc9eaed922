package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Producto representa un producto del inventario. Codigo es el identificador de
// negocio; StockActual se modifica únicamente vía movimientos de inventario.
type Producto struct {
	Codigo          string          `json:"codigo"`
	Nombre          string          `json:"nombre"`
	Descripcion     string          `json:"descripcion"`
	Precio          decimal.Decimal `json:"precio"`
	StockActual     int             `json:"stockActual"`
	StockMinimo     int             `json:"stockMinimo"`
	CategoriaCodigo string          `json:"categoriaCodigo"`
	ProveedorCodigo string          `json:"proveedorCodigo"`
	Activo          bool            `json:"activo"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// BajoStock informa si el producto está por debajo de su stock mínimo.
func (p Producto) BajoStock() bool {
	return p.StockActual < p.StockMinimo
}
