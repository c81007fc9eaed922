package entity

import "time"

// Categoria representa una categoría de productos.
type Categoria struct {
	Codigo      string    `json:"codigo"`
	Nombre      string    `json:"nombre"`
	Descripcion string    `json:"descripcion"`
	Activo      bool      `json:"activo"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
