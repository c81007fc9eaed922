package entity

import "time"

// Proveedor representa un proveedor de productos.
type Proveedor struct {
	Codigo    string    `json:"codigo"`
	Nombre    string    `json:"nombre"`
	NIT       string    `json:"nit"`
	Email     string    `json:"email"`
	Telefono  string    `json:"telefono"`
	Activo    bool      `json:"activo"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
