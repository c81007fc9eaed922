package entity

import "time"

// Rol representa un rol del sistema. Nombre es la clave primaria: el resto de la
// aplicación referencia roles por nombre, nunca por id numérico.
type Rol struct {
	Nombre      string    `json:"nombre"`
	Descripcion string    `json:"descripcion"`
	Activo      bool      `json:"activo"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
