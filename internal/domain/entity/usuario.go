package entity

import (
	"fmt"
	"time"
)

// Roles conocidos por el sistema. La tabla de capacidades vive en
// internal/application/permission.
const (
	RolSuperAdmin    = "SUPER_ADMIN"
	RolAdministrador = "ADMINISTRADOR"
	RolSupervisor    = "SUPERVISOR"
	RolVendedor      = "VENDEDOR"
	RolBodeguero     = "BODEGUERO"
	RolAuditor       = "AUDITOR"
)

// Usuario representa un usuario administrador del sistema.
// Roles y Modules se validan al deserializar la respuesta del backend:
// un perfil sin esos campos es un error del borde, no un valor por defecto.
type Usuario struct {
	ID        string    `json:"id"`
	Codigo    string    `json:"codigo"`
	Email     string    `json:"email"`
	Nombre    string    `json:"nombre"`
	Roles     []string  `json:"roles"`
	Modules   []string  `json:"modules"`
	Activo    bool      `json:"activo"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate verifica los invariantes del perfil recibido del backend:
// campos identificadores presentes, Roles/Modules no nulos y sin roles duplicados.
// Un usuario sin roles es válido (usuario sin permisos).
func (u Usuario) Validate() error {
	if u.ID == "" || u.Email == "" {
		return fmt.Errorf("usuario: id y email son obligatorios")
	}
	if u.Roles == nil {
		return fmt.Errorf("usuario %s: roles ausentes en el perfil", u.Email)
	}
	if u.Modules == nil {
		return fmt.Errorf("usuario %s: modules ausentes en el perfil", u.Email)
	}
	vistos := make(map[string]struct{}, len(u.Roles))
	for _, r := range u.Roles {
		if _, dup := vistos[r]; dup {
			return fmt.Errorf("usuario %s: rol duplicado %q", u.Email, r)
		}
		vistos[r] = struct{}{}
	}
	return nil
}

// TieneModulo informa si el usuario tiene acceso al módulo indicado.
func (u Usuario) TieneModulo(nombre string) bool {
	for _, m := range u.Modules {
		if m == nombre {
			return true
		}
	}
	return false
}
