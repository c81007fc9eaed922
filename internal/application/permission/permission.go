package permission

import "github.com/ergsystem/ergpos-admin/internal/domain/entity"

// Capability es una capacidad cerrada del sistema. Agregar una capacidad o un
// rol es una edición de las tablas de este archivo, no comparaciones de
// strings repartidas por la aplicación.
type Capability string

const (
	CanManageUsers      Capability = "canManageUsers"
	CanManageRoles      Capability = "canManageRoles"
	CanEditProducts     Capability = "canEditProducts"
	CanEditCategories   Capability = "canEditCategories"
	CanEditSuppliers    Capability = "canEditSuppliers"
	CanRegisterMovement Capability = "canRegisterMovement"
	CanActivateMovement Capability = "canActivateMovement"
	CanViewFinancials   Capability = "canViewFinancials"
	CanManageAudit      Capability = "canManageAudit"
)

// Set es el mapa cerrado de capacidades derivado de un conjunto de roles.
// Todas las capacidades conocidas están siempre presentes como clave.
type Set map[Capability]bool

// capabilityRoles define cada capacidad como OR lógico sobre una lista fija de
// roles. Esta tabla es la única fuente de verdad de la derivación.
var capabilityRoles = map[Capability][]string{
	CanManageUsers:      {entity.RolSuperAdmin, entity.RolAdministrador},
	CanManageRoles:      {entity.RolSuperAdmin},
	CanEditProducts:     {entity.RolSuperAdmin, entity.RolAdministrador, entity.RolSupervisor},
	CanEditCategories:   {entity.RolSuperAdmin, entity.RolAdministrador, entity.RolSupervisor},
	CanEditSuppliers:    {entity.RolSuperAdmin, entity.RolAdministrador, entity.RolSupervisor},
	CanRegisterMovement: {entity.RolSuperAdmin, entity.RolAdministrador, entity.RolBodeguero},
	CanActivateMovement: {entity.RolSuperAdmin, entity.RolAdministrador, entity.RolSupervisor},
	CanViewFinancials:   {entity.RolSuperAdmin, entity.RolAdministrador, entity.RolSupervisor},
	CanManageAudit:      {entity.RolSuperAdmin, entity.RolAuditor},
}

// moduleRoles define qué roles otorgan visibilidad de cada módulo de la
// interfaz. El backend materializa esta visibilidad en Usuario.Modules al
// emitir el perfil; el sandbox usa exactamente esta tabla.
var moduleRoles = map[string][]string{
	"productos":   {entity.RolSuperAdmin, entity.RolAdministrador, entity.RolSupervisor, entity.RolVendedor, entity.RolBodeguero},
	"categorias":  {entity.RolSuperAdmin, entity.RolAdministrador, entity.RolSupervisor},
	"proveedores": {entity.RolSuperAdmin, entity.RolAdministrador, entity.RolSupervisor},
	"usuarios":    {entity.RolSuperAdmin, entity.RolAdministrador},
	"roles":       {entity.RolSuperAdmin},
	"movimientos": {entity.RolSuperAdmin, entity.RolAdministrador, entity.RolSupervisor, entity.RolBodeguero},
	"auditoria":   {entity.RolSuperAdmin, entity.RolAuditor},
}

// Derive calcula el conjunto de capacidades para un conjunto de roles.
// Es pura y determinista: el mismo conjunto de roles (en cualquier orden)
// produce siempre el mismo resultado.
func Derive(roles []string) Set {
	out := make(Set, len(capabilityRoles))
	for cap, permitidos := range capabilityRoles {
		out[cap] = HasAnyRole(roles, permitidos...)
	}
	return out
}

// VisibleModules devuelve, en orden estable, los módulos visibles para el
// conjunto de roles dado.
func VisibleModules(roles []string) []string {
	// Orden fijo de presentación; map iteration no es determinista.
	orden := []string{"productos", "categorias", "proveedores", "usuarios", "roles", "movimientos", "auditoria"}
	var out []string
	for _, m := range orden {
		if HasAnyRole(roles, moduleRoles[m]...) {
			out = append(out, m)
		}
	}
	return out
}

// HasAnyRole es OR lógico: verdadero si roles contiene al menos uno de wanted.
// Con wanted vacío devuelve false (cuantificador existencial vacío).
func HasAnyRole(roles []string, wanted ...string) bool {
	for _, w := range wanted {
		for _, r := range roles {
			if r == w {
				return true
			}
		}
	}
	return false
}

// HasAllRoles es AND lógico: verdadero si roles contiene todos los wanted.
// Con wanted vacío devuelve true (cuantificador universal vacío).
func HasAllRoles(roles []string, wanted ...string) bool {
	for _, w := range wanted {
		found := false
		for _, r := range roles {
			if r == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
