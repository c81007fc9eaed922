package store

import (
	"context"
	"strings"

	"github.com/ergsystem/ergpos-admin/internal/domain"
	"github.com/ergsystem/ergpos-admin/internal/domain/entity"
	"github.com/ergsystem/ergpos-admin/internal/infrastructure/api"
	"github.com/ergsystem/ergpos-admin/pkg/logger"
)

// Productos store de productos, identificados por codigo.
type Productos struct {
	*Store[entity.Producto]
}

// NewProductos construye el store de productos.
func NewProductos(c *api.Client, log *logger.Logger) *Productos {
	return &Productos{Store: New(c, log, Resource[entity.Producto]{
		Path: "productos",
		ID:   func(p entity.Producto) string { return p.Codigo },
	})}
}

// Categorias store de categorías, identificadas por codigo.
type Categorias struct {
	*Store[entity.Categoria]
}

// NewCategorias construye el store de categorías.
func NewCategorias(c *api.Client, log *logger.Logger) *Categorias {
	return &Categorias{Store: New(c, log, Resource[entity.Categoria]{
		Path: "categorias",
		ID:   func(e entity.Categoria) string { return e.Codigo },
	})}
}

// Proveedores store de proveedores, identificados por codigo.
type Proveedores struct {
	*Store[entity.Proveedor]
}

// NewProveedores construye el store de proveedores.
func NewProveedores(c *api.Client, log *logger.Logger) *Proveedores {
	return &Proveedores{Store: New(c, log, Resource[entity.Proveedor]{
		Path: "proveedores",
		ID:   func(e entity.Proveedor) string { return e.Codigo },
	})}
}

// Roles store de roles, identificados por nombre.
type Roles struct {
	*Store[entity.Rol]
}

// NewRoles construye el store de roles.
func NewRoles(c *api.Client, log *logger.Logger) *Roles {
	return &Roles{Store: New(c, log, Resource[entity.Rol]{
		Path: "roles",
		ID:   func(e entity.Rol) string { return e.Nombre },
	})}
}

// Usuarios store de usuarios. Aplica la protección contra auto-desactivación
// antes de emitir cualquier llamada de red.
type Usuarios struct {
	*Store[entity.Usuario]
	actual func() *entity.Usuario // usuario autenticado, provisto por la sesión
}

// NewUsuarios construye el store de usuarios. actual debe devolver el usuario
// de la sesión vigente (nil si no hay sesión).
func NewUsuarios(c *api.Client, log *logger.Logger, actual func() *entity.Usuario) *Usuarios {
	return &Usuarios{
		Store: New(c, log, Resource[entity.Usuario]{
			Path: "usuarios",
			ID:   func(e entity.Usuario) string { return e.ID },
		}),
		actual: actual,
	}
}

// Desactivar rechaza client-side la desactivación del propio usuario, sin
// emitir la petición. La comparación es por email, el identificador que la
// sesión garantiza tener.
func (u *Usuarios) Desactivar(ctx context.Context, id string) (entity.Usuario, error) {
	objetivo, ok := u.buscar(id)
	if !ok {
		var err error
		if objetivo, err = u.Get(ctx, id); err != nil {
			return entity.Usuario{}, err
		}
	}
	if actual := u.actual(); actual != nil && strings.EqualFold(actual.Email, objetivo.Email) {
		return entity.Usuario{}, u.fallo(domain.ErrAutoDesactivacion)
	}
	return u.Store.Desactivar(ctx, id)
}

// Movimientos store de movimientos de inventario. Aplica la máquina de estados
// PENDIENTE → ACTIVO → ANULADO y la verificación de stock de salidas antes de
// llamar al endpoint de activación.
type Movimientos struct {
	*Store[entity.Movimiento]
	productos *Productos // consulta de stock para la guarda de salidas
}

// NewMovimientos construye el store de movimientos.
func NewMovimientos(c *api.Client, log *logger.Logger, productos *Productos) *Movimientos {
	return &Movimientos{
		Store: New(c, log, Resource[entity.Movimiento]{
			Path: "movimientos",
			ID:   func(e entity.Movimiento) string { return e.ID },
		}),
		productos: productos,
	}
}

// Activar transiciona PENDIENTE → ACTIVO. Para movimientos de SALIDA verifica
// antes que el stock actual del producto cubra la cantidad; si no alcanza, la
// operación falla con ErrStockInsuficiente y el endpoint de activación no se
// invoca.
func (m *Movimientos) Activar(ctx context.Context, id string) (entity.Movimiento, error) {
	mov, ok := m.buscar(id)
	if !ok {
		var err error
		if mov, err = m.Get(ctx, id); err != nil {
			return entity.Movimiento{}, err
		}
	}
	if !mov.PuedeActivar() {
		return entity.Movimiento{}, m.fallo(domain.ErrTransicionInvalida)
	}
	if mov.Tipo == entity.TipoSalida {
		producto, ok := m.productos.buscar(mov.ProductoCodigo)
		if !ok {
			var err error
			if producto, err = m.productos.Get(ctx, mov.ProductoCodigo); err != nil {
				return entity.Movimiento{}, m.fallo(err)
			}
		}
		if producto.StockActual < mov.Cantidad {
			return entity.Movimiento{}, m.fallo(domain.ErrStockInsuficiente)
		}
	}
	return m.Store.Activar(ctx, id)
}

// Anular transiciona ACTIVO → ANULADO. ANULADO es terminal: un movimiento
// anulado no admite ninguna transición posterior.
func (m *Movimientos) Anular(ctx context.Context, id string) (entity.Movimiento, error) {
	mov, ok := m.buscar(id)
	if !ok {
		var err error
		if mov, err = m.Get(ctx, id); err != nil {
			return entity.Movimiento{}, err
		}
	}
	if !mov.PuedeAnular() {
		return entity.Movimiento{}, m.fallo(domain.ErrTransicionInvalida)
	}
	return m.patch(ctx, id, "anular")
}

// Desactivar no existe para movimientos: su ciclo de vida es la máquina de
// estados, no el flag activo.
func (m *Movimientos) Desactivar(ctx context.Context, id string) (entity.Movimiento, error) {
	return entity.Movimiento{}, m.fallo(domain.ErrTransicionInvalida)
}

// Auditorias store de solo lectura sobre el registro de auditoría: expone
// únicamente listado y estado; no hay mutadores que ocultar porque no se
// embebe el store genérico completo.
type Auditorias struct {
	s *Store[entity.Auditoria]
}

// NewAuditorias construye el store de auditoría.
func NewAuditorias(c *api.Client, log *logger.Logger) *Auditorias {
	return &Auditorias{s: New(c, log, Resource[entity.Auditoria]{
		Path: "auditoria",
		ID:   func(e entity.Auditoria) string { return e.ID },
	})}
}

// List carga el registro de auditoría.
func (a *Auditorias) List(ctx context.Context, f Filtro) error { return a.s.List(ctx, f) }

// Items devuelve las entradas cargadas.
func (a *Auditorias) Items() []entity.Auditoria { return a.s.Items() }

// IsLoading informa si hay un listado en curso.
func (a *Auditorias) IsLoading() bool { return a.s.IsLoading() }

// LastError devuelve el último error registrado.
func (a *Auditorias) LastError() string { return a.s.LastError() }

// ClearError limpia el último error.
func (a *Auditorias) ClearError() { a.s.ClearError() }
