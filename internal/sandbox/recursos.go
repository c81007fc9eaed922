package sandbox

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/ergsystem/ergpos-admin/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Productos
// ──────────────────────────────────────────────────────────────────────────────

type productoRequest struct {
	Codigo          string           `json:"codigo"`
	Nombre          *string          `json:"nombre"`
	Descripcion     *string          `json:"descripcion"`
	Precio          *decimal.Decimal `json:"precio"`
	StockMinimo     *int             `json:"stockMinimo"`
	CategoriaCodigo *string          `json:"categoriaCodigo"`
	ProveedorCodigo *string          `json:"proveedorCodigo"`
}

func coleccionProductos(mem *Memoria) coleccion[entity.Producto] {
	return coleccion[entity.Producto]{
		entidad: "producto",
		mem:     mem,
		slice:   func(m *Memoria) *[]*entity.Producto { return &m.productos },
		id:      func(p *entity.Producto) string { return p.Codigo },
		activo:  func(p *entity.Producto) *bool { return &p.Activo },
		tocar:   func(p *entity.Producto, t time.Time) { p.UpdatedAt = t },
		buscable: func(p *entity.Producto) []string {
			return []string{p.Codigo, p.Nombre, p.Descripcion}
		},
		crear: func(c *fiber.Ctx) (*entity.Producto, error) {
			var in productoRequest
			if err := c.BodyParser(&in); err != nil {
				return nil, fmt.Errorf("cuerpo inválido")
			}
			if in.Codigo == "" || in.Nombre == nil || *in.Nombre == "" {
				return nil, fmt.Errorf("codigo y nombre son requeridos")
			}
			now := time.Now()
			p := &entity.Producto{
				Codigo:    in.Codigo,
				Nombre:    *in.Nombre,
				Activo:    true,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if in.Descripcion != nil {
				p.Descripcion = *in.Descripcion
			}
			if in.Precio != nil {
				p.Precio = *in.Precio
			}
			if in.StockMinimo != nil {
				p.StockMinimo = *in.StockMinimo
			}
			if in.CategoriaCodigo != nil {
				p.CategoriaCodigo = *in.CategoriaCodigo
			}
			if in.ProveedorCodigo != nil {
				p.ProveedorCodigo = *in.ProveedorCodigo
			}
			// StockActual inicia en 0: el stock solo se mueve vía movimientos.
			return p, nil
		},
		actualizar: func(c *fiber.Ctx, p *entity.Producto) error {
			var in productoRequest
			if err := c.BodyParser(&in); err != nil {
				return fmt.Errorf("cuerpo inválido")
			}
			if in.Nombre != nil {
				p.Nombre = *in.Nombre
			}
			if in.Descripcion != nil {
				p.Descripcion = *in.Descripcion
			}
			if in.Precio != nil {
				p.Precio = *in.Precio
			}
			if in.StockMinimo != nil {
				p.StockMinimo = *in.StockMinimo
			}
			if in.CategoriaCodigo != nil {
				p.CategoriaCodigo = *in.CategoriaCodigo
			}
			if in.ProveedorCodigo != nil {
				p.ProveedorCodigo = *in.ProveedorCodigo
			}
			return nil
		},
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Categorías
// ──────────────────────────────────────────────────────────────────────────────

type categoriaRequest struct {
	Codigo      string  `json:"codigo"`
	Nombre      *string `json:"nombre"`
	Descripcion *string `json:"descripcion"`
}

func coleccionCategorias(mem *Memoria) coleccion[entity.Categoria] {
	return coleccion[entity.Categoria]{
		entidad: "categoria",
		mem:     mem,
		slice:   func(m *Memoria) *[]*entity.Categoria { return &m.categorias },
		id:      func(e *entity.Categoria) string { return e.Codigo },
		activo:  func(e *entity.Categoria) *bool { return &e.Activo },
		tocar:   func(e *entity.Categoria, t time.Time) { e.UpdatedAt = t },
		buscable: func(e *entity.Categoria) []string {
			return []string{e.Codigo, e.Nombre}
		},
		crear: func(c *fiber.Ctx) (*entity.Categoria, error) {
			var in categoriaRequest
			if err := c.BodyParser(&in); err != nil {
				return nil, fmt.Errorf("cuerpo inválido")
			}
			if in.Codigo == "" || in.Nombre == nil || *in.Nombre == "" {
				return nil, fmt.Errorf("codigo y nombre son requeridos")
			}
			now := time.Now()
			e := &entity.Categoria{Codigo: in.Codigo, Nombre: *in.Nombre, Activo: true, CreatedAt: now, UpdatedAt: now}
			if in.Descripcion != nil {
				e.Descripcion = *in.Descripcion
			}
			return e, nil
		},
		actualizar: func(c *fiber.Ctx, e *entity.Categoria) error {
			var in categoriaRequest
			if err := c.BodyParser(&in); err != nil {
				return fmt.Errorf("cuerpo inválido")
			}
			if in.Nombre != nil {
				e.Nombre = *in.Nombre
			}
			if in.Descripcion != nil {
				e.Descripcion = *in.Descripcion
			}
			return nil
		},
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Proveedores
// ──────────────────────────────────────────────────────────────────────────────

type proveedorRequest struct {
	Codigo   string  `json:"codigo"`
	Nombre   *string `json:"nombre"`
	NIT      *string `json:"nit"`
	Email    *string `json:"email"`
	Telefono *string `json:"telefono"`
}

func coleccionProveedores(mem *Memoria) coleccion[entity.Proveedor] {
	return coleccion[entity.Proveedor]{
		entidad: "proveedor",
		mem:     mem,
		slice:   func(m *Memoria) *[]*entity.Proveedor { return &m.proveedores },
		id:      func(e *entity.Proveedor) string { return e.Codigo },
		activo:  func(e *entity.Proveedor) *bool { return &e.Activo },
		tocar:   func(e *entity.Proveedor, t time.Time) { e.UpdatedAt = t },
		buscable: func(e *entity.Proveedor) []string {
			return []string{e.Codigo, e.Nombre, e.NIT, e.Email}
		},
		crear: func(c *fiber.Ctx) (*entity.Proveedor, error) {
			var in proveedorRequest
			if err := c.BodyParser(&in); err != nil {
				return nil, fmt.Errorf("cuerpo inválido")
			}
			if in.Codigo == "" || in.Nombre == nil || *in.Nombre == "" {
				return nil, fmt.Errorf("codigo y nombre son requeridos")
			}
			now := time.Now()
			e := &entity.Proveedor{Codigo: in.Codigo, Nombre: *in.Nombre, Activo: true, CreatedAt: now, UpdatedAt: now}
			if in.NIT != nil {
				e.NIT = *in.NIT
			}
			if in.Email != nil {
				e.Email = *in.Email
			}
			if in.Telefono != nil {
				e.Telefono = *in.Telefono
			}
			return e, nil
		},
		actualizar: func(c *fiber.Ctx, e *entity.Proveedor) error {
			var in proveedorRequest
			if err := c.BodyParser(&in); err != nil {
				return fmt.Errorf("cuerpo inválido")
			}
			if in.Nombre != nil {
				e.Nombre = *in.Nombre
			}
			if in.NIT != nil {
				e.NIT = *in.NIT
			}
			if in.Email != nil {
				e.Email = *in.Email
			}
			if in.Telefono != nil {
				e.Telefono = *in.Telefono
			}
			return nil
		},
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Roles (clave primaria: nombre)
// ──────────────────────────────────────────────────────────────────────────────

type rolRequest struct {
	Nombre      string  `json:"nombre"`
	Descripcion *string `json:"descripcion"`
}

func coleccionRoles(mem *Memoria) coleccion[entity.Rol] {
	return coleccion[entity.Rol]{
		entidad: "rol",
		mem:     mem,
		slice:   func(m *Memoria) *[]*entity.Rol { return &m.roles },
		id:      func(e *entity.Rol) string { return e.Nombre },
		activo:  func(e *entity.Rol) *bool { return &e.Activo },
		tocar:   func(e *entity.Rol, t time.Time) { e.UpdatedAt = t },
		buscable: func(e *entity.Rol) []string {
			return []string{e.Nombre, e.Descripcion}
		},
		crear: func(c *fiber.Ctx) (*entity.Rol, error) {
			var in rolRequest
			if err := c.BodyParser(&in); err != nil {
				return nil, fmt.Errorf("cuerpo inválido")
			}
			if in.Nombre == "" {
				return nil, fmt.Errorf("nombre es requerido")
			}
			now := time.Now()
			e := &entity.Rol{Nombre: in.Nombre, Activo: true, CreatedAt: now, UpdatedAt: now}
			if in.Descripcion != nil {
				e.Descripcion = *in.Descripcion
			}
			return e, nil
		},
		actualizar: func(c *fiber.Ctx, e *entity.Rol) error {
			var in rolRequest
			if err := c.BodyParser(&in); err != nil {
				return fmt.Errorf("cuerpo inválido")
			}
			if in.Descripcion != nil {
				e.Descripcion = *in.Descripcion
			}
			return nil
		},
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Auditoría (solo lectura, append-only)
// ──────────────────────────────────────────────────────────────────────────────

func coleccionAuditoria(mem *Memoria) coleccion[entity.Auditoria] {
	return coleccion[entity.Auditoria]{
		entidad: "auditoria",
		mem:     mem,
		slice:   func(m *Memoria) *[]*entity.Auditoria { return &m.auditoria },
		id:      func(e *entity.Auditoria) string { return e.ID },
		buscable: func(e *entity.Auditoria) []string {
			return []string{e.Accion, e.Entidad, e.EntidadID, e.Usuario, e.Detalle}
		},
		// Sin crear/actualizar/activo: el registro es inmutable vía API.
	}
}
