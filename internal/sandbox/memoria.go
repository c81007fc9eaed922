package sandbox

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/ergsystem/ergpos-admin/internal/application/permission"
	"github.com/ergsystem/ergpos-admin/internal/domain/entity"
)

// UsuarioConClave es el registro interno de usuario del sandbox: el perfil
// público más el hash bcrypt que nunca sale por la API.
type UsuarioConClave struct {
	entity.Usuario
	PasswordHash string
}

// Memoria es el almacén en memoria del sandbox. No persiste nada: existe para
// desarrollo local y tests end-to-end del SDK.
type Memoria struct {
	mu          sync.RWMutex
	usuarios    []*UsuarioConClave
	roles       []*entity.Rol
	productos   []*entity.Producto
	categorias  []*entity.Categoria
	proveedores []*entity.Proveedor
	movimientos []*entity.Movimiento
	auditoria   []*entity.Auditoria
}

// NewMemoria construye el almacén, con datos de demostración si seed es true.
func NewMemoria(seed bool) *Memoria {
	m := &Memoria{}
	if seed {
		m.sembrar()
	}
	return m
}

// CrearUsuario registra un usuario con la contraseña dada. Los módulos se
// materializan desde los roles con la misma tabla que usa el cliente.
func (m *Memoria) CrearUsuario(codigo, email, nombre, password string, roles []string, activo bool) (*entity.Usuario, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.usuarios {
		if strings.EqualFold(u.Email, email) {
			return nil, fmt.Errorf("el email %s ya está registrado", email)
		}
	}
	now := time.Now()
	modules := permission.VisibleModules(roles)
	if modules == nil {
		modules = []string{}
	}
	if roles == nil {
		roles = []string{}
	}
	u := &UsuarioConClave{
		Usuario: entity.Usuario{
			ID:        uuid.New().String(),
			Codigo:    codigo,
			Email:     email,
			Nombre:    nombre,
			Roles:     roles,
			Modules:   modules,
			Activo:    activo,
			CreatedAt: now,
			UpdatedAt: now,
		},
		PasswordHash: string(hash),
	}
	m.usuarios = append(m.usuarios, u)
	perfil := u.Usuario
	return &perfil, nil
}

// buscarUsuarioPorEmail devuelve el registro interno, o nil.
func (m *Memoria) buscarUsuarioPorEmail(email string) *UsuarioConClave {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.usuarios {
		if strings.EqualFold(u.Email, email) {
			return u
		}
	}
	return nil
}

// buscarUsuarioPorID devuelve el registro interno, o nil.
func (m *Memoria) buscarUsuarioPorID(id string) *UsuarioConClave {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.usuarios {
		if u.ID == id {
			return u
		}
	}
	return nil
}

// auditar agrega una entrada append-only al registro de auditoría.
func (m *Memoria) auditar(accion, entidad, entidadID, usuario, detalle string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auditarLocked(accion, entidad, entidadID, usuario, detalle)
}

// auditarLocked exige que el llamador ya sostenga mu.
func (m *Memoria) auditarLocked(accion, entidad, entidadID, usuario, detalle string) {
	m.auditoria = append(m.auditoria, &entity.Auditoria{
		ID:        uuid.New().String(),
		Accion:    accion,
		Entidad:   entidad,
		EntidadID: entidadID,
		Usuario:   usuario,
		Detalle:   detalle,
		Fecha:     time.Now(),
	})
}

// sembrar carga el juego de datos de demostración.
func (m *Memoria) sembrar() {
	now := time.Now()

	for _, r := range []struct {
		nombre, desc string
	}{
		{entity.RolSuperAdmin, "Acceso total al sistema"},
		{entity.RolAdministrador, "Gestión de catálogos y usuarios"},
		{entity.RolSupervisor, "Supervisión de inventario"},
		{entity.RolVendedor, "Consulta de productos"},
		{entity.RolBodeguero, "Registro de movimientos"},
		{entity.RolAuditor, "Consulta del registro de auditoría"},
	} {
		m.roles = append(m.roles, &entity.Rol{
			Nombre: r.nombre, Descripcion: r.desc, Activo: true,
			CreatedAt: now, UpdatedAt: now,
		})
	}

	m.categorias = append(m.categorias,
		&entity.Categoria{Codigo: "CAT-01", Nombre: "Bebidas", Descripcion: "Bebidas frías y calientes", Activo: true, CreatedAt: now, UpdatedAt: now},
		&entity.Categoria{Codigo: "CAT-02", Nombre: "Aseo", Descripcion: "Productos de limpieza", Activo: true, CreatedAt: now, UpdatedAt: now},
		&entity.Categoria{Codigo: "CAT-03", Nombre: "Papelería", Descripcion: "", Activo: false, CreatedAt: now, UpdatedAt: now},
	)

	m.proveedores = append(m.proveedores,
		&entity.Proveedor{Codigo: "PRV-01", Nombre: "Distribuciones El Sol", NIT: "900123456-7", Email: "ventas@elsol.co", Telefono: "3001234567", Activo: true, CreatedAt: now, UpdatedAt: now},
		&entity.Proveedor{Codigo: "PRV-02", Nombre: "Aseo Total SAS", NIT: "901987654-3", Email: "contacto@aseototal.co", Telefono: "3109876543", Activo: true, CreatedAt: now, UpdatedAt: now},
	)

	m.productos = append(m.productos,
		&entity.Producto{Codigo: "P-001", Nombre: "Café molido 500g", Descripcion: "Café de origen", Precio: decimal.NewFromInt(18500), StockActual: 25, StockMinimo: 10, CategoriaCodigo: "CAT-01", ProveedorCodigo: "PRV-01", Activo: true, CreatedAt: now, UpdatedAt: now},
		&entity.Producto{Codigo: "P-002", Nombre: "Jabón líquido 1L", Descripcion: "", Precio: decimal.NewFromInt(9900), StockActual: 5, StockMinimo: 8, CategoriaCodigo: "CAT-02", ProveedorCodigo: "PRV-02", Activo: true, CreatedAt: now, UpdatedAt: now},
		&entity.Producto{Codigo: "P-003", Nombre: "Resma papel carta", Descripcion: "", Precio: decimal.NewFromInt(14900), StockActual: 0, StockMinimo: 5, CategoriaCodigo: "CAT-03", ProveedorCodigo: "PRV-01", Activo: false, CreatedAt: now, UpdatedAt: now},
	)

	m.movimientos = append(m.movimientos,
		&entity.Movimiento{ID: uuid.New().String(), Tipo: entity.TipoEntrada, ProductoCodigo: "P-001", Cantidad: 25, CostoUnitario: decimal.NewFromInt(12000), Motivo: "Compra inicial", Estado: entity.EstadoActivo, Fecha: now, CreadoPor: "admin@ergpos.com", CreatedAt: now, UpdatedAt: now},
		&entity.Movimiento{ID: uuid.New().String(), Tipo: entity.TipoSalida, ProductoCodigo: "P-002", Cantidad: 10, CostoUnitario: decimal.NewFromInt(7000), Motivo: "Pedido mayorista", Estado: entity.EstadoPendiente, Fecha: now, CreadoPor: "admin@ergpos.com", CreatedAt: now, UpdatedAt: now},
	)

	// Usuarios de demostración. Contraseña única para todos los seeds.
	_, _ = m.CrearUsuario("U-001", "admin@ergpos.com", "Administrador General", "admin123", []string{entity.RolSuperAdmin}, true)
	_, _ = m.CrearUsuario("U-002", "supervisor@ergpos.com", "Sofía Supervisor", "admin123", []string{entity.RolSupervisor, entity.RolAuditor}, true)
	_, _ = m.CrearUsuario("U-003", "vendedor@ergpos.com", "Valentina Vendedora", "admin123", []string{entity.RolVendedor}, true)
	_, _ = m.CrearUsuario("U-004", "inactivo@ergpos.com", "Ignacio Inactivo", "admin123", []string{entity.RolVendedor}, false)

	m.auditar("LOGIN", "sesion", "", "admin@ergpos.com", "datos de demostración cargados")
}
