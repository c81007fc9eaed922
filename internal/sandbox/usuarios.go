package sandbox

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ergsystem/ergpos-admin/internal/application/permission"
	"github.com/ergsystem/ergpos-admin/internal/application/table"
	"github.com/ergsystem/ergpos-admin/internal/domain/entity"
)

// Los usuarios llevan handlers propios: el registro interno (con hash de
// contraseña) no coincide con el perfil que expone la API, y desactivar aplica
// la protección contra auto-desactivación también del lado del servidor.

type usuarioRequest struct {
	Codigo   string    `json:"codigo"`
	Email    string    `json:"email"`
	Nombre   *string   `json:"nombre"`
	Password string    `json:"password"`
	Roles    *[]string `json:"roles"`
}

func (a *App) listarUsuarios(c *fiber.Ctx) error {
	termino := table.Normalizar(c.Query("buscar"))
	filtroActivo := c.Query("activo")

	a.mem.mu.RLock()
	defer a.mem.mu.RUnlock()

	out := make([]entity.Usuario, 0, len(a.mem.usuarios))
	for _, u := range a.mem.usuarios {
		if filtroActivo != "" && u.Activo != (filtroActivo == "true") {
			continue
		}
		if termino != "" {
			campos := []string{u.Codigo, u.Nombre, u.Email}
			hit := false
			for _, campo := range campos {
				if strings.Contains(table.Normalizar(campo), termino) {
					hit = true
					break
				}
			}
			if !hit {
				continue
			}
		}
		out = append(out, u.Usuario)
	}
	return c.JSON(out)
}

func (a *App) obtenerUsuario(c *fiber.Ctx) error {
	u := a.mem.buscarUsuarioPorID(c.Params("id"))
	if u == nil {
		return errJSON(c, fiber.StatusNotFound, "NOT_FOUND", "usuario no encontrado")
	}
	return c.JSON(u.Usuario)
}

func (a *App) crearUsuario(c *fiber.Ctx) error {
	var in usuarioRequest
	if err := c.BodyParser(&in); err != nil {
		return errJSON(c, fiber.StatusBadRequest, "INVALID_BODY", "cuerpo inválido")
	}
	if in.Email == "" || in.Password == "" {
		return errJSON(c, fiber.StatusBadRequest, "VALIDATION", "email y password son requeridos")
	}
	nombre := in.Email
	if in.Nombre != nil && *in.Nombre != "" {
		nombre = *in.Nombre
	}
	var roles []string
	if in.Roles != nil {
		roles = *in.Roles
	}
	u, err := a.mem.CrearUsuario(in.Codigo, in.Email, nombre, in.Password, roles, true)
	if err != nil {
		return errJSON(c, fiber.StatusConflict, "DUPLICATE", err.Error())
	}
	a.mem.auditar("CREAR", "usuario", u.ID, actorEmail(c), u.Email)
	return c.Status(fiber.StatusCreated).JSON(u)
}

func (a *App) actualizarUsuario(c *fiber.Ctx) error {
	u := a.mem.buscarUsuarioPorID(c.Params("id"))
	if u == nil {
		return errJSON(c, fiber.StatusNotFound, "NOT_FOUND", "usuario no encontrado")
	}
	var in usuarioRequest
	if err := c.BodyParser(&in); err != nil {
		return errJSON(c, fiber.StatusBadRequest, "INVALID_BODY", "cuerpo inválido")
	}
	a.mem.mu.Lock()
	if in.Nombre != nil {
		u.Nombre = *in.Nombre
	}
	if in.Codigo != "" {
		u.Codigo = in.Codigo
	}
	if in.Roles != nil {
		u.Roles = *in.Roles
		// Los módulos se re-materializan desde los roles con la misma tabla
		// que usa el cliente.
		modules := permission.VisibleModules(u.Roles)
		if modules == nil {
			modules = []string{}
		}
		u.Modules = modules
	}
	u.UpdatedAt = time.Now()
	a.mem.mu.Unlock()
	a.mem.auditar("ACTUALIZAR", "usuario", u.ID, actorEmail(c), u.Email)
	return c.JSON(u.Usuario)
}

func (a *App) activarUsuario(c *fiber.Ctx) error {
	return a.cambiarActivoUsuario(c, true)
}

// desactivarUsuario rechaza la auto-desactivación: el actor del token no puede
// desactivar su propio usuario.
func (a *App) desactivarUsuario(c *fiber.Ctx) error {
	u := a.mem.buscarUsuarioPorID(c.Params("id"))
	if u == nil {
		return errJSON(c, fiber.StatusNotFound, "NOT_FOUND", "usuario no encontrado")
	}
	if strings.EqualFold(u.Email, actorEmail(c)) {
		return errJSON(c, fiber.StatusConflict, "AUTO_DESACTIVACION", "no puede desactivar su propio usuario")
	}
	return a.cambiarActivoUsuario(c, false)
}

func (a *App) cambiarActivoUsuario(c *fiber.Ctx, valor bool) error {
	u := a.mem.buscarUsuarioPorID(c.Params("id"))
	if u == nil {
		return errJSON(c, fiber.StatusNotFound, "NOT_FOUND", "usuario no encontrado")
	}
	accion := "DESACTIVAR"
	if valor {
		accion = "ACTIVAR"
	}
	a.mem.mu.Lock()
	u.Activo = valor
	u.UpdatedAt = time.Now()
	a.mem.mu.Unlock()
	a.mem.auditar(accion, "usuario", u.ID, actorEmail(c), u.Email)
	return c.JSON(u.Usuario)
}
