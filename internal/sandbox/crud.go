package sandbox

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ergsystem/ergpos-admin/internal/application/table"
	"github.com/ergsystem/ergpos-admin/internal/infrastructure/api"
)

// errJSON responde el envelope de error estándar {code, message}.
func errJSON(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(api.ErrorEnvelope{Code: code, Message: message})
}

// coleccion describe un recurso CRUD del sandbox: cómo acceder a su slice en
// Memoria y los hooks específicos de la entidad.
type coleccion[T any] struct {
	entidad    string
	mem        *Memoria
	slice      func(*Memoria) *[]*T
	id         func(*T) string
	activo     func(*T) *bool // nil si la entidad no maneja el flag
	tocar      func(*T, time.Time)
	buscable   func(*T) []string
	crear      func(*fiber.Ctx) (*T, error)
	actualizar func(*fiber.Ctx, *T) error
}

// registrar monta las rutas CRUD uniformes del recurso:
// GET /, POST /, GET /:id, PUT /:id, PATCH /:id/activar, PATCH /:id/desactivar.
func registrar[T any](r fiber.Router, col coleccion[T]) {
	r.Get("/", col.list)
	if col.crear != nil {
		r.Post("/", col.create)
	}
	r.Get("/:id", col.get)
	if col.actualizar != nil {
		r.Put("/:id", col.update)
	}
	if col.activo != nil {
		r.Patch("/:id/activar", col.setActivo(true))
		r.Patch("/:id/desactivar", col.setActivo(false))
	}
}

// buscar localiza la entidad por id bajo el lock de Memoria.
func (col coleccion[T]) buscarID(id string) *T {
	col.mem.mu.RLock()
	defer col.mem.mu.RUnlock()
	for _, e := range *col.slice(col.mem) {
		if col.id(e) == id {
			return e
		}
	}
	return nil
}

func (col coleccion[T]) list(c *fiber.Ctx) error {
	termino := table.Normalizar(c.Query("buscar"))
	filtroActivo := c.Query("activo") // "", "true" o "false"

	col.mem.mu.RLock()
	defer col.mem.mu.RUnlock()

	out := make([]T, 0)
	for _, e := range *col.slice(col.mem) {
		if filtroActivo != "" && col.activo != nil {
			a := col.activo(e)
			if a == nil || *a != (filtroActivo == "true") {
				continue
			}
		}
		if termino != "" && col.buscable != nil {
			hit := false
			for _, campo := range col.buscable(e) {
				if strings.Contains(table.Normalizar(campo), termino) {
					hit = true
					break
				}
			}
			if !hit {
				continue
			}
		}
		out = append(out, *e)
	}
	return c.JSON(out)
}

func (col coleccion[T]) get(c *fiber.Ctx) error {
	e := col.buscarID(c.Params("id"))
	if e == nil {
		return errJSON(c, fiber.StatusNotFound, "NOT_FOUND", col.entidad+" no encontrado")
	}
	return c.JSON(*e)
}

func (col coleccion[T]) create(c *fiber.Ctx) error {
	e, err := col.crear(c)
	if err != nil {
		return errJSON(c, fiber.StatusBadRequest, "VALIDATION", err.Error())
	}
	if existente := col.buscarID(col.id(e)); existente != nil {
		return errJSON(c, fiber.StatusConflict, "DUPLICATE", col.entidad+" ya existe")
	}
	col.mem.mu.Lock()
	s := col.slice(col.mem)
	*s = append(*s, e)
	col.mem.mu.Unlock()
	col.mem.auditar("CREAR", col.entidad, col.id(e), actorEmail(c), "")
	return c.Status(fiber.StatusCreated).JSON(*e)
}

func (col coleccion[T]) update(c *fiber.Ctx) error {
	e := col.buscarID(c.Params("id"))
	if e == nil {
		return errJSON(c, fiber.StatusNotFound, "NOT_FOUND", col.entidad+" no encontrado")
	}
	col.mem.mu.Lock()
	err := col.actualizar(c, e)
	if err == nil && col.tocar != nil {
		col.tocar(e, time.Now())
	}
	col.mem.mu.Unlock()
	if err != nil {
		return errJSON(c, fiber.StatusBadRequest, "VALIDATION", err.Error())
	}
	col.mem.auditar("ACTUALIZAR", col.entidad, col.id(e), actorEmail(c), "")
	return c.JSON(*e)
}

// setActivo implementa el soft delete: solo voltea el flag, nunca elimina.
func (col coleccion[T]) setActivo(valor bool) fiber.Handler {
	accion := "DESACTIVAR"
	if valor {
		accion = "ACTIVAR"
	}
	return func(c *fiber.Ctx) error {
		e := col.buscarID(c.Params("id"))
		if e == nil {
			return errJSON(c, fiber.StatusNotFound, "NOT_FOUND", col.entidad+" no encontrado")
		}
		col.mem.mu.Lock()
		*col.activo(e) = valor
		if col.tocar != nil {
			col.tocar(e, time.Now())
		}
		col.mem.mu.Unlock()
		col.mem.auditar(accion, col.entidad, col.id(e), actorEmail(c), "")
		return c.JSON(*e)
	}
}
