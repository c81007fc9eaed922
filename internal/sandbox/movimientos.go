package sandbox

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ergsystem/ergpos-admin/internal/application/table"
	"github.com/ergsystem/ergpos-admin/internal/domain/entity"
)

// Los movimientos llevan handlers propios: su ciclo de vida es la máquina de
// estados PENDIENTE → ACTIVO → ANULADO, y activar/anular mueven el stock del
// producto de forma atómica con la transición.

type movimientoRequest struct {
	Tipo           string          `json:"tipo"`
	ProductoCodigo string          `json:"productoCodigo"`
	Cantidad       int             `json:"cantidad"`
	CostoUnitario  decimal.Decimal `json:"costoUnitario"`
	Motivo         string          `json:"motivo"`
}

func (a *App) listarMovimientos(c *fiber.Ctx) error {
	termino := table.Normalizar(c.Query("buscar"))
	filtroEstado := c.Query("estado")

	a.mem.mu.RLock()
	defer a.mem.mu.RUnlock()

	out := make([]entity.Movimiento, 0, len(a.mem.movimientos))
	for _, m := range a.mem.movimientos {
		if filtroEstado != "" && m.Estado != filtroEstado {
			continue
		}
		if termino != "" {
			campos := []string{m.ProductoCodigo, m.Motivo, m.CreadoPor}
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
		out = append(out, *m)
	}
	return c.JSON(out)
}

func (a *App) obtenerMovimiento(c *fiber.Ctx) error {
	m := a.buscarMovimiento(c.Params("id"))
	if m == nil {
		return errJSON(c, fiber.StatusNotFound, "NOT_FOUND", "movimiento no encontrado")
	}
	return c.JSON(*m)
}

func (a *App) crearMovimiento(c *fiber.Ctx) error {
	var in movimientoRequest
	if err := c.BodyParser(&in); err != nil {
		return errJSON(c, fiber.StatusBadRequest, "INVALID_BODY", "cuerpo inválido")
	}
	if in.Tipo != entity.TipoEntrada && in.Tipo != entity.TipoSalida && in.Tipo != entity.TipoAjuste {
		return errJSON(c, fiber.StatusBadRequest, "VALIDATION", "tipo debe ser ENTRADA, SALIDA o AJUSTE")
	}
	if in.Cantidad <= 0 {
		return errJSON(c, fiber.StatusBadRequest, "VALIDATION", "cantidad debe ser positiva")
	}
	if a.buscarProducto(in.ProductoCodigo) == nil {
		return errJSON(c, fiber.StatusBadRequest, "VALIDATION", "producto no existe")
	}

	now := time.Now()
	m := &entity.Movimiento{
		ID:             uuid.New().String(),
		Tipo:           in.Tipo,
		ProductoCodigo: in.ProductoCodigo,
		Cantidad:       in.Cantidad,
		CostoUnitario:  in.CostoUnitario,
		Motivo:         in.Motivo,
		Estado:         entity.EstadoPendiente,
		Fecha:          now,
		CreadoPor:      actorEmail(c),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	a.mem.mu.Lock()
	a.mem.movimientos = append(a.mem.movimientos, m)
	a.mem.mu.Unlock()
	a.mem.auditar("CREAR", "movimiento", m.ID, actorEmail(c), m.Tipo+" "+m.ProductoCodigo)
	return c.Status(fiber.StatusCreated).JSON(*m)
}

// activarMovimiento transiciona PENDIENTE → ACTIVO y aplica el efecto sobre el
// stock. La verificación de stock de una SALIDA ocurre antes de la transición:
// el stock nunca queda negativo.
func (a *App) activarMovimiento(c *fiber.Ctx) error {
	a.mem.mu.Lock()
	defer a.mem.mu.Unlock()

	m := a.buscarMovimientoLocked(c.Params("id"))
	if m == nil {
		return errJSON(c, fiber.StatusNotFound, "NOT_FOUND", "movimiento no encontrado")
	}
	if !m.PuedeActivar() {
		return errJSON(c, fiber.StatusConflict, "ESTADO_INVALIDO", "solo un movimiento PENDIENTE puede activarse")
	}
	p := a.buscarProductoLocked(m.ProductoCodigo)
	if p == nil {
		return errJSON(c, fiber.StatusConflict, "PRODUCTO_AUSENTE", "el producto del movimiento ya no existe")
	}
	switch m.Tipo {
	case entity.TipoSalida:
		if p.StockActual < m.Cantidad {
			return errJSON(c, fiber.StatusConflict, "STOCK_INSUFICIENTE", "stock insuficiente")
		}
		p.StockActual -= m.Cantidad
	default:
		p.StockActual += m.Cantidad
	}
	now := time.Now()
	m.Estado = entity.EstadoActivo
	m.UpdatedAt = now
	p.UpdatedAt = now

	a.mem.auditarLocked("ACTIVAR", "movimiento", m.ID, actorEmail(c), m.Tipo+" "+m.ProductoCodigo)
	return c.JSON(*m)
}

// anularMovimiento transiciona ACTIVO → ANULADO y revierte el efecto sobre el
// stock. ANULADO es terminal.
func (a *App) anularMovimiento(c *fiber.Ctx) error {
	a.mem.mu.Lock()
	defer a.mem.mu.Unlock()

	m := a.buscarMovimientoLocked(c.Params("id"))
	if m == nil {
		return errJSON(c, fiber.StatusNotFound, "NOT_FOUND", "movimiento no encontrado")
	}
	if !m.PuedeAnular() {
		return errJSON(c, fiber.StatusConflict, "ESTADO_INVALIDO", "solo un movimiento ACTIVO puede anularse")
	}
	p := a.buscarProductoLocked(m.ProductoCodigo)
	if p != nil {
		switch m.Tipo {
		case entity.TipoSalida:
			p.StockActual += m.Cantidad
		default:
			p.StockActual -= m.Cantidad
		}
		p.UpdatedAt = time.Now()
	}
	m.Estado = entity.EstadoAnulado
	m.UpdatedAt = time.Now()

	a.mem.auditarLocked("ANULAR", "movimiento", m.ID, actorEmail(c), m.Tipo+" "+m.ProductoCodigo)
	return c.JSON(*m)
}

func (a *App) buscarMovimiento(id string) *entity.Movimiento {
	a.mem.mu.RLock()
	defer a.mem.mu.RUnlock()
	return a.buscarMovimientoLocked(id)
}

func (a *App) buscarMovimientoLocked(id string) *entity.Movimiento {
	for _, m := range a.mem.movimientos {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (a *App) buscarProducto(codigo string) *entity.Producto {
	a.mem.mu.RLock()
	defer a.mem.mu.RUnlock()
	return a.buscarProductoLocked(codigo)
}

func (a *App) buscarProductoLocked(codigo string) *entity.Producto {
	for _, p := range a.mem.productos {
		if p.Codigo == codigo {
			return p
		}
	}
	return nil
}
