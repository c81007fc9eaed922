package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de inventario.
const (
	TipoEntrada = "ENTRADA"
	TipoSalida  = "SALIDA"
	TipoAjuste  = "AJUSTE"
)

// Estados del ciclo de vida de un movimiento. Las transiciones son solo hacia
// adelante: PENDIENTE → ACTIVO (activar) y ACTIVO → ANULADO (anular).
// ANULADO es terminal; PENDIENTE → ANULADO no está expuesto.
const (
	EstadoPendiente = "PENDIENTE"
	EstadoActivo    = "ACTIVO"
	EstadoAnulado   = "ANULADO"
)

// Movimiento representa una transacción de inventario (entrada, salida o ajuste).
type Movimiento struct {
	ID             string          `json:"id"`
	Tipo           string          `json:"tipo"`
	ProductoCodigo string          `json:"productoCodigo"`
	Cantidad       int             `json:"cantidad"`
	CostoUnitario  decimal.Decimal `json:"costoUnitario"`
	Motivo         string          `json:"motivo"`
	Estado         string          `json:"estado"`
	Fecha          time.Time       `json:"fecha"`
	CreadoPor      string          `json:"creadoPor"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// PuedeActivar informa si el movimiento admite la transición a ACTIVO.
func (m Movimiento) PuedeActivar() bool {
	return m.Estado == EstadoPendiente
}

// PuedeAnular informa si el movimiento admite la transición a ANULADO.
func (m Movimiento) PuedeAnular() bool {
	return m.Estado == EstadoActivo
}

// EsTerminal informa si el movimiento ya no admite ninguna transición.
func (m Movimiento) EsTerminal() bool {
	return m.Estado == EstadoAnulado
}
