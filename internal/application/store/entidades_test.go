package store_test

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ergsystem/ergpos-admin/internal/application/store"
	"github.com/ergsystem/ergpos-admin/internal/domain"
	"github.com/ergsystem/ergpos-admin/internal/domain/entity"
	"github.com/ergsystem/ergpos-admin/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Usuarios: la protección contra auto-desactivación es client-side y no emite
// la petición.
// ──────────────────────────────────────────────────────────────────────────────

func usuario(id, email string) entity.Usuario {
	return entity.Usuario{
		ID: id, Codigo: "U-" + id, Email: email, Nombre: "Usuario " + id,
		Roles: []string{entity.RolAdministrador}, Modules: []string{"usuarios"}, Activo: true,
	}
}

func TestUsuariosDesactivar_PropioUsuarioSeRechazaSinRed(t *testing.T) {
	var peticionesDesactivar int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /usuarios", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]entity.Usuario{usuario("u-1", "admin@ergpos.com"), usuario("u-2", "otro@ergpos.com")})
	})
	mux.HandleFunc("PATCH /usuarios/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&peticionesDesactivar, 1)
		json.NewEncoder(w).Encode(usuario("u-1", "admin@ergpos.com"))
	})
	actual := usuario("u-1", "admin@ergpos.com")
	s := store.NewUsuarios(clienteSobre(t, mux), logger.Nop(), func() *entity.Usuario { return &actual })
	require.NoError(t, s.List(context.Background(), store.Filtro{}))

	_, err := s.Desactivar(context.Background(), "u-1")

	assert.ErrorIs(t, err, domain.ErrAutoDesactivacion)
	assert.Zero(t, atomic.LoadInt32(&peticionesDesactivar), "la guarda corta antes de emitir la petición")
	assert.NotEmpty(t, s.LastError())
}

func TestUsuariosDesactivar_ComparaPorEmailSinCase(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /usuarios", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]entity.Usuario{usuario("u-1", "Admin@ERGPOS.com")})
	})
	actual := usuario("u-1", "admin@ergpos.com")
	s := store.NewUsuarios(clienteSobre(t, mux), logger.Nop(), func() *entity.Usuario { return &actual })
	require.NoError(t, s.List(context.Background(), store.Filtro{}))

	_, err := s.Desactivar(context.Background(), "u-1")

	assert.ErrorIs(t, err, domain.ErrAutoDesactivacion)
}

func TestUsuariosDesactivar_OtroUsuarioSi(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /usuarios", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]entity.Usuario{usuario("u-1", "admin@ergpos.com"), usuario("u-2", "otro@ergpos.com")})
	})
	mux.HandleFunc("PATCH /usuarios/u-2/desactivar", func(w http.ResponseWriter, r *http.Request) {
		apagado := usuario("u-2", "otro@ergpos.com")
		apagado.Activo = false
		json.NewEncoder(w).Encode(apagado)
	})
	actual := usuario("u-1", "admin@ergpos.com")
	s := store.NewUsuarios(clienteSobre(t, mux), logger.Nop(), func() *entity.Usuario { return &actual })
	require.NoError(t, s.List(context.Background(), store.Filtro{}))

	apagado, err := s.Desactivar(context.Background(), "u-2")

	require.NoError(t, err)
	assert.False(t, apagado.Activo)
}

// ──────────────────────────────────────────────────────────────────────────────
// Movimientos: máquina de estados PENDIENTE → ACTIVO → ANULADO con verificación
// de stock client-side para salidas.
// ──────────────────────────────────────────────────────────────────────────────

func movimiento(id, tipo, producto, estado string, cantidad int) entity.Movimiento {
	return entity.Movimiento{ID: id, Tipo: tipo, ProductoCodigo: producto, Cantidad: cantidad, Estado: estado}
}

func producto(codigo string, stock int) entity.Producto {
	return entity.Producto{Codigo: codigo, Nombre: "Producto " + codigo, StockActual: stock, Activo: true}
}

// armarMovimientos deja cargados los stores de productos y movimientos con los
// datos indicados y devuelve el contador de llamadas a activar.
func armarMovimientos(t *testing.T, movs []entity.Movimiento, prods []entity.Producto) (*store.Movimientos, *int32) {
	t.Helper()
	var activaciones int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /movimientos", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(movs)
	})
	mux.HandleFunc("GET /productos", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(prods)
	})
	mux.HandleFunc("PATCH /movimientos/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&activaciones, 1)
		activado := movs[0]
		activado.Estado = entity.EstadoActivo
		json.NewEncoder(w).Encode(activado)
	})
	c := clienteSobre(t, mux)
	productos := store.NewProductos(c, logger.Nop())
	require.NoError(t, productos.List(context.Background(), store.Filtro{}))
	movimientos := store.NewMovimientos(c, logger.Nop(), productos)
	require.NoError(t, movimientos.List(context.Background(), store.Filtro{}))
	return movimientos, &activaciones
}

func TestMovimientosActivar_SalidaConStockSuficiente(t *testing.T) {
	s, activaciones := armarMovimientos(t,
		[]entity.Movimiento{movimiento("m-1", entity.TipoSalida, "P-001", entity.EstadoPendiente, 5)},
		[]entity.Producto{producto("P-001", 25)},
	)

	activado, err := s.Activar(context.Background(), "m-1")

	require.NoError(t, err)
	assert.Equal(t, entity.EstadoActivo, activado.Estado)
	assert.EqualValues(t, 1, atomic.LoadInt32(activaciones))
}

func TestMovimientosActivar_SalidaSinStockNoLlamaAlEndpoint(t *testing.T) {
	s, activaciones := armarMovimientos(t,
		[]entity.Movimiento{movimiento("m-1", entity.TipoSalida, "P-002", entity.EstadoPendiente, 10)},
		[]entity.Producto{producto("P-002", 5)},
	)

	_, err := s.Activar(context.Background(), "m-1")

	assert.ErrorIs(t, err, domain.ErrStockInsuficiente)
	assert.Zero(t, atomic.LoadInt32(activaciones), "la verificación de stock corta antes del endpoint")
	assert.NotEmpty(t, s.LastError())
}

func TestMovimientosActivar_EntradaNoVerificaStock(t *testing.T) {
	s, activaciones := armarMovimientos(t,
		[]entity.Movimiento{movimiento("m-1", entity.TipoEntrada, "P-003", entity.EstadoPendiente, 100)},
		[]entity.Producto{producto("P-003", 0)},
	)

	_, err := s.Activar(context.Background(), "m-1")

	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(activaciones))
}

func TestMovimientosActivar_SoloDesdePendiente(t *testing.T) {
	s, activaciones := armarMovimientos(t,
		[]entity.Movimiento{movimiento("m-1", entity.TipoEntrada, "P-001", entity.EstadoActivo, 5)},
		[]entity.Producto{producto("P-001", 25)},
	)

	_, err := s.Activar(context.Background(), "m-1")

	assert.ErrorIs(t, err, domain.ErrTransicionInvalida)
	assert.Zero(t, atomic.LoadInt32(activaciones))
}

func TestMovimientosAnular_SoloDesdeActivo(t *testing.T) {
	s, llamadas := armarMovimientos(t,
		[]entity.Movimiento{movimiento("m-1", entity.TipoEntrada, "P-001", entity.EstadoPendiente, 5)},
		[]entity.Producto{producto("P-001", 25)},
	)

	_, err := s.Anular(context.Background(), "m-1")

	assert.ErrorIs(t, err, domain.ErrTransicionInvalida,
		"un PENDIENTE no puede anularse: primero se activa o se queda pendiente")
	assert.Zero(t, atomic.LoadInt32(llamadas))
}

func TestMovimientosAnular_AnuladoEsTerminal(t *testing.T) {
	s, llamadas := armarMovimientos(t,
		[]entity.Movimiento{movimiento("m-1", entity.TipoSalida, "P-001", entity.EstadoAnulado, 5)},
		[]entity.Producto{producto("P-001", 25)},
	)

	_, errAnular := s.Anular(context.Background(), "m-1")
	_, errActivar := s.Activar(context.Background(), "m-1")

	assert.ErrorIs(t, errAnular, domain.ErrTransicionInvalida)
	assert.ErrorIs(t, errActivar, domain.ErrTransicionInvalida)
	assert.Zero(t, atomic.LoadInt32(llamadas), "ANULADO no admite ninguna transición")
}

func TestMovimientosDesactivar_NoExiste(t *testing.T) {
	s, llamadas := armarMovimientos(t,
		[]entity.Movimiento{movimiento("m-1", entity.TipoEntrada, "P-001", entity.EstadoActivo, 5)},
		[]entity.Producto{producto("P-001", 25)},
	)

	_, err := s.Desactivar(context.Background(), "m-1")

	assert.ErrorIs(t, err, domain.ErrTransicionInvalida,
		"el ciclo de vida de un movimiento es la máquina de estados, no el flag activo")
	assert.Zero(t, atomic.LoadInt32(llamadas))
}
