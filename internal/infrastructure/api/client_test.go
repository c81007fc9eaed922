package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ergsystem/ergpos-admin/internal/infrastructure/api"
	"github.com/ergsystem/ergpos-admin/pkg/logger"
)

func nuevoCliente(t *testing.T, handler http.Handler) *api.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return api.New(api.Config{BaseURL: srv.URL, Timeout: 2 * time.Second}, logger.Nop())
}

func TestDo_InyectaBearerYDecodificaRespuesta(t *testing.T) {
	var authRecibida string
	c := nuevoCliente(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authRecibida = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"codigo":"P-001"}`))
	}))
	c.SetToken("un-token")

	var out struct {
		Codigo string `json:"codigo"`
	}
	err := c.Do(context.Background(), http.MethodGet, "productos/P-001", nil, nil, &out)

	require.NoError(t, err)
	assert.Equal(t, "Bearer un-token", authRecibida)
	assert.Equal(t, "P-001", out.Codigo)
}

func TestDo_DecodificaEnvelopeDeError(t *testing.T) {
	c := nuevoCliente(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"code":"STOCK_INSUFICIENTE","message":"stock insuficiente"}`))
	}))

	err := c.Do(context.Background(), http.MethodPatch, "movimientos/m-1/activar", nil, nil, nil)

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "STOCK_INSUFICIENTE", apiErr.Code)
	assert.Equal(t, "stock insuficiente", api.Mensaje(err), "el mensaje del servidor llega intacto a la vista")
}

func TestDo_SinEnvelopeCaeAlMensajeGenerico(t *testing.T) {
	c := nuevoCliente(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("panico interno sin formato"))
	}))

	err := c.Do(context.Background(), http.MethodGet, "productos", nil, nil, nil)

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, api.MensajeGenerico, apiErr.Message)
}

func TestDo_FalloDeRedEsStatusCero(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // servidor ya caído
	c := api.New(api.Config{BaseURL: srv.URL, Timeout: time.Second}, logger.Nop())

	err := c.Do(context.Background(), http.MethodGet, "productos", nil, nil, nil)

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 0, apiErr.Status)
	assert.Equal(t, api.MensajeGenerico, apiErr.Message)
	assert.Error(t, apiErr.Unwrap(), "la causa de red subyacente queda envuelta")
}

func TestDo_HookDe401SeDisparaUnaVezPorRespuesta(t *testing.T) {
	c := nuevoCliente(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":"INVALID_TOKEN","message":"token inválido o expirado"}`))
	}))

	var disparos int32
	c.OnUnauthorized(func() { atomic.AddInt32(&disparos, 1) })

	err := c.Do(context.Background(), http.MethodGet, "productos", nil, nil, nil)

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.EsAutenticacion())
	assert.EqualValues(t, 1, atomic.LoadInt32(&disparos))

	_ = c.Do(context.Background(), http.MethodGet, "categorias", nil, nil, nil)
	assert.EqualValues(t, 2, atomic.LoadInt32(&disparos), "cada respuesta 401 dispara el hook")
}

func TestDo_QueryParams(t *testing.T) {
	var rawQuery string
	c := nuevoCliente(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		w.Write([]byte(`[]`))
	}))

	q := map[string][]string{"buscar": {"café"}, "activo": {"true"}}
	var out []struct{}
	err := c.Do(context.Background(), http.MethodGet, "productos", q, nil, &out)

	require.NoError(t, err)
	assert.Contains(t, rawQuery, "activo=true")
	assert.Contains(t, rawQuery, "buscar=")
}

// ──────────────────────────────────────────────────────────────────────────────
// WithBackoff: reintento opt-in solo para fallos transitorios.
// ──────────────────────────────────────────────────────────────────────────────

func TestWithBackoff_ReintentaFallosTransitorios(t *testing.T) {
	var llamadas int32
	c := nuevoCliente(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&llamadas, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))

	err := api.WithBackoff(context.Background(), 5, time.Millisecond, func(ctx context.Context) error {
		return c.Do(ctx, http.MethodGet, "health", nil, nil, nil)
	})

	require.NoError(t, err)
	assert.EqualValues(t, 3, atomic.LoadInt32(&llamadas), "dos 503 reintentados, tercera llamada exitosa")
}

func TestWithBackoff_NoReintentaErroresDeterministas(t *testing.T) {
	var llamadas int32
	c := nuevoCliente(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&llamadas, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":"VALIDATION","message":"cantidad debe ser positiva"}`))
	}))

	err := api.WithBackoff(context.Background(), 5, time.Millisecond, func(ctx context.Context) error {
		return c.Do(ctx, http.MethodPost, "movimientos", nil, nil, nil)
	})

	require.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&llamadas), "un 4xx no se reintenta")
}

func TestWithBackoff_AgotaIntentos(t *testing.T) {
	var llamadas int32
	c := nuevoCliente(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&llamadas, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))

	err := api.WithBackoff(context.Background(), 3, time.Millisecond, func(ctx context.Context) error {
		return c.Do(ctx, http.MethodGet, "productos", nil, nil, nil)
	})

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr, "agotados los intentos se devuelve el último error")
	assert.EqualValues(t, 3, atomic.LoadInt32(&llamadas))
}

func TestMensaje(t *testing.T) {
	assert.Equal(t, "", api.Mensaje(nil))
	assert.Equal(t, "algo falló", api.Mensaje(errors.New("algo falló")))
}
