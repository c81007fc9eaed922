package store_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ergsystem/ergpos-admin/internal/application/store"
	"github.com/ergsystem/ergpos-admin/internal/domain/entity"
	"github.com/ergsystem/ergpos-admin/internal/infrastructure/api"
	"github.com/ergsystem/ergpos-admin/pkg/logger"
)

func clienteSobre(t *testing.T, handler http.Handler) *api.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return api.New(api.Config{BaseURL: srv.URL, Timeout: 2 * time.Second}, logger.Nop())
}

func categoria(codigo, nombre string, activo bool) entity.Categoria {
	return entity.Categoria{Codigo: codigo, Nombre: nombre, Activo: activo}
}

func TestList_ReemplazaLaListaCompleta(t *testing.T) {
	c := clienteSobre(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]entity.Categoria{
			categoria("CAT-01", "Bebidas", true),
			categoria("CAT-02", "Aseo", true),
		})
	}))
	s := store.NewCategorias(c, logger.Nop())

	require.NoError(t, s.List(context.Background(), store.Filtro{}))

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "CAT-01", items[0].Codigo)
	assert.False(t, s.IsLoading(), "cargando se restablece al terminar")
	assert.Empty(t, s.LastError())
}

func TestList_TraduceElFiltroAQueryParams(t *testing.T) {
	var rawQuery string
	c := clienteSobre(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode([]entity.Categoria{})
	}))
	s := store.NewCategorias(c, logger.Nop())

	activos := true
	require.NoError(t, s.List(context.Background(), store.Filtro{Buscar: "aseo", Activo: &activos}))

	assert.Contains(t, rawQuery, "buscar=aseo")
	assert.Contains(t, rawQuery, "activo=true")
}

func TestList_ErrorQuedaRegistradoYSeDevuelve(t *testing.T) {
	c := clienteSobre(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(api.ErrorEnvelope{Code: "INTERNAL", Message: "falla interna"})
	}))
	s := store.NewCategorias(c, logger.Nop())

	err := s.List(context.Background(), store.Filtro{})

	require.Error(t, err, "el store no traga errores")
	assert.Equal(t, "falla interna", s.LastError(), "y además los registra para la vista")
	assert.False(t, s.IsLoading(), "cargando se restablece también en fallo")

	s.ClearError()
	assert.Empty(t, s.LastError())
	s.ClearError() // idempotente
}

// TestList_FencingGanaLaUltimaPeticion emite dos listados concurrentes y
// retiene la respuesta del primero hasta que el segundo terminó: la respuesta
// obsoleta debe descartarse sin tocar el estado.
func TestList_FencingGanaLaUltimaPeticion(t *testing.T) {
	primeraRecibida := make(chan struct{})
	soltarPrimera := make(chan struct{})
	c := clienteSobre(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("buscar") == "lenta" {
			close(primeraRecibida)
			<-soltarPrimera
			json.NewEncoder(w).Encode([]entity.Categoria{categoria("VIEJA", "Respuesta obsoleta", true)})
			return
		}
		json.NewEncoder(w).Encode([]entity.Categoria{categoria("NUEVA", "Respuesta vigente", true)})
	}))
	s := store.NewCategorias(c, logger.Nop())

	var wg sync.WaitGroup
	var errPrimera error
	wg.Add(1)
	go func() {
		defer wg.Done()
		errPrimera = s.List(context.Background(), store.Filtro{Buscar: "lenta"})
	}()

	<-primeraRecibida
	require.NoError(t, s.List(context.Background(), store.Filtro{Buscar: "rapida"}))

	close(soltarPrimera)
	wg.Wait()

	assert.NoError(t, errPrimera, "la respuesta obsoleta se descarta en silencio")
	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "NUEVA", items[0].Codigo, "gana la última petición emitida, no la última en llegar")
	assert.False(t, s.IsLoading())
}

func TestGet_DejaLaEntidadSeleccionada(t *testing.T) {
	c := clienteSobre(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(categoria("CAT-01", "Bebidas", true))
	}))
	s := store.NewCategorias(c, logger.Nop())

	got, err := s.Get(context.Background(), "CAT-01")

	require.NoError(t, err)
	assert.Equal(t, "Bebidas", got.Nombre)
	require.NotNil(t, s.Selected())
	assert.Equal(t, "CAT-01", s.Selected().Codigo)
}

func TestCreate_AgregaAlFinal(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /categorias", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]entity.Categoria{categoria("CAT-01", "Bebidas", true)})
	})
	mux.HandleFunc("POST /categorias", func(w http.ResponseWriter, r *http.Request) {
		var in map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(categoria("CAT-02", in["nombre"].(string), true))
	})
	s := store.NewCategorias(clienteSobre(t, mux), logger.Nop())
	require.NoError(t, s.List(context.Background(), store.Filtro{}))

	creada, err := s.Create(context.Background(), map[string]any{"codigo": "CAT-02", "nombre": "Aseo"})

	require.NoError(t, err)
	assert.Equal(t, "Aseo", creada.Nombre)
	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "CAT-02", items[1].Codigo, "la entidad creada va al final de la lista")
}

func TestCreate_EnFalloNoTocaLaLista(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /categorias", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]entity.Categoria{categoria("CAT-01", "Bebidas", true)})
	})
	mux.HandleFunc("POST /categorias", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(api.ErrorEnvelope{Code: "VALIDATION", Message: "nombre es obligatorio"})
	})
	s := store.NewCategorias(clienteSobre(t, mux), logger.Nop())
	require.NoError(t, s.List(context.Background(), store.Filtro{}))

	_, err := s.Create(context.Background(), map[string]any{"codigo": "CAT-02"})

	require.Error(t, err)
	assert.Len(t, s.Items(), 1, "el fallo no deja una entidad fantasma en la lista")
	assert.Equal(t, "nombre es obligatorio", s.LastError())
}

func TestUpdate_PreservaLaPosicion(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /categorias", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]entity.Categoria{
			categoria("CAT-01", "Bebidas", true),
			categoria("CAT-02", "Aseo", true),
			categoria("CAT-03", "Papelería", true),
		})
	})
	mux.HandleFunc("PUT /categorias/CAT-02", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(categoria("CAT-02", "Aseo y hogar", true))
	})
	s := store.NewCategorias(clienteSobre(t, mux), logger.Nop())
	require.NoError(t, s.List(context.Background(), store.Filtro{}))

	_, err := s.Update(context.Background(), "CAT-02", map[string]any{"nombre": "Aseo y hogar"})

	require.NoError(t, err)
	items := s.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "Aseo y hogar", items[1].Nombre, "la entidad editada conserva su posición")
	assert.Equal(t, "CAT-01", items[0].Codigo)
	assert.Equal(t, "CAT-03", items[2].Codigo)
}

func TestUpdate_RefrescaLaSeleccion(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /categorias/CAT-01", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(categoria("CAT-01", "Bebidas", true))
	})
	mux.HandleFunc("PUT /categorias/CAT-01", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(categoria("CAT-01", "Bebidas frías", true))
	})
	s := store.NewCategorias(clienteSobre(t, mux), logger.Nop())
	_, err := s.Get(context.Background(), "CAT-01")
	require.NoError(t, err)

	_, err = s.Update(context.Background(), "CAT-01", map[string]any{"nombre": "Bebidas frías"})

	require.NoError(t, err)
	require.NotNil(t, s.Selected())
	assert.Equal(t, "Bebidas frías", s.Selected().Nombre)
}

func TestActivarDesactivar_ReconcilianConLaRespuesta(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /categorias", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]entity.Categoria{categoria("CAT-01", "Bebidas", true)})
	})
	mux.HandleFunc("PATCH /categorias/CAT-01/desactivar", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(categoria("CAT-01", "Bebidas", false))
	})
	mux.HandleFunc("PATCH /categorias/CAT-01/activar", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(categoria("CAT-01", "Bebidas", true))
	})
	s := store.NewCategorias(clienteSobre(t, mux), logger.Nop())
	require.NoError(t, s.List(context.Background(), store.Filtro{}))

	apagada, err := s.Desactivar(context.Background(), "CAT-01")
	require.NoError(t, err)
	assert.False(t, apagada.Activo)
	assert.False(t, s.Items()[0].Activo, "la lista refleja el estado que devolvió el servidor")

	encendida, err := s.Activar(context.Background(), "CAT-01")
	require.NoError(t, err)
	assert.True(t, encendida.Activo)
	assert.True(t, s.Items()[0].Activo)
}
