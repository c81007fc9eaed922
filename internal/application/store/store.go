package store

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/ergsystem/ergpos-admin/internal/infrastructure/api"
	"github.com/ergsystem/ergpos-admin/pkg/logger"
)

// Filtro parámetros de listado. Se traducen a query params del endpoint.
type Filtro struct {
	Buscar string // búsqueda de texto en el servidor (opcional)
	Activo *bool  // nil = todos
}

func (f Filtro) values() url.Values {
	q := url.Values{}
	if f.Buscar != "" {
		q.Set("buscar", f.Buscar)
	}
	if f.Activo != nil {
		q.Set("activo", strconv.FormatBool(*f.Activo))
	}
	return q
}

// Resource describe un recurso REST: su path y cómo extraer el identificador
// de una entidad (codigo o id según la entidad).
type Resource[T any] struct {
	Path string
	ID   func(T) string
}

// Store es el contenedor de estado genérico de una entidad. Es el único dueño
// de la lista en memoria: las vistas la leen a través de Items y mutan
// exclusivamente a través de las operaciones del store. No hay mutación
// optimista: la lista muestra el estado anterior hasta que el servidor
// responde.
//
// Las operaciones registran el error en LastError Y lo devuelven: el store no
// traga errores y la vista decide además qué mostrar.
type Store[T any] struct {
	api *api.Client
	log *logger.Logger
	res Resource[T]

	mu        sync.Mutex
	items     []T
	selected  *T
	cargando  bool
	lastError string
	listSeq   uint64 // secuencia de fencing para List
}

// New construye un store para el recurso dado.
func New[T any](apiClient *api.Client, log *logger.Logger, res Resource[T]) *Store[T] {
	return &Store[T]{api: apiClient, log: log, res: res}
}

// Items devuelve una copia de la lista vigente (orden asignado por el servidor).
func (s *Store[T]) Items() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Selected devuelve la entidad seleccionada, o nil.
func (s *Store[T]) Selected() *T {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return nil
	}
	e := *s.selected
	return &e
}

// IsLoading informa si hay un listado en curso.
func (s *Store[T]) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cargando
}

// LastError devuelve el último error registrado (vacío si ninguno).
func (s *Store[T]) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// ClearError limpia el último error. Idempotente.
func (s *Store[T]) ClearError() {
	s.mu.Lock()
	s.lastError = ""
	s.mu.Unlock()
}

// List reemplaza la lista completa con la respuesta del servidor. Listados
// concurrentes se resuelven con fencing por secuencia: gana la última petición
// emitida y las respuestas obsoletas se descartan sin tocar el estado.
// cargando se restablece siempre que la respuesta no sea obsoleta, tanto en
// éxito como en fallo.
func (s *Store[T]) List(ctx context.Context, f Filtro) error {
	s.mu.Lock()
	s.listSeq++
	seq := s.listSeq
	s.cargando = true
	s.mu.Unlock()

	var out []T
	err := s.api.Do(ctx, http.MethodGet, s.res.Path, f.values(), nil, &out)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.listSeq {
		// Respuesta obsoleta: hay una petición más reciente en vuelo.
		return nil
	}
	s.cargando = false
	if err != nil {
		s.log.Debug().Err(err).Str("recurso", s.res.Path).Msg("listado falló")
		s.lastError = api.Mensaje(err)
		return err
	}
	s.items = out
	s.lastError = ""
	return nil
}

// Get obtiene una entidad por id y la deja como seleccionada.
func (s *Store[T]) Get(ctx context.Context, id string) (T, error) {
	var out T
	if err := s.api.Do(ctx, http.MethodGet, s.res.Path+"/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return out, s.fallo(err)
	}
	s.mu.Lock()
	s.selected = &out
	s.mu.Unlock()
	return out, nil
}

// Create crea la entidad y la agrega al final de la lista. No hay chequeo de
// duplicados del lado del cliente: el llamador no debe invocar dos veces.
// En fallo el error queda registrado y se devuelve, para que el formulario
// conserve sus campos.
func (s *Store[T]) Create(ctx context.Context, input any) (T, error) {
	var out T
	if err := s.api.Do(ctx, http.MethodPost, s.res.Path, nil, input, &out); err != nil {
		return out, s.fallo(err)
	}
	s.mu.Lock()
	s.items = append(s.items, out)
	s.lastError = ""
	s.mu.Unlock()
	return out, nil
}

// Update actualiza la entidad y reemplaza el elemento correspondiente de la
// lista preservando su posición. Si la entidad editada era la seleccionada,
// la selección se refresca.
func (s *Store[T]) Update(ctx context.Context, id string, input any) (T, error) {
	var out T
	if err := s.api.Do(ctx, http.MethodPut, s.res.Path+"/"+url.PathEscape(id), nil, input, &out); err != nil {
		return out, s.fallo(err)
	}
	s.replace(id, out)
	return out, nil
}

// Activar marca la entidad como activa. Emite exactamente una llamada; no hay
// reintento automático ni volteo optimista del flag.
func (s *Store[T]) Activar(ctx context.Context, id string) (T, error) {
	return s.patch(ctx, id, "activar")
}

// Desactivar marca la entidad como inactiva (soft delete: la entidad sigue
// siendo direccionable y listable bajo el filtro de inactivos).
func (s *Store[T]) Desactivar(ctx context.Context, id string) (T, error) {
	return s.patch(ctx, id, "desactivar")
}

// patch ejecuta PATCH /<recurso>/<id>/<accion> y reconcilia la lista con la
// entidad devuelta.
func (s *Store[T]) patch(ctx context.Context, id, accion string) (T, error) {
	var out T
	path := s.res.Path + "/" + url.PathEscape(id) + "/" + accion
	if err := s.api.Do(ctx, http.MethodPatch, path, nil, nil, &out); err != nil {
		return out, s.fallo(err)
	}
	s.replace(id, out)
	return out, nil
}

// buscar devuelve la entidad con el id dado dentro de la lista cargada.
func (s *Store[T]) buscar(id string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.items {
		if s.res.ID(e) == id {
			return e, true
		}
	}
	var zero T
	return zero, false
}

// replace sustituye en su posición el elemento con el id dado y refresca la
// selección si corresponde.
func (s *Store[T]) replace(id string, e T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.res.ID(s.items[i]) == id {
			s.items[i] = e
			break
		}
	}
	if s.selected != nil && s.res.ID(*s.selected) == id {
		s.selected = &e
	}
	s.lastError = ""
}

// fallo registra y devuelve el error de la operación.
func (s *Store[T]) fallo(err error) error {
	s.mu.Lock()
	s.lastError = api.Mensaje(err)
	s.mu.Unlock()
	return err
}
