package table

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Estado de la grilla. Vacío (nada cargado), sin resultados (cargado pero el
// filtro dejó cero filas) y cargando son tres estados distintos, nunca
// conflados.
type Estado int

const (
	EstadoCargando Estado = iota
	EstadoVacio
	EstadoSinResultados
	EstadoConFilas
)

// Columna de la grilla: título más accesor del valor de la celda. Renderizar
// puede sobreescribir la presentación del valor crudo (precio formateado,
// badge de estado, etc.).
type Columna[T any] struct {
	Titulo     string
	Valor      func(T) string
	Renderizar func(T) string // opcional
}

// Acciones predicados de visibilidad de acciones por fila. Un predicado nil
// equivale a "nunca visible".
type Acciones[T any] struct {
	PuedeVer        func(T) bool
	PuedeEditar     func(T) bool
	PuedeActivar    func(T) bool
	PuedeDesactivar func(T) bool
}

// Filtro de la grilla: búsqueda de texto y filtro exacto por activo. Ambos
// componen con AND y operan sobre la lista ya cargada en memoria.
type Filtro struct {
	Texto  string
	Activo *bool // nil = todos
}

// Config de una grilla: columnas, acciones, campos de búsqueda, accesor del
// flag activo (nil para entidades inmutables como auditoría) y tamaño fijo de
// página de la pantalla.
type Config[T any] struct {
	Columnas       []Columna[T]
	Acciones       Acciones[T]
	CamposBusqueda func(T) []string
	Activo         func(T) *bool
	TamanoPagina   int
}

// Fila es una fila lista para renderizar: celdas ya formateadas y visibilidad
// de acciones resuelta por fila.
type Fila[T any] struct {
	Entidad    T
	Celdas     []string
	Ver        bool
	Editar     bool
	Activar    bool
	Desactivar bool
}

// Pagina es el resultado de renderizar la grilla: el estado, las filas de la
// página solicitada y los totales tras filtrar.
type Pagina[T any] struct {
	Estado         Estado
	Filas          []Fila[T]
	Numero         int // página actual, desde 1
	TotalPaginas   int
	TotalFiltradas int
}

// Render aplica filtro, paginación client-side y predicados de acciones sobre
// la lista ya cargada. pagina se indexa desde 1 y se ajusta al rango válido.
func Render[T any](cfg Config[T], items []T, cargando bool, f Filtro, pagina int) Pagina[T] {
	if cargando {
		return Pagina[T]{Estado: EstadoCargando}
	}
	if len(items) == 0 {
		return Pagina[T]{Estado: EstadoVacio}
	}

	filtradas := filtrar(cfg, items, f)
	if len(filtradas) == 0 {
		return Pagina[T]{Estado: EstadoSinResultados}
	}

	tam := cfg.TamanoPagina
	if tam <= 0 {
		tam = 20
	}
	totalPaginas := (len(filtradas) + tam - 1) / tam
	if pagina < 1 {
		pagina = 1
	}
	if pagina > totalPaginas {
		pagina = totalPaginas
	}
	inicio := (pagina - 1) * tam
	fin := inicio + tam
	if fin > len(filtradas) {
		fin = len(filtradas)
	}

	filas := make([]Fila[T], 0, fin-inicio)
	for _, e := range filtradas[inicio:fin] {
		filas = append(filas, fila(cfg, e))
	}
	return Pagina[T]{
		Estado:         EstadoConFilas,
		Filas:          filas,
		Numero:         pagina,
		TotalPaginas:   totalPaginas,
		TotalFiltradas: len(filtradas),
	}
}

func filtrar[T any](cfg Config[T], items []T, f Filtro) []T {
	termino := Normalizar(f.Texto)
	var out []T
	for _, e := range items {
		if f.Activo != nil && cfg.Activo != nil {
			activo := cfg.Activo(e)
			if activo == nil || *activo != *f.Activo {
				continue
			}
		}
		if termino != "" && !coincide(cfg, e, termino) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// coincide busca el término normalizado como substring en los campos de
// búsqueda de la entidad.
func coincide[T any](cfg Config[T], e T, termino string) bool {
	if cfg.CamposBusqueda == nil {
		return false
	}
	for _, campo := range cfg.CamposBusqueda(e) {
		if strings.Contains(Normalizar(campo), termino) {
			return true
		}
	}
	return false
}

func fila[T any](cfg Config[T], e T) Fila[T] {
	celdas := make([]string, len(cfg.Columnas))
	for i, col := range cfg.Columnas {
		if col.Renderizar != nil {
			celdas[i] = col.Renderizar(e)
		} else {
			celdas[i] = col.Valor(e)
		}
	}
	return Fila[T]{
		Entidad:    e,
		Celdas:     celdas,
		Ver:        pred(cfg.Acciones.PuedeVer, e),
		Editar:     pred(cfg.Acciones.PuedeEditar, e),
		Activar:    pred(cfg.Acciones.PuedeActivar, e),
		Desactivar: pred(cfg.Acciones.PuedeDesactivar, e),
	}
}

func pred[T any](p func(T) bool, e T) bool {
	return p != nil && p(e)
}

// quitarTildes descompone (NFD), elimina las marcas diacríticas y recompone.
var quitarTildes = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalizar prepara un texto para búsqueda: minúsculas y sin tildes, de modo
// que "Categoría" coincida con "categoria".
func Normalizar(s string) string {
	plano, _, err := transform.String(quitarTildes, s)
	if err != nil {
		plano = s
	}
	return strings.ToLower(strings.TrimSpace(plano))
}
