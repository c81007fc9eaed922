package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/ergsystem/ergpos-admin/internal/application/permission"
	"github.com/ergsystem/ergpos-admin/internal/application/store"
	"github.com/ergsystem/ergpos-admin/internal/application/table"
	"github.com/ergsystem/ergpos-admin/internal/domain/entity"
	"github.com/ergsystem/ergpos-admin/internal/infrastructure/api"
)

// tamanoPagina tamaño fijo de página de todas las pantallas de la consola.
const tamanoPagina = 15

// vista es una página de grilla ya renderizada, sin genéricos, lista para el
// tabwriter.
type vista struct {
	Estado         table.Estado
	Encabezados    []string
	Filas          [][]string // celdas + columna de acciones disponibles
	Numero         int
	TotalPaginas   int
	TotalFiltradas int
}

// pantalla agrupa las operaciones de un recurso detrás de closures no
// genéricos para que el despachador de comandos sea uniforme.
type pantalla struct {
	listar     func(context.Context) error
	render     func(table.Filtro, int) vista
	crear      func(context.Context, string) error
	actualizar func(context.Context, string, string) error
	activar    func(context.Context, string) error
	desactivar func(context.Context, string) error
	anular     func(context.Context, string) error
}

// pantallaDe adapta un store tipado y su configuración de grilla a pantalla.
func pantallaDe[T any](
	cfg table.Config[T],
	listar func(context.Context, store.Filtro) error,
	items func() []T,
	cargando func() bool,
) pantalla {
	encabezados := make([]string, 0, len(cfg.Columnas)+1)
	for _, col := range cfg.Columnas {
		encabezados = append(encabezados, col.Titulo)
	}
	encabezados = append(encabezados, "ACCIONES")

	return pantalla{
		listar: func(ctx context.Context) error {
			return listar(ctx, store.Filtro{})
		},
		render: func(f table.Filtro, pagina int) vista {
			pag := table.Render(cfg, items(), cargando(), f, pagina)
			v := vista{
				Estado:         pag.Estado,
				Encabezados:    encabezados,
				Numero:         pag.Numero,
				TotalPaginas:   pag.TotalPaginas,
				TotalFiltradas: pag.TotalFiltradas,
			}
			for _, fila := range pag.Filas {
				var acciones []string
				if fila.Ver {
					acciones = append(acciones, "ver")
				}
				if fila.Editar {
					acciones = append(acciones, "editar")
				}
				if fila.Activar {
					acciones = append(acciones, "activar")
				}
				if fila.Desactivar {
					acciones = append(acciones, "desactivar")
				}
				v.Filas = append(v.Filas, append(fila.Celdas, strings.Join(acciones, ",")))
			}
			return v
		},
	}
}

// decodificarJSON valida client-side que el cuerpo sea JSON bien formado antes
// de despachar la petición.
func decodificarJSON(raw string) (map[string]any, error) {
	var body map[string]any
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		return nil, fmt.Errorf("json inválido: %w", err)
	}
	return body, nil
}

// pantallaRecurso construye la pantalla del recurso con los predicados de
// acción derivados de los permisos del usuario autenticado.
func (a *App) pantallaRecurso(nombre string) pantalla {
	var caps permission.Set
	var actualEmail string
	if u := a.sesion.Usuario(); u != nil {
		caps = permission.Derive(u.Roles)
		actualEmail = u.Email
	} else {
		caps = permission.Derive(nil)
	}

	switch nombre {
	case "productos":
		cfg := table.Config[entity.Producto]{
			Columnas: []table.Columna[entity.Producto]{
				{Titulo: "CODIGO", Valor: func(p entity.Producto) string { return p.Codigo }},
				{Titulo: "NOMBRE", Valor: func(p entity.Producto) string { return p.Nombre }},
				{Titulo: "PRECIO", Valor: func(p entity.Producto) string { return p.Precio.StringFixed(2) }},
				{Titulo: "STOCK", Valor: func(p entity.Producto) string { return fmt.Sprintf("%d", p.StockActual) }, Renderizar: func(p entity.Producto) string {
					if p.BajoStock() {
						return fmt.Sprintf("%d (bajo mínimo)", p.StockActual)
					}
					return fmt.Sprintf("%d", p.StockActual)
				}},
				{Titulo: "ACTIVO", Valor: func(p entity.Producto) string { return siNo(p.Activo) }},
			},
			Acciones: table.Acciones[entity.Producto]{
				PuedeVer:        func(entity.Producto) bool { return true },
				PuedeEditar:     func(entity.Producto) bool { return caps[permission.CanEditProducts] },
				PuedeActivar:    func(p entity.Producto) bool { return caps[permission.CanEditProducts] && !p.Activo },
				PuedeDesactivar: func(p entity.Producto) bool { return caps[permission.CanEditProducts] && p.Activo },
			},
			CamposBusqueda: func(p entity.Producto) []string { return []string{p.Codigo, p.Nombre, p.Descripcion} },
			Activo:         func(p entity.Producto) *bool { return &p.Activo },
			TamanoPagina:   tamanoPagina,
		}
		p := pantallaDe(cfg, a.productos.List, a.productos.Items, a.productos.IsLoading)
		p.crear = a.crearGenerico(func(ctx context.Context, body any) error {
			_, err := a.productos.Create(ctx, body)
			return err
		})
		p.actualizar = a.actualizarGenerico(func(ctx context.Context, id string, body any) error {
			_, err := a.productos.Update(ctx, id, body)
			return err
		})
		p.activar = func(ctx context.Context, id string) error { _, err := a.productos.Activar(ctx, id); return err }
		p.desactivar = func(ctx context.Context, id string) error { _, err := a.productos.Desactivar(ctx, id); return err }
		return p

	case "categorias":
		cfg := configCatalogo(
			func(e entity.Categoria) []string { return []string{e.Codigo, e.Nombre, siNo(e.Activo)} },
			func(e entity.Categoria) []string { return []string{e.Codigo, e.Nombre} },
			func(e entity.Categoria) *bool { return &e.Activo },
			caps[permission.CanEditCategories],
		)
		p := pantallaDe(cfg, a.categorias.List, a.categorias.Items, a.categorias.IsLoading)
		p.crear = a.crearGenerico(func(ctx context.Context, body any) error {
			_, err := a.categorias.Create(ctx, body)
			return err
		})
		p.actualizar = a.actualizarGenerico(func(ctx context.Context, id string, body any) error {
			_, err := a.categorias.Update(ctx, id, body)
			return err
		})
		p.activar = func(ctx context.Context, id string) error { _, err := a.categorias.Activar(ctx, id); return err }
		p.desactivar = func(ctx context.Context, id string) error { _, err := a.categorias.Desactivar(ctx, id); return err }
		return p

	case "proveedores":
		cfg := configCatalogo(
			func(e entity.Proveedor) []string { return []string{e.Codigo, e.Nombre, siNo(e.Activo)} },
			func(e entity.Proveedor) []string { return []string{e.Codigo, e.Nombre, e.NIT, e.Email} },
			func(e entity.Proveedor) *bool { return &e.Activo },
			caps[permission.CanEditSuppliers],
		)
		p := pantallaDe(cfg, a.proveedores.List, a.proveedores.Items, a.proveedores.IsLoading)
		p.crear = a.crearGenerico(func(ctx context.Context, body any) error {
			_, err := a.proveedores.Create(ctx, body)
			return err
		})
		p.actualizar = a.actualizarGenerico(func(ctx context.Context, id string, body any) error {
			_, err := a.proveedores.Update(ctx, id, body)
			return err
		})
		p.activar = func(ctx context.Context, id string) error { _, err := a.proveedores.Activar(ctx, id); return err }
		p.desactivar = func(ctx context.Context, id string) error { _, err := a.proveedores.Desactivar(ctx, id); return err }
		return p

	case "roles":
		puedeRoles := caps[permission.CanManageRoles]
		cfg := table.Config[entity.Rol]{
			Columnas: []table.Columna[entity.Rol]{
				{Titulo: "NOMBRE", Valor: func(e entity.Rol) string { return e.Nombre }},
				{Titulo: "DESCRIPCION", Valor: func(e entity.Rol) string { return e.Descripcion }},
				{Titulo: "ACTIVO", Valor: func(e entity.Rol) string { return siNo(e.Activo) }},
			},
			Acciones: table.Acciones[entity.Rol]{
				PuedeVer:        func(entity.Rol) bool { return true },
				PuedeEditar:     func(entity.Rol) bool { return puedeRoles },
				PuedeActivar:    func(e entity.Rol) bool { return puedeRoles && !e.Activo },
				PuedeDesactivar: func(e entity.Rol) bool { return puedeRoles && e.Activo },
			},
			CamposBusqueda: func(e entity.Rol) []string { return []string{e.Nombre, e.Descripcion} },
			Activo:         func(e entity.Rol) *bool { return &e.Activo },
			TamanoPagina:   tamanoPagina,
		}
		p := pantallaDe(cfg, a.roles.List, a.roles.Items, a.roles.IsLoading)
		p.crear = a.crearGenerico(func(ctx context.Context, body any) error {
			_, err := a.roles.Create(ctx, body)
			return err
		})
		p.actualizar = a.actualizarGenerico(func(ctx context.Context, id string, body any) error {
			_, err := a.roles.Update(ctx, id, body)
			return err
		})
		p.activar = func(ctx context.Context, id string) error { _, err := a.roles.Activar(ctx, id); return err }
		p.desactivar = func(ctx context.Context, id string) error { _, err := a.roles.Desactivar(ctx, id); return err }
		return p

	case "usuarios":
		cfg := table.Config[entity.Usuario]{
			Columnas: []table.Columna[entity.Usuario]{
				{Titulo: "CODIGO", Valor: func(u entity.Usuario) string { return u.Codigo }},
				{Titulo: "NOMBRE", Valor: func(u entity.Usuario) string { return u.Nombre }},
				{Titulo: "EMAIL", Valor: func(u entity.Usuario) string { return u.Email }},
				{Titulo: "ROLES", Valor: func(u entity.Usuario) string { return strings.Join(u.Roles, ",") }},
				{Titulo: "ACTIVO", Valor: func(u entity.Usuario) string { return siNo(u.Activo) }},
			},
			Acciones: table.Acciones[entity.Usuario]{
				PuedeVer:     func(entity.Usuario) bool { return true },
				PuedeEditar:  func(entity.Usuario) bool { return caps[permission.CanManageUsers] },
				PuedeActivar: func(u entity.Usuario) bool { return caps[permission.CanManageUsers] && !u.Activo },
				// La fila del propio usuario nunca ofrece desactivar.
				PuedeDesactivar: func(u entity.Usuario) bool {
					return caps[permission.CanManageUsers] && u.Activo && !strings.EqualFold(u.Email, actualEmail)
				},
			},
			CamposBusqueda: func(u entity.Usuario) []string { return []string{u.Codigo, u.Nombre, u.Email} },
			Activo:         func(u entity.Usuario) *bool { return &u.Activo },
			TamanoPagina:   tamanoPagina,
		}
		p := pantallaDe(cfg, a.usuarios.List, a.usuarios.Items, a.usuarios.IsLoading)
		p.crear = a.crearGenerico(func(ctx context.Context, body any) error {
			_, err := a.usuarios.Create(ctx, body)
			return err
		})
		p.actualizar = a.actualizarGenerico(func(ctx context.Context, id string, body any) error {
			_, err := a.usuarios.Update(ctx, id, body)
			return err
		})
		p.activar = func(ctx context.Context, id string) error { _, err := a.usuarios.Activar(ctx, id); return err }
		p.desactivar = func(ctx context.Context, id string) error { _, err := a.usuarios.Desactivar(ctx, id); return err }
		return p

	case "movimientos":
		cfg := table.Config[entity.Movimiento]{
			Columnas: []table.Columna[entity.Movimiento]{
				{Titulo: "ID", Valor: func(m entity.Movimiento) string { return m.ID }},
				{Titulo: "TIPO", Valor: func(m entity.Movimiento) string { return m.Tipo }},
				{Titulo: "PRODUCTO", Valor: func(m entity.Movimiento) string { return m.ProductoCodigo }},
				{Titulo: "CANTIDAD", Valor: func(m entity.Movimiento) string { return fmt.Sprintf("%d", m.Cantidad) }},
				{Titulo: "ESTADO", Valor: func(m entity.Movimiento) string { return m.Estado }},
			},
			Acciones: table.Acciones[entity.Movimiento]{
				PuedeVer: func(entity.Movimiento) bool { return true },
				// Un movimiento ANULADO es terminal: no ofrece ninguna acción.
				PuedeActivar:    func(m entity.Movimiento) bool { return caps[permission.CanActivateMovement] && m.PuedeActivar() },
				PuedeDesactivar: func(m entity.Movimiento) bool { return caps[permission.CanActivateMovement] && m.PuedeAnular() },
			},
			CamposBusqueda: func(m entity.Movimiento) []string { return []string{m.ProductoCodigo, m.Motivo, m.CreadoPor} },
			TamanoPagina:   tamanoPagina,
		}
		p := pantallaDe(cfg, a.movimientos.List, a.movimientos.Items, a.movimientos.IsLoading)
		p.crear = a.crearGenerico(func(ctx context.Context, body any) error {
			_, err := a.movimientos.Create(ctx, body)
			return err
		})
		p.activar = func(ctx context.Context, id string) error { _, err := a.movimientos.Activar(ctx, id); return err }
		p.anular = func(ctx context.Context, id string) error { _, err := a.movimientos.Anular(ctx, id); return err }
		return p

	default: // auditoria
		cfg := table.Config[entity.Auditoria]{
			Columnas: []table.Columna[entity.Auditoria]{
				{Titulo: "FECHA", Valor: func(e entity.Auditoria) string { return e.Fecha.Format("2006-01-02 15:04:05") }},
				{Titulo: "ACCION", Valor: func(e entity.Auditoria) string { return e.Accion }},
				{Titulo: "ENTIDAD", Valor: func(e entity.Auditoria) string { return e.Entidad }},
				{Titulo: "USUARIO", Valor: func(e entity.Auditoria) string { return e.Usuario }},
				{Titulo: "DETALLE", Valor: func(e entity.Auditoria) string { return e.Detalle }},
			},
			Acciones: table.Acciones[entity.Auditoria]{
				PuedeVer: func(entity.Auditoria) bool { return true },
			},
			CamposBusqueda: func(e entity.Auditoria) []string {
				return []string{e.Accion, e.Entidad, e.EntidadID, e.Usuario, e.Detalle}
			},
			TamanoPagina: tamanoPagina,
		}
		return pantallaDe(cfg, a.auditoria.List, a.auditoria.Items, a.auditoria.IsLoading)
	}
}

// configCatalogo arma la grilla uniforme de los catálogos simples
// (codigo/nombre/activo) con un solo permiso de edición.
func configCatalogo[T any](
	celdas func(T) []string,
	busqueda func(T) []string,
	activo func(T) *bool,
	puedeEditar bool,
) table.Config[T] {
	return table.Config[T]{
		Columnas: []table.Columna[T]{
			{Titulo: "CODIGO", Valor: func(e T) string { return celdas(e)[0] }},
			{Titulo: "NOMBRE", Valor: func(e T) string { return celdas(e)[1] }},
			{Titulo: "ACTIVO", Valor: func(e T) string { return celdas(e)[2] }},
		},
		Acciones: table.Acciones[T]{
			PuedeVer:        func(T) bool { return true },
			PuedeEditar:     func(T) bool { return puedeEditar },
			PuedeActivar:    func(e T) bool { return puedeEditar && activo(e) != nil && !*activo(e) },
			PuedeDesactivar: func(e T) bool { return puedeEditar && activo(e) != nil && *activo(e) },
		},
		CamposBusqueda: busqueda,
		Activo:         activo,
		TamanoPagina:   tamanoPagina,
	}
}

func (a *App) crearGenerico(crear func(context.Context, any) error) func(context.Context, string) error {
	return func(ctx context.Context, raw string) error {
		body, err := decodificarJSON(raw)
		if err != nil {
			return err
		}
		return crear(ctx, body)
	}
}

func (a *App) actualizarGenerico(actualizar func(context.Context, string, any) error) func(context.Context, string, string) error {
	return func(ctx context.Context, id, raw string) error {
		body, err := decodificarJSON(raw)
		if err != nil {
			return err
		}
		return actualizar(ctx, id, body)
	}
}

// cmdRecurso despacha las acciones de un recurso, pasando primero por el guard.
func (a *App) cmdRecurso(ctx context.Context, recurso string, args []string) error {
	if err := a.resolverRuta(recurso); err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("falta la acción (list, create, update, activar, desactivar, anular)")
	}
	accion, resto := args[0], args[1:]
	p := a.pantallaRecurso(recurso)

	fs := flag.NewFlagSet(recurso+" "+accion, flag.ContinueOnError)
	buscar := fs.String("buscar", "", "término de búsqueda (client-side)")
	activos := fs.Bool("activos", false, "solo activos")
	inactivos := fs.Bool("inactivos", false, "solo inactivos")
	pagina := fs.Int("pagina", 1, "número de página")
	id := fs.String("id", "", "identificador de la entidad")
	raw := fs.String("json", "", "cuerpo JSON de la entidad")
	if err := fs.Parse(resto); err != nil {
		return err
	}

	switch accion {
	case "list":
		if err := p.listar(ctx); err != nil {
			return fmt.Errorf("%s: %s", recurso, api.Mensaje(err))
		}
		f := table.Filtro{Texto: *buscar}
		if *activos {
			v := true
			f.Activo = &v
		} else if *inactivos {
			v := false
			f.Activo = &v
		}
		a.imprimir(p.render(f, *pagina))
		return nil
	case "create":
		if p.crear == nil {
			return fmt.Errorf("%s no admite create", recurso)
		}
		return p.crear(ctx, *raw)
	case "update":
		if p.actualizar == nil {
			return fmt.Errorf("%s no admite update", recurso)
		}
		return p.actualizar(ctx, *id, *raw)
	case "activar":
		if p.activar == nil {
			return fmt.Errorf("%s no admite activar", recurso)
		}
		return p.activar(ctx, *id)
	case "desactivar":
		if p.desactivar == nil {
			return fmt.Errorf("%s no admite desactivar", recurso)
		}
		return p.desactivar(ctx, *id)
	case "anular":
		if p.anular == nil {
			return fmt.Errorf("%s no admite anular", recurso)
		}
		return p.anular(ctx, *id)
	default:
		return fmt.Errorf("acción desconocida: %s", accion)
	}
}

// imprimir vuelca la vista al tabwriter, distinguiendo los tres estados de la
// grilla.
func (a *App) imprimir(v vista) {
	switch v.Estado {
	case table.EstadoCargando:
		fmt.Fprintln(a.out, "cargando...")
		return
	case table.EstadoVacio:
		fmt.Fprintln(a.out, "sin registros")
		return
	case table.EstadoSinResultados:
		fmt.Fprintln(a.out, "ningún registro coincide con el filtro")
		return
	}
	w := tabwriter.NewWriter(a.out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(v.Encabezados, "\t"))
	for _, fila := range v.Filas {
		fmt.Fprintln(w, strings.Join(fila, "\t"))
	}
	w.Flush()
	fmt.Fprintf(a.out, "página %d de %d (%d registros)\n", v.Numero, v.TotalPaginas, v.TotalFiltradas)
}

func siNo(b bool) string {
	if b {
		return "sí"
	}
	return "no"
}
