package cli

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/ergsystem/ergpos-admin/internal/application/guard"
	"github.com/ergsystem/ergpos-admin/internal/application/session"
	"github.com/ergsystem/ergpos-admin/internal/application/store"
	"github.com/ergsystem/ergpos-admin/internal/infrastructure/api"
	"github.com/ergsystem/ergpos-admin/internal/infrastructure/credstore"
	"github.com/ergsystem/ergpos-admin/pkg/config"
	"github.com/ergsystem/ergpos-admin/pkg/logger"
)

// App es la consola de administración: arma el SDK completo (sesión, stores,
// guard) y despacha subcomandos sobre él.
type App struct {
	out io.Writer
	log *logger.Logger

	sesion      *session.Store
	guardia     *guard.Guard
	productos   *store.Productos
	categorias  *store.Categorias
	proveedores *store.Proveedores
	usuarios    *store.Usuarios
	roles       *store.Roles
	movimientos *store.Movimientos
	auditoria   *store.Auditorias
}

// New arma la aplicación a partir de la configuración.
func New(cfg *config.Config, log *logger.Logger, out io.Writer) *App {
	cliente := api.New(api.Config{BaseURL: cfg.API.BaseURL, Timeout: cfg.API.Timeout}, log)
	creds := credstore.New(cfg.Cred.Dir)
	sesion := session.New(cliente, creds, log)

	productos := store.NewProductos(cliente, log)
	a := &App{
		out:         out,
		log:         log,
		sesion:      sesion,
		guardia:     guard.New(sesion, guard.RutasPorDefecto()),
		productos:   productos,
		categorias:  store.NewCategorias(cliente, log),
		proveedores: store.NewProveedores(cliente, log),
		usuarios:    store.NewUsuarios(cliente, log, sesion.Usuario),
		roles:       store.NewRoles(cliente, log),
		movimientos: store.NewMovimientos(cliente, log, productos),
		auditoria:   store.NewAuditorias(cliente, log),
	}
	return a
}

// Run despacha el subcomando. Siempre intenta restaurar la sesión persistida
// antes (equivalente al arranque de la aplicación web).
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.uso()
		return fmt.Errorf("falta el subcomando")
	}

	comando, resto := args[0], args[1:]

	// login no necesita sesión previa; para el resto se restaura primero.
	if comando != "login" {
		_ = a.sesion.Restore(ctx) // el guard decide después con la sesión resultante
	}

	switch comando {
	case "login":
		return a.cmdLogin(ctx, resto)
	case "logout":
		a.sesion.Logout(ctx)
		fmt.Fprintln(a.out, "sesión cerrada")
		return nil
	case "whoami":
		return a.cmdWhoami()
	case "productos", "categorias", "proveedores", "usuarios", "roles", "movimientos", "auditoria":
		return a.cmdRecurso(ctx, comando, resto)
	default:
		a.uso()
		return fmt.Errorf("subcomando desconocido: %s", comando)
	}
}

func (a *App) cmdLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "email del usuario")
	password := fs.String("password", "", "contraseña")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.sesion.Login(ctx, session.Credenciales{Email: *email, Password: *password}); err != nil {
		return fmt.Errorf("login: %s", api.Mensaje(err))
	}
	u := a.sesion.Usuario()
	fmt.Fprintf(a.out, "sesión iniciada como %s (%s)\n", u.Nombre, u.Email)
	fmt.Fprintf(a.out, "módulos: %v\n", u.Modules)
	return nil
}

func (a *App) cmdWhoami() error {
	if !a.sesion.IsAuthenticated() {
		return fmt.Errorf("no hay sesión activa")
	}
	u := a.sesion.Usuario()
	fmt.Fprintf(a.out, "%s <%s>\nroles: %v\nmódulos: %v\n", u.Nombre, u.Email, u.Roles, u.Modules)
	return nil
}

// resolverRuta aplica el guard de navegación antes de abrir una pantalla.
func (a *App) resolverRuta(nombre string) error {
	switch a.guardia.Resolver(nombre) {
	case guard.RedirigirLogin:
		return fmt.Errorf("se requiere iniciar sesión (ergadmin login)")
	case guard.Denegar:
		return fmt.Errorf("acceso denegado: el módulo %q no está disponible para su usuario", nombre)
	default:
		return nil
	}
}

func (a *App) uso() {
	fmt.Fprintln(a.out, `uso: ergadmin <comando> [flags]

comandos:
  login -email <email> -password <contraseña>
  logout
  whoami
  productos|categorias|proveedores|usuarios|roles|movimientos|auditoria <accion> [flags]

acciones de recurso:
  list      [-buscar término] [-activos|-inactivos] [-pagina n]
  create    -json '<cuerpo>'
  update    -id <id> -json '<cuerpo>'
  activar   -id <id>
  desactivar -id <id>
  anular    -id <id>        (solo movimientos)`)
}
