package sandbox

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/crypto/bcrypt"

	pkgjwt "github.com/ergsystem/ergpos-admin/pkg/jwt"
	"github.com/ergsystem/ergpos-admin/pkg/logger"
)

// Config del sandbox.
type Config struct {
	AppName    string
	JWTSecret  string
	JWTIssuer  string
	ExpMinutes int
}

// App es el backend de pruebas: implementa la superficie REST documentada del
// ERGPOS sobre Memoria. No persiste nada entre arranques.
type App struct {
	mem *Memoria
	cfg Config
	log *logger.Logger
}

// Locals key del actor autenticado.
const localActor = "actor"

// actorEmail devuelve el email del actor autenticado ("" si la ruta es pública).
func actorEmail(c *fiber.Ctx) string {
	if u, ok := c.Locals(localActor).(*UsuarioConClave); ok {
		return u.Email
	}
	return ""
}

// New construye la aplicación Fiber del sandbox con todas las rutas montadas.
func New(mem *Memoria, cfg Config, log *logger.Logger) *fiber.App {
	a := &App{mem: mem, cfg: cfg, log: log}

	app := fiber.New(fiber.Config{AppName: cfg.AppName})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.AppName})
	})

	root := app.Group("/api")
	root.Post("/auth/login", a.login)
	root.Get("/auth/me", a.auth, a.me)
	root.Post("/auth/logout", a.auth, a.logout)

	// Recursos protegidos: token válido, cuenta activa y módulo visible.
	protegido := root.Group("", a.auth, a.requireActivo)

	registrar(protegido.Group("/productos", a.requireModule("productos")), coleccionProductos(mem))
	registrar(protegido.Group("/categorias", a.requireModule("categorias")), coleccionCategorias(mem))
	registrar(protegido.Group("/proveedores", a.requireModule("proveedores")), coleccionProveedores(mem))
	registrar(protegido.Group("/roles", a.requireModule("roles")), coleccionRoles(mem))
	registrar(protegido.Group("/auditoria", a.requireModule("auditoria")), coleccionAuditoria(mem))

	usuarios := protegido.Group("/usuarios", a.requireModule("usuarios"))
	usuarios.Get("/", a.listarUsuarios)
	usuarios.Post("/", a.crearUsuario)
	usuarios.Get("/:id", a.obtenerUsuario)
	usuarios.Put("/:id", a.actualizarUsuario)
	usuarios.Patch("/:id/activar", a.activarUsuario)
	usuarios.Patch("/:id/desactivar", a.desactivarUsuario)

	movimientos := protegido.Group("/movimientos", a.requireModule("movimientos"))
	movimientos.Get("/", a.listarMovimientos)
	movimientos.Post("/", a.crearMovimiento)
	movimientos.Get("/:id", a.obtenerMovimiento)
	movimientos.Patch("/:id/activar", a.activarMovimiento)
	movimientos.Patch("/:id/anular", a.anularMovimiento)

	return app
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// login emite el token en la primera fase del flujo de autenticación. Fiel al
// contrato del backend real, el token se emite junto con el flag activo y la
// confirmación del perfil ocurre en la segunda llamada a /auth/me: es el
// cliente quien no debe hacer commit de un token con cuenta inactiva.
func (a *App) login(c *fiber.Ctx) error {
	var in loginRequest
	if err := c.BodyParser(&in); err != nil {
		return errJSON(c, fiber.StatusBadRequest, "INVALID_BODY", "cuerpo inválido")
	}
	u := a.mem.buscarUsuarioPorEmail(in.Email)
	if u == nil {
		return errJSON(c, fiber.StatusUnauthorized, "CREDENCIALES_INVALIDAS", "credenciales inválidas")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(in.Password)); err != nil {
		return errJSON(c, fiber.StatusUnauthorized, "CREDENCIALES_INVALIDAS", "credenciales inválidas")
	}
	token, err := pkgjwt.Generate(a.cfg.JWTSecret, u.ID, u.Email, a.cfg.JWTIssuer, a.cfg.ExpMinutes)
	if err != nil {
		return errJSON(c, fiber.StatusInternalServerError, "INTERNAL", "no se pudo emitir el token")
	}
	a.mem.auditar("LOGIN", "sesion", u.ID, u.Email, "")
	return c.JSON(fiber.Map{
		"token":     token,
		"usuarioId": u.ID,
		"activo":    u.Activo,
	})
}

// me devuelve el perfil del actor, incluido activo=false: decidir qué hacer
// con una cuenta inactiva es responsabilidad del cliente en su fase de commit.
func (a *App) me(c *fiber.Ctx) error {
	u := c.Locals(localActor).(*UsuarioConClave)
	return c.JSON(u.Usuario)
}

func (a *App) logout(c *fiber.Ctx) error {
	a.mem.auditar("LOGOUT", "sesion", "", actorEmail(c), "")
	return c.SendStatus(fiber.StatusNoContent)
}

// auth valida el Bearer token JWT y carga el actor en locals.
func (a *App) auth(c *fiber.Ctx) error {
	header := c.Get("Authorization")
	if header == "" {
		return errJSON(c, fiber.StatusUnauthorized, "MISSING_TOKEN", "Authorization header requerido")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return errJSON(c, fiber.StatusUnauthorized, "INVALID_TOKEN", "formato: Bearer <token>")
	}
	userID, _, err := pkgjwt.Parse(a.cfg.JWTSecret, strings.TrimSpace(parts[1]))
	if err != nil {
		return errJSON(c, fiber.StatusUnauthorized, "INVALID_TOKEN", "token inválido o expirado")
	}
	u := a.mem.buscarUsuarioPorID(userID)
	if u == nil {
		return errJSON(c, fiber.StatusUnauthorized, "INVALID_TOKEN", "el usuario del token ya no existe")
	}
	c.Locals(localActor, u)
	return c.Next()
}

// requireActivo corta con 401 los tokens de cuentas desactivadas después de la
// emisión: la sesión del cliente debe limpiarse igual que ante una expiración.
func (a *App) requireActivo(c *fiber.Ctx) error {
	u := c.Locals(localActor).(*UsuarioConClave)
	if !u.Activo {
		return errJSON(c, fiber.StatusUnauthorized, "CUENTA_INACTIVA", "la cuenta está inactiva")
	}
	return c.Next()
}

// requireModule verifica que el actor tenga visible el módulo de la pantalla.
// Debe usarse después de auth.
func (a *App) requireModule(nombre string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := c.Locals(localActor).(*UsuarioConClave)
		if !u.TieneModulo(nombre) {
			return errJSON(c, fiber.StatusForbidden, "MODULE_DISABLED",
				"el módulo '"+nombre+"' no está disponible para este usuario")
		}
		return c.Next()
	}
}
