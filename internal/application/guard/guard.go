package guard

import "github.com/ergsystem/ergpos-admin/internal/domain/entity"

// Decision resultado de resolver una navegación.
type Decision int

const (
	// Permitir renderiza la ruta solicitada.
	Permitir Decision = iota
	// RedirigirLogin la ruta requiere sesión y no la hay.
	RedirigirLogin
	// RedirigirInicio la ruta de login no aplica a un usuario ya autenticado.
	RedirigirInicio
	// Denegar hay sesión pero falta el módulo requerido: se muestra la
	// negación explícita, nunca un bucle de redirecciones.
	Denegar
)

// Ruta declara una pantalla navegable: pública o protegida, y el módulo que
// requiere (vacío = solo requiere sesión).
type Ruta struct {
	Nombre  string
	Publica bool
	Modulo  string
}

// RutaLogin es el nombre reservado de la pantalla de login.
const RutaLogin = "login"

// sesion es lo mínimo que el guard necesita saber de la sesión.
type sesion interface {
	IsAuthenticated() bool
	Usuario() *entity.Usuario
}

// Guard resuelve navegaciones sobre dos ejes independientes: presencia de
// sesión y visibilidad de módulo del usuario autenticado.
type Guard struct {
	sesion sesion
	rutas  map[string]Ruta
}

// New construye el guard con la tabla de rutas declarada.
func New(s sesion, rutas []Ruta) *Guard {
	m := make(map[string]Ruta, len(rutas))
	for _, r := range rutas {
		m[r.Nombre] = r
	}
	return &Guard{sesion: s, rutas: m}
}

// Resolver decide qué hacer con la navegación a la ruta nombrada.
// Rutas desconocidas se tratan como protegidas sin módulo: mejor exigir
// sesión de más que exponer una pantalla de menos.
func (g *Guard) Resolver(nombre string) Decision {
	ruta, conocida := g.rutas[nombre]
	autenticado := g.sesion.IsAuthenticated()

	if nombre == RutaLogin {
		if autenticado {
			return RedirigirInicio
		}
		return Permitir
	}
	if conocida && ruta.Publica {
		return Permitir
	}
	if !autenticado {
		return RedirigirLogin
	}
	if conocida && ruta.Modulo != "" {
		u := g.sesion.Usuario()
		if u == nil || !u.TieneModulo(ruta.Modulo) {
			return Denegar
		}
	}
	return Permitir
}

// RutasPorDefecto es la tabla de pantallas del admin: cada pantalla de entidad
// exige el módulo homónimo.
func RutasPorDefecto() []Ruta {
	return []Ruta{
		{Nombre: RutaLogin, Publica: true},
		{Nombre: "inicio"},
		{Nombre: "perfil"},
		{Nombre: "productos", Modulo: "productos"},
		{Nombre: "categorias", Modulo: "categorias"},
		{Nombre: "proveedores", Modulo: "proveedores"},
		{Nombre: "usuarios", Modulo: "usuarios"},
		{Nombre: "roles", Modulo: "roles"},
		{Nombre: "movimientos", Modulo: "movimientos"},
		{Nombre: "auditoria", Modulo: "auditoria"},
	}
}
