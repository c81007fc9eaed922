package guard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ergsystem/ergpos-admin/internal/application/guard"
	"github.com/ergsystem/ergpos-admin/internal/domain/entity"
)

// sesionFake implementa lo mínimo que el guard consulta.
type sesionFake struct {
	usuario *entity.Usuario
}

func (s *sesionFake) IsAuthenticated() bool {
	return s.usuario != nil && s.usuario.Activo
}

func (s *sesionFake) Usuario() *entity.Usuario { return s.usuario }

func sinSesion() *sesionFake { return &sesionFake{} }

func conSesion(modulos ...string) *sesionFake {
	return &sesionFake{usuario: &entity.Usuario{
		ID:      "u-1",
		Email:   "admin@ergpos.com",
		Roles:   []string{entity.RolAdministrador},
		Modules: modulos,
		Activo:  true,
	}}
}

func TestResolver_LoginSinSesionSePermite(t *testing.T) {
	g := guard.New(sinSesion(), guard.RutasPorDefecto())

	assert.Equal(t, guard.Permitir, g.Resolver(guard.RutaLogin))
}

func TestResolver_LoginConSesionRedirigeAlInicio(t *testing.T) {
	g := guard.New(conSesion("productos"), guard.RutasPorDefecto())

	assert.Equal(t, guard.RedirigirInicio, g.Resolver(guard.RutaLogin),
		"un usuario autenticado no vuelve a ver la pantalla de login")
}

func TestResolver_ProtegidaSinSesionRedirigeALogin(t *testing.T) {
	g := guard.New(sinSesion(), guard.RutasPorDefecto())

	assert.Equal(t, guard.RedirigirLogin, g.Resolver("productos"))
	assert.Equal(t, guard.RedirigirLogin, g.Resolver("inicio"))
}

func TestResolver_ConSesionYModuloSePermite(t *testing.T) {
	g := guard.New(conSesion("productos", "movimientos"), guard.RutasPorDefecto())

	assert.Equal(t, guard.Permitir, g.Resolver("productos"))
	assert.Equal(t, guard.Permitir, g.Resolver("movimientos"))
}

func TestResolver_ModuloAusenteSeDeniega(t *testing.T) {
	g := guard.New(conSesion("productos"), guard.RutasPorDefecto())

	assert.Equal(t, guard.Denegar, g.Resolver("usuarios"),
		"hay sesión pero falta el módulo: negación explícita, no redirección")
}

func TestResolver_RutaSinModuloSoloExigeSesion(t *testing.T) {
	g := guard.New(conSesion(), guard.RutasPorDefecto())

	assert.Equal(t, guard.Permitir, g.Resolver("inicio"))
	assert.Equal(t, guard.Permitir, g.Resolver("perfil"))
}

func TestResolver_RutaDesconocidaSeTrataComoProtegida(t *testing.T) {
	sin := guard.New(sinSesion(), guard.RutasPorDefecto())
	con := guard.New(conSesion(), guard.RutasPorDefecto())

	assert.Equal(t, guard.RedirigirLogin, sin.Resolver("tablero-secreto"),
		"una ruta no declarada exige sesión")
	assert.Equal(t, guard.Permitir, con.Resolver("tablero-secreto"))
}

func TestResolver_UsuarioInactivoNoEstaAutenticado(t *testing.T) {
	s := &sesionFake{usuario: &entity.Usuario{
		ID: "u-2", Email: "inactivo@ergpos.com",
		Roles: []string{entity.RolVendedor}, Modules: []string{"productos"},
		Activo: false,
	}}
	g := guard.New(s, guard.RutasPorDefecto())

	assert.Equal(t, guard.RedirigirLogin, g.Resolver("productos"))
}
