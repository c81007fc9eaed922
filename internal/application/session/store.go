package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/ergsystem/ergpos-admin/internal/domain"
	"github.com/ergsystem/ergpos-admin/internal/domain/entity"
	"github.com/ergsystem/ergpos-admin/internal/infrastructure/api"
	"github.com/ergsystem/ergpos-admin/internal/infrastructure/credstore"
	pkgjwt "github.com/ergsystem/ergpos-admin/pkg/jwt"
	"github.com/ergsystem/ergpos-admin/pkg/logger"
)

// Credenciales entrada del login.
type Credenciales struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginResponse respuesta de POST /auth/login. El perfil completo (roles,
// módulos) se obtiene en una segunda llamada a GET /auth/me.
type loginResponse struct {
	Token     string `json:"token"`
	UsuarioID string `json:"usuarioId"`
	Activo    bool   `json:"activo"`
}

// Store mantiene la sesión del cliente: token y usuario en memoria más su copia
// persistida en credstore. Ambas copias se mueven juntas en cada transición:
// el commit de un login es "token + perfil activo confirmado", nunca el token
// solo. El Store se registra como hook global de 401 del transporte, de modo
// que un 401 de cualquier llamada de la aplicación limpia la sesión completa.
type Store struct {
	api   *api.Client
	creds *credstore.Store
	log   *logger.Logger

	mu        sync.Mutex
	token     string
	usuario   *entity.Usuario
	cargando  bool
	lastError string
}

// New construye el store de sesión y lo registra como hook de 401.
func New(apiClient *api.Client, creds *credstore.Store, log *logger.Logger) *Store {
	s := &Store{api: apiClient, creds: creds, log: log}
	apiClient.OnUnauthorized(s.expirar)
	return s
}

// IsAuthenticated es verdadero únicamente cuando hay token, hay usuario y el
// usuario está activo.
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != "" && s.usuario != nil && s.usuario.Activo
}

// Usuario devuelve una copia del perfil autenticado, o nil si no hay sesión.
func (s *Store) Usuario() *entity.Usuario {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.usuario == nil {
		return nil
	}
	u := *s.usuario
	return &u
}

// Token devuelve el bearer token vigente (vacío si no hay sesión).
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// IsLoading informa si hay un login o restauración en curso.
func (s *Store) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cargando
}

// LastError devuelve el último error de sesión registrado (vacío si ninguno).
func (s *Store) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// ClearError limpia el último error. Idempotente.
func (s *Store) ClearError() {
	s.mu.Lock()
	s.lastError = ""
	s.mu.Unlock()
}

// Login autentica en dos fases: POST /auth/login emite el token y GET /auth/me
// confirma el perfil. El token emitido se mantiene solo en el transporte hasta
// confirmar que el perfil está activo; si el perfil resulta inactivo o la
// segunda fase falla, se revierte todo y el almacén durable queda intacto.
func (s *Store) Login(ctx context.Context, in Credenciales) error {
	if in.Email == "" || in.Password == "" {
		return s.fallo(domain.ErrEntradaInvalida)
	}
	s.setCargando(true)
	defer s.setCargando(false)

	var out loginResponse
	if err := s.api.Do(ctx, http.MethodPost, "auth/login", nil, in, &out); err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.EsAutenticacion() {
			return s.fallo(domain.ErrCredencialesInvalidas)
		}
		return s.fallo(err)
	}
	if !out.Activo {
		// El backend emitió respuesta para una cuenta inactiva: no se toca
		// ni el transporte ni el almacén durable.
		return s.fallo(domain.ErrCuentaInactiva)
	}

	// Fase 2: el token vive solo en el transporte hasta confirmar el perfil.
	s.api.SetToken(out.Token)
	usuario, err := s.fetchPerfil(ctx)
	if err != nil {
		s.api.ClearToken()
		if errors.Is(err, domain.ErrCuentaInactiva) {
			return s.fallo(domain.ErrCuentaInactiva)
		}
		return s.fallo(err)
	}

	return s.commit(out.Token, usuario)
}

// Logout cierra la sesión. La notificación remota es best-effort; la limpieza
// local es incondicional y síncrona.
func (s *Store) Logout(ctx context.Context) {
	if s.Token() != "" {
		notifyCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := s.api.Do(notifyCtx, http.MethodPost, "auth/logout", nil, nil, nil); err != nil {
			s.log.Debug().Err(err).Msg("logout remoto falló, se ignora")
		}
	}
	s.clearLocal("")
}

// Restore restaura la sesión persistida al arrancar. Un token vencido según su
// claim exp se descarta sin gastar la llamada; en cualquier otro caso el token
// se valida re-consultando /auth/me. Todo fallo de validación ejecuta la misma
// limpieza completa que Logout y registra "sesión expirada".
func (s *Store) Restore(ctx context.Context) error {
	token, _, err := s.creds.Load()
	if err != nil {
		if errors.Is(err, credstore.ErrSinCredenciales) {
			return nil // no hay nada que restaurar
		}
		return err
	}

	s.setCargando(true)
	defer s.setCargando(false)

	if pkgjwt.Expirado(token, time.Now()) {
		s.clearLocal(domain.ErrSesionExpirada.Error())
		return domain.ErrSesionExpirada
	}

	s.api.SetToken(token)
	usuario, err := s.fetchPerfil(ctx)
	if err != nil {
		s.clearLocal(domain.ErrSesionExpirada.Error())
		return domain.ErrSesionExpirada
	}

	// Re-persistir: el perfil pudo cambiar desde el último login.
	return s.commit(token, usuario)
}

// fetchPerfil obtiene y valida el perfil actual. Devuelve ErrCuentaInactiva si
// el perfil existe pero está desactivado.
func (s *Store) fetchPerfil(ctx context.Context) (entity.Usuario, error) {
	var u entity.Usuario
	if err := s.api.Do(ctx, http.MethodGet, "auth/me", nil, nil, &u); err != nil {
		return entity.Usuario{}, err
	}
	if err := u.Validate(); err != nil {
		return entity.Usuario{}, err
	}
	if !u.Activo {
		return entity.Usuario{}, domain.ErrCuentaInactiva
	}
	return u, nil
}

// commit publica la sesión: primero el almacén durable, después la memoria.
// Si la escritura durable falla no hay commit parcial.
func (s *Store) commit(token string, u entity.Usuario) error {
	if err := s.creds.Save(token, u); err != nil {
		s.api.ClearToken()
		return s.fallo(err)
	}
	s.api.SetToken(token)
	s.mu.Lock()
	s.token = token
	s.usuario = &u
	s.lastError = ""
	s.mu.Unlock()
	s.log.Info().Str("usuario", u.Email).Msg("sesión iniciada")
	return nil
}

// expirar es el hook global de 401: limpieza local completa, sin notificación
// remota (el token ya no sirve).
func (s *Store) expirar() {
	s.log.Warn().Msg("respuesta 401, limpiando sesión")
	s.clearLocal(domain.ErrSesionExpirada.Error())
}

// clearLocal borra transporte, almacén durable y memoria en un solo paso
// síncrono. mensaje queda como último error ("" para un logout voluntario).
func (s *Store) clearLocal(mensaje string) {
	s.api.ClearToken()
	if err := s.creds.Clear(); err != nil {
		s.log.Warn().Err(err).Msg("no se pudo limpiar el almacén de credenciales")
	}
	s.mu.Lock()
	s.token = ""
	s.usuario = nil
	s.lastError = mensaje
	s.mu.Unlock()
}

func (s *Store) setCargando(v bool) {
	s.mu.Lock()
	s.cargando = v
	s.mu.Unlock()
}

// fallo registra y devuelve el error de la operación.
func (s *Store) fallo(err error) error {
	s.mu.Lock()
	s.lastError = api.Mensaje(err)
	s.mu.Unlock()
	return err
}
