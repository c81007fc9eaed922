package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNoEncontrado          = errors.New("recurso no encontrado")
	ErrEntradaInvalida       = errors.New("entrada inválida")
	ErrCredencialesInvalidas = errors.New("credenciales inválidas")
	ErrCuentaInactiva        = errors.New("la cuenta está inactiva")
	ErrSesionExpirada        = errors.New("la sesión ha expirado")
	ErrNoAutenticado         = errors.New("no autenticado")
	ErrAccesoDenegado        = errors.New("acceso denegado")
	ErrStockInsuficiente     = errors.New("stock insuficiente")
	ErrTransicionInvalida    = errors.New("transición de estado no permitida")
	ErrAutoDesactivacion     = errors.New("no puede desactivar su propio usuario")
)
