package api

import (
	"errors"
	"net/http"
)

// ErrorEnvelope es el cuerpo de error que devuelve el backend.
type ErrorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error representa un fallo de una llamada REST. Status 0 indica fallo de red
// (incluido el timeout compartido del cliente). Message siempre es recuperable
// por el llamador: mensaje del servidor si existe, genérico si no.
type Error struct {
	Status  int
	Code    string
	Message string
	causa   error
}

func (e *Error) Error() string { return e.Message }

// Unwrap expone la causa de red subyacente, si la hay.
func (e *Error) Unwrap() error { return e.causa }

// EsAutenticacion informa si el error corresponde a un 401.
func (e *Error) EsAutenticacion() bool { return e.Status == http.StatusUnauthorized }

// Mensaje extrae un mensaje presentable de cualquier error devuelto por el
// transporte o los stores.
func Mensaje(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// esTransitorio decide si una llamada fallida amerita reintento: fallos de red
// y errores 5xx del servidor. Los 4xx son deterministas y no se reintentan.
func esTransitorio(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == 0 || apiErr.Status >= 500
}
