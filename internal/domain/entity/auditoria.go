package entity

import "time"

// Auditoria es una entrada del registro de auditoría. Es estrictamente
// append-only: el cliente la lista y la muestra, nunca la modifica.
type Auditoria struct {
	ID        string    `json:"id"`
	Accion    string    `json:"accion"` // CREAR, ACTUALIZAR, ACTIVAR, DESACTIVAR, ANULAR, LOGIN
	Entidad   string    `json:"entidad"`
	EntidadID string    `json:"entidadId"`
	Usuario   string    `json:"usuario"` // email del actor
	Detalle   string    `json:"detalle"`
	Fecha     time.Time `json:"fecha"`
}
