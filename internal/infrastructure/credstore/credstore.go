package credstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ergsystem/ergpos-admin/internal/domain/entity"
)

// ErrSinCredenciales indica que no hay sesión persistida en disco.
var ErrSinCredenciales = errors.New("no hay credenciales almacenadas")

const archivo = "session.json"

// credenciales es el documento persistido: exactamente dos claves (token y
// usuario serializado) que se escriben y se borran juntas.
type credenciales struct {
	Token   string         `json:"token"`
	Usuario entity.Usuario `json:"usuario"`
}

// Store persiste las credenciales de sesión en disco. La escritura es atómica
// (archivo temporal + rename) para que nunca exista una copia a medias: o están
// las dos claves, o no está ninguna.
type Store struct {
	dir string
}

// New construye el almacén sobre el directorio indicado.
func New(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) ruta() string {
	return filepath.Join(s.dir, archivo)
}

// Save escribe token + usuario de forma atómica. El archivo queda con permisos
// 0600: contiene un bearer token.
func (s *Store) Save(token string, u entity.Usuario) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("credstore: crear directorio: %w", err)
	}
	raw, err := json.Marshal(credenciales{Token: token, Usuario: u})
	if err != nil {
		return fmt.Errorf("credstore: serializar: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, archivo+".tmp-*")
	if err != nil {
		return fmt.Errorf("credstore: archivo temporal: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("credstore: escribir: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("credstore: permisos: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("credstore: cerrar: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.ruta()); err != nil {
		return fmt.Errorf("credstore: publicar: %w", err)
	}
	return nil
}

// Load recupera token + usuario. Devuelve ErrSinCredenciales si no hay sesión
// persistida o si el archivo está corrupto (en ese caso además lo elimina).
func (s *Store) Load() (string, entity.Usuario, error) {
	raw, err := os.ReadFile(s.ruta())
	if err != nil {
		if os.IsNotExist(err) {
			return "", entity.Usuario{}, ErrSinCredenciales
		}
		return "", entity.Usuario{}, fmt.Errorf("credstore: leer: %w", err)
	}
	var c credenciales
	if err := json.Unmarshal(raw, &c); err != nil || c.Token == "" {
		// Archivo ilegible o sin token: descartarlo por completo.
		_ = s.Clear()
		return "", entity.Usuario{}, ErrSinCredenciales
	}
	return c.Token, c.Usuario, nil
}

// Clear elimina las credenciales persistidas. Es idempotente y nunca falla por
// ausencia del archivo.
func (s *Store) Clear() error {
	err := os.Remove(s.ruta())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("credstore: limpiar: %w", err)
	}
	return nil
}
