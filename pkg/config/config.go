package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
// La misma estructura sirve para el cliente ergadmin y para el sandbox local.
type Config struct {
	App     AppConfig
	API     APIConfig
	Cred    CredConfig
	HTTP    HTTPConfig
	JWT     JWTConfig
	Sandbox SandboxConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env  string // development, staging, production
	Name string
}

// APIConfig configuración del backend REST que consume el cliente.
type APIConfig struct {
	BaseURL string        // ej. http://localhost:8080/api
	Timeout time.Duration // timeout único compartido por todas las llamadas
}

// CredConfig ubicación del almacén local de credenciales (token + usuario).
type CredConfig struct {
	Dir string
}

// HTTPConfig configuración de escucha del sandbox.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// JWTConfig configuración de firma de tokens del sandbox.
type JWTConfig struct {
	Secret     string
	Expiration int // minutos
	Issuer     string
}

// SandboxConfig opciones propias del backend de pruebas.
type SandboxConfig struct {
	Seed bool // cargar datos de demostración al arrancar
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo .env).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, ERGPOS_API_URL, JWT_SECRET, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración .env en el directorio actual
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:  getString(v, "APP_ENV", "development"),
			Name: getString(v, "APP_NAME", "ergpos-admin"),
		},
		API: APIConfig{
			BaseURL: getString(v, "ERGPOS_API_URL", "http://localhost:8080/api"),
			Timeout: time.Duration(getInt(v, "ERGPOS_HTTP_TIMEOUT_SECONDS", 15)) * time.Second,
		},
		Cred: CredConfig{
			Dir: getString(v, "ERGPOS_CRED_DIR", defaultCredDir()),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		JWT: JWTConfig{
			Secret:     getString(v, "JWT_SECRET", ""),
			Expiration: getInt(v, "JWT_EXPIRATION_MINUTES", 60),
			Issuer:     getString(v, "JWT_ISSUER", "ergpos-sandbox"),
		},
		Sandbox: SandboxConfig{
			Seed: getBool(v, "SANDBOX_SEED", true),
		},
	}

	return cfg, nil
}

// defaultCredDir resuelve ~/.ergpos; si no hay HOME usable cae al directorio actual.
func defaultCredDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ergpos"
	}
	return filepath.Join(home, ".ergpos")
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, _ := strconv.Atoi(v.GetString(key))
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return def
}
