package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ergsystem/ergpos-admin/pkg/logger"
)

// MensajeGenerico se muestra cuando el servidor no envía un mensaje propio.
const MensajeGenerico = "error de comunicación con el servidor"

// Config opciones del transporte REST.
type Config struct {
	BaseURL string
	Timeout time.Duration // timeout único compartido por todas las llamadas
}

// Client es el transporte REST del SDK. Inyecta el bearer token en cada
// petición y centraliza el manejo de 401: cualquier respuesta 401, venga del
// store que venga, dispara el hook registrado con OnUnauthorized exactamente
// una vez por respuesta.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger

	mu             sync.RWMutex
	token          string
	onUnauthorized func()
}

// New construye el cliente REST. El timeout de cfg aplica a todas las llamadas;
// excederlo se reporta como error de red genérico, no como error distinguido.
func New(cfg Config, log *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// SetToken fija el bearer token a usar en las siguientes peticiones.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken elimina el bearer token.
func (c *Client) ClearToken() {
	c.SetToken("")
}

// Token devuelve el bearer token vigente (vacío si no hay sesión).
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// OnUnauthorized registra el hook global de 401. El hook no debe emitir
// peticiones a través de este mismo cliente.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

// Do ejecuta una petición JSON contra el backend. body se serializa como JSON
// si no es nil; out se deserializa desde la respuesta si no es nil. Las
// respuestas de error se devuelven como *Error con el mensaje del servidor si
// está presente.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: serializar cuerpo: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("api: construir petición: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("method", method).Str("path", path).Msg("fallo de red")
		return &Error{Status: 0, Message: MensajeGenerico, causa: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.mu.RLock()
		hook := c.onUnauthorized
		c.mu.RUnlock()
		if hook != nil {
			hook()
		}
	}

	if resp.StatusCode >= 400 {
		return c.decodeError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("api: respuesta inválida de %s %s: %w", method, path, err)
		}
	}
	return nil
}

// decodeError interpreta el envelope {code, message} del backend; si el cuerpo
// no trae mensaje usable, cae al mensaje genérico localizado.
func (c *Client) decodeError(resp *http.Response) error {
	apiErr := &Error{Status: resp.StatusCode, Message: MensajeGenerico}
	var envelope ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
		apiErr.Code = envelope.Code
		if envelope.Message != "" {
			apiErr.Message = envelope.Message
		}
	}
	return apiErr
}
