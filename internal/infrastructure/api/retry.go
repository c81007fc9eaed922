package api

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// WithBackoff es el envoltorio opt-in de reintentos: ninguna operación del SDK
// reintenta por sí sola. Reintenta únicamente fallos transitorios (red o 5xx),
// con backoff exponencial y jitter, hasta maxIntentos en total.
func WithBackoff(ctx context.Context, maxIntentos uint64, base time.Duration, fn func(ctx context.Context) error) error {
	if maxIntentos == 0 {
		maxIntentos = 3
	}
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	backoff := retry.WithMaxRetries(maxIntentos-1, retry.NewExponential(base))
	backoff = retry.WithJitterPercent(10, backoff)

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if esTransitorio(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}
