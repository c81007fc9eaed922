package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ergsystem/ergpos-admin/internal/sandbox"
	"github.com/ergsystem/ergpos-admin/pkg/config"
	"github.com/ergsystem/ergpos-admin/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Bool("seed", cfg.Sandbox.Seed).
		Msg("iniciando sandbox")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}

	mem := sandbox.NewMemoria(cfg.Sandbox.Seed)
	app := sandbox.New(mem, sandbox.Config{
		AppName:    cfg.App.Name,
		JWTSecret:  cfg.JWT.Secret,
		JWTIssuer:  cfg.JWT.Issuer,
		ExpMinutes: cfg.JWT.Expiration,
	}, log)

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("sandbox detenido")
}
