package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ergsystem/ergpos-admin/internal/interfaces/cli"
	"github.com/ergsystem/ergpos-admin/pkg/config"
	"github.com/ergsystem/ergpos-admin/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cargar configuración:", err)
		os.Exit(1)
	}

	nivel := "warn"
	if cfg.App.Env == "development" {
		nivel = "debug"
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: nivel})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := cli.New(cfg, log, os.Stdout)
	if err := app.Run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
