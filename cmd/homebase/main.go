package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/homebase/adapter/cli"
	"github.com/felixgeelhaar/homebase/adapter/cli/agenda"
	"github.com/felixgeelhaar/homebase/adapter/cli/event"
	"github.com/felixgeelhaar/homebase/adapter/cli/item"
	"github.com/felixgeelhaar/homebase/adapter/cli/schedule"
	"github.com/felixgeelhaar/homebase/internal/app"
	"github.com/felixgeelhaar/homebase/pkg/config"
	"github.com/felixgeelhaar/homebase/pkg/observability"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		cfg = &config.Config{AppEnv: "development", LogLevel: "info"}
	}

	level := new(slog.LevelVar)
	logger := observability.NewLogger(observability.LogConfig{
		Level:       observability.LogLevel(cfg.LogLevel),
		Format:      observability.LogFormat(cfg.LogFormat),
		Output:      os.Stderr,
		ServiceName: "homebase",
		Version:     cli.Version,
		LevelVar:    level,
	})
	if err != nil {
		logger.Warn("failed to load config, using development defaults", "error", err)
	}
	cli.SetLogger(logger, level)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		if !cfg.IsDevelopment() {
			logger.Error("failed to initialize container", "error", err)
			return 1
		}
		// Commands report ErrNotInitialized.
		logger.Warn("failed to initialize container, running in limited mode", "error", err)
	} else {
		defer container.Close()
		cli.SetApp(cli.NewApp(container))
	}

	cli.AddCommand(agenda.Cmd)
	cli.AddCommand(schedule.Cmd)
	cli.AddCommand(item.Cmd)
	cli.AddCommand(event.Cmd)

	if err := cli.Execute(ctx); err != nil {
		return 1
	}
	return 0
}
