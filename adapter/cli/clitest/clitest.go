// Package clitest builds a CLI application on a throwaway SQLite database.
package clitest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/homebase/adapter/cli"
	internalApp "github.com/felixgeelhaar/homebase/internal/app"
	"github.com/felixgeelhaar/homebase/pkg/config"
	"github.com/stretchr/testify/require"
)

// ContextID is the household used by CLI tests.
const ContextID = "test-house"

// NewLocalApp wires a local-mode container, installs it as the global CLI
// application and removes it again when the test ends.
func NewLocalApp(t *testing.T) *cli.App {
	t.Helper()

	cfg := &config.Config{
		AppEnv:                     "test",
		LogLevel:                   "error",
		ContextID:                  ContextID,
		Timezone:                   "UTC",
		LocalMode:                  true,
		DatabaseDriver:             "sqlite",
		SQLitePath:                 filepath.Join(t.TempDir(), "test.db"),
		TransitionThresholdMinutes: 10,
		DefaultDurationMinutes:     30,
		SourceBreakerFailures:      3,
		SourceBreakerTimeout:       time.Minute,
		OutboxPollInterval:         time.Second,
		OutboxBatchSize:            100,
		OutboxMaxRetries:           5,
		OutboxRetention:            time.Hour,
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))

	container, err := internalApp.NewContainer(context.Background(), cfg, logger)
	require.NoError(t, err)

	app := cli.NewApp(container)
	cli.SetApp(app)
	t.Cleanup(func() {
		cli.SetApp(nil)
		container.Close()
	})
	return app
}
