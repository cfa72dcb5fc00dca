// Package migrations holds the embedded schema for both backends.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/felixgeelhaar/homebase/internal/shared/infrastructure/database"
)

//go:embed sqlite/*.sql postgres/*.sql
var migrationsFS embed.FS

// Run executes every up migration for the connection's driver in order.
// Migrations use IF NOT EXISTS so running them again is a no-op.
func Run(ctx context.Context, conn database.Connection) error {
	driver := conn.Driver()
	if !driver.IsValid() {
		return fmt.Errorf("unsupported database driver: %s", driver)
	}
	return run(ctx, driver, conn)
}

// Files returns the sorted up migration file names for a driver.
func Files(driver database.Driver) ([]string, error) {
	entries, err := migrationsFS.ReadDir(string(driver))
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)
	return upFiles, nil
}

func run(ctx context.Context, driver database.Driver, exec database.Executor) error {
	upFiles, err := Files(driver)
	if err != nil {
		return err
	}

	for _, file := range upFiles {
		migration, err := migrationsFS.ReadFile(path.Join(driver.String(), file))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file, err)
		}
		if _, err := exec.Exec(ctx, string(migration)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", file, err)
		}
	}

	return nil
}
