package main

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/ngconsole/ngconsole/internal/config"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or roll back the session store tables",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().String("dir", "db/migrations", "directory holding the session store migrations")
	migrateCmd.Flags().Bool("down", false, "roll back the most recent migration instead of applying pending ones")
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	down, _ := cmd.Flags().GetBool("down")

	cfg, err := config.LoadForMigrations()
	if err != nil {
		return configError(err)
	}
	source, err := migrationSource(dir)
	if err != nil {
		return configError(err)
	}

	m, err := migrate.New(source, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil || dbErr != nil {
			slog.Warn("close migrator", "source_error", srcErr, "database_error", dbErr)
		}
	}()

	if down {
		err = m.Steps(-1)
	} else {
		err = m.Up()
	}
	if errors.Is(err, migrate.ErrNoChange) {
		slog.Info("session store already current", "dir", dir)
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate session store: %w", err)
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		slog.Info("session store rolled back to empty", "dir", dir)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read session store version: %w", err)
	}
	slog.Info("session store migrated", "version", version, "dirty", dirty, "down", down)
	return nil
}

func migrationSource(dir string) (string, error) {
	if dir == "" {
		return "", errors.New("--dir must not be empty")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve migrations dir: %w", err)
	}
	return "file://" + filepath.ToSlash(abs), nil
}
