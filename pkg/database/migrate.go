package database

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/fraudguard/riskengine/pkg/config"
)

// Migrate applies all pending schema migrations from cfg.MigrationsDir.
// A database that is already up to date is not an error.
func Migrate(cfg *config.DatabaseConfig) error {
	m, err := migrate.New("file://"+cfg.MigrationsDir, cfg.URL())
	if err != nil {
		return fmt.Errorf("unable to initialize migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("unable to apply migrations: %w", err)
	}

	return nil
}
