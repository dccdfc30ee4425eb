package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"vhc_backend/platform/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// RunMigrations applies pending goose migrations and returns how many ran.
// An empty migrations directory setting disables the step.
func RunMigrations(ctx context.Context, cfg config.MigrationConfig) (int, error) {
	dir := strings.TrimSpace(cfg.GetMigrationsDir())
	if dir == "" {
		return 0, nil
	}

	sqlDB, err := sql.Open("pgx", cfg.GetDatabaseURL())
	if err != nil {
		return 0, fmt.Errorf("open migration connection: %w", err)
	}
	defer sqlDB.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, os.DirFS(dir))
	if err != nil {
		return 0, fmt.Errorf("load migrations from %s: %w", dir, err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return len(results), fmt.Errorf("apply migrations: %w", err)
	}
	return len(results), nil
}
