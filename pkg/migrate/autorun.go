package migrate

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/angelmondragon/wholesale-backend/pkg/config"
	"github.com/angelmondragon/wholesale-backend/pkg/db"
	"github.com/angelmondragon/wholesale-backend/pkg/logger"
)

// MaybeRunDev applies pending migrations at boot in dev when auto-migrate is
// on. The migrations are Postgres SQL, so SQLite databases are left alone.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if client == nil || !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	if cfg.FeatureFlags.UseSQLite || cfg.DB.Driver == db.DriverSQLite {
		logg.Warn(ctx, "dev auto-migrate skipped for sqlite")
		return nil
	}
	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	migrations, err := Source("")
	if err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	runner, err := NewRunner(sqlDB, goose.DialectPostgres, migrations, logg)
	if err != nil {
		return err
	}
	logg.Info(ctx, "dev auto-migrate starting")
	return runner.Up(ctx)
}
