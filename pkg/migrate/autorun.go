package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/vitrine-backend/pkg/config"
	"github.com/angelmondragon/vitrine-backend/pkg/db"
	"github.com/angelmondragon/vitrine-backend/pkg/logger"
)

// MaybeRunDev brings a local database up to date on boot. It does nothing
// outside the dev environment or when VITRINE_AUTO_MIGRATE is off.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	if err := ValidateEmbedded(); err != nil {
		return fmt.Errorf("migrate: embedded files: %w", err)
	}
	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("migrate: sql handle: %w", err)
	}
	return Run(logg.WithField(ctx, "trigger", "dev_autorun"), sqlDB, "up", logg)
}
