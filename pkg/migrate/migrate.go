package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/angelmondragon/vitrine-backend/pkg/logger"
	"github.com/angelmondragon/vitrine-backend/pkg/migrate/migrations"
	"github.com/pressly/goose/v3"
)

// DefaultDir is where new migration files are created in the source tree.
const DefaultDir = "pkg/migrate/migrations"

func newProvider(db *sql.DB) (*goose.Provider, error) {
	if db == nil {
		return nil, errors.New("migrate: db is required")
	}
	p, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return nil, fmt.Errorf("migrate: build provider: %w", err)
	}
	return p, nil
}

// Run executes up, down or status against the embedded migrations and logs one
// line per migration touched.
func Run(ctx context.Context, db *sql.DB, command string, logg *logger.Logger) error {
	p, err := newProvider(db)
	if err != nil {
		return err
	}

	switch command {
	case "up":
		results, err := p.Up(ctx)
		logResults(ctx, logg, results...)
		if err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		if len(results) == 0 {
			logg.Info(ctx, "migrate.up: schema already current")
		}
	case "down":
		result, err := p.Down(ctx)
		if result != nil {
			logResults(ctx, logg, result)
		}
		if err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
	case "status":
		statuses, err := p.Status(ctx)
		if err != nil {
			return fmt.Errorf("migrate status: %w", err)
		}
		for _, s := range statuses {
			fields := map[string]any{"version": s.Source.Version, "file": s.Source.Path, "state": string(s.State)}
			if !s.AppliedAt.IsZero() {
				fields["applied_at"] = s.AppliedAt
			}
			logg.Info(logg.WithFields(ctx, fields), "migrate.status")
		}
	default:
		return fmt.Errorf("migrate: unsupported command %q", command)
	}
	return nil
}

// MigrateToVersion moves the schema up or down until targetVersion is the
// newest applied migration.
func MigrateToVersion(ctx context.Context, db *sql.DB, targetVersion string, logg *logger.Logger) error {
	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil || len(targetVersion) != len(versionLayout) {
		return fmt.Errorf("migrate: version %q is not YYYYMMDDHHMMSS", targetVersion)
	}
	p, err := newProvider(db)
	if err != nil {
		return err
	}

	current, err := p.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("migrate: read db version: %w", err)
	}

	var results []*goose.MigrationResult
	switch {
	case current < target:
		results, err = p.UpTo(ctx, target)
	case current > target:
		results, err = p.DownTo(ctx, target)
	}
	logResults(ctx, logg, results...)
	if err != nil {
		return fmt.Errorf("migrate: %d -> %d: %w", current, target, err)
	}
	return nil
}

func logResults(ctx context.Context, logg *logger.Logger, results ...*goose.MigrationResult) {
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		rctx := logg.WithFields(ctx, map[string]any{
			"version":     r.Source.Version,
			"direction":   r.Direction,
			"duration_ms": r.Duration.Milliseconds(),
		})
		if r.Error != nil {
			logg.Error(rctx, "migrate.failed", r.Error)
			continue
		}
		logg.Info(rctx, "migrate.applied")
	}
}
