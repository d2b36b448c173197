package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	"reco-quiz-service/internal/config"
	"reco-quiz-service/internal/leaderboard/migrations"
)

// NewMigrateCmd applies fallback-database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run fallback database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), *configPath)
		},
	}
}

func runMigrations(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.SQLite.Path == "" {
		return fmt.Errorf("sqlite path not configured")
	}
	db, err := openSQLite(ctx, cfg.SQLite.Path)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Printf("migrations applied")
	return nil
}

func applyMigrations(ctx context.Context, db *bun.DB) error {
	migrator := migrate.NewMigrator(db, migrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return err
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		return err
	}
	return nil
}
