package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"reco-quiz-service/internal/clock"
	"reco-quiz-service/internal/config"
	"reco-quiz-service/internal/leaderboard"
)

// NewPruneCmd removes fallback leaderboard rows past the retention window.
// Redis entries expire on their own TTLs; only SQLite needs periodic cleanup.
func NewPruneCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Delete fallback leaderboard rows older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrune(cmd.Context(), *configPath)
		},
	}
}

func runPrune(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.SQLite.Path == "" {
		return fmt.Errorf("sqlite path not configured")
	}

	tzName := cfg.Contest.Timezone
	if tzName == "" {
		tzName = "Europe/Paris"
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return err
	}

	db, err := openSQLite(ctx, cfg.SQLite.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	board := leaderboard.New(nil, db, clock.New(loc))
	removed, err := board.Prune(ctx)
	if err != nil {
		return err
	}
	log.Printf("pruned %d leaderboard rows", removed)
	return nil
}
