// Package leaderboard aggregates team scores over the current contest-local
// day. Writes go to Redis hashes with their own expiry; if the primary is
// down they land as rows in an embedded SQLite table that is aggregated at
// read time and pruned on a retention window.
package leaderboard

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/uptrace/bun"

	"reco-quiz-service/internal/clock"
	"reco-quiz-service/internal/domain"
	"reco-quiz-service/internal/store"
)

const (
	// DefaultTTL keeps a day's hashes one extra hour past rollover so reads
	// near the boundary are not cut off by clock skew.
	DefaultTTL = 25 * time.Hour
	// DefaultRetention is how long fallback rows are kept before Prune
	// removes them.
	DefaultRetention = 7 * 24 * time.Hour
)

// Board is the daily team leaderboard. Either backend may be nil; AddScore
// fails only when no backend accepted the write.
type Board struct {
	kv        store.KV
	db        *bun.DB
	clock     clock.Clock
	ttl       time.Duration
	retention time.Duration
}

// New builds a Board. kv is the primary backend, db the embedded fallback.
func New(kv store.KV, db *bun.DB, c clock.Clock) *Board {
	return &Board{
		kv:        kv,
		db:        db,
		clock:     c,
		ttl:       DefaultTTL,
		retention: DefaultRetention,
	}
}

func (b *Board) scoresKey(date string) string {
	return fmt.Sprintf("leaderboard:%s:scores", date)
}

func (b *Board) countsKey(date string) string {
	return fmt.Sprintf("leaderboard:%s:counts", date)
}

// AddScore records one quiz total for team on today's board. The primary is
// tried first; on any failure the write is retried as a fallback row. The
// two hash increments are individually atomic but not paired: a failure
// between them leaves a bounded count/total skew for that one submission.
func (b *Board) AddScore(ctx context.Context, team string, score int) error {
	if b.kv != nil {
		err := b.addScorePrimary(ctx, team, score)
		if err == nil {
			return nil
		}
		log.Printf("leaderboard: primary add_score failed: %v", err)
	}
	if b.db != nil {
		err := b.addScoreFallback(ctx, team, score)
		if err == nil {
			return nil
		}
		log.Printf("leaderboard: fallback add_score failed: %v", err)
	}
	return domain.ErrLeaderboardUnavailable
}

func (b *Board) addScorePrimary(ctx context.Context, team string, score int) error {
	date := b.clock.DayKey()
	if _, err := b.kv.IncrementField(ctx, b.scoresKey(date), team, int64(score)); err != nil {
		return err
	}
	if _, err := b.kv.IncrementField(ctx, b.countsKey(date), team, 1); err != nil {
		return err
	}
	// Refresh expiry after each increment; 25h absorbs day-boundary skew.
	if err := b.kv.ExpireIn(ctx, b.scoresKey(date), b.ttl); err != nil {
		return err
	}
	return b.kv.ExpireIn(ctx, b.countsKey(date), b.ttl)
}

func (b *Board) addScoreFallback(ctx context.Context, team string, score int) error {
	row := &TeamScore{
		TeamName:    team,
		Score:       score,
		Timestamp:   b.clock.Now().UTC(),
		PlayerCount: 1,
	}
	_, err := b.db.NewInsert().Model(row).Exec(ctx)
	return err
}

// TopTeams returns today's standings ordered by average score descending,
// then total score descending, then team name. limit <= 0 returns all.
// An empty or unreachable primary falls through to the fallback aggregation
// so scores written during an outage stay visible.
func (b *Board) TopTeams(ctx context.Context, limit int) ([]domain.TeamStanding, error) {
	if b.kv != nil {
		standings, err := b.topTeamsPrimary(ctx)
		if err != nil {
			log.Printf("leaderboard: primary top_teams failed: %v", err)
		} else if len(standings) > 0 {
			return truncate(standings, limit), nil
		}
	}
	if b.db != nil {
		standings, err := b.topTeamsFallback(ctx)
		if err != nil {
			log.Printf("leaderboard: fallback top_teams failed: %v", err)
			return nil, domain.ErrLeaderboardUnavailable
		}
		return truncate(standings, limit), nil
	}
	if b.kv == nil {
		return nil, domain.ErrLeaderboardUnavailable
	}
	return []domain.TeamStanding{}, nil
}

func (b *Board) topTeamsPrimary(ctx context.Context) ([]domain.TeamStanding, error) {
	date := b.clock.DayKey()
	scores, err := b.kv.Fields(ctx, b.scoresKey(date))
	if err != nil {
		return nil, err
	}
	counts, err := b.kv.Fields(ctx, b.countsKey(date))
	if err != nil {
		return nil, err
	}

	standings := make([]domain.TeamStanding, 0, len(scores))
	for team, rawTotal := range scores {
		total, err := strconv.Atoi(rawTotal)
		if err != nil {
			continue
		}
		count := 1
		if rawCount, ok := counts[team]; ok {
			if n, err := strconv.Atoi(rawCount); err == nil && n > 0 {
				count = n
			}
		}
		standings = append(standings, domain.TeamStanding{
			TeamName:     team,
			TotalScore:   total,
			AverageScore: round1(float64(total) / float64(count)),
			PlayerCount:  count,
		})
	}
	sortStandings(standings)
	return standings, nil
}

func (b *Board) topTeamsFallback(ctx context.Context) ([]domain.TeamStanding, error) {
	start, end := b.clock.DayBounds()

	var rows []struct {
		TeamName    string `bun:"team_name"`
		TotalScore  int    `bun:"total_score"`
		PlayerCount int    `bun:"player_count"`
	}
	err := b.db.NewSelect().
		Model((*TeamScore)(nil)).
		ColumnExpr("team_name").
		ColumnExpr("SUM(score) AS total_score").
		ColumnExpr("COUNT(*) AS player_count").
		Where("timestamp >= ? AND timestamp < ?", start.UTC(), end.UTC()).
		GroupExpr("team_name").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}

	standings := make([]domain.TeamStanding, 0, len(rows))
	for _, row := range rows {
		count := row.PlayerCount
		if count <= 0 {
			count = 1
		}
		standings = append(standings, domain.TeamStanding{
			TeamName:     row.TeamName,
			TotalScore:   row.TotalScore,
			AverageScore: round1(float64(row.TotalScore) / float64(count)),
			PlayerCount:  count,
		})
	}
	sortStandings(standings)
	return standings, nil
}

// Prune deletes fallback rows older than the retention window and returns
// how many were removed. The primary backend expires on its own TTLs.
func (b *Board) Prune(ctx context.Context) (int64, error) {
	if b.db == nil {
		return 0, nil
	}
	cutoff := b.clock.Now().Add(-b.retention).UTC()
	res, err := b.db.NewDelete().
		Model((*TeamScore)(nil)).
		Where("timestamp < ?", cutoff).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func sortStandings(standings []domain.TeamStanding) {
	sort.Slice(standings, func(i, j int) bool {
		if standings[i].AverageScore != standings[j].AverageScore {
			return standings[i].AverageScore > standings[j].AverageScore
		}
		if standings[i].TotalScore != standings[j].TotalScore {
			return standings[i].TotalScore > standings[j].TotalScore
		}
		return standings[i].TeamName < standings[j].TeamName
	})
}

func truncate(standings []domain.TeamStanding, limit int) []domain.TeamStanding {
	if limit > 0 && len(standings) > limit {
		return standings[:limit]
	}
	return standings
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
