package leaderboard

import (
	"time"

	"github.com/uptrace/bun"
)

// TeamScore is one submitted quiz total in the fallback store: a row per
// submission, aggregated at read time. Timestamps are stored in UTC so range
// comparisons stay correct regardless of the contest timezone.
type TeamScore struct {
	bun.BaseModel `bun:"table:team_scores"`

	ID          int64     `bun:"id,pk,autoincrement"`
	TeamName    string    `bun:"team_name,notnull"`
	Score       int       `bun:"score,notnull"`
	Timestamp   time.Time `bun:"timestamp,notnull"`
	PlayerCount int       `bun:"player_count,default:1"`
}
