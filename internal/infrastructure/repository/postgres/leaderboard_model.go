package postgres

import (
	"database/sql"
	"time"
)

type leaderboardEntryTableModel struct {
	OrganizationID    string    `db:"organization_public_id"`
	Season            int       `db:"season"`
	UserID            string    `db:"user_public_id"`
	Username          string    `db:"username"`
	TotalPoints       int       `db:"total_points"`
	CorrectScorelines int       `db:"correct_scorelines"`
	CorrectOutcomes   int       `db:"correct_outcomes"`
	PredictedFixtures int       `db:"predicted_fixtures"`
	CompletedFixtures int       `db:"completed_fixtures"`
	Rank              int       `db:"rank"`
	LastUpdated       time.Time `db:"last_updated"`
}

type leaderboardMetaTableModel struct {
	OrganizationID        string       `db:"organization_public_id"`
	Season                int          `db:"season"`
	LastLeaderboardUpdate sql.NullTime `db:"last_leaderboard_update"`
	LastGameTime          sql.NullTime `db:"last_game_time"`
	TotalMatches          int          `db:"total_matches"`
	FinishedMatches       int          `db:"finished_matches"`
	IsCalculating         bool         `db:"is_calculating"`
	UpdatedAt             time.Time    `db:"updated_at"`
}
