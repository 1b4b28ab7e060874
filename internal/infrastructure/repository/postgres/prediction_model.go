package postgres

import (
	"database/sql"
	"time"
)

type predictionTableModel struct {
	ID             int64         `db:"id"`
	PublicID       string        `db:"public_id"`
	UserID         string        `db:"user_public_id"`
	FixtureID      string        `db:"fixture_public_id"`
	OrganizationID string        `db:"organization_public_id"`
	PredictedHome  int           `db:"predicted_home"`
	PredictedAway  int           `db:"predicted_away"`
	Points         sql.NullInt64 `db:"points"`
	CreatedAt      time.Time     `db:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at"`
	DeletedAt      *time.Time    `db:"deleted_at"`
}

type participantRow struct {
	UserID   string `db:"user_id"`
	Username string `db:"username"`
}

type userPointsRow struct {
	UserID      string `db:"user_id"`
	TotalPoints int    `db:"total_points"`
}
