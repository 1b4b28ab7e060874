package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mitchell28/masterleague/internal/domain/leaderboard"
	qb "github.com/mitchell28/masterleague/internal/platform/querybuilder"
)

type LeaderboardRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewLeaderboardRepository(db *sqlx.DB) *LeaderboardRepository {
	return &LeaderboardRepository{db: db, now: time.Now}
}

func (r *LeaderboardRepository) ListEntries(ctx context.Context, organizationID string, season int) ([]leaderboard.Entry, error) {
	query, args, err := qb.Select("*").From("leaderboard_entries").
		Where(
			qb.Eq("organization_public_id", organizationID),
			qb.Eq("season", season),
		).
		OrderBy("total_points DESC", "correct_scorelines DESC", "correct_outcomes DESC", "user_public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list leaderboard entries query: %w", err)
	}

	var rows []leaderboardEntryTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list leaderboard entries: %w", err)
	}

	out := make([]leaderboard.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, leaderboard.Entry{
			UserID:            row.UserID,
			Username:          row.Username,
			OrganizationID:    row.OrganizationID,
			Season:            row.Season,
			TotalPoints:       row.TotalPoints,
			CorrectScorelines: row.CorrectScorelines,
			CorrectOutcomes:   row.CorrectOutcomes,
			PredictedFixtures: row.PredictedFixtures,
			CompletedFixtures: row.CompletedFixtures,
			Rank:              row.Rank,
			LastUpdated:       row.LastUpdated.UTC(),
		})
	}
	// final order follows leaderboard.Compare, including the username tie-break.
	leaderboard.SortEntries(out)
	return out, nil
}

// ApplyEntryDelta upserts the entry. predicted_fixtures only rises to keep completed
// fixtures within it; aggregation owns the real count.
func (r *LeaderboardRepository) ApplyEntryDelta(ctx context.Context, organizationID string, season int, userID, username string, delta leaderboard.Delta) error {
	query, args, err := qb.InsertModel("leaderboard_entries", r.deltaRow(organizationID, season, userID, username, delta), `ON CONFLICT (organization_public_id, season, user_public_id)
DO UPDATE SET
    username = CASE WHEN leaderboard_entries.username = '' THEN EXCLUDED.username ELSE leaderboard_entries.username END,
    total_points = leaderboard_entries.total_points + EXCLUDED.total_points,
    correct_scorelines = leaderboard_entries.correct_scorelines + EXCLUDED.correct_scorelines,
    correct_outcomes = leaderboard_entries.correct_outcomes + EXCLUDED.correct_outcomes,
    completed_fixtures = leaderboard_entries.completed_fixtures + EXCLUDED.completed_fixtures,
    predicted_fixtures = GREATEST(leaderboard_entries.predicted_fixtures, leaderboard_entries.completed_fixtures + EXCLUDED.completed_fixtures),
    last_updated = EXCLUDED.last_updated`)
	if err != nil {
		return fmt.Errorf("build apply leaderboard delta query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("apply leaderboard delta org=%s season=%d user=%s: %w", organizationID, season, userID, err)
	}
	return nil
}

// deltaRow is the row inserted when the user has no entry yet.
func (r *LeaderboardRepository) deltaRow(organizationID string, season int, userID, username string, delta leaderboard.Delta) leaderboardEntryTableModel {
	created := leaderboard.Entry{UserID: userID, Username: username}.Apply(delta)
	return leaderboardEntryTableModel{
		OrganizationID:    organizationID,
		Season:            season,
		UserID:            userID,
		Username:          username,
		TotalPoints:       created.TotalPoints,
		CorrectScorelines: created.CorrectScorelines,
		CorrectOutcomes:   created.CorrectOutcomes,
		PredictedFixtures: created.PredictedFixtures,
		CompletedFixtures: created.CompletedFixtures,
		LastUpdated:       r.now().UTC(),
	}
}

func (r *LeaderboardRepository) ReplaceEntries(ctx context.Context, organizationID string, season int, entries []leaderboard.Entry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx replace leaderboard entries: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	clearQuery, clearArgs, err := qb.DeleteFrom("leaderboard_entries").
		Where(
			qb.Eq("organization_public_id", organizationID),
			qb.Eq("season", season),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build clear leaderboard entries query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, clearQuery, clearArgs...); err != nil {
		return fmt.Errorf("clear leaderboard entries: %w", err)
	}

	if len(entries) > 0 {
		rows := make([]leaderboardEntryTableModel, 0, len(entries))
		for _, item := range entries {
			rows = append(rows, r.entryRow(organizationID, season, item))
		}
		query, args, err := qb.InsertModels("leaderboard_entries", rows, "")
		if err != nil {
			return fmt.Errorf("build insert leaderboard entries query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert leaderboard entries org=%s season=%d: %w", organizationID, season, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace leaderboard entries tx: %w", err)
	}
	return nil
}

func (r *LeaderboardRepository) GetMeta(ctx context.Context, organizationID string, season int) (leaderboard.Meta, bool, error) {
	query, args, err := qb.Select("*").From("leaderboard_meta").
		Where(
			qb.Eq("organization_public_id", organizationID),
			qb.Eq("season", season),
		).
		ToSQL()
	if err != nil {
		return leaderboard.Meta{}, false, fmt.Errorf("build get leaderboard meta query: %w", err)
	}

	var row leaderboardMetaTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return leaderboard.Meta{}, false, nil
		}
		return leaderboard.Meta{}, false, fmt.Errorf("get leaderboard meta: %w", err)
	}
	return metaFromRow(row), true, nil
}

// UpsertMeta creates the meta row on first use and writes only the fields set on update.
func (r *LeaderboardRepository) UpsertMeta(ctx context.Context, organizationID string, season int, update leaderboard.MetaUpdate) (leaderboard.Meta, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return leaderboard.Meta{}, fmt.Errorf("begin tx upsert leaderboard meta: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	ensureQuery, ensureArgs, err := qb.InsertInto("leaderboard_meta").
		Columns("organization_public_id", "season").
		Values(organizationID, season).
		Suffix("ON CONFLICT (organization_public_id, season) DO NOTHING").
		ToSQL()
	if err != nil {
		return leaderboard.Meta{}, fmt.Errorf("build ensure leaderboard meta query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, ensureQuery, ensureArgs...); err != nil {
		return leaderboard.Meta{}, fmt.Errorf("ensure leaderboard meta: %w", err)
	}

	builder := qb.Update("leaderboard_meta")
	if update.LastLeaderboardUpdate != nil {
		builder.Set("last_leaderboard_update", update.LastLeaderboardUpdate.UTC())
	}
	if update.LastGameTime != nil {
		builder.Set("last_game_time", update.LastGameTime.UTC())
	}
	if update.TotalMatches != nil {
		builder.Set("total_matches", *update.TotalMatches)
	}
	if update.FinishedMatches != nil {
		builder.Set("finished_matches", *update.FinishedMatches)
	}
	if update.IsCalculating != nil {
		builder.Set("is_calculating", *update.IsCalculating)
	}
	query, args, err := builder.
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("organization_public_id", organizationID),
			qb.Eq("season", season),
		).
		Suffix("RETURNING *").
		ToSQL()
	if err != nil {
		return leaderboard.Meta{}, fmt.Errorf("build update leaderboard meta query: %w", err)
	}

	var row leaderboardMetaTableModel
	if err := tx.GetContext(ctx, &row, query, args...); err != nil {
		return leaderboard.Meta{}, fmt.Errorf("update leaderboard meta org=%s season=%d: %w", organizationID, season, err)
	}

	if err := tx.Commit(); err != nil {
		return leaderboard.Meta{}, fmt.Errorf("commit upsert leaderboard meta tx: %w", err)
	}
	return metaFromRow(row), nil
}

func metaFromRow(row leaderboardMetaTableModel) leaderboard.Meta {
	return leaderboard.Meta{
		OrganizationID:        row.OrganizationID,
		Season:                row.Season,
		LastLeaderboardUpdate: nullTimeToTimePtr(row.LastLeaderboardUpdate),
		LastGameTime:          nullTimeToTimePtr(row.LastGameTime),
		TotalMatches:          row.TotalMatches,
		FinishedMatches:       row.FinishedMatches,
		IsCalculating:         row.IsCalculating,
	}
}

func (r *LeaderboardRepository) entryRow(organizationID string, season int, item leaderboard.Entry) leaderboardEntryTableModel {
	lastUpdated := item.LastUpdated
	if lastUpdated.IsZero() {
		lastUpdated = r.now()
	}
	return leaderboardEntryTableModel{
		OrganizationID:    organizationID,
		Season:            season,
		UserID:            item.UserID,
		Username:          item.Username,
		TotalPoints:       item.TotalPoints,
		CorrectScorelines: item.CorrectScorelines,
		CorrectOutcomes:   item.CorrectOutcomes,
		PredictedFixtures: item.PredictedFixtures,
		CompletedFixtures: item.CompletedFixtures,
		Rank:              item.Rank,
		LastUpdated:       lastUpdated.UTC(),
	}
}
