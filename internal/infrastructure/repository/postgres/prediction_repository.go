package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/mitchell28/masterleague/internal/domain/prediction"
	qb "github.com/mitchell28/masterleague/internal/platform/querybuilder"
)

const predictionsBySeasonFrom = "predictions p JOIN fixtures f ON f.public_id = p.fixture_public_id AND f.deleted_at IS NULL"

type PredictionRepository struct {
	db *sqlx.DB
}

func NewPredictionRepository(db *sqlx.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

func (r *PredictionRepository) ListByFixture(ctx context.Context, fixtureID string) ([]prediction.Prediction, error) {
	query, args, err := qb.Select("*").From("predictions").
		Where(
			qb.Eq("fixture_public_id", fixtureID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list predictions by fixture query: %w", err)
	}

	var rows []predictionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list predictions by fixture: %w", err)
	}
	return predictionsFromRows(rows), nil
}

func (r *PredictionRepository) UpdatePoints(ctx context.Context, predictionID string, points int) error {
	builder := qb.Update("predictions").Set("points", points)
	return r.writePoints(ctx, builder, predictionID, "update prediction points")
}

func (r *PredictionRepository) ClearPoints(ctx context.Context, predictionID string) error {
	builder := qb.Update("predictions").SetExpr("points", "NULL")
	return r.writePoints(ctx, builder, predictionID, "clear prediction points")
}

func (r *PredictionRepository) writePoints(ctx context.Context, builder *qb.UpdateBuilder, predictionID, action string) error {
	query, args, err := builder.
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", predictionID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build %s query: %w", action, err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s prediction=%s: %w", action, predictionID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read affected rows prediction=%s: %w", predictionID, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s prediction=%s: no rows", action, predictionID)
	}
	return nil
}

func (r *PredictionRepository) ListParticipants(ctx context.Context, organizationID string, season int) ([]prediction.Participant, error) {
	query, args, err := qb.Select(
		"p.user_public_id AS user_id",
		"COALESCE(MAX(u.username), '') AS username",
	).
		From(predictionsBySeasonFrom+" LEFT JOIN users u ON u.public_id = p.user_public_id AND u.deleted_at IS NULL").
		Where(
			qb.Eq("p.organization_public_id", organizationID),
			qb.Eq("f.season", season),
			qb.IsNull("p.deleted_at"),
		).
		GroupBy("p.user_public_id").
		OrderBy("p.user_public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list participants query: %w", err)
	}

	var rows []participantRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}

	out := make([]prediction.Participant, 0, len(rows))
	for _, row := range rows {
		out = append(out, prediction.Participant{UserID: row.UserID, Username: row.Username})
	}
	return out, nil
}

func (r *PredictionRepository) ListByOrganizationSeason(ctx context.Context, organizationID string, season int) ([]prediction.Prediction, error) {
	query, args, err := qb.Select("p.*").
		From(predictionsBySeasonFrom).
		Where(
			qb.Eq("p.organization_public_id", organizationID),
			qb.Eq("f.season", season),
			qb.IsNull("p.deleted_at"),
		).
		OrderBy("p.public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list predictions by organization season query: %w", err)
	}

	var rows []predictionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list predictions by organization season: %w", err)
	}
	return predictionsFromRows(rows), nil
}

func (r *PredictionRepository) SumPointsByUser(ctx context.Context, organizationID string, season int) (map[string]int, error) {
	query, args, err := qb.Select(
		"p.user_public_id AS user_id",
		"COALESCE(SUM(p.points), 0) AS total_points",
	).
		From(predictionsBySeasonFrom).
		Where(
			qb.Eq("p.organization_public_id", organizationID),
			qb.Eq("f.season", season),
			qb.IsNull("p.deleted_at"),
		).
		GroupBy("p.user_public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build sum points by user query: %w", err)
	}

	var rows []userPointsRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("sum points by user: %w", err)
	}

	out := make(map[string]int, len(rows))
	for _, row := range rows {
		out[row.UserID] = row.TotalPoints
	}
	return out, nil
}

func predictionsFromRows(rows []predictionTableModel) []prediction.Prediction {
	out := make([]prediction.Prediction, 0, len(rows))
	for _, row := range rows {
		out = append(out, prediction.Prediction{
			ID:             row.PublicID,
			UserID:         row.UserID,
			FixtureID:      row.FixtureID,
			OrganizationID: row.OrganizationID,
			PredictedHome:  row.PredictedHome,
			PredictedAway:  row.PredictedAway,
			Points:         nullInt64ToIntPtr(row.Points),
			CreatedAt:      row.CreatedAt.UTC(),
			UpdatedAt:      row.UpdatedAt.UTC(),
		})
	}
	return out
}
