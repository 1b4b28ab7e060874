package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mitchell28/masterleague/internal/domain/fixture"
	qb "github.com/mitchell28/masterleague/internal/platform/querybuilder"
)

type FixtureRepository struct {
	db *sqlx.DB
}

func NewFixtureRepository(db *sqlx.DB) *FixtureRepository {
	return &FixtureRepository{db: db}
}

func (r *FixtureRepository) GetByID(ctx context.Context, fixtureID string) (fixture.Fixture, bool, error) {
	query, args, err := qb.Select("*").From("fixtures").
		Where(
			qb.Eq("public_id", fixtureID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fixture.Fixture{}, false, fmt.Errorf("build get fixture query: %w", err)
	}

	var row fixtureTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return fixture.Fixture{}, false, nil
		}
		return fixture.Fixture{}, false, fmt.Errorf("get fixture by id: %w", err)
	}

	return fixtureFromRow(row), true, nil
}

func (r *FixtureRepository) ListBySeason(ctx context.Context, season int) ([]fixture.Fixture, error) {
	query, args, err := qb.Select("*").From("fixtures").
		Where(
			qb.Eq("season", season),
			qb.IsNull("deleted_at"),
		).
		OrderBy("kickoff_at", "public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list fixtures by season query: %w", err)
	}

	return r.list(ctx, query, args, "list fixtures by season")
}

func (r *FixtureRepository) ListFinishedSince(ctx context.Context, since time.Time) ([]fixture.Fixture, error) {
	query, args, err := qb.Select("*").From("fixtures").
		Where(
			qb.In("status", []any{fixture.StatusFinished, fixture.StatusAwarded}),
			qb.Gte("updated_at", since.UTC()),
			qb.Expr("home_score IS NOT NULL AND away_score IS NOT NULL"),
			qb.IsNull("deleted_at"),
		).
		OrderBy("kickoff_at", "public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list finished fixtures query: %w", err)
	}

	return r.list(ctx, query, args, "list finished fixtures")
}

func (r *FixtureRepository) UpdateResult(ctx context.Context, fixtureID string, homeScore, awayScore *int, status string) error {
	query, args, err := qb.Update("fixtures").
		Set("home_score", intPtrToNullInt64(homeScore)).
		Set("away_score", intPtrToNullInt64(awayScore)).
		Set("status", fixture.NormalizeStatus(status)).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", fixtureID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update fixture result query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update fixture result fixture=%s: %w", fixtureID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("read affected rows fixture=%s: %w", fixtureID, err)
	}
	if affected == 0 {
		return fmt.Errorf("update fixture result fixture=%s: no rows", fixtureID)
	}
	return nil
}

func (r *FixtureRepository) list(ctx context.Context, query string, args []any, op string) ([]fixture.Fixture, error) {
	var rows []fixtureTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]fixture.Fixture, 0, len(rows))
	for _, row := range rows {
		out = append(out, fixtureFromRow(row))
	}
	return out, nil
}

func fixtureFromRow(row fixtureTableModel) fixture.Fixture {
	return fixture.Fixture{
		ID:         row.PublicID,
		Season:     row.Season,
		Week:       row.Week,
		HomeTeamID: nullStringValue(row.HomeTeamID),
		AwayTeamID: nullStringValue(row.AwayTeamID),
		HomeTeam:   strings.TrimSpace(row.HomeTeam),
		AwayTeam:   strings.TrimSpace(row.AwayTeam),
		KickoffAt:  row.KickoffAt.UTC(),
		Status:     fixture.NormalizeStatus(row.Status),
		HomeScore:  nullInt64ToIntPtr(row.HomeScore),
		AwayScore:  nullInt64ToIntPtr(row.AwayScore),
		Multiplier: row.Multiplier,
		UpdatedAt:  row.UpdatedAt.UTC(),
	}
}
