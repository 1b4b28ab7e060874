package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/mitchell28/masterleague/internal/domain/organization"
	qb "github.com/mitchell28/masterleague/internal/platform/querybuilder"
)

type OrganizationRepository struct {
	db *sqlx.DB
}

func NewOrganizationRepository(db *sqlx.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) List(ctx context.Context) ([]organization.Organization, error) {
	query, args, err := qb.Select("*").From("organizations").
		Where(qb.IsNull("deleted_at")).
		OrderBy("public_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list organizations query: %w", err)
	}

	var rows []organizationTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}

	out := make([]organization.Organization, 0, len(rows))
	for _, row := range rows {
		out = append(out, organization.Organization{
			ID:        row.PublicID,
			Name:      row.Name,
			Slug:      row.Slug,
			CreatedAt: row.CreatedAt.UTC(),
		})
	}
	return out, nil
}
