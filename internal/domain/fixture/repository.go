package fixture

import (
	"context"
	"time"
)

// Repository exposes fixture storage operations.
type Repository interface {
	GetByID(ctx context.Context, fixtureID string) (Fixture, bool, error)
	ListBySeason(ctx context.Context, season int) ([]Fixture, error)
	// ListFinishedSince returns result-carrying fixtures updated at or after since.
	ListFinishedSince(ctx context.Context, since time.Time) ([]Fixture, error)
	UpdateResult(ctx context.Context, fixtureID string, homeScore, awayScore *int, status string) error
}
