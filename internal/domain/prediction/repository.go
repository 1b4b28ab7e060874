package prediction

import "context"

type Repository interface {
	ListByFixture(ctx context.Context, fixtureID string) ([]Prediction, error)
	UpdatePoints(ctx context.Context, predictionID string, points int) error
	// ClearPoints returns a prediction to unscored.
	ClearPoints(ctx context.Context, predictionID string) error
	ListParticipants(ctx context.Context, organizationID string, season int) ([]Participant, error)
	ListByOrganizationSeason(ctx context.Context, organizationID string, season int) ([]Prediction, error)
	// SumPointsByUser sums stored points of scored predictions per user.
	SumPointsByUser(ctx context.Context, organizationID string, season int) (map[string]int, error)
}
