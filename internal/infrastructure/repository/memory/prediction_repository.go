package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mitchell28/masterleague/internal/domain/fixture"
	"github.com/mitchell28/masterleague/internal/domain/prediction"
)

// PredictionRepository joins predictions with fixtures for season filters, mirroring the
// SQL implementation.
type PredictionRepository struct {
	mu          sync.RWMutex
	predictions map[string]prediction.Prediction
	usernames   map[string]string
	fixtures    fixture.Repository
	now         func() time.Time
}

func NewPredictionRepository(predictions []prediction.Prediction, usernames map[string]string, fixtures fixture.Repository) *PredictionRepository {
	byID := make(map[string]prediction.Prediction, len(predictions))
	for _, item := range predictions {
		byID[item.ID] = item
	}
	names := make(map[string]string, len(usernames))
	for userID, name := range usernames {
		names[userID] = name
	}

	return &PredictionRepository{
		predictions: byID,
		usernames:   names,
		fixtures:    fixtures,
		now:         time.Now,
	}
}

func (r *PredictionRepository) ListByFixture(_ context.Context, fixtureID string) ([]prediction.Prediction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]prediction.Prediction, 0)
	for _, item := range r.predictions {
		if item.FixtureID == fixtureID {
			out = append(out, clonePrediction(item))
		}
	}
	sortPredictions(out)
	return out, nil
}

func (r *PredictionRepository) UpdatePoints(_ context.Context, predictionID string, points int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.predictions[predictionID]
	if !ok {
		return errNotFound("prediction", predictionID)
	}
	item.Points = &points
	item.UpdatedAt = r.now().UTC()
	r.predictions[predictionID] = item
	return nil
}

func (r *PredictionRepository) ClearPoints(_ context.Context, predictionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.predictions[predictionID]
	if !ok {
		return errNotFound("prediction", predictionID)
	}
	item.Points = nil
	item.UpdatedAt = r.now().UTC()
	r.predictions[predictionID] = item
	return nil
}

func (r *PredictionRepository) ListParticipants(ctx context.Context, organizationID string, season int) ([]prediction.Participant, error) {
	items, err := r.ListByOrganizationSeason(ctx, organizationID, season)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	out := make([]prediction.Participant, 0)
	for _, item := range items {
		if _, ok := seen[item.UserID]; ok {
			continue
		}
		seen[item.UserID] = struct{}{}
		out = append(out, prediction.Participant{UserID: item.UserID, Username: r.usernames[item.UserID]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (r *PredictionRepository) ListByOrganizationSeason(ctx context.Context, organizationID string, season int) ([]prediction.Prediction, error) {
	seasonFixtures, err := r.fixtures.ListBySeason(ctx, season)
	if err != nil {
		return nil, err
	}
	inSeason := make(map[string]struct{}, len(seasonFixtures))
	for _, item := range seasonFixtures {
		inSeason[item.ID] = struct{}{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]prediction.Prediction, 0)
	for _, item := range r.predictions {
		if item.OrganizationID != organizationID {
			continue
		}
		if _, ok := inSeason[item.FixtureID]; !ok {
			continue
		}
		out = append(out, clonePrediction(item))
	}
	sortPredictions(out)
	return out, nil
}

func (r *PredictionRepository) SumPointsByUser(ctx context.Context, organizationID string, season int) (map[string]int, error) {
	items, err := r.ListByOrganizationSeason(ctx, organizationID, season)
	if err != nil {
		return nil, err
	}

	out := make(map[string]int)
	for _, item := range items {
		out[item.UserID] += item.StoredPoints()
	}
	return out, nil
}

// SetPoints overwrites stored points without touching entries.
func (r *PredictionRepository) SetPoints(predictionID string, points *int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.predictions[predictionID]
	if !ok {
		return
	}
	item.Points = copyInt(points)
	r.predictions[predictionID] = item
}

func clonePrediction(item prediction.Prediction) prediction.Prediction {
	item.Points = copyInt(item.Points)
	return item
}

func sortPredictions(items []prediction.Prediction) {
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
}
