package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/mitchell28/masterleague/internal/domain/fixture"
	"github.com/mitchell28/masterleague/internal/platform/logging"
)

// FixtureScorer is the slice of PredictionLedgerService used by ingestion.
type FixtureScorer interface {
	ScoreFixture(ctx context.Context, fixtureID string) (ProcessResult, error)
	VoidFixture(ctx context.Context, fixtureID string) (ProcessResult, error)
}

// ResultIngestionService stores a fixture result and pushes it through scoring and
// aggregation.
type ResultIngestionService struct {
	fixtureRepo  fixture.Repository
	scorer       FixtureScorer
	recalculator LeaderboardRecalculator
	logger       *logging.Logger
}

func NewResultIngestionService(
	fixtureRepo fixture.Repository,
	scorer FixtureScorer,
	recalculator LeaderboardRecalculator,
	logger *logging.Logger,
) *ResultIngestionService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ResultIngestionService{
		fixtureRepo:  fixtureRepo,
		scorer:       scorer,
		recalculator: recalculator,
		logger:       logger,
	}
}

func (s *ResultIngestionService) ApplyFixtureResult(ctx context.Context, input FixtureResultInput) (IngestionResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ResultIngestionService.ApplyFixtureResult")
	defer span.End()

	input.FixtureID = strings.TrimSpace(input.FixtureID)
	if err := validateInput(ctx, input); err != nil {
		return IngestionResult{}, err
	}

	status := fixture.NormalizeStatus(input.Status)
	if !fixture.IsKnownStatus(status) {
		return IngestionResult{}, fmt.Errorf("%w: unknown fixture status %q", ErrInvalidInput, input.Status)
	}
	hasScores := input.HomeScore != nil && input.AwayScore != nil
	anyScore := input.HomeScore != nil || input.AwayScore != nil
	switch {
	case fixture.HasResultStatus(status) && !hasScores:
		return IngestionResult{}, fmt.Errorf("%w: status %s requires both scores", ErrInvalidInput, status)
	case anyScore && !hasScores:
		return IngestionResult{}, fmt.Errorf("%w: scores must be given as a pair", ErrInvalidInput)
	case anyScore && !fixture.HasResultStatus(status) && !fixture.IsLiveStatus(status):
		return IngestionResult{}, fmt.Errorf("%w: status %s must not carry scores", ErrInvalidInput, status)
	}

	item, exists, err := s.fixtureRepo.GetByID(ctx, input.FixtureID)
	if err != nil {
		return IngestionResult{}, fmt.Errorf("get fixture %s: %w", input.FixtureID, err)
	}
	if !exists {
		return IngestionResult{}, fmt.Errorf("%w: fixture=%s", ErrNotFound, input.FixtureID)
	}

	if err := s.fixtureRepo.UpdateResult(ctx, item.ID, input.HomeScore, input.AwayScore, status); err != nil {
		return IngestionResult{}, fmt.Errorf("update fixture result: %w", err)
	}

	result := IngestionResult{FixtureID: item.ID, Status: status}
	switch {
	case fixture.HasResultStatus(status):
		processed, err := s.scorer.ScoreFixture(ctx, item.ID)
		if err != nil {
			return result, fmt.Errorf("score fixture %s: %w", item.ID, err)
		}
		result.Scoring = &processed
	case fixture.IsCancelledLikeStatus(status) && item.HasResult():
		voided, err := s.scorer.VoidFixture(ctx, item.ID)
		if err != nil {
			return result, fmt.Errorf("void fixture %s: %w", item.ID, err)
		}
		result.Scoring = &voided
	default:
		s.logger.InfoContext(ctx, "fixture status updated", "fixture_id", item.ID, "status", status)
		return result, nil
	}

	for _, organizationID := range result.Scoring.Organizations {
		result.Recalculations = append(result.Recalculations, s.recalculator.Recalculate(ctx, organizationID, item.Season, true))
	}

	s.logger.InfoContext(ctx, "fixture result ingested",
		"fixture_id", item.ID,
		"status", status,
		"predictions", result.Scoring.ProcessedCount,
		"organizations", len(result.Scoring.Organizations),
	)
	return result, nil
}
