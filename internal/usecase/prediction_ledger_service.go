package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mitchell28/masterleague/internal/domain/fixture"
	"github.com/mitchell28/masterleague/internal/domain/leaderboard"
	"github.com/mitchell28/masterleague/internal/domain/prediction"
	"github.com/mitchell28/masterleague/internal/domain/scoring"
	"github.com/mitchell28/masterleague/internal/platform/logging"
)

const DefaultRepairLookbackDays = 7

// PredictionLedgerService scores predictions for finished fixtures and keeps leaderboard
// entries in step through additive deltas.
type PredictionLedgerService struct {
	fixtureRepo     fixture.Repository
	predictionRepo  prediction.Repository
	leaderboardRepo leaderboard.Repository
	cache           leaderboard.Cache
	logger          *logging.Logger
	now             func() time.Time
}

func NewPredictionLedgerService(
	fixtureRepo fixture.Repository,
	predictionRepo prediction.Repository,
	leaderboardRepo leaderboard.Repository,
	cache leaderboard.Cache,
	logger *logging.Logger,
) *PredictionLedgerService {
	if logger == nil {
		logger = logging.Default()
	}
	return &PredictionLedgerService{
		fixtureRepo:     fixtureRepo,
		predictionRepo:  predictionRepo,
		leaderboardRepo: leaderboardRepo,
		cache:           cache,
		logger:          logger,
		now:             time.Now,
	}
}

// ScoreFixture writes points for every prediction of a finished fixture. Re-running it
// with unchanged data applies no deltas.
func (s *PredictionLedgerService) ScoreFixture(ctx context.Context, fixtureID string) (ProcessResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionLedgerService.ScoreFixture")
	defer span.End()

	fixtureID = strings.TrimSpace(fixtureID)
	if fixtureID == "" {
		return ProcessResult{}, fmt.Errorf("%w: fixture id is required", ErrInvalidInput)
	}

	item, exists, err := s.fixtureRepo.GetByID(ctx, fixtureID)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("get fixture %s: %w", fixtureID, err)
	}
	if !exists {
		return ProcessResult{}, fmt.Errorf("%w: fixture=%s", ErrNotFound, fixtureID)
	}

	result := ProcessResult{FixtureID: fixtureID, Organizations: []string{}}
	if !item.HasResult() {
		s.logger.InfoContext(ctx, "skip scoring fixture without final result",
			"fixture_id", fixtureID,
			"status", item.Status,
		)
		return result, nil
	}

	run, err := s.scoreFixturePredictions(ctx, item)
	if err != nil {
		return ProcessResult{}, err
	}

	result.ProcessedCount = run.processed
	result.PointsAllocated = run.pointsAllocated
	result.UsersAffected = len(run.usersChanged)
	result.Organizations = sortedKeys(run.organizations)
	result.Errors = run.errors

	s.logger.InfoContext(ctx, "fixture scored",
		"fixture_id", fixtureID,
		"season", item.Season,
		"processed", result.ProcessedCount,
		"points_allocated", result.PointsAllocated,
		"users_affected", result.UsersAffected,
		"errors", len(result.Errors),
	)
	return result, nil
}

// VoidFixture takes back the points of a fixture that lost its result, for example a
// finished match later cancelled. The fixture must no longer carry a result.
func (s *PredictionLedgerService) VoidFixture(ctx context.Context, fixtureID string) (ProcessResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionLedgerService.VoidFixture")
	defer span.End()

	fixtureID = strings.TrimSpace(fixtureID)
	if fixtureID == "" {
		return ProcessResult{}, fmt.Errorf("%w: fixture id is required", ErrInvalidInput)
	}

	item, exists, err := s.fixtureRepo.GetByID(ctx, fixtureID)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("get fixture %s: %w", fixtureID, err)
	}
	if !exists {
		return ProcessResult{}, fmt.Errorf("%w: fixture=%s", ErrNotFound, fixtureID)
	}
	if item.HasResult() {
		return ProcessResult{}, fmt.Errorf("%w: fixture %s still carries a result", ErrInvalidInput, fixtureID)
	}

	predictions, err := s.predictionRepo.ListByFixture(ctx, item.ID)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("list predictions for fixture %s: %w", item.ID, err)
	}

	run := fixtureScoringRun{
		usersChanged:  make(map[string]struct{}),
		organizations: make(map[string]struct{}),
	}
	multiplier := item.EffectiveMultiplier()
	deltas := make(map[entryKey]leaderboard.Delta)
	for _, p := range predictions {
		run.organizations[p.OrganizationID] = struct{}{}
		if p.Points == nil {
			continue
		}
		if err := s.predictionRepo.ClearPoints(ctx, p.ID); err != nil {
			run.errors = append(run.errors, fmt.Sprintf("clear points prediction=%s: %v", p.ID, err))
			continue
		}
		run.processed++
		run.pointsDelta -= *p.Points

		key := entryKey{organizationID: p.OrganizationID, userID: p.UserID}
		deltas[key] = deltas[key].Add(negate(contribution(inferOutcome(*p.Points, multiplier), *p.Points)))
	}
	s.applyDeltas(ctx, &run, deltas, item.Season)

	result := ProcessResult{
		FixtureID:       fixtureID,
		ProcessedCount:  run.processed,
		PointsAllocated: run.pointsDelta,
		UsersAffected:   len(run.usersChanged),
		Organizations:   sortedKeys(run.organizations),
		Errors:          run.errors,
	}
	s.logger.InfoContext(ctx, "fixture scoring voided",
		"fixture_id", fixtureID,
		"status", item.Status,
		"voided", result.ProcessedCount,
		"points_removed", -result.PointsAllocated,
		"errors", len(result.Errors),
	)
	return result, nil
}

// RepairUnprocessed rescores predictions of recently finished fixtures whose stored points
// are missing or disagree with the recomputed value.
func (s *PredictionLedgerService) RepairUnprocessed(ctx context.Context, input RepairInput) (RepairReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionLedgerService.RepairUnprocessed")
	defer span.End()

	if err := validateInput(ctx, input); err != nil {
		return RepairReport{}, err
	}

	since := s.now().UTC().Add(-time.Duration(input.LookbackDays) * 24 * time.Hour)
	fixtures, err := s.fixtureRepo.ListFinishedSince(ctx, since)
	if err != nil {
		return RepairReport{}, fmt.Errorf("list finished fixtures since %s: %w", since.Format(time.RFC3339), err)
	}

	report := RepairReport{}
	for _, item := range fixtures {
		if !item.HasResult() {
			continue
		}
		report.FixturesChecked++

		run, err := s.scoreFixturePredictions(ctx, item)
		if err != nil {
			report.Errors = append(report.Errors, err.Error())
			continue
		}
		report.PredictionsFixed += run.changed
		report.PointsAwarded += run.pointsDelta
		report.Errors = append(report.Errors, run.errors...)
	}

	s.logger.InfoContext(ctx, "repair unprocessed predictions completed",
		"lookback_days", input.LookbackDays,
		"fixtures_checked", report.FixturesChecked,
		"predictions_fixed", report.PredictionsFixed,
		"points_awarded", report.PointsAwarded,
		"errors", len(report.Errors),
	)
	return report, nil
}

type fixtureScoringRun struct {
	processed       int
	pointsAllocated int
	changed         int
	pointsDelta     int
	usersChanged    map[string]struct{}
	organizations   map[string]struct{}
	errors          []string
}

type entryKey struct {
	organizationID string
	userID         string
}

// scoreFixturePredictions only errors when predictions cannot be loaded. Per-item write
// failures are collected on the run.
func (s *PredictionLedgerService) scoreFixturePredictions(ctx context.Context, item fixture.Fixture) (fixtureScoringRun, error) {
	run := fixtureScoringRun{
		usersChanged:  make(map[string]struct{}),
		organizations: make(map[string]struct{}),
	}

	home, away, ok := item.Result()
	if !ok {
		return run, nil
	}

	predictions, err := s.predictionRepo.ListByFixture(ctx, item.ID)
	if err != nil {
		return run, fmt.Errorf("list predictions for fixture %s: %w", item.ID, err)
	}

	multiplier := item.EffectiveMultiplier()
	deltas := make(map[entryKey]leaderboard.Delta)
	for _, p := range predictions {
		run.processed++
		run.organizations[p.OrganizationID] = struct{}{}

		outcome := scoring.Classify(p.PredictedHome, p.PredictedAway, home, away)
		points := scoring.PointsFor(outcome, multiplier)
		run.pointsAllocated += points

		if p.Points != nil && *p.Points == points {
			continue
		}
		if err := s.predictionRepo.UpdatePoints(ctx, p.ID, points); err != nil {
			run.errors = append(run.errors, fmt.Sprintf("update points prediction=%s: %v", p.ID, err))
			continue
		}

		delta := contribution(outcome, points)
		if p.Points != nil {
			delta = delta.Add(negate(contribution(inferOutcome(*p.Points, multiplier), *p.Points)))
		}
		run.changed++
		run.pointsDelta += points - p.StoredPoints()

		key := entryKey{organizationID: p.OrganizationID, userID: p.UserID}
		deltas[key] = deltas[key].Add(delta)
	}

	s.applyDeltas(ctx, &run, deltas, item.Season)
	return run, nil
}

// applyDeltas writes accumulated entry deltas and marks the touched leaderboards.
func (s *PredictionLedgerService) applyDeltas(ctx context.Context, run *fixtureScoringRun, deltas map[entryKey]leaderboard.Delta, season int) {
	usernames := s.usernames(ctx, deltas, season)
	touched := make(map[string]struct{})
	for _, key := range sortedEntryKeys(deltas) {
		delta := deltas[key]
		if delta.IsZero() {
			continue
		}
		if err := s.leaderboardRepo.ApplyEntryDelta(ctx, key.organizationID, season, key.userID, usernames[key], delta); err != nil {
			run.errors = append(run.errors, fmt.Sprintf("apply entry delta org=%s user=%s: %v", key.organizationID, key.userID, err))
			continue
		}
		run.usersChanged[key.organizationID+":"+key.userID] = struct{}{}
		touched[key.organizationID] = struct{}{}
	}

	s.markNewerGame(ctx, touched, season)
}

// usernames resolves display names for entries a delta may create. A lookup failure only
// costs the name until the next aggregation.
func (s *PredictionLedgerService) usernames(ctx context.Context, deltas map[entryKey]leaderboard.Delta, season int) map[entryKey]string {
	out := make(map[entryKey]string, len(deltas))
	organizations := make(map[string]struct{})
	for key, delta := range deltas {
		if !delta.IsZero() {
			organizations[key.organizationID] = struct{}{}
		}
	}

	for _, organizationID := range sortedKeys(organizations) {
		participants, err := s.predictionRepo.ListParticipants(ctx, organizationID, season)
		if err != nil {
			s.logger.WarnContext(ctx, "resolve usernames for entry deltas failed",
				"organization_id", organizationID,
				"season", season,
				"error", err,
			)
			continue
		}
		for _, participant := range participants {
			out[entryKey{organizationID: organizationID, userID: participant.UserID}] = participant.Username
		}
	}
	return out
}

// markNewerGame records that entries moved after the last aggregation so cached
// leaderboards older than the stale threshold stop being served.
func (s *PredictionLedgerService) markNewerGame(ctx context.Context, organizations map[string]struct{}, season int) {
	if s.cache == nil || len(organizations) == 0 {
		return
	}
	observedAt := s.now().UTC()
	for _, organizationID := range sortedKeys(organizations) {
		if _, err := s.cache.SetMeta(ctx, organizationID, season, leaderboard.MetaUpdate{LastGameTime: &observedAt}); err != nil {
			s.logger.WarnContext(ctx, "mark leaderboard meta after scoring failed",
				"organization_id", organizationID,
				"season", season,
				"error", err,
			)
		}
	}
}

// contribution is what one scored prediction adds to its user's entry. The prediction
// itself was already counted by aggregation, so only completion moves.
func contribution(outcome scoring.Outcome, points int) leaderboard.Delta {
	delta := leaderboard.Delta{
		Points:            points,
		CompletedFixtures: 1,
	}
	switch outcome {
	case scoring.OutcomeExact:
		delta.CorrectScorelines = 1
	case scoring.OutcomeCorrect:
		delta.CorrectOutcomes = 1
	}
	return delta
}

func negate(delta leaderboard.Delta) leaderboard.Delta {
	return leaderboard.Delta{
		Points:            -delta.Points,
		CorrectScorelines: -delta.CorrectScorelines,
		CorrectOutcomes:   -delta.CorrectOutcomes,
		CompletedFixtures: -delta.CompletedFixtures,
	}
}

// inferOutcome recovers the category behind previously stored points.
func inferOutcome(points, multiplier int) scoring.Outcome {
	switch {
	case points <= 0:
		return scoring.OutcomeMiss
	case points == scoring.PointsFor(scoring.OutcomeExact, multiplier):
		return scoring.OutcomeExact
	case points == scoring.PointsFor(scoring.OutcomeCorrect, multiplier):
		return scoring.OutcomeCorrect
	case points%scoring.ExactScorePoints == 0:
		return scoring.OutcomeExact
	default:
		return scoring.OutcomeCorrect
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

func sortedEntryKeys(deltas map[entryKey]leaderboard.Delta) []entryKey {
	out := make([]entryKey, 0, len(deltas))
	for key := range deltas {
		out = append(out, key)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].organizationID != out[j].organizationID {
			return out[i].organizationID < out[j].organizationID
		}
		return out[i].userID < out[j].userID
	})
	return out
}
