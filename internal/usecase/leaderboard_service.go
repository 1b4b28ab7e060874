package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/panics"

	"github.com/mitchell28/masterleague/internal/domain/fixture"
	"github.com/mitchell28/masterleague/internal/domain/leaderboard"
	"github.com/mitchell28/masterleague/internal/domain/organization"
	"github.com/mitchell28/masterleague/internal/domain/prediction"
	"github.com/mitchell28/masterleague/internal/domain/scoring"
	"github.com/mitchell28/masterleague/internal/platform/logging"
)

const MessageRecalculationInProgress = "another recalculation is in progress"

// LeaderboardService rebuilds leaderboards from fixtures and predictions and serves reads
// through the cache.
type LeaderboardService struct {
	fixtureRepo      fixture.Repository
	predictionRepo   prediction.Repository
	leaderboardRepo  leaderboard.Repository
	organizationRepo organization.Repository
	cache            leaderboard.Cache
	locker           leaderboard.Locker
	logger           *logging.Logger
	now              func() time.Time
}

func NewLeaderboardService(
	fixtureRepo fixture.Repository,
	predictionRepo prediction.Repository,
	leaderboardRepo leaderboard.Repository,
	organizationRepo organization.Repository,
	cache leaderboard.Cache,
	locker leaderboard.Locker,
	logger *logging.Logger,
) *LeaderboardService {
	if logger == nil {
		logger = logging.Default()
	}
	return &LeaderboardService{
		fixtureRepo:      fixtureRepo,
		predictionRepo:   predictionRepo,
		leaderboardRepo:  leaderboardRepo,
		organizationRepo: organizationRepo,
		cache:            cache,
		locker:           locker,
		logger:           logger,
		now:              time.Now,
	}
}

// Recalculate never returns an error. Failures and lock contention are reported through
// Success and Message, and the previously cached leaderboard is left in place.
func (s *LeaderboardService) Recalculate(ctx context.Context, organizationID string, season int, force bool) RecalculationResult {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.Recalculate", scopeAttributes(organizationID, season)...)
	defer span.End()

	startedAt := s.now()
	result := RecalculationResult{OrganizationID: organizationID, Season: season}
	finish := func() RecalculationResult {
		result.ExecutionTimeMs = s.now().Sub(startedAt).Milliseconds()
		return result
	}

	if err := validateScope(ctx, organizationID, season); err != nil {
		result.Message = err.Error()
		return finish()
	}

	if !force && s.cache.IsFresh(ctx, organizationID, season) {
		if entries, ok := s.cache.Get(ctx, organizationID, season); ok {
			meta, _ := s.cache.GetMeta(ctx, organizationID, season)
			result.Success = true
			result.FromCache = true
			result.UsersUpdated = len(entries)
			result.TotalMatches = meta.TotalMatches
			result.FinishedMatches = meta.FinishedMatches
			result.LastGameTime = nonZeroTime(meta.LastGameTime)
			result.Message = "leaderboard is fresh"
			return finish()
		}
	}

	lease, acquired, err := s.locker.Acquire(ctx, organizationID, season)
	if err != nil {
		s.logger.WarnContext(ctx, "acquire recalculation lock failed",
			"organization_id", organizationID,
			"season", season,
			"error", err,
		)
		result.Message = fmt.Sprintf("acquire recalculation lock: %v", err)
		return finish()
	}
	if !acquired {
		_, cached := s.cache.Get(ctx, organizationID, season)
		result.FromCache = cached
		result.InProgress = true
		result.Message = MessageRecalculationInProgress
		return finish()
	}
	defer func() {
		if err := s.locker.Release(ctx, lease); err != nil {
			s.logger.WarnContext(ctx, "release recalculation lock failed",
				"organization_id", organizationID,
				"season", season,
				"error", err,
			)
		}
	}()

	var (
		run    aggregation
		runErr error
		pc     panics.Catcher
	)
	pc.Try(func() {
		run, runErr = s.aggregate(ctx, organizationID, season)
	})
	if recovered := pc.Recovered(); recovered != nil {
		runErr = recovered.AsError()
	}
	if runErr != nil {
		s.resetCalculating(ctx, organizationID, season)
		s.logger.ErrorContext(ctx, "leaderboard recalculation failed",
			"organization_id", organizationID,
			"season", season,
			"error", runErr,
		)
		result.Message = runErr.Error()
		return finish()
	}

	result.Success = true
	result.UsersUpdated = len(run.entries)
	result.TotalMatches = run.totalMatches
	result.FinishedMatches = run.finishedMatches
	result.LastGameTime = run.lastGameTime
	result.Message = "leaderboard recalculated"
	result = finish()

	s.logger.InfoContext(ctx, "leaderboard recalculated",
		"organization_id", organizationID,
		"season", season,
		"users", result.UsersUpdated,
		"finished_matches", result.FinishedMatches,
		"execution_ms", result.ExecutionTimeMs,
	)
	return result
}

// RecalculateAll runs one organization after another to keep lock and storage load flat.
func (s *LeaderboardService) RecalculateAll(ctx context.Context, season int, force bool) ([]RecalculationResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.RecalculateAll")
	defer span.End()

	if err := validateSeason(ctx, season); err != nil {
		return nil, err
	}

	organizations, err := s.organizationRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list organizations: %w", ErrDependencyUnavailable, err)
	}

	results := make([]RecalculationResult, 0, len(organizations))
	for _, item := range organizations {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("recalculate all interrupted: %w", err)
		}
		results = append(results, s.Recalculate(ctx, item.ID, season, force))
	}
	return results, nil
}

// GetLeaderboard reads the cache, falls back to an on-demand recalculation and finally to
// stored entries. Missing data yields an empty slice.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, organizationID string, season int) ([]leaderboard.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.GetLeaderboard", scopeAttributes(organizationID, season)...)
	defer span.End()

	if err := validateScope(ctx, organizationID, season); err != nil {
		return nil, err
	}

	if entries, ok := s.cache.Get(ctx, organizationID, season); ok {
		return entries, nil
	}

	result := s.Recalculate(ctx, organizationID, season, false)
	if entries, ok := s.cache.Get(ctx, organizationID, season); ok {
		return entries, nil
	}

	stored, err := s.leaderboardRepo.ListEntries(ctx, organizationID, season)
	if err != nil {
		s.logger.WarnContext(ctx, "read stored leaderboard failed",
			"organization_id", organizationID,
			"season", season,
			"recalculation_message", result.Message,
			"error", err,
		)
		return []leaderboard.Entry{}, nil
	}
	return leaderboard.Ranked(stored), nil
}

func (s *LeaderboardService) InvalidateLeaderboard(ctx context.Context, organizationID string, season int) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.InvalidateLeaderboard", scopeAttributes(organizationID, season)...)
	defer span.End()

	if err := validateScope(ctx, organizationID, season); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, organizationID, season); err != nil {
		return fmt.Errorf("invalidate leaderboard cache: %w", err)
	}

	s.logger.InfoContext(ctx, "leaderboard cache invalidated", "organization_id", organizationID, "season", season)
	return nil
}

type aggregation struct {
	entries         []leaderboard.Entry
	totalMatches    int
	finishedMatches int
	lastGameTime    *time.Time
}

// aggregate recomputes every entry from raw scores. Stored prediction points are not read.
func (s *LeaderboardService) aggregate(ctx context.Context, organizationID string, season int) (aggregation, error) {
	calculating := true
	if err := s.writeMeta(ctx, organizationID, season, leaderboard.MetaUpdate{IsCalculating: &calculating}); err != nil {
		return aggregation{}, err
	}

	fixtures, err := s.fixtureRepo.ListBySeason(ctx, season)
	if err != nil {
		return aggregation{}, fmt.Errorf("list fixtures for season %d: %w", season, err)
	}

	run := aggregation{totalMatches: len(fixtures)}
	fixtureByID := make(map[string]fixture.Fixture, len(fixtures))
	for _, item := range fixtures {
		fixtureByID[item.ID] = item
		if !item.HasResult() {
			continue
		}
		run.finishedMatches++
		if run.lastGameTime == nil || item.KickoffAt.After(*run.lastGameTime) {
			kickoff := item.KickoffAt.UTC()
			run.lastGameTime = &kickoff
		}
	}

	participants, err := s.predictionRepo.ListParticipants(ctx, organizationID, season)
	if err != nil {
		return aggregation{}, fmt.Errorf("list participants: %w", err)
	}
	predictions, err := s.predictionRepo.ListByOrganizationSeason(ctx, organizationID, season)
	if err != nil {
		return aggregation{}, fmt.Errorf("list predictions: %w", err)
	}

	now := s.now().UTC()
	byUser := make(map[string]*leaderboard.Entry, len(participants))
	order := make([]string, 0, len(participants))
	entryFor := func(userID string) *leaderboard.Entry {
		if entry, ok := byUser[userID]; ok {
			return entry
		}
		entry := &leaderboard.Entry{
			UserID:         userID,
			OrganizationID: organizationID,
			Season:         season,
			LastUpdated:    now,
		}
		byUser[userID] = entry
		order = append(order, userID)
		return entry
	}
	for _, participant := range participants {
		entryFor(participant.UserID).Username = participant.Username
	}

	for _, p := range predictions {
		entry := entryFor(p.UserID)
		entry.PredictedFixtures++

		item, ok := fixtureByID[p.FixtureID]
		if !ok {
			continue
		}
		home, away, ok := item.Result()
		if !ok {
			continue
		}

		outcome := scoring.Classify(p.PredictedHome, p.PredictedAway, home, away)
		entry.CompletedFixtures++
		entry.TotalPoints += scoring.PointsFor(outcome, item.EffectiveMultiplier())
		switch outcome {
		case scoring.OutcomeExact:
			entry.CorrectScorelines++
		case scoring.OutcomeCorrect:
			entry.CorrectOutcomes++
		}
	}

	entries := make([]leaderboard.Entry, 0, len(order))
	for _, userID := range order {
		entries = append(entries, *byUser[userID])
	}
	leaderboard.SortEntries(entries)
	leaderboard.AssignRanks(entries)

	if err := s.leaderboardRepo.ReplaceEntries(ctx, organizationID, season, entries); err != nil {
		return aggregation{}, fmt.Errorf("persist leaderboard entries: %w", err)
	}
	if err := s.cache.Set(ctx, organizationID, season, entries); err != nil {
		return aggregation{}, fmt.Errorf("cache leaderboard entries: %w", err)
	}

	calculating = false
	totalMatches := run.totalMatches
	finishedMatches := run.finishedMatches
	update := leaderboard.MetaUpdate{
		LastLeaderboardUpdate: &now,
		TotalMatches:          &totalMatches,
		FinishedMatches:       &finishedMatches,
		IsCalculating:         &calculating,
	}
	if run.lastGameTime != nil {
		update.LastGameTime = run.lastGameTime
	} else {
		// Clear a newer-game marker left by the ledger.
		update.LastGameTime = &time.Time{}
	}
	if err := s.writeMeta(ctx, organizationID, season, update); err != nil {
		return aggregation{}, err
	}

	run.entries = entries
	return run, nil
}

func (s *LeaderboardService) writeMeta(ctx context.Context, organizationID string, season int, update leaderboard.MetaUpdate) error {
	if _, err := s.cache.SetMeta(ctx, organizationID, season, update); err != nil {
		return fmt.Errorf("cache leaderboard meta: %w", err)
	}
	if _, err := s.leaderboardRepo.UpsertMeta(ctx, organizationID, season, update); err != nil {
		return fmt.Errorf("persist leaderboard meta: %w", err)
	}
	return nil
}

// resetCalculating is best effort. Secondary failures are only logged.
func (s *LeaderboardService) resetCalculating(ctx context.Context, organizationID string, season int) {
	calculating := false
	update := leaderboard.MetaUpdate{IsCalculating: &calculating}
	if _, err := s.cache.SetMeta(ctx, organizationID, season, update); err != nil {
		s.logger.WarnContext(ctx, "reset cached calculating flag failed", "organization_id", organizationID, "season", season, "error", err)
	}
	if _, err := s.leaderboardRepo.UpsertMeta(ctx, organizationID, season, update); err != nil {
		s.logger.WarnContext(ctx, "reset stored calculating flag failed", "organization_id", organizationID, "season", season, "error", err)
	}
}

func nonZeroTime(at *time.Time) *time.Time {
	if at == nil || at.IsZero() {
		return nil
	}
	return at
}
