package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/mitchell28/masterleague/internal/domain/leaderboard"
	"github.com/mitchell28/masterleague/internal/domain/organization"
	"github.com/mitchell28/masterleague/internal/domain/prediction"
	"github.com/mitchell28/masterleague/internal/platform/logging"
)

const defaultIntegrityWorkers = 4

// LeaderboardRecalculator is the slice of LeaderboardService used by repair flows.
type LeaderboardRecalculator interface {
	Recalculate(ctx context.Context, organizationID string, season int, force bool) RecalculationResult
}

// IntegrityService compares ledger point sums with stored leaderboard totals and can force
// a rebuild of drifted organizations.
type IntegrityService struct {
	organizationRepo organization.Repository
	predictionRepo   prediction.Repository
	leaderboardRepo  leaderboard.Repository
	recalculator     LeaderboardRecalculator
	workers          int
	logger           *logging.Logger
}

func NewIntegrityService(
	organizationRepo organization.Repository,
	predictionRepo prediction.Repository,
	leaderboardRepo leaderboard.Repository,
	recalculator LeaderboardRecalculator,
	workers int,
	logger *logging.Logger,
) *IntegrityService {
	if workers < 1 {
		workers = defaultIntegrityWorkers
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &IntegrityService{
		organizationRepo: organizationRepo,
		predictionRepo:   predictionRepo,
		leaderboardRepo:  leaderboardRepo,
		recalculator:     recalculator,
		workers:          workers,
		logger:           logger,
	}
}

type organizationScan struct {
	organizationID string
	mismatches     []Mismatch
	err            error
}

func (s *IntegrityService) CheckIntegrity(ctx context.Context, input IntegrityInput) (IntegrityReport, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.IntegrityService.CheckIntegrity")
	defer span.End()

	if err := validateInput(ctx, input); err != nil {
		return IntegrityReport{}, err
	}

	organizations, err := s.organizationRepo.List(ctx)
	if err != nil {
		return IntegrityReport{}, fmt.Errorf("%w: list organizations: %w", ErrDependencyUnavailable, err)
	}

	report := IntegrityReport{Season: input.Season, Mismatches: []Mismatch{}}
	if len(organizations) == 0 {
		return report, nil
	}

	pool, err := ants.NewPool(min(s.workers, len(organizations)))
	if err != nil {
		return IntegrityReport{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	scans := make(chan organizationScan, len(organizations))
	var workers sync.WaitGroup
	for _, item := range organizations {
		organizationID := item.ID
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			mismatches, scanErr := s.scanOrganization(ctx, organizationID, input.Season, input.Threshold)
			scans <- organizationScan{organizationID: organizationID, mismatches: mismatches, err: scanErr}
		}); err != nil {
			workers.Done()
			workers.Wait()
			return IntegrityReport{}, fmt.Errorf("submit integrity scan to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(scans)

	drifted := make(map[string]struct{})
	for scan := range scans {
		report.OrganizationsChecked++
		if scan.err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("organization=%s: %v", scan.organizationID, scan.err))
			continue
		}
		if len(scan.mismatches) > 0 {
			drifted[scan.organizationID] = struct{}{}
			report.Mismatches = append(report.Mismatches, scan.mismatches...)
		}
	}
	sort.Strings(report.Errors)
	sort.Slice(report.Mismatches, func(i, j int) bool {
		if report.Mismatches[i].OrganizationID != report.Mismatches[j].OrganizationID {
			return report.Mismatches[i].OrganizationID < report.Mismatches[j].OrganizationID
		}
		return report.Mismatches[i].UserID < report.Mismatches[j].UserID
	})

	if input.AutoFix {
		for _, organizationID := range sortedKeys(drifted) {
			result := s.recalculator.Recalculate(ctx, organizationID, input.Season, true)
			if result.Success {
				report.FixedCount++
				continue
			}
			report.Errors = append(report.Errors, fmt.Sprintf("recalculate organization=%s: %s", organizationID, result.Message))
		}
	}

	s.logger.InfoContext(ctx, "leaderboard integrity check completed",
		"season", input.Season,
		"organizations", report.OrganizationsChecked,
		"mismatches", len(report.Mismatches),
		"fixed", report.FixedCount,
		"errors", len(report.Errors),
	)
	return report, nil
}

// scanOrganization is read-only.
func (s *IntegrityService) scanOrganization(ctx context.Context, organizationID string, season, threshold int) ([]Mismatch, error) {
	expected, err := s.predictionRepo.SumPointsByUser(ctx, organizationID, season)
	if err != nil {
		return nil, fmt.Errorf("sum prediction points: %w", err)
	}
	entries, err := s.leaderboardRepo.ListEntries(ctx, organizationID, season)
	if err != nil {
		return nil, fmt.Errorf("list leaderboard entries: %w", err)
	}

	var mismatches []Mismatch
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		seen[entry.UserID] = struct{}{}

		want, ok := expected[entry.UserID]
		if !ok {
			if entry.TotalPoints != 0 {
				mismatches = append(mismatches, newMismatch(organizationID, entry.UserID, 0, entry.TotalPoints, MismatchKindGhost))
			}
			continue
		}
		if abs(entry.TotalPoints-want) > threshold {
			mismatches = append(mismatches, newMismatch(organizationID, entry.UserID, want, entry.TotalPoints, MismatchKindTotal))
		}
	}

	for userID, want := range expected {
		if _, ok := seen[userID]; ok {
			continue
		}
		if abs(want) > threshold {
			mismatches = append(mismatches, newMismatch(organizationID, userID, want, 0, MismatchKindMissing))
		}
	}
	return mismatches, nil
}

func newMismatch(organizationID, userID string, expected, actual int, kind string) Mismatch {
	return Mismatch{
		OrganizationID: organizationID,
		UserID:         userID,
		Expected:       expected,
		Actual:         actual,
		Difference:     actual - expected,
		Kind:           kind,
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
