package usecase

import "time"

// ProcessResult summarizes one ScoreFixture run.
type ProcessResult struct {
	FixtureID       string   `json:"fixture_id"`
	ProcessedCount  int      `json:"processed_count"`
	// PointsAllocated is negative when a fixture's scoring is voided.
	PointsAllocated int      `json:"points_allocated"`
	UsersAffected   int      `json:"users_affected"`
	Organizations   []string `json:"organizations"`
	Errors          []string `json:"errors,omitempty"`
}

type RepairInput struct {
	LookbackDays int `validate:"gte=1,lte=365"`
}

type RepairReport struct {
	FixturesChecked  int      `json:"fixtures_checked"`
	PredictionsFixed int      `json:"predictions_fixed"`
	PointsAwarded    int      `json:"points_awarded"`
	Errors           []string `json:"errors,omitempty"`
}

// RecalculationResult is the outcome of one aggregation attempt. Failures are reported
// through Success and Message.
type RecalculationResult struct {
	OrganizationID  string     `json:"organization_id"`
	Season          int        `json:"season"`
	Success         bool       `json:"success"`
	UsersUpdated    int        `json:"users_updated"`
	TotalMatches    int        `json:"total_matches"`
	FinishedMatches int        `json:"finished_matches"`
	LastGameTime    *time.Time `json:"last_game_time,omitempty"`
	ExecutionTimeMs int64      `json:"execution_time_ms"`
	FromCache       bool       `json:"from_cache"`
	// InProgress marks a run skipped because another holder owns the lock.
	InProgress      bool       `json:"in_progress,omitempty"`
	Message         string     `json:"message,omitempty"`
}

type IntegrityInput struct {
	Season    int `validate:"gte=1900,lte=2200"`
	AutoFix   bool
	Threshold int `validate:"gte=0"`
}

const (
	MismatchKindTotal   = "mismatch"
	MismatchKindGhost   = "ghost"
	MismatchKindMissing = "missing"
)

// Mismatch compares the ledger sum (Expected) with the stored entry total (Actual).
type Mismatch struct {
	OrganizationID string `json:"organization_id"`
	UserID         string `json:"user_id"`
	Expected       int    `json:"expected"`
	Actual         int    `json:"actual"`
	Difference     int    `json:"difference"`
	Kind           string `json:"kind"`
}

type IntegrityReport struct {
	Season               int        `json:"season"`
	OrganizationsChecked int        `json:"organizations_checked"`
	Mismatches           []Mismatch `json:"mismatches"`
	FixedCount           int        `json:"fixed_count"`
	Errors               []string   `json:"errors,omitempty"`
}

type FixtureResultInput struct {
	FixtureID string `validate:"required"`
	HomeScore *int   `validate:"omitempty,gte=0,lte=99"`
	AwayScore *int   `validate:"omitempty,gte=0,lte=99"`
	Status    string `validate:"required"`
}

type IngestionResult struct {
	FixtureID      string                `json:"fixture_id"`
	Status         string                `json:"status"`
	Scoring        *ProcessResult        `json:"scoring,omitempty"`
	Recalculations []RecalculationResult `json:"recalculations,omitempty"`
}
