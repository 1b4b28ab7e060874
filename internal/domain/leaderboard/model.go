package leaderboard

import "time"

// Entry is one user's aggregated standing in an organization season.
type Entry struct {
	UserID            string    `json:"user_id"`
	Username          string    `json:"username"`
	OrganizationID    string    `json:"organization_id"`
	Season            int       `json:"season"`
	TotalPoints       int       `json:"total_points"`
	CorrectScorelines int       `json:"correct_scorelines"`
	CorrectOutcomes   int       `json:"correct_outcomes"`
	PredictedFixtures int       `json:"predicted_fixtures"`
	CompletedFixtures int       `json:"completed_fixtures"`
	Rank              int       `json:"rank"`
	LastUpdated       time.Time `json:"last_updated"`
}

// Consistent checks the per-entry counting invariants.
func (e Entry) Consistent() bool {
	return e.CorrectScorelines >= 0 &&
		e.CorrectOutcomes >= 0 &&
		e.CorrectScorelines+e.CorrectOutcomes <= e.CompletedFixtures &&
		e.CompletedFixtures <= e.PredictedFixtures
}

// Apply returns the entry with the delta added. PredictedFixtures is owned by aggregation
// and only grows here when completed fixtures would otherwise exceed it.
func (e Entry) Apply(delta Delta) Entry {
	e.TotalPoints += delta.Points
	e.CorrectScorelines += delta.CorrectScorelines
	e.CorrectOutcomes += delta.CorrectOutcomes
	e.CompletedFixtures += delta.CompletedFixtures
	e.PredictedFixtures = max(e.PredictedFixtures, e.CompletedFixtures)
	return e
}

// Delta is an additive change produced by incremental scoring.
type Delta struct {
	Points            int
	CorrectScorelines int
	CorrectOutcomes   int
	CompletedFixtures int
}

func (d Delta) IsZero() bool {
	return d == Delta{}
}

func (d Delta) Add(other Delta) Delta {
	return Delta{
		Points:            d.Points + other.Points,
		CorrectScorelines: d.CorrectScorelines + other.CorrectScorelines,
		CorrectOutcomes:   d.CorrectOutcomes + other.CorrectOutcomes,
		CompletedFixtures: d.CompletedFixtures + other.CompletedFixtures,
	}
}

// Meta tracks aggregation bookkeeping for one organization season.
type Meta struct {
	OrganizationID        string     `json:"organization_id"`
	Season                int        `json:"season"`
	LastLeaderboardUpdate *time.Time `json:"last_leaderboard_update,omitempty"`
	LastGameTime          *time.Time `json:"last_game_time,omitempty"`
	TotalMatches          int        `json:"total_matches"`
	FinishedMatches       int        `json:"finished_matches"`
	IsCalculating         bool       `json:"is_calculating"`
}

// MetaUpdate is a partial meta write. Nil fields keep their current value.
type MetaUpdate struct {
	LastLeaderboardUpdate *time.Time
	LastGameTime          *time.Time
	TotalMatches          *int
	FinishedMatches       *int
	IsCalculating         *bool
}

// Merge applies the set fields of update over m.
func (m Meta) Merge(update MetaUpdate) Meta {
	if update.LastLeaderboardUpdate != nil {
		at := *update.LastLeaderboardUpdate
		m.LastLeaderboardUpdate = &at
	}
	if update.LastGameTime != nil {
		at := *update.LastGameTime
		m.LastGameTime = &at
	}
	if update.TotalMatches != nil {
		m.TotalMatches = *update.TotalMatches
	}
	if update.FinishedMatches != nil {
		m.FinishedMatches = *update.FinishedMatches
	}
	if update.IsCalculating != nil {
		m.IsCalculating = *update.IsCalculating
	}
	return m
}

// Lease is a held recalculation lock.
type Lease struct {
	Key        string        `json:"key"`
	Token      string        `json:"acquired_by"`
	AcquiredAt time.Time     `json:"acquired_at"`
	TTL        time.Duration `json:"ttl"`
}

func (l Lease) ExpiresAt() time.Time {
	return l.AcquiredAt.Add(l.TTL)
}
