package fixture

import (
	"strings"
	"time"
)

const (
	StatusScheduled = "SCHEDULED"
	StatusInPlay    = "IN_PLAY"
	StatusPaused    = "PAUSED"
	StatusFinished  = "FINISHED"
	StatusPostponed = "POSTPONED"
	StatusCancelled = "CANCELLED"
	StatusSuspended = "SUSPENDED"
	StatusAwarded   = "AWARDED"
)

// Fixture is one match. Fixtures are global and shared by every organization.
type Fixture struct {
	ID         string
	Season     int
	Week       int
	HomeTeamID string
	AwayTeamID string
	HomeTeam   string
	AwayTeam   string
	KickoffAt  time.Time
	Status     string
	HomeScore  *int
	AwayScore  *int
	Multiplier int
	UpdatedAt  time.Time
}

// EffectiveMultiplier never returns less than 1.
func (f Fixture) EffectiveMultiplier() int {
	if f.Multiplier < 1 {
		return 1
	}
	return f.Multiplier
}

// Result returns the final score when the fixture is finished and both scores are present.
func (f Fixture) Result() (home, away int, ok bool) {
	if !HasResultStatus(f.Status) || f.HomeScore == nil || f.AwayScore == nil {
		return 0, 0, false
	}
	return *f.HomeScore, *f.AwayScore, true
}

func (f Fixture) HasResult() bool {
	_, _, ok := f.Result()
	return ok
}

func NormalizeStatus(value string) string {
	status := strings.ToUpper(strings.TrimSpace(value))
	switch status {
	case "":
		return StatusScheduled
	case "TIMED":
		return StatusScheduled
	case "LIVE", "1H", "2H", "ET", "IN-PLAY", "INPLAY":
		return StatusInPlay
	case "HT", "BREAK":
		return StatusPaused
	case "FT", "AET", "PEN":
		return StatusFinished
	case "CANCELED", "ABANDONED":
		return StatusCancelled
	}
	return status
}

// IsLiveStatus reports whether the match is underway and may carry a running score.
func IsLiveStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusInPlay, StatusPaused:
		return true
	default:
		return false
	}
}

// HasResultStatus reports whether the status is terminal and carries a final score.
func HasResultStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusFinished, StatusAwarded:
		return true
	default:
		return false
	}
}

// IsCancelledLikeStatus reports whether the match will not produce a result as scheduled.
func IsCancelledLikeStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusCancelled, StatusPostponed, StatusSuspended:
		return true
	default:
		return false
	}
}

func IsKnownStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusScheduled, StatusInPlay, StatusPaused, StatusFinished,
		StatusPostponed, StatusCancelled, StatusSuspended, StatusAwarded:
		return true
	default:
		return false
	}
}
