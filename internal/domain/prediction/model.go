package prediction

import "time"

// Prediction is one user's scoreline guess for a fixture inside an organization.
type Prediction struct {
	ID             string
	UserID         string
	FixtureID      string
	OrganizationID string
	PredictedHome  int
	PredictedAway  int
	// Points stays nil until the fixture is finished and scored.
	Points    *int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p Prediction) IsScored() bool {
	return p.Points != nil
}

// StoredPoints returns the persisted points, treating unscored as zero.
func (p Prediction) StoredPoints() int {
	if p.Points == nil {
		return 0
	}
	return *p.Points
}

// Participant is a user holding at least one prediction in an organization season.
type Participant struct {
	UserID   string
	Username string
}
