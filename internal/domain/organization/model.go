package organization

import "time"

// Organization scopes leaderboards. Fixtures are shared across organizations.
type Organization struct {
	ID        string
	Name      string
	Slug      string
	CreatedAt time.Time
}
