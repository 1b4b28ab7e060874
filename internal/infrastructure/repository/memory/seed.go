package memory

import (
	"time"

	"github.com/mitchell28/masterleague/internal/domain/fixture"
	"github.com/mitchell28/masterleague/internal/domain/organization"
	"github.com/mitchell28/masterleague/internal/domain/prediction"
)

const (
	SeedSeason = 2025

	OrganizationIDOffice  = "org-office-league"
	OrganizationIDFriends = "org-sunday-friends"
)

func SeedOrganizations() []organization.Organization {
	createdAt := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	return []organization.Organization{
		{ID: OrganizationIDOffice, Name: "Office League", Slug: "office-league", CreatedAt: createdAt},
		{ID: OrganizationIDFriends, Name: "Sunday Friends", Slug: "sunday-friends", CreatedAt: createdAt},
	}
}

func SeedUsernames() map[string]string {
	return map[string]string{
		"user-ann":  "Ann",
		"user-bob":  "Bob",
		"user-zed":  "Zed",
		"user-mia":  "mia",
		"user-omar": "Omar",
	}
}

func SeedFixtures() []fixture.Fixture {
	return []fixture.Fixture{
		seedFixture("fx-2025-001", 1, "eng-ars", "Arsenal", "eng-liv", "Liverpool", time.Date(2025, 8, 16, 11, 30, 0, 0, time.UTC), fixture.StatusFinished, intPtr(2), intPtr(1), 1),
		seedFixture("fx-2025-002", 1, "eng-mci", "Manchester City", "eng-che", "Chelsea", time.Date(2025, 8, 16, 14, 0, 0, 0, time.UTC), fixture.StatusFinished, intPtr(1), intPtr(1), 1),
		seedFixture("fx-2025-003", 2, "eng-liv", "Liverpool", "eng-mci", "Manchester City", time.Date(2025, 8, 23, 16, 30, 0, 0, time.UTC), fixture.StatusFinished, intPtr(0), intPtr(2), 2),
		seedFixture("fx-2025-004", 2, "eng-che", "Chelsea", "eng-ars", "Arsenal", time.Date(2025, 8, 24, 15, 30, 0, 0, time.UTC), fixture.StatusPostponed, nil, nil, 1),
		seedFixture("fx-2025-005", 3, "eng-ars", "Arsenal", "eng-mci", "Manchester City", time.Date(2025, 8, 30, 11, 30, 0, 0, time.UTC), fixture.StatusScheduled, nil, nil, 1),
	}
}

func SeedPredictions() []prediction.Prediction {
	createdAt := time.Date(2025, 8, 15, 20, 0, 0, 0, time.UTC)
	rows := []struct {
		id, userID, fixtureID, orgID string
		home, away                   int
	}{
		{"pr-001", "user-ann", "fx-2025-001", OrganizationIDOffice, 2, 1},
		{"pr-002", "user-bob", "fx-2025-001", OrganizationIDOffice, 1, 0},
		{"pr-003", "user-zed", "fx-2025-001", OrganizationIDOffice, 0, 2},
		{"pr-004", "user-ann", "fx-2025-002", OrganizationIDOffice, 2, 2},
		{"pr-005", "user-bob", "fx-2025-002", OrganizationIDOffice, 1, 1},
		{"pr-006", "user-ann", "fx-2025-003", OrganizationIDOffice, 1, 2},
		{"pr-007", "user-zed", "fx-2025-003", OrganizationIDOffice, 0, 2},
		{"pr-008", "user-bob", "fx-2025-005", OrganizationIDOffice, 3, 1},
		{"pr-009", "user-mia", "fx-2025-001", OrganizationIDFriends, 3, 1},
		{"pr-010", "user-omar", "fx-2025-001", OrganizationIDFriends, 2, 1},
		{"pr-011", "user-mia", "fx-2025-003", OrganizationIDFriends, 1, 1},
		{"pr-012", "user-ann", "fx-2025-003", OrganizationIDFriends, 0, 2},
	}

	out := make([]prediction.Prediction, 0, len(rows))
	for _, row := range rows {
		out = append(out, prediction.Prediction{
			ID:             row.id,
			UserID:         row.userID,
			FixtureID:      row.fixtureID,
			OrganizationID: row.orgID,
			PredictedHome:  row.home,
			PredictedAway:  row.away,
			CreatedAt:      createdAt,
			UpdatedAt:      createdAt,
		})
	}
	return out
}

func seedFixture(id string, week int, homeID, home, awayID, away string, kickoff time.Time, status string, homeScore, awayScore *int, multiplier int) fixture.Fixture {
	return fixture.Fixture{
		ID:         id,
		Season:     SeedSeason,
		Week:       week,
		HomeTeamID: homeID,
		AwayTeamID: awayID,
		HomeTeam:   home,
		AwayTeam:   away,
		KickoffAt:  kickoff,
		Status:     status,
		HomeScore:  homeScore,
		AwayScore:  awayScore,
		Multiplier: multiplier,
		UpdatedAt:  kickoff.Add(2 * time.Hour),
	}
}

func intPtr(v int) *int {
	return &v
}
