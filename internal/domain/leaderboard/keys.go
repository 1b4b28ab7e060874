package leaderboard

import "fmt"

func EntriesKey(organizationID string, season int) string {
	return fmt.Sprintf("leaderboard:%s:%d", organizationID, season)
}

func MetaKey(organizationID string, season int) string {
	return fmt.Sprintf("leaderboard:meta:%s:%d", organizationID, season)
}

func LockKey(organizationID string, season int) string {
	return fmt.Sprintf("leaderboard:lock:%s:%d", organizationID, season)
}
