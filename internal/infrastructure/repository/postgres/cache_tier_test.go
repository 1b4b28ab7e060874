package postgres

import (
	"testing"
	"time"
)

func TestCacheTierRow(t *testing.T) {
	now := time.Date(2025, 5, 4, 12, 0, 0, 0, time.UTC)
	tier := &CacheTier{now: func() time.Time { return now }}

	row := tier.row("leaderboard:org-1:2025", []byte("[]"), 6*time.Hour)
	if row.ExpiresAt == nil || !row.ExpiresAt.Equal(now.Add(6*time.Hour)) {
		t.Fatalf("unexpected expiry: %v", row.ExpiresAt)
	}
	if !row.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected updated_at: got=%v want=%v", row.UpdatedAt, now)
	}

	if persistent := tier.row("k", nil, 0); persistent.ExpiresAt != nil {
		t.Fatalf("zero ttl must not expire, got=%v", persistent.ExpiresAt)
	}
}
