package postgres

import "time"

type cacheEntryTableModel struct {
	Key       string     `db:"key"`
	Value     []byte     `db:"value"`
	ExpiresAt *time.Time `db:"expires_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}
