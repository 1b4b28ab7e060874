package postgres

import "time"

type organizationTableModel struct {
	ID        int64      `db:"id"`
	PublicID  string     `db:"public_id"`
	Name      string     `db:"name"`
	Slug      string     `db:"slug"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}
