package postgres

import (
	"context"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	qb "github.com/mitchell28/masterleague/internal/platform/querybuilder"
)

// CacheTier is the shared cache tier backed by the cache_entries table. Expired rows are
// invisible to reads and may be overwritten by SetIfAbsent.
type CacheTier struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewCacheTier(db *sqlx.DB) *CacheTier {
	return &CacheTier{db: db, now: time.Now}
}

func (t *CacheTier) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query, args, err := qb.Select("*").From("cache_entries").
		Where(
			qb.Eq("key", key),
			qb.Expr("(expires_at IS NULL OR expires_at > ?)", t.now().UTC()),
		).
		ToSQL()
	if err != nil {
		return nil, false, crerr.Wrap(err, "build get cache entry query")
	}

	var row cacheEntryTableModel
	if err := t.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, crerr.Wrapf(err, "get cache entry %s", key)
	}
	return row.Value, true, nil
}

func (t *CacheTier) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	query, args, err := qb.InsertModel("cache_entries", t.row(key, value, ttl), `ON CONFLICT (key)
DO UPDATE SET
    value = EXCLUDED.value,
    expires_at = EXCLUDED.expires_at,
    updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return crerr.Wrap(err, "build set cache entry query")
	}
	if _, err := t.db.ExecContext(ctx, query, args...); err != nil {
		return crerr.Wrapf(err, "set cache entry %s", key)
	}
	return nil
}

func (t *CacheTier) SetIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	query, args, err := qb.InsertModel("cache_entries", t.row(key, value, ttl), `ON CONFLICT (key)
DO UPDATE SET
    value = EXCLUDED.value,
    expires_at = EXCLUDED.expires_at,
    updated_at = EXCLUDED.updated_at
WHERE cache_entries.expires_at IS NOT NULL AND cache_entries.expires_at <= EXCLUDED.updated_at`)
	if err != nil {
		return false, crerr.Wrap(err, "build set-if-absent cache entry query")
	}

	res, err := t.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, crerr.Wrapf(err, "set-if-absent cache entry %s", key)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, crerr.Wrapf(err, "read affected rows for cache entry %s", key)
	}
	return affected == 1, nil
}

func (t *CacheTier) Delete(ctx context.Context, key string) error {
	query, args, err := qb.DeleteFrom("cache_entries").Where(qb.Eq("key", key)).ToSQL()
	if err != nil {
		return crerr.Wrap(err, "build delete cache entry query")
	}
	if _, err := t.db.ExecContext(ctx, query, args...); err != nil {
		return crerr.Wrapf(err, "delete cache entry %s", key)
	}
	return nil
}

func (t *CacheTier) DeleteIfValue(ctx context.Context, key string, value []byte) (bool, error) {
	query, args, err := qb.DeleteFrom("cache_entries").
		Where(
			qb.Eq("key", key),
			qb.Eq("value", value),
			qb.Expr("(expires_at IS NULL OR expires_at > ?)", t.now().UTC()),
		).
		ToSQL()
	if err != nil {
		return false, crerr.Wrap(err, "build delete-if-value cache entry query")
	}
	res, err := t.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, crerr.Wrapf(err, "delete-if-value cache entry %s", key)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, crerr.Wrapf(err, "read affected rows for cache entry %s", key)
	}
	return affected == 1, nil
}

// PurgeExpired removes rows whose expiry has passed.
func (t *CacheTier) PurgeExpired(ctx context.Context) (int64, error) {
	query, args, err := qb.DeleteFrom("cache_entries").
		Where(qb.Expr("expires_at IS NOT NULL AND expires_at <= ?", t.now().UTC())).
		ToSQL()
	if err != nil {
		return 0, crerr.Wrap(err, "build purge cache entries query")
	}
	res, err := t.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, crerr.Wrap(err, "purge expired cache entries")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, crerr.Wrap(err, "read purged cache entries")
	}
	return affected, nil
}

func (t *CacheTier) row(key string, value []byte, ttl time.Duration) cacheEntryTableModel {
	now := t.now().UTC()
	row := cacheEntryTableModel{Key: key, Value: value, UpdatedAt: now}
	if ttl > 0 {
		expiresAt := now.Add(ttl)
		row.ExpiresAt = &expiresAt
	}
	return row
}
