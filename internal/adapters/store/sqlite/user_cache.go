package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"taskledger/internal/ports"
)

// UserCache stores directory lookups locally so history reads do not hammer
// the directory service. It is a cache of another system's data, never the
// system of record; entries are refreshed on write and expire by age.
type UserCache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

func NewUserCache(db *sql.DB, ttl time.Duration, now func() time.Time) *UserCache {
	if now == nil {
		now = time.Now
	}
	return &UserCache{db: db, ttl: ttl, now: now}
}

// Get returns the cached user, or (nil, nil) when absent or expired.
func (c *UserCache) Get(ctx context.Context, userID string) (*ports.User, error) {
	var (
		u        ports.User
		cachedAt string
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT id, first_name, last_name, cached_at FROM users WHERE id=?`, userID).
		Scan(&u.ID, &u.FirstName, &u.LastName, &cachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	at, err := parseTime(cachedAt)
	if err != nil {
		return nil, fmt.Errorf("user %s cached_at: %w", userID, err)
	}
	if c.ttl > 0 && c.now().Sub(at) > c.ttl {
		return nil, nil
	}
	return &u, nil
}

// Put upserts the cached copy of a directory user.
func (c *UserCache) Put(ctx context.Context, u ports.User) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO users(id, first_name, last_name, cached_at) VALUES (?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET first_name=excluded.first_name, last_name=excluded.last_name, cached_at=excluded.cached_at`,
		u.ID, u.FirstName, u.LastName, formatTime(c.now()))
	return err
}
