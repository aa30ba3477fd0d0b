package directory

import (
	"context"
	"log/slog"

	"taskledger/internal/adapters/store/sqlite"
	"taskledger/internal/ports"
)

// Compile-time check that CachedDirectory implements ports.UserDirectory.
var _ ports.UserDirectory = (*CachedDirectory)(nil)

// CachedDirectory wraps a directory with the local SQLite user cache. Cache
// maintenance never happens inside a mutation transaction and cache failures
// never fail the lookup; the directory remains authoritative.
type CachedDirectory struct {
	inner  ports.UserDirectory
	cache  *sqlite.UserCache
	logger *slog.Logger
}

func NewCachedDirectory(inner ports.UserDirectory, cache *sqlite.UserCache, logger *slog.Logger) *CachedDirectory {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CachedDirectory{inner: inner, cache: cache, logger: logger}
}

func (d *CachedDirectory) FindByID(ctx context.Context, userID string) (*ports.User, error) {
	cached, err := d.cache.Get(ctx, userID)
	if err != nil {
		d.logger.WarnContext(ctx, "user cache read failed",
			slog.String("operation", "CachedDirectory.FindByID"),
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	} else if cached != nil {
		return cached, nil
	}

	u, err := d.inner.FindByID(ctx, userID)
	if err != nil || u == nil {
		return u, err
	}

	if err := d.cache.Put(ctx, *u); err != nil {
		d.logger.WarnContext(ctx, "user cache write failed",
			slog.String("operation", "CachedDirectory.FindByID"),
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	}
	return u, nil
}

func (d *CachedDirectory) Exists(ctx context.Context, userID string) (bool, error) {
	u, err := d.FindByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return u != nil, nil
}
