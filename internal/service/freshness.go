package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/pcchou102/cwa-weather/internal/store"
)

// Freshness decides whether a stored record is still valid within a
// caller-supplied TTL, so the orchestrator can skip a network fetch.
type Freshness struct {
	store  store.Store
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewFreshness creates a freshness gate over the given store.
func NewFreshness(s store.Store, clock clockwork.Clock, logger *slog.Logger) *Freshness {
	return &Freshness{store: s, clock: clock, logger: logger}
}

// IsFresh reports whether the latest record for location is younger
// than ttl. A missing record, a store error, or an unusable stored
// timestamp all report false: the fail-safe direction is re-fetching.
// The boundary is strict, so a record exactly ttl old is stale.
func (f *Freshness) IsFresh(ctx context.Context, location string, ttl time.Duration) bool {
	rec, err := f.store.GetLatest(ctx, location)
	if err != nil {
		f.logger.Warn("freshness check failed, treating as stale",
			"location", location, "error", err)
		return false
	}
	if rec == nil || rec.UpdatedAt.IsZero() {
		return false
	}
	return f.clock.Now().UTC().Sub(rec.UpdatedAt) < ttl
}
