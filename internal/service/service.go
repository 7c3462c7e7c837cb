package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/pcchou102/cwa-weather/internal/cwa"
	"github.com/pcchou102/cwa-weather/internal/store"
)

// Fetcher retrieves one forecast payload from the upstream API.
// *cwa.Client satisfies this; tests substitute fakes.
type Fetcher interface {
	Fetch(ctx context.Context) (*cwa.Payload, error)
}

// Service orchestrates fetch, normalize, persist, and freshness
// gating. It is the error boundary: upstream and storage failures are
// logged here and surface to callers as absent or empty results, never
// as errors. Persistence is optional; with a nil store the service is
// a pass-through to the upstream API.
type Service struct {
	fetcher Fetcher
	store   store.Store
	fresh   *Freshness
	logger  *slog.Logger
	ttl     time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the freshness clock. Tests use a fake clock to
// step time deterministically.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) {
		if s.store != nil {
			s.fresh = NewFreshness(s.store, c, s.logger)
		}
	}
}

// WithDefaultTTL sets the staleness tolerance used when a caller
// passes DefaultTTL.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

// DefaultTTL selects the service-configured staleness tolerance.
// NoCache forces a network fetch regardless of stored data.
const (
	DefaultTTL time.Duration = -1
	NoCache    time.Duration = 0
)

const defaultTTL = 10 * time.Minute

// NewService creates a Service. st may be nil to disable persistence.
func NewService(f Fetcher, st store.Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		fetcher: f,
		store:   st,
		logger:  logger,
		ttl:     defaultTTL,
	}
	if st != nil {
		s.fresh = NewFreshness(st, clockwork.NewRealClock(), logger)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Locations fetches the current payload and returns the sorted
// location names. Empty on any upstream failure.
func (s *Service) Locations(ctx context.Context) []string {
	p, err := s.fetcher.Fetch(ctx)
	if err != nil {
		s.logger.Error("fetching payload failed", "error", err)
		return nil
	}
	return cwa.Locations(p, s.logger)
}

// TemperatureInfo resolves the current record for one location. With
// persistence enabled and a fresh cached record within ttl, the stored
// record is returned without touching the network. Otherwise the
// payload is fetched, the location extracted, and the result upserted.
// Returns nil when the location cannot be resolved.
func (s *Service) TemperatureInfo(ctx context.Context, location string, ttl time.Duration) *store.Record {
	if ttl == DefaultTTL {
		ttl = s.ttl
	}

	if s.store != nil && ttl > 0 && s.fresh.IsFresh(ctx, location, ttl) {
		rec, err := s.store.GetLatest(ctx, location)
		if err == nil && rec != nil {
			s.logger.Debug("serving cached record", "location", location)
			return rec
		}
		// Fresh a moment ago but unreadable now; fall through to fetch.
		s.logger.Warn("cached record unavailable, refetching",
			"location", location, "error", err)
	}

	p, err := s.fetcher.Fetch(ctx)
	if err != nil {
		s.logger.Error("fetching payload failed", "location", location, "error", err)
		return nil
	}

	return s.resolve(ctx, p, location)
}

// resolve extracts one location from an already-fetched payload and
// persists it when a store is configured.
func (s *Service) resolve(ctx context.Context, p *cwa.Payload, location string) *store.Record {
	f, ok := cwa.Extract(p, location)
	if !ok {
		s.logger.Warn("location not in payload", "location", location)
		return nil
	}

	rec := &store.Record{
		Location: f.Location,
		Date:     f.Date,
		MaxTemp:  f.MaxTemp,
		MinTemp:  f.MinTemp,
		Weather:  f.Weather,
	}

	if s.store != nil {
		if err := s.store.Upsert(ctx, rec); err != nil {
			// The freshly normalized view is still good; the caller
			// gets it even though this write was lost.
			s.logger.Error("upserting record failed", "location", location, "error", err)
		}
	}
	return rec
}

// CrawlResult reports the outcome of a batch crawl.
type CrawlResult struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// CrawlAll fetches the payload once and resolves every location in it
// sequentially. A per-location failure is counted and the batch
// continues.
func (s *Service) CrawlAll(ctx context.Context) CrawlResult {
	var result CrawlResult

	p, err := s.fetcher.Fetch(ctx)
	if err != nil {
		s.logger.Error("fetching payload failed", "error", err)
		return result
	}

	names := cwa.Locations(p, s.logger)
	for i, name := range names {
		if ctx.Err() != nil {
			s.logger.Warn("crawl cancelled", "completed", i, "total", len(names))
			result.Failed += len(names) - i
			break
		}
		rec := s.resolve(ctx, p, name)
		if rec == nil {
			result.Failed++
			continue
		}
		result.Succeeded++
		s.logger.Info("crawled location",
			"location", name,
			"date", rec.Date,
			"progress", i+1,
			"total", len(names),
		)
	}
	return result
}

// AllLatest returns every location's newest stored record, ordered by
// location name. Empty when persistence is disabled or the read fails.
func (s *Service) AllLatest(ctx context.Context) []store.Record {
	if s.store == nil {
		return nil
	}
	recs, err := s.store.GetAllLatest(ctx)
	if err != nil {
		s.logger.Error("reading latest records failed", "error", err)
		return nil
	}
	return recs
}

// Statistics returns store metrics, or nil when persistence is
// disabled or the read fails.
func (s *Service) Statistics(ctx context.Context) *store.Statistics {
	if s.store == nil {
		return nil
	}
	stats, err := s.store.GetStatistics(ctx)
	if err != nil {
		s.logger.Error("reading store statistics failed", "error", err)
		return nil
	}
	return stats
}
