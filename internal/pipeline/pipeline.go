// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the fetch, cache and normalize stages and returns an
// immutable Snapshot for the presentation layer. Loading never fails: fetch
// errors and skipped records travel inside the snapshot so every caller can
// render best-effort output.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/pubdash/internal/cache"
	"github.com/pdiddy/pubdash/internal/normalize"
	"github.com/pdiddy/pubdash/internal/observability"
	"github.com/pdiddy/pubdash/internal/openalex"
	"github.com/pdiddy/pubdash/internal/table"
	"github.com/pdiddy/pubdash/pkg/types"
)

// Fetcher retrieves raw works. *openalex.Fetcher implements it.
type Fetcher interface {
	Fetch(ctx context.Context, q openalex.Query, mode types.FetchMode) openalex.FetchResult
}

// Request holds the fetch parameters for one load.
type Request struct {
	InstitutionID string
	FromDate      string
	Mode          types.FetchMode
}

// RequestFromConfig builds a Request from the fetch configuration.
func RequestFromConfig(cfg types.FetchConfig) Request {
	return Request{
		InstitutionID: strings.TrimSpace(cfg.InstitutionID),
		FromDate:      cfg.FromDate,
		Mode:          cfg.Mode,
	}
}

// Snapshot is the result of one load. It is not modified after Load returns.
type Snapshot struct {
	ID        string
	Key       cache.Key
	Table     *table.Table
	Skips     []normalize.Skip
	FetchErr  error
	Fetched   int
	Requests  int
	LoadedAt  time.Time
	CacheInfo cache.Status
}

// Failed reports whether the fetch stopped early.
func (s *Snapshot) Failed() bool { return s.FetchErr != nil }

// Loader wires the stages together.
type Loader struct {
	fetcher Fetcher
	memo    *cache.Memo
	metrics *observability.Metrics
	logger  zerolog.Logger
	now     func() time.Time
}

// NewLoader returns a Loader. memo may be nil to disable caching.
func NewLoader(f Fetcher, memo *cache.Memo, metrics *observability.Metrics, logger zerolog.Logger) *Loader {
	return &Loader{
		fetcher: f,
		memo:    memo,
		metrics: metrics,
		logger:  observability.Component(logger, "pipeline"),
		now:     time.Now,
	}
}

// Load fetches (or recalls) the works for req and normalizes them.
func (l *Loader) Load(ctx context.Context, req Request) *Snapshot {
	key := cache.Key{InstitutionID: req.InstitutionID, FromDate: req.FromDate, Mode: req.Mode}
	snap := &Snapshot{
		ID:       uuid.NewString(),
		Key:      key,
		Table:    table.New(nil),
		LoadedAt: l.now(),
	}
	log := l.logger.With().Str("snapshot", snap.ID).Str("institution", req.InstitutionID).Logger()

	from, err := openalex.ParseFromDate(req.FromDate)
	if err != nil {
		snap.FetchErr = err
		log.Error().Err(err).Msg("invalid fetch parameters")
		return snap
	}
	q := openalex.Query{InstitutionID: req.InstitutionID, FromDate: from}

	entry, status, err := l.memo.Do(ctx, key, func(ctx context.Context) (cache.Entry, error) {
		res := l.fetcher.Fetch(ctx, q, req.Mode)
		return cache.Entry{Works: res.Works, Requests: res.Requests}, res.Err
	})
	snap.CacheInfo = status
	snap.Requests = entry.Requests
	snap.Fetched = len(entry.Works)
	if err != nil {
		snap.FetchErr = err
		log.Warn().Err(err).Int("works", snap.Fetched).Msg("fetch incomplete; continuing with partial results")
	}

	res := normalize.Normalize(entry.Works)
	// Skips of a cached entry were reported when it was fetched.
	for _, s := range res.Skips {
		if status == cache.StatusHit {
			break
		}
		l.metrics.ObserveSkip(string(s.Reason))
		log.Warn().
			Int("index", s.Index).
			Str("reason", string(s.Reason)).
			Str("detail", s.Detail).
			Msg("skipped record")
	}
	snap.Table = table.New(res.Rows)
	snap.Skips = res.Skips

	log.Info().
		Int("fetched", snap.Fetched).
		Int("rows", snap.Table.Len()).
		Int("skipped", len(snap.Skips)).
		Int("requests", snap.Requests).
		Str("cache", string(status)).
		Msg("snapshot loaded")
	return snap
}
