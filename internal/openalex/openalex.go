// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package openalex retrieves an institution's works from the OpenAlex API.
// Pages are requested with cursor pagination and collected as raw JSON so
// the normalizer can decide what each record is worth.
package openalex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/pubdash/internal/httputil"
	"github.com/pdiddy/pubdash/internal/observability"
	"github.com/pdiddy/pubdash/pkg/types"
)

// worksEndpoint is the OpenAlex Works endpoint. Declared as a var so tests
// can substitute an httptest server.
var worksEndpoint = "https://api.openalex.org/works"

const (
	// MaxPerPage is the largest page size OpenAlex accepts.
	MaxPerPage = 200

	firstCursor = "*"
	dateFmt     = "2006-01-02"
)

// ErrNoInstitution is returned when a query carries no institution id.
var ErrNoInstitution = errors.New("institution id is required")

// Query selects the works to fetch.
type Query struct {
	InstitutionID string
	FromDate      time.Time
}

// Filter returns the comma-joined OpenAlex filter expression.
func (q Query) Filter() string {
	clauses := []string{"institutions.id:" + strings.TrimSpace(q.InstitutionID)}
	if !q.FromDate.IsZero() {
		clauses = append(clauses, "from_publication_date:"+q.FromDate.Format(dateFmt))
	}
	return strings.Join(clauses, ",")
}

// ParseFromDate parses an optional YYYY-MM-DD lower bound. An empty string
// yields the zero time.
func ParseFromDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateFmt, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid from date %q: %w", s, err)
	}
	return t, nil
}

// FetchError reports why pagination stopped early. Page is 1-based.
type FetchError struct {
	Page       int
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("OpenAlex page %d returned HTTP %d", e.Page, e.StatusCode)
	}
	return fmt.Sprintf("OpenAlex page %d: %v", e.Page, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// FetchResult carries whatever was collected. When Err is set, Works holds
// the pages accumulated before the failure.
type FetchResult struct {
	Works    []json.RawMessage
	Requests int
	Err      error
}

// Partial reports whether the fetch failed after collecting some works.
func (r FetchResult) Partial() bool {
	return r.Err != nil && len(r.Works) > 0
}

// Fetcher queries the OpenAlex Works endpoint. Requests are never retried.
type Fetcher struct {
	Client *http.Client

	// Mailto is sent as the mailto parameter for polite pool access.
	Mailto    string
	UserAgent string
	PerPage   int

	Pacer   *httputil.Pacer
	Metrics *observability.Metrics
	Logger  zerolog.Logger
}

// NewFetcher builds a Fetcher from cfg.
func NewFetcher(cfg types.FetchConfig, metrics *observability.Metrics, logger zerolog.Logger) *Fetcher {
	return &Fetcher{
		Client:    &http.Client{Timeout: cfg.Timeout},
		Mailto:    cfg.Mailto,
		UserAgent: cfg.UserAgent,
		PerPage:   cfg.PerPage,
		Pacer:     httputil.NewPacer(cfg.RateLimit),
		Metrics:   metrics,
		Logger:    observability.Component(logger, "openalex"),
	}
}

// Fetch dispatches on mode. Unknown modes behave like types.FetchAll.
func (f *Fetcher) Fetch(ctx context.Context, q Query, mode types.FetchMode) FetchResult {
	if mode == types.FetchSinglePage {
		return f.FetchPage(ctx, q)
	}
	return f.FetchAll(ctx, q)
}

// FetchAll follows next_cursor until the source stops supplying one.
func (f *Fetcher) FetchAll(ctx context.Context, q Query) FetchResult {
	return f.run(ctx, q, 0)
}

// FetchPage issues a single request and returns its results, however many
// matches exist upstream.
func (f *Fetcher) FetchPage(ctx context.Context, q Query) FetchResult {
	return f.run(ctx, q, 1)
}

// run fetches up to maxPages pages; zero means no limit.
func (f *Fetcher) run(ctx context.Context, q Query, maxPages int) FetchResult {
	if strings.TrimSpace(q.InstitutionID) == "" {
		return FetchResult{Err: ErrNoInstitution}
	}

	start := time.Now()
	var res FetchResult
	cursor := firstCursor
	for {
		pg, err := f.page(ctx, q, cursor)
		res.Requests++
		if err != nil {
			res.Err = &FetchError{Page: res.Requests, StatusCode: pg.status, Err: err}
			f.Logger.Warn().
				Err(res.Err).
				Int("works_collected", len(res.Works)).
				Msg("fetch stopped early")
			break
		}
		res.Works = append(res.Works, pg.Results...)
		f.Logger.Debug().
			Int("page", res.Requests).
			Int("results", len(pg.Results)).
			Msg("fetched page")

		next := pg.nextCursor()
		if next == "" || (maxPages > 0 && res.Requests >= maxPages) {
			break
		}
		cursor = next
	}

	f.Metrics.ObserveFetch(time.Since(start).Seconds(), res.Err != nil)
	return res
}

// page requests one page. On a non-200 status the returned page carries the
// status and the error wraps it.
func (f *Fetcher) page(ctx context.Context, q Query, cursor string) (worksPage, error) {
	reqURL := worksEndpoint + "?" + f.params(q, cursor).Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return worksPage{}, fmt.Errorf("creating request: %w", err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := f.Pacer.Do(ctx, client, req)
	if err != nil {
		f.Metrics.ObserveRequest(0)
		return worksPage{}, fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()
	f.Metrics.ObserveRequest(resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		return worksPage{status: resp.StatusCode}, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var pg worksPage
	if err := json.NewDecoder(resp.Body).Decode(&pg); err != nil {
		return worksPage{}, fmt.Errorf("parsing OpenAlex response: %w", err)
	}
	return pg, nil
}

func (f *Fetcher) params(q Query, cursor string) url.Values {
	perPage := f.PerPage
	if perPage <= 0 || perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	params := url.Values{
		"filter":   {q.Filter()},
		"per-page": {strconv.Itoa(perPage)},
		"cursor":   {cursor},
	}
	if f.Mailto != "" {
		params.Set("mailto", f.Mailto)
	}
	return params
}

// worksPage is one page of the Works endpoint. Results stay raw.
type worksPage struct {
	Meta    worksMeta         `json:"meta"`
	Results []json.RawMessage `json:"results"`

	status int
}

type worksMeta struct {
	Count      int     `json:"count"`
	NextCursor *string `json:"next_cursor"`
}

func (p worksPage) nextCursor() string {
	if p.Meta.NextCursor == nil {
		return ""
	}
	return *p.Meta.NextCursor
}
