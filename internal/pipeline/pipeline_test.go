// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pubdash/internal/cache"
	"github.com/pdiddy/pubdash/internal/normalize"
	"github.com/pdiddy/pubdash/internal/observability"
	"github.com/pdiddy/pubdash/internal/openalex"
	"github.com/pdiddy/pubdash/pkg/types"
)

// --- mock fetcher ---

type mockFetcher struct {
	result openalex.FetchResult
	calls  int
	last   openalex.Query
	mode   types.FetchMode
}

func (m *mockFetcher) Fetch(_ context.Context, q openalex.Query, mode types.FetchMode) openalex.FetchResult {
	m.calls++
	m.last = q
	m.mode = mode
	return m.result
}

func works(docs ...string) []json.RawMessage {
	out := make([]json.RawMessage, len(docs))
	for i, d := range docs {
		out[i] = json.RawMessage(d)
	}
	return out
}

func TestLoad_NormalizesFetchedWorks(t *testing.T) {
	f := &mockFetcher{result: openalex.FetchResult{
		Works: works(
			`{"title":"A","publication_year":2020,"cited_by_count":5}`,
			`{"title":"B"}`,
			`{"title":"C","publication_year":2021}`,
		),
		Requests: 1,
	}}
	l := NewLoader(f, nil, nil, zerolog.Nop())

	snap := l.Load(context.Background(), Request{InstitutionID: "I1", FromDate: "2019-01-01", Mode: types.FetchAll})

	assert.NoError(t, snap.FetchErr)
	assert.False(t, snap.Failed())
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, 3, snap.Fetched)
	assert.Equal(t, 2, snap.Table.Len())
	require.Len(t, snap.Skips, 1)
	assert.Equal(t, normalize.SkipMissingYear, snap.Skips[0].Reason)
	assert.Equal(t, cache.StatusBypass, snap.CacheInfo)

	assert.Equal(t, "I1", f.last.InstitutionID)
	assert.Equal(t, 2019, f.last.FromDate.Year())
	assert.Equal(t, types.FetchAll, f.mode)
}

func TestLoad_FetchFailureKeepsPartialRows(t *testing.T) {
	f := &mockFetcher{result: openalex.FetchResult{
		Works:    works(`{"publication_year":2020}`),
		Requests: 2,
		Err:      &openalex.FetchError{Page: 2, StatusCode: 500},
	}}
	snap := NewLoader(f, nil, nil, zerolog.Nop()).Load(context.Background(), Request{InstitutionID: "I1"})

	require.Error(t, snap.FetchErr)
	assert.True(t, snap.Failed())
	var fe *openalex.FetchError
	assert.True(t, errors.As(snap.FetchErr, &fe))
	assert.Equal(t, 1, snap.Table.Len())
	assert.Equal(t, 2, snap.Requests)
}

func TestLoad_FirstPageFailureYieldsEmptyTable(t *testing.T) {
	f := &mockFetcher{result: openalex.FetchResult{
		Requests: 1,
		Err:      &openalex.FetchError{Page: 1, StatusCode: 403},
	}}
	snap := NewLoader(f, nil, nil, zerolog.Nop()).Load(context.Background(), Request{InstitutionID: "I1"})
	assert.True(t, snap.Failed())
	assert.True(t, snap.Table.Empty())
}

func TestLoad_InvalidFromDateSkipsFetch(t *testing.T) {
	f := &mockFetcher{}
	snap := NewLoader(f, nil, nil, zerolog.Nop()).Load(context.Background(), Request{InstitutionID: "I1", FromDate: "last year"})
	assert.Error(t, snap.FetchErr)
	assert.Zero(t, f.calls)
	assert.True(t, snap.Table.Empty())
}

func TestLoad_UsesCache(t *testing.T) {
	f := &mockFetcher{result: openalex.FetchResult{Works: works(`{"publication_year":2020}`), Requests: 1}}
	memo := cache.NewMemo(types.CacheConfig{Policy: types.CacheProcess}, cache.NewMemoryStore(), nil, zerolog.Nop())
	l := NewLoader(f, memo, nil, zerolog.Nop())
	req := Request{InstitutionID: "I1", Mode: types.FetchSinglePage}

	first := l.Load(context.Background(), req)
	second := l.Load(context.Background(), req)

	assert.Equal(t, 1, f.calls)
	assert.Equal(t, cache.StatusMiss, first.CacheInfo)
	assert.Equal(t, cache.StatusHit, second.CacheInfo)
	assert.Equal(t, first.Table.Rows(), second.Table.Rows())
	assert.NotEqual(t, first.ID, second.ID)
}

func TestLoad_SkipsCountedOncePerFetch(t *testing.T) {
	f := &mockFetcher{result: openalex.FetchResult{
		Works:    works(`{"publication_year":2020}`, `{"title":"no year"}`),
		Requests: 1,
	}}
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	memo := cache.NewMemo(types.CacheConfig{Policy: types.CacheProcess}, cache.NewMemoryStore(), metrics, zerolog.Nop())
	l := NewLoader(f, memo, metrics, zerolog.Nop())
	req := Request{InstitutionID: "I1", Mode: types.FetchAll}

	first := l.Load(context.Background(), req)
	second := l.Load(context.Background(), req)

	assert.Equal(t, 1, f.calls)
	assert.Equal(t, cache.StatusHit, second.CacheInfo)
	assert.Len(t, first.Skips, 1)
	assert.Len(t, second.Skips, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RecordsSkipped.WithLabelValues(string(normalize.SkipMissingYear))))
}

func TestRequestFromConfig(t *testing.T) {
	cfg := types.DefaultConfig().Fetch
	cfg.InstitutionID = " I97018004 "
	cfg.FromDate = "2020-01-01"
	assert.Equal(t, Request{InstitutionID: "I97018004", FromDate: "2020-01-01", Mode: types.FetchAll}, RequestFromConfig(cfg))
}
