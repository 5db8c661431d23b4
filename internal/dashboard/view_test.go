// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dashboard

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pubdash/internal/cache"
	"github.com/pdiddy/pubdash/internal/normalize"
	"github.com/pdiddy/pubdash/internal/openalex"
	"github.com/pdiddy/pubdash/internal/pipeline"
	"github.com/pdiddy/pubdash/internal/table"
	"github.com/pdiddy/pubdash/pkg/types"
)

var testDashboardConfig = types.DashboardConfig{
	Address:         "127.0.0.1:0",
	FallbackMinYear: 2000,
	FallbackMaxYear: 2025,
	TopN:            10,
}

func sampleSnapshot() *pipeline.Snapshot {
	rows := []types.Row{
		{Title: "Alpha", Year: 2019, Citations: 10, OpenAccess: true, Authors: "Ana, Bo", Topics: "Physics, Chemistry"},
		{Title: "Beta", Year: 2020, Citations: 0, OpenAccess: false, Authors: "Ana", Topics: "Physics"},
		{Title: "Gamma", Year: 2021, Citations: 5, OpenAccess: true, Authors: types.UnknownAuthors, Topics: types.NoTopics},
	}
	return &pipeline.Snapshot{
		ID:       "snap-1",
		Key:      cache.Key{InstitutionID: "I1", Mode: types.FetchAll},
		Table:    table.New(rows),
		Fetched:  3,
		Requests: 1,
		LoadedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func intp(v int) *int { return &v }

func TestParseRangeInput(t *testing.T) {
	tests := []struct {
		name        string
		query       url.Values
		wantFrom    *int
		wantTo      *int
		wantNotices int
	}{
		{name: "empty", query: url.Values{}},
		{name: "both", query: url.Values{"from": {"2019"}, "to": {"2021"}}, wantFrom: intp(2019), wantTo: intp(2021)},
		{name: "whitespace", query: url.Values{"from": {" 2019 "}}, wantFrom: intp(2019)},
		{name: "garbage", query: url.Values{"from": {"abc"}, "to": {"2020"}}, wantTo: intp(2020), wantNotices: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, notices := ParseRangeInput(tt.query)
			assert.Equal(t, tt.wantFrom, in.From)
			assert.Equal(t, tt.wantTo, in.To)
			assert.Len(t, notices, tt.wantNotices)
		})
	}
}

func TestBuildView_DefaultsToFullRange(t *testing.T) {
	v := BuildView(sampleSnapshot(), RangeInput{}, testDashboardConfig)

	assert.Equal(t, "snap-1", v.SnapshotID)
	assert.Equal(t, "I1", v.Institution)
	assert.Equal(t, table.YearRange{Lo: 2019, Hi: 2021}, v.Bounds)
	assert.Equal(t, v.Bounds, v.Selected)
	assert.False(t, v.NoData)
	assert.Empty(t, v.Notices)
	assert.Len(t, v.Rows, 3)

	assert.Equal(t, []Metric{
		{Label: "Total Publications", Value: "3"},
		{Label: "Open Access Rate", Value: "66.7%"},
		{Label: "Avg Citations", Value: "5.0"},
		{Label: "Total Citations", Value: "15"},
	}, v.Metrics)

	assert.Equal(t, []types.Frequency{{Value: "Physics", Count: 2}, {Value: "Chemistry", Count: 1}}, v.TopTopics)
	assert.Equal(t, []types.Frequency{{Value: "Ana", Count: 2}, {Value: "Bo", Count: 1}}, v.TopAuthors)

	require.Len(t, v.Charts, 4)
	ids := []string{v.Charts[0].ID, v.Charts[1].ID, v.Charts[2].ID, v.Charts[3].ID}
	assert.Equal(t, []string{"trends", "topics", "authors", "citations"}, ids)
}

func TestBuildView_SelectionFilters(t *testing.T) {
	v := BuildView(sampleSnapshot(), RangeInput{From: intp(2020), To: intp(2021)}, testDashboardConfig)

	assert.Equal(t, table.YearRange{Lo: 2020, Hi: 2021}, v.Selected)
	require.Len(t, v.Rows, 2)
	assert.Equal(t, "Beta", v.Rows[0].Title)
	assert.Equal(t, "Gamma", v.Rows[1].Title)
	assert.Equal(t, 2, v.Filtered().Len())
	assert.Equal(t, 2, v.Summary.Count)
}

func TestBuildView_SelectionClampedToBounds(t *testing.T) {
	v := BuildView(sampleSnapshot(), RangeInput{From: intp(1990), To: intp(2050)}, testDashboardConfig)
	assert.Equal(t, table.YearRange{Lo: 2019, Hi: 2021}, v.Selected)
	assert.Len(t, v.Rows, 3)
}

func TestBuildView_SelectionOutsideData(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
	}{
		{name: "before", from: 2000, to: 2010},
		{name: "after", from: 2030, to: 2040},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := BuildView(sampleSnapshot(), RangeInput{From: intp(tt.from), To: intp(tt.to)}, testDashboardConfig)

			assert.Equal(t, table.YearRange{Lo: tt.from, Hi: tt.to}, v.Selected)
			assert.True(t, v.NoData)
			assert.Empty(t, v.Rows)
			assert.Equal(t, 0, v.Filtered().Len())
		})
	}
}

func TestBuildView_InvertedRangeRejected(t *testing.T) {
	v := BuildView(sampleSnapshot(), RangeInput{From: intp(2021), To: intp(2019)}, testDashboardConfig)

	assert.Equal(t, v.Bounds, v.Selected)
	require.Len(t, v.Notices, 1)
	assert.Equal(t, NoticeWarning, v.Notices[0].Level)
	assert.Contains(t, v.Notices[0].Message, "inverted")
	assert.Len(t, v.Rows, 3)
}

func TestBuildView_NoRowsInSelection(t *testing.T) {
	snap := sampleSnapshot()
	snap.Table = table.New([]types.Row{{Title: "A", Year: 2010}, {Title: "B", Year: 2020}})

	v := BuildView(snap, RangeInput{From: intp(2012), To: intp(2018)}, testDashboardConfig)

	assert.True(t, v.NoData)
	assert.Empty(t, v.Rows)
	assert.Nil(t, v.Metrics)
	assert.Nil(t, v.Charts)
	assert.False(t, v.Summary.Defined)
	require.NotEmpty(t, v.Notices)
	assert.Equal(t, "No publications found for 2012-2018.", v.Notices[len(v.Notices)-1].Message)
}

func TestBuildView_EmptySnapshotUsesFallbackBounds(t *testing.T) {
	snap := sampleSnapshot()
	snap.Table = table.New(nil)
	snap.Fetched = 0

	v := BuildView(snap, RangeInput{}, testDashboardConfig)

	assert.Equal(t, table.YearRange{Lo: 2000, Hi: 2025}, v.Bounds)
	assert.Equal(t, v.Bounds, v.Selected)
	assert.True(t, v.NoData)
	assert.Equal(t, 0, v.Filtered().Len())
}

func TestBuildView_FetchErrorNotices(t *testing.T) {
	t.Run("first page failed", func(t *testing.T) {
		snap := sampleSnapshot()
		snap.Table = table.New(nil)
		snap.FetchErr = &openalex.FetchError{Page: 1, StatusCode: 503}

		v := BuildView(snap, RangeInput{}, testDashboardConfig)

		require.NotEmpty(t, v.Notices)
		assert.Equal(t, NoticeError, v.Notices[0].Level)
		assert.Contains(t, v.Notices[0].Message, "HTTP 503")
		assert.NotContains(t, v.Notices[0].Message, "partial")
		assert.True(t, v.NoData)
	})

	t.Run("partial results", func(t *testing.T) {
		snap := sampleSnapshot()
		snap.FetchErr = &openalex.FetchError{Page: 2, Err: errors.New("connection reset")}

		v := BuildView(snap, RangeInput{}, testDashboardConfig)

		require.NotEmpty(t, v.Notices)
		assert.Contains(t, v.Notices[0].Message, "connection reset")
		assert.Contains(t, v.Notices[0].Message, "Showing partial results.")
		assert.False(t, v.NoData)
		assert.Len(t, v.Rows, 3)
	})

	t.Run("no institution", func(t *testing.T) {
		snap := sampleSnapshot()
		snap.Table = table.New(nil)
		snap.FetchErr = openalex.ErrNoInstitution

		v := BuildView(snap, RangeInput{}, testDashboardConfig)
		assert.Contains(t, v.Notices[0].Message, "no institution id")
	})
}

func TestBuildView_SkipNotice(t *testing.T) {
	snap := sampleSnapshot()
	snap.Fetched = 6
	snap.Skips = []normalize.Skip{
		{Index: 3, Reason: normalize.SkipMissingYear},
		{Index: 4, Reason: normalize.SkipMissingYear},
		{Index: 5, Reason: normalize.SkipMalformed},
	}

	v := BuildView(snap, RangeInput{}, testDashboardConfig)

	require.Len(t, v.Notices, 1)
	assert.Equal(t, "Skipped 3 of 6 records (malformed: 1, missing year: 2).", v.Notices[0].Message)
}

func TestBuildView_TopNFromConfig(t *testing.T) {
	cfg := testDashboardConfig
	cfg.TopN = 1
	v := BuildView(sampleSnapshot(), RangeInput{}, cfg)
	assert.Equal(t, []types.Frequency{{Value: "Physics", Count: 2}}, v.TopTopics)

	cfg.TopN = 0
	v = BuildView(sampleSnapshot(), RangeInput{}, cfg)
	assert.Len(t, v.TopTopics, 2)
}
