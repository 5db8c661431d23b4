// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dashboard turns a pipeline snapshot and a year-range selection
// into a View, and serves that view as an HTML dashboard, a JSON document
// and a CSV download.
//
// BuildView is a pure function of its inputs; the HTTP layer only parses the
// year-range control, calls BuildView and renders the result.
package dashboard

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/pubdash/internal/normalize"
	"github.com/pdiddy/pubdash/internal/openalex"
	"github.com/pdiddy/pubdash/internal/pipeline"
	"github.com/pdiddy/pubdash/internal/table"
	"github.com/pdiddy/pubdash/pkg/types"
)

// NoticeLevel orders notices by severity.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a non-fatal message shown above the dashboard.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// Metric is one scalar shown in the metrics row.
type Metric struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// RangeInput is the raw year-range selection. Nil ends fall back to the
// data bounds.
type RangeInput struct {
	From *int
	To   *int
}

// ParseRangeInput reads the from and to query parameters. Unparseable
// values are ignored and reported as notices.
func ParseRangeInput(q url.Values) (RangeInput, []Notice) {
	var (
		in      RangeInput
		notices []Notice
	)
	parse := func(name string) *int {
		s := strings.TrimSpace(q.Get(name))
		if s == "" {
			return nil
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			notices = append(notices, Notice{
				Level:   NoticeWarning,
				Message: fmt.Sprintf("Ignoring %s=%q: not a year.", name, s),
			})
			return nil
		}
		return &v
	}
	in.From = parse("from")
	in.To = parse("to")
	return in, notices
}

// View is everything one render pass shows.
type View struct {
	SnapshotID  string          `json:"snapshot_id"`
	Institution string          `json:"institution"`
	LoadedAt    time.Time       `json:"loaded_at"`
	Bounds      table.YearRange `json:"bounds"`
	Selected    table.YearRange `json:"selected"`
	Notices     []Notice        `json:"notices"`

	// NoData is set when no rows survive filtering; metrics and charts
	// are then omitted.
	NoData bool `json:"no_data"`

	Summary    types.Summary     `json:"summary"`
	Metrics    []Metric          `json:"metrics,omitempty"`
	Charts     []Chart           `json:"charts,omitempty"`
	TopTopics  []types.Frequency `json:"top_topics,omitempty"`
	TopAuthors []types.Frequency `json:"top_authors,omitempty"`
	Rows       []types.Row       `json:"rows"`

	filtered *table.Table
}

// Filtered returns the table behind Rows, for export.
func (v View) Filtered() *table.Table {
	if v.filtered == nil {
		return table.New(nil)
	}
	return v.filtered
}

// BuildView derives the view for snap under the year selection in.
func BuildView(snap *pipeline.Snapshot, in RangeInput, cfg types.DashboardConfig) View {
	v := View{
		SnapshotID:  snap.ID,
		Institution: snap.Key.InstitutionID,
		LoadedAt:    snap.LoadedAt,
	}
	v.Notices = append(v.Notices, snapshotNotices(snap)...)

	bounds, ok := snap.Table.YearBounds()
	if !ok {
		bounds = table.YearRange{Lo: cfg.FallbackMinYear, Hi: cfg.FallbackMaxYear}
	}
	v.Bounds = bounds
	v.Selected = selectRange(in, bounds, &v.Notices)

	filtered := snap.Table.Filter(v.Selected)
	v.filtered = filtered
	v.Rows = filtered.Rows()
	if filtered.Empty() {
		v.NoData = true
		v.Notices = append(v.Notices, Notice{
			Level:   NoticeInfo,
			Message: fmt.Sprintf("No publications found for %s.", v.Selected),
		})
		return v
	}

	topN := cfg.TopN
	if topN <= 0 {
		topN = table.DefaultTopN
	}
	v.Summary = filtered.Summarize()
	v.Metrics = metrics(v.Summary)
	v.TopTopics = filtered.TopN(table.FieldTopics, topN)
	v.TopAuthors = filtered.TopN(table.FieldAuthors, topN)
	v.Charts = []Chart{
		trendChart(filtered.YearCounts()),
		frequencyChart("topics", "Top Research Topics", "Topic", v.TopTopics, true),
		frequencyChart("authors", "Most Prolific Authors", "Author", v.TopAuthors, false),
		citationChart(filtered.CitationPoints()),
	}
	return v
}

// selectRange resolves the selection against bounds. An inverted selection
// is rejected and replaced by the full bounds. A selection that does not
// overlap bounds is kept as requested so it matches no rows.
func selectRange(in RangeInput, bounds table.YearRange, notices *[]Notice) table.YearRange {
	sel := bounds
	if in.From != nil {
		sel.Lo = *in.From
	}
	if in.To != nil {
		sel.Hi = *in.To
	}
	if err := sel.Validate(); err != nil {
		*notices = append(*notices, Notice{
			Level:   NoticeWarning,
			Message: fmt.Sprintf("Year range %d to %d is inverted; showing %s.", sel.Lo, sel.Hi, bounds),
		})
		return bounds
	}
	if sel.Hi < bounds.Lo || sel.Lo > bounds.Hi {
		return sel
	}
	return sel.Clamp(bounds)
}

func snapshotNotices(snap *pipeline.Snapshot) []Notice {
	var notices []Notice
	if snap.FetchErr != nil {
		msg := "Could not load publications: " + describeFetchError(snap.FetchErr)
		if !snap.Table.Empty() {
			msg += " Showing partial results."
		}
		notices = append(notices, Notice{Level: NoticeError, Message: msg})
	}
	if len(snap.Skips) > 0 {
		notices = append(notices, Notice{
			Level:   NoticeWarning,
			Message: fmt.Sprintf("Skipped %d of %d records (%s).", len(snap.Skips), snap.Fetched, skipBreakdown(snap.Skips)),
		})
	}
	return notices
}

func describeFetchError(err error) string {
	var fe *openalex.FetchError
	switch {
	case errors.Is(err, openalex.ErrNoInstitution):
		return "no institution id is configured."
	case errors.As(err, &fe):
		return fe.Error() + "."
	default:
		return err.Error() + "."
	}
}

func skipBreakdown(skips []normalize.Skip) string {
	counts := make(map[normalize.SkipReason]int)
	for _, s := range skips {
		counts[s.Reason]++
	}
	reasons := make([]string, 0, len(counts))
	for r := range counts {
		reasons = append(reasons, string(r))
	}
	sort.Strings(reasons)
	parts := make([]string, len(reasons))
	for i, r := range reasons {
		parts[i] = fmt.Sprintf("%s: %d", strings.ReplaceAll(r, "_", " "), counts[normalize.SkipReason(r)])
	}
	return strings.Join(parts, ", ")
}

func metrics(s types.Summary) []Metric {
	return []Metric{
		{Label: "Total Publications", Value: strconv.Itoa(s.Count)},
		{Label: "Open Access Rate", Value: fmt.Sprintf("%.1f%%", s.OpenAccessRate)},
		{Label: "Avg Citations", Value: fmt.Sprintf("%.1f", s.MeanCitations)},
		{Label: "Total Citations", Value: strconv.Itoa(s.TotalCitations)},
	}
}
