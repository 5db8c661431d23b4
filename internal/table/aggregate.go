// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package table

import (
	"math"
	"sort"
	"strings"

	"github.com/pdiddy/pubdash/pkg/types"
)

// DefaultTopN is the breakdown length used by the dashboard.
const DefaultTopN = 10

// Field names a multi-value column that can be exploded.
type Field string

const (
	FieldTopics  Field = "topics"
	FieldAuthors Field = "authors"
)

// YearCount is the number of rows published in Year.
type YearCount struct {
	Year  int `json:"year" yaml:"year"`
	Count int `json:"count" yaml:"count"`
}

// CitationPoint is one row plotted on the citations scatter.
type CitationPoint struct {
	Year      int    `json:"year" yaml:"year"`
	Citations int    `json:"citations" yaml:"citations"`
	Title     string `json:"title" yaml:"title"`
}

// Summarize computes the scalar metrics. An empty table returns a Summary
// with Defined false and zero rates rather than NaN.
func (t *Table) Summarize() types.Summary {
	n := t.Len()
	if n == 0 {
		return types.Summary{}
	}
	var oa, citations int
	for _, r := range t.rows {
		if r.OpenAccess {
			oa++
		}
		citations += r.Citations
	}
	return types.Summary{
		Count:          n,
		OpenAccessRate: round1(100 * float64(oa) / float64(n)),
		MeanCitations:  round1(float64(citations) / float64(n)),
		TotalCitations: citations,
		Defined:        true,
	}
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Explode splits field on every row and returns the flattened values.
// Placeholders, the author truncation marker and empty strings are dropped.
func (t *Table) Explode(field Field) []string {
	if t == nil {
		return nil
	}
	var values []string
	for _, r := range t.rows {
		var cell string
		switch field {
		case FieldTopics:
			cell = r.Topics
		case FieldAuthors:
			cell = r.Authors
		default:
			return nil
		}
		for _, v := range strings.Split(cell, types.ListSeparator) {
			v = strings.TrimSpace(v)
			if countable(v) {
				values = append(values, v)
			}
		}
	}
	return values
}

func countable(v string) bool {
	switch v {
	case "", types.UnknownAuthors, types.NoTopics, types.TruncationMarker:
		return false
	}
	return true
}

// TopN returns the n most frequent values of field, ordered by count
// descending and then by value ascending. The placeholders "Unknown" and
// "No topics", the author truncation marker and empty strings are not
// counted; see Explode.
func (t *Table) TopN(field Field, n int) []types.Frequency {
	if n <= 0 {
		return nil
	}
	counts := make(map[string]int)
	for _, v := range t.Explode(field) {
		counts[v]++
	}
	freqs := make([]types.Frequency, 0, len(counts))
	for v, c := range counts {
		freqs = append(freqs, types.Frequency{Value: v, Count: c})
	}
	sort.Slice(freqs, func(i, j int) bool {
		if freqs[i].Count != freqs[j].Count {
			return freqs[i].Count > freqs[j].Count
		}
		return freqs[i].Value < freqs[j].Value
	})
	if len(freqs) > n {
		freqs = freqs[:n]
	}
	return freqs
}

// YearCounts returns the number of rows per year, ascending by year.
func (t *Table) YearCounts() []YearCount {
	counts := make(map[int]int)
	if t != nil {
		for _, r := range t.rows {
			counts[r.Year]++
		}
	}
	out := make([]YearCount, 0, len(counts))
	for y, c := range counts {
		out = append(out, YearCount{Year: y, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// CitationPoints returns one point per row, in row order.
func (t *Table) CitationPoints() []CitationPoint {
	if t == nil {
		return nil
	}
	out := make([]CitationPoint, len(t.rows))
	for i, r := range t.rows {
		out[i] = CitationPoint{Year: r.Year, Citations: r.Citations, Title: r.Title}
	}
	return out
}
