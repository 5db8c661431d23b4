// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize maps raw OpenAlex work records onto fixed-shape rows.
//
// Normalization is a pure transformation: no network, no logging. Every
// input record yields an Outcome holding either a row or the reason it was
// skipped, so callers can report and test skip decisions directly.
package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/pdiddy/pubdash/pkg/types"
)

// SkipReason classifies why a record produced no row.
type SkipReason string

const (
	// SkipMissingYear marks a record with no publication_year (or null).
	SkipMissingYear SkipReason = "missing_year"

	// SkipNonIntegerYear marks a publication_year that is not an integral number.
	SkipNonIntegerYear SkipReason = "non_integer_year"

	// SkipMalformed marks a record whose shape could not be read.
	SkipMalformed SkipReason = "malformed"
)

// Skip describes one dropped record. Index is the record's input position.
type Skip struct {
	Index  int        `json:"index" yaml:"index"`
	Reason SkipReason `json:"reason" yaml:"reason"`
	Detail string     `json:"detail,omitempty" yaml:"detail,omitempty"`
}

func (s Skip) String() string {
	if s.Detail == "" {
		return fmt.Sprintf("record %d: %s", s.Index, s.Reason)
	}
	return fmt.Sprintf("record %d: %s (%s)", s.Index, s.Reason, s.Detail)
}

// Outcome is the result for one input record: exactly one of Row and Skip
// is non-nil.
type Outcome struct {
	Index int
	Row   *types.Row
	Skip  *Skip
}

// Result holds the per-record outcomes plus the retained rows and skips in
// input order.
type Result struct {
	Rows     []types.Row
	Outcomes []Outcome
	Skips    []Skip
}

// SkipCounts tallies skips by reason.
func (r Result) SkipCounts() map[SkipReason]int {
	counts := make(map[SkipReason]int)
	for _, s := range r.Skips {
		counts[s.Reason]++
	}
	return counts
}

// Normalize converts raw work records into rows.
func Normalize(raws []json.RawMessage) Result {
	res := Result{
		Rows:     make([]types.Row, 0, len(raws)),
		Outcomes: make([]Outcome, 0, len(raws)),
	}
	for i, raw := range raws {
		out := normalizeOne(i, raw)
		res.Outcomes = append(res.Outcomes, out)
		if out.Row != nil {
			res.Rows = append(res.Rows, *out.Row)
		} else {
			res.Skips = append(res.Skips, *out.Skip)
		}
	}
	return res
}

func normalizeOne(index int, raw json.RawMessage) Outcome {
	skip := func(reason SkipReason, detail string) Outcome {
		return Outcome{Index: index, Skip: &Skip{Index: index, Reason: reason, Detail: detail}}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return skip(SkipMalformed, "record is not a JSON object")
	}

	year, reason := parseYear(fields["publication_year"])
	if reason != "" {
		return skip(reason, "")
	}

	var w work
	if err := json.Unmarshal(raw, &w); err != nil {
		return skip(SkipMalformed, err.Error())
	}
	if w.CitedByCount != nil && *w.CitedByCount < 0 {
		return skip(SkipMalformed, fmt.Sprintf("negative cited_by_count %d", *w.CitedByCount))
	}

	row := types.Row{
		Title:     deref(w.Title),
		Year:      year,
		Citations: derefInt(w.CitedByCount),
		Type:      deref(w.Type),
		Authors:   joinAuthors(w.Authorships),
		DOI:       deref(w.DOI),
		Topics:    joinTopics(w.Concepts),
	}
	if w.OpenAccess != nil && w.OpenAccess.IsOA != nil {
		row.OpenAccess = *w.OpenAccess.IsOA
	}
	return Outcome{Index: index, Row: &row}
}

// parseYear accepts a JSON number with an integral value. Absent or null
// years and every other JSON type are rejected.
func parseYear(raw json.RawMessage) (int, SkipReason) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return 0, SkipMissingYear
	}
	var n float64
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return 0, SkipNonIntegerYear
	}
	if n != math.Trunc(n) || n < math.MinInt32 || n > math.MaxInt32 {
		return 0, SkipNonIntegerYear
	}
	return int(n), ""
}

// joinAuthors keeps the first MaxAuthors non-empty names and appends the
// truncation marker when more exist.
func joinAuthors(authorships []authorship) string {
	var names []string
	for _, a := range authorships {
		if a.Author == nil {
			continue
		}
		if name := strings.TrimSpace(deref(a.Author.DisplayName)); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return types.UnknownAuthors
	}
	if len(names) > types.MaxAuthors {
		names = append(names[:types.MaxAuthors:types.MaxAuthors], types.TruncationMarker)
	}
	return strings.Join(names, types.ListSeparator)
}

// joinTopics returns the distinct concept names in first-seen order.
func joinTopics(concepts []concept) string {
	seen := make(map[string]bool)
	var names []string
	for _, c := range concepts {
		name := strings.TrimSpace(deref(c.DisplayName))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	if len(names) == 0 {
		return types.NoTopics
	}
	return strings.Join(names, types.ListSeparator)
}

// deref returns the string or "" for nil. Line breaks are normalized to
// "\n" so text survives a CSV round trip unchanged.
func deref(s *string) string {
	if s == nil {
		return ""
	}
	return lineBreaks.Replace(*s)
}

var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

func derefInt(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}

// OpenAlex work fields read by the normalizer. Pointers distinguish absent
// or null values from zero values.
type work struct {
	Title        *string      `json:"title"`
	CitedByCount *int         `json:"cited_by_count"`
	OpenAccess   *openAccess  `json:"open_access"`
	Type         *string      `json:"type"`
	Authorships  []authorship `json:"authorships"`
	DOI          *string      `json:"doi"`
	Concepts     []concept    `json:"concepts"`
}

type openAccess struct {
	IsOA *bool `json:"is_oa"`
}

type authorship struct {
	Author *author `json:"author"`
}

type author struct {
	DisplayName *string `json:"display_name"`
}

type concept struct {
	DisplayName *string `json:"display_name"`
}
