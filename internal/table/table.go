// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package table holds normalized rows as a read-only table and derives the
// year-filtered views, summary metrics and frequency breakdowns shown on the
// dashboard. It also reads and writes the CSV export.
package table

import (
	"errors"
	"fmt"

	"github.com/pdiddy/pubdash/pkg/types"
)

// Columns is the exported column set, in order.
var Columns = []string{"Title", "Year", "Citations", "OA", "Type", "Authors", "DOI", "Topics"}

// ErrInvalidRange is returned by YearRange.Validate when Lo > Hi.
var ErrInvalidRange = errors.New("year range start is after its end")

// YearRange is an inclusive range of publication years.
type YearRange struct {
	Lo int `json:"lo" yaml:"lo"`
	Hi int `json:"hi" yaml:"hi"`
}

// Contains reports whether lo <= year <= hi.
func (r YearRange) Contains(year int) bool {
	return r.Lo <= year && year <= r.Hi
}

// Validate returns ErrInvalidRange for an inverted range.
func (r YearRange) Validate() error {
	if r.Lo > r.Hi {
		return fmt.Errorf("%w: %d > %d", ErrInvalidRange, r.Lo, r.Hi)
	}
	return nil
}

// Clamp limits both ends of r to bounds. An inverted result is left
// inverted; callers check Validate afterwards.
func (r YearRange) Clamp(bounds YearRange) YearRange {
	return YearRange{Lo: clamp(r.Lo, bounds.Lo, bounds.Hi), Hi: clamp(r.Hi, bounds.Lo, bounds.Hi)}
}

func (r YearRange) String() string {
	return fmt.Sprintf("%d-%d", r.Lo, r.Hi)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Table is an immutable sequence of rows.
type Table struct {
	rows []types.Row
}

// New returns a table holding a copy of rows.
func New(rows []types.Row) *Table {
	cp := make([]types.Row, len(rows))
	copy(cp, rows)
	return &Table{rows: cp}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Empty reports whether the table has no rows.
func (t *Table) Empty() bool { return t.Len() == 0 }

// Rows returns a copy of the rows.
func (t *Table) Rows() []types.Row {
	if t == nil {
		return nil
	}
	cp := make([]types.Row, len(t.rows))
	copy(cp, t.rows)
	return cp
}

// YearBounds returns the smallest and largest year present. ok is false for
// an empty table.
func (t *Table) YearBounds() (bounds YearRange, ok bool) {
	if t.Empty() {
		return YearRange{}, false
	}
	bounds = YearRange{Lo: t.rows[0].Year, Hi: t.rows[0].Year}
	for _, r := range t.rows[1:] {
		bounds.Lo = min(bounds.Lo, r.Year)
		bounds.Hi = max(bounds.Hi, r.Year)
	}
	return bounds, true
}

// Filter returns the rows whose year lies in r, in their original order.
// An inverted range yields an empty table.
func (t *Table) Filter(r YearRange) *Table {
	out := &Table{rows: []types.Row{}}
	if t == nil {
		return out
	}
	for _, row := range t.rows {
		if r.Contains(row.Year) {
			out.rows = append(out.rows, row)
		}
	}
	return out
}
