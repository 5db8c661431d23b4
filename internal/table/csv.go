// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/pdiddy/pubdash/pkg/types"
)

// WriteCSV writes the header row followed by one record per row. There is
// no index column; booleans are written as true/false.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, r := range t.Rows() {
		rec := []string{
			r.Title,
			strconv.Itoa(r.Year),
			strconv.Itoa(r.Citations),
			strconv.FormatBool(r.OpenAccess),
			r.Type,
			r.Authors,
			r.DOI,
			r.Topics,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing CSV record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a file produced by WriteCSV.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Columns)

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("reading CSV header: empty input")
		}
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	for i, name := range Columns {
		if header[i] != name {
			return nil, fmt.Errorf("unexpected CSV column %d: got %q, want %q", i, header[i], name)
		}
	}

	var rows []types.Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV: %w", err)
		}
		row, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("CSV line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return New(rows), nil
}

func parseRecord(rec []string) (types.Row, error) {
	year, err := strconv.Atoi(rec[1])
	if err != nil {
		return types.Row{}, fmt.Errorf("parsing Year %q: %w", rec[1], err)
	}
	citations, err := strconv.Atoi(rec[2])
	if err != nil {
		return types.Row{}, fmt.Errorf("parsing Citations %q: %w", rec[2], err)
	}
	oa, err := strconv.ParseBool(rec[3])
	if err != nil {
		return types.Row{}, fmt.Errorf("parsing OA %q: %w", rec[3], err)
	}
	return types.Row{
		Title:      rec[0],
		Year:       year,
		Citations:  citations,
		OpenAccess: oa,
		Type:       rec[4],
		Authors:    rec[5],
		DOI:        rec[6],
		Topics:     rec[7],
	}, nil
}
