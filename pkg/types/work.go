// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the pubdash pipeline:
// the normalized publication row, the summary and report shapes, and the
// configuration structs bound from viper.
package types

// Placeholder values written in place of empty multi-value fields so
// frequency counts never see an empty key.
const (
	UnknownAuthors   = "Unknown"
	NoTopics         = "No topics"
	TruncationMarker = "…"

	// ListSeparator joins authors and topics into a single cell.
	ListSeparator = ", "

	// MaxAuthors is the number of author names kept per row.
	MaxAuthors = 5
)

// Row is one normalized publication. Rows are built once by the normalizer
// and never mutated afterwards.
type Row struct {
	// Title is the work title; empty when the source had none.
	Title string `json:"title" yaml:"title"`

	// Year is the publication year. Every retained row has one.
	Year int `json:"year" yaml:"year"`

	// Citations is the cited-by count, zero when absent.
	Citations int `json:"citations" yaml:"citations"`

	// OpenAccess reports whether the work is freely available.
	OpenAccess bool `json:"oa" yaml:"oa"`

	// Type is the work type (e.g. "article", "book-chapter").
	Type string `json:"type" yaml:"type"`

	// Authors holds up to MaxAuthors display names joined with ListSeparator,
	// followed by TruncationMarker when more authors exist.
	Authors string `json:"authors" yaml:"authors"`

	// DOI is the DOI URL as returned by the source.
	DOI string `json:"doi" yaml:"doi"`

	// Topics holds the distinct concept names joined with ListSeparator.
	Topics string `json:"topics" yaml:"topics"`
}

// Frequency is one entry of a top-N breakdown.
type Frequency struct {
	Value string `json:"value" yaml:"value"`
	Count int    `json:"count" yaml:"count"`
}

// Summary holds the scalar metrics for a set of rows. When Defined is false
// the set was empty and the rate and mean fields carry no meaning.
type Summary struct {
	Count          int     `json:"count" yaml:"count"`
	OpenAccessRate float64 `json:"open_access_rate" yaml:"open_access_rate"`
	MeanCitations  float64 `json:"mean_citations" yaml:"mean_citations"`
	TotalCitations int     `json:"total_citations" yaml:"total_citations"`
	Defined        bool    `json:"defined" yaml:"defined"`
}
