// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Report is the printable summary of one year selection.
type Report struct {
	Institution string    `json:"institution" yaml:"institution"`
	From        int       `json:"from" yaml:"from"`
	To          int       `json:"to" yaml:"to"`
	LoadedAt    time.Time `json:"loaded_at" yaml:"loaded_at"`

	Summary    Summary     `json:"summary" yaml:"summary"`
	TopTopics  []Frequency `json:"top_topics" yaml:"top_topics"`
	TopAuthors []Frequency `json:"top_authors" yaml:"top_authors"`

	// Notices carries fetch failures, skipped records and empty selections.
	Notices []string `json:"notices,omitempty" yaml:"notices,omitempty"`
}
