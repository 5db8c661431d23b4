// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dashboard

import "github.com/pdiddy/pubdash/pkg/types"

// NewReport flattens a view into the summary report printed by the CLI.
func NewReport(v View) types.Report {
	r := types.Report{
		Institution: v.Institution,
		From:        v.Selected.Lo,
		To:          v.Selected.Hi,
		LoadedAt:    v.LoadedAt,
		Summary:     v.Summary,
		TopTopics:   v.TopTopics,
		TopAuthors:  v.TopAuthors,
	}
	for _, n := range v.Notices {
		r.Notices = append(r.Notices, n.Message)
	}
	return r
}
