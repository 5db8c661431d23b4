// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/pdiddy/pubdash/internal/normalize"
	"github.com/pdiddy/pubdash/pkg/types"
)

const titleWidth = 60

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch and normalize works, then print the publication table",
	Long: `Fetch retrieves the institution's works from OpenAlex, normalizes them and
prints the resulting rows together with any records that were skipped. A
failed page is reported and whatever was collected before it is printed.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().Int("limit", 20, "maximum rows to print (0 prints all)")
	fetchCmd.Flags().Bool("json", false, "output rows and skips as JSON")

	rootCmd.AddCommand(fetchCmd)
}

type fetchOutput struct {
	Institution string           `json:"institution"`
	Requests    int              `json:"requests"`
	Fetched     int              `json:"fetched"`
	Error       string           `json:"error,omitempty"`
	Rows        []types.Row      `json:"rows"`
	Skips       []normalize.Skip `json:"skips,omitempty"`
}

func runFetch(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")

	snap := a.loader.Load(cmd.Context(), a.request())
	rows := snap.Table.Rows()

	if asJSON {
		out := fetchOutput{
			Institution: snap.Key.InstitutionID,
			Requests:    snap.Requests,
			Fetched:     snap.Fetched,
			Rows:        rows,
			Skips:       snap.Skips,
		}
		if snap.FetchErr != nil {
			out.Error = snap.FetchErr.Error()
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if snap.FetchErr != nil {
		fmt.Fprintf(os.Stderr, "fetch stopped early: %v\n", snap.FetchErr)
	}

	shown := rows
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Title", "Year", "Citations", "OA", "Type", "Authors"})
	for _, r := range shown {
		t.AppendRow(table.Row{text.Trim(r.Title, titleWidth), r.Year, r.Citations, yesNo(r.OpenAccess), r.Type, r.Authors})
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d of %d rows", len(shown), len(rows)), "", "", "", "", fmt.Sprintf("%d requests", snap.Requests)})
	t.SetStyle(table.StyleRounded)
	t.Render()

	if len(snap.Skips) > 0 {
		st := table.NewWriter()
		st.SetOutputMirror(os.Stdout)
		st.AppendHeader(table.Row{"Record", "Reason", "Detail"})
		for _, s := range snap.Skips {
			st.AppendRow(table.Row{s.Index, s.Reason, s.Detail})
		}
		st.SetStyle(table.StyleRounded)
		st.Render()
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
