// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pubdash/internal/dashboard"
	"github.com/pdiddy/pubdash/pkg/types"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print metrics and top topics and authors for a year range",
	Long: `Summary loads the publication table, applies the --from/--to year range and
prints the headline metrics with the most frequent topics and authors.

Formats: table (default), yaml, json.`,
	RunE: runSummary,
}

func init() {
	addRangeFlags(summaryCmd)
	summaryCmd.Flags().String("format", "table", "output format: table, yaml or json")
	summaryCmd.Flags().Int("top", 0, "entries per breakdown (default dashboard.top_n)")

	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "table", "yaml", "json":
	default:
		return fmt.Errorf("unknown format %q (want table, yaml or json)", format)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	dcfg := a.cfg.Dashboard
	if top, _ := cmd.Flags().GetInt("top"); top > 0 {
		dcfg.TopN = top
	}

	snap := a.loader.Load(cmd.Context(), a.request())
	report := dashboard.NewReport(dashboard.BuildView(snap, rangeInput(cmd), dcfg))

	return writeReport(os.Stdout, report, format)
}

func writeReport(w io.Writer, r types.Report, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
		return enc.Close()
	}

	for _, n := range r.Notices {
		fmt.Fprintln(w, n)
	}

	mt := table.NewWriter()
	mt.SetOutputMirror(w)
	mt.SetTitle(fmt.Sprintf("%s publications %d-%d", r.Institution, r.From, r.To))
	mt.AppendHeader(table.Row{"Metric", "Value"})
	mt.AppendRow(table.Row{"Total Publications", r.Summary.Count})
	if r.Summary.Defined {
		mt.AppendRow(table.Row{"Open Access Rate", fmt.Sprintf("%.1f%%", r.Summary.OpenAccessRate)})
		mt.AppendRow(table.Row{"Avg Citations", fmt.Sprintf("%.1f", r.Summary.MeanCitations)})
		mt.AppendRow(table.Row{"Total Citations", r.Summary.TotalCitations})
	}
	mt.SetStyle(table.StyleRounded)
	mt.Render()

	renderFrequencies(w, "Top Research Topics", "Topic", r.TopTopics)
	renderFrequencies(w, "Most Prolific Authors", "Author", r.TopAuthors)
	return nil
}

func renderFrequencies(w io.Writer, title, label string, freqs []types.Frequency) {
	if len(freqs) == 0 {
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.AppendHeader(table.Row{"#", label, "Publications"})
	for i, f := range freqs {
		t.AppendRow(table.Row{i + 1, f.Value, f.Count})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}
