// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pubdash/internal/dashboard"
	"github.com/pdiddy/pubdash/internal/table"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the year-filtered publication table as CSV",
	Long: `Export loads the publication table, applies the --from/--to year range and
writes the rows as CSV with the columns Title, Year, Citations, OA, Type,
Authors, DOI, Topics. Use --output - to write to stdout.`,
	RunE: runExport,
}

func init() {
	addRangeFlags(exportCmd)
	exportCmd.Flags().StringP("output", "o", "", "output file (default publications_<from>-<to>.csv, - for stdout)")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	snap := a.loader.Load(cmd.Context(), a.request())
	v := dashboard.BuildView(snap, rangeInput(cmd), a.cfg.Dashboard)
	for _, n := range v.Notices {
		fmt.Fprintln(os.Stderr, n.Message)
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = dashboard.ExportFilename(v.Selected)
	}

	var w io.Writer = os.Stdout
	if output != "-" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", output, err)
		}
		defer f.Close()
		w = f
	}

	if err := table.WriteCSV(w, v.Filtered()); err != nil {
		return fmt.Errorf("writing CSV: %w", err)
	}
	if output != "-" {
		fmt.Fprintf(os.Stderr, "Wrote %d rows to %s\n", v.Filtered().Len(), output)
	}
	return nil
}
