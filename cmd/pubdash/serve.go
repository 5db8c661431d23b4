// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pubdash/internal/dashboard"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the publication dashboard over HTTP",
	Long: `Serve starts the browser dashboard. Every page load runs one pass of the
pipeline: fetch (or recall from the cache), normalize, filter by the selected
year range and render metrics, charts and the publication table.

Routes: / (dashboard), /export.csv, /api/view, /healthz, /metrics.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("address", "", "listen address (default 127.0.0.1:8501)")
	if err := viper.BindPFlag("dashboard.address", serveCmd.Flags().Lookup("address")); err != nil {
		panic(err)
	}
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	srv := dashboard.NewServer(a.cfg.Dashboard, a.loader, a.request(), a.metrics, a.registry, a.logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info().Msg("shutting down dashboard")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return <-errCh
}
