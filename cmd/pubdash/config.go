// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pubdash/internal/cache"
	"github.com/pdiddy/pubdash/internal/config"
	"github.com/pdiddy/pubdash/internal/dashboard"
	"github.com/pdiddy/pubdash/internal/observability"
	"github.com/pdiddy/pubdash/internal/openalex"
	"github.com/pdiddy/pubdash/internal/pipeline"
	"github.com/pdiddy/pubdash/pkg/types"
)

// app bundles the resolved configuration and the wired pipeline shared by
// every subcommand.
type app struct {
	cfg      types.Config
	logger   zerolog.Logger
	registry *prometheus.Registry
	metrics  *observability.Metrics
	store    cache.Store
	loader   *pipeline.Loader
}

// newApp resolves configuration and wires fetcher, cache and loader.
func newApp() (*app, error) {
	cfg, err := config.Load(viper.GetViper(), loadedSecrets)
	if err != nil {
		return nil, err
	}

	logger := observability.NewLogger(cfg.Logging)
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	store, err := cache.Open(cfg.Cache)
	if err != nil {
		return nil, err
	}
	memo := cache.NewMemo(cfg.Cache, store, metrics, logger)
	fetcher := openalex.NewFetcher(cfg.Fetch, metrics, logger)

	return &app{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		metrics:  metrics,
		store:    store,
		loader:   pipeline.NewLoader(fetcher, memo, metrics, logger),
	}, nil
}

func (a *app) request() pipeline.Request {
	return pipeline.RequestFromConfig(a.cfg.Fetch)
}

func (a *app) Close() error {
	return a.store.Close()
}

// addRangeFlags registers --from and --to year flags on cmd.
func addRangeFlags(cmd *cobra.Command) {
	cmd.Flags().Int("from", 0, "first publication year to include (default: earliest in data)")
	cmd.Flags().Int("to", 0, "last publication year to include (default: latest in data)")
}

// rangeInput reads --from and --to; flags left unset stay nil.
func rangeInput(cmd *cobra.Command) dashboard.RangeInput {
	var in dashboard.RangeInput
	if cmd.Flags().Changed("from") {
		v, _ := cmd.Flags().GetInt("from")
		in.From = &v
	}
	if cmd.Flags().Changed("to") {
		v, _ := cmd.Flags().GetInt("to")
		in.To = &v
	}
	return in
}
