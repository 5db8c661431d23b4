// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the pubdash CLI.
//
// pubdash fetches an institution's works from OpenAlex, normalizes them into
// a table and presents filtered aggregates as a browser dashboard (serve) or
// on the terminal (fetch, summary, export).
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pubdash/internal/config"
	"github.com/pdiddy/pubdash/internal/observability"
	"github.com/pdiddy/pubdash/internal/secrets"
	"github.com/pdiddy/pubdash/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// secretsDir holds credential files read at startup.
const secretsDir = ".secrets/"

// loadedSecrets holds values loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the pubdash CLI.
var rootCmd = &cobra.Command{
	Use:   "pubdash",
	Short: "Publication dashboard for an OpenAlex institution",
	Long: `pubdash retrieves the works of one institution from the OpenAlex API,
normalizes them into a publication table and shows year-filtered metrics,
trends, top topics, prolific authors and citation impact.

Run "pubdash serve" for the browser dashboard, or use fetch, summary and
export for terminal output.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Secrets are only logged by name, never by value.
		logger := observability.NewLogger(types.LoggingConfig{Level: viper.GetString("logging.level")})
		s, err := secrets.Load(secretsDir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug().Strs("keys", keys).Msg("loaded secrets")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./pubdash.yaml or ~/.config/pubdash/pubdash.yaml)")
	pf.String("institution", "", "OpenAlex institution id, e.g. I97018004")
	pf.String("from-date", "", "earliest publication date to fetch (YYYY-MM-DD)")
	pf.String("mode", "", "fetch mode: all (follow every page) or single (one page)")
	pf.String("mailto", "", "contact email sent to OpenAlex")
	pf.String("cache", "", "cache policy: none, process or ttl")
	pf.String("log-level", "", "log level: trace, debug, info, warn, error")
	pf.String("log-format", "", "log format: console or json")

	bindFlag("fetch.institution_id", "institution")
	bindFlag("fetch.from_date", "from-date")
	bindFlag("fetch.mode", "mode")
	bindFlag("fetch.mailto", "mailto")
	bindFlag("cache.policy", "cache")
	bindFlag("logging.level", "log-level")
	bindFlag("logging.format", "log-format")

	config.SetDefaults(viper.GetViper())
}

// bindFlag ties a persistent flag to a viper key. An unset flag leaves the
// key to the environment, the config file or its default.
func bindFlag(key, flag string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", flag, err))
	}
}

func initConfig() {
	// A missing .env file is normal.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("pubdash")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "pubdash"))
		}
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
