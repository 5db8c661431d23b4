// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// FetchMode selects how far the fetcher follows pagination.
type FetchMode string

const (
	// FetchAll follows every cursor until the source reports no next page.
	FetchAll FetchMode = "all"

	// FetchSinglePage issues one request and returns its results.
	FetchSinglePage FetchMode = "single"
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout. Zero means no timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// FetchConfig holds settings for the OpenAlex fetch stage.
type FetchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// InstitutionID is the OpenAlex institution identifier (e.g. "I97018004").
	InstitutionID string `json:"institution_id" yaml:"institution_id" mapstructure:"institution_id" validate:"required"`

	// FromDate is the optional earliest publication date, YYYY-MM-DD.
	FromDate string `json:"from_date,omitempty" yaml:"from_date,omitempty" mapstructure:"from_date" validate:"omitempty,datetime=2006-01-02"`

	// Mailto is sent as the mailto parameter for polite pool access.
	Mailto string `json:"mailto,omitempty" yaml:"mailto,omitempty" mapstructure:"mailto" validate:"omitempty,email"`

	// Mode selects full pagination or a single page.
	Mode FetchMode `json:"mode" yaml:"mode" mapstructure:"mode" validate:"oneof=all single"`

	// PerPage is the page size requested from the source (max 200).
	PerPage int `json:"per_page" yaml:"per_page" mapstructure:"per_page" validate:"gte=0,lte=200"`

	// RateLimit caps outgoing requests per second. Zero disables pacing.
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit" mapstructure:"rate_limit" validate:"gte=0"`
}

// CachePolicy selects how long fetch results are memoized.
type CachePolicy string

const (
	// CacheNone disables memoization; every load fetches.
	CacheNone CachePolicy = "none"

	// CacheProcess keeps results for the lifetime of the process.
	CacheProcess CachePolicy = "process"

	// CacheTTL keeps results until they are older than CacheConfig.TTL.
	CacheTTL CachePolicy = "ttl"
)

// CacheBackend selects where memoized fetch results live.
type CacheBackend string

const (
	CacheMemory CacheBackend = "memory"
	CacheSQLite CacheBackend = "sqlite"
)

// CacheConfig holds settings for the fetch cache.
type CacheConfig struct {
	Policy CachePolicy `json:"policy" yaml:"policy" mapstructure:"policy" validate:"oneof=none process ttl"`

	// TTL is the entry lifetime when Policy is ttl.
	TTL time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl" validate:"required_if=Policy ttl"`

	Backend CacheBackend `json:"backend" yaml:"backend" mapstructure:"backend" validate:"oneof=memory sqlite"`

	// Path is the SQLite database file when Backend is sqlite.
	Path string `json:"path,omitempty" yaml:"path,omitempty" mapstructure:"path" validate:"required_if=Backend sqlite"`
}

// DashboardConfig holds settings for the browser dashboard.
type DashboardConfig struct {
	// Address is the listen address of the HTTP server.
	Address string `json:"address" yaml:"address" mapstructure:"address" validate:"required"`

	// FallbackMinYear and FallbackMaxYear bound the year control when no
	// rows are available.
	FallbackMinYear int `json:"fallback_min_year" yaml:"fallback_min_year" mapstructure:"fallback_min_year"`
	FallbackMaxYear int `json:"fallback_max_year" yaml:"fallback_max_year" mapstructure:"fallback_max_year" validate:"gtefield=FallbackMinYear"`

	// TopN is the number of entries in the topic and author breakdowns.
	TopN int `json:"top_n" yaml:"top_n" mapstructure:"top_n" validate:"gte=1"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is json or console.
	Format string `json:"format" yaml:"format" mapstructure:"format" validate:"oneof=json console pretty"`

	// Output is stdout or stderr.
	Output string `json:"output" yaml:"output" mapstructure:"output" validate:"oneof=stdout stderr"`
}

// Config groups all stage configurations.
type Config struct {
	Fetch     FetchConfig     `json:"fetch" yaml:"fetch" mapstructure:"fetch"`
	Cache     CacheConfig     `json:"cache" yaml:"cache" mapstructure:"cache"`
	Dashboard DashboardConfig `json:"dashboard" yaml:"dashboard" mapstructure:"dashboard"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging" mapstructure:"logging"`
}

// DefaultConfig returns a Config with every optional field set. The
// institution id has no default.
func DefaultConfig() Config {
	return Config{
		Fetch: FetchConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   60 * time.Second,
				UserAgent: "pubdash/0.1",
			},
			Mode:      FetchAll,
			PerPage:   200,
			RateLimit: 10,
		},
		Cache: CacheConfig{
			Policy:  CacheProcess,
			Backend: CacheMemory,
		},
		Dashboard: DashboardConfig{
			Address:         "127.0.0.1:8501",
			FallbackMinYear: 2000,
			FallbackMaxYear: 2025,
			TopN:            10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
	}
}
