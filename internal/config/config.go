// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config resolves types.Config from viper (flags, PUBDASH_*
// environment, pubdash.yaml) and the secrets directory, then validates it.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/pdiddy/pubdash/internal/secrets"
	"github.com/pdiddy/pubdash/pkg/types"
)

// EnvPrefix prefixes every environment override, e.g. PUBDASH_FETCH_INSTITUTION_ID.
const EnvPrefix = "PUBDASH"

// SetDefaults registers every key of types.DefaultConfig with v and enables
// environment lookup. Registering a key is what lets AutomaticEnv see it
// during Unmarshal.
func SetDefaults(v *viper.Viper) {
	d := types.DefaultConfig()

	v.SetDefault("fetch.institution_id", d.Fetch.InstitutionID)
	v.SetDefault("fetch.from_date", d.Fetch.FromDate)
	v.SetDefault("fetch.mailto", d.Fetch.Mailto)
	v.SetDefault("fetch.mode", string(d.Fetch.Mode))
	v.SetDefault("fetch.per_page", d.Fetch.PerPage)
	v.SetDefault("fetch.timeout", d.Fetch.Timeout)
	v.SetDefault("fetch.user_agent", d.Fetch.UserAgent)
	v.SetDefault("fetch.rate_limit", d.Fetch.RateLimit)

	v.SetDefault("cache.policy", string(d.Cache.Policy))
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.backend", string(d.Cache.Backend))
	v.SetDefault("cache.path", d.Cache.Path)

	v.SetDefault("dashboard.address", d.Dashboard.Address)
	v.SetDefault("dashboard.fallback_min_year", d.Dashboard.FallbackMinYear)
	v.SetDefault("dashboard.fallback_max_year", d.Dashboard.FallbackMaxYear)
	v.SetDefault("dashboard.top_n", d.Dashboard.TopN)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output", d.Logging.Output)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load unmarshals v into a Config, fills missing fetch settings from
// secrets and validates the result.
func Load(v *viper.Viper, secretValues map[string]string) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decoding configuration: %w", err)
	}
	secrets.Apply(&cfg.Fetch, secretValues)
	cfg.Fetch.InstitutionID = strings.TrimSpace(cfg.Fetch.InstitutionID)

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks cfg against its struct tags. Errors name the offending
// configuration keys.
func Validate(cfg types.Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating configuration: %w", err)
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = describe(fe)
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	key := configKey(fe.Namespace())
	switch fe.Tag() {
	case "required":
		if key == "fetch.institution_id" {
			return key + " is required (set --institution, PUBDASH_FETCH_INSTITUTION_ID or .secrets/institution-id)"
		}
		return key + " is required"
	case "required_if":
		return fmt.Sprintf("%s is required when %s", key, strings.Replace(fe.Param(), " ", " is ", 1))
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", key, fe.Param(), fmt.Sprint(fe.Value()))
	case "email":
		return fmt.Sprintf("%s must be an email address, got %q", key, fmt.Sprint(fe.Value()))
	case "datetime":
		return fmt.Sprintf("%s must be a date formatted %s, got %q", key, fe.Param(), fmt.Sprint(fe.Value()))
	default:
		return fmt.Sprintf("%s failed %s=%s (got %v)", key, fe.Tag(), fe.Param(), fe.Value())
	}
}

// configKey turns "Config.fetch.institution_id" into "fetch.institution_id".
// Fields of the squashed HTTPConfig appear under their own struct name,
// which viper does not use.
func configKey(namespace string) string {
	parts := strings.Split(namespace, ".")
	out := parts[:0]
	for i, p := range parts {
		if i == 0 || p == "HTTPConfig" {
			continue
		}
		out = append(out, p)
	}
	return strings.Join(out, ".")
}
