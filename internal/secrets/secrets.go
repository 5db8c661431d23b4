// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials and private identifiers from a directory
// of plain-text files. Each file is one secret: the filename is the key and
// the trimmed contents are the value.
//
// Recognized keys: openalex-email, institution-id.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pdiddy/pubdash/pkg/types"
)

// Key files read from the secrets directory.
const (
	OpenAlexEmail = "openalex-email"
	InstitutionID = "institution-id"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory is not an error; Load returns an empty map.
// Unreadable files are logged at warn and skipped.
func Load(dir string, logger zerolog.Logger) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn().Err(err).Str("secret", name).Msg("could not read secret")
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Apply fills fetch settings that are still empty from secrets. Values that
// came from flags, environment or the config file win.
func Apply(cfg *types.FetchConfig, secrets map[string]string) {
	if cfg.Mailto == "" {
		cfg.Mailto = secrets[OpenAlexEmail]
	}
	if strings.TrimSpace(cfg.InstitutionID) == "" {
		cfg.InstitutionID = secrets[InstitutionID]
	}
}
