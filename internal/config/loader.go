package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix     = "SHIFTSHEET_"
	envConfigFile = envPrefix + "CONFIG"
)

// listKeys take comma separated values when set from the environment.
var listKeys = map[string]bool{ //nolint:gochecknoglobals // read-only lookup
	"positions":  true,
	"ics_feeds":  true,
	"json_files": true,
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if SHIFTSHEET_CONFIG is set
//  3. env (prefix SHIFTSHEET_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(envConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// SHIFTSHEET_START_ROW -> start_row. Keys are flat so underscores stay.
	envProvider := env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(envPrefix))
		switch {
		case key == "config":
			return "", nil
		case key == "roles":
			return key, parseRoles(value)
		case listKeys[key]:
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := *base
	// A configured role table replaces the default one instead of merging.
	if k.Exists("roles") {
		cfg.Roles = nil
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// parseRoles reads "M=Summer Manager,S=Summer Teacher".
func parseRoles(v string) map[string]interface{} {
	out := make(map[string]interface{})
	for _, pair := range strings.Split(v, ",") {
		code, position, ok := strings.Cut(pair, "=")
		code = strings.TrimSpace(code)
		if !ok || code == "" {
			continue
		}
		out[code] = strings.TrimSpace(position)
	}
	return out
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
