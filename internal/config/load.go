// internal/config/load.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment overrides, applied after the YAML file.
const (
	EnvEndpoint      = "SOLAR_SOURCE_ENDPOINT"
	EnvUnitID        = "SOLAR_SOURCE_UNIT_ID"
	EnvStoreAddr     = "SOLAR_STORE_ADDR"
	EnvStorePassword = "SOLAR_STORE_PASSWORD"
	EnvBaseKey       = "SOLAR_BASE_KEY"
)

// Load reads a YAML config file, then applies overrides from a .env file in
// the working directory (if present) and the process environment.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	// .env never overrides variables already set in the environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config .env: %w", err)
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvEndpoint); ok {
		cfg.Source.Endpoint = v
	}
	if v, ok := lookup(EnvUnitID); ok {
		n, err := strconv.ParseUint(v, 10, 8)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvUnitID, err)
		}
		cfg.Source.UnitID = uint8(n)
	}
	if v, ok := lookup(EnvStoreAddr); ok {
		cfg.Store.Addr = v
	}
	if v, ok := lookup(EnvStorePassword); ok {
		cfg.Store.Password = v
	}
	if v, ok := lookup(EnvBaseKey); ok {
		cfg.Store.BaseKey = v
	}
	return nil
}
