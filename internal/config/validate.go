// internal/config/validate.go
package config

import (
	"errors"
	"fmt"
	"strings"
)

var knownCategories = map[string]struct{}{
	"general": {},
	"storage": {},
	"pgs":     {},
}

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil")
	}

	// ------------------------------------------------------------
	// SOURCE
	// ------------------------------------------------------------

	switch cfg.Source.Mode {
	case "", "tcp", "rtu":
	default:
		return fmt.Errorf("source.mode %q: must be tcp or rtu", cfg.Source.Mode)
	}
	if cfg.Source.Endpoint == "" {
		return errors.New("source.endpoint is required")
	}
	if cfg.Source.TimeoutMs < 0 || cfg.Source.SettleMs < 0 {
		return errors.New("source: timeout_ms and settle_ms must be >= 0")
	}
	switch cfg.Source.Parity {
	case "", "N", "E", "O":
	default:
		return fmt.Errorf("source.parity %q: must be N, E or O", cfg.Source.Parity)
	}

	// ------------------------------------------------------------
	// STORE
	// ------------------------------------------------------------

	if cfg.Store.Addr == "" {
		return errors.New("store.addr is required")
	}
	if cfg.Store.BaseKey == "" {
		return errors.New("store.base_key is required")
	}
	if strings.Contains(cfg.Store.BaseKey, ":") {
		return fmt.Errorf("store.base_key %q must not contain ':'", cfg.Store.BaseKey)
	}
	if cfg.Store.DB < 0 || cfg.Store.TimeoutMs < 0 {
		return errors.New("store: db and timeout_ms must be >= 0")
	}

	// ------------------------------------------------------------
	// SCHEMA LAYOUT
	// ------------------------------------------------------------

	seenCat := make(map[string]struct{})
	for _, c := range cfg.Schema.Categories {
		if _, ok := knownCategories[c]; !ok {
			return fmt.Errorf("schema.categories: unknown category %q", c)
		}
		if _, dup := seenCat[c]; dup {
			return fmt.Errorf("schema.categories: %q listed twice", c)
		}
		seenCat[c] = struct{}{}
	}

	seenBase := make(map[uint16]int)
	for i, b := range cfg.Schema.PackBases {
		if prev, dup := seenBase[b]; dup {
			return fmt.Errorf("schema.pack_bases: packs %d and %d share base address %d", prev, i, b)
		}
		seenBase[b] = i
	}

	// ------------------------------------------------------------
	// POLL / RETRY
	// ------------------------------------------------------------

	if cfg.Poll.IntervalMs < 0 {
		return errors.New("poll.interval_ms must be >= 0")
	}
	if cfg.Retry.MaxAttempts < 0 || cfg.Retry.InitialMs < 0 || cfg.Retry.MaxMs < 0 {
		return errors.New("retry: values must be >= 0")
	}
	if cfg.Retry.InitialMs > 0 && cfg.Retry.MaxMs > 0 && cfg.Retry.InitialMs > cfg.Retry.MaxMs {
		return fmt.Errorf("retry.initial_ms %d exceeds retry.max_ms %d", cfg.Retry.InitialMs, cfg.Retry.MaxMs)
	}

	return nil
}
