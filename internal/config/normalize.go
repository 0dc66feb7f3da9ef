// internal/config/normalize.go
package config

// Defaults applied by Normalize.
const (
	DefaultTimeoutMs   = 5000
	DefaultSettleMs    = 1000
	DefaultIntervalMs  = 60000
	DefaultMaxAttempts = 5
	DefaultInitialMs   = 500
	DefaultMaxMs       = 30000
	DefaultDefinitions = "./definitions.json"
)

// Normalize fills in defaults.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	// ---- source ----
	if cfg.Source.Mode == "" {
		cfg.Source.Mode = "tcp"
	}
	if cfg.Source.UnitID == 0 {
		cfg.Source.UnitID = 1
	}
	if cfg.Source.TimeoutMs == 0 {
		cfg.Source.TimeoutMs = DefaultTimeoutMs
	}
	if cfg.Source.SettleMs == 0 {
		cfg.Source.SettleMs = DefaultSettleMs
	}
	if cfg.Source.Mode == "rtu" {
		if cfg.Source.BaudRate == 0 {
			cfg.Source.BaudRate = 9600
		}
		if cfg.Source.DataBits == 0 {
			cfg.Source.DataBits = 8
		}
		if cfg.Source.Parity == "" {
			cfg.Source.Parity = "N"
		}
		if cfg.Source.StopBits == 0 {
			cfg.Source.StopBits = 1
		}
	}

	// ---- store ----
	if cfg.Store.TimeoutMs == 0 {
		cfg.Store.TimeoutMs = DefaultTimeoutMs
	}

	// ---- schema ----
	if cfg.Schema.Definitions == "" {
		cfg.Schema.Definitions = DefaultDefinitions
	}
	if len(cfg.Schema.Categories) == 0 {
		cfg.Schema.Categories = []string{"general", "storage", "pgs"}
	}
	if cfg.Schema.PackBases == nil {
		cfg.Schema.PackBases = []uint16{38200, 38242, 38284}
	}

	// ---- poll / retry ----
	if cfg.Poll.IntervalMs == 0 {
		cfg.Poll.IntervalMs = DefaultIntervalMs
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Retry.InitialMs == 0 {
		cfg.Retry.InitialMs = DefaultInitialMs
	}
	if cfg.Retry.MaxMs == 0 {
		cfg.Retry.MaxMs = DefaultMaxMs
	}
}
