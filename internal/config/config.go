// internal/config/config.go
package config

type Config struct {
	Source SourceConfig `yaml:"source"`
	Store  StoreConfig  `yaml:"store"`
	Schema SchemaConfig `yaml:"schema"`
	Poll   PollConfig   `yaml:"poll"`
	Retry  RetryConfig  `yaml:"retry"`
}

// ---- SOURCE ----

type SourceConfig struct {
	Mode      string `yaml:"mode"`     // tcp (default) | rtu
	Endpoint  string `yaml:"endpoint"` // host:port or serial device
	UnitID    uint8  `yaml:"unit_id"`
	TimeoutMs int    `yaml:"timeout_ms"`

	// Serial line (rtu only)
	BaudRate int    `yaml:"baud_rate"`
	DataBits int    `yaml:"data_bits"`
	Parity   string `yaml:"parity"`
	StopBits int    `yaml:"stop_bits"`

	// Wait after connect before the first read
	SettleMs int `yaml:"settle_ms"`
}

// ---- STORE ----

type StoreConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	BaseKey   string `yaml:"base_key"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- SCHEMA ----

type SchemaConfig struct {
	Definitions string   `yaml:"definitions"`
	Categories  []string `yaml:"categories"`
	PackBases   []uint16 `yaml:"pack_bases"`
}

// ---- POLL ----

type PollConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}

// ---- RETRY ----

type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
	InitialMs   int `yaml:"initial_ms"`
	MaxMs       int `yaml:"max_ms"`
}
