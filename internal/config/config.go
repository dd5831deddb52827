// internal/config/config.go
package config

type Config struct {
	Bridge BridgeConfig `yaml:"bridge" toml:"bridge"`
}

type BridgeConfig struct {
	Source    SourceConfig    `yaml:"source" toml:"source"`
	Dialect   DialectConfig   `yaml:"dialect" toml:"dialect"`
	Synthetic SyntheticConfig `yaml:"synthetic" toml:"synthetic"`
	Outputs   OutputsConfig   `yaml:"outputs" toml:"outputs"`
	Metrics   MetricsConfig   `yaml:"metrics" toml:"metrics"`
	Log       LogConfig       `yaml:"log" toml:"log"`
}

// ---- SOURCE ----

// SourceConfig selects the console connection.
// Endpoint is a device path (serial) or tcp://host:port (raw TCP bridge).
type SourceConfig struct {
	Endpoint      string `yaml:"endpoint" toml:"endpoint"`
	BaudRate      int    `yaml:"baud_rate" toml:"baud_rate"`
	ReadTimeoutMs int    `yaml:"read_timeout_ms" toml:"read_timeout_ms"`
}

// ---- DIALECT ----

// DialectConfig picks a preset; any non-nil field overrides it.
type DialectConfig struct {
	Name               string  `yaml:"name" toml:"name"`
	SpeedScale         *uint16 `yaml:"speed_scale" toml:"speed_scale"`
	TrackStrokeCount   *bool   `yaml:"track_stroke_count" toml:"track_stroke_count"`
	StalenessTimeoutMs *int    `yaml:"staleness_timeout_ms" toml:"staleness_timeout_ms"`
	InitialDistanceDm  *uint32 `yaml:"initial_distance_dm" toml:"initial_distance_dm"`
}

// ---- SYNTHETIC ----

type SyntheticConfig struct {
	Enabled    bool  `yaml:"enabled" toml:"enabled"`
	IntervalMs int   `yaml:"interval_ms" toml:"interval_ms"`
	Seed       int64 `yaml:"seed" toml:"seed"` // 0 = time based
}

// ---- OUTPUTS ----

type OutputsConfig struct {
	JSONL  *JSONLConfig  `yaml:"jsonl" toml:"jsonl"`
	Modbus *ModbusConfig `yaml:"modbus" toml:"modbus"`
}

// JSONLConfig writes one JSON object per snapshot. Path "-" is stdout.
// MaxSizeMB > 0 rotates the file at that size, keeping MaxBackups old files.
type JSONLConfig struct {
	Path       string `yaml:"path" toml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb" toml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" toml:"max_backups"`
}

// ModbusConfig publishes the telemetry register block to a TCP endpoint.
// Protocol is "modbus" (Modbus TCP, default) or "ingest" (Raw Ingest v1).
type ModbusConfig struct {
	Protocol  string `yaml:"protocol" toml:"protocol"`
	Endpoint  string `yaml:"endpoint" toml:"endpoint"`
	UnitID    uint8  `yaml:"unit_id" toml:"unit_id"`
	BaseSlot  uint16 `yaml:"base_slot" toml:"base_slot"`
	TimeoutMs int    `yaml:"timeout_ms" toml:"timeout_ms"`

	// Name is written into the name slots of the block (ASCII, max 8 chars).
	Name string `yaml:"name" toml:"name"`
}

// ---- METRICS / LOG ----

type MetricsConfig struct {
	Listen string `yaml:"listen" toml:"listen"` // empty disables
}

type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Pretty bool   `yaml:"pretty" toml:"pretty"`
}
