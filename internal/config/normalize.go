// internal/config/normalize.go
package config

import (
	"time"

	"github.com/tamzrod/rower-bridge/internal/registers"
	"github.com/tamzrod/rower-bridge/internal/telemetry"
)

const (
	DefaultBaudRate        = 1200
	DefaultReadTimeoutMs   = 500
	DefaultSyntheticMs     = 666
	DefaultModbusTimeoutMs = 2000
	DefaultLogLevel        = "info"

	ProtocolModbus = "modbus"
	ProtocolIngest = "ingest"
)

// Normalize applies post-validation defaults.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	b := &cfg.Bridge

	if b.Source.BaudRate == 0 {
		b.Source.BaudRate = DefaultBaudRate
	}
	if b.Source.ReadTimeoutMs == 0 {
		b.Source.ReadTimeoutMs = DefaultReadTimeoutMs
	}

	if b.Dialect.Name == "" {
		b.Dialect.Name = telemetry.DialectS4
	}

	if b.Synthetic.IntervalMs == 0 {
		b.Synthetic.IntervalMs = DefaultSyntheticMs
	}

	if m := b.Outputs.Modbus; m != nil {
		if m.Protocol == "" {
			m.Protocol = ProtocolModbus
		}
		if m.TimeoutMs == 0 {
			m.TimeoutMs = DefaultModbusTimeoutMs
		}
		// ASCII already validated
		if len(m.Name) > registers.NameMaxChars {
			m.Name = m.Name[:registers.NameMaxChars]
		}
	}

	// No sink configured: print snapshots.
	if b.Outputs.JSONL == nil && b.Outputs.Modbus == nil {
		b.Outputs.JSONL = &JSONLConfig{Path: "-"}
	}

	if b.Log.Level == "" {
		b.Log.Level = DefaultLogLevel
	}
}

// Resolve builds the session dialect: the named preset with overrides applied.
func (d DialectConfig) Resolve() (telemetry.Dialect, error) {
	out, err := telemetry.DialectByName(d.Name)
	if err != nil {
		return telemetry.Dialect{}, err
	}

	if d.SpeedScale != nil {
		out.SpeedScale = *d.SpeedScale
	}
	if d.TrackStrokeCount != nil {
		out.TrackStrokeCount = *d.TrackStrokeCount
	}
	if d.StalenessTimeoutMs != nil {
		out.StalenessTimeout = time.Duration(*d.StalenessTimeoutMs) * time.Millisecond
	}
	if d.InitialDistanceDm != nil {
		out.InitialDistanceDm = *d.InitialDistanceDm
	}

	return out, nil
}
