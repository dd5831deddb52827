// internal/config/validate.go
package config

import (
	"fmt"
	"strings"

	"github.com/tamzrod/rower-bridge/internal/registers"
	"github.com/tamzrod/rower-bridge/internal/telemetry"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	b := cfg.Bridge

	// ------------------------------------------------------------
	// SOURCE
	// ------------------------------------------------------------

	if !b.Synthetic.Enabled && strings.TrimSpace(b.Source.Endpoint) == "" {
		return fmt.Errorf("source.endpoint is required unless synthetic.enabled is set")
	}
	if ep := b.Source.Endpoint; strings.Contains(ep, "://") && !strings.HasPrefix(ep, "tcp://") {
		return fmt.Errorf("source.endpoint %q: only tcp:// is supported as a URL scheme", ep)
	}
	if b.Source.BaudRate < 0 {
		return fmt.Errorf("source.baud_rate must be >= 0, got %d", b.Source.BaudRate)
	}
	if b.Source.ReadTimeoutMs < 0 {
		return fmt.Errorf("source.read_timeout_ms must be >= 0, got %d", b.Source.ReadTimeoutMs)
	}

	// ------------------------------------------------------------
	// DIALECT
	// ------------------------------------------------------------

	if _, err := telemetry.DialectByName(b.Dialect.Name); err != nil {
		return fmt.Errorf("dialect.name: %w", err)
	}
	if b.Dialect.SpeedScale != nil && *b.Dialect.SpeedScale == 0 {
		return fmt.Errorf("dialect.speed_scale must be > 0")
	}
	if b.Dialect.StalenessTimeoutMs != nil && *b.Dialect.StalenessTimeoutMs < 0 {
		return fmt.Errorf("dialect.staleness_timeout_ms must be >= 0, got %d", *b.Dialect.StalenessTimeoutMs)
	}

	// ------------------------------------------------------------
	// SYNTHETIC
	// ------------------------------------------------------------

	if b.Synthetic.IntervalMs < 0 {
		return fmt.Errorf("synthetic.interval_ms must be >= 0, got %d", b.Synthetic.IntervalMs)
	}

	// ------------------------------------------------------------
	// OUTPUTS
	// ------------------------------------------------------------

	if j := b.Outputs.JSONL; j != nil {
		if strings.TrimSpace(j.Path) == "" {
			return fmt.Errorf("outputs.jsonl.path is required (use \"-\" for stdout)")
		}
		if j.MaxSizeMB < 0 || j.MaxBackups < 0 {
			return fmt.Errorf("outputs.jsonl.max_size_mb and max_backups must be >= 0")
		}
		if j.MaxSizeMB > 0 && j.Path == "-" {
			return fmt.Errorf("outputs.jsonl.max_size_mb needs a file path, not stdout")
		}
	}

	if m := b.Outputs.Modbus; m != nil {
		switch m.Protocol {
		case "", ProtocolModbus, ProtocolIngest:
		default:
			return fmt.Errorf("outputs.modbus.protocol %q: want %q or %q", m.Protocol, ProtocolModbus, ProtocolIngest)
		}
		if strings.TrimSpace(m.Endpoint) == "" {
			return fmt.Errorf("outputs.modbus.endpoint is required")
		}
		for i := 0; i < len(m.Name); i++ {
			if m.Name[i] > 0x7F {
				return fmt.Errorf("outputs.modbus.name must contain ASCII characters only")
			}
		}
		if m.TimeoutMs < 0 {
			return fmt.Errorf("outputs.modbus.timeout_ms must be >= 0, got %d", m.TimeoutMs)
		}

		// block must fit the 16-bit register address space
		end := int(m.BaseSlot)*registers.SlotsPerSnapshot + registers.SlotsPerSnapshot - 1
		if end > 0xFFFF {
			return fmt.Errorf(
				"outputs.modbus.base_slot %d: register block %d-%d exceeds address space",
				m.BaseSlot,
				int(m.BaseSlot)*registers.SlotsPerSnapshot,
				end,
			)
		}
	}

	// ------------------------------------------------------------
	// LOG
	// ------------------------------------------------------------

	switch strings.ToLower(b.Log.Level) {
	case "", "trace", "debug", "info", "warn", "error", "disabled":
	default:
		return fmt.Errorf("log.level %q is not recognised", b.Log.Level)
	}

	return nil
}
