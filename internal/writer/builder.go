// internal/writer/builder.go
package writer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tamzrod/rower-bridge/internal/config"
	"github.com/tamzrod/rower-bridge/internal/writer/ingest"
	"github.com/tamzrod/rower-bridge/internal/writer/modbus"
)

// Build constructs every configured sink. A JSONL path of "-" writes to stdout.
// Config must already be validated and normalized.
// The returned closer releases files and connections; it is safe to call once.
func Build(cfg config.OutputsConfig, stdout io.Writer) (Multi, func() error, error) {
	var (
		sinks   Multi
		closers []func() error
	)

	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	// ---- JSONL ----
	if j := cfg.JSONL; j != nil {
		switch {
		case j.Path == "-":
			sinks = append(sinks, NewJSONLWriter(stdout))

		case j.MaxSizeMB > 0:
			rot := &lumberjack.Logger{
				Filename:   j.Path,
				MaxSize:    j.MaxSizeMB,
				MaxBackups: j.MaxBackups,
			}
			closers = append(closers, rot.Close)
			sinks = append(sinks, NewJSONLWriter(rot))

		default:
			f, err := os.OpenFile(j.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				_ = closeAll()
				return nil, nil, fmt.Errorf("writer jsonl: open %s: %w", j.Path, err)
			}
			closers = append(closers, f.Close)
			sinks = append(sinks, NewJSONLWriter(f))
		}
	}

	// ---- register block ----
	if m := cfg.Modbus; m != nil {
		timeout := time.Duration(m.TimeoutMs) * time.Millisecond

		var (
			cli    endpointClient
			closer func() error
		)

		switch m.Protocol {
		case config.ProtocolIngest:
			c, err := ingest.New(ingest.Config{Endpoint: m.Endpoint, Timeout: timeout})
			if err != nil {
				_ = closeAll()
				return nil, nil, err
			}
			cli, closer = c, c.Close

		case config.ProtocolModbus, "":
			c, err := modbus.Dial(modbus.Config{Endpoint: m.Endpoint, Timeout: timeout})
			if err != nil {
				_ = closeAll()
				return nil, nil, err
			}
			cli, closer = c, c.Close

		default:
			_ = closeAll()
			return nil, nil, fmt.Errorf("writer: unsupported protocol %q", m.Protocol)
		}

		closers = append(closers, closer)
		sinks = append(sinks, NewRegisterWriter(Plan{
			Endpoint: m.Endpoint,
			UnitID:   m.UnitID,
			BaseSlot: m.BaseSlot,
			Name:     m.Name,
		}, cli))
	}

	return sinks, closeAll, nil
}
