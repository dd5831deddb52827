// internal/writer/register_writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/rower-bridge/internal/registers"
	"github.com/tamzrod/rower-bridge/internal/telemetry"
)

// RegisterWriter publishes snapshots as a fixed holding-register block.
// The first write, and the first write after any failure, re-asserts the
// full block (name included). Otherwise only changed slots are written,
// one request per contiguous run.
type RegisterWriter struct {
	plan Plan
	cli  endpointClient

	needFull bool
	last     []uint16 // live slots as last confirmed
	nameRegs []uint16
}

// NewRegisterWriter builds a writer for one block on one endpoint.
func NewRegisterWriter(plan Plan, cli endpointClient) *RegisterWriter {
	return &RegisterWriter{
		plan:     plan,
		cli:      cli,
		needFull: true, // full re-assert on first successful write
		last:     make([]uint16, registers.SlotNameStart),
		nameRegs: registers.EncodeName(plan.Name),
	}
}

// Broadcast implements Broadcaster.
func (w *RegisterWriter) Broadcast(s telemetry.Snapshot) error {
	if w == nil || w.cli == nil {
		return fmt.Errorf("register writer: missing client for endpoint %s", w.endpoint())
	}

	base := w.baseAddr()

	// ------------------------------------------------------------
	// Full block write (identity re-assert)
	// ------------------------------------------------------------
	if w.needFull {
		regs := registers.Block(s, w.nameRegs)

		if err := w.cli.WriteRegisters(w.plan.UnitID, base, regs); err != nil {
			w.needFull = true
			return fmt.Errorf("register writer: full block write failed: %w", err)
		}

		w.needFull = false
		copy(w.last, regs[:registers.SlotNameStart])
		return nil
	}

	// ------------------------------------------------------------
	// Incremental: contiguous runs of changed live slots
	// ------------------------------------------------------------
	live := registers.Encode(s)
	var errs []string

	for i := 0; i < len(live); {
		if live[i] == w.last[i] {
			i++
			continue
		}
		j := i + 1
		for j < len(live) && live[j] != w.last[j] {
			j++
		}

		if err := w.cli.WriteRegisters(w.plan.UnitID, base+uint16(i), live[i:j]); err != nil {
			errs = append(errs, fmt.Sprintf("slots %d-%d write failed: %v", i, j-1, err))
		} else {
			copy(w.last[i:j], live[i:j])
		}
		i = j
	}

	if len(errs) > 0 {
		// Any partial failure forces a full re-assert on the next write.
		w.needFull = true
		return errors.New("register writer: " + strings.Join(errs, " | "))
	}

	return nil
}

// Fault marks the block as failed. Telemetry slots keep their last values.
func (w *RegisterWriter) Fault() error {
	if w == nil || w.cli == nil {
		return fmt.Errorf("register writer: missing client for endpoint %s", w.endpoint())
	}

	if err := w.cli.WriteRegisters(
		w.plan.UnitID,
		w.baseAddr()+registers.SlotHealth,
		[]uint16{registers.HealthFailed},
	); err != nil {
		w.needFull = true
		return fmt.Errorf("register writer: health write failed: %w", err)
	}

	w.last[registers.SlotHealth] = registers.HealthFailed
	return nil
}

func (w *RegisterWriter) baseAddr() uint16 {
	// Each rower owns a fixed SlotsPerSnapshot block.
	return w.plan.BaseSlot * registers.SlotsPerSnapshot
}

func (w *RegisterWriter) endpoint() string {
	if w == nil {
		return ""
	}
	return w.plan.Endpoint
}
