// internal/writer/register_writer_test.go
package writer

import (
	"errors"
	"testing"
	"time"

	"github.com/tamzrod/rower-bridge/internal/registers"
	"github.com/tamzrod/rower-bridge/internal/telemetry"
)

type writeCall struct {
	unitID uint8
	addr   uint16
	regs   []uint16
}

type fakeEndpointClient struct {
	calls []writeCall
	fail  bool
}

func (f *fakeEndpointClient) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	f.calls = append(f.calls, writeCall{
		unitID: unitID,
		addr:   addr,
		regs:   append([]uint16(nil), regs...),
	})
	if f.fail {
		return errors.New("fail")
	}
	return nil
}

func rowing(distance uint32, rate, speed uint16) telemetry.Snapshot {
	return telemetry.Snapshot{
		DistanceDm: distance,
		StrokeRate: rate,
		Speed:      speed,
		At:         time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC),
	}
}

func TestRegisterWriter_FirstWriteIsFullBlock(t *testing.T) {
	cli := &fakeEndpointClient{}
	w := NewRegisterWriter(Plan{UnitID: 3, BaseSlot: 2, Name: "S4"}, cli)

	if err := w.Broadcast(rowing(120, 24, 36)); err != nil {
		t.Fatalf("Broadcast err=%v", err)
	}

	if len(cli.calls) != 1 {
		t.Fatalf("expected 1 write, got %d", len(cli.calls))
	}
	c := cli.calls[0]
	if c.unitID != 3 || c.addr != 2*registers.SlotsPerSnapshot {
		t.Fatalf("unexpected target: unit=%d addr=%d", c.unitID, c.addr)
	}
	if len(c.regs) != registers.SlotsPerSnapshot {
		t.Fatalf("expected full block of %d, got %d", registers.SlotsPerSnapshot, len(c.regs))
	}
	if c.regs[registers.SlotStrokeRate] != 24 || c.regs[registers.SlotDistanceLo] != 120 {
		t.Fatalf("unexpected block: %v", c.regs)
	}
	if c.regs[registers.SlotNameStart] != uint16('S')<<8|uint16('4') {
		t.Fatalf("name not written: 0x%04x", c.regs[registers.SlotNameStart])
	}
}

func TestRegisterWriter_OnlyChangedRunsAfterFirst(t *testing.T) {
	cli := &fakeEndpointClient{}
	w := NewRegisterWriter(Plan{}, cli)

	_ = w.Broadcast(rowing(120, 24, 36))
	cli.calls = nil

	// distance lo and speed change; stroke rate stays
	if err := w.Broadcast(rowing(140, 24, 38)); err != nil {
		t.Fatalf("Broadcast err=%v", err)
	}

	if len(cli.calls) != 2 {
		t.Fatalf("expected 2 runs, got %d: %+v", len(cli.calls), cli.calls)
	}
	if c := cli.calls[0]; c.addr != registers.SlotDistanceLo || len(c.regs) != 1 || c.regs[0] != 140 {
		t.Fatalf("distance run: %+v", c)
	}
	if c := cli.calls[1]; c.addr != registers.SlotSpeed || len(c.regs) != 1 || c.regs[0] != 38 {
		t.Fatalf("speed run: %+v", c)
	}
}

func TestRegisterWriter_AdjacentChangesShareOneWrite(t *testing.T) {
	cli := &fakeEndpointClient{}
	w := NewRegisterWriter(Plan{}, cli)

	_ = w.Broadcast(rowing(120, 24, 36))
	cli.calls = nil

	if err := w.Broadcast(rowing(140, 25, 37)); err != nil {
		t.Fatalf("Broadcast err=%v", err)
	}
	if len(cli.calls) != 1 {
		t.Fatalf("expected 1 run, got %+v", cli.calls)
	}
	c := cli.calls[0]
	if c.addr != registers.SlotDistanceLo || len(c.regs) != 3 {
		t.Fatalf("unexpected run: %+v", c)
	}
}

func TestRegisterWriter_NoChangeNoWrite(t *testing.T) {
	cli := &fakeEndpointClient{}
	w := NewRegisterWriter(Plan{}, cli)

	s := rowing(120, 24, 36)
	_ = w.Broadcast(s)
	cli.calls = nil

	if err := w.Broadcast(s); err != nil {
		t.Fatalf("Broadcast err=%v", err)
	}
	if len(cli.calls) != 0 {
		t.Fatalf("expected no writes, got %+v", cli.calls)
	}
}

func TestRegisterWriter_FailureForcesFullBlock(t *testing.T) {
	cli := &fakeEndpointClient{}
	w := NewRegisterWriter(Plan{}, cli)

	_ = w.Broadcast(rowing(120, 24, 36))

	cli.fail = true
	if err := w.Broadcast(rowing(140, 24, 36)); err == nil {
		t.Fatalf("expected error, got nil")
	}

	cli.fail = false
	cli.calls = nil
	if err := w.Broadcast(rowing(160, 24, 36)); err != nil {
		t.Fatalf("Broadcast err=%v", err)
	}
	if len(cli.calls) != 1 || len(cli.calls[0].regs) != registers.SlotsPerSnapshot {
		t.Fatalf("expected full block re-assert, got %+v", cli.calls)
	}
}

func TestRegisterWriter_Fault(t *testing.T) {
	cli := &fakeEndpointClient{}
	w := NewRegisterWriter(Plan{UnitID: 1, BaseSlot: 1}, cli)

	_ = w.Broadcast(rowing(120, 24, 36))
	cli.calls = nil

	if err := w.Fault(); err != nil {
		t.Fatalf("Fault err=%v", err)
	}
	if len(cli.calls) != 1 {
		t.Fatalf("expected 1 write, got %d", len(cli.calls))
	}
	c := cli.calls[0]
	if c.addr != registers.SlotsPerSnapshot+registers.SlotHealth || len(c.regs) != 1 || c.regs[0] != registers.HealthFailed {
		t.Fatalf("unexpected fault write: %+v", c)
	}
}

func TestRegisterWriter_MissingClient(t *testing.T) {
	w := NewRegisterWriter(Plan{Endpoint: "x"}, nil)
	if err := w.Broadcast(rowing(1, 1, 1)); err == nil {
		t.Fatalf("expected error, got nil")
	}
}
