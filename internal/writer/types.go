// internal/writer/types.go
package writer

import "github.com/tamzrod/rower-bridge/internal/telemetry"

// Broadcaster delivers one snapshot to an external consumer.
// Calls arrive in emission order and must return promptly.
type Broadcaster interface {
	Broadcast(s telemetry.Snapshot) error
}

// Faulter is implemented by sinks that can publish a failed session.
type Faulter interface {
	Fault() error
}

// endpointClient is the exact contract the register writer uses.
// Implemented by writer/modbus (Modbus TCP) and writer/ingest (Raw Ingest v1).
type endpointClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}

// Plan is the fully-built register plan for one rower.
type Plan struct {
	Endpoint string
	UnitID   uint8
	BaseSlot uint16 // block index; address = BaseSlot * registers.SlotsPerSnapshot
	Name     string
}
