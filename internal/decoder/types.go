// internal/decoder/types.go
package decoder

import (
	"errors"
	"fmt"

	"github.com/tamzrod/rower-bridge/internal/telemetry"
)

// ---- OPCODES ----

const (
	OpDistance  byte = 0xFE
	OpPace      byte = 0xFF // stroke rate, then speed
	OpStrokeEnd byte = 0xFC
	OpHeartRate byte = 0xFB
)

// ---- STATE ----

// State is the parser position between bytes.
type State int

const (
	AwaitingCommand State = iota
	AwaitingDistance
	AwaitingStrokeRate
	AwaitingSpeed
	AwaitingHeartRate
)

func (s State) String() string {
	switch s {
	case AwaitingCommand:
		return "awaiting_command"
	case AwaitingDistance:
		return "awaiting_distance"
	case AwaitingStrokeRate:
		return "awaiting_stroke_rate"
	case AwaitingSpeed:
		return "awaiting_speed"
	case AwaitingHeartRate:
		return "awaiting_heart_rate"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ---- EMISSION ----

// Trigger names the path that produced an emission.
type Trigger string

const (
	TriggerPace  Trigger = "pace"  // stroke rate + speed pair completed
	TriggerIdle  Trigger = "idle"  // zero distance byte
	TriggerStale Trigger = "stale" // staleness timeout hit on a distance byte
)

// EmitFunc receives a copy of the snapshot, synchronously, in byte order.
type EmitFunc func(s telemetry.Snapshot)

// Observer receives decoder events for accounting. It must return promptly.
type Observer interface {
	Emitted(t Trigger)
	UnknownOpcode(b byte)
}

// ---- ERRORS ----

// ErrDesync matches every DecodeError via errors.Is.
var ErrDesync = errors.New("decoder: protocol desynchronized")

// DecodeError reports a byte that arrived in a state with no transition.
// The decoder cannot resynchronize after this.
type DecodeError struct {
	State  State
	Byte   byte
	Offset int // position inside the chunk that failed
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf(
		"decoder: unknown state %q at offset %d (byte=0x%02x)",
		e.State.String(),
		e.Offset,
		e.Byte,
	)
}

func (e *DecodeError) Is(target error) bool {
	return target == ErrDesync
}
