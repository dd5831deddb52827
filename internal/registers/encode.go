// internal/registers/encode.go
package registers

import "github.com/tamzrod/rower-bridge/internal/telemetry"

// Encode converts a Snapshot into the live part of the register block
// (slots before SlotNameStart). Layout is protocol-locked.
// No IO. No side effects.
func Encode(s telemetry.Snapshot) []uint16 {
	regs := make([]uint16, SlotNameStart)

	regs[SlotHealth] = Health(s)

	regs[SlotDistanceHi] = uint16(s.DistanceDm >> 16)
	regs[SlotDistanceLo] = uint16(s.DistanceDm)

	regs[SlotStrokeRate] = s.StrokeRate
	regs[SlotSpeed] = s.Speed

	regs[SlotStrokeCountHi] = uint16(s.StrokeCount >> 16)
	regs[SlotStrokeCountLo] = uint16(s.StrokeCount)

	regs[SlotSecondsSinceStroke] = secondsSinceStroke(s)

	return regs
}

// Block returns the full block: live slots followed by the encoded name.
func Block(s telemetry.Snapshot, nameRegs []uint16) []uint16 {
	regs := make([]uint16, SlotsPerSnapshot)
	copy(regs, Encode(s))

	// Reserved slots stay zero.
	for i := 0; i < SlotNameSlots && i < len(nameRegs); i++ {
		regs[SlotNameStart+i] = nameRegs[i]
	}
	return regs
}

// Health maps a snapshot to a health code.
func Health(s telemetry.Snapshot) uint16 {
	if s.Idle() {
		return HealthIdle
	}
	return HealthRowing
}

func secondsSinceStroke(s telemetry.Snapshot) uint16 {
	if s.LastStroke.IsZero() || s.At.Before(s.LastStroke) {
		return 0
	}
	secs := int64(s.At.Sub(s.LastStroke).Seconds())
	if secs > MaxSeconds {
		return MaxSeconds
	}
	return uint16(secs)
}

// EncodeName packs up to NameMaxChars ASCII characters into SlotNameSlots
// registers, two bytes per register, big-endian.
func EncodeName(name string) []uint16 {
	out := make([]uint16, SlotNameSlots)

	b := []byte(name)
	if len(b) > NameMaxChars {
		b = b[:NameMaxChars]
	}

	// sanitize to printable ASCII
	for i := 0; i < len(b); i++ {
		if b[i] < 0x20 || b[i] > 0x7E {
			b[i] = '?'
		}
	}

	for i := 0; i < NameMaxChars; i += 2 {
		var hi, lo byte
		if i < len(b) {
			hi = b[i]
		}
		if i+1 < len(b) {
			lo = b[i+1]
		}
		out[i/2] = uint16(hi)<<8 | uint16(lo)
	}

	return out
}
