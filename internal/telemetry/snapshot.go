// internal/telemetry/snapshot.go
package telemetry

import "time"

// Snapshot is the rower's state as last known.
// It carries no logic; the decoder owns the only mutable instance per session
// and everyone else receives copies.
type Snapshot struct {
	// DistanceDm is cumulative distance in 0.1 m units.
	DistanceDm uint32 `json:"distance_dm"`

	// StrokeRate is strokes per minute. Zero while idle.
	StrokeRate uint16 `json:"stroke_rate"`

	// Speed is the raw console speed multiplied by the dialect's SpeedScale.
	Speed uint16 `json:"speed"`

	// StrokeCount only moves when the dialect tracks strokes.
	StrokeCount uint32 `json:"stroke_count,omitempty"`

	LastStroke time.Time `json:"last_stroke"`
	PrevStroke time.Time `json:"prev_stroke"`

	// At is the emission time of this copy.
	At time.Time `json:"at"`
}

// NewSnapshot returns the start-of-session state for a dialect.
func NewSnapshot(d Dialect) Snapshot {
	return Snapshot{
		DistanceDm: d.InitialDistanceDm,
	}
}

// Idle reports whether the snapshot describes a stopped rower.
func (s Snapshot) Idle() bool {
	return s.StrokeRate == 0 && s.Speed == 0
}
