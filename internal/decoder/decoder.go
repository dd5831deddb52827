// internal/decoder/decoder.go
package decoder

import (
	"encoding/hex"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/rower-bridge/internal/telemetry"
)

// Decoder is the S4 byte-stream state machine.
// One instance per session. Not safe for concurrent use: chunks must be
// delivered one at a time, in arrival order.
type Decoder struct {
	dialect telemetry.Dialect
	emit    EmitFunc

	snap     telemetry.Snapshot
	state    State
	lastEmit time.Time
	failed   error

	now func() time.Time
	log zerolog.Logger
	obs Observer
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithClock replaces time.Now. Staleness is evaluated with this clock at
// the moment each distance byte is processed.
func WithClock(now func() time.Time) Option {
	return func(d *Decoder) {
		if now != nil {
			d.now = now
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(d *Decoder) {
		d.log = l
	}
}

func WithObserver(o Observer) Option {
	return func(d *Decoder) {
		d.obs = o
	}
}

// New creates a decoder in AwaitingCommand with a fresh snapshot.
// emit may be nil.
func New(dialect telemetry.Dialect, emit EmitFunc, opts ...Option) *Decoder {
	d := &Decoder{
		dialect: dialect,
		emit:    emit,
		now:     time.Now,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.Reset()
	return d
}

// Reset returns the decoder to its start-of-session state.
func (d *Decoder) Reset() {
	d.state = AwaitingCommand
	d.snap = telemetry.NewSnapshot(d.dialect)
	d.lastEmit = d.now()
	d.failed = nil
}

// Snapshot returns a copy of the current snapshot.
func (d *Decoder) Snapshot() telemetry.Snapshot { return d.snap }

func (d *Decoder) State() State { return d.state }

// Process feeds one chunk through the state machine.
// Chunk boundaries are opaque: partial messages carry over to the next call.
// A returned error is fatal; the decoder stays failed until Reset.
func (d *Decoder) Process(chunk []byte) error {
	if d.failed != nil {
		return d.failed
	}

	if e := d.log.Trace(); e.Enabled() {
		e.Str("hex", hex.EncodeToString(chunk)).Msg("[IN]")
	}

	for i, c := range chunk {
		if err := d.step(c); err != nil {
			if de, ok := err.(*DecodeError); ok {
				de.Offset = i
			}
			d.failed = err
			return err
		}
	}
	return nil
}

func (d *Decoder) step(c byte) error {
	switch d.state {
	case AwaitingCommand:
		d.command(c)

	case AwaitingStrokeRate:
		d.snap.StrokeRate = uint16(c)
		d.state = AwaitingSpeed
		d.log.Debug().Uint8("stroke_rate", c).Msg("stroke rate decoded")

	case AwaitingSpeed:
		d.snap.Speed = d.dialect.Scale(c)
		d.state = AwaitingCommand
		d.log.Debug().Uint16("speed", d.snap.Speed).Msg("speed decoded")
		d.publish(TriggerPace)

	case AwaitingHeartRate:
		// Parsed and discarded: no dialect merges heart rate into the snapshot.
		d.state = AwaitingCommand
		d.log.Debug().Uint8("bpm", c).Msg("heart rate ignored")

	case AwaitingDistance:
		d.snap.DistanceDm += uint32(c)
		d.state = AwaitingCommand

		switch {
		case c == 0:
			d.idle(TriggerIdle)
		case d.stale():
			d.idle(TriggerStale)
		default:
			d.log.Debug().Uint8("increment_dm", c).Uint32("distance_dm", d.snap.DistanceDm).Msg("distance decoded")
		}

	default:
		return &DecodeError{State: d.state, Byte: c}
	}
	return nil
}

func (d *Decoder) command(c byte) {
	switch c {
	case OpDistance:
		d.state = AwaitingDistance
	case OpPace:
		d.state = AwaitingStrokeRate
	case OpHeartRate:
		d.state = AwaitingHeartRate
	case OpStrokeEnd:
		d.snap.PrevStroke = d.snap.LastStroke
		d.snap.LastStroke = d.now()
		if d.dialect.TrackStrokeCount {
			d.snap.StrokeCount++
		}
	default:
		d.log.Debug().Str("opcode", hex.EncodeToString([]byte{c})).Msg("unknown command")
		if d.obs != nil {
			d.obs.UnknownOpcode(c)
		}
	}
}

func (d *Decoder) stale() bool {
	if d.dialect.StalenessTimeout <= 0 {
		return false
	}
	return d.now().Sub(d.lastEmit) > d.dialect.StalenessTimeout
}

func (d *Decoder) idle(t Trigger) {
	d.snap.StrokeRate = 0
	d.snap.Speed = 0
	d.publish(t)
}

func (d *Decoder) publish(t Trigger) {
	now := d.now()
	d.lastEmit = now
	d.snap.At = now

	d.log.Debug().
		Str("trigger", string(t)).
		Uint32("distance_dm", d.snap.DistanceDm).
		Uint16("stroke_rate", d.snap.StrokeRate).
		Uint16("speed", d.snap.Speed).
		Msg("snapshot emitted")

	if d.obs != nil {
		d.obs.Emitted(t)
	}
	if d.emit != nil {
		d.emit(d.snap)
	}
}
