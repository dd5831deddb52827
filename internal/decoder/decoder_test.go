// internal/decoder/decoder_test.go
package decoder

import (
	"errors"
	"testing"
	"time"

	"github.com/tamzrod/rower-bridge/internal/telemetry"
)

// ---- helpers ----

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fakeObserver struct {
	triggers []Trigger
	unknown  []byte
}

func (o *fakeObserver) Emitted(t Trigger) { o.triggers = append(o.triggers, t) }
func (o *fakeObserver) UnknownOpcode(b byte) { o.unknown = append(o.unknown, b) }

type recorder struct {
	got []telemetry.Snapshot
}

func (r *recorder) emit(s telemetry.Snapshot) { r.got = append(r.got, s) }

func newTestDecoder(d telemetry.Dialect, clk *fakeClock) (*Decoder, *recorder, *fakeObserver) {
	rec := &recorder{}
	obs := &fakeObserver{}
	dec := New(d, rec.emit, WithClock(clk.Now), WithObserver(obs))
	return dec, rec, obs
}

// ---- tests ----

func TestProcess_DistanceAccumulatesUntilIdle(t *testing.T) {
	dec, rec, obs := newTestDecoder(telemetry.S4, newFakeClock())

	stream := []byte{
		OpPace, 24, 36,
		OpDistance, 5,
		OpDistance, 3,
		OpDistance, 0,
	}
	if err := dec.Process(stream); err != nil {
		t.Fatalf("Process err=%v", err)
	}

	if len(rec.got) != 2 {
		t.Fatalf("expected 2 emissions, got %d", len(rec.got))
	}

	idle := rec.got[1]
	if idle.DistanceDm != 8 {
		t.Fatalf("distance: got=%d want=8", idle.DistanceDm)
	}
	if idle.StrokeRate != 0 || idle.Speed != 0 {
		t.Fatalf("idle emission must zero rate/speed: rate=%d speed=%d", idle.StrokeRate, idle.Speed)
	}
	if obs.triggers[0] != TriggerPace || obs.triggers[1] != TriggerIdle {
		t.Fatalf("unexpected triggers: %v", obs.triggers)
	}
	if dec.State() != AwaitingCommand {
		t.Fatalf("state: got=%s want=%s", dec.State(), AwaitingCommand)
	}
}

func TestProcess_NonZeroDistanceDoesNotEmit(t *testing.T) {
	dec, rec, _ := newTestDecoder(telemetry.S4, newFakeClock())

	if err := dec.Process([]byte{OpDistance, 5, OpDistance, 3}); err != nil {
		t.Fatalf("Process err=%v", err)
	}
	if len(rec.got) != 0 {
		t.Fatalf("expected no emission, got %d", len(rec.got))
	}
	if dec.Snapshot().DistanceDm != 8 {
		t.Fatalf("distance: got=%d want=8", dec.Snapshot().DistanceDm)
	}
}

func TestProcess_PaceScaledByDialect(t *testing.T) {
	cases := []struct {
		name    string
		dialect telemetry.Dialect
		want    uint16
	}{
		{"s4", telemetry.S4, 36},
		{"revised", telemetry.S4Revised, 360},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dec, rec, _ := newTestDecoder(tc.dialect, newFakeClock())

			if err := dec.Process([]byte{OpPace, 24, 36}); err != nil {
				t.Fatalf("Process err=%v", err)
			}
			if len(rec.got) != 1 {
				t.Fatalf("expected 1 emission, got %d", len(rec.got))
			}
			if rec.got[0].StrokeRate != 24 {
				t.Fatalf("stroke rate: got=%d want=24", rec.got[0].StrokeRate)
			}
			if rec.got[0].Speed != tc.want {
				t.Fatalf("speed: got=%d want=%d", rec.got[0].Speed, tc.want)
			}
		})
	}
}

func TestProcess_StrokeEndIsBookkeepingOnly(t *testing.T) {
	clk := newFakeClock()
	dec, rec, _ := newTestDecoder(telemetry.S4, clk)

	if err := dec.Process([]byte{OpPace, 20, 30, OpDistance, 4}); err != nil {
		t.Fatalf("Process err=%v", err)
	}
	before := dec.Snapshot()

	first := clk.Now()
	if err := dec.Process([]byte{OpStrokeEnd}); err != nil {
		t.Fatalf("Process err=%v", err)
	}
	clk.Advance(2 * time.Second)
	if err := dec.Process([]byte{OpStrokeEnd}); err != nil {
		t.Fatalf("Process err=%v", err)
	}

	if len(rec.got) != 1 {
		t.Fatalf("stroke end must not emit: got %d emissions", len(rec.got))
	}

	after := dec.Snapshot()
	if after.DistanceDm != before.DistanceDm || after.Speed != before.Speed || after.StrokeRate != before.StrokeRate {
		t.Fatalf("stroke end altered telemetry: before=%+v after=%+v", before, after)
	}
	if !after.PrevStroke.Equal(first) || !after.LastStroke.Equal(clk.Now()) {
		t.Fatalf("stroke times not shifted: prev=%v last=%v", after.PrevStroke, after.LastStroke)
	}
	if after.StrokeCount != 0 {
		t.Fatalf("s4 must not count strokes, got %d", after.StrokeCount)
	}
}

func TestProcess_StrokeCountTrackedByRevisedDialect(t *testing.T) {
	dec, rec, _ := newTestDecoder(telemetry.S4Revised, newFakeClock())

	if err := dec.Process([]byte{OpStrokeEnd, OpStrokeEnd, OpStrokeEnd, OpPace, 22, 4}); err != nil {
		t.Fatalf("Process err=%v", err)
	}
	if len(rec.got) != 1 {
		t.Fatalf("expected 1 emission, got %d", len(rec.got))
	}
	if rec.got[0].StrokeCount != 3 {
		t.Fatalf("stroke count: got=%d want=3", rec.got[0].StrokeCount)
	}
}

func TestProcess_UnknownOpcodeIsTransparent(t *testing.T) {
	plain, _, _ := newTestDecoder(telemetry.S4, newFakeClock())
	noisy, _, obs := newTestDecoder(telemetry.S4, newFakeClock())

	if err := plain.Process([]byte{OpDistance, 7}); err != nil {
		t.Fatalf("Process err=%v", err)
	}
	if err := noisy.Process([]byte{0x10, OpDistance, 7}); err != nil {
		t.Fatalf("Process err=%v", err)
	}

	if plain.Snapshot() != noisy.Snapshot() {
		t.Fatalf("unknown opcode corrupted snapshot: plain=%+v noisy=%+v", plain.Snapshot(), noisy.Snapshot())
	}
	if noisy.State() != AwaitingCommand {
		t.Fatalf("state: got=%s want=%s", noisy.State(), AwaitingCommand)
	}
	if len(obs.unknown) != 1 || obs.unknown[0] != 0x10 {
		t.Fatalf("unknown opcode not observed: %v", obs.unknown)
	}
}

func TestProcess_HeartRateParsedAndDiscarded(t *testing.T) {
	dec, rec, _ := newTestDecoder(telemetry.S4, newFakeClock())

	// 0xFE as a heart-rate value must not be read as an opcode.
	if err := dec.Process([]byte{OpHeartRate, 0xFE, OpPace, 20, 30}); err != nil {
		t.Fatalf("Process err=%v", err)
	}
	if len(rec.got) != 1 {
		t.Fatalf("expected 1 emission, got %d", len(rec.got))
	}
	if rec.got[0].DistanceDm != 0 {
		t.Fatalf("heart rate leaked into distance: %d", rec.got[0].DistanceDm)
	}
}

func TestProcess_StalenessForcesIdle(t *testing.T) {
	clk := newFakeClock()
	dec, rec, obs := newTestDecoder(telemetry.S4Revised, clk)

	if err := dec.Process([]byte{OpPace, 26, 40}); err != nil {
		t.Fatalf("Process err=%v", err)
	}

	// Exactly at the timeout: not stale yet.
	clk.Advance(5 * time.Second)
	if err := dec.Process([]byte{OpDistance, 3}); err != nil {
		t.Fatalf("Process err=%v", err)
	}
	if len(rec.got) != 1 {
		t.Fatalf("expected no stale emission at the boundary, got %d emissions", len(rec.got))
	}

	clk.Advance(time.Millisecond)
	if err := dec.Process([]byte{OpDistance, 2}); err != nil {
		t.Fatalf("Process err=%v", err)
	}
	if len(rec.got) != 2 {
		t.Fatalf("expected stale emission, got %d emissions", len(rec.got))
	}

	stale := rec.got[1]
	if stale.StrokeRate != 0 || stale.Speed != 0 {
		t.Fatalf("stale emission must zero rate/speed: %+v", stale)
	}
	if stale.DistanceDm != 5 {
		t.Fatalf("distance: got=%d want=5", stale.DistanceDm)
	}
	if obs.triggers[1] != TriggerStale {
		t.Fatalf("trigger: got=%s want=%s", obs.triggers[1], TriggerStale)
	}

	// The stale emission refreshed the emit time.
	if err := dec.Process([]byte{OpDistance, 1}); err != nil {
		t.Fatalf("Process err=%v", err)
	}
	if len(rec.got) != 2 {
		t.Fatalf("stale emission should reset the timer, got %d emissions", len(rec.got))
	}
}

func TestProcess_StalenessDisabledInS4(t *testing.T) {
	clk := newFakeClock()
	dec, rec, _ := newTestDecoder(telemetry.S4, clk)

	clk.Advance(time.Hour)
	if err := dec.Process([]byte{OpDistance, 9}); err != nil {
		t.Fatalf("Process err=%v", err)
	}
	if len(rec.got) != 0 {
		t.Fatalf("expected no emission, got %d", len(rec.got))
	}
}

func TestProcess_ChunkingInvariance(t *testing.T) {
	stream := []byte{
		0x10, OpPace, 24, 36,
		OpDistance, 5, OpStrokeEnd,
		OpHeartRate, 130,
		OpDistance, 3,
		OpPace, 25, 38,
		OpDistance, 0,
		0x42, OpDistance, 11,
	}

	whole, wholeRec, _ := newTestDecoder(telemetry.S4Revised, newFakeClock())
	if err := whole.Process(stream); err != nil {
		t.Fatalf("Process err=%v", err)
	}

	check := func(t *testing.T, dec *Decoder, rec *recorder) {
		t.Helper()
		if dec.Snapshot() != whole.Snapshot() {
			t.Fatalf("final snapshot differs: got=%+v want=%+v", dec.Snapshot(), whole.Snapshot())
		}
		if len(rec.got) != len(wholeRec.got) {
			t.Fatalf("emission count differs: got=%d want=%d", len(rec.got), len(wholeRec.got))
		}
		for i := range rec.got {
			if rec.got[i] != wholeRec.got[i] {
				t.Fatalf("emission %d differs: got=%+v want=%+v", i, rec.got[i], wholeRec.got[i])
			}
		}
	}

	for split := 1; split < len(stream); split++ {
		dec, rec, _ := newTestDecoder(telemetry.S4Revised, newFakeClock())
		if err := dec.Process(stream[:split]); err != nil {
			t.Fatalf("split=%d first chunk err=%v", split, err)
		}
		if err := dec.Process(stream[split:]); err != nil {
			t.Fatalf("split=%d second chunk err=%v", split, err)
		}
		check(t, dec, rec)
	}

	dec, rec, _ := newTestDecoder(telemetry.S4Revised, newFakeClock())
	for _, b := range stream {
		if err := dec.Process([]byte{b}); err != nil {
			t.Fatalf("byte-at-a-time err=%v", err)
		}
	}
	check(t, dec, rec)
}

func TestProcess_InvalidStateFailsLoudly(t *testing.T) {
	dec, rec, _ := newTestDecoder(telemetry.S4, newFakeClock())

	if err := dec.Process([]byte{OpDistance, 4}); err != nil {
		t.Fatalf("Process err=%v", err)
	}
	dec.state = State(99)

	err := dec.Process([]byte{OpPace, 1, 2})
	if err == nil {
		t.Fatalf("expected decode error, got nil")
	}
	if !errors.Is(err, ErrDesync) {
		t.Fatalf("expected ErrDesync, got %v", err)
	}

	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DecodeError, got %T", err)
	}
	if de.State != State(99) || de.Offset != 0 || de.Byte != OpPace {
		t.Fatalf("unexpected decode error detail: %+v", de)
	}

	// Latched: further bytes are refused and the snapshot is untouched.
	if err2 := dec.Process([]byte{OpDistance, 0}); err2 != err {
		t.Fatalf("expected latched error, got %v", err2)
	}
	if dec.Snapshot().DistanceDm != 4 || len(rec.got) != 0 {
		t.Fatalf("failed decoder mutated state: %+v emissions=%d", dec.Snapshot(), len(rec.got))
	}

	dec.Reset()
	if err := dec.Process([]byte{OpDistance, 0}); err != nil {
		t.Fatalf("Reset should clear failure, got %v", err)
	}
}

func TestNew_InitialDistanceFromDialect(t *testing.T) {
	d := telemetry.S4
	d.InitialDistanceDm = 10

	dec, rec, _ := newTestDecoder(d, newFakeClock())
	if err := dec.Process([]byte{OpDistance, 0}); err != nil {
		t.Fatalf("Process err=%v", err)
	}
	if rec.got[0].DistanceDm != 10 {
		t.Fatalf("distance: got=%d want=10", rec.got[0].DistanceDm)
	}
}
