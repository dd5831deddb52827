// internal/synthetic/source.go
package synthetic

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/tamzrod/rower-bridge/internal/telemetry"
)

const (
	DefaultInterval = 666 * time.Millisecond

	distanceStepDm = 20
	minStrokeRate  = 22
	maxStrokeRate  = 26
	minSpeed       = 36
	maxSpeed       = 40
)

// Config is the minimal runtime config the source needs.
type Config struct {
	Interval time.Duration
	Dialect  telemetry.Dialect
	Seed     int64 // 0 = time based
	Now      func() time.Time
}

// Source fabricates a plausible rowing workout without a console.
type Source struct {
	cfg  Config
	rng  *rand.Rand
	snap telemetry.Snapshot
}

func New(cfg Config) (*Source, error) {
	if cfg.Interval < 0 {
		return nil, errors.New("synthetic: interval must be >= 0")
	}
	if cfg.Interval == 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Source{
		cfg:  cfg,
		rng:  rand.New(rand.NewSource(seed)),
		snap: telemetry.NewSnapshot(cfg.Dialect),
	}, nil
}

// Next advances the workout by one stroke and returns the new snapshot.
func (s *Source) Next() telemetry.Snapshot {
	now := s.cfg.Now()

	s.snap.DistanceDm += distanceStepDm
	s.snap.StrokeRate = uint16(minStrokeRate + s.rng.Intn(maxStrokeRate-minStrokeRate+1))
	s.snap.Speed = s.cfg.Dialect.Scale(byte(minSpeed + s.rng.Intn(maxSpeed-minSpeed+1)))

	s.snap.PrevStroke = s.snap.LastStroke
	s.snap.LastStroke = now
	if s.cfg.Dialect.TrackStrokeCount {
		s.snap.StrokeCount++
	}
	s.snap.At = now

	return s.snap
}

// Run calls fn with a new snapshot every interval until ctx is done.
// One goroutine. No overlap.
func (s *Source) Run(ctx context.Context, fn func(telemetry.Snapshot)) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(s.Next())
		}
	}
}
