// internal/session/session.go
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/rower-bridge/internal/decoder"
	"github.com/tamzrod/rower-bridge/internal/telemetry"
)

// processor is the part of the decoder the session loop drives.
type processor interface {
	Process(chunk []byte) error
}

// OutcomeObserver is an optional extension of decoder.Observer.
type OutcomeObserver interface {
	SessionEnded(kind string)
}

type settings struct {
	log    zerolog.Logger
	now    func() time.Time
	obs    decoder.Observer
	buffer int

	newProcessor func(telemetry.Dialect, decoder.EmitFunc, ...decoder.Option) processor
}

// Option configures a Session.
type Option func(*settings)

func WithLogger(l zerolog.Logger) Option {
	return func(s *settings) { s.log = l }
}

// WithClock is passed through to the decoder.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// WithObserver receives decoder events and, if it implements
// OutcomeObserver, the terminal outcome kind.
func WithObserver(o decoder.Observer) Option {
	return func(s *settings) { s.obs = o }
}

// WithBuffer sets the Events channel capacity.
func WithBuffer(n int) Option {
	return func(s *settings) {
		if n >= 0 {
			s.buffer = n
		}
	}
}

// Session owns one decoder and one telemetry snapshot for the lifetime of
// one transport connection.
type Session struct {
	tr   Transport
	proc processor
	log  zerolog.Logger
	obs  decoder.Observer
	ctx  context.Context

	cancel    context.CancelFunc
	chunks    chan []byte
	listenErr chan error
	events    chan Outcome

	exitOnce sync.Once
	exitc    chan struct{}
	done     chan struct{}
	result   Outcome
}

// Start opens the transport, attaches a decoder for the given dialect and
// returns the running session.
// Open failures return an error wrapping ErrTransportOpen and no session.
func Start(ctx context.Context, tr Transport, identifier string, d telemetry.Dialect, opts ...Option) (*Session, error) {
	if tr == nil {
		return nil, errors.New("session: transport required")
	}

	st := settings{
		log:    zerolog.Nop(),
		buffer: 16,
		newProcessor: func(d telemetry.Dialect, emit decoder.EmitFunc, o ...decoder.Option) processor {
			return decoder.New(d, emit, o...)
		},
	}
	for _, opt := range opts {
		opt(&st)
	}

	log := st.log.With().Str("endpoint", identifier).Str("dialect", d.Name).Logger()

	log.Info().Msg("[Init] opening transport")
	if err := tr.Open(identifier); err != nil {
		log.Error().Err(err).Msg("transport open failed")
		if o, ok := st.obs.(OutcomeObserver); ok {
			o.SessionEnded("open_failed")
		}
		return nil, fmt.Errorf("%w (%s): %w", ErrTransportOpen, identifier, err)
	}

	lctx, cancel := context.WithCancel(ctx)

	s := &Session{
		tr:        tr,
		log:       log,
		obs:       st.obs,
		ctx:       lctx,
		cancel:    cancel,
		chunks:    make(chan []byte),
		listenErr: make(chan error, 1),
		events:    make(chan Outcome, st.buffer),
		exitc:     make(chan struct{}),
		done:      make(chan struct{}),
	}

	decOpts := []decoder.Option{decoder.WithLogger(log)}
	if st.now != nil {
		decOpts = append(decOpts, decoder.WithClock(st.now))
	}
	if st.obs != nil {
		decOpts = append(decOpts, decoder.WithObserver(st.obs))
	}
	s.proc = st.newProcessor(d, s.publish, decOpts...)

	go s.listen()
	go s.run()

	return s, nil
}

// Events yields Emitted outcomes followed by exactly one terminal outcome,
// then closes. Callers must drain it until closed or stop reading after Done.
func (s *Session) Events() <-chan Outcome { return s.events }

// Done is closed once the terminal outcome is known.
func (s *Session) Done() <-chan struct{} { return s.done }

// Result blocks until Done and returns the terminal outcome.
func (s *Session) Result() Outcome {
	<-s.done
	return s.result
}

// Exit ends the session with an Ended outcome.
// Safe to call any number of times from any goroutine. Once the session has
// already terminated it does nothing.
func (s *Session) Exit() {
	s.exitOnce.Do(func() { close(s.exitc) })
}

func (s *Session) listen() {
	err := s.tr.Listen(s.ctx, func(chunk []byte) {
		buf := append([]byte(nil), chunk...)
		select {
		case s.chunks <- buf:
		case <-s.ctx.Done():
		}
	})
	s.listenErr <- err
}

// run is the only goroutine touching the decoder and the events channel.
func (s *Session) run() {
	for {
		select {
		case <-s.exitc:
			s.finish(Outcome{Kind: Ended, Reason: ReasonExited})
			return

		case <-s.ctx.Done():
			s.finish(Outcome{Kind: Ended, Reason: s.ctx.Err().Error()})
			return

		case chunk := <-s.chunks:
			if err := s.proc.Process(chunk); err != nil {
				s.finish(Outcome{Kind: Failed, Err: err})
				return
			}

		case err := <-s.listenErr:
			if s.ctx.Err() != nil {
				s.finish(Outcome{Kind: Ended, Reason: s.ctx.Err().Error()})
			} else if err != nil {
				s.finish(Outcome{Kind: Failed, Err: fmt.Errorf("%w: %w", ErrTransportLost, err)})
			} else {
				s.finish(Outcome{Kind: Ended, Reason: ReasonTransportClosed})
			}
			return
		}
	}
}

func (s *Session) publish(snap telemetry.Snapshot) {
	select {
	case s.events <- Outcome{Kind: Emitted, Snapshot: snap}:
	case <-s.exitc:
	case <-s.ctx.Done():
	}
}

func (s *Session) finish(o Outcome) {
	s.cancel()
	if err := s.tr.Close(); err != nil {
		s.log.Warn().Err(err).Msg("transport close failed")
	}

	switch o.Kind {
	case Failed:
		s.log.Error().Err(o.Err).Msg("[End] workout failed")
	default:
		s.log.Info().Str("reason", o.Reason).Msg("[End] workout ended")
	}
	if obs, ok := s.obs.(OutcomeObserver); ok {
		obs.SessionEnded(o.Kind.String())
	}

	s.result = o
	close(s.done)

	s.events <- o
	close(s.events)
}

// Relay drains the session, handing every emitted snapshot to fn in order,
// and returns the terminal outcome.
func Relay(s *Session, fn func(telemetry.Snapshot)) Outcome {
	for o := range s.Events() {
		if o.Terminal() {
			return o
		}
		if fn != nil {
			fn(o.Snapshot)
		}
	}
	return s.Result()
}
