// internal/session/types.go
package session

import (
	"context"
	"errors"

	"github.com/tamzrod/rower-bridge/internal/telemetry"
)

// Transport is a byte source. Chunk boundaries are opaque.
// Listen delivers chunks to handler, one call at a time, until ctx is done
// or the source fails. It is only called after a successful Open.
type Transport interface {
	Open(identifier string) error
	Listen(ctx context.Context, handler func(chunk []byte)) error
	Close() error
}

var (
	// ErrTransportOpen is returned by Start when the transport cannot be opened.
	ErrTransportOpen = errors.New("session: transport open failed")

	// ErrTransportLost is carried by a Failed outcome when Listen errors out.
	ErrTransportLost = errors.New("session: transport lost")
)

const (
	ReasonExited          = "EXITED"
	ReasonTransportClosed = "transport closed"
)

// Kind tags an Outcome.
type Kind int

const (
	Emitted Kind = iota
	Ended
	Failed
)

func (k Kind) String() string {
	switch k {
	case Emitted:
		return "emitted"
	case Ended:
		return "ended"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is one value on the session stream.
// Exactly one of the fields after Kind is meaningful:
// Snapshot for Emitted, Reason for Ended, Err for Failed.
type Outcome struct {
	Kind     Kind
	Snapshot telemetry.Snapshot
	Reason   string
	Err      error
}

// Terminal reports whether o ends the stream.
func (o Outcome) Terminal() bool {
	return o.Kind != Emitted
}
