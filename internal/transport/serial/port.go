// internal/transport/serial/port.go
package serial

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/goburrow/serial"
)

// Console line settings: 8N1.
const (
	DefaultBaudRate = 1200
	dataBits        = 8
	stopBits        = 1
	parity          = "N"

	defaultReadTimeout = 500 * time.Millisecond
	readBufSize        = 256
)

// Port is a session.Transport over a local serial device.
type Port struct {
	baudRate    int
	readTimeout time.Duration
	open        func(*serial.Config) (io.ReadWriteCloser, error)

	mu   sync.Mutex
	port io.ReadWriteCloser
}

type Option func(*Port)

func WithBaudRate(n int) Option {
	return func(p *Port) {
		if n > 0 {
			p.baudRate = n
		}
	}
}

// WithReadTimeout bounds each read so Listen can observe cancellation.
func WithReadTimeout(d time.Duration) Option {
	return func(p *Port) {
		if d > 0 {
			p.readTimeout = d
		}
	}
}

func withOpener(fn func(*serial.Config) (io.ReadWriteCloser, error)) Option {
	return func(p *Port) { p.open = fn }
}

func New(opts ...Option) *Port {
	p := &Port{
		baudRate:    DefaultBaudRate,
		readTimeout: defaultReadTimeout,
		open: func(c *serial.Config) (io.ReadWriteCloser, error) {
			return serial.Open(c)
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Open opens the device at path, e.g. /dev/ttyACM0 or COM3.
func (p *Port) Open(path string) error {
	if path == "" {
		return errors.New("serial: device path required")
	}

	port, err := p.open(&serial.Config{
		Address:  path,
		BaudRate: p.baudRate,
		DataBits: dataBits,
		StopBits: stopBits,
		Parity:   parity,
		Timeout:  p.readTimeout,
	})
	if err != nil {
		return fmt.Errorf("serial: open %s: %w", path, err)
	}

	p.mu.Lock()
	p.port = port
	p.mu.Unlock()
	return nil
}

// Listen reads until ctx is done or the device fails.
// Read timeouts are idle polls, not errors.
func (p *Port) Listen(ctx context.Context, handler func(chunk []byte)) error {
	p.mu.Lock()
	port := p.port
	p.mu.Unlock()
	if port == nil {
		return errors.New("serial: not open")
	}

	buf := make([]byte, readBufSize)
	for {
		if ctx.Err() != nil {
			return nil
		}

		n, err := port.Read(buf)
		if n > 0 {
			handler(buf[:n])
		}
		if err == nil {
			continue
		}
		if errors.Is(err, serial.ErrTimeout) {
			continue
		}
		if ctx.Err() != nil {
			// closed underneath us by Close
			return nil
		}
		return fmt.Errorf("serial: read: %w", err)
	}
}

func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.port == nil {
		return nil
	}
	err := p.port.Close()
	p.port = nil
	return err
}
