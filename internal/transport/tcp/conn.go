// internal/transport/tcp/conn.go
package tcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"
)

// Scheme prefixes endpoints served by this transport.
const Scheme = "tcp://"

// Conn is a session.Transport over a raw TCP serial bridge (ser2net style).
// No reconnect: a dropped bridge ends the session.
type Conn struct {
	dialTimeout time.Duration
	readTimeout time.Duration
	bufSize     int

	mu   sync.Mutex
	conn net.Conn
}

type Option func(*Conn)

func WithDialTimeout(d time.Duration) Option {
	return func(c *Conn) {
		if d > 0 {
			c.dialTimeout = d
		}
	}
}

func WithReadTimeout(d time.Duration) Option {
	return func(c *Conn) {
		if d > 0 {
			c.readTimeout = d
		}
	}
}

func WithBufferSize(n int) Option {
	return func(c *Conn) {
		if n > 0 {
			c.bufSize = n
		}
	}
}

func New(opts ...Option) *Conn {
	c := &Conn{
		dialTimeout: 5 * time.Second,
		readTimeout: 500 * time.Millisecond,
		bufSize:     256,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open dials host:port; the tcp:// prefix is optional.
func (c *Conn) Open(endpoint string) error {
	addr := strings.TrimPrefix(endpoint, Scheme)
	if addr == "" {
		return errors.New("tcp: address required")
	}

	conn, err := net.DialTimeout("tcp", addr, c.dialTimeout)
	if err != nil {
		return fmt.Errorf("tcp: dial %s: %w", addr, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	return nil
}

// Listen reads until ctx is done, the peer closes (nil) or the read fails.
func (c *Conn) Listen(ctx context.Context, handler func(chunk []byte)) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errors.New("tcp: not open")
	}

	buf := make([]byte, c.bufSize)
	for {
		if ctx.Err() != nil {
			return nil
		}
		_ = conn.SetReadDeadline(time.Now().Add(c.readTimeout))

		n, err := conn.Read(buf)
		if n > 0 {
			handler(buf[:n])
		}
		if err == nil {
			continue
		}
		if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
			continue
		}
		if errors.Is(err, io.EOF) || ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("tcp: read: %w", err)
	}
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
