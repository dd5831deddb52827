// internal/transport/builder.go
package transport

import (
	"strings"
	"time"

	"github.com/tamzrod/rower-bridge/internal/config"
	"github.com/tamzrod/rower-bridge/internal/session"
	"github.com/tamzrod/rower-bridge/internal/transport/serial"
	"github.com/tamzrod/rower-bridge/internal/transport/tcp"
)

// Build picks the transport for the endpoint scheme.
// Config must already be normalized.
func Build(src config.SourceConfig) session.Transport {
	timeout := time.Duration(src.ReadTimeoutMs) * time.Millisecond

	if strings.HasPrefix(src.Endpoint, tcp.Scheme) {
		return tcp.New(tcp.WithReadTimeout(timeout))
	}

	return serial.New(
		serial.WithBaudRate(src.BaudRate),
		serial.WithReadTimeout(timeout),
	)
}
