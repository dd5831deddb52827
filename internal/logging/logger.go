// internal/logging/logger.go
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	EnvLogLevel  = "ROWERBRIDGE_LOG_LEVEL"
	EnvLogPretty = "ROWERBRIDGE_LOG_PRETTY"

	App = "rowerbridge"
)

type Config struct {
	Level  string
	Pretty bool
	Out    io.Writer // default os.Stderr

	// Getenv reads overrides; default os.Getenv.
	Getenv func(string) string
}

// New builds the process logger. Environment overrides win over config.
func New(cfg Config) zerolog.Logger {
	if cfg.Out == nil {
		cfg.Out = os.Stderr
	}
	if cfg.Getenv == nil {
		cfg.Getenv = os.Getenv
	}

	level, ok := ParseLevel(cfg.Level)
	if !ok {
		level = zerolog.InfoLevel
	}
	if lvl, ok := ParseLevel(cfg.Getenv(EnvLogLevel)); ok {
		level = lvl
	}

	pretty := cfg.Pretty
	if v, ok := parseBool(cfg.Getenv(EnvLogPretty)); ok {
		pretty = v
	}

	out := cfg.Out
	if pretty {
		out = zerolog.ConsoleWriter{
			Out:        cfg.Out,
			TimeFormat: time.RFC3339,
		}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("app", App).
		Logger()
}

// ParseLevel maps a config or env value to a zerolog level.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
