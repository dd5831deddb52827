// cmd/rowerbridge/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/tamzrod/rower-bridge/internal/config"
	"github.com/tamzrod/rower-bridge/internal/logging"
	"github.com/tamzrod/rower-bridge/internal/metrics"
	"github.com/tamzrod/rower-bridge/internal/session"
	"github.com/tamzrod/rower-bridge/internal/synthetic"
	"github.com/tamzrod/rower-bridge/internal/telemetry"
	"github.com/tamzrod/rower-bridge/internal/transport"
	"github.com/tamzrod/rower-bridge/internal/writer"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return runContext(ctx, args, stdout, stderr, transport.Build)
}

// runContext runs one workout. Cancelling ctx is the interrupt: it exits the
// session rather than tearing it down.
func runContext(
	ctx context.Context,
	args []string,
	stdout, stderr io.Writer,
	newTransport func(config.SourceConfig) session.Transport,
) int {
	fs := flag.NewFlagSet("rowerbridge", flag.ContinueOnError)
	fs.SetOutput(stderr)

	cfgPath := fs.String("config", "", "YAML config file")
	port := fs.String("port", "", "console device path or tcp://host:port (overrides config)")
	test := fs.Bool("test", false, "synthetic workout, no console needed")
	dialect := fs.String("dialect", "", "s4 or s4-revised (overrides config)")

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(stderr, "unexpected arguments:", fs.Args())
		return exitUsage
	}

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	if *port != "" {
		cfg.Bridge.Source.Endpoint = *port
	}
	if *test {
		cfg.Bridge.Synthetic.Enabled = true
	}
	if *dialect != "" {
		cfg.Bridge.Dialect.Name = *dialect
	}

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintln(stderr, "config validation failed:", err)
		return exitUsage
	}
	config.Normalize(cfg)

	b := cfg.Bridge

	d, err := b.Dialect.Resolve()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	log := logging.New(logging.Config{
		Level:  b.Log.Level,
		Pretty: b.Log.Pretty,
		Out:    stderr,
	})

	// --------------------
	// Metrics
	// --------------------

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	if b.Metrics.Listen != "" {
		go func() {
			if err := metrics.Serve(ctx, b.Metrics.Listen, reg); err != nil {
				log.Error().Err(err).Str("listen", b.Metrics.Listen).Msg("metrics server stopped")
			}
		}()
	}

	// --------------------
	// Sinks
	// --------------------

	sinks, closeSinks, err := writer.Build(b.Outputs, stdout)
	if err != nil {
		log.Error().Err(err).Msg("writer build failed")
		return exitFailed
	}
	defer func() {
		if err := closeSinks(); err != nil {
			log.Warn().Err(err).Msg("writer close failed")
		}
	}()

	broadcast := func(s telemetry.Snapshot) {
		if err := sinks.Broadcast(s); err != nil {
			m.BroadcastFailed()
			log.Warn().Err(err).Msg("broadcast failed")
		}
	}

	if b.Synthetic.Enabled {
		return runSynthetic(ctx, log, b.Synthetic, d, broadcast)
	}

	// --------------------
	// Console session
	// --------------------

	s, err := session.Start(
		context.Background(),
		newTransport(b.Source),
		b.Source.Endpoint,
		d,
		session.WithLogger(log),
		session.WithObserver(m),
	)
	if err != nil {
		log.Error().Err(err).Msg("start failed")
		return exitFailed
	}

	go func() {
		select {
		case <-ctx.Done():
			s.Exit()
		case <-s.Done():
		}
	}()

	out := session.Relay(s, broadcast)

	if out.Kind == session.Failed {
		if err := sinks.Fault(); err != nil {
			log.Warn().Err(err).Msg("fault publish failed")
		}
		return exitFailed
	}
	return exitOK
}

func runSynthetic(
	ctx context.Context,
	log zerolog.Logger,
	cfg config.SyntheticConfig,
	d telemetry.Dialect,
	fn func(telemetry.Snapshot),
) int {
	src, err := synthetic.New(synthetic.Config{
		Interval: time.Duration(cfg.IntervalMs) * time.Millisecond,
		Dialect:  d,
		Seed:     cfg.Seed,
	})
	if err != nil {
		log.Error().Err(err).Msg("synthetic source failed")
		return exitFailed
	}

	log.Info().Str("dialect", d.Name).Int("interval_ms", cfg.IntervalMs).Msg("[Init] synthetic workout")
	src.Run(ctx, fn)
	log.Info().Str("reason", session.ReasonExited).Msg("[End] workout ended")

	return exitOK
}
