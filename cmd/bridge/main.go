// cmd/bridge/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tamzrod/cockpit-bridge/internal/bridge"
	"github.com/tamzrod/cockpit-bridge/internal/config"
	"github.com/tamzrod/cockpit-bridge/internal/link"
	"github.com/tamzrod/cockpit-bridge/internal/ring"
	"github.com/tamzrod/cockpit-bridge/internal/trace"
	"github.com/tamzrod/cockpit-bridge/internal/writer"
)

// pumpBackoff spaces out retries after a failed read on a link.
const pumpBackoff = 100 * time.Millisecond

func setupLogging(l config.LogsConfig) error {
	if l.Directory == "" {
		return nil
	}
	if err := os.MkdirAll(l.Directory, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(l.Directory, "bridge.log"),
		MaxSize:    l.MaxSizeMB,
		MaxAge:     l.MaxAgeDays,
		MaxBackups: l.MaxBackups,
		Compress:   l.Compress,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rotator))
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	return nil
}

func main() {
	cfgPath := flag.String("config", "bridge.yaml", "path to configuration file")
	flag.Parse()

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}
	config.Normalize(cfg)
	b := cfg.Bridge

	if err := setupLogging(b.Logs); err != nil {
		log.Fatalf("setup logging: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --------------------
	// Links + receive pumps
	// --------------------

	upstream, err := link.Open(link.UpstreamConfig(b.Upstream))
	if err != nil {
		log.Fatalf("upstream open failed (endpoint=%s): %v", b.Upstream.Endpoint, err)
	}
	defer upstream.Close()

	busPort, err := link.Open(link.BusConfig(b.Bus))
	if err != nil {
		log.Fatalf("bus open failed (endpoint=%s): %v", b.Bus.Endpoint, err)
	}
	defer busPort.Close()

	upRx, err := ring.New(b.Ring.Upstream)
	if err != nil {
		log.Fatalf("upstream ring: %v", err)
	}
	busRx, err := ring.New(b.Ring.Bus)
	if err != nil {
		log.Fatalf("bus ring: %v", err)
	}

	go ring.Pump(ctx, "upstream", upstream, upRx, pumpBackoff)
	go ring.Pump(ctx, "bus", busPort, busRx, pumpBackoff)

	// --------------------
	// Trace (optional)
	// --------------------

	var rec trace.Recorder = trace.Noop{}
	if b.Trace.Path != "" {
		fr, err := trace.OpenFile(b.Trace.Path)
		if err != nil {
			log.Fatalf("trace open failed: %v", err)
		}
		defer fr.Close()
		rec = fr
		log.Printf("tracing enabled (path=%s session=%s)", b.Trace.Path, fr.Session())
	}

	// --------------------
	// Bridge loop
	// --------------------

	br, err := bridge.Build(b, bridge.Links{
		UpstreamRx: upRx,
		UpstreamTx: upstream,
		BusRx:      busRx,
		BusTx:      busPort,
	}, rec)
	if err != nil {
		log.Fatalf("bridge build failed: %v", err)
	}

	// --------------------
	// Diagnostics mirror (optional)
	// --------------------

	if _, enabled := writer.BuildStatusPlan(b); enabled {
		sw, closeStatus, err := writer.BuildStatusWriter(b)
		if err != nil {
			log.Fatalf("diagnostics writer failed (endpoint=%s): %v", b.Diagnostics.Endpoint, err)
		}
		defer closeStatus()

		go bridge.RunDiagnostics(
			ctx,
			br,
			sw,
			time.Duration(b.Diagnostics.IntervalMs)*time.Millisecond,
			time.Duration(b.Diagnostics.StaleMs)*time.Millisecond,
		)
	}

	log.Printf("bridge running (mode=%s upstream=%s bus=%s outputs=%d slaves=%d)",
		b.Mode, b.Upstream.Endpoint, b.Bus.Endpoint, len(b.Outputs), len(b.Slaves))

	br.Run(ctx)

	log.Printf("bridge stopped")
}
