package main

// Reference embedder for the ipts package.
//
// This binary is not the object of study — github.com/quo/iptsd/ipts is —
// but every daemon needs a main, and a real embedder wires exactly this
// much: open the device, drive the parser, route events to a display-size
// source / contact tracker / virtual-input emitter, and optionally mirror
// decoded events to a diagnostic websocket. Code is split across:
//
//   - config.go: env/flag helpers
//   - log.go: bracket-tagged stderr logging gated by -debug
//   - device.go: char-device read loop, reconnect/backoff, truncation streak
//   - debug_ws.go: optional reconnecting websocket relay for a visualizer
//   - collaborators.go: the interfaces the core parser leaves unspecified,
//     plus inert stub implementations

import (
	"flag"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sys/unix"

	"github.com/quo/iptsd/ipts"
)

func main() {
	cfg := defaultConfig()

	flag.StringVar(&cfg.Device, "device", cfg.Device, "IPTS character device path")
	flag.BoolVar(&cfg.Legacy, "legacy", cfg.Legacy, "Use the legacy flat container grammar instead of the nested HID-frame grammar")
	flag.BoolVar(&cfg.InvertX, "invert-x", cfg.InvertX, "Invert the X axis of DFT-localized stylus position")
	flag.BoolVar(&cfg.InvertY, "invert-y", cfg.InvertY, "Invert the Y axis of DFT-localized stylus position")
	flag.IntVar(&cfg.DisplayWidth, "display-width", cfg.DisplayWidth, "Fallback logical display width, used until a Metadata frame arrives")
	flag.IntVar(&cfg.DisplayHeight, "display-height", cfg.DisplayHeight, "Fallback logical display height, used until a Metadata frame arrives")
	flag.IntVar(&cfg.MaxTruncatedStreak, "max-truncated-streak", cfg.MaxTruncatedStreak, "Consecutive truncated reports before giving up and reconnecting")
	flag.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Print decoded events and reconnect/backoff diagnostics")
	flag.StringVar(&cfg.DebugWS, "debug-ws", cfg.DebugWS, "If set, mirror decoded events as JSON to this websocket URL")
	flag.Float64Var(&cfg.PingSeconds, "ping-seconds", cfg.PingSeconds, "Debug-ws ping interval (seconds)")
	flag.Float64Var(&cfg.PongTimeoutSeconds, "pong-timeout-seconds", cfg.PongTimeoutSeconds, "Debug-ws reconnect if no pong is received in this window")
	flag.IntVar(&cfg.ReconnectDelayMS, "reconnect-delay-ms", cfg.ReconnectDelayMS, "Initial device reconnect delay (milliseconds)")
	flag.IntVar(&cfg.MaxReconnectDelayMS, "max-reconnect-delay-ms", cfg.MaxReconnectDelayMS, "Maximum device reconnect delay (milliseconds)")
	flag.Parse()

	log := &logger{debug: cfg.Debug}

	if err := run(cfg, log); err != nil {
		log.errorf("%v", err)
		os.Exit(1)
	}
}

func run(cfg Config, log *logger) error {
	parser := &ipts.Parser{InvertX: cfg.InvertX, InvertY: cfg.InvertY}

	display := &metadataDisplaySize{fallback: &staticDisplaySize{width: cfg.DisplayWidth, height: cfg.DisplayHeight}}
	tracker := &stdoutContactTracker{log: log}
	emitter := &stdoutInputEmitter{log: log}

	var relay *debugRelay
	if cfg.DebugWS != "" {
		pingEvery := time.Duration(cfg.PingSeconds * float64(time.Second))
		pongWait := time.Duration(cfg.PongTimeoutSeconds * float64(time.Second))
		relay = newDebugRelay(cfg.DebugWS, pingEvery, pongWait, log)
	}

	parser.OnMetadata = func(m ipts.Metadata) {
		display.observe(m)
		if relay != nil {
			relay.pushMetadata(m)
		}
	}
	parser.OnHeatmap = func(h ipts.Heatmap) {
		tracker.TrackContacts(h)
		if relay != nil {
			relay.pushHeatmap(h)
		}
	}
	parser.OnStylus = func(d ipts.StylusData) {
		emitter.EmitStylus(d)
		if relay != nil {
			relay.pushStylus(d)
		}
	}
	parser.OnSingletouch = func(d ipts.SingletouchData) {
		emitter.EmitSingletouch(d)
	}
	parser.OnDftWindow = func(w ipts.DftWindow) {
		if relay != nil {
			relay.pushDftWindow(w)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, unix.SIGINT, unix.SIGTERM)

	errCh := make(chan error, 1)
	go func() { errCh <- runDeviceForever(cfg, parser, log) }()

	select {
	case sig := <-sigCh:
		log.infof("received signal %v, shutting down", sig)
		return nil
	case err := <-errCh:
		return err
	}
}
