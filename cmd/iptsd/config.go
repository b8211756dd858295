package main

// Flag/env configuration, adapted from the bridge's util.go getenv
// helpers — same precedence (explicit flag overrides env, env overrides
// the built-in default).

import (
	"fmt"
	"math"
	"os"
	"strings"
)

// Config holds every knob the reference embedder exposes. It mirrors the
// shape of the teacher's BridgeConfig: one flat struct, populated first
// from env vars then overridden by flags of the same name.
type Config struct {
	Device  string
	Legacy  bool
	InvertX bool
	InvertY bool

	DisplayWidth  int
	DisplayHeight int

	MaxTruncatedStreak int

	Debug   bool
	DebugWS string

	PingSeconds        float64
	PongTimeoutSeconds float64

	ReconnectDelayMS    int
	MaxReconnectDelayMS int
}

func defaultConfig() Config {
	return Config{
		Device:              getenvDefault("IPTSD_DEVICE", "/dev/ipts0"),
		Legacy:              getenvBoolDefault("IPTSD_LEGACY", false),
		InvertX:             getenvBoolDefault("IPTSD_INVERT_X", false),
		InvertY:             getenvBoolDefault("IPTSD_INVERT_Y", false),
		DisplayWidth:        getenvIntDefault("IPTSD_DISPLAY_WIDTH", 0),
		DisplayHeight:       getenvIntDefault("IPTSD_DISPLAY_HEIGHT", 0),
		MaxTruncatedStreak:  getenvIntDefault("IPTSD_MAX_TRUNCATED_STREAK", 50),
		Debug:               getenvBoolDefault("IPTSD_DEBUG", false),
		DebugWS:             os.Getenv("IPTSD_DEBUG_WS"),
		PingSeconds:         getenvFloatDefault("IPTSD_PING_SECONDS", 2),
		PongTimeoutSeconds:  getenvFloatDefault("IPTSD_PONG_TIMEOUT_SECONDS", 8),
		ReconnectDelayMS:    getenvIntDefault("IPTSD_RECONNECT_DELAY_MS", 500),
		MaxReconnectDelayMS: getenvIntDefault("IPTSD_MAX_RECONNECT_DELAY_MS", 5000),
	}
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	var out int
	if _, err := fmt.Sscanf(v, "%d", &out); err != nil {
		return def
	}
	return out
}

func getenvFloatDefault(k string, def float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	var out float64
	if _, err := fmt.Sscanf(v, "%f", &out); err != nil {
		return def
	}
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return def
	}
	return out
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case "1", "true", "yes", "y":
		return true
	case "0", "false", "no", "n":
		return false
	default:
		return def
	}
}
