package main

// Character-device read loop. Each successful read() on the IPTS device
// returns exactly one whole HID report, so unlike the teacher's
// input_event byte-stream parser (linux_input.go's inputParser, which has
// to resynchronize on a fixed struct size), there's no reassembly to do —
// only poll-for-readiness, read, and hand the buffer straight to the
// parser. The poll-then-read shape and unix.SetNonblock call are lifted
// directly from device_select.go's probeDevice.

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/quo/iptsd/ipts"
)

const maxReportSize = 1 << 16

// runDeviceForever opens cfg.Device, drives reads into parser until a
// read streak of truncated/failed reports reaches
// cfg.MaxTruncatedStreak, then backs off and reopens — mirroring
// RunBridgeForever's reconnect loop in the teacher's bridge.go.
func runDeviceForever(cfg Config, parser *ipts.Parser, log *logger) error {
	reconnectDelay := time.Duration(cfg.ReconnectDelayMS) * time.Millisecond
	maxReconnectDelay := time.Duration(cfg.MaxReconnectDelayMS) * time.Millisecond

	for {
		err := runDeviceOnce(cfg, parser, log)
		j := time.Duration(rand.Int63n(int64(100 * time.Millisecond)))
		log.infof("device loop exited (err=%v); reconnecting in %s", err, reconnectDelay+j)
		time.Sleep(reconnectDelay + j)
		reconnectDelay = time.Duration(math.Min(float64(maxReconnectDelay), float64(reconnectDelay)*1.7))
	}
}

func runDeviceOnce(cfg Config, parser *ipts.Parser, log *logger) error {
	f, err := os.Open(cfg.Device)
	if err != nil {
		return err
	}
	defer f.Close()

	fd := int(f.Fd())
	if err := unix.SetNonblock(fd, true); err != nil {
		return fmt.Errorf("set nonblocking: %w", err)
	}

	buf := make([]byte, maxReportSize)
	streak := 0

	for {
		pfd := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		n, err := unix.Poll(pfd, 1000)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return fmt.Errorf("poll: %w", err)
		}
		if n == 0 || pfd[0].Revents&unix.POLLIN == 0 {
			continue
		}

		nr, err := unix.Read(fd, buf)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				continue
			}
			return fmt.Errorf("read: %w", err)
		}
		if nr == 0 {
			return fmt.Errorf("device closed")
		}

		report := buf[:nr]
		var parseErr error
		if cfg.Legacy {
			parseErr = parser.ParseLegacyContainer(report)
		} else {
			parseErr = parser.Parse(report)
		}

		if parseErr != nil {
			streak++
			log.infof("truncated report (streak=%d/%d): %v", streak, cfg.MaxTruncatedStreak, parseErr)
			if streak >= cfg.MaxTruncatedStreak {
				return fmt.Errorf("too many consecutive truncated reports: %w", parseErr)
			}
			continue
		}
		streak = 0
	}
}
