// Copyright (c) 2026 powerd authors
// SPDX-License-Identifier: Apache-2.0

package linux

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/lf-edge/eve/pkg/powerd/internal/base"
	"github.com/lf-edge/eve/pkg/powerd/internal/pmtypes"
)

// Led implements ledpolicy.Device over a tri-color sysfs LED exposed
// as three independent /sys/class/leds/<name>-{red,green,blue}
// brightness files, in the same "write a small ASCII integer to a
// sysfs attribute" style as the teacher's InitLedCmd/doLedBlink
// (cmd/ledmanager/ledmanager.go), generalized from a single-channel
// blink counter to a full RGB+flash pattern.
type Led struct {
	log  *base.LogObject
	name string

	mu       sync.Mutex
	stopFlash chan struct{}
}

// NewLed builds a Led adapter. name is the /sys/class/leds base name
// without the color suffix, e.g. "status".
func NewLed(log *base.LogObject, name string) *Led {
	return &Led{log: log, name: name}
}

func (l *Led) channelPath(channel string) string {
	return fmt.Sprintf("/sys/class/leds/%s-%s/brightness", l.name, channel)
}

func (l *Led) writeChannel(channel string, value uint8) error {
	return os.WriteFile(l.channelPath(channel), []byte(fmt.Sprintf("%d", value)), 0644)
}

func (l *Led) writeColor(c pmtypes.RGB) error {
	if err := l.writeChannel("red", c.R); err != nil {
		return err
	}
	if err := l.writeChannel("green", c.G); err != nil {
		return err
	}
	return l.writeChannel("blue", c.B)
}

// Apply lights the LED per pattern. A steady pattern (FlashNone) is a
// single synchronous write; a timed flash pattern (FlashTimed) starts
// a background on/off loop that runs until the next Apply or Off call
// supersedes it.
func (l *Led) Apply(pattern pmtypes.LedPattern) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopFlashLocked()

	scaled := scaleColor(pattern.Color, pattern.BrightnessPct)
	if pattern.FlashMode == pmtypes.FlashNone {
		return l.writeColor(scaled)
	}

	stop := make(chan struct{})
	l.stopFlash = stop
	onMs, offMs := pattern.OnMs, pattern.OffMs
	if onMs <= 0 {
		onMs = 200
	}
	if offMs <= 0 {
		offMs = 200
	}
	go l.flashLoop(scaled, time.Duration(onMs)*time.Millisecond, time.Duration(offMs)*time.Millisecond, stop)
	return nil
}

// Off extinguishes the LED and cancels any in-flight flash loop.
func (l *Led) Off() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopFlashLocked()
	return l.writeColor(pmtypes.RGB{})
}

func (l *Led) stopFlashLocked() {
	if l.stopFlash != nil {
		close(l.stopFlash)
		l.stopFlash = nil
	}
}

func (l *Led) flashLoop(color pmtypes.RGB, onDur, offDur time.Duration, stop chan struct{}) {
	for {
		if err := l.writeColor(color); err != nil {
			l.log.Errorf("led: write on-phase failed: %v", err)
			return
		}
		select {
		case <-stop:
			return
		case <-time.After(onDur):
		}
		if err := l.writeColor(pmtypes.RGB{}); err != nil {
			l.log.Errorf("led: write off-phase failed: %v", err)
			return
		}
		select {
		case <-stop:
			return
		case <-time.After(offDur):
		}
	}
}

func scaleColor(c pmtypes.RGB, pct int) pmtypes.RGB {
	if pct <= 0 {
		return pmtypes.RGB{}
	}
	if pct >= 100 {
		return c
	}
	scale := func(ch uint8) uint8 {
		return uint8(int(ch) * pct / 100)
	}
	return pmtypes.RGB{R: scale(c.R), G: scale(c.G), B: scale(c.B)}
}
