// Copyright (c) 2026 powerd authors
// SPDX-License-Identifier: Apache-2.0

// Package linux holds the Linux-specific implementations of the §6
// adapter contracts, grounded on the teacher's sysfs-writing style in
// cmd/ledmanager/ledmanager.go (InitLedCmd/doLedBlink write directly
// to /sys/class/leds/*), generalized to /sys/class/backlight.
package linux

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lf-edge/eve/pkg/powerd/internal/base"
)

// Backlight implements adapters.BrightnessControl against a
// /sys/class/backlight/<device> node, matching the teacher's pattern
// of writing small integers into sysfs attribute files.
type Backlight struct {
	log       *base.LogObject
	path      string
	maxBright int

	normalValue float64 // [0,1], remembered across pause/resume (§4.5.4)
	autobright  bool
}

// NewBacklight resolves deviceName under /sys/class/backlight (first
// entry found if deviceName is empty) and reads max_brightness once.
func NewBacklight(log *base.LogObject, deviceName string) (*Backlight, error) {
	const base_ = "/sys/class/backlight"
	if deviceName == "" {
		entries, err := os.ReadDir(base_)
		if err != nil || len(entries) == 0 {
			return &Backlight{log: log, maxBright: 255, normalValue: 1}, nil
		}
		deviceName = entries[0].Name()
	}
	path := filepath.Join(base_, deviceName)
	maxRaw, err := os.ReadFile(filepath.Join(path, "max_brightness"))
	max := 255
	if err == nil {
		if v, perr := strconv.Atoi(strings.TrimSpace(string(maxRaw))); perr == nil && v > 0 {
			max = v
		}
	}
	return &Backlight{log: log, path: path, maxBright: max, normalValue: 1}, nil
}

func (b *Backlight) write(raw int) {
	if b.path == "" {
		return
	}
	if raw < 0 {
		raw = 0
	}
	if raw > b.maxBright {
		raw = b.maxBright
	}
	f := filepath.Join(b.path, "brightness")
	if err := os.WriteFile(f, []byte(fmt.Sprintf("%d", raw)), 0644); err != nil {
		b.log.Errorf("backlight: write %s failed: %v", f, err)
	}
}

// SetOffBrightness drives the backlight to zero.
func (b *Backlight) SetOffBrightness() { b.write(0) }

// SetDimBrightness drives the backlight to a fixed low level.
func (b *Backlight) SetDimBrightness() { b.write(b.maxBright / 10) }

// SetNormalBrightness restores the last remembered normal brightness value.
func (b *Backlight) SetNormalBrightness() { b.write(int(b.normalValue * float64(b.maxBright))) }

// SetNormalBrightnessValue remembers and applies v in [0,1].
func (b *Backlight) SetNormalBrightnessValue(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	b.normalValue = v
	b.write(int(v * float64(b.maxBright)))
}

// EnableAutobrightness marks ambient-light autoregulation as active.
// It only records the flag; the daemon's own backlight writes are not
// suppressed while it is set.
func (b *Backlight) EnableAutobrightness() { b.autobright = true }

// DisableAutobrightness hands backlight control back to the daemon.
func (b *Backlight) DisableAutobrightness() { b.autobright = false }
