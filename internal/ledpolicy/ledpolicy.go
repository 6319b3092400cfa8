// Copyright (c) 2026 powerd authors
// SPDX-License-Identifier: Apache-2.0

// Package ledpolicy is the C6 component: a priority-ordered mapping
// from active "light events" to LED pulse patterns, adapted from the
// teacher's cmd/ledmanager/ledmanager.go model-to-pattern table and
// types.DeriveLedCounter merge idiom — generalized from one blink
// counter driven by a single pubsub topic to the six independently
// enabled/active LightEvents of §3/§4.4.
package ledpolicy

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lf-edge/eve/pkg/powerd/internal/base"
	"github.com/lf-edge/eve/pkg/powerd/internal/pmtypes"
)

// Device is the hardware handle the controller drives. Implementations
// lazily (re-)initialize on every use and self-heal from transient
// failures (§7) — mirrored here by the controller never caching an
// "is initialized" flag across calls.
type Device interface {
	Apply(pattern pmtypes.LedPattern) error
	Off() error
}

type eventState struct {
	enabled bool
	active  bool
	pattern pmtypes.LedPattern
}

// Controller is the C6 component.
type Controller struct {
	log    *base.LogObject
	device Device

	events map[pmtypes.LightEventName]*eventState

	displayMode pmtypes.DisplayPowerMode
	forcedOn    bool
	forcedOff   bool
}

// defaultPatterns mirrors the teacher's hardcoded model-to-pattern
// table (mToF in ledmanager.go), here keyed by light event instead of
// by hardware model.
func defaultPatterns() map[pmtypes.LightEventName]pmtypes.LedPattern {
	return map[pmtypes.LightEventName]pmtypes.LedPattern{
		pmtypes.BatteryLow:            {Color: pmtypes.RGB{R: 255}, OnMs: 500, OffMs: 500, FlashMode: pmtypes.FlashTimed, BrightnessPct: 100},
		pmtypes.UnreadNotifications:   {Color: pmtypes.RGB{B: 255}, OnMs: 500, OffMs: 2000, FlashMode: pmtypes.FlashTimed, BrightnessPct: 80},
		pmtypes.BluetoothEnabled:      {Color: pmtypes.RGB{B: 150, G: 150}, FlashMode: pmtypes.FlashNone, BrightnessPct: 40},
		pmtypes.BatteryFull:           {Color: pmtypes.RGB{G: 255}, FlashMode: pmtypes.FlashNone, BrightnessPct: 60},
		pmtypes.BatteryCharging:       {Color: pmtypes.RGB{R: 255, G: 165}, FlashMode: pmtypes.FlashNone, BrightnessPct: 60},
		pmtypes.Playing:               {Color: pmtypes.RGB{R: 128, B: 128}, OnMs: 1000, OffMs: 1000, FlashMode: pmtypes.FlashTimed, BrightnessPct: 50},
	}
}

// New builds a Controller over device with every LightEvent initially
// disabled and inactive.
func New(log *base.LogObject, device Device) *Controller {
	c := &Controller{
		log:         log,
		device:      device,
		events:      make(map[pmtypes.LightEventName]*eventState, len(pmtypes.AllLightEvents)),
		displayMode: pmtypes.DisplayPowerModeOff,
	}
	patterns := defaultPatterns()
	for _, name := range pmtypes.AllLightEvents {
		c.events[name] = &eventState{pattern: patterns[name]}
	}
	return c
}

// SetEnabled implements enableLightEvent/disableLightEvent of §6.
func (c *Controller) SetEnabled(event pmtypes.LightEventName, enabled bool) {
	st, ok := c.events[event]
	if !ok {
		return
	}
	st.enabled = enabled
	c.refresh()
}

// SetActive implements notifyLightEvent(event, active) of §6.
func (c *Controller) SetActive(event pmtypes.LightEventName, active bool) {
	st, ok := c.events[event]
	if !ok {
		return
	}
	st.active = active
	c.refresh()
}

// ApplyBattery derives BatteryCharging/BatteryLow/BatteryFull active
// flags from a fresh BatteryInfo sample, per §4.4: "recomputed on
// every battery notification".
func (c *Controller) ApplyBattery(info pmtypes.BatteryInfo) {
	c.events[pmtypes.BatteryCharging].active = info.State == pmtypes.BatteryStateCharging
	c.events[pmtypes.BatteryLow].active = info.Percentage < 10
	c.events[pmtypes.BatteryFull].active = info.Percentage >= 100
	c.refresh()
}

// SetDisplayMode gates LED driving: the LED is only ever driven "on"
// while the display is off (§4.4).
func (c *Controller) SetDisplayMode(mode pmtypes.DisplayPowerMode) {
	c.displayMode = mode
	c.refresh()
}

// SetPlayingData implements setPlayingData(color, on_ms, off_ms) of
// §6, resolving §9's open question: accepts both "0xRRGGBB" and
// "RRGGBB" hex forms, base 16.
func (c *Controller) SetPlayingData(colorHex string, onMs, offMs int) error {
	rgb, err := parseHexColor(colorHex)
	if err != nil {
		return err
	}
	c.events[pmtypes.Playing].pattern = pmtypes.LedPattern{
		Color:         rgb,
		OnMs:          onMs,
		OffMs:         offMs,
		FlashMode:     pmtypes.FlashTimed,
		BrightnessPct: 50,
	}
	c.refresh()
	return nil
}

func parseHexColor(s string) (pmtypes.RGB, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	if len(s) != 6 {
		return pmtypes.RGB{}, fmt.Errorf("ledpolicy: invalid color %q: want 6 hex digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return pmtypes.RGB{}, fmt.Errorf("ledpolicy: invalid color %q: %w", s, err)
	}
	return pmtypes.RGB{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
	}, nil
}

// SetColor, ForceOn, ForceOff implement the LightControl imperative
// sub-API of §4.4/§6.
func (c *Controller) SetColor(color pmtypes.RGB, onMs, offMs int) {
	c.events[pmtypes.Playing].pattern = pmtypes.LedPattern{
		Color: color, OnMs: onMs, OffMs: offMs, FlashMode: pmtypes.FlashTimed, BrightnessPct: 50,
	}
	c.refresh()
}

// ForceOn overrides the priority selection and display gating to force
// the LED on with the pattern last set by SetColor (or SetPlayingData).
func (c *Controller) ForceOn() {
	c.forcedOn = true
	c.forcedOff = false
	c.refresh()
}

// ForceOff overrides the priority selection to force the LED off.
func (c *Controller) ForceOff() {
	c.forcedOff = true
	c.forcedOn = false
	c.refresh()
}

// refresh selects the highest-priority enabled+active pattern and
// pushes it to the device, or turns the device off, per §4.4's
// display-gating and priority rules (Testable Property 6, §8).
func (c *Controller) refresh() {
	if c.forcedOff {
		if err := c.device.Off(); err != nil {
			c.log.Errorf("ledpolicy: force-off failed: %v", err)
		}
		return
	}
	if c.forcedOn {
		if err := c.device.Apply(c.events[pmtypes.Playing].pattern); err != nil {
			c.log.Errorf("ledpolicy: force-on failed: %v", err)
		}
		return
	}
	if c.displayMode != pmtypes.DisplayPowerModeOff && !c.forcedOn {
		if err := c.device.Off(); err != nil {
			c.log.Errorf("ledpolicy: display-gated off failed: %v", err)
		}
		return
	}
	for _, name := range pmtypes.AllLightEvents {
		st := c.events[name]
		if st.enabled && st.active {
			if err := c.device.Apply(st.pattern); err != nil {
				c.log.Errorf("ledpolicy: apply pattern for %s failed: %v", name, err)
			}
			return
		}
	}
	if err := c.device.Off(); err != nil {
		c.log.Errorf("ledpolicy: off failed: %v", err)
	}
}
