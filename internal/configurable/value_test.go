// Copyright (c) 2026 powerd authors
// SPDX-License-Identifier: Apache-2.0

package configurable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValueSelectsFieldBySource(t *testing.T) {
	v := New(60*time.Second, 120*time.Second)
	assert.True(t, v.IsOnBattery())
	assert.Equal(t, 60*time.Second, v.Get(), "defaults to on-battery")

	v.SetIsOnBattery(false)
	assert.Equal(t, 120*time.Second, v.Get())
}

func TestValueSourceChangeRoundTrip(t *testing.T) {
	// Testable Property 8: after a battery->line transition then a
	// line->battery transition, Get() reflects the field for the
	// currently active source, not whichever was set most recently.
	v := New("dim", "bright")
	v.SetIsOnBattery(false)
	assert.Equal(t, "bright", v.Get())
	v.SetIsOnBattery(true)
	assert.Equal(t, "dim", v.Get())
}

func TestSetOnBatteryDoesNotAffectLinePowerField(t *testing.T) {
	v := New(1, 2)
	v.SetOnBattery(100)
	assert.Equal(t, 100, v.Get())
	v.SetIsOnBattery(false)
	assert.Equal(t, 2, v.Get(), "line-power field untouched by SetOnBattery")
}

func TestSetOnLinePowerDoesNotAffectBatteryField(t *testing.T) {
	v := New(1, 2)
	v.SetIsOnBattery(false)
	v.SetOnLinePower(200)
	assert.Equal(t, 200, v.Get())
	v.SetIsOnBattery(true)
	assert.Equal(t, 1, v.Get(), "battery field untouched by SetOnLinePower")
}
