// Copyright (c) 2026 powerd authors
// SPDX-License-Identifier: Apache-2.0

package statemachine

import (
	"github.com/lf-edge/eve/pkg/powerd/internal/adapters"
	"github.com/lf-edge/eve/pkg/powerd/internal/pmtypes"
	"github.com/lf-edge/eve/pkg/powerd/internal/timer"
)

// Start is §4.5.4's start(): reads the power supply, propagates it to
// every ConfigurableValue, disables the platform's default power
// button/lid handlers, and optionally turns the display on.
func (m *Machine) Start(source adapters.PowerSource) {
	onBattery := source.IsUsingBatteryPower()
	m.normalDisplayOffTimeout.SetIsOnBattery(onBattery)
	m.normalSuspendTimeout.SetIsOnBattery(onBattery)
	m.lidAction.SetIsOnBattery(onBattery)

	m.adapt.System.DisallowDefaultSystemHandlers()

	m.paused = false
	if m.durations.TurnOnDisplayAtStartup {
		m.turnOnDisplayWithNormalTimeout(pmtypes.ReasonUnknown)
	}
}

// pause is §4.5.4's pause(): cancels the long-press alarm, disables
// proximity events, disables autobrightness, and re-enables the
// platform's default handlers. All other state is retained.
func (m *Machine) pause() {
	if m.paused {
		return
	}
	m.alarms.Cancel(m.alarmPowerButtonLongPress)
	m.alarmPowerButtonLongPress = timer.Invalid
	m.adapt.Proximity.DisableProximityEvents()
	m.adapt.Brightness.DisableAutobrightness()
	m.adapt.System.AllowDefaultSystemHandlers()
	m.paused = true
}

// resume is §4.5.4's resume(): the inverse of pause, followed by
// forcing the display on with a normal timeout.
func (m *Machine) resume() {
	if !m.paused {
		return
	}
	m.paused = false
	m.adapt.System.DisallowDefaultSystemHandlers()
	if m.proximityEnablement.Current() {
		m.adapt.Proximity.EnableProximityEvents()
	}
	if m.autobrightnessEnabled {
		m.adapt.Brightness.EnableAutobrightness()
	} else {
		m.adapt.Brightness.DisableAutobrightness()
	}
	m.adapt.Brightness.SetNormalBrightnessValue(m.normalBrightnessValue)
	m.turnOnDisplayWithNormalTimeout(pmtypes.ReasonUnknown)
}
