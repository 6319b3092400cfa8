// Copyright (c) 2026 powerd authors
// SPDX-License-Identifier: Apache-2.0

package statemachine

import (
	"github.com/lf-edge/eve/pkg/powerd/internal/pmtypes"
	"github.com/lf-edge/eve/pkg/powerd/internal/timer"
)

// turnOffDisplay is §4.5.2's turn_off_display(reason): a no-op while
// paused. Allows automatic suspend iff reason is not proximity AND
// (reason is not activity OR suspend is already allowed) — see
// Testable Property 2 in §8.
func (m *Machine) turnOffDisplay(reason pmtypes.DisplayPowerChangeReason) {
	if m.paused {
		return
	}
	m.adapt.Brightness.SetOffBrightness()
	m.adapt.Display.TurnOff(pmtypes.FilterAll)
	if reason != pmtypes.ReasonProximity {
		m.adapt.Modem.SetLowPowerMode()
	}
	m.displayPowerMode = pmtypes.DisplayPowerModeOff
	m.displayPowerModeReason = reason
	m.alarms.Cancel(m.alarmInactivityDisplayOff)
	m.alarmInactivityDisplayOff = timer.Invalid
	m.adapt.DisplaySink.NotifyDisplayPowerOff(reason)
	m.adapt.Perf.DisableInteractiveMode()

	allowSuspend := reason != pmtypes.ReasonProximity && (reason != pmtypes.ReasonActivity || m.suspendAllowed)
	if allowSuspend {
		m.adapt.System.AllowAutomaticSuspend(suspendIDDisplay)
	}
}

// turnOnDisplayWithoutTimeout is §4.5.2's
// turn_on_display_without_timeout(reason): raises the performance
// hint, drives the display on (external-only if the lid is closed),
// sets normal brightness (skipped while the lid is closed), restores
// modem normal power, and notifies the sink. A no-op while paused.
func (m *Machine) turnOnDisplayWithoutTimeout(reason pmtypes.DisplayPowerChangeReason) {
	if m.paused {
		return
	}
	m.adapt.System.DisallowAutomaticSuspend(suspendIDDisplay)
	m.adapt.Perf.EnableInteractiveMode()

	filter := pmtypes.FilterAll
	if m.lidClosed {
		filter = pmtypes.FilterExternal
	}
	m.adapt.Display.TurnOn(filter)

	m.displayPowerMode = pmtypes.DisplayPowerModeOn
	m.displayPowerModeReason = reason

	if !m.lidClosed {
		m.adapt.Brightness.SetNormalBrightness()
	}
	m.adapt.Modem.SetNormalPowerMode()
	m.adapt.DisplaySink.NotifyDisplayPowerOn(reason)
}

// turnOnDisplayWithNormalTimeout is turn_on_display_without_timeout
// followed by arming the normal inactivity alarm set.
func (m *Machine) turnOnDisplayWithNormalTimeout(reason pmtypes.DisplayPowerChangeReason) {
	m.turnOnDisplayWithoutTimeout(reason)
	if m.paused {
		return
	}
	m.armNormalInactivity()
}

// turnOnDisplayWithReducedTimeout is turn_on_display_without_timeout
// followed by arming the reduced display-off alarm.
func (m *Machine) turnOnDisplayWithReducedTimeout(reason pmtypes.DisplayPowerChangeReason) {
	m.turnOnDisplayWithoutTimeout(reason)
	if m.paused {
		return
	}
	m.userInactivityDisplayOffTimePoint = m.now()
	m.armReducedAlarm()
}

// brighten restores normal brightness without touching the display
// mode, used by the "brighten" steps of §4.5.3's event table.
func (m *Machine) brighten() {
	if m.paused {
		return
	}
	m.adapt.Brightness.SetNormalBrightness()
}
