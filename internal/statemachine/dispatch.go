// Copyright (c) 2026 powerd authors
// SPDX-License-Identifier: Apache-2.0

package statemachine

import (
	"time"

	"github.com/lf-edge/eve/pkg/powerd/internal/allowance"
	"github.com/lf-edge/eve/pkg/powerd/internal/config"
	"github.com/lf-edge/eve/pkg/powerd/internal/eventqueue"
	"github.com/lf-edge/eve/pkg/powerd/internal/pmtypes"
	"github.com/lf-edge/eve/pkg/powerd/internal/timer"
)

func (m *Machine) displayOn() bool {
	return m.displayPowerMode == pmtypes.DisplayPowerModeOn
}

// Dispatch consumes one Event, mutating state and issuing actuator
// calls per the table in §4.5.3. It runs to completion with no
// suspension point (§5).
func (m *Machine) Dispatch(ev eventqueue.Event) {
	switch ev.Kind {
	case eventqueue.KindPowerButtonPress:
		m.onPowerButtonPress()
	case eventqueue.KindPowerButtonRelease:
		m.onPowerButtonRelease()
	case eventqueue.KindUserActivityChanging:
		m.onUserActivityChanging()
	case eventqueue.KindUserActivityExtending:
		m.onUserActivityExtending()
	case eventqueue.KindActiveCall:
		m.onActiveCall()
	case eventqueue.KindNoActiveCall:
		m.onNoActiveCall()
	case eventqueue.KindNotification:
		m.onNotification()
	case eventqueue.KindNoNotification:
		m.onNoNotification()
	case eventqueue.KindProximityFar:
		m.onProximityFar()
	case eventqueue.KindProximityNear:
		m.onProximityNear()
	case eventqueue.KindDisableInactivityTimeout:
		m.onDisableInactivityTimeout()
	case eventqueue.KindEnableInactivityTimeout:
		m.inactivityTimeoutAllowance.Set("client", true)
	case eventqueue.KindSetInactivityBehavior:
		m.onSetInactivityBehavior(ev)
	case eventqueue.KindLidClosed:
		m.onLidClosed()
	case eventqueue.KindLidOpen:
		m.onLidOpen()
	case eventqueue.KindPowerSourceChange:
		m.onPowerSourceChange(ev)
	case eventqueue.KindPowerSourceCritical:
		m.onPowerSourceCritical()
	case eventqueue.KindAllowSuspend:
		m.onAllowSuspend()
	case eventqueue.KindDisallowSuspend:
		m.suspendAllowed = false
	case eventqueue.KindSystemResume:
		m.turnOnDisplayWithNormalTimeout(pmtypes.ReasonActivity)
	case eventqueue.KindAlarm:
		m.onAlarm(ev)
	case eventqueue.KindSetNormalBrightnessValue:
		m.onSetNormalBrightnessValue(ev.BrightnessValue)
	case eventqueue.KindEnableAutobrightness:
		m.onEnableAutobrightness()
	case eventqueue.KindDisableAutobrightness:
		m.onDisableAutobrightness()
	case eventqueue.KindRequestTurnOnDisplay:
		m.turnOnDisplayWithNormalTimeout(pmtypes.ReasonActivity)
	case eventqueue.KindPause:
		m.pause()
	case eventqueue.KindResume:
		m.resume()
	case eventqueue.KindSetLidBehavior:
		m.onSetLidBehavior(ev)
	case eventqueue.KindSetCriticalPowerBehavior:
		m.criticalPowerAction = fromActionPayload(ev.CriticalPowerAction)
	case eventqueue.KindReloadDurations:
		m.onReloadDurations(ev.Durations)
	default:
		m.log.Warnf("statemachine: ignoring unknown event kind %d", ev.Kind)
	}
}

func (m *Machine) onPowerButtonPress() {
	if m.displayOn() {
		if m.durations.TreatPowerButtonAsUserActivity {
			m.brighten()
			m.armNormalInactivity()
		} else {
			m.displayPowerModeAtPowerButtonPress = m.displayPowerMode
			m.havePowerButtonSnapshot = true
		}
	} else {
		m.turnOnDisplayWithNormalTimeout(pmtypes.ReasonPowerButton)
	}
	m.longPressDetected = false
	m.alarms.Cancel(m.alarmPowerButtonLongPress)
	m.alarmPowerButtonLongPress = m.alarms.ScheduleIn(m.durations.PowerButtonLongPressTimeout, eventqueue.AlarmPowerButtonLongPress)
}

func (m *Machine) onPowerButtonRelease() {
	if m.longPressDetected {
		m.longPressDetected = false
		m.alarms.Cancel(m.alarmPowerButtonLongPress)
		m.alarmPowerButtonLongPress = timer.Invalid
		return
	}
	if m.havePowerButtonSnapshot {
		if m.displayPowerModeAtPowerButtonPress == pmtypes.DisplayPowerModeOn &&
			!m.durations.TreatPowerButtonAsUserActivity {
			m.turnOffDisplay(pmtypes.ReasonPowerButton)
		}
		m.havePowerButtonSnapshot = false
	}
	m.alarms.Cancel(m.alarmPowerButtonLongPress)
	m.alarmPowerButtonLongPress = timer.Invalid
}

func (m *Machine) onUserActivityChanging() {
	if m.displayOn() {
		m.brighten()
		m.armNormalInactivity()
		m.displayPowerModeReason = pmtypes.ReasonActivity
	} else if m.adapt.Proximity.ProximityState() == pmtypes.ProximityFar {
		m.turnOnDisplayWithNormalTimeout(pmtypes.ReasonActivity)
	}
}

func (m *Machine) onUserActivityExtending() {
	if m.displayOn() {
		m.brighten()
		m.armNormalInactivity()
		m.displayPowerModeReason = pmtypes.ReasonActivity
	}
}

func (m *Machine) onActiveCall() {
	if m.displayOn() {
		m.brighten()
		m.armNormalInactivity()
	} else if m.adapt.Proximity.ProximityState() == pmtypes.ProximityFar {
		m.turnOnDisplayWithNormalTimeout(pmtypes.ReasonCall)
	}
	m.proximityEnablement.Set(allowance.SourceUntilDisabled, true)
}

func (m *Machine) onNoActiveCall() {
	if m.displayOn() {
		m.brighten()
		m.armReducedAlarm()
	} else if m.adapt.Proximity.ProximityState() == pmtypes.ProximityFar {
		m.turnOnDisplayWithReducedTimeout(pmtypes.ReasonCallDone)
	} else {
		m.proximityEnablement.Set(allowance.SourceUntilFarOrTimeout, true)
		m.armProximityDisableAlarm()
	}
	m.proximityEnablement.Set(allowance.SourceUntilDisabled, false)
}

func (m *Machine) onNotification() {
	m.inactivityTimeoutAllowance.Set("notification", false)
	if m.displayOn() {
		m.brighten()
		m.armNotificationExpirationAlarm()
		return
	}
	if m.adapt.Proximity.ProximityState() == pmtypes.ProximityFar {
		m.turnOnDisplayWithoutTimeout(pmtypes.ReasonNotification)
	} else {
		m.proximityEnablement.Set(allowance.SourceUntilFarOrNotificationExpiration, true)
	}
	m.armNotificationExpirationAlarm()
}

func (m *Machine) onNoNotification() {
	if m.displayOn() {
		m.armPostNotificationAlarm()
	}
	m.inactivityTimeoutAllowance.Set("notification", true)
	m.proximityEnablement.Set(allowance.SourceUntilFarOrNotificationExpiration, false)
	m.alarms.Cancel(m.alarmNotificationExpiration)
	m.alarmNotificationExpiration = timer.Invalid
}

func (m *Machine) onProximityFar() {
	useReduced := m.proximityEnablement.OnlySourceSet(allowance.SourceUntilFarOrNotificationExpiration)
	m.proximityEnablement.Set(allowance.SourceUntilFarOrNotificationExpiration, false)
	m.proximityEnablement.Set(allowance.SourceUntilFarOrTimeout, false)
	if !m.displayOn() {
		if useReduced {
			m.turnOnDisplayWithReducedTimeout(pmtypes.ReasonProximity)
		} else {
			m.turnOnDisplayWithNormalTimeout(pmtypes.ReasonProximity)
		}
	}
}

func (m *Machine) onProximityNear() {
	if m.displayOn() {
		m.turnOffDisplay(pmtypes.ReasonProximity)
	}
}

func (m *Machine) onDisableInactivityTimeout() {
	m.inactivityTimeoutAllowance.Set("client", false)
	if m.displayOn() {
		m.brighten()
	} else {
		m.turnOnDisplayWithoutTimeout(pmtypes.ReasonUnknown)
	}
}

func (m *Machine) onSetInactivityBehavior(ev eventqueue.Event) {
	d := time.Duration(ev.BehaviorValue) * time.Millisecond
	if ev.BehaviorValue < 0 {
		d = config.InfiniteDuration
	}
	onBattery := ev.BehaviorSupply == eventqueue.SupplyBattery

	var target *configurableDuration
	switch ev.BehaviorAction {
	case eventqueue.BehaviorDisplayOff:
		target = &configurableDuration{m.normalDisplayOffTimeout}
	case eventqueue.BehaviorSuspend:
		target = &configurableDuration{m.normalSuspendTimeout}
	}
	if target == nil {
		return
	}
	if onBattery {
		target.setOnBattery(d)
	} else {
		target.setOnLinePower(d)
	}

	updatedSupplyIsActive := onBattery == m.normalDisplayOffTimeout.IsOnBattery()
	if m.scheduledTimeoutType == pmtypes.TimeoutNormal && updatedSupplyIsActive {
		m.armNormalInactivity()
	}
}

func (m *Machine) onLidClosed() {
	m.lidClosed = true
	if !m.adapt.DisplayInfo.HasActiveExternalDisplays() {
		if m.displayOn() {
			m.turnOffDisplay(pmtypes.ReasonUnknown)
		}
		if m.lidAction.Get() == pmtypes.ActionSuspend {
			m.adapt.System.Suspend()
		}
	} else {
		m.adapt.Display.TurnOff(pmtypes.FilterInternal)
	}
}

func (m *Machine) onLidOpen() {
	m.lidClosed = false
	if m.displayOn() {
		m.adapt.Display.TurnOn(pmtypes.FilterInternal)
		m.brighten()
		m.armNormalInactivity()
	} else {
		m.turnOnDisplayWithNormalTimeout(pmtypes.ReasonActivity)
	}
}

func (m *Machine) onPowerSourceChange(ev eventqueue.Event) {
	onBattery := ev.Supply == eventqueue.SupplyBattery
	m.normalDisplayOffTimeout.SetIsOnBattery(onBattery)
	m.normalSuspendTimeout.SetIsOnBattery(onBattery)
	m.lidAction.SetIsOnBattery(onBattery)

	if m.displayOn() {
		m.brighten()
		m.armNormalInactivity()
		m.displayPowerModeReason = pmtypes.ReasonActivity
	} else if m.adapt.Proximity.ProximityState() == pmtypes.ProximityFar {
		m.turnOnDisplayWithReducedTimeout(pmtypes.ReasonNotification)
	}
	m.rearmNormalSuspend()
}

func (m *Machine) onPowerSourceCritical() {
	switch m.criticalPowerAction {
	case pmtypes.ActionSuspend:
		m.adapt.System.Suspend()
	case pmtypes.ActionPowerOff:
		m.adapt.System.PowerOff()
	}
}

func (m *Machine) onAllowSuspend() {
	m.suspendAllowed = true
	if !m.displayOn() && m.displayPowerModeReason == pmtypes.ReasonActivity {
		m.adapt.System.AllowAutomaticSuspend(suspendIDDisplay)
	}
	if m.suspendPending {
		m.suspendWhenAllowed()
	}
}

func (m *Machine) onAlarm(ev eventqueue.Event) {
	switch ev.AlarmKind {
	case eventqueue.AlarmPowerButtonLongPress:
		m.longPressDetected = true
		m.adapt.PowerButton.NotifyLongPress()
	case eventqueue.AlarmInactivityDim:
		if !m.displayOn() {
			return
		}
		if m.inactivityApplicationAllowed() {
			m.adapt.Brightness.SetDimBrightness()
		}
	case eventqueue.AlarmInactivityDisplayOff:
		if !m.displayOn() {
			return
		}
		if m.inactivityApplicationAllowed() {
			m.turnOffDisplay(pmtypes.ReasonActivity)
			m.scheduledTimeoutType = pmtypes.TimeoutNone
		}
	case eventqueue.AlarmInactivitySuspend:
		if m.paused {
			return
		}
		if m.inactivityApplicationAllowed() {
			m.suspendWhenAllowed()
		}
	case eventqueue.AlarmProximityDisable:
		m.proximityEnablement.Set(allowance.SourceUntilFarOrTimeout, false)
	case eventqueue.AlarmNotificationExpiration:
		if m.displayOn() {
			m.armImmediateAlarm()
		}
		m.inactivityTimeoutAllowance.Set("notification", true)
		m.proximityEnablement.Set(allowance.SourceUntilFarOrNotificationExpiration, false)
	}
}

func (m *Machine) onSetNormalBrightnessValue(v float64) {
	m.normalBrightnessValue = v
	if !m.paused {
		m.adapt.Brightness.SetNormalBrightnessValue(v)
	}
}

func (m *Machine) onEnableAutobrightness() {
	m.autobrightnessEnabled = true
	if !m.paused {
		m.adapt.Brightness.EnableAutobrightness()
	}
}

func (m *Machine) onDisableAutobrightness() {
	m.autobrightnessEnabled = false
	if !m.paused {
		m.adapt.Brightness.DisableAutobrightness()
	}
}

// configurableDuration adapts a *configurable.Value[time.Duration] to
// a uniform setter pair so onSetInactivityBehavior can target either
// the display-off or suspend ConfigurableValue without duplicating
// branch logic per field.
type configurableDuration struct {
	v interface {
		SetOnBattery(time.Duration)
		SetOnLinePower(time.Duration)
	}
}

func (c *configurableDuration) setOnBattery(d time.Duration)   { c.v.SetOnBattery(d) }
func (c *configurableDuration) setOnLinePower(d time.Duration) { c.v.SetOnLinePower(d) }

func (m *Machine) onSetLidBehavior(ev eventqueue.Event) {
	action := fromActionPayload(ev.LidBehaviorAction)
	if ev.LidBehaviorSupply == eventqueue.SupplyBattery {
		m.lidAction.SetOnBattery(action)
	} else {
		m.lidAction.SetOnLinePower(action)
	}
}

// onReloadDurations applies a live config reload. Only the timeouts
// that have no IPC setter of their own are replaced; the
// ConfigurableValues (display-off/suspend timeouts, lid action,
// critical-power action) are left alone so a stale on-disk value
// never clobbers a runtime SetInactivityBehavior/SetLidBehavior call.
func (m *Machine) onReloadDurations(d config.Durations) {
	m.durations.PowerButtonLongPressTimeout = d.PowerButtonLongPressTimeout
	m.durations.NormalDisplayDimDuration = d.NormalDisplayDimDuration
	m.durations.ReducedDisplayOffTimeout = d.ReducedDisplayOffTimeout
	m.durations.PostNotificationDisplayOffTimeout = d.PostNotificationDisplayOffTimeout
	m.durations.NotificationExpirationTimeout = d.NotificationExpirationTimeout
	m.durations.TreatPowerButtonAsUserActivity = d.TreatPowerButtonAsUserActivity
	m.durations.TurnOnDisplayAtStartup = d.TurnOnDisplayAtStartup
}

func fromActionPayload(a eventqueue.ActionPayload) pmtypes.PowerAction {
	switch a {
	case eventqueue.ActionDisplayOff:
		return pmtypes.ActionDisplayOff
	case eventqueue.ActionSuspend:
		return pmtypes.ActionSuspend
	case eventqueue.ActionPowerOff:
		return pmtypes.ActionPowerOff
	default:
		return pmtypes.ActionNone
	}
}
