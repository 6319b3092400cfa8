// Copyright (c) 2026 powerd authors
// SPDX-License-Identifier: Apache-2.0

package statemachine

import (
	"time"

	"github.com/lf-edge/eve/pkg/powerd/internal/config"
	"github.com/lf-edge/eve/pkg/powerd/internal/eventqueue"
	"github.com/lf-edge/eve/pkg/powerd/internal/pmtypes"
	"github.com/lf-edge/eve/pkg/powerd/internal/timer"
)

// armNormalInactivity is the "Normal inactivity" alarm sub-policy of
// §4.5.1: cancels dim/display-off, arms them fresh from the active
// normal timeout, and concurrently rearms the suspend alarm.
func (m *Machine) armNormalInactivity() {
	m.alarms.Cancel(m.alarmInactivityDim)
	m.alarms.Cancel(m.alarmInactivityDisplayOff)
	m.alarmInactivityDim = timer.Invalid
	m.alarmInactivityDisplayOff = timer.Invalid
	m.scheduledTimeoutType = pmtypes.TimeoutNormal

	off := m.normalDisplayOffTimeout.Get()
	if off == config.InfiniteDuration {
		m.userInactivityDisplayOffTimePoint = farFuture
	} else {
		m.userInactivityDisplayOffTimePoint = m.now().Add(off)
		m.alarmInactivityDisplayOff = m.alarms.ScheduleIn(off, eventqueue.AlarmInactivityDisplayOff)
		if off > m.durations.NormalDisplayDimDuration {
			m.alarmInactivityDim = m.alarms.ScheduleIn(off-m.durations.NormalDisplayDimDuration, eventqueue.AlarmInactivityDim)
		}
	}
	m.rearmNormalSuspend()
}

// rearmNormalSuspend cancels and rearms the suspend alarm at the
// active normal-suspend timeout (unless infinite), and clears any
// latched suspend-pending intent per §4.5.3.
func (m *Machine) rearmNormalSuspend() {
	m.alarms.Cancel(m.alarmInactivitySuspend)
	m.alarmInactivitySuspend = timer.Invalid
	m.suspendPending = false
	suspendTimeout := m.normalSuspendTimeout.Get()
	if suspendTimeout != config.InfiniteDuration {
		m.alarmInactivitySuspend = m.alarms.ScheduleIn(suspendTimeout, eventqueue.AlarmInactivitySuspend)
	}
}

// extendDisplayOff is the shared monotonicity-preserving rearm used by
// the post-notification, reduced and immediate sub-policies of §4.5.1:
// the display-off moment is only ever pushed later, never earlier.
func (m *Machine) extendDisplayOff(candidate time.Time, timeoutType pmtypes.ScheduledTimeoutType) {
	if candidate.Before(m.userInactivityDisplayOffTimePoint) || candidate.Equal(m.userInactivityDisplayOffTimePoint) {
		return
	}
	m.alarms.Cancel(m.alarmInactivityDisplayOff)
	d := candidate.Sub(m.now())
	if d < 0 {
		d = 0
	}
	m.alarmInactivityDisplayOff = m.alarms.ScheduleIn(d, eventqueue.AlarmInactivityDisplayOff)
	m.userInactivityDisplayOffTimePoint = candidate
	m.scheduledTimeoutType = timeoutType
}

// armPostNotificationAlarm is the "Post-notification" sub-policy.
func (m *Machine) armPostNotificationAlarm() {
	m.extendDisplayOff(m.now().Add(m.durations.PostNotificationDisplayOffTimeout), pmtypes.TimeoutPostNotification)
}

// armReducedAlarm is the "Reduced" sub-policy.
func (m *Machine) armReducedAlarm() {
	m.extendDisplayOff(m.now().Add(m.durations.ReducedDisplayOffTimeout), pmtypes.TimeoutReduced)
}

// armImmediateAlarm is the "Immediate" sub-policy: if the already
// scheduled display-off moment has passed, arm display-off at once.
func (m *Machine) armImmediateAlarm() {
	if m.now().After(m.userInactivityDisplayOffTimePoint) {
		m.alarms.Cancel(m.alarmInactivityDisplayOff)
		m.alarmInactivityDisplayOff = m.alarms.ScheduleIn(0, eventqueue.AlarmInactivityDisplayOff)
		m.userInactivityDisplayOffTimePoint = m.now()
		m.scheduledTimeoutType = pmtypes.TimeoutPostNotification
	}
}

// armProximityDisableAlarm is the "Proximity disable" sub-policy.
func (m *Machine) armProximityDisableAlarm() {
	m.alarms.Cancel(m.alarmProximityDisable)
	m.alarmProximityDisable = m.alarms.ScheduleIn(m.durations.ReducedDisplayOffTimeout, eventqueue.AlarmProximityDisable)
}

// armNotificationExpirationAlarm is the "Notification expiration"
// sub-policy.
func (m *Machine) armNotificationExpirationAlarm() {
	m.alarms.Cancel(m.alarmNotificationExpiration)
	d := m.durations.NotificationExpirationTimeout
	normalOff := m.normalDisplayOffTimeout.Get()
	if normalOff != config.InfiniteDuration && normalOff < d {
		d = normalOff
	}
	m.alarmNotificationExpiration = m.alarms.ScheduleIn(d, eventqueue.AlarmNotificationExpiration)
}

// suspendWhenAllowed suspends immediately if allowed and not paused,
// otherwise latches suspendPending for later consumption (§4.5.3).
func (m *Machine) suspendWhenAllowed() {
	if m.suspendAllowed && !m.paused {
		m.adapt.System.Suspend()
		m.suspendPending = false
		return
	}
	m.suspendPending = true
}

// farFuture stands in for the "+infinity" time point of §4.5.1.
var farFuture = time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
