// Copyright (c) 2026 powerd authors
// SPDX-License-Identifier: Apache-2.0

// Package statemachine is the C5 component and the core of this
// daemon: it consumes the events of §4.5.3, mutates the state
// described in §4.5, and drives the adapter contracts of §6. Every
// handler here runs to completion with no suspension point, per the
// concurrency model of §5.
package statemachine

import (
	"time"

	"github.com/lf-edge/eve/pkg/powerd/internal/adapters"
	"github.com/lf-edge/eve/pkg/powerd/internal/allowance"
	"github.com/lf-edge/eve/pkg/powerd/internal/base"
	"github.com/lf-edge/eve/pkg/powerd/internal/config"
	"github.com/lf-edge/eve/pkg/powerd/internal/configurable"
	"github.com/lf-edge/eve/pkg/powerd/internal/eventqueue"
	"github.com/lf-edge/eve/pkg/powerd/internal/pmtypes"
	"github.com/lf-edge/eve/pkg/powerd/internal/timer"
)

// suspend-id constants used with SystemPowerControl.Allow/DisallowAutomaticSuspend.
const (
	suspendIDDisplay adapters.SuspendID = "display"
)

// Adapters bundles every §6 capability the machine is constructed with.
type Adapters struct {
	Brightness  adapters.BrightnessControl
	Display     adapters.DisplayPowerControl
	DisplaySink adapters.DisplayPowerEventSink
	Modem       adapters.ModemPowerControl
	Perf        adapters.PerformanceBooster
	PowerButton adapters.PowerButtonEventSink
	Proximity   adapters.ProximitySensor
	System      adapters.SystemPowerControl
	DisplayInfo adapters.DisplayInformation
}

// Machine is the C5 state machine.
type Machine struct {
	log     *base.LogObject
	adapt   Adapters
	alarms  *timer.Registry
	queue   *eventqueue.Queue
	durations config.Durations

	displayPowerMode                 pmtypes.DisplayPowerMode
	displayPowerModeReason            pmtypes.DisplayPowerChangeReason
	displayPowerModeAtPowerButtonPress pmtypes.DisplayPowerMode
	havePowerButtonSnapshot           bool

	scheduledTimeoutType pmtypes.ScheduledTimeoutType

	alarmPowerButtonLongPress timer.AlarmId
	alarmInactivityDim        timer.AlarmId
	alarmInactivityDisplayOff timer.AlarmId
	alarmInactivitySuspend    timer.AlarmId
	alarmProximityDisable     timer.AlarmId
	alarmNotificationExpiration timer.AlarmId

	longPressDetected bool

	userInactivityDisplayOffTimePoint time.Time

	inactivityTimeoutAllowance *allowance.Lattice
	proximityEnablement        *allowance.Lattice

	paused              bool
	autobrightnessEnabled bool
	normalBrightnessValue float64
	lidClosed           bool
	suspendAllowed      bool
	suspendPending      bool

	normalDisplayOffTimeout *configurable.Value[time.Duration]
	normalSuspendTimeout    *configurable.Value[time.Duration]
	lidAction               *configurable.Value[pmtypes.PowerAction]

	criticalPowerAction pmtypes.PowerAction
}

// New builds a Machine wired to the given adapters, alarm registry,
// event queue and configured durations. The queue is only stored:
// alarm firings reach it through the registry's FireFunc, which the
// caller sets up.
func New(log *base.LogObject, a Adapters, alarms *timer.Registry, queue *eventqueue.Queue, d config.Durations) (*Machine, error) {
	m := &Machine{
		log:       log,
		adapt:     a,
		alarms:    alarms,
		queue:     queue,
		durations: d,

		displayPowerMode: pmtypes.DisplayPowerModeOff,
		paused:           true,
	}

	lidAction, err := pmtypes.ParsePowerAction(d.LidActionBattery)
	if err != nil {
		return nil, err
	}
	lidActionLine, err := pmtypes.ParsePowerAction(d.LidActionLinePower)
	if err != nil {
		return nil, err
	}
	critical, err := pmtypes.ParsePowerAction(d.CriticalPowerAction)
	if err != nil {
		return nil, err
	}
	m.criticalPowerAction = critical

	m.normalDisplayOffTimeout = configurable.New(d.NormalDisplayOffTimeoutBattery, d.NormalDisplayOffTimeoutLinePower)
	m.normalSuspendTimeout = configurable.New(d.NormalSuspendTimeoutBattery, d.NormalSuspendTimeoutLinePower)
	m.lidAction = configurable.New(lidAction, lidActionLine)

	m.inactivityTimeoutAllowance = allowance.NewInactivityTimeoutAllowance(m.onInactivityAllowanceEdge)
	m.proximityEnablement = allowance.NewProximityEnablement(m.onProximityEnablementEdge)

	return m, nil
}

// --- public state accessors, used by tests ---

// DisplayPowerMode returns the current display mode.
func (m *Machine) DisplayPowerMode() pmtypes.DisplayPowerMode { return m.displayPowerMode }

// DisplayPowerModeReason returns the reason stamped on the current mode.
func (m *Machine) DisplayPowerModeReason() pmtypes.DisplayPowerChangeReason {
	return m.displayPowerModeReason
}

// Paused reports whether the machine is currently paused.
func (m *Machine) Paused() bool { return m.paused }

// inactivityApplicationAllowed is the actuator-level override of
// §4.5.3: inactivity-driven transitions apply when the lattice allows
// them, OR the current display reason is notification/call — so a
// caller holding the wake lock for a notification still eventually dims.
func (m *Machine) inactivityApplicationAllowed() bool {
	if m.inactivityTimeoutAllowance.Current() {
		return true
	}
	switch m.displayPowerModeReason {
	case pmtypes.ReasonNotification, pmtypes.ReasonCall:
		return true
	default:
		return false
	}
}

func (m *Machine) now() time.Time {
	return m.alarms.Now()
}
