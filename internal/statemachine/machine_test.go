// Copyright (c) 2026 powerd authors
// SPDX-License-Identifier: Apache-2.0

package statemachine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lf-edge/eve/pkg/powerd/internal/adapters"
	"github.com/lf-edge/eve/pkg/powerd/internal/base"
	"github.com/lf-edge/eve/pkg/powerd/internal/config"
	"github.com/lf-edge/eve/pkg/powerd/internal/eventqueue"
	"github.com/lf-edge/eve/pkg/powerd/internal/pmtypes"
	"github.com/lf-edge/eve/pkg/powerd/internal/timer"
)

// --- fake clock, mirroring the timer package's own test double so
// alarm-ordering assertions stay deterministic without real sleeps. ---

type fakeClock struct {
	now     time.Time
	pending []*fakeTimer
}

type fakeTimer struct {
	at       time.Time
	f        func()
	canceled bool
}

type fakeCanceler struct{ t *fakeTimer }

func (c *fakeCanceler) Stop() bool {
	if c.t.canceled {
		return false
	}
	c.t.canceled = true
	return true
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) AfterFunc(d time.Duration, f func()) timer.Canceler {
	t := &fakeTimer{at: c.now.Add(d), f: f}
	c.pending = append(c.pending, t)
	return &fakeCanceler{t: t}
}

func (c *fakeClock) advance(d time.Duration) {
	c.now = c.now.Add(d)
	for {
		var next *fakeTimer
		for _, t := range c.pending {
			if !t.canceled && !t.at.After(c.now) && (next == nil || t.at.Before(next.at)) {
				next = t
			}
		}
		if next == nil {
			return
		}
		next.canceled = true
		next.f()
	}
}

func newFakeClock() *fakeClock { return &fakeClock{now: time.Unix(1000, 0)} }

// --- fake adapters ---

type fakeBrightness struct {
	offCount, dimCount, normalCount int
	normalValues                    []float64
	autoEnabled                     bool
}

func (b *fakeBrightness) SetOffBrightness()    { b.offCount++ }
func (b *fakeBrightness) SetDimBrightness()    { b.dimCount++ }
func (b *fakeBrightness) SetNormalBrightness() { b.normalCount++ }
func (b *fakeBrightness) SetNormalBrightnessValue(v float64) {
	b.normalValues = append(b.normalValues, v)
}
func (b *fakeBrightness) EnableAutobrightness()  { b.autoEnabled = true }
func (b *fakeBrightness) DisableAutobrightness() { b.autoEnabled = false }

type fakeDisplay struct {
	onCalls, offCalls []pmtypes.DisplayFilter
}

func (d *fakeDisplay) TurnOn(f pmtypes.DisplayFilter)  { d.onCalls = append(d.onCalls, f) }
func (d *fakeDisplay) TurnOff(f pmtypes.DisplayFilter) { d.offCalls = append(d.offCalls, f) }

type fakeDisplaySink struct {
	onReasons, offReasons []pmtypes.DisplayPowerChangeReason
}

func (s *fakeDisplaySink) NotifyDisplayPowerOn(r pmtypes.DisplayPowerChangeReason) {
	s.onReasons = append(s.onReasons, r)
}
func (s *fakeDisplaySink) NotifyDisplayPowerOff(r pmtypes.DisplayPowerChangeReason) {
	s.offReasons = append(s.offReasons, r)
}

type fakeModem struct{ lowCount, normalCount int }

func (m *fakeModem) SetLowPowerMode()    { m.lowCount++ }
func (m *fakeModem) SetNormalPowerMode() { m.normalCount++ }

type fakePerf struct{ enableCount, disableCount int }

func (p *fakePerf) EnableInteractiveMode()  { p.enableCount++ }
func (p *fakePerf) DisableInteractiveMode() { p.disableCount++ }

type fakePowerButton struct{ longPressCount int }

func (b *fakePowerButton) NotifyLongPress() { b.longPressCount++ }

type fakeProximity struct {
	state                          pmtypes.ProximityState
	enableCount, disableCount      int
}

func (p *fakeProximity) ProximityState() pmtypes.ProximityState { return p.state }
func (p *fakeProximity) EnableProximityEvents()                 { p.enableCount++ }
func (p *fakeProximity) DisableProximityEvents()                { p.disableCount++ }

type fakeSystem struct {
	suspendCount, powerOffCount int
	vetoes                      map[adapters.SuspendID]bool
	defaultHandlers             bool
}

func newFakeSystem() *fakeSystem {
	return &fakeSystem{vetoes: make(map[adapters.SuspendID]bool)}
}
func (s *fakeSystem) Suspend()  { s.suspendCount++ }
func (s *fakeSystem) PowerOff() { s.powerOffCount++ }
func (s *fakeSystem) AllowAutomaticSuspend(id adapters.SuspendID) {
	delete(s.vetoes, id)
}
func (s *fakeSystem) DisallowAutomaticSuspend(id adapters.SuspendID) { s.vetoes[id] = true }
func (s *fakeSystem) AllowDefaultSystemHandlers()                   { s.defaultHandlers = true }
func (s *fakeSystem) DisallowDefaultSystemHandlers()                { s.defaultHandlers = false }

type fakeDisplayInfo struct{ hasExternal bool }

func (d *fakeDisplayInfo) HasActiveExternalDisplays() bool { return d.hasExternal }

type fakePowerSource struct{ onBattery bool }

func (p fakePowerSource) IsUsingBatteryPower() bool { return p.onBattery }

// --- harness ---

type harness struct {
	clock       *fakeClock
	queue       *eventqueue.Queue
	brightness  *fakeBrightness
	display     *fakeDisplay
	sink        *fakeDisplaySink
	modem       *fakeModem
	perf        *fakePerf
	button      *fakePowerButton
	proximity   *fakeProximity
	system      *fakeSystem
	displayInfo *fakeDisplayInfo
	machine     *Machine
}

func newHarness(t *testing.T, d config.Durations) *harness {
	h := &harness{
		clock:       newFakeClock(),
		queue:       eventqueue.New(),
		brightness:  &fakeBrightness{},
		display:     &fakeDisplay{},
		sink:        &fakeDisplaySink{},
		modem:       &fakeModem{},
		perf:        &fakePerf{},
		button:      &fakePowerButton{},
		proximity:   &fakeProximity{state: pmtypes.ProximityFar},
		system:      newFakeSystem(),
		displayInfo: &fakeDisplayInfo{},
	}
	// Fired alarms are dispatched inline, standing in for the event loop
	// that would otherwise pop them off the queue.
	alarms := timer.NewRegistry(h.clock, func(id timer.AlarmId, payload interface{}) {
		kind, _ := payload.(eventqueue.AlarmKind)
		h.machine.Dispatch(eventqueue.Event{Kind: eventqueue.KindAlarm, AlarmID: id, AlarmKind: kind})
	})
	m, err := New(base.NewLogObject("statemachine-test"), Adapters{
		Brightness:  h.brightness,
		Display:     h.display,
		DisplaySink: h.sink,
		Modem:       h.modem,
		Perf:        h.perf,
		PowerButton: h.button,
		Proximity:   h.proximity,
		System:      h.system,
		DisplayInfo: h.displayInfo,
	}, alarms, h.queue, d)
	assert.NoError(t, err)
	h.machine = m
	return h
}

func testDurations() config.Durations {
	return config.Durations{
		PowerButtonLongPressTimeout:       2 * time.Second,
		NormalDisplayDimDuration:          10 * time.Second,
		NormalDisplayOffTimeoutBattery:    60 * time.Second,
		NormalDisplayOffTimeoutLinePower:  120 * time.Second,
		NormalSuspendTimeoutBattery:       300 * time.Second,
		NormalSuspendTimeoutLinePower:     config.InfiniteDuration,
		ReducedDisplayOffTimeout:          8 * time.Second,
		PostNotificationDisplayOffTimeout: 3 * time.Second,
		NotificationExpirationTimeout:     20 * time.Second,
		TreatPowerButtonAsUserActivity:    true,
		TurnOnDisplayAtStartup:            true,
		LidActionBattery:                  "suspend",
		LidActionLinePower:                "display_off",
		CriticalPowerAction:               "suspend",
	}
}

func TestStartTurnsOnDisplayWithNormalTimeout(t *testing.T) {
	h := newHarness(t, testDurations())
	h.machine.Start(fakePowerSource{onBattery: true})

	assert.Equal(t, pmtypes.DisplayPowerModeOn, h.machine.DisplayPowerMode())
	assert.False(t, h.machine.Paused())
	assert.False(t, h.system.defaultHandlers, "Start disallows the platform's default handlers")
	assert.NotEmpty(t, h.sink.onReasons)
}

func TestStartWithoutTurnOnDisplayAtStartupStaysOff(t *testing.T) {
	d := testDurations()
	d.TurnOnDisplayAtStartup = false
	h := newHarness(t, d)
	h.machine.Start(fakePowerSource{onBattery: true})

	assert.Equal(t, pmtypes.DisplayPowerModeOff, h.machine.DisplayPowerMode())
}

func TestPowerButtonPressTurnsOnDisplayWhenOff(t *testing.T) {
	d := testDurations()
	d.TurnOnDisplayAtStartup = false
	h := newHarness(t, d)
	h.machine.Start(fakePowerSource{onBattery: true})
	assert.Equal(t, pmtypes.DisplayPowerModeOff, h.machine.DisplayPowerMode())

	h.machine.Dispatch(eventqueue.Event{Kind: eventqueue.KindPowerButtonPress})
	assert.Equal(t, pmtypes.DisplayPowerModeOn, h.machine.DisplayPowerMode())
}

func TestPowerButtonLongPressSuppressesReleaseAction(t *testing.T) {
	h := newHarness(t, testDurations())
	h.machine.Start(fakePowerSource{onBattery: true})

	h.machine.Dispatch(eventqueue.Event{Kind: eventqueue.KindPowerButtonPress})
	h.clock.advance(2 * time.Second) // fires the long-press alarm
	assert.Equal(t, 1, h.button.longPressCount)

	offBefore := h.display.offCalls
	h.machine.Dispatch(eventqueue.Event{Kind: eventqueue.KindPowerButtonRelease})
	assert.Equal(t, len(offBefore), len(h.display.offCalls), "a long-press release must not also turn the display off")
}

func TestPowerButtonPressReleaseTogglesDisplayWhenNotTreatedAsActivity(t *testing.T) {
	d := testDurations()
	d.TreatPowerButtonAsUserActivity = false
	h := newHarness(t, d)
	h.machine.Start(fakePowerSource{onBattery: true})
	assert.Equal(t, pmtypes.DisplayPowerModeOn, h.machine.DisplayPowerMode())

	h.machine.Dispatch(eventqueue.Event{Kind: eventqueue.KindPowerButtonPress})
	h.machine.Dispatch(eventqueue.Event{Kind: eventqueue.KindPowerButtonRelease})
	assert.Equal(t, pmtypes.DisplayPowerModeOff, h.machine.DisplayPowerMode())
}

func TestInactivityAlarmsDimThenTurnOffDisplay(t *testing.T) {
	h := newHarness(t, testDurations())
	h.machine.Start(fakePowerSource{onBattery: true}) // 60s off, dims at 50s

	h.clock.advance(50 * time.Second)
	assert.Equal(t, 1, h.brightness.dimCount, "dim alarm should have fired at off-10s")
	assert.Equal(t, pmtypes.DisplayPowerModeOn, h.machine.DisplayPowerMode())

	h.clock.advance(10 * time.Second)
	assert.Equal(t, pmtypes.DisplayPowerModeOff, h.machine.DisplayPowerMode())
}

func TestSuspendAlarmSuspendsWhenAllowed(t *testing.T) {
	h := newHarness(t, testDurations())
	h.machine.Start(fakePowerSource{onBattery: true})
	h.machine.Dispatch(eventqueue.Event{Kind: eventqueue.KindAllowSuspend})

	h.clock.advance(300 * time.Second)
	assert.Equal(t, 1, h.system.suspendCount)
}

func TestSuspendAlarmLatchesPendingWhenNotAllowed(t *testing.T) {
	h := newHarness(t, testDurations())
	h.machine.Start(fakePowerSource{onBattery: true})

	h.clock.advance(300 * time.Second)
	assert.Equal(t, 0, h.system.suspendCount, "suspend not yet allowed")

	h.machine.Dispatch(eventqueue.Event{Kind: eventqueue.KindAllowSuspend})
	assert.Equal(t, 1, h.system.suspendCount, "latched suspend fires once allowed")
}

func TestTurnOffDisplayAllowsSuspendExceptForProximity(t *testing.T) {
	// Testable Property 2: turn_off_display(reason) allows automatic
	// suspend iff reason != proximity AND (reason != activity || suspendAllowed).
	h := newHarness(t, testDurations())
	h.machine.Start(fakePowerSource{onBattery: true})
	h.machine.Dispatch(eventqueue.Event{Kind: eventqueue.KindProximityNear})
	assert.True(t, h.system.vetoes[adapters.SuspendID("display")], "proximity-driven off must veto suspend")
}

func TestProximityNearTurnsOffOnlyWhileDisplayOn(t *testing.T) {
	h := newHarness(t, testDurations())
	h.machine.Start(fakePowerSource{onBattery: true})
	offBefore := len(h.display.offCalls)
	h.machine.Dispatch(eventqueue.Event{Kind: eventqueue.KindProximityNear})
	assert.Equal(t, offBefore+1, len(h.display.offCalls))

	// Display is now off; a second Near must not call TurnOff again.
	offBefore = len(h.display.offCalls)
	h.machine.Dispatch(eventqueue.Event{Kind: eventqueue.KindProximityNear})
	assert.Equal(t, offBefore, len(h.display.offCalls))
}

func TestProximityFarTurnsDisplayBackOnAfterCallEnds(t *testing.T) {
	h := newHarness(t, testDurations())
	h.machine.Start(fakePowerSource{onBattery: true})
	h.proximity.state = pmtypes.ProximityNear

	h.machine.Dispatch(eventqueue.Event{Kind: eventqueue.KindActiveCall})
	h.machine.Dispatch(eventqueue.Event{Kind: eventqueue.KindProximityNear})
	assert.Equal(t, pmtypes.DisplayPowerModeOff, h.machine.DisplayPowerMode())

	h.machine.Dispatch(eventqueue.Event{Kind: eventqueue.KindNoActiveCall})
	h.proximity.state = pmtypes.ProximityFar
	h.machine.Dispatch(eventqueue.Event{Kind: eventqueue.KindProximityFar})
	assert.Equal(t, pmtypes.DisplayPowerModeOn, h.machine.DisplayPowerMode())
}

func TestLidClosedSuspendsWhenNoExternalDisplay(t *testing.T) {
	h := newHarness(t, testDurations())
	h.machine.Start(fakePowerSource{onBattery: true}) // LidActionBattery: suspend
	h.machine.Dispatch(eventqueue.Event{Kind: eventqueue.KindLidClosed})

	assert.Equal(t, pmtypes.DisplayPowerModeOff, h.machine.DisplayPowerMode())
	assert.Equal(t, 1, h.system.suspendCount)
}

func TestLidClosedWithExternalDisplayOnlyTurnsOffInternalPanel(t *testing.T) {
	h := newHarness(t, testDurations())
	h.displayInfo.hasExternal = true
	h.machine.Start(fakePowerSource{onBattery: true})

	h.machine.Dispatch(eventqueue.Event{Kind: eventqueue.KindLidClosed})
	assert.Equal(t, 0, h.system.suspendCount)
	assert.Contains(t, h.display.offCalls, pmtypes.FilterInternal)
}

func TestLidOpenTurnsDisplayBackOn(t *testing.T) {
	h := newHarness(t, testDurations())
	h.machine.Start(fakePowerSource{onBattery: true})
	h.machine.Dispatch(eventqueue.Event{Kind: eventqueue.KindLidClosed})
	h.machine.Dispatch(eventqueue.Event{Kind: eventqueue.KindLidOpen})
	assert.Equal(t, pmtypes.DisplayPowerModeOn, h.machine.DisplayPowerMode())
}

func TestPowerSourceCriticalActsOnConfiguredAction(t *testing.T) {
	h := newHarness(t, testDurations())
	h.machine.Start(fakePowerSource{onBattery: true})
	h.machine.Dispatch(eventqueue.Event{Kind: eventqueue.KindPowerSourceCritical})
	assert.Equal(t, 1, h.system.suspendCount, "CriticalPowerAction defaults to suspend")
}

func TestSetCriticalPowerBehaviorChangesAction(t *testing.T) {
	h := newHarness(t, testDurations())
	h.machine.Start(fakePowerSource{onBattery: true})
	h.machine.Dispatch(eventqueue.Event{
		Kind:                eventqueue.KindSetCriticalPowerBehavior,
		CriticalPowerAction: eventqueue.ActionPowerOff,
	})
	h.machine.Dispatch(eventqueue.Event{Kind: eventqueue.KindPowerSourceCritical})
	assert.Equal(t, 1, h.system.powerOffCount)
	assert.Equal(t, 0, h.system.suspendCount)
}

func TestSetLidBehaviorAppliesToTheNamedSupplyOnly(t *testing.T) {
	h := newHarness(t, testDurations())
	h.machine.Start(fakePowerSource{onBattery: false}) // line power active: default "display_off"

	h.machine.Dispatch(eventqueue.Event{
		Kind:              eventqueue.KindSetLidBehavior,
		LidBehaviorSupply: eventqueue.SupplyLinePower,
		LidBehaviorAction: eventqueue.ActionSuspend,
	})
	h.machine.Dispatch(eventqueue.Event{Kind: eventqueue.KindLidClosed})
	assert.Equal(t, 1, h.system.suspendCount, "line-power lid action now overridden to suspend")
}

func TestPowerSourceChangeSwitchesConfigurableValues(t *testing.T) {
	h := newHarness(t, testDurations())
	h.machine.Start(fakePowerSource{onBattery: true})

	h.machine.Dispatch(eventqueue.Event{Kind: eventqueue.KindPowerSourceChange, Supply: eventqueue.SupplyLinePower})
	h.machine.Dispatch(eventqueue.Event{Kind: eventqueue.KindLidClosed})
	// LidActionLinePower defaults to "display_off", not suspend.
	assert.Equal(t, 0, h.system.suspendCount)
}

func TestPauseAndResumeRetainOtherState(t *testing.T) {
	h := newHarness(t, testDurations())
	h.machine.Start(fakePowerSource{onBattery: true})

	h.machine.Dispatch(eventqueue.Event{Kind: eventqueue.KindPause})
	assert.True(t, h.machine.Paused())
	assert.True(t, h.system.defaultHandlers)

	h.machine.Dispatch(eventqueue.Event{Kind: eventqueue.KindResume})
	assert.False(t, h.machine.Paused())
	assert.Equal(t, pmtypes.DisplayPowerModeOn, h.machine.DisplayPowerMode())
}

func TestNotificationBrightensAndArmsExpirationWhileDisplayOn(t *testing.T) {
	h := newHarness(t, testDurations())
	h.machine.Start(fakePowerSource{onBattery: true})
	before := h.brightness.normalCount
	h.machine.Dispatch(eventqueue.Event{Kind: eventqueue.KindNotification})
	assert.Equal(t, before+1, h.brightness.normalCount)
}

func TestNoNotificationEnablesClientIndependentInactivitySource(t *testing.T) {
	h := newHarness(t, testDurations())
	h.machine.Start(fakePowerSource{onBattery: true})
	h.machine.Dispatch(eventqueue.Event{Kind: eventqueue.KindDisableInactivityTimeout})
	assert.False(t, h.machine.inactivityTimeoutAllowance.Current())

	h.machine.Dispatch(eventqueue.Event{Kind: eventqueue.KindNotification})
	h.machine.Dispatch(eventqueue.Event{Kind: eventqueue.KindNoNotification})
	// notification source is independently true again, but client source is
	// still false, so the AND-lattice stays disallowed.
	assert.False(t, h.machine.inactivityTimeoutAllowance.Current())
}

func TestReloadDurationsUpdatesUnsetFieldsOnly(t *testing.T) {
	h := newHarness(t, testDurations())
	h.machine.Start(fakePowerSource{onBattery: true})

	fresh := testDurations()
	fresh.NotificationExpirationTimeout = 99 * time.Second
	fresh.LidActionBattery = "display_off" // must NOT apply; reload skips ConfigurableValues
	h.machine.Dispatch(eventqueue.Event{Kind: eventqueue.KindReloadDurations, Durations: fresh})

	assert.Equal(t, 99*time.Second, h.machine.durations.NotificationExpirationTimeout)
	assert.Equal(t, pmtypes.ActionSuspend, h.machine.lidAction.Get(), "lid action is IPC/ConfigurableValue-owned, untouched by reload")
}
