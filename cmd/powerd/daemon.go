// Copyright (c) 2026 powerd authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/lf-edge/eve/pkg/powerd/internal/adapters"
	linuxadapters "github.com/lf-edge/eve/pkg/powerd/internal/adapters/linux"
	"github.com/lf-edge/eve/pkg/powerd/internal/base"
	"github.com/lf-edge/eve/pkg/powerd/internal/config"
	"github.com/lf-edge/eve/pkg/powerd/internal/eventqueue"
	"github.com/lf-edge/eve/pkg/powerd/internal/ipc"
	"github.com/lf-edge/eve/pkg/powerd/internal/ledpolicy"
	"github.com/lf-edge/eve/pkg/powerd/internal/loop"
	"github.com/lf-edge/eve/pkg/powerd/internal/pidfile"
	"github.com/lf-edge/eve/pkg/powerd/internal/pmtypes"
	"github.com/lf-edge/eve/pkg/powerd/internal/statemachine"
	"github.com/lf-edge/eve/pkg/powerd/internal/timer"
)

// watchdogInterval matches the teacher's 25s StillRunning cadence
// (cmd/ledmanager/ledmanager.go's stillRunning ticker).
const watchdogInterval = 25 * time.Second

const criticalBatteryPercent = 5

func runDaemon(log *base.LogObject, configPath, runDir string) error {
	if err := pidfile.CheckAndCreatePidfile(log, runDir, agentName); err != nil {
		return err
	}
	log.Noticef("starting %s", agentName)

	durations, err := config.Load(log, configPath)
	if err != nil {
		return err
	}

	conn, err := dbus.SystemBus()
	if err != nil {
		log.Warnf("daemon: system bus unavailable, IPC and modem/button signaling disabled: %v", err)
	}

	queue := eventqueue.New()

	backlight, err := linuxadapters.NewBacklight(log, "")
	if err != nil {
		return err
	}
	display := linuxadapters.NewDisplay(log,
		[]string{"/sys/class/drm/card0-eDP-1/enabled"},
		[]string{"/sys/class/drm/card0-HDMI-A-1/enabled", "/sys/class/drm/card0-DP-1/enabled"})
	displayInfo := linuxadapters.NewDisplayInfo(log,
		[]string{"/sys/class/drm/card0-HDMI-A-1/status", "/sys/class/drm/card0-DP-1/status"})
	modem := linuxadapters.NewModem(log, conn, "")
	perf := linuxadapters.NewPerformance(log, "schedutil")
	button := linuxadapters.NewButton(log, conn)
	proximity := linuxadapters.NewProximity(log, queue, "/sys/bus/iio/devices/iio:device0/in_proximity_raw", 100)
	system := linuxadapters.NewSystem(log)
	led := linuxadapters.NewLed(log, "status")

	leds := ledpolicy.New(log, led)

	alarms := timer.NewRegistry(timer.RealClock, func(id timer.AlarmId, payload interface{}) {
		kind, _ := payload.(eventqueue.AlarmKind)
		queue.Push(eventqueue.Event{Kind: eventqueue.KindAlarm, AlarmID: id, AlarmKind: kind})
	})

	displaySink := &ledDisplaySink{leds: leds}

	machineAdapters := statemachine.Adapters{
		Brightness:  backlight,
		Display:     display,
		DisplaySink: displaySink,
		Modem:       modem,
		Perf:        perf,
		PowerButton: button,
		Proximity:   proximity,
		System:      system,
		DisplayInfo: displayInfo,
	}

	machine, err := statemachine.New(log, machineAdapters, alarms, queue, durations)
	if err != nil {
		return err
	}

	battery := linuxadapters.NewBatteryPoller(log, queue, 30*time.Second, criticalBatteryPercent, leds.ApplyBattery)
	input := linuxadapters.NewInput(log, queue, "/dev/input/event0")

	stop := make(chan struct{})
	go battery.Run(stop)
	go input.Run(stop)

	watcher, err := config.NewWatcher(log, configPath, func(d config.Durations) {
		queue.Push(eventqueue.Event{Kind: eventqueue.KindReloadDurations, Durations: d})
	})
	if err != nil {
		log.Warnf("daemon: config watcher unavailable: %v", err)
	}
	defer watcher.Close()

	if conn != nil {
		server := ipc.New(log, queue, leds)
		if err := server.Export(conn); err != nil {
			log.Warnf("daemon: IPC export failed: %v", err)
		}
	}

	machine.Start(battery)

	host := loop.New(log, queue, machine, watchdogInterval, func() {
		log.Tracef("daemon: watchdog tick")
	})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Noticef("daemon: received shutdown signal")
		close(stop)
		queue.Close()
	}()

	host.Run()
	return nil
}

// ledDisplaySink implements adapters.DisplayPowerEventSink, forwarding
// every committed display-mode transition to the LED controller so its
// display-off gating (§4.4) stays in lockstep with the state machine
// (the composite the LED policy's own package cannot build itself,
// since it must not depend on statemachine).
type ledDisplaySink struct {
	leds *ledpolicy.Controller
}

func (s *ledDisplaySink) NotifyDisplayPowerOn(reason pmtypes.DisplayPowerChangeReason) {
	s.leds.SetDisplayMode(pmtypes.DisplayPowerModeOn)
}

func (s *ledDisplaySink) NotifyDisplayPowerOff(reason pmtypes.DisplayPowerChangeReason) {
	s.leds.SetDisplayMode(pmtypes.DisplayPowerModeOff)
}

var _ adapters.PowerSource = (*linuxadapters.BatteryPoller)(nil)
