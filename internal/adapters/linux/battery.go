// Copyright (c) 2026 powerd authors
// SPDX-License-Identifier: Apache-2.0

package linux

import (
	"time"

	"github.com/shirou/gopsutil/host"

	"github.com/lf-edge/eve/pkg/powerd/internal/base"
	"github.com/lf-edge/eve/pkg/powerd/internal/eventqueue"
	"github.com/lf-edge/eve/pkg/powerd/internal/pmtypes"
)

// BatteryPoller periodically samples the host's power-supply sysfs
// tree with a direct /sys/class/power_supply read, translating the
// result into
// PowerSourceChange/PowerSourceCritical events plus a BatteryInfo
// snapshot for the LED policy.
type BatteryPoller struct {
	log          *base.LogObject
	queue        *eventqueue.Queue
	onSample     func(pmtypes.BatteryInfo)
	criticalPct  int
	interval     time.Duration

	lastSupply pmtypes.PowerSupply
	haveSupply bool
}

// NewBatteryPoller builds a poller that pushes PowerSourceChange
// events on every battery/line-power transition and calls onSample on
// every poll with the full BatteryInfo snapshot (feeding the LED
// policy's derived flags per §4.4).
func NewBatteryPoller(log *base.LogObject, queue *eventqueue.Queue, interval time.Duration, criticalPct int, onSample func(pmtypes.BatteryInfo)) *BatteryPoller {
	return &BatteryPoller{log: log, queue: queue, onSample: onSample, criticalPct: criticalPct, interval: interval}
}

// Run polls until stop is closed. Intended to be started as its own
// goroutine by cmd/powerd, posting events onto the shared queue rather
// than calling into the state machine directly (§5).
func (b *BatteryPoller) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		info, supply, err := b.sample()
		if err != nil {
			b.log.Errorf("battery: sample failed: %v", err)
			continue
		}
		if b.onSample != nil {
			b.onSample(info)
		}
		if !b.haveSupply || supply != b.lastSupply {
			b.haveSupply = true
			b.lastSupply = supply
			payload := eventqueue.SupplyBattery
			if supply == pmtypes.LinePower {
				payload = eventqueue.SupplyLinePower
			}
			b.queue.Push(eventqueue.Event{Kind: eventqueue.KindPowerSourceChange, Supply: payload})
		}
		if info.IsPresent && info.Percentage <= b.criticalPct && supply == pmtypes.Battery {
			b.queue.Push(eventqueue.Event{Kind: eventqueue.KindPowerSourceCritical})
		}
	}
}

// sample reads the host's battery state. gopsutil/host does not
// expose a dedicated battery API on Linux, so this reads the standard
// /sys/class/power_supply/BAT0 attributes directly, the same sysfs
// convention pillar's hardware package reads device model strings
// from (see hardware.GetHardwareModel, referenced by ledmanager.go).
func (b *BatteryPoller) sample() (pmtypes.BatteryInfo, pmtypes.PowerSupply, error) {
	present, status, percentage, tempC, err := readPowerSupply("/sys/class/power_supply/BAT0")
	if err != nil {
		return pmtypes.BatteryInfo{}, pmtypes.Battery, err
	}
	onLine := acOnline("/sys/class/power_supply/AC")

	info := pmtypes.BatteryInfo{
		IsPresent:   present,
		State:       status,
		Percentage:  percentage,
		Temperature: tempC,
	}
	supply := pmtypes.Battery
	if onLine {
		supply = pmtypes.LinePower
	}
	return info, supply, nil
}

// IsUsingBatteryPower implements adapters.PowerSource with a
// synchronous sysfs read, the "read-only snapshot fetched
// synchronously" case §5 carves out for the proximity/power-supply
// state. A read failure is treated as "on line power". A missing
// battery is not a read failure: the supply then follows the AC
// adapter's online attribute alone.
func (b *BatteryPoller) IsUsingBatteryPower() bool {
	_, supply, err := b.sample()
	if err != nil {
		return false
	}
	return supply == pmtypes.Battery
}

// hostUptimeHook returns the host uptime in seconds via gopsutil/host.
// Nothing in this package calls it; samples carry no uptime.
func hostUptimeHook() (uint64, error) {
	return host.Uptime()
}
