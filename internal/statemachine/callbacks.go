// Copyright (c) 2026 powerd authors
// SPDX-License-Identifier: Apache-2.0

package statemachine

import "github.com/lf-edge/eve/pkg/powerd/internal/pmtypes"

// onInactivityAllowanceEdge implements Testable Property 5 (§8): an
// edge from false->true while the display is on schedules a normal
// inactivity alarm when the client source caused it, or turns the
// display off immediately (reason=activity) when the notification
// source caused it and no timeout is currently scheduled.
func (m *Machine) onInactivityAllowanceEdge(from, to bool, source string) {
	if from == to {
		return
	}
	if !to {
		return
	}
	if !m.displayOn() {
		return
	}
	switch source {
	case "client":
		m.armNormalInactivity()
	case "notification":
		if m.scheduledTimeoutType == pmtypes.TimeoutNone {
			m.turnOffDisplay(pmtypes.ReasonActivity)
		}
	}
}

// onProximityEnablementEdge keeps the proximity sensor's own
// enable/disable calls synchronized with the lattice's combined value
// (Testable Property 4, §8): enabled iff at least one source is set.
func (m *Machine) onProximityEnablementEdge(from, to bool, source string) {
	if m.paused {
		return
	}
	if to {
		m.adapt.Proximity.EnableProximityEvents()
	} else {
		m.adapt.Proximity.DisableProximityEvents()
	}
}
