// Copyright (c) 2026 powerd authors
// SPDX-License-Identifier: Apache-2.0

package linux

import (
	"github.com/godbus/dbus/v5"

	"github.com/lf-edge/eve/pkg/powerd/internal/base"
)

// powerButtonObjectPath and powerButtonInterface are this daemon's own
// exported object, not a ModemManager one — the long-press signal is
// ours to emit so a shutdown-confirmation UI elsewhere on the bus can
// subscribe to it.
const (
	powerButtonObjectPath = dbus.ObjectPath("/org/lfedge/Powerd/PowerButton")
	powerButtonInterface  = "org.lfedge.Powerd.PowerButton"
)

// Button implements adapters.PowerButtonEventSink by emitting a D-Bus
// signal, the same transport Modem uses for outbound calls (§6).
type Button struct {
	log  *base.LogObject
	conn *dbus.Conn
}

// NewButton builds a Button adapter over an already-connected system
// bus connection.
func NewButton(log *base.LogObject, conn *dbus.Conn) *Button {
	return &Button{log: log, conn: conn}
}

// NotifyLongPress emits LongPressDetected on the system bus.
func (b *Button) NotifyLongPress() {
	if b.conn == nil {
		return
	}
	if err := b.conn.Emit(powerButtonObjectPath, powerButtonInterface+".LongPressDetected"); err != nil {
		b.log.Errorf("button: emit LongPressDetected failed: %v", err)
	}
}
