// Copyright (c) 2026 powerd authors
// SPDX-License-Identifier: Apache-2.0

package linux

import (
	"context"

	"github.com/godbus/dbus/v5"

	"github.com/lf-edge/eve/pkg/powerd/internal/base"
)

// Modem implements adapters.ModemPowerControl by calling ModemManager's
// D-Bus API, the same transport the pack's mmagent module uses
// (github.com/godbus/dbus/v5) to talk to the modem from the other side.
type Modem struct {
	log       *base.LogObject
	conn      *dbus.Conn
	modemPath dbus.ObjectPath
}

const (
	mmService        = "org.freedesktop.ModemManager1"
	mmModemInterface = "org.freedesktop.ModemManager1.Modem"
)

// NewModem connects to the system bus and targets the given modem
// object path (discovered once at daemon startup by the caller).
func NewModem(log *base.LogObject, conn *dbus.Conn, modemPath dbus.ObjectPath) *Modem {
	return &Modem{log: log, conn: conn, modemPath: modemPath}
}

func (m *Modem) setPowerState(state uint32) {
	if m.conn == nil || m.modemPath == "" {
		return // no modem present: a no-op per §7
	}
	obj := m.conn.Object(mmService, m.modemPath)
	ctx, cancel := context.WithTimeout(context.Background(), dbusCallTimeout)
	defer cancel()
	call := obj.CallWithContext(ctx, mmModemInterface+".SetPowerState", 0, state)
	if call.Err != nil {
		m.log.Errorf("modem: SetPowerState(%d) failed: %v", state, call.Err)
	}
}

// Modem Manager MM_MODEM_POWER_STATE values.
const (
	mmPowerStateLow    uint32 = 2
	mmPowerStateNormal uint32 = 3
)

// SetLowPowerMode requests the radio drop to low-power state.
func (m *Modem) SetLowPowerMode() { m.setPowerState(mmPowerStateLow) }

// SetNormalPowerMode requests the radio return to full power.
func (m *Modem) SetNormalPowerMode() { m.setPowerState(mmPowerStateNormal) }
