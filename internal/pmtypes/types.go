// Copyright (c) 2026 powerd authors
// SPDX-License-Identifier: Apache-2.0

// Package pmtypes holds the data model of §3: the enums, value types
// and small invariants shared by every other package, the way
// pillar/types is shared by every pillar agent.
package pmtypes

import "fmt"

// DisplayPowerMode is the display's on/off state.
type DisplayPowerMode uint8

const (
	// DisplayPowerModeUnknown is the zero value, never observed after start().
	DisplayPowerModeUnknown DisplayPowerMode = iota
	// DisplayPowerModeOn indicates the display is lit.
	DisplayPowerModeOn
	// DisplayPowerModeOff is the initial mode.
	DisplayPowerModeOff
)

func (m DisplayPowerMode) String() string {
	switch m {
	case DisplayPowerModeOn:
		return "on"
	case DisplayPowerModeOff:
		return "off"
	default:
		return "unknown"
	}
}

// DisplayPowerChangeReason is stamped on every mode change (§3).
type DisplayPowerChangeReason uint8

const (
	// ReasonUnknown is the default / lid / disable-timeout reason.
	ReasonUnknown DisplayPowerChangeReason = iota
	// ReasonActivity covers user-activity and inactivity-timeout transitions.
	ReasonActivity
	// ReasonPowerButton covers power-button-driven transitions.
	ReasonPowerButton
	// ReasonProximity covers proximity-sensor-driven transitions.
	ReasonProximity
	// ReasonNotification covers notification-driven transitions.
	ReasonNotification
	// ReasonCall covers active-call-driven transitions.
	ReasonCall
	// ReasonCallDone covers call-end-driven transitions.
	ReasonCallDone
)

func (r DisplayPowerChangeReason) String() string {
	switch r {
	case ReasonActivity:
		return "activity"
	case ReasonPowerButton:
		return "power_button"
	case ReasonProximity:
		return "proximity"
	case ReasonNotification:
		return "notification"
	case ReasonCall:
		return "call"
	case ReasonCallDone:
		return "call_done"
	default:
		return "unknown"
	}
}

// ProximityState is the read-only snapshot exposed by the proximity adapter.
type ProximityState uint8

const (
	// ProximityUnknown means no reading has arrived yet.
	ProximityUnknown ProximityState = iota
	// ProximityNear means an object is detected close to the sensor.
	ProximityNear
	// ProximityFar means nothing is detected nearby.
	ProximityFar
)

func (p ProximityState) String() string {
	switch p {
	case ProximityNear:
		return "near"
	case ProximityFar:
		return "far"
	default:
		return "unknown"
	}
}

// PowerSupply identifies which source is currently powering the device.
type PowerSupply uint8

const (
	// Battery indicates the device is running unplugged.
	Battery PowerSupply = iota
	// LinePower indicates external power is connected.
	LinePower
)

func (s PowerSupply) String() string {
	if s == LinePower {
		return "line_power"
	}
	return "battery"
}

// PowerAction names the target behavior for lid-close and
// critical-battery policy (§3).
type PowerAction uint8

const (
	// ActionNone performs no action.
	ActionNone PowerAction = iota
	// ActionDisplayOff turns the display off.
	ActionDisplayOff
	// ActionSuspend suspends the system.
	ActionSuspend
	// ActionPowerOff powers the system off.
	ActionPowerOff
)

func (a PowerAction) String() string {
	switch a {
	case ActionDisplayOff:
		return "display_off"
	case ActionSuspend:
		return "suspend"
	case ActionPowerOff:
		return "power_off"
	default:
		return "none"
	}
}

// ParsePowerAction parses the lid/critical-power action names accepted
// over IPC and from config.
func ParsePowerAction(s string) (PowerAction, error) {
	switch s {
	case "", "none":
		return ActionNone, nil
	case "display_off":
		return ActionDisplayOff, nil
	case "suspend":
		return ActionSuspend, nil
	case "power_off":
		return ActionPowerOff, nil
	default:
		return ActionNone, fmt.Errorf("pmtypes: unknown power action %q", s)
	}
}

// DisplayFilter selects which physical panels a display command applies to.
type DisplayFilter uint8

const (
	// FilterAll applies to every panel (internal and external).
	FilterAll DisplayFilter = iota
	// FilterInternal applies to the built-in panel only.
	FilterInternal
	// FilterExternal applies to externally attached panels only.
	FilterExternal
)

// ScheduledTimeoutType records which family of display-off deadline is
// currently armed (§3).
type ScheduledTimeoutType uint8

const (
	// TimeoutNone means no display-off alarm is armed.
	TimeoutNone ScheduledTimeoutType = iota
	// TimeoutNormal is the full user-inactivity timeout.
	TimeoutNormal
	// TimeoutPostNotification is the short timeout armed after a notification clears.
	TimeoutPostNotification
	// TimeoutReduced is the short timeout armed after proximity/call transitions.
	TimeoutReduced
)

// BatteryChargeState enumerates §3's BatteryInfo.state values.
type BatteryChargeState uint8

const (
	// BatteryStateUnknown is the zero value.
	BatteryStateUnknown BatteryChargeState = iota
	// BatteryStateCharging means the battery is gaining charge.
	BatteryStateCharging
	// BatteryStateDischarging means the battery is losing charge.
	BatteryStateDischarging
	// BatteryStateEmpty means the battery has reached 0%.
	BatteryStateEmpty
	// BatteryStateFull means the battery has reached 100%.
	BatteryStateFull
	// BatteryStatePendingCharge is a transitional state toward charging.
	BatteryStatePendingCharge
	// BatteryStatePendingDischarge is a transitional state toward discharging.
	BatteryStatePendingDischarge
)

// BatteryInfo is the periodic battery sample fed into the LED policy.
type BatteryInfo struct {
	IsPresent   bool
	State       BatteryChargeState
	Percentage  int
	Temperature float64
}

// RGB is a plain 8-bit-per-channel color.
type RGB struct {
	R, G, B uint8
}

// FlashMode selects whether an LedPattern blinks or holds steady.
type FlashMode uint8

const (
	// FlashNone holds the LED steady (or off).
	FlashNone FlashMode = iota
	// FlashTimed blinks on_ms/off_ms repeatedly.
	FlashTimed
)

// LedPattern is the fully-resolved instruction sent to the LED adapter.
type LedPattern struct {
	Color         RGB
	OnMs          int
	OffMs         int
	FlashMode     FlashMode
	BrightnessPct int
}

// LightEventName enumerates the named light events of §3/§4.4.
type LightEventName uint8

const (
	// UnreadNotifications indicates unread notifications are present.
	UnreadNotifications LightEventName = iota
	// BluetoothEnabled indicates Bluetooth radio is on.
	BluetoothEnabled
	// BatteryLow indicates battery percentage is critically low.
	BatteryLow
	// BatteryCharging indicates the battery is charging.
	BatteryCharging
	// BatteryFull indicates the battery has reached 100%.
	BatteryFull
	// Playing indicates media playback is active.
	Playing
)

func (e LightEventName) String() string {
	switch e {
	case UnreadNotifications:
		return "UnreadNotifications"
	case BluetoothEnabled:
		return "BluetoothEnabled"
	case BatteryLow:
		return "BatteryLow"
	case BatteryCharging:
		return "BatteryCharging"
	case BatteryFull:
		return "BatteryFull"
	case Playing:
		return "Playing"
	default:
		return "Unknown"
	}
}

// ParseLightEventName performs the exact-match string lookup that §9's
// open question resolves in favor of: "string matched -> set that event".
func ParseLightEventName(s string) (LightEventName, bool) {
	switch s {
	case "UnreadNotifications":
		return UnreadNotifications, true
	case "BluetoothEnabled":
		return BluetoothEnabled, true
	case "BatteryLow":
		return BatteryLow, true
	case "BatteryCharging":
		return BatteryCharging, true
	case "BatteryFull":
		return BatteryFull, true
	case "Playing":
		return Playing, true
	default:
		return 0, false
	}
}

// AllLightEvents lists every LightEventName in priority order, highest
// first, per §4.4.
var AllLightEvents = [...]LightEventName{
	BatteryLow,
	UnreadNotifications,
	BluetoothEnabled,
	BatteryFull,
	BatteryCharging,
	Playing,
}
