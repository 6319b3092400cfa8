// Copyright (c) 2026 powerd authors
// SPDX-License-Identifier: Apache-2.0

package linux

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lf-edge/eve/pkg/powerd/internal/pmtypes"
)

func readSysfsAttr(dir, name string) (string, bool) {
	raw, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(raw)), true
}

func readPowerSupply(dir string) (present bool, state pmtypes.BatteryChargeState, percentage int, tempC float64, err error) {
	if presentStr, ok := readSysfsAttr(dir, "present"); ok {
		present = presentStr == "1"
	}
	if !present {
		return false, pmtypes.BatteryStateUnknown, 0, 0, nil
	}
	if s, ok := readSysfsAttr(dir, "status"); ok {
		state = parseChargeState(s)
	}
	if s, ok := readSysfsAttr(dir, "capacity"); ok {
		if v, perr := strconv.Atoi(s); perr == nil {
			percentage = v
		}
	}
	if s, ok := readSysfsAttr(dir, "temp"); ok {
		if v, perr := strconv.ParseFloat(s, 64); perr == nil {
			tempC = v / 10.0 // kernel reports battery temp in tenths of a degree C
		}
	}
	return present, state, percentage, tempC, nil
}

func parseChargeState(s string) pmtypes.BatteryChargeState {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "charging":
		return pmtypes.BatteryStateCharging
	case "discharging":
		return pmtypes.BatteryStateDischarging
	case "full":
		return pmtypes.BatteryStateFull
	case "not charging":
		return pmtypes.BatteryStatePendingDischarge
	default:
		return pmtypes.BatteryStateUnknown
	}
}

func acOnline(dir string) bool {
	s, ok := readSysfsAttr(dir, "online")
	return ok && s == "1"
}
