// Copyright (c) 2026 powerd authors
// SPDX-License-Identifier: Apache-2.0

package linux

import (
	"os"

	"github.com/lf-edge/eve/pkg/powerd/internal/base"
	"github.com/lf-edge/eve/pkg/powerd/internal/pmtypes"
)

// drmPaths lists the sysfs DPMS-capable connector nodes this adapter
// writes to for each DisplayFilter, e.g.
// /sys/class/drm/card0-eDP-1/enabled for the internal panel and every
// card*-HDMI-*/DP-* node for external ones.
type drmPaths struct {
	internal []string
	external []string
}

// Display implements adapters.DisplayPowerControl by writing "enabled"/"disabled"
// into DRM connector "enabled" attributes, mirroring the teacher's
// direct sysfs writes in ledmanager.go.
type Display struct {
	log   *base.LogObject
	paths drmPaths
}

// NewDisplay builds a Display adapter over the given internal/external
// DRM connector sysfs paths.
func NewDisplay(log *base.LogObject, internalPaths, externalPaths []string) *Display {
	return &Display{log: log, paths: drmPaths{internal: internalPaths, external: externalPaths}}
}

func (d *Display) targets(filter pmtypes.DisplayFilter) []string {
	switch filter {
	case pmtypes.FilterInternal:
		return d.paths.internal
	case pmtypes.FilterExternal:
		return d.paths.external
	default:
		all := make([]string, 0, len(d.paths.internal)+len(d.paths.external))
		all = append(all, d.paths.internal...)
		all = append(all, d.paths.external...)
		return all
	}
}

func (d *Display) write(filter pmtypes.DisplayFilter, value string) {
	for _, p := range d.targets(filter) {
		if err := os.WriteFile(p, []byte(value), 0644); err != nil {
			d.log.Errorf("display: write %s=%s failed: %v", p, value, err)
		}
	}
}

// TurnOn enables the filtered set of connectors.
func (d *Display) TurnOn(filter pmtypes.DisplayFilter) { d.write(filter, "enabled") }

// TurnOff disables the filtered set of connectors.
func (d *Display) TurnOff(filter pmtypes.DisplayFilter) { d.write(filter, "disabled") }

// DisplayInfo implements adapters.DisplayInformation over the same
// connector set, reporting whether any external path currently reads
// "connected".
type DisplayInfo struct {
	log   *base.LogObject
	paths []string
}

// NewDisplayInfo builds a DisplayInfo adapter over the external DRM
// connector "status" sysfs paths.
func NewDisplayInfo(log *base.LogObject, externalStatusPaths []string) *DisplayInfo {
	return &DisplayInfo{log: log, paths: externalStatusPaths}
}

// HasActiveExternalDisplays reports whether any external connector's
// status attribute currently reads "connected".
func (d *DisplayInfo) HasActiveExternalDisplays() bool {
	for _, p := range d.paths {
		raw, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		if string(raw) == "connected\n" || string(raw) == "connected" {
			return true
		}
	}
	return false
}
