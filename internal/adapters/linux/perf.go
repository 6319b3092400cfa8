// Copyright (c) 2026 powerd authors
// SPDX-License-Identifier: Apache-2.0

package linux

import (
	"os"
	"path/filepath"

	"github.com/lf-edge/eve/pkg/powerd/internal/base"
)

// cpufreqGlob matches every CPU's scaling_governor sysfs attribute.
const cpufreqGlob = "/sys/devices/system/cpu/cpu[0-9]*/cpufreq/scaling_governor"

// Performance implements adapters.PerformanceBooster by switching every
// CPU's cpufreq governor between "performance" (interactive mode, used
// while the display is on and the user is actively touching the
// device) and a power-friendly "schedutil"/"ondemand" fallback.
type Performance struct {
	log          *base.LogObject
	idleGovernor string
}

// NewPerformance builds a Performance adapter. idleGovernor names the
// governor restored on DisableInteractiveMode — "schedutil" on modern
// kernels, "ondemand" on older ones.
func NewPerformance(log *base.LogObject, idleGovernor string) *Performance {
	if idleGovernor == "" {
		idleGovernor = "schedutil"
	}
	return &Performance{log: log, idleGovernor: idleGovernor}
}

// EnableInteractiveMode switches every CPU to the "performance" governor.
func (p *Performance) EnableInteractiveMode() {
	p.setGovernor("performance")
}

// DisableInteractiveMode restores the configured idle governor.
func (p *Performance) DisableInteractiveMode() {
	p.setGovernor(p.idleGovernor)
}

func (p *Performance) setGovernor(governor string) {
	paths, err := filepath.Glob(cpufreqGlob)
	if err != nil {
		p.log.Errorf("perf: glob cpufreq paths: %v", err)
		return
	}
	for _, path := range paths {
		if err := os.WriteFile(path, []byte(governor), 0644); err != nil {
			p.log.Errorf("perf: write %s to %s: %v", governor, path, err)
		}
	}
}
