// Copyright (c) 2026 powerd authors
// SPDX-License-Identifier: Apache-2.0

// Package pidfile guards against two copies of the daemon running at
// once, the same role pillar's pidfile package plays for every agent.
package pidfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lf-edge/eve/pkg/powerd/internal/base"
)

// CheckAndCreatePidfile writes <runDir>/<agentName>.pid, failing if a
// live process already owns it.
func CheckAndCreatePidfile(log *base.LogObject, runDir, agentName string) error {
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return fmt.Errorf("pidfile: mkdir %s: %w", runDir, err)
	}
	path := filepath.Join(runDir, agentName+".pid")
	if existing, err := os.ReadFile(path); err == nil {
		if pid, perr := strconv.Atoi(strings.TrimSpace(string(existing))); perr == nil && pid != os.Getpid() {
			if processAlive(pid) {
				return fmt.Errorf("pidfile: %s already running as pid %d", agentName, pid)
			}
			log.Warnf("pidfile: stale pid %d for %s, reclaiming", pid, agentName)
		}
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0644)
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscallSig0()) == nil
}
