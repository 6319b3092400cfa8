// Copyright (c) 2026 powerd authors
// SPDX-License-Identifier: Apache-2.0

package linux

import (
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/lf-edge/eve/pkg/powerd/internal/adapters"
	"github.com/lf-edge/eve/pkg/powerd/internal/base"
)

// System implements adapters.SystemPowerControl by writing "mem" to
// /sys/power/state for suspend and calling unix.Reboot for power-off,
// matching the teacher's habit (ledmanager.go, unix.Fadvise/syscall.Madvise)
// of reaching for golang.org/x/sys/unix directly rather than shelling out.
type System struct {
	log *base.LogObject

	mu              sync.Mutex
	suspendVetoes   map[adapters.SuspendID]bool
	defaultHandlers bool
}

// NewSystem builds a System adapter. Default platform power-button and
// lid handlers are assumed enabled (matching a freshly booted kernel)
// until the daemon explicitly disables them in Start().
func NewSystem(log *base.LogObject) *System {
	return &System{log: log, suspendVetoes: make(map[adapters.SuspendID]bool), defaultHandlers: true}
}

// Suspend writes "mem" to /sys/power/state. A failure is logged and
// swallowed (§7) — the caller does not retry; the next event that
// re-enters a suspend-eligible state will try again.
func (s *System) Suspend() {
	if err := os.WriteFile("/sys/power/state", []byte("mem"), 0644); err != nil {
		s.log.Errorf("system: suspend failed: %v", err)
	}
}

// PowerOff invokes the kernel's power-off reboot command.
func (s *System) PowerOff() {
	if err := unix.Reboot(unix.LINUX_REBOOT_CMD_POWER_OFF); err != nil {
		s.log.Errorf("system: power-off failed: %v", err)
	}
}

// AllowAutomaticSuspend clears one veto. Automatic suspend is allowed
// system-wide only once every id-keyed veto has been cleared.
func (s *System) AllowAutomaticSuspend(id adapters.SuspendID) {
	s.mu.Lock()
	delete(s.suspendVetoes, id)
	s.mu.Unlock()
}

// DisallowAutomaticSuspend sets one veto.
func (s *System) DisallowAutomaticSuspend(id adapters.SuspendID) {
	s.mu.Lock()
	s.suspendVetoes[id] = true
	s.mu.Unlock()
}

// AnySuspendVetoed reports whether any caller currently disallows
// automatic (non-button-driven) suspend.
func (s *System) AnySuspendVetoed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.suspendVetoes) > 0
}

// AllowDefaultSystemHandlers re-enables the platform's own power
// button/lid-switch handling (e.g. systemd-logind's HandlePowerKey),
// used on pause() (§4.5.4).
func (s *System) AllowDefaultSystemHandlers() {
	s.defaultHandlers = true
}

// DisallowDefaultSystemHandlers disables the platform's own handling
// so this daemon is the sole arbiter, used on start()/resume().
func (s *System) DisallowDefaultSystemHandlers() {
	s.defaultHandlers = false
}
