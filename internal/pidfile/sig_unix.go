// Copyright (c) 2026 powerd authors
// SPDX-License-Identifier: Apache-2.0

package pidfile

import "syscall"

func syscallSig0() syscall.Signal {
	return syscall.Signal(0)
}
