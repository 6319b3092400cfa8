// Copyright (c) 2026 powerd authors
// SPDX-License-Identifier: Apache-2.0

package linux

import "time"

// dbusCallTimeout bounds every outgoing D-Bus call this package makes
// so a wedged system service cannot stall the event loop thread
// inside an adapter call (§5: "adapters are required not to re-enter
// the state machine synchronously", which in turn means a slow
// adapter call blocks the one loop thread until it returns).
const dbusCallTimeout = 2 * time.Second
