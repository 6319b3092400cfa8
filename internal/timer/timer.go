// Copyright (c) 2026 powerd authors
// SPDX-License-Identifier: Apache-2.0

// Package timer implements the AlarmId registry of §4.1: a monotonic
// clock plus one-shot schedule/cancel, with firings delivered as
// events back onto the caller's queue. Generalizes the single periodic
// "StillRunning" ticker the teacher arms per agent (see
// cmd/zedagent/airplanemode.go's flextimer.NewRangeTicker) into
// many independently cancellable one-shot alarms.
package timer

import (
	"sync"
	"time"
)

// AlarmId is an opaque per-registry handle. The zero value is Invalid.
type AlarmId uint64

// Invalid denotes "no alarm scheduled".
const Invalid AlarmId = 0

// Clock abstracts time.Now so tests can inject a fake monotonic source.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Canceler
}

// Canceler is the subset of *time.Timer the registry needs.
type Canceler interface {
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }
func (realClock) AfterFunc(d time.Duration, f func()) Canceler {
	return time.AfterFunc(d, f)
}

// RealClock is the production Clock, backed by the runtime's monotonic clock.
var RealClock Clock = realClock{}

// FireFunc is invoked, from the clock's AfterFunc callback, when an
// alarm fires. payload is whatever was passed to ScheduleIn, letting
// the caller recover which logical alarm this was without the
// registry needing to know about event kinds. Implementations must
// not block — the state machine's event queue push is expected to be
// non-blocking (§4.2).
type FireFunc func(id AlarmId, payload interface{})

// Registry is the C1 component: schedule-in / cancel over a monotonic clock.
type Registry struct {
	clock  Clock
	onFire FireFunc

	mu      sync.Mutex
	nextID  AlarmId
	pending map[AlarmId]pendingAlarm
}

type pendingAlarm struct {
	cancel  Canceler
	payload interface{}
}

// NewRegistry builds a Registry that calls onFire whenever a scheduled
// alarm fires and has not since been cancelled.
func NewRegistry(clock Clock, onFire FireFunc) *Registry {
	if clock == nil {
		clock = RealClock
	}
	return &Registry{
		clock:   clock,
		onFire:  onFire,
		pending: make(map[AlarmId]pendingAlarm),
	}
}

// Now returns the registry's monotonic clock reading.
func (r *Registry) Now() time.Time {
	return r.clock.Now()
}

// ScheduleIn arms a new one-shot alarm that fires after d. Zero and
// negative durations are legal and fire at the next scheduler turn.
// payload is handed back verbatim to FireFunc so the caller can tell
// which logical alarm fired.
func (r *Registry) ScheduleIn(d time.Duration, payload interface{}) AlarmId {
	if d < 0 {
		d = 0
	}
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	// Reserve the entry before arming the real timer: AfterFunc's callback
	// can run on its own goroutine and, for a zero or very short duration,
	// may fire before this call returns. Without the entry already present,
	// the callback would find nothing pending and silently drop the alarm.
	r.pending[id] = pendingAlarm{payload: payload}
	r.mu.Unlock()

	c := r.clock.AfterFunc(d, func() {
		r.mu.Lock()
		p, stillPending := r.pending[id]
		if stillPending {
			delete(r.pending, id)
		}
		r.mu.Unlock()
		if stillPending && r.onFire != nil {
			r.onFire(id, p.payload)
		}
	})

	r.mu.Lock()
	if p, stillPending := r.pending[id]; stillPending {
		p.cancel = c
		r.pending[id] = p
	}
	r.mu.Unlock()
	return id
}

// Cancel is idempotent: cancelling an already-fired or already-cancelled
// id is a no-op.
func (r *Registry) Cancel(id AlarmId) {
	if id == Invalid {
		return
	}
	r.mu.Lock()
	p, ok := r.pending[id]
	if ok {
		delete(r.pending, id)
	}
	r.mu.Unlock()
	// p.cancel can still be nil if Cancel races the ScheduleIn call that
	// reserved this entry before the real timer was armed; the armed timer
	// will fire harmlessly once it finds the entry already gone.
	if ok && p.cancel != nil {
		p.cancel.Stop()
	}
}
