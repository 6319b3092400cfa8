// Copyright (c) 2026 powerd authors
// SPDX-License-Identifier: Apache-2.0

// Package loop is the C8 component: a single-threaded driver that
// pumps events from the queue into the state machine, grounded on the
// teacher's `for { select { case change := <-sub.MsgChan(): ... case
// <-stillRunning.C: } }` idiom in cmd/ledmanager/ledmanager.go,
// reduced to the single-queue case this daemon has.
package loop

import (
	"time"

	"github.com/lf-edge/eve/pkg/powerd/internal/base"
	"github.com/lf-edge/eve/pkg/powerd/internal/eventqueue"
)

// Dispatcher is the subset of statemachine.Machine the loop needs.
type Dispatcher interface {
	Dispatch(ev eventqueue.Event)
}

// Host pumps events out of a Queue into a Dispatcher until the queue is closed.
type Host struct {
	log   *base.LogObject
	queue *eventqueue.Queue
	m     Dispatcher

	watchdogInterval time.Duration
	onTick           func()
}

// New builds a Host. onTick, if non-nil, is invoked every
// watchdogInterval on the loop's own goroutine (e.g. to touch a
// watchdog file), matching the teacher's StillRunning ticker pattern.
func New(log *base.LogObject, queue *eventqueue.Queue, m Dispatcher, watchdogInterval time.Duration, onTick func()) *Host {
	return &Host{log: log, queue: queue, m: m, watchdogInterval: watchdogInterval, onTick: onTick}
}

// Run blocks, dispatching events until the queue is closed.
func (h *Host) Run() {
	var ticker *time.Ticker
	var tickC <-chan time.Time
	if h.watchdogInterval > 0 {
		ticker = time.NewTicker(h.watchdogInterval)
		defer ticker.Stop()
		tickC = ticker.C
	}

	events := make(chan eventqueue.Event)
	done := make(chan struct{})
	go func() {
		defer close(events)
		for {
			ev, ok := h.queue.Pop()
			if !ok {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()
	defer close(done)

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				h.log.Functionf("loop: queue closed, exiting")
				return
			}
			h.m.Dispatch(ev)
		case <-tickC:
			if h.onTick != nil {
				h.onTick()
			}
		}
	}
}
