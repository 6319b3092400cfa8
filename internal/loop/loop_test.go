// Copyright (c) 2026 powerd authors
// SPDX-License-Identifier: Apache-2.0

package loop

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lf-edge/eve/pkg/powerd/internal/base"
	"github.com/lf-edge/eve/pkg/powerd/internal/eventqueue"
)

type recordingDispatcher struct {
	mu   sync.Mutex
	kind []eventqueue.Kind
}

func (d *recordingDispatcher) Dispatch(ev eventqueue.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.kind = append(d.kind, ev.Kind)
}

func (d *recordingDispatcher) seen() []eventqueue.Kind {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]eventqueue.Kind, len(d.kind))
	copy(out, d.kind)
	return out
}

func TestHostDispatchesEventsInOrderAndExitsOnClose(t *testing.T) {
	q := eventqueue.New()
	d := &recordingDispatcher{}
	h := New(base.NewLogObject("loop-test"), q, d, 0, nil)

	q.Push(eventqueue.Event{Kind: eventqueue.KindPowerButtonPress})
	q.Push(eventqueue.Event{Kind: eventqueue.KindLidClosed})
	q.Close()

	done := make(chan struct{})
	go func() { h.Run(); close(done) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after queue Close")
	}

	assert.Equal(t, []eventqueue.Kind{eventqueue.KindPowerButtonPress, eventqueue.KindLidClosed}, d.seen())
}

func TestHostInvokesOnTickPeriodically(t *testing.T) {
	q := eventqueue.New()
	d := &recordingDispatcher{}

	var ticks int
	var mu sync.Mutex
	h := New(base.NewLogObject("loop-test"), q, d, 10*time.Millisecond, func() {
		mu.Lock()
		ticks++
		mu.Unlock()
	})

	done := make(chan struct{})
	go func() { h.Run(); close(done) }()

	time.Sleep(55 * time.Millisecond)
	q.Close()
	<-done

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, ticks >= 2, "expected at least two watchdog ticks, got %d", ticks)
}
