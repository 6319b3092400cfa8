// Copyright (c) 2026 powerd authors
// SPDX-License-Identifier: Apache-2.0

package eventqueue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQueueFIFOOrder(t *testing.T) {
	q := New()
	q.Push(Event{Kind: KindPowerButtonPress})
	q.Push(Event{Kind: KindPowerButtonRelease})
	q.Push(Event{Kind: KindLidClosed})

	var got []Kind
	for i := 0; i < 3; i++ {
		ev, ok := q.Pop()
		assert.True(t, ok)
		got = append(got, ev.Kind)
	}
	assert.Equal(t, []Kind{KindPowerButtonPress, KindPowerButtonRelease, KindLidClosed}, got)
}

func TestQueuePopBlocksUntilPush(t *testing.T) {
	q := New()
	done := make(chan Event, 1)
	go func() {
		ev, ok := q.Pop()
		if ok {
			done <- ev
		}
	}()

	select {
	case <-done:
		t.Fatal("Pop returned before any Push")
	case <-time.After(20 * time.Millisecond):
	}

	q.Push(Event{Kind: KindNotification})
	select {
	case ev := <-done:
		assert.Equal(t, KindNotification, ev.Kind)
	case <-time.After(time.Second):
		t.Fatal("Pop did not unblock after Push")
	}
}

func TestQueueCloseUnblocksPop(t *testing.T) {
	q := New()
	done := make(chan bool, 1)
	go func() {
		_, ok := q.Pop()
		done <- ok
	}()

	select {
	case <-done:
		t.Fatal("Pop returned before Close")
	case <-time.After(20 * time.Millisecond):
	}

	q.Close()
	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Pop did not unblock after Close")
	}
}

func TestQueuePushAfterCloseIsDropped(t *testing.T) {
	q := New()
	q.Close()
	q.Push(Event{Kind: KindNotification})
	_, ok := q.Pop()
	assert.False(t, ok)
}
