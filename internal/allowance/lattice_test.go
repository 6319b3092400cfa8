// Copyright (c) 2026 powerd authors
// SPDX-License-Identifier: Apache-2.0

package allowance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInactivityTimeoutAllowanceIsAND(t *testing.T) {
	var edges [][3]interface{}
	l := NewInactivityTimeoutAllowance(func(from, to bool, source string) {
		edges = append(edges, [3]interface{}{from, to, source})
	})
	assert.True(t, l.Current(), "both sources start true")

	l.Set("client", false)
	assert.False(t, l.Current())
	assert.Equal(t, [3]interface{}{true, false, "client"}, edges[0])

	// Setting the other source while already false causes no further edge.
	l.Set("notification", false)
	assert.Len(t, edges, 1)

	l.Set("client", true)
	assert.False(t, l.Current(), "notification source still false")
	assert.Len(t, edges, 1)

	l.Set("notification", true)
	assert.True(t, l.Current())
	assert.Equal(t, [3]interface{}{false, true, "notification"}, edges[1])
}

func TestProximityEnablementIsOR(t *testing.T) {
	var edgeCount int
	l := NewProximityEnablement(func(from, to bool, source string) { edgeCount++ })
	assert.False(t, l.Current(), "all sources start false")

	l.Set(SourceUntilDisabled, true)
	assert.True(t, l.Current())
	assert.Equal(t, 1, edgeCount)

	l.Set(SourceUntilFarOrTimeout, true)
	assert.True(t, l.Current(), "still true: OR of two trues")
	assert.Equal(t, 1, edgeCount, "no edge: value did not change")

	l.Set(SourceUntilDisabled, false)
	assert.True(t, l.Current(), "still true via the other source")
	assert.Equal(t, 1, edgeCount)

	l.Set(SourceUntilFarOrTimeout, false)
	assert.False(t, l.Current())
	assert.Equal(t, 2, edgeCount)
}

func TestOnlySourceSetObservedBeforeClear(t *testing.T) {
	l := NewProximityEnablement(nil)
	l.Set(SourceUntilFarOrNotificationExpiration, true)

	assert.True(t, l.OnlySourceSet(SourceUntilFarOrNotificationExpiration))

	l.Set(SourceUntilFarOrTimeout, true)
	assert.False(t, l.OnlySourceSet(SourceUntilFarOrNotificationExpiration), "two sources now set")

	l.Set(SourceUntilFarOrTimeout, false)
	assert.True(t, l.OnlySourceSet(SourceUntilFarOrNotificationExpiration), "back to exactly one source")
}

func TestSetIsNoOpWhenValueUnchanged(t *testing.T) {
	calls := 0
	l := NewInactivityTimeoutAllowance(func(bool, bool, string) { calls++ })
	l.Set("client", true) // already true
	assert.Equal(t, 0, calls)
	assert.True(t, l.Get("client"))
}
