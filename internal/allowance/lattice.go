// Copyright (c) 2026 powerd authors
// SPDX-License-Identifier: Apache-2.0

// Package allowance implements the C3 component: an N-source boolean
// lattice (AND or OR) with an edge callback, instantiated twice per
// §4.3 — the inactivity-timeout allowance and the proximity
// enablement.
package allowance

// Predicate combines the per-source booleans into the lattice's
// current value.
type Predicate func(sources map[string]bool) bool

// And is the all-true predicate used by InactivityTimeoutAllowance.
func And(sources map[string]bool) bool {
	for _, v := range sources {
		if !v {
			return false
		}
	}
	return true
}

// Or is the any-true predicate used by ProximityEnablement.
func Or(sources map[string]bool) bool {
	for _, v := range sources {
		if v {
			return true
		}
	}
	return false
}

// Lattice is a fixed-source-set boolean lattice with edge detection.
type Lattice struct {
	sources   map[string]bool
	predicate Predicate
	current   bool
	onEdge    func(from, to bool, changedSource string)
}

// New builds a Lattice over the given source names, all initialized to
// initial, using predicate to derive the current value. onEdge, if
// non-nil, is invoked synchronously whenever Set causes current to change.
func New(sourceNames []string, initial bool, predicate Predicate, onEdge func(from, to bool, changedSource string)) *Lattice {
	sources := make(map[string]bool, len(sourceNames))
	for _, n := range sourceNames {
		sources[n] = initial
	}
	l := &Lattice{sources: sources, predicate: predicate, onEdge: onEdge}
	l.current = predicate(sources)
	return l
}

// NewInactivityTimeoutAllowance builds the two-source AND lattice of
// §4.3: {client, notification}, both initially true.
func NewInactivityTimeoutAllowance(onEdge func(from, to bool, changedSource string)) *Lattice {
	return New([]string{"client", "notification"}, true, And, onEdge)
}

// Proximity enablement source names, per §4.3.
const (
	SourceUntilDisabled                        = "until_disabled"
	SourceUntilFarOrNotificationExpiration     = "until_far_event_or_notification_expiration"
	SourceUntilFarOrTimeout                    = "until_far_event_or_timeout"
)

// NewProximityEnablement builds the three-source OR lattice of §4.3,
// all initially false.
func NewProximityEnablement(onEdge func(from, to bool, changedSource string)) *Lattice {
	return New([]string{
		SourceUntilDisabled,
		SourceUntilFarOrNotificationExpiration,
		SourceUntilFarOrTimeout,
	}, false, Or, onEdge)
}

// Set updates one source and recomputes Current, firing onEdge if the
// lattice value changed.
func (l *Lattice) Set(source string, value bool) {
	if cur, ok := l.sources[source]; ok && cur == value {
		return
	}
	l.sources[source] = value
	next := l.predicate(l.sources)
	if next != l.current {
		prev := l.current
		l.current = next
		if l.onEdge != nil {
			l.onEdge(prev, next, source)
		}
	}
}

// Get returns whether a specific source is currently set.
func (l *Lattice) Get(source string) bool {
	return l.sources[source]
}

// Current returns the lattice's combined boolean value.
func (l *Lattice) Current() bool {
	return l.current
}

// OnlySourceSet reports whether source is the one and only source
// currently true. §9's Open Question requires this be evaluated
// *before* clearing any sources for the use_reduced computation on
// ProximityFar.
func (l *Lattice) OnlySourceSet(source string) bool {
	if !l.sources[source] {
		return false
	}
	for name, v := range l.sources {
		if name != source && v {
			return false
		}
	}
	return true
}
