// Copyright (c) 2026 powerd authors
// SPDX-License-Identifier: Apache-2.0

package linux

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lf-edge/eve/pkg/powerd/internal/base"
	"github.com/lf-edge/eve/pkg/powerd/internal/eventqueue"
	"github.com/lf-edge/eve/pkg/powerd/internal/pmtypes"
)

// Proximity implements adapters.ProximitySensor over an IIO proximity
// sensor exposed under /sys/bus/iio/devices/iio:deviceN/in_proximity_raw,
// with a threshold distinguishing "near" from "far". Readings are
// polled on a dedicated goroutine only while enabled, and posted as
// events — never calling back into the state machine synchronously,
// per §5's "adapters enqueue events only".
type Proximity struct {
	log       *base.LogObject
	rawPath   string
	threshold int
	queue     *eventqueue.Queue

	state   atomic.Uint32 // pmtypes.ProximityState
	mu      sync.Mutex
	enabled bool
	stop    chan struct{}
}

// NewProximity builds a Proximity adapter over the given IIO raw-value
// sysfs path.
func NewProximity(log *base.LogObject, queue *eventqueue.Queue, rawPath string, threshold int) *Proximity {
	p := &Proximity{log: log, rawPath: rawPath, threshold: threshold, queue: queue}
	p.state.Store(uint32(pmtypes.ProximityUnknown))
	return p
}

// ProximityState returns the last-polled snapshot.
func (p *Proximity) ProximityState() pmtypes.ProximityState {
	return pmtypes.ProximityState(p.state.Load())
}

// EnableProximityEvents starts polling and posting ProximityNear/Far events.
func (p *Proximity) EnableProximityEvents() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.enabled {
		return
	}
	p.enabled = true
	p.stop = make(chan struct{})
	go p.poll(p.stop)
}

// DisableProximityEvents stops polling.
func (p *Proximity) DisableProximityEvents() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.enabled {
		return
	}
	p.enabled = false
	close(p.stop)
}

const proximityPollInterval = 200 * time.Millisecond

func (p *Proximity) poll(stop chan struct{}) {
	ticker := time.NewTicker(proximityPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		raw, err := p.readRaw()
		if err != nil {
			p.log.Errorf("proximity: read failed: %v", err)
			continue
		}
		next := pmtypes.ProximityFar
		if raw >= p.threshold {
			next = pmtypes.ProximityNear
		}
		prev := pmtypes.ProximityState(p.state.Swap(uint32(next)))
		if prev != next {
			kind := eventqueue.KindProximityFar
			if next == pmtypes.ProximityNear {
				kind = eventqueue.KindProximityNear
			}
			p.queue.Push(eventqueue.Event{Kind: kind})
		}
	}
}

func (p *Proximity) readRaw() (int, error) {
	f, err := os.Open(p.rawPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return 0, scanner.Err()
	}
	return strconv.Atoi(strings.TrimSpace(scanner.Text()))
}
