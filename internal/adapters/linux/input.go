// Copyright (c) 2026 powerd authors
// SPDX-License-Identifier: Apache-2.0

package linux

import (
	"encoding/binary"
	"os"
	"time"

	"github.com/lf-edge/eve/pkg/powerd/internal/base"
	"github.com/lf-edge/eve/pkg/powerd/internal/eventqueue"
)

// linuxInputEvent mirrors struct input_event from <linux/input.h> for
// the subset this daemon cares about (EV_KEY/KEY_POWER and
// EV_SW/SW_LID), read directly off the evdev character device rather
// than through a cgo binding — the same "read the kernel ABI struct
// layout by hand" approach the teacher's wwan code takes with sysfs
// and netlink payloads.
type linuxInputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

const inputEventSize = 24 // 16-byte timeval (two 8-byte fields) + type(2) + code(2) + value(4) on amd64/arm64

const (
	evKey     uint16 = 0x01
	evSwitch  uint16 = 0x05
	keyPower  uint16 = 116
	swLid     uint16 = 0x00
	keyStateDown = 1
	keyStateUp   = 0
)

// Input reads power-button and lid-switch edges from a Linux evdev
// node (typically /dev/input/event0 on embedded platforms) and pushes
// the corresponding queue events. It never calls back into the state
// machine directly, matching every other adapter in this package.
type Input struct {
	log   *base.LogObject
	path  string
	queue *eventqueue.Queue
}

// NewInput builds an Input adapter reading the given evdev node.
func NewInput(log *base.LogObject, queue *eventqueue.Queue, devicePath string) *Input {
	return &Input{log: log, path: devicePath, queue: queue}
}

// Run reads events until stop is closed or the device is unreadable.
// Intended to run on its own goroutine, started alongside
// BatteryPoller.Run and Proximity's internal poller by cmd/powerd.
func (in *Input) Run(stop <-chan struct{}) {
	f, err := os.Open(in.path)
	if err != nil {
		in.log.Errorf("input: open %s failed: %v", in.path, err)
		return
	}
	defer f.Close()

	buf := make([]byte, inputEventSize)
	done := make(chan struct{})
	events := make(chan linuxInputEvent, 16)
	go func() {
		defer close(done)
		for {
			if _, err := readFull(f, buf); err != nil {
				return
			}
			events <- decodeInputEvent(buf)
			select {
			case <-stop:
				return
			default:
			}
		}
	}()

	for {
		select {
		case <-stop:
			return
		case <-done:
			return
		case ev := <-events:
			in.dispatch(ev)
		}
	}
}

func (in *Input) dispatch(ev linuxInputEvent) {
	switch {
	case ev.Type == evKey && ev.Code == keyPower && ev.Value == keyStateDown:
		in.queue.Push(eventqueue.Event{Kind: eventqueue.KindPowerButtonPress})
	case ev.Type == evKey && ev.Code == keyPower && ev.Value == keyStateUp:
		in.queue.Push(eventqueue.Event{Kind: eventqueue.KindPowerButtonRelease})
	case ev.Type == evSwitch && ev.Code == swLid:
		if ev.Value != 0 {
			in.queue.Push(eventqueue.Event{Kind: eventqueue.KindLidClosed})
		} else {
			in.queue.Push(eventqueue.Event{Kind: eventqueue.KindLidOpen})
		}
	}
}

func decodeInputEvent(buf []byte) linuxInputEvent {
	return linuxInputEvent{
		Sec:   int64(binary.LittleEndian.Uint64(buf[0:8])),
		Usec:  int64(binary.LittleEndian.Uint64(buf[8:16])),
		Type:  binary.LittleEndian.Uint16(buf[16:18]),
		Code:  binary.LittleEndian.Uint16(buf[18:20]),
		Value: int32(binary.LittleEndian.Uint32(buf[20:24])),
	}
}

func readFull(f *os.File, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := f.Read(buf[total:])
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// reconnectBackoff is how long Run's caller should wait before
// retrying a failed device open, e.g. after a USB input device
// re-enumerates.
const reconnectBackoff = 2 * time.Second
