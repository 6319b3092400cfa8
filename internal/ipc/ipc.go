// Copyright (c) 2026 powerd authors
// SPDX-License-Identifier: Apache-2.0

// Package ipc exposes the daemon's §6 IPC surface over D-Bus, the
// same transport the adapters/linux package uses outbound (modem.go,
// button.go), translating every call into either an eventqueue push
// or a direct, synchronous ledpolicy call — never into the state
// machine directly, matching §5's single-loop-thread ownership rule.
package ipc

import (
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/lf-edge/eve/pkg/powerd/internal/base"
	"github.com/lf-edge/eve/pkg/powerd/internal/eventqueue"
	"github.com/lf-edge/eve/pkg/powerd/internal/ledpolicy"
	"github.com/lf-edge/eve/pkg/powerd/internal/pmtypes"
)

const (
	// BusName is the well-known name this daemon requests on the system bus.
	BusName = "org.lfedge.Powerd"
	// ObjectPath is the single exported object of §6.
	ObjectPath = dbus.ObjectPath("/org/lfedge/Powerd")
	// Interface is the D-Bus interface name carrying every §6 method.
	Interface = "org.lfedge.Powerd.Control"
)

// Server implements the §6 IPC surface as an exported D-Bus object.
// Malformed requests (unknown light-event name, negative timeout,
// unparseable action) are rejected with dbus.MakeFailedError and never
// reach the queue or the LED controller (§7's "Malformed client
// request" taxonomy entry).
type Server struct {
	log   *base.LogObject
	queue *eventqueue.Queue
	leds  *ledpolicy.Controller
}

// New builds an IPC server over queue (for client-request/behavior
// events) and leds (for the light-event sub-API, applied synchronously
// since it never touches state-machine fields).
func New(log *base.LogObject, queue *eventqueue.Queue, leds *ledpolicy.Controller) *Server {
	return &Server{log: log, queue: queue, leds: leds}
}

// Export registers the server's methods on conn and requests BusName.
func (s *Server) Export(conn *dbus.Conn) error {
	if err := conn.Export(s, ObjectPath, Interface); err != nil {
		return fmt.Errorf("ipc: export failed: %w", err)
	}
	node := &introspect.Node{
		Name: string(ObjectPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{Name: Interface, Methods: introspect.Methods(s)},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), ObjectPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("ipc: export introspectable failed: %w", err)
	}
	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("ipc: request name failed: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("ipc: bus name %s already owned", BusName)
	}
	return nil
}

func badArg(format string, args ...interface{}) *dbus.Error {
	return dbus.MakeFailedError(fmt.Errorf(format, args...))
}

// NotifyLightEvent implements notifyLightEvent(event, active) of §6.
func (s *Server) NotifyLightEvent(event string, active int) *dbus.Error {
	name, ok := pmtypes.ParseLightEventName(event)
	if !ok {
		return badArg("ipc: unknown light event %q", event)
	}
	s.leds.SetActive(name, active != 0)
	return nil
}

// EnableLightEvent implements enableLightEvent(event) of §6.
func (s *Server) EnableLightEvent(event string) *dbus.Error {
	name, ok := pmtypes.ParseLightEventName(event)
	if !ok {
		return badArg("ipc: unknown light event %q", event)
	}
	s.leds.SetEnabled(name, true)
	return nil
}

// DisableLightEvent implements disableLightEvent(event) of §6.
func (s *Server) DisableLightEvent(event string) *dbus.Error {
	name, ok := pmtypes.ParseLightEventName(event)
	if !ok {
		return badArg("ipc: unknown light event %q", event)
	}
	s.leds.SetEnabled(name, false)
	return nil
}

// SetPlayingData implements setPlayingData(color, on_ms, off_ms) of §6.
func (s *Server) SetPlayingData(color string, onMs, offMs int) *dbus.Error {
	if onMs < 0 || offMs < 0 {
		return badArg("ipc: negative duration on_ms=%d off_ms=%d", onMs, offMs)
	}
	if err := s.leds.SetPlayingData(color, onMs, offMs); err != nil {
		return badArg("ipc: %v", err)
	}
	return nil
}

// EnableInactivityTimeout implements the client request of the same name.
func (s *Server) EnableInactivityTimeout() *dbus.Error {
	s.queue.Push(eventqueue.Event{Kind: eventqueue.KindEnableInactivityTimeout})
	return nil
}

// DisableInactivityTimeout implements the client request of the same name.
func (s *Server) DisableInactivityTimeout() *dbus.Error {
	s.queue.Push(eventqueue.Event{Kind: eventqueue.KindDisableInactivityTimeout})
	return nil
}

// SetInactivityBehavior implements set inactivity behavior(action,
// supply, timeout_ms) of §6. A negative timeoutMs is a malformed
// request (spec.md §7) and is rejected, not reinterpreted.
func (s *Server) SetInactivityBehavior(action, supply string, timeoutMs int64) *dbus.Error {
	if timeoutMs < 0 {
		return badArg("ipc: negative timeout_ms=%d", timeoutMs)
	}
	var behaviorAction eventqueue.SetInactivityBehaviorAction
	switch action {
	case "display_off":
		behaviorAction = eventqueue.BehaviorDisplayOff
	case "suspend":
		behaviorAction = eventqueue.BehaviorSuspend
	default:
		return badArg("ipc: unknown inactivity behavior action %q", action)
	}
	supplyPayload, err := parseSupply(supply)
	if err != nil {
		return badArg("ipc: %v", err)
	}
	s.queue.Push(eventqueue.Event{
		Kind:           eventqueue.KindSetInactivityBehavior,
		BehaviorAction: behaviorAction,
		BehaviorSupply: supplyPayload,
		BehaviorValue:  timeoutMs,
	})
	return nil
}

// SetLidBehavior implements "set lid behavior" of §6.
func (s *Server) SetLidBehavior(supply, action string) *dbus.Error {
	supplyPayload, err := parseSupply(supply)
	if err != nil {
		return badArg("ipc: %v", err)
	}
	actionPayload, err := parseAction(action)
	if err != nil {
		return badArg("ipc: %v", err)
	}
	s.queue.Push(eventqueue.Event{
		Kind:              eventqueue.KindSetLidBehavior,
		LidBehaviorSupply: supplyPayload,
		LidBehaviorAction: actionPayload,
	})
	return nil
}

// SetCriticalPowerBehavior implements "set critical-power behavior" of §6.
func (s *Server) SetCriticalPowerBehavior(action string) *dbus.Error {
	actionPayload, err := parseAction(action)
	if err != nil {
		return badArg("ipc: %v", err)
	}
	s.queue.Push(eventqueue.Event{Kind: eventqueue.KindSetCriticalPowerBehavior, CriticalPowerAction: actionPayload})
	return nil
}

// SetNormalBrightnessValue implements "set normal-brightness value" of §6.
func (s *Server) SetNormalBrightnessValue(v float64) *dbus.Error {
	if v < 0 || v > 1 {
		return badArg("ipc: brightness value %f out of [0,1]", v)
	}
	s.queue.Push(eventqueue.Event{Kind: eventqueue.KindSetNormalBrightnessValue, BrightnessValue: v})
	return nil
}

// EnableAutobrightness implements the client request of the same name.
func (s *Server) EnableAutobrightness() *dbus.Error {
	s.queue.Push(eventqueue.Event{Kind: eventqueue.KindEnableAutobrightness})
	return nil
}

// DisableAutobrightness implements the client request of the same name.
func (s *Server) DisableAutobrightness() *dbus.Error {
	s.queue.Push(eventqueue.Event{Kind: eventqueue.KindDisableAutobrightness})
	return nil
}

// AllowSuspend implements the client request of the same name.
func (s *Server) AllowSuspend() *dbus.Error {
	s.queue.Push(eventqueue.Event{Kind: eventqueue.KindAllowSuspend})
	return nil
}

// DisallowSuspend implements the client request of the same name.
func (s *Server) DisallowSuspend() *dbus.Error {
	s.queue.Push(eventqueue.Event{Kind: eventqueue.KindDisallowSuspend})
	return nil
}

// Notification implements the client request of the same name.
func (s *Server) Notification() *dbus.Error {
	s.queue.Push(eventqueue.Event{Kind: eventqueue.KindNotification})
	return nil
}

// NoNotification implements the client request of the same name.
func (s *Server) NoNotification() *dbus.Error {
	s.queue.Push(eventqueue.Event{Kind: eventqueue.KindNoNotification})
	return nil
}

// ActiveCall implements the client request of the same name.
func (s *Server) ActiveCall() *dbus.Error {
	s.queue.Push(eventqueue.Event{Kind: eventqueue.KindActiveCall})
	return nil
}

// NoActiveCall implements the client request of the same name.
func (s *Server) NoActiveCall() *dbus.Error {
	s.queue.Push(eventqueue.Event{Kind: eventqueue.KindNoActiveCall})
	return nil
}

// RequestTurnOnDisplay implements the client request of the same name.
func (s *Server) RequestTurnOnDisplay() *dbus.Error {
	s.queue.Push(eventqueue.Event{Kind: eventqueue.KindRequestTurnOnDisplay})
	return nil
}

func parseSupply(s string) (eventqueue.PowerSupplyPayload, error) {
	switch s {
	case "battery":
		return eventqueue.SupplyBattery, nil
	case "line_power":
		return eventqueue.SupplyLinePower, nil
	default:
		return 0, fmt.Errorf("unknown power supply %q", s)
	}
}

func parseAction(s string) (eventqueue.ActionPayload, error) {
	action, err := pmtypes.ParsePowerAction(s)
	if err != nil {
		return 0, err
	}
	switch action {
	case pmtypes.ActionDisplayOff:
		return eventqueue.ActionDisplayOff, nil
	case pmtypes.ActionSuspend:
		return eventqueue.ActionSuspend, nil
	case pmtypes.ActionPowerOff:
		return eventqueue.ActionPowerOff, nil
	default:
		return eventqueue.ActionNone, nil
	}
}
