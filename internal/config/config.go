// Copyright (c) 2026 powerd authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the daemon's configured parameters (§6) from a
// YAML file, layers POWERD_* environment overrides on top, and
// optionally watches the file for live reload — the same "mostly
// static, occasionally nudged by an env var" shape the teacher uses
// for its agent configuration.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-envparse"
	"gopkg.in/yaml.v2"

	"github.com/lf-edge/eve/pkg/powerd/internal/base"
)

// InfiniteDuration is the "infinite sentinel" of §3/§4.5.1/§6: a
// configured timeout of this value disables the corresponding alarm.
const InfiniteDuration time.Duration = -1

// Durations holds every immutable (or IPC-mutable) configured
// parameter named in §6.
type Durations struct {
	PowerButtonLongPressTimeout time.Duration `yaml:"power_button_long_press_timeout"`

	NormalDisplayDimDuration          time.Duration `yaml:"user_inactivity_normal_display_dim_duration"`
	NormalDisplayOffTimeoutBattery    time.Duration `yaml:"user_inactivity_normal_display_off_timeout_battery"`
	NormalDisplayOffTimeoutLinePower  time.Duration `yaml:"user_inactivity_normal_display_off_timeout_line_power"`
	NormalSuspendTimeoutBattery       time.Duration `yaml:"user_inactivity_normal_suspend_timeout_battery"`
	NormalSuspendTimeoutLinePower     time.Duration `yaml:"user_inactivity_normal_suspend_timeout_line_power"`
	ReducedDisplayOffTimeout          time.Duration `yaml:"user_inactivity_reduced_display_off_timeout"`
	PostNotificationDisplayOffTimeout time.Duration `yaml:"user_inactivity_post_notification_display_off_timeout"`
	NotificationExpirationTimeout     time.Duration `yaml:"notification_expiration_timeout"`

	TreatPowerButtonAsUserActivity bool `yaml:"treat_power_button_as_user_activity"`
	TurnOnDisplayAtStartup         bool `yaml:"turn_on_display_at_startup"`

	LidActionBattery    string `yaml:"lid_action_battery"`
	LidActionLinePower  string `yaml:"lid_action_line_power"`
	CriticalPowerAction string `yaml:"critical_power_action"`
}

// Default returns the literal scenario durations used throughout
// spec.md §8's worked examples, serving as the built-in fallback when
// no config file is present.
func Default() Durations {
	return Durations{
		PowerButtonLongPressTimeout:       2 * time.Second,
		NormalDisplayDimDuration:          10 * time.Second,
		NormalDisplayOffTimeoutBattery:    60 * time.Second,
		NormalDisplayOffTimeoutLinePower:  120 * time.Second,
		NormalSuspendTimeoutBattery:       300 * time.Second,
		NormalSuspendTimeoutLinePower:     InfiniteDuration,
		ReducedDisplayOffTimeout:          8 * time.Second,
		PostNotificationDisplayOffTimeout: 3 * time.Second,
		NotificationExpirationTimeout:     20 * time.Second,
		TreatPowerButtonAsUserActivity:    true,
		TurnOnDisplayAtStartup:            true,
		LidActionBattery:                  "suspend",
		LidActionLinePower:                "display_off",
		CriticalPowerAction:               "suspend",
	}
}

// Load reads path (if it exists) over the Default(), then applies
// POWERD_* environment overrides.
func Load(log *base.LogObject, path string) (Durations, error) {
	d := Default()
	if path != "" {
		if raw, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(raw, &d); err != nil {
				return d, err
			}
		} else if !os.IsNotExist(err) {
			return d, err
		}
	}
	if err := applyEnvOverrides(&d); err != nil {
		log.Warnf("config: env override failed: %v", err)
	}
	return d, nil
}

func applyEnvOverrides(d *Durations) error {
	const envFile = "/etc/default/powerd"
	f, err := os.Open(envFile)
	if err != nil {
		return nil // no override file, not an error
	}
	defer f.Close()
	vars, err := envparse.Parse(f)
	if err != nil {
		return err
	}
	if v, ok := vars["POWERD_NORMAL_DISPLAY_OFF_TIMEOUT_BATTERY_MS"]; ok {
		if ms, err := strconv.Atoi(v); err == nil {
			d.NormalDisplayOffTimeoutBattery = time.Duration(ms) * time.Millisecond
		}
	}
	if v, ok := vars["POWERD_TREAT_POWER_BUTTON_AS_ACTIVITY"]; ok {
		d.TreatPowerButtonAsUserActivity = v == "1" || v == "true"
	}
	return nil
}

// Watcher live-reloads Durations whenever the backing config file
// changes on disk, calling onChange with the freshly parsed value.
type Watcher struct {
	log      *base.LogObject
	path     string
	watcher  *fsnotify.Watcher
	onChange func(Durations)
	done     chan struct{}
}

// NewWatcher starts watching the directory containing path (fsnotify
// on Linux only reliably reports events on watched directories, not
// bare files replaced via rename-into-place).
func NewWatcher(log *base.LogObject, path string, onChange func(Durations)) (*Watcher, error) {
	if path == "" {
		return nil, nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}
	cw := &Watcher{log: log, path: path, watcher: w, onChange: onChange, done: make(chan struct{})}
	go cw.run()
	return cw, nil
}

func (w *Watcher) run() {
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			d, err := Load(w.log, w.path)
			if err != nil {
				w.log.Errorf("config: reload %s failed: %v", w.path, err)
				continue
			}
			w.onChange(d)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Errorf("config: watcher error: %v", err)
		case <-w.done:
			return
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	if w == nil {
		return nil
	}
	close(w.done)
	return w.watcher.Close()
}
