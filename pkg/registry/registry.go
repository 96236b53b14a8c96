/*
 * Copyright 2025 the asuswatch authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package registry is the device-registry boundary towards the
// home-automation host: registered access-point devices with heterogeneous
// capability sets, availability state and a warning banner. All capability
// writes are guarded by an existence check because devices registered
// against older models may lack capabilities.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/skirwin/asuswatch/pkg/models"
)

var (
	ErrCapabilityMissing = errors.New("capability not present on device")
	ErrDeviceExists      = errors.New("device already registered")
)

// Device is one registered router/access-point device. All methods are
// safe for concurrent use; the poller fans out across devices.
type Device struct {
	mac  string
	name string
	mode models.OperationMode

	mu                sync.RWMutex
	capabilities      map[string]interface{}
	available         bool
	unavailableReason string
	warning           string
}

// NewDevice registers the capability set the device advertises; values
// start unset (nil) until the first projection writes them.
func NewDevice(mac, name string, mode models.OperationMode, capabilities []string) *Device {
	caps := make(map[string]interface{}, len(capabilities))
	for _, c := range capabilities {
		caps[c] = nil
	}

	return &Device{
		mac:          models.NormalizeMAC(mac),
		name:         name,
		mode:         mode,
		capabilities: caps,
		available:    true,
	}
}

func (d *Device) MAC() string { return d.mac }

func (d *Device) Name() string { return d.name }

func (d *Device) Mode() models.OperationMode { return d.mode }

// HasCapability reports whether the device advertises the capability.
func (d *Device) HasCapability(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	_, ok := d.capabilities[name]

	return ok
}

// CapabilityValue returns the stored value for a capability. The second
// return is false when the capability is absent or has never been written.
func (d *Device) CapabilityValue(name string) (interface{}, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	val, ok := d.capabilities[name]
	if !ok || val == nil {
		return nil, false
	}

	return val, true
}

// SetCapabilityValue writes a capability value. Writing to an absent
// capability is an error the caller decides how to treat.
func (d *Device) SetCapabilityValue(name string, value interface{}) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.capabilities[name]; !ok {
		return fmt.Errorf("%w: %s", ErrCapabilityMissing, name)
	}

	d.capabilities[name] = value

	return nil
}

// SetAvailable marks the device reachable and clears the unavailability
// reason.
func (d *Device) SetAvailable() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.available = true
	d.unavailableReason = ""
}

// SetUnavailable marks the device unreachable with a human-readable
// reason shown by the host.
func (d *Device) SetUnavailable(reason string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.available = false
	d.unavailableReason = reason
}

// Availability returns the current availability and, when unavailable,
// the reason.
func (d *Device) Availability() (bool, string) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.available, d.unavailableReason
}

// SetWarning sets the non-blocking warning banner.
func (d *Device) SetWarning(message string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.warning = message
}

// ClearWarning removes the warning banner.
func (d *Device) ClearWarning() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.warning = ""
}

// Warning returns the current warning banner, empty when none is set.
func (d *Device) Warning() string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.warning
}

// Registry holds the registered devices keyed by hardware address.
type Registry struct {
	mu      sync.RWMutex
	devices map[string]*Device
}

func New() *Registry {
	return &Registry{devices: make(map[string]*Device)}
}

// Register adds a device; registering the same hardware address twice is
// an error.
func (r *Registry) Register(dev *Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.devices[dev.MAC()]; ok {
		return fmt.Errorf("%w: %s", ErrDeviceExists, dev.MAC())
	}

	r.devices[dev.MAC()] = dev

	return nil
}

// Get looks a device up by hardware address.
func (r *Registry) Get(mac string) (*Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dev, ok := r.devices[models.NormalizeMAC(mac)]

	return dev, ok
}

// Devices returns the registered devices ordered by hardware address so
// fan-out order is stable.
func (r *Registry) Devices() []*Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	devices := make([]*Device, 0, len(r.devices))
	for _, dev := range r.devices {
		devices = append(devices, dev)
	}

	sort.Slice(devices, func(i, j int) bool {
		return devices[i].MAC() < devices[j].MAC()
	})

	return devices
}
