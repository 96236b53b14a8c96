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

// Package projector translates freshly fetched per-device metrics into
// capability writes and edge-triggered events. Each metric group is
// independently evaluable; there is no ordering dependency between them.
// Registry write failures are returned to the caller, never swallowed;
// per-device isolation is the poller's job.
package projector

import (
	"github.com/skirwin/asuswatch/pkg/diff"
	"github.com/skirwin/asuswatch/pkg/logger"
	"github.com/skirwin/asuswatch/pkg/models"
	"github.com/skirwin/asuswatch/pkg/notify"
	"github.com/skirwin/asuswatch/pkg/registry"
)

const secondsPerDay = 86400.0

// DeviceState is the cross-tick state for one device: the previous
// per-scope client snapshots and the last-seen firmware versions. It is
// owned by the poller and threaded through each tick explicitly.
type DeviceState struct {
	Snapshots map[models.Scope][]models.ConnectedClient
	Firmware  models.FirmwareInfo

	polled bool // at least one client projection completed
}

func NewDeviceState() *DeviceState {
	return &DeviceState{
		Snapshots: make(map[models.Scope][]models.ConnectedClient),
	}
}

// Projector applies metric updates to registered devices.
type Projector struct {
	queue  *notify.Queue
	logger logger.Logger

	// suppressFirstPoll drops the arrival events of the first client
	// projection after device creation, avoiding a notification storm of
	// already-present clients on startup.
	suppressFirstPoll bool
}

type Option func(*Projector)

func WithFirstPollSuppression(enabled bool) Option {
	return func(p *Projector) {
		p.suppressFirstPoll = enabled
	}
}

func New(queue *notify.Queue, log logger.Logger, opts ...Option) *Projector {
	p := &Projector{queue: queue, logger: log}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// capabilityWrite is one entry of the declarative capability-to-value
// table used for the unconditional metric writes.
type capabilityWrite struct {
	capability string
	value      interface{}
}

// applyWrites performs guarded writes: absent capabilities are skipped,
// present ones must accept the value.
func applyWrites(dev *registry.Device, writes []capabilityWrite) error {
	for _, w := range writes {
		if !dev.HasCapability(w.capability) {
			continue
		}

		if err := dev.SetCapabilityValue(w.capability, w.value); err != nil {
			return err
		}
	}

	return nil
}

// ApplyClients projects new wired/2.4G/5G snapshots: per-scope diffs fire
// scoped connect/disconnect events, the union diff fires the combined
// any-scope events, the online-count capability gets the summed size, and
// the stored snapshots are replaced unconditionally.
func (p *Projector) ApplyClients(dev *registry.Device, state *DeviceState, snapshots map[models.Scope][]models.ConnectedClient) error {
	suppress := p.suppressFirstPoll && !state.polled

	oldUnion := diff.Union(
		state.Snapshots[models.ScopeWired],
		state.Snapshots[models.Scope24G],
		state.Snapshots[models.Scope5G],
	)

	total := 0

	for _, scope := range models.PolledScopes {
		current := snapshots[scope]
		total += len(current)

		changes := diff.Compute(state.Snapshots[scope], current)
		p.emitClientChanges(dev.MAC(), scope, changes, suppress)

		state.Snapshots[scope] = current
	}

	newUnion := diff.Union(
		snapshots[models.ScopeWired],
		snapshots[models.Scope24G],
		snapshots[models.Scope5G],
	)

	unionChanges := diff.Compute(oldUnion, newUnion)
	p.emitClientChanges(dev.MAC(), models.ScopeAny, unionChanges, suppress)

	state.polled = true

	return applyWrites(dev, []capabilityWrite{
		{models.CapOnlineDevices, total},
	})
}

func (p *Projector) emitClientChanges(device string, scope models.Scope, changes diff.Changes, suppressArrivals bool) {
	for i := range changes.Departed {
		p.queue.Append(notify.NewClientEvent(notify.KindClientDisconnected, device, scope, &changes.Departed[i]))
	}

	if suppressArrivals {
		if len(changes.Arrived) > 0 {
			p.logger.Debug().
				Str("device", device).
				Str("scope", string(scope)).
				Int("clients", len(changes.Arrived)).
				Msg("Suppressed first-poll arrival events")
		}

		return
	}

	for i := range changes.Arrived {
		p.queue.Append(notify.NewClientEvent(notify.KindClientConnected, device, scope, &changes.Arrived[i]))
	}
}

// ApplyFirmware fires the firmware-available event only when a current
// version was already known, the new available version is non-empty and it
// differs from the last-seen available version. The stored versions are
// always updated afterwards.
func (p *Projector) ApplyFirmware(dev *registry.Device, state *DeviceState, fw models.FirmwareInfo) error {
	if state.Firmware.Current != "" && fw.Available != "" && fw.Available != state.Firmware.Available {
		p.queue.Append(notify.NewFirmwareEvent(dev.MAC(), fw.Available))
	}

	state.Firmware = fw

	return applyWrites(dev, []capabilityWrite{
		{models.CapFirmwareVersion, fw.Current},
	})
}

// ApplyLoad writes CPU and memory percentages; no transition logic.
func (*Projector) ApplyLoad(dev *registry.Device, load *models.LoadStats) error {
	return applyWrites(dev, []capabilityWrite{
		{models.CapCPUUsage, load.CPUUsage},
		{models.CapMemoryUsage, load.MemoryUsage},
	})
}

// ApplyUptime converts seconds to days and writes the capability.
func (*Projector) ApplyUptime(dev *registry.Device, seconds int64) error {
	return applyWrites(dev, []capabilityWrite{
		{models.CapUptimeDays, float64(seconds) / secondsPerDay},
	})
}

// ApplyWAN fires change events when the stored external-IP or WAN-type
// capability value differs from the fetched one, always writes the new
// values, and maintains the disconnected alarm.
func (p *Projector) ApplyWAN(dev *registry.Device, wan *models.WANStatus) error {
	if dev.HasCapability(models.CapExternalIP) {
		if stored, ok := dev.CapabilityValue(models.CapExternalIP); ok && stored != wan.IP {
			p.queue.Append(notify.NewWANEvent(notify.KindExternalIPChanged, dev.MAC(), "external_ip", wan.IP))
		}
	}

	if dev.HasCapability(models.CapWANType) {
		if stored, ok := dev.CapabilityValue(models.CapWANType); ok && stored != wan.Type {
			p.queue.Append(notify.NewWANEvent(notify.KindWANTypeChanged, dev.MAC(), "wan_type", wan.Type))
		}
	}

	return applyWrites(dev, []capabilityWrite{
		{models.CapExternalIP, wan.IP},
		{models.CapWANType, wan.Type},
		{models.CapAlarmWANDown, wan.Disconnected()},
	})
}

// ApplyTraffic writes cumulative totals from the second sample and the
// realtime deltas between the two samples. Negative deltas (counter reset)
// are passed through unclamped.
func (*Projector) ApplyTraffic(dev *registry.Device, first, second *models.TrafficSample) error {
	return applyWrites(dev, []capabilityWrite{
		{models.CapTotalReceived, second.Received},
		{models.CapTotalSent, second.Sent},
		{models.CapRealtimeDownload, second.Received - first.Received},
		{models.CapRealtimeUpload, second.Sent - first.Sent},
	})
}
