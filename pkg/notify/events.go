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

// Package notify carries the structured events the projector and poller
// emit on state transitions, decoupled from any host platform: producers
// append to a Queue, a Dispatcher drains it into one or more sinks.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/skirwin/asuswatch/pkg/models"
)

// Kind names an event type. Client events fire per scope and, separately,
// for the whole access point and the whole network.
type Kind string

const (
	KindClientConnected    Kind = "client_connected"
	KindClientDisconnected Kind = "client_disconnected"
	KindFirmwareAvailable  Kind = "firmware_available"
	KindExternalIPChanged  Kind = "external_ip_changed"
	KindWANTypeChanged     Kind = "wan_type_changed"
)

// ClientTokens is the payload for client connect/disconnect events.
type ClientTokens struct {
	Name     string `json:"name"`
	IP       string `json:"ip"`
	MAC      string `json:"mac"`
	NickName string `json:"nickname"`
	Vendor   string `json:"vendor"`
	RSSI     int    `json:"rssi"`
}

// Event is one edge-triggered notification. Exactly one payload field is
// set, matching the kind.
type Event struct {
	ID     string       `json:"id"`
	Kind   Kind         `json:"kind"`
	Time   time.Time    `json:"time"`
	Device string       `json:"device,omitempty"` // AP hardware address; empty for network scope
	Scope  models.Scope `json:"scope,omitempty"`

	Client   *ClientTokens `json:"client,omitempty"`
	Firmware string        `json:"firmware,omitempty"`
	WANKey   string        `json:"wan_key,omitempty"`
	WANValue string        `json:"wan_value,omitempty"`
}

// NewClientEvent builds a connect or disconnect event for one client in
// one scope of one access point.
func NewClientEvent(kind Kind, device string, scope models.Scope, client *models.ConnectedClient) Event {
	return Event{
		ID:     uuid.NewString(),
		Kind:   kind,
		Time:   time.Now(),
		Device: device,
		Scope:  scope,
		Client: &ClientTokens{
			Name:     client.Name,
			IP:       client.IP,
			MAC:      client.MAC,
			NickName: client.NickName,
			Vendor:   client.Vendor,
			RSSI:     client.RSSI,
		},
	}
}

// NewFirmwareEvent builds a firmware-available event.
func NewFirmwareEvent(device, version string) Event {
	return Event{
		ID:       uuid.NewString(),
		Kind:     KindFirmwareAvailable,
		Time:     time.Now(),
		Device:   device,
		Firmware: version,
	}
}

// NewWANEvent builds a WAN state-change event carrying the changed key and
// its new value.
func NewWANEvent(kind Kind, device, key, value string) Event {
	return Event{
		ID:       uuid.NewString(),
		Kind:     kind,
		Time:     time.Now(),
		Device:   device,
		WANKey:   key,
		WANValue: value,
	}
}

// Queue is an append-only in-memory event buffer. Producers append during
// a tick; the poller drains it into the dispatcher when the tick settles.
type Queue struct {
	mu     sync.Mutex
	events []Event
}

func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) Append(events ...Event) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.events = append(q.events, events...)
}

// Drain returns all buffered events and resets the queue.
func (q *Queue) Drain() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	events := q.events
	q.events = nil

	return events
}

// Len returns the number of buffered events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.events)
}
