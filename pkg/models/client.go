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

// Package models defines the shared data types for router telemetry.
package models

import "strings"

// Scope names a subset of connected clients that is diffed as a unit.
type Scope string

const (
	ScopeWired   Scope = "wired"
	Scope24G     Scope = "2.4ghz"
	Scope5G      Scope = "5ghz"
	ScopeNetwork Scope = "network"
	// ScopeAny is the union of all scopes of one access point, used for
	// the combined connect/disconnect events.
	ScopeAny Scope = "any"
)

// PolledScopes lists the per-AP scopes polled each cycle, in fetch order.
var PolledScopes = []Scope{ScopeWired, Scope24G, Scope5G}

// ConnectedClient is one device observed attached to the network at poll
// time. Instances are constructed fresh from each poll response and never
// mutated; snapshots are replaced wholesale each cycle.
type ConnectedClient struct {
	MAC      string `json:"mac"`
	IP       string `json:"ip,omitempty"`
	Name     string `json:"name,omitempty"`
	NickName string `json:"nickname,omitempty"`
	Vendor   string `json:"vendor,omitempty"`
	RSSI     int    `json:"rssi,omitempty"` // meaningful for wireless scopes only
	Scope    Scope  `json:"scope"`
	APMAC    string `json:"ap_mac,omitempty"`
}

// Key returns the client's identity key: its hardware address, normalized
// so that diffing is insensitive to upstream case drift.
func (c *ConnectedClient) Key() string {
	return NormalizeMAC(c.MAC)
}

// NormalizeMAC lowercases a hardware address for identity comparison.
func NormalizeMAC(mac string) string {
	return strings.ToLower(strings.TrimSpace(mac))
}
