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

package models

// OperationMode distinguishes a full router from a plain access point.
// WAN status and traffic counters are only polled in router mode.
type OperationMode string

const (
	ModeRouter      OperationMode = "router"
	ModeAccessPoint OperationMode = "access_point"
)

// RouterInfo is one router or access point as reported by the upstream
// enumeration call.
type RouterInfo struct {
	MAC             string        `json:"mac"`
	Model           string        `json:"model,omitempty"`
	IP              string        `json:"ip,omitempty"`
	Mode            OperationMode `json:"mode"`
	Online          bool          `json:"online"`
	FirmwareVersion string        `json:"firmware_version,omitempty"`
	NewFirmware     string        `json:"new_firmware,omitempty"`
}

// FirmwareInfo carries a router's current and available firmware versions.
type FirmwareInfo struct {
	Current   string `json:"current"`
	Available string `json:"available,omitempty"`
}

// LoadStats carries CPU and memory usage percentages.
type LoadStats struct {
	CPUUsage    float64 `json:"cpu_usage"`
	MemoryUsage float64 `json:"memory_usage"`
}

// WANStatusConnected is the status code the router reports while its WAN
// link is up. Any other non-empty code raises the disconnected alarm.
const WANStatusConnected = "1"

// WANStatus is the router's WAN-side state.
type WANStatus struct {
	IP         string `json:"ip,omitempty"`
	StatusCode string `json:"status_code,omitempty"`
	Type       string `json:"type,omitempty"`
}

// Disconnected reports whether the WAN link should raise the alarm: a
// status code is present and is not the connected sentinel.
func (w *WANStatus) Disconnected() bool {
	return w.StatusCode != "" && w.StatusCode != WANStatusConnected
}

// TrafficSample is a cumulative byte-counter reading. Realtime throughput
// is the delta between two samples taken a fixed interval apart.
type TrafficSample struct {
	Received int64 `json:"received"`
	Sent     int64 `json:"sent"`
}
