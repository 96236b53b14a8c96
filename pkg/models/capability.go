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

// Capability names exposed on registered access-point devices. Devices may
// carry any subset depending on model and registration history; all writes
// are guarded by an existence check.
const (
	CapOnlineDevices    = "meter_online_devices"
	CapCPUUsage         = "measure_cpu_usage"
	CapMemoryUsage      = "measure_ram_usage"
	CapUptimeDays       = "uptime_days"
	CapExternalIP       = "external_ip"
	CapWANType          = "wan_type"
	CapAlarmWANDown     = "alarm_wan_disconnected"
	CapRealtimeDownload = "realtime_download"
	CapRealtimeUpload   = "realtime_upload"
	CapTotalReceived    = "traffic_total_received"
	CapTotalSent        = "traffic_total_sent"
	CapFirmwareVersion  = "firmware_version"
)
