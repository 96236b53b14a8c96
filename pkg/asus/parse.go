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

package asus

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/skirwin/asuswatch/pkg/models"
)

// The firmware reports most numbers as strings and traffic counters as hex,
// so every payload goes through lenient converters instead of typed structs.

var uptimeSecsRe = regexp.MustCompile(`\((\d+) secs since boot\)`)

type rawClientEntry struct {
	IP        string `json:"ip"`
	Name      string `json:"name"`
	NickName  string `json:"nickName"`
	Vendor    string `json:"vendor"`
	RSSI      string `json:"rssi"`
	IsWL      string `json:"isWL"`
	PapMAC    string `json:"amesh_papMac"`
	IsOnline  string `json:"isOnline"`
}

// parseClientList decodes a get_clientlist() payload. The router keys
// entries by MAC and carries ordering in a separate maclist array; emission
// follows that order. When apMAC or a concrete scope is given, entries not
// matching are filtered out.
func parseClientList(body []byte, apMAC string, scope models.Scope) ([]models.ConnectedClient, error) {
	var outer struct {
		ClientList json.RawMessage `json:"get_clientlist"`
	}

	if err := json.Unmarshal(body, &outer); err != nil || outer.ClientList == nil {
		return nil, fmt.Errorf("%w: get_clientlist: %v", ErrInvalidPayload, err)
	}

	var table map[string]json.RawMessage
	if err := json.Unmarshal(outer.ClientList, &table); err != nil {
		return nil, fmt.Errorf("%w: get_clientlist table: %w", ErrInvalidPayload, err)
	}

	var order []string
	if raw, ok := table["maclist"]; ok {
		if err := json.Unmarshal(raw, &order); err != nil {
			return nil, fmt.Errorf("%w: maclist: %w", ErrInvalidPayload, err)
		}
	}

	clients := make([]models.ConnectedClient, 0, len(order))

	for _, mac := range order {
		raw, ok := table[mac]
		if !ok {
			continue
		}

		var entry rawClientEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}

		if entry.IsOnline == "0" {
			continue
		}

		clientScope := scopeFromIsWL(entry.IsWL)

		if scope != models.ScopeNetwork && clientScope != scope {
			continue
		}

		if apMAC != "" && models.NormalizeMAC(entry.PapMAC) != models.NormalizeMAC(apMAC) {
			continue
		}

		rssi, _ := strconv.Atoi(entry.RSSI)

		clients = append(clients, models.ConnectedClient{
			MAC:      mac,
			IP:       entry.IP,
			Name:     entry.Name,
			NickName: entry.NickName,
			Vendor:   entry.Vendor,
			RSSI:     rssi,
			Scope:    clientScope,
			APMAC:    entry.PapMAC,
		})
	}

	return clients, nil
}

// scopeFromIsWL maps the firmware's isWL flag: 0 wired, 1 2.4 GHz, 2 5 GHz.
func scopeFromIsWL(isWL string) models.Scope {
	switch isWL {
	case "1":
		return models.Scope24G
	case "2":
		return models.Scope5G
	default:
		return models.ScopeWired
	}
}

type rawCfgClient struct {
	MAC       string `json:"mac"`
	Model     string `json:"model_name"`
	IP        string `json:"ip"`
	Online    string `json:"online"`
	Firmware  string `json:"fwver"`
	NewFw     string `json:"newfwver"`
	ProductID string `json:"product_id"`
}

// parseRouterList decodes get_cfg_clientlist(): the AiMesh roster. The
// first entry is the CAP (the router we logged into); the rest run as
// access points.
func parseRouterList(body []byte) ([]models.RouterInfo, error) {
	var outer struct {
		List []rawCfgClient `json:"get_cfg_clientlist"`
	}

	if err := json.Unmarshal(body, &outer); err != nil {
		return nil, fmt.Errorf("%w: get_cfg_clientlist: %w", ErrInvalidPayload, err)
	}

	routers := make([]models.RouterInfo, 0, len(outer.List))

	for i, entry := range outer.List {
		mode := models.ModeAccessPoint
		if i == 0 {
			mode = models.ModeRouter
		}

		routers = append(routers, models.RouterInfo{
			MAC:             entry.MAC,
			Model:           entry.Model,
			IP:              entry.IP,
			Mode:            mode,
			Online:          entry.Online == "1",
			FirmwareVersion: entry.Firmware,
			NewFirmware:     entry.NewFw,
		})
	}

	return routers, nil
}

// parseLoad decodes the combined cpu_usage/memory_usage hook. Core counters
// are cumulative per core (cpuN_usage over cpuN_total); usage is averaged
// across however many cores the payload names.
func parseLoad(body []byte) (*models.LoadStats, error) {
	var outer struct {
		CPU map[string]json.Number `json:"cpu_usage"`
		Mem map[string]json.Number `json:"memory_usage"`
	}

	if err := json.Unmarshal(body, &outer); err != nil {
		return nil, fmt.Errorf("%w: cpu/memory usage: %w", ErrInvalidPayload, err)
	}

	var usage, total float64

	for key, val := range outer.CPU {
		f, err := val.Float64()
		if err != nil {
			continue
		}

		switch {
		case strings.HasSuffix(key, "_usage"):
			usage += f
		case strings.HasSuffix(key, "_total"):
			total += f
		}
	}

	stats := &models.LoadStats{}

	if total > 0 {
		stats.CPUUsage = usage / total * 100
	}

	memTotal := numberField(outer.Mem, "mem_total")
	memUsed := numberField(outer.Mem, "mem_used")

	if memTotal > 0 {
		stats.MemoryUsage = memUsed / memTotal * 100
	}

	return stats, nil
}

func numberField(m map[string]json.Number, key string) float64 {
	if m == nil {
		return 0
	}

	f, err := m[key].Float64()
	if err != nil {
		return 0
	}

	return f
}

// parseUptime extracts the seconds-since-boot counter. Newer firmware wraps
// it in a human-readable date string, older firmware sends a bare number.
func parseUptime(body []byte) (int64, error) {
	var outer struct {
		Uptime string `json:"uptime"`
	}

	if err := json.Unmarshal(body, &outer); err != nil {
		return 0, fmt.Errorf("%w: uptime: %w", ErrInvalidPayload, err)
	}

	if m := uptimeSecsRe.FindStringSubmatch(outer.Uptime); m != nil {
		return strconv.ParseInt(m[1], 10, 64)
	}

	secs, err := strconv.ParseInt(strings.TrimSpace(outer.Uptime), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: uptime %q", ErrInvalidPayload, outer.Uptime)
	}

	return secs, nil
}

func parseWANLink(body []byte) (*models.WANStatus, error) {
	var outer struct {
		Status string `json:"wanlink_status"`
		IP     string `json:"wanlink_ipaddr"`
		Type   string `json:"wanlink_type"`
	}

	if err := json.Unmarshal(body, &outer); err != nil {
		return nil, fmt.Errorf("%w: wanlink: %w", ErrInvalidPayload, err)
	}

	return &models.WANStatus{
		IP:         outer.IP,
		StatusCode: outer.Status,
		Type:       outer.Type,
	}, nil
}

// parseNetdev decodes netdev(appobj); the INTERNET counters arrive as
// 0x-prefixed hex strings.
func parseNetdev(body []byte) (*models.TrafficSample, error) {
	var outer struct {
		Netdev map[string]string `json:"netdev"`
	}

	if err := json.Unmarshal(body, &outer); err != nil || outer.Netdev == nil {
		return nil, fmt.Errorf("%w: netdev: %v", ErrInvalidPayload, err)
	}

	rx, err := parseHexCounter(outer.Netdev["INTERNET_rx"])
	if err != nil {
		return nil, err
	}

	tx, err := parseHexCounter(outer.Netdev["INTERNET_tx"])
	if err != nil {
		return nil, err
	}

	return &models.TrafficSample{Received: rx, Sent: tx}, nil
}

func parseHexCounter(val string) (int64, error) {
	val = strings.TrimPrefix(strings.TrimSpace(val), "0x")

	n, err := strconv.ParseInt(val, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: counter %q", ErrInvalidPayload, val)
	}

	return n, nil
}
