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
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skirwin/asuswatch/pkg/logger"
	"github.com/skirwin/asuswatch/pkg/models"
)

const testClientList = `{"get_clientlist":{
	"maclist":["04:D9:F5:11:22:33","40:B0:76:44:55:66","A8:5E:45:77:88:99"],
	"04:D9:F5:11:22:33":{"ip":"192.168.1.10","name":"desktop","nickName":"Desk","vendor":"ASUS","rssi":"","isWL":"0","amesh_papMac":"04:D9:F5:00:00:01","isOnline":"1"},
	"40:B0:76:44:55:66":{"ip":"192.168.1.11","name":"phone","nickName":"","vendor":"Apple","rssi":"-52","isWL":"2","amesh_papMac":"04:D9:F5:00:00:01","isOnline":"1"},
	"A8:5E:45:77:88:99":{"ip":"192.168.1.12","name":"tablet","nickName":"","vendor":"Samsung","rssi":"-61","isWL":"1","amesh_papMac":"04:D9:F5:00:00:02","isOnline":"1"}
}}`

// routerStub serves the asuswrt endpoints the client touches, requiring a
// valid token cookie on every hook call.
func routerStub(t *testing.T, hooks map[string]string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("/login.cgi", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())

		auth := r.PostFormValue("login_authorization")
		decoded, err := base64.StdEncoding.DecodeString(auth)
		require.NoError(t, err)

		if string(decoded) != "admin:hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		_, _ = w.Write([]byte(`{"asus_token":"tok123"}`))
	})

	mux.HandleFunc("/appGet.cgi", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("asus_token")
		if err != nil || cookie.Value != "tok123" {
			_, _ = w.Write([]byte(`{"error_status":"2"}`))
			return
		}

		hook := r.URL.Query().Get("hook")

		body, ok := hooks[hook]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		_, _ = w.Write([]byte(body))
	})

	mux.HandleFunc("/applyapp.cgi", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("asus_token")
		if err != nil || cookie.Value != "tok123" {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		w.WriteHeader(http.StatusOK)
	})

	return httptest.NewServer(mux)
}

func newTestClient(t *testing.T, srv *httptest.Server, password string) *HTTPClient {
	t.Helper()

	return NewHTTPClient(srv.URL, "admin", password, logger.NewTestLogger())
}

func TestLogin_BadCredentials(t *testing.T) {
	srv := routerStub(t, nil)
	defer srv.Close()

	c := newTestClient(t, srv, "wrong")

	err := c.Login(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoginFailed)
}

func TestGetAllClients(t *testing.T) {
	srv := routerStub(t, map[string]string{"get_clientlist()": testClientList})
	defer srv.Close()

	c := newTestClient(t, srv, "hunter2")

	clients, err := c.GetAllClients(context.Background())
	require.NoError(t, err)
	require.Len(t, clients, 3)

	// Emission must follow maclist order.
	assert.Equal(t, "04:D9:F5:11:22:33", clients[0].MAC)
	assert.Equal(t, models.ScopeWired, clients[0].Scope)
	assert.Equal(t, "40:B0:76:44:55:66", clients[1].MAC)
	assert.Equal(t, models.Scope5G, clients[1].Scope)
	assert.Equal(t, -52, clients[1].RSSI)
	assert.Equal(t, models.Scope24G, clients[2].Scope)
}

func TestGetClients_FiltersByAPAndScope(t *testing.T) {
	srv := routerStub(t, map[string]string{"get_clientlist()": testClientList})
	defer srv.Close()

	c := newTestClient(t, srv, "hunter2")

	clients, err := c.GetClients(context.Background(), "04:d9:f5:00:00:01", models.Scope5G)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "40:B0:76:44:55:66", clients[0].MAC)

	clients, err = c.GetClients(context.Background(), "04:d9:f5:00:00:01", models.Scope24G)
	require.NoError(t, err)
	assert.Empty(t, clients)
}

func TestGetRouters(t *testing.T) {
	const cfgList = `{"get_cfg_clientlist":[
		{"mac":"04:D9:F5:00:00:01","model_name":"RT-AX88U","ip":"192.168.1.1","online":"1","fwver":"3.0.0.4.388_24198","newfwver":"3.0.0.4.388_24243"},
		{"mac":"04:D9:F5:00:00:02","model_name":"RT-AX58U","ip":"192.168.1.2","online":"0","fwver":"3.0.0.4.388_24198","newfwver":""}
	]}`

	srv := routerStub(t, map[string]string{"get_cfg_clientlist()": cfgList})
	defer srv.Close()

	c := newTestClient(t, srv, "hunter2")

	routers, err := c.GetRouters(context.Background())
	require.NoError(t, err)
	require.Len(t, routers, 2)

	assert.Equal(t, models.ModeRouter, routers[0].Mode)
	assert.True(t, routers[0].Online)
	assert.Equal(t, "3.0.0.4.388_24243", routers[0].NewFirmware)
	assert.Equal(t, models.ModeAccessPoint, routers[1].Mode)
	assert.False(t, routers[1].Online)
}

func TestGetLoadAndUptime(t *testing.T) {
	srv := routerStub(t, map[string]string{
		"cpu_usage(appobj);memory_usage(appobj)": `{"cpu_usage":{"cpu1_usage":25,"cpu1_total":100,"cpu2_usage":75,"cpu2_total":100},"memory_usage":{"mem_total":262144,"mem_used":131072}}`,
		"uptime()": `{"uptime":"Sat, 23 Aug 2026 10:11:12 +0200(172800 secs since boot)"}`,
	})
	defer srv.Close()

	c := newTestClient(t, srv, "hunter2")

	load, err := c.GetLoad(context.Background(), "04:D9:F5:00:00:01")
	require.NoError(t, err)
	assert.InDelta(t, 50.0, load.CPUUsage, 0.01)
	assert.InDelta(t, 50.0, load.MemoryUsage, 0.01)

	secs, err := c.GetUptime(context.Background(), "04:D9:F5:00:00:01")
	require.NoError(t, err)
	assert.Equal(t, int64(172800), secs)
}

func TestGetWANStatusAndTraffic(t *testing.T) {
	srv := routerStub(t, map[string]string{
		"wanlink()":      `{"wanlink_status":"1","wanlink_ipaddr":"203.0.113.7","wanlink_type":"dhcp"}`,
		"netdev(appobj)": `{"netdev":{"INTERNET_rx":"0x3e8","INTERNET_tx":"0x1f4"}}`,
	})
	defer srv.Close()

	c := newTestClient(t, srv, "hunter2")

	wan, err := c.GetWANStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.7", wan.IP)
	assert.False(t, wan.Disconnected())

	traffic, err := c.GetTraffic(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1000), traffic.Received)
	assert.Equal(t, int64(500), traffic.Sent)
}

func TestHook_ReloginAfterExpiry(t *testing.T) {
	srv := routerStub(t, map[string]string{"uptime()": `{"uptime":"600"}`})
	defer srv.Close()

	c := newTestClient(t, srv, "hunter2")

	// Seed a stale token; the stub answers error_status for it, which must
	// trigger a re-login and a retry.
	c.mu.Lock()
	c.token = "stale"
	c.mu.Unlock()

	secs, err := c.GetUptime(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, int64(600), secs)
}

func TestCommands(t *testing.T) {
	srv := routerStub(t, nil)
	defer srv.Close()

	c := newTestClient(t, srv, "hunter2")
	ctx := context.Background()

	require.NoError(t, c.Reboot(ctx))
	require.NoError(t, c.SetLED(ctx, true))
	require.NoError(t, c.WakeOnLAN(ctx, "04:D9:F5:11:22:33"))
}

func TestParseWANStatus_Disconnected(t *testing.T) {
	wan := models.WANStatus{StatusCode: "0"}
	assert.True(t, wan.Disconnected())

	wan = models.WANStatus{StatusCode: ""}
	assert.False(t, wan.Disconnected())
}
