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

// Package asus talks to the asuswrt web API of an ASUS router or AiMesh
// system: token login, appGet.cgi hook queries and applyapp.cgi commands.
package asus

import (
	"context"
	"errors"

	"github.com/skirwin/asuswatch/pkg/models"
)

var (
	ErrLoginFailed    = errors.New("router login failed")
	ErrRequestFailed  = errors.New("router request failed")
	ErrInvalidPayload = errors.New("invalid router payload")
)

// Client is the upstream API surface the poller consumes. Implementations
// must be safe for concurrent use; the poller fans calls out across devices
// within one tick.
type Client interface {
	// Login authenticates against the router and caches the session
	// token. It is also used as the pairing probe.
	Login(ctx context.Context) error

	// GetRouters enumerates the mesh: every router/AP with online status
	// and firmware info.
	GetRouters(ctx context.Context) ([]models.RouterInfo, error)

	// GetAllClients returns every client connected anywhere on the
	// network, ordered as the router reports them.
	GetAllClients(ctx context.Context) ([]models.ConnectedClient, error)

	// GetClients returns the clients attached to one access point over
	// one scope (wired, 2.4 GHz or 5 GHz).
	GetClients(ctx context.Context, apMAC string, scope models.Scope) ([]models.ConnectedClient, error)

	GetLoad(ctx context.Context, apMAC string) (*models.LoadStats, error)
	GetUptime(ctx context.Context, apMAC string) (int64, error)

	// GetWANStatus and GetTraffic only apply to the router-mode device.
	GetWANStatus(ctx context.Context) (*models.WANStatus, error)
	GetTraffic(ctx context.Context) (*models.TrafficSample, error)

	Reboot(ctx context.Context) error
	SetLED(ctx context.Context, on bool) error
	WakeOnLAN(ctx context.Context, mac string) error
}
