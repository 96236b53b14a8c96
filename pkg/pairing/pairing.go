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

// Package pairing is the pair/re-pair flow: validate the entered address,
// probe the router with a one-shot login and enumeration, and persist the
// credentials only after the probe succeeds. A failed probe leaves any
// previously stored pairing untouched.
package pairing

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/skirwin/asuswatch/pkg/asus"
	"github.com/skirwin/asuswatch/pkg/logger"
	"github.com/skirwin/asuswatch/pkg/models"
	"github.com/skirwin/asuswatch/pkg/settings"
)

var (
	ErrInvalidAddress = errors.New("pairing: host must be a dotted-quad IPv4 address")
	ErrNoRouters      = errors.New("pairing: login succeeded but the router enumerated no devices")
)

// Hostnames are rejected on purpose; the upstream only ever lives on the
// local network.
var dottedQuad = regexp.MustCompile(`^(\d{1,3})\.(\d{1,3})\.(\d{1,3})\.(\d{1,3})$`)

// ClientFactory builds an upstream client for a candidate connection.
// Swapped out in tests.
type ClientFactory func(conn *settings.Connection, log logger.Logger) asus.Client

// DefaultClientFactory builds the real HTTP client.
func DefaultClientFactory(conn *settings.Connection, log logger.Logger) asus.Client {
	scheme := "http"
	if conn.UseHTTPS {
		scheme = "https"
	}

	return asus.NewHTTPClient(
		fmt.Sprintf("%s://%s:%d", scheme, conn.Host, conn.Port),
		conn.Username,
		conn.Password,
		log,
	)
}

// Pairer validates and probes candidate connections.
type Pairer struct {
	store     *settings.Store
	logger    logger.Logger
	newClient ClientFactory
}

func New(store *settings.Store, log logger.Logger, factory ClientFactory) *Pairer {
	if factory == nil {
		factory = DefaultClientFactory
	}

	return &Pairer{store: store, logger: log, newClient: factory}
}

// Pair probes the candidate connection and, on success, persists it and
// returns the enumerated routers so the caller can register devices.
func (p *Pairer) Pair(ctx context.Context, conn *settings.Connection) ([]models.RouterInfo, error) {
	if err := ValidateHost(conn.Host); err != nil {
		return nil, err
	}

	client := p.newClient(conn, p.logger)

	if err := client.Login(ctx); err != nil {
		return nil, fmt.Errorf("pairing: login probe: %w", err)
	}

	routers, err := client.GetRouters(ctx)
	if err != nil {
		return nil, fmt.Errorf("pairing: enumerate routers: %w", err)
	}

	if len(routers) == 0 {
		return nil, ErrNoRouters
	}

	if err := p.store.SaveConnection(conn); err != nil {
		return nil, err
	}

	p.logger.Info().
		Str("host", conn.Host).
		Int("routers", len(routers)).
		Msg("Paired with router")

	return routers, nil
}

// ValidateHost accepts strictly dotted-quad IPv4 addresses with in-range
// octets.
func ValidateHost(host string) error {
	m := dottedQuad.FindStringSubmatch(strings.TrimSpace(host))
	if m == nil {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, host)
	}

	for _, octet := range m[1:] {
		n, err := strconv.Atoi(octet)
		if err != nil || n > 255 {
			return fmt.Errorf("%w: %q", ErrInvalidAddress, host)
		}
	}

	return nil
}
