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

package main

import (
	"github.com/skirwin/asuswatch/pkg/logger"
	"github.com/skirwin/asuswatch/pkg/notify"
	"github.com/skirwin/asuswatch/pkg/pairing"
	"github.com/skirwin/asuswatch/pkg/poller"
	"github.com/skirwin/asuswatch/pkg/settings"
)

const defaultSettingsPath = "/var/lib/asuswatch/settings.db"

// appConfig is the top-level JSON config file.
type appConfig struct {
	Logging *logger.Config `json:"logging,omitempty"`
	Poller  poller.Config  `json:"poller"`

	// Router pairs (or re-pairs) on startup. Omit it once paired; the
	// stored connection is used then.
	Router *routerConfig `json:"router,omitempty"`

	SettingsPath string `json:"settings_path,omitempty"`
	// SettingsKey seals stored credentials; the ASUSWATCH_SECRET_KEY
	// environment variable takes precedence.
	SettingsKey string `json:"settings_key,omitempty"`

	MQTT        *notify.MQTTConfig `json:"mqtt,omitempty"`
	MetricsAddr string             `json:"metrics_addr,omitempty"`
}

// Validate implements config.Validator.
func (c *appConfig) Validate() error {
	if c.SettingsPath == "" {
		c.SettingsPath = defaultSettingsPath
	}

	if c.Router != nil {
		if err := pairing.ValidateHost(c.Router.Host); err != nil {
			return err
		}
	}

	return c.Poller.Validate()
}

type routerConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port,omitempty"`
	UseHTTPS bool   `json:"use_https,omitempty"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *routerConfig) connection() *settings.Connection {
	port := r.Port
	if port == 0 {
		if r.UseHTTPS {
			port = 8443
		} else {
			port = 80
		}
	}

	return &settings.Connection{
		Host:     r.Host,
		Port:     port,
		UseHTTPS: r.UseHTTPS,
		Username: r.Username,
		Password: r.Password,
	}
}
