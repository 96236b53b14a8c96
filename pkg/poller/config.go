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

package poller

import (
	"time"

	"github.com/skirwin/asuswatch/pkg/models"
)

const (
	defaultPollInterval     = 60 * time.Second
	defaultTrafficSampleGap = 2 * time.Second
)

// Config holds the polling-cycle knobs.
type Config struct {
	// PollInterval is the fixed tick interval; default 60s.
	PollInterval models.Duration `json:"poll_interval"`
	// TrafficSampleGap separates the two traffic counter samples used
	// for realtime throughput; default 2s.
	TrafficSampleGap models.Duration `json:"traffic_sample_gap"`
	// SuppressFirstPoll drops client-connected events for clients already
	// present on a device's first poll after registration.
	SuppressFirstPoll bool `json:"suppress_first_poll"`
}

// Validate implements config.Validator.
func (c *Config) Validate() error {
	if time.Duration(c.PollInterval) <= 0 {
		c.PollInterval = models.Duration(defaultPollInterval)
	}

	if time.Duration(c.TrafficSampleGap) <= 0 {
		c.TrafficSampleGap = models.Duration(defaultTrafficSampleGap)
	}

	return nil
}
