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

package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skirwin/asuswatch/pkg/models"
)

func TestDevice_CapabilityGuard(t *testing.T) {
	dev := NewDevice("04:D9:F5:00:00:01", "office", models.ModeRouter, []string{models.CapCPUUsage})

	require.True(t, dev.HasCapability(models.CapCPUUsage))
	require.False(t, dev.HasCapability(models.CapExternalIP))

	require.NoError(t, dev.SetCapabilityValue(models.CapCPUUsage, 42.5))

	val, ok := dev.CapabilityValue(models.CapCPUUsage)
	require.True(t, ok)
	assert.InDelta(t, 42.5, val.(float64), 0.001)

	err := dev.SetCapabilityValue(models.CapExternalIP, "203.0.113.7")
	assert.ErrorIs(t, err, ErrCapabilityMissing)
}

func TestDevice_CapabilityValueUnsetUntilWritten(t *testing.T) {
	dev := NewDevice("04:D9:F5:00:00:01", "office", models.ModeRouter, []string{models.CapExternalIP})

	_, ok := dev.CapabilityValue(models.CapExternalIP)
	assert.False(t, ok)
}

func TestDevice_AvailabilityAndWarning(t *testing.T) {
	dev := NewDevice("04:D9:F5:00:00:01", "office", models.ModeAccessPoint, nil)

	available, _ := dev.Availability()
	assert.True(t, available)

	dev.SetUnavailable("router API unreachable")

	available, reason := dev.Availability()
	assert.False(t, available)
	assert.Equal(t, "router API unreachable", reason)

	dev.SetAvailable()

	available, reason = dev.Availability()
	assert.True(t, available)
	assert.Empty(t, reason)

	dev.SetWarning("some metrics failed to update")
	assert.Equal(t, "some metrics failed to update", dev.Warning())

	dev.ClearWarning()
	assert.Empty(t, dev.Warning())
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := New()

	require.NoError(t, r.Register(NewDevice("04:D9:F5:00:00:02", "attic", models.ModeAccessPoint, nil)))
	require.NoError(t, r.Register(NewDevice("04:D9:F5:00:00:01", "office", models.ModeRouter, nil)))

	err := r.Register(NewDevice("04:d9:f5:00:00:01", "dup", models.ModeRouter, nil))
	assert.ErrorIs(t, err, ErrDeviceExists)

	// Lookup is case-insensitive on the hardware address.
	dev, ok := r.Get("04:D9:F5:00:00:01")
	require.True(t, ok)
	assert.Equal(t, "office", dev.Name())

	devices := r.Devices()
	require.Len(t, devices, 2)
	assert.Equal(t, "04:d9:f5:00:00:01", devices[0].MAC())
	assert.Equal(t, "04:d9:f5:00:00:02", devices[1].MAC())
}
