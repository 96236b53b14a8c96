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

package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skirwin/asuswatch/pkg/models"
)

func client(mac, ip string) models.ConnectedClient {
	return models.ConnectedClient{MAC: mac, IP: ip, Scope: models.ScopeWired}
}

func TestCompute_DisjointLists(t *testing.T) {
	old := []models.ConnectedClient{client("aa:bb:cc:00:00:01", "10.0.0.1"), client("aa:bb:cc:00:00:02", "10.0.0.2")}
	current := []models.ConnectedClient{client("aa:bb:cc:00:00:03", "10.0.0.3")}

	changes := Compute(old, current)

	assert.Equal(t, old, changes.Departed)
	assert.Equal(t, current, changes.Arrived)
}

func TestCompute_IdenticalSets(t *testing.T) {
	old := []models.ConnectedClient{client("aa:bb:cc:00:00:01", "10.0.0.1"), client("aa:bb:cc:00:00:02", "10.0.0.2")}
	current := []models.ConnectedClient{client("aa:bb:cc:00:00:01", "10.0.0.1"), client("aa:bb:cc:00:00:02", "10.0.0.2")}

	changes := Compute(old, current)

	assert.Empty(t, changes.Departed)
	assert.Empty(t, changes.Arrived)
	assert.True(t, changes.Empty())
}

func TestCompute_AttributeDriftIsNotATransition(t *testing.T) {
	old := []models.ConnectedClient{client("aa:bb:cc:00:00:01", "10.0.0.1")}
	current := []models.ConnectedClient{client("aa:bb:cc:00:00:01", "10.0.0.99")}
	current[0].RSSI = -70

	changes := Compute(old, current)

	assert.True(t, changes.Empty())
}

func TestCompute_CaseInsensitiveIdentity(t *testing.T) {
	old := []models.ConnectedClient{client("AA:BB:CC:00:00:01", "10.0.0.1")}
	current := []models.ConnectedClient{client("aa:bb:cc:00:00:01", "10.0.0.1")}

	changes := Compute(old, current)

	assert.True(t, changes.Empty())
}

func TestCompute_EmptyInputs(t *testing.T) {
	all := []models.ConnectedClient{client("aa:bb:cc:00:00:01", "10.0.0.1")}

	arrived := Compute(nil, all)
	assert.Empty(t, arrived.Departed)
	assert.Equal(t, all, arrived.Arrived)

	departed := Compute(all, nil)
	assert.Equal(t, all, departed.Departed)
	assert.Empty(t, departed.Arrived)

	nothing := Compute(nil, nil)
	assert.True(t, nothing.Empty())
}

func TestCompute_EmissionFollowsInputOrder(t *testing.T) {
	old := []models.ConnectedClient{
		client("aa:bb:cc:00:00:03", ""),
		client("aa:bb:cc:00:00:01", ""),
		client("aa:bb:cc:00:00:02", ""),
	}

	changes := Compute(old, nil)

	require.Len(t, changes.Departed, 3)
	assert.Equal(t, "aa:bb:cc:00:00:03", changes.Departed[0].MAC)
	assert.Equal(t, "aa:bb:cc:00:00:01", changes.Departed[1].MAC)
	assert.Equal(t, "aa:bb:cc:00:00:02", changes.Departed[2].MAC)
}

func TestCompute_Idempotent(t *testing.T) {
	old := []models.ConnectedClient{client("aa:bb:cc:00:00:01", "10.0.0.1"), client("aa:bb:cc:00:00:02", "10.0.0.2")}
	current := []models.ConnectedClient{client("aa:bb:cc:00:00:02", "10.0.0.2"), client("aa:bb:cc:00:00:03", "10.0.0.3")}

	first := Compute(old, current)
	second := Compute(old, current)

	assert.Equal(t, first, second)
}

func TestUnion_DropsDuplicateAddresses(t *testing.T) {
	wired := []models.ConnectedClient{client("aa:bb:cc:00:00:01", "10.0.0.1")}
	wifi := []models.ConnectedClient{
		{MAC: "AA:BB:CC:00:00:01", Scope: models.Scope24G},
		{MAC: "aa:bb:cc:00:00:02", Scope: models.Scope24G},
	}

	merged := Union(wired, wifi)

	require.Len(t, merged, 2)
	assert.Equal(t, "aa:bb:cc:00:00:01", merged[0].MAC)
	assert.Equal(t, models.ScopeWired, merged[0].Scope)
	assert.Equal(t, "aa:bb:cc:00:00:02", merged[1].MAC)
}

// A client moving bands between ticks must not register network-wide when
// transitions are derived by re-diffing the unioned snapshots.
func TestUnion_BandMoveIsInvisibleNetworkWide(t *testing.T) {
	oldWifi24 := []models.ConnectedClient{{MAC: "aa:bb:cc:00:00:01", Scope: models.Scope24G}}
	newWifi5 := []models.ConnectedClient{{MAC: "aa:bb:cc:00:00:01", Scope: models.Scope5G}}

	oldUnion := Union(nil, oldWifi24, nil)
	newUnion := Union(nil, nil, newWifi5)

	changes := Compute(oldUnion, newUnion)
	assert.True(t, changes.Empty())
}
