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

// Package diff computes connect/disconnect transitions between two
// snapshots of connected clients. Clients are identified by hardware
// address only; attribute drift (IP reassignment, RSSI changes) is never a
// transition. All functions are pure.
package diff

import "github.com/skirwin/asuswatch/pkg/models"

// Changes holds the transitions between an old and a new snapshot of the
// same scope. Order of emission follows input order.
type Changes struct {
	// Departed are clients present in old whose hardware address is
	// absent from new.
	Departed []models.ConnectedClient
	// Arrived are clients present in new whose hardware address is
	// absent from old.
	Arrived []models.ConnectedClient
}

// Empty reports whether no transition occurred.
func (c *Changes) Empty() bool {
	return len(c.Departed) == 0 && len(c.Arrived) == 0
}

// Compute diffs two client lists keyed by normalized hardware address.
// Empty inputs are valid: an empty old list means everything arrived, an
// empty new list means everything departed.
func Compute(old, current []models.ConnectedClient) Changes {
	oldKeys := keySet(old)
	newKeys := keySet(current)

	var changes Changes

	for i := range old {
		if _, ok := newKeys[old[i].Key()]; !ok {
			changes.Departed = append(changes.Departed, old[i])
		}
	}

	for i := range current {
		if _, ok := oldKeys[current[i].Key()]; !ok {
			changes.Arrived = append(changes.Arrived, current[i])
		}
	}

	return changes
}

// Union merges per-scope snapshots into a single network-wide client list.
// The first occurrence of a hardware address wins; later duplicates are
// dropped so a client reported by two scopes in the same cycle counts once.
func Union(snapshots ...[]models.ConnectedClient) []models.ConnectedClient {
	total := 0
	for _, s := range snapshots {
		total += len(s)
	}

	seen := make(map[string]struct{}, total)
	merged := make([]models.ConnectedClient, 0, total)

	for _, s := range snapshots {
		for i := range s {
			key := s[i].Key()
			if _, ok := seen[key]; ok {
				continue
			}

			seen[key] = struct{}{}

			merged = append(merged, s[i])
		}
	}

	return merged
}

func keySet(clients []models.ConnectedClient) map[string]struct{} {
	set := make(map[string]struct{}, len(clients))
	for i := range clients {
		set[clients[i].Key()] = struct{}{}
	}

	return set
}
