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

package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skirwin/asuswatch/pkg/crypto/secrets"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(":memory:", secrets.NewSealer("test-key"))
	require.NoError(t, err)

	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestConnection_NotPaired(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Connection()
	assert.ErrorIs(t, err, ErrNotPaired)
}

func TestSaveAndLoadConnection(t *testing.T) {
	store := newTestStore(t)

	saved := &Connection{
		Host:     "192.168.1.1",
		Port:     8443,
		UseHTTPS: true,
		Username: "admin",
		Password: "hunter2",
	}
	require.NoError(t, store.SaveConnection(saved))

	loaded, err := store.Connection()
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)
}

func TestSaveConnection_Overwrites(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.SaveConnection(&Connection{Host: "192.168.1.1", Port: 80, Username: "admin", Password: "old"}))
	require.NoError(t, store.SaveConnection(&Connection{Host: "192.168.50.1", Port: 80, Username: "admin", Password: "new"}))

	loaded, err := store.Connection()
	require.NoError(t, err)
	assert.Equal(t, "192.168.50.1", loaded.Host)
	assert.Equal(t, "new", loaded.Password)
}

func TestClear(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.SaveConnection(&Connection{Host: "192.168.1.1", Port: 80, Username: "admin", Password: "x"}))
	require.NoError(t, store.Clear())

	_, err := store.Connection()
	assert.ErrorIs(t, err, ErrNotPaired)
}

func TestPasswordIsSealedAtRest(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.SaveConnection(&Connection{Host: "192.168.1.1", Port: 80, Username: "admin", Password: "hunter2"}))

	var sealed string

	err := store.db.QueryRow(`SELECT sealed_password FROM paired_router WHERE id = 1`).Scan(&sealed)
	require.NoError(t, err)
	assert.NotContains(t, sealed, "hunter2")
}
