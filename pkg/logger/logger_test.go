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

package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultsToInfo(t *testing.T) {
	log, err := New(&Config{})
	require.NoError(t, err)
	require.NotNil(t, log)

	assert.NotNil(t, log.Info())
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(&Config{Level: "chatty"})
	assert.Error(t, err)
}

func TestNew_DebugOverridesLevel(t *testing.T) {
	log, err := New(&Config{Level: "error", Debug: true})
	require.NoError(t, err)

	// Debug events must be enabled when Debug is set.
	assert.True(t, log.Debug().Enabled())
}

func TestNewComponentLogger(t *testing.T) {
	log, err := NewComponentLogger("poller", &Config{Output: "stderr"})
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestNewTestLogger_Discards(t *testing.T) {
	log := NewTestLogger()
	assert.False(t, log.Info().Enabled())
}
