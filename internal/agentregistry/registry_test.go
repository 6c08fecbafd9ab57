// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package agentregistry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentcore/core/internal/config"
	"github.com/agentcore/core/internal/model"
)

func TestConfigurePreservesCreatedAt(t *testing.T) {
	r := New()

	first := r.Configure(model.AgentConfig{ID: "r1", Name: "Researcher"})
	require.False(t, first.CreatedAt.IsZero())

	second := r.Configure(model.AgentConfig{ID: "r1", Name: "Researcher v2"})
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.True(t, second.UpdatedAt.Equal(second.UpdatedAt))
	assert.Equal(t, "Researcher v2", second.Name)
}

func TestDeleteUnknownAgentIsNotFound(t *testing.T) {
	r := New()
	err := r.Delete("missing")
	require.Error(t, err)
}

// TestResolvePrecedence verifies P10: inline ?? registered ?? default,
// field by field.
func TestResolvePrecedence(t *testing.T) {
	r := New()
	r.Configure(model.AgentConfig{
		ID:          "r1",
		Name:        "Researcher",
		Model:       "registered-model",
		Temperature: 0.3,
		MaxTokens:   500,
		TopP:        0.9,
	})

	defaults := config.SamplingDefaults{
		Model:       "default-model",
		Temperature: 0.7,
		MaxTokens:   1024,
		TopP:        1.0,
	}

	temp := 0.9
	resolved := r.Resolve(model.InlineAgentSpec{ID: "r1", Temperature: &temp}, defaults)

	assert.Equal(t, "Researcher", resolved.Role) // falls back to registered name
	assert.Equal(t, "registered-model", resolved.Model)
	assert.Equal(t, 0.9, resolved.Temperature) // inline wins
	assert.Equal(t, 500, resolved.MaxTokens)   // registered wins
	assert.Equal(t, 0.9, resolved.TopP)         // registered (no inline topP field)
}

func TestResolveUnregisteredIsPurelyInline(t *testing.T) {
	r := New()
	defaults := config.SamplingDefaults{Model: "default-model", Temperature: 0.7, MaxTokens: 1024, TopP: 1.0}

	resolved := r.Resolve(model.InlineAgentSpec{ID: "ghost", Role: "Reviewer"}, defaults)

	assert.Equal(t, "Reviewer", resolved.Role)
	assert.Equal(t, "default-model", resolved.Model)
	assert.Equal(t, 0.7, resolved.Temperature)
	assert.Equal(t, 1024, resolved.MaxTokens)
}
