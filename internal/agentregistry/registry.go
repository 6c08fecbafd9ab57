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

// Package agentregistry is the in-memory agent preset store (spec §4.2):
// an agentId -> AgentConfig map, plus the "agent spec resolution" helper
// that merges an inline team-member reference with a registered preset.
package agentregistry

import (
	"time"

	"github.com/agentcore/core/internal/config"
	"github.com/agentcore/core/internal/errs"
	"github.com/agentcore/core/internal/model"
	"github.com/agentcore/core/internal/registry"
)

// Registry is the agent preset store. Mutations are synchronous and
// dispatch-serialized (spec §4.2, §5) — the embedded BaseRegistry's mutex
// is what makes that safe under concurrent tool calls too.
type Registry struct {
	base *registry.BaseRegistry[model.AgentConfig]
}

// New creates an empty agent registry.
func New() *Registry {
	return &Registry{base: registry.NewBaseRegistry[model.AgentConfig]()}
}

// Configure upserts a preset: a fresh ID sets CreatedAt, a re-configure
// preserves the original CreatedAt and bumps UpdatedAt.
func (r *Registry) Configure(cfg model.AgentConfig) model.AgentConfig {
	now := time.Now()
	if existing, ok := r.base.Get(cfg.ID); ok {
		cfg.CreatedAt = existing.CreatedAt
	} else {
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now
	r.base.Set(cfg.ID, cfg)
	return cfg
}

// Get returns the preset registered under id.
func (r *Registry) Get(id string) (model.AgentConfig, bool) {
	return r.base.Get(id)
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.base.Get(id)
	return ok
}

// List returns every registered preset.
func (r *Registry) List() []model.AgentConfig {
	return r.base.List()
}

// Delete removes a preset, failing with errs.NotFoundError if absent.
func (r *Registry) Delete(id string) error {
	if err := r.base.Remove(id); err != nil {
		return &errs.NotFoundError{Kind: "agent", ID: id}
	}
	return nil
}

// Resolve merges an inline spec against the registered preset with the
// matching ID (spec §4.2): inline fields override registered ones,
// missing fields fall back to the registered config, Role falls back to
// the registered Name, and any field still unset falls back to the
// process sampling defaults. Unregistered IDs are treated as purely
// inline specs layered directly over the defaults.
func (r *Registry) Resolve(spec model.InlineAgentSpec, defaults config.SamplingDefaults) model.ResolvedAgent {
	registered, ok := r.base.Get(spec.ID)

	resolved := model.ResolvedAgent{
		ID:           spec.ID,
		Role:         spec.Role,
		Model:        spec.Model,
		SystemPrompt: spec.SystemPrompt,
	}
	if spec.Temperature != nil {
		resolved.Temperature = *spec.Temperature
	}
	if spec.MaxTokens != nil {
		resolved.MaxTokens = *spec.MaxTokens
	}

	if ok {
		if resolved.Role == "" {
			resolved.Role = registered.Name
		}
		if resolved.Model == "" {
			resolved.Model = registered.Model
		}
		if spec.Temperature == nil {
			resolved.Temperature = registered.Temperature
		}
		if spec.MaxTokens == nil {
			resolved.MaxTokens = registered.MaxTokens
		}
		if resolved.SystemPrompt == "" {
			resolved.SystemPrompt = registered.SystemPrompt
		}
		resolved.TopP = registered.TopP
		resolved.EnabledTools = registered.EnabledTools
		resolved.Toolkits = registered.Toolkits
		resolved.Skills = registered.Skills
	}

	if resolved.Role == "" {
		resolved.Role = spec.ID
	}
	if resolved.Model == "" {
		resolved.Model = defaults.Model
	}
	if resolved.Temperature == 0 && spec.Temperature == nil {
		resolved.Temperature = defaults.Temperature
	}
	if resolved.MaxTokens == 0 {
		resolved.MaxTokens = defaults.MaxTokens
	}
	if resolved.TopP == 0 {
		resolved.TopP = defaults.TopP
	}

	return resolved
}
