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

// Package model holds the data types shared across the agent registry,
// skills service, budget subsystem, executor, and team orchestrator
// (spec §3).
package model

import "time"

// AgentConfig is a preset identity: model, sampling parameters, system
// prompt, and the tools/toolkits/skills an agent is allowed to use.
type AgentConfig struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Model        string            `json:"model,omitempty"`
	Temperature  float64           `json:"temperature"` // [0,2]
	MaxTokens    int               `json:"maxTokens"`   // > 0
	TopP         float64           `json:"topP"`        // [0,1]
	SystemPrompt string            `json:"systemPrompt,omitempty"`
	EnabledTools []string          `json:"enabledTools,omitempty"`
	Toolkits     []string          `json:"toolkits,omitempty"`
	Skills       []string          `json:"skills,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// InlineAgentSpec is a reference to an agent used by the team
// orchestrator: {id, role?, model?, temperature?, maxTokens?,
// systemPrompt?}. Fields override the registered preset with the
// matching ID; unregistered IDs are treated as purely inline specs.
type InlineAgentSpec struct {
	ID           string   `json:"id"`
	Role         string   `json:"role,omitempty"`
	Model        string   `json:"model,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
	MaxTokens    *int     `json:"maxTokens,omitempty"`
	SystemPrompt string   `json:"systemPrompt,omitempty"`
}

// ResolvedAgent is the merged result of an InlineAgentSpec against the
// registry (§4.2's "agent spec resolution"), plus a fallback to process
// defaults for any field still unset.
type ResolvedAgent struct {
	ID           string
	Role         string
	Model        string
	Temperature  float64
	MaxTokens    int
	TopP         float64
	SystemPrompt string
	EnabledTools []string
	Toolkits     []string
	Skills       []string
}
