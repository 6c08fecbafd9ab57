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

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/agentcore/core/internal/model"
)

// Bootstrap is the optional startup file that pre-registers agent
// presets and budgets, YAML like the teacher's config.Config (SPEC_FULL
// DOMAIN STACK).
type Bootstrap struct {
	Agents  []BootstrapAgent  `yaml:"agents,omitempty"`
	Budgets []BootstrapBudget `yaml:"budgets,omitempty"`
}

// BootstrapAgent mirrors model.AgentConfig's fields in YAML form.
type BootstrapAgent struct {
	ID           string            `yaml:"id"`
	Name         string            `yaml:"name"`
	Model        string            `yaml:"model,omitempty"`
	Temperature  float64           `yaml:"temperature"`
	MaxTokens    int               `yaml:"max_tokens"`
	TopP         float64           `yaml:"top_p"`
	SystemPrompt string            `yaml:"system_prompt,omitempty"`
	EnabledTools []string          `yaml:"enabled_tools,omitempty"`
	Toolkits     []string          `yaml:"toolkits,omitempty"`
	Skills       []string          `yaml:"skills,omitempty"`
	Metadata     map[string]string `yaml:"metadata,omitempty"`
}

// ToAgentConfig converts a bootstrap preset into the AgentConfig
// agentregistry.Registry.Configure expects.
func (a BootstrapAgent) ToAgentConfig() model.AgentConfig {
	return model.AgentConfig{
		ID:           a.ID,
		Name:         a.Name,
		Model:        a.Model,
		Temperature:  a.Temperature,
		MaxTokens:    a.MaxTokens,
		TopP:         a.TopP,
		SystemPrompt: a.SystemPrompt,
		EnabledTools: a.EnabledTools,
		Toolkits:     a.Toolkits,
		Skills:       a.Skills,
		Metadata:     a.Metadata,
	}
}

// BootstrapBudget mirrors model.AgentBudget's fields in YAML form.
type BootstrapBudget struct {
	AgentID string `yaml:"agent_id"`
	Limits  []struct {
		Dimension string  `yaml:"dimension"`
		Window    string  `yaml:"window"`
		Limit     float64 `yaml:"limit"`
	} `yaml:"limits,omitempty"`
	RateLimit *struct {
		Calls         int `yaml:"calls"`
		PeriodSeconds int `yaml:"period_seconds"`
	} `yaml:"rate_limit,omitempty"`
}

// ToAgentBudget converts a bootstrap budget into the AgentBudget
// budget.Manager.SetBudget expects.
func (b BootstrapBudget) ToAgentBudget() model.AgentBudget {
	limits := make([]model.BudgetLimit, 0, len(b.Limits))
	for _, l := range b.Limits {
		limits = append(limits, model.BudgetLimit{
			Dimension: model.BudgetDimension(l.Dimension),
			Window:    model.BudgetWindow(l.Window),
			Limit:     l.Limit,
		})
	}
	var rateLimit *model.RateLimitRule
	if b.RateLimit != nil {
		rateLimit = &model.RateLimitRule{
			Calls:  b.RateLimit.Calls,
			Period: time.Duration(b.RateLimit.PeriodSeconds) * time.Second,
		}
	}
	return model.AgentBudget{AgentID: b.AgentID, Limits: limits, RateLimit: rateLimit}
}

// LoadBootstrap reads and parses the bootstrap YAML file at path. A
// missing file is not an error — bootstrap config is optional, since
// every agent preset and budget it can set is also reachable at runtime
// through configure_agent and the budget subsystem's own collaborator
// interface (§6.2).
func LoadBootstrap(path string) (*Bootstrap, error) {
	if path == "" {
		return &Bootstrap{}, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Bootstrap{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: reading bootstrap file %q: %w", path, err)
	}
	var b Bootstrap
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("config: parsing bootstrap file %q: %w", path, err)
	}
	return &b, nil
}
