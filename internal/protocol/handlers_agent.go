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

package protocol

import (
	"context"

	"github.com/agentcore/core/internal/errs"
	"github.com/agentcore/core/internal/model"
)

// registerAgentTools wires configure_agent/list_agents/get_agent/
// delete_agent (spec §6.1 "Agent lifecycle").
func registerAgentTools(f *Frontend, c *Core) {
	registerTool(f, "configure_agent", "Create or update an agent preset.", func(_ context.Context, a ConfigureAgentArgs) (any, error) {
		cfg := model.AgentConfig{
			ID:           a.AgentID,
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
		return c.Agents.Configure(cfg), nil
	})

	registerTool(f, "list_agents", "List every registered agent preset.", func(_ context.Context, _ ListAgentsArgs) (any, error) {
		return c.Agents.List(), nil
	})

	registerTool(f, "get_agent", "Fetch one agent preset's full config.", func(_ context.Context, a GetAgentArgs) (any, error) {
		cfg, ok := c.Agents.Get(a.AgentID)
		if !ok {
			return nil, &errs.NotFoundError{Kind: "agent", ID: a.AgentID}
		}
		return cfg, nil
	})

	registerTool(f, "delete_agent", "Remove an agent preset.", func(_ context.Context, a DeleteAgentArgs) (any, error) {
		if err := c.Agents.Delete(a.AgentID); err != nil {
			return nil, err
		}
		return map[string]any{"agentId": a.AgentID, "deleted": true}, nil
	})
}
