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
	"time"

	"github.com/agentcore/core/internal/model"
	"github.com/agentcore/core/internal/team"
)

// registerTeamTools wires agent_teams/agent_teams_async and the
// wait_for async primitive (spec §6.1 "Team", "Async").
func registerTeamTools(f *Frontend, c *Core) {
	registerTool(f, "agent_teams", "Run a multi-agent team orchestration synchronously.", func(ctx context.Context, a AgentTeamsArgs) (any, error) {
		return c.Team.Run(ctx, teamInput(a))
	})

	registerTool(f, "agent_teams_async", "Run a multi-agent team orchestration asynchronously, returning a wait handle.", func(ctx context.Context, a AgentTeamsAsyncArgs) (any, error) {
		continuable := true
		if a.Continuable != nil {
			continuable = *a.Continuable
		}
		handle := c.Team.AsyncRun(ctx, teamInput(a.AgentTeamsArgs), c.Handles, a.TimeoutMs, continuable)

		out := map[string]any{
			"async":     true,
			"handleId":  handle.ID,
			"status":    handle.Status,
			"startTime": handle.StartTime.UTC().Format(time.RFC3339Nano),
		}
		if a.TimeoutMs != nil {
			out["timeout"] = *a.TimeoutMs
		}
		return out, nil
	})

	registerTool(f, "wait_for", "Block until an async handle reaches a terminal state or the deadline elapses.", func(_ context.Context, a WaitForArgs) (any, error) {
		h, err := c.Handles.Wait(a.HandleID, a.TimeoutMs)
		if err != nil {
			return nil, err
		}
		out := map[string]any{"status": h.Status}
		switch h.Status {
		case model.WaitCompleted:
			out["result"] = h.Result
		case model.WaitFailed:
			out["error"] = h.Error
		}
		return out, nil
	})
}

// teamInput maps AgentTeamsArgs (and, embedded, its async variant) onto
// team.Input.
func teamInput(a AgentTeamsArgs) team.Input {
	agents := make([]model.InlineAgentSpec, len(a.Agents))
	for i, ag := range a.Agents {
		agents[i] = model.InlineAgentSpec{
			ID:           ag.ID,
			Role:         ag.Role,
			Model:        ag.Model,
			Temperature:  ag.Temperature,
			MaxTokens:    ag.MaxTokens,
			SystemPrompt: ag.SystemPrompt,
		}
	}

	var conditions []model.Condition
	for _, cond := range a.Conditions {
		conditions = append(conditions, model.Condition{
			Check:    cond.Check,
			Action:   model.ConditionAction(cond.Action),
			BranchTo: cond.BranchTo,
		})
	}

	var sel *model.IntelligentSelection
	if a.IntelligentSelection != nil {
		sel = &model.IntelligentSelection{
			PoolSize: a.IntelligentSelection.PoolSize,
			Criteria: a.IntelligentSelection.Criteria,
		}
	}

	return team.Input{
		Agents:               agents,
		Task:                 a.Task,
		Mode:                 model.TeamMode(a.Mode),
		MaxRounds:            a.MaxRounds,
		IntelligentSelection: sel,
		Conditions:           conditions,
		OutputFields:         a.OutputFields,
		Verbose:              a.Verbose,
		Model:                a.Model,
		ForceModel:           a.ForceModel,
	}
}
