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

	"github.com/agentcore/core/internal/executor"
	"github.com/agentcore/core/internal/model"
)

// registerExecutionTools wires execute_agent/execute_agent_async/
// chat_with_agent (spec §6.1 "Agent execution").
func registerExecutionTools(f *Frontend, c *Core) {
	registerTool(f, "execute_agent", "Run one agent synchronously against a prompt.", func(ctx context.Context, a ExecuteAgentArgs) (any, error) {
		resolved := c.Agents.Resolve(model.InlineAgentSpec{ID: a.AgentID}, c.Defaults)
		return c.Executor.Run(ctx, resolved, executeInput(a))
	})

	registerTool(f, "execute_agent_async", "Run one agent asynchronously, returning a wait handle.", func(ctx context.Context, a ExecuteAgentAsyncArgs) (any, error) {
		resolved := c.Agents.Resolve(model.InlineAgentSpec{ID: a.AgentID}, c.Defaults)
		in := executeInput(a.ExecuteAgentArgs)

		metadata := map[string]any{"agentId": a.AgentID}
		handle := c.Handles.Register(model.WaitKindAgent, metadata, a.TimeoutMs, false)

		go func() {
			result, err := c.Executor.Run(ctx, resolved, in)
			if err != nil {
				_ = c.Handles.Fail(handle.ID, err.Error())
				return
			}
			_ = c.Handles.Complete(handle.ID, result)
		}()

		out := map[string]any{
			"async":     true,
			"handleId":  handle.ID,
			"agentId":   a.AgentID,
			"status":    handle.Status,
			"startTime": handle.StartTime.UTC().Format(time.RFC3339Nano),
		}
		if a.TimeoutMs != nil {
			out["timeout"] = *a.TimeoutMs
		}
		return out, nil
	})

	registerTool(f, "chat_with_agent", "Single-turn convenience call: send one message and get the agent's reply.", func(ctx context.Context, a ChatWithAgentArgs) (any, error) {
		resolved := c.Agents.Resolve(model.InlineAgentSpec{ID: a.AgentID}, c.Defaults)
		in := executor.Input{AgentID: a.AgentID, Prompt: a.Message, Verbose: true}
		result, err := c.Executor.Run(ctx, resolved, in)
		if err != nil {
			return nil, err
		}
		if a.ConversationID != "" {
			result["conversationId"] = a.ConversationID
		}
		return result, nil
	})
}

// executeInput maps the wire args of execute_agent (and, embedded, its
// async/chat variants) onto executor.Input.
func executeInput(a ExecuteAgentArgs) executor.Input {
	docs := make([]executor.Document, len(a.Documents))
	for i, d := range a.Documents {
		docs[i] = executor.Document{Label: d.Label, Content: d.Content}
	}
	return executor.Input{
		AgentID:      a.AgentID,
		Prompt:       a.Prompt,
		Model:        a.Model,
		Temperature:  a.Temperature,
		MaxTokens:    a.MaxTokens,
		TopP:         a.TopP,
		SystemPrompt: a.SystemPrompt,
		Context:      a.Context,
		Tools:        a.Tools,
		Toolkits:     a.Toolkits,
		Skills:       a.Skills,
		Documents:    docs,
		OutputFields: a.OutputFields,
		Verbose:      a.Verbose,
	}
}
