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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentcore/core/internal/agentregistry"
	"github.com/agentcore/core/internal/config"
	"github.com/agentcore/core/internal/executor"
	"github.com/agentcore/core/internal/sampler"
	"github.com/agentcore/core/internal/skills"
	"github.com/agentcore/core/internal/team"
	"github.com/agentcore/core/internal/toolkit"
	"github.com/agentcore/core/internal/waithandle"
)

type recordingObserver struct {
	before []string
	after  []string
}

func (o *recordingObserver) Before(tool string, _ any) any {
	o.before = append(o.before, tool)
	return nil
}

func (o *recordingObserver) After(tool string, _ any, _ any, _ int64, _ error) {
	o.after = append(o.after, tool)
}

func newTestFrontend(t *testing.T) (*Frontend, *recordingObserver) {
	t.Helper()
	agents := agentregistry.New()
	skillsSvc, err := skills.New(t.TempDir(), toolkit.NewStaticRegistry(nil))
	require.NoError(t, err)

	smp := &sampler.EchoSampler{}
	defaults := config.SamplingDefaults{Model: "default", Temperature: 0.7, MaxTokens: 256, TopP: 1}
	exec := executor.New(smp, skillsSvc, nil, nil, nil)
	orch := team.New(agents, smp, defaults, nil)
	handles := waithandle.New()

	obs := &recordingObserver{}
	f := New(obs)
	RegisterAll(f, &Core{
		Agents:   agents,
		Skills:   skillsSvc,
		Executor: exec,
		Team:     orch,
		Handles:  handles,
		Defaults: defaults,
	})
	return f, obs
}

func TestConfigureAgentThenGetRoundTrips(t *testing.T) {
	f, obs := newTestFrontend(t)
	ctx := context.Background()

	result := f.Dispatch(ctx, "configure_agent", json.RawMessage(`{"agentId":"a1","name":"Assistant","temperature":0.5,"maxTokens":512,"topP":1}`))
	require.False(t, result.IsError)

	result = f.Dispatch(ctx, "get_agent", json.RawMessage(`{"agentId":"a1"}`))
	require.False(t, result.IsError)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &got))
	assert.Equal(t, "Assistant", got["name"])

	assert.Contains(t, obs.before, "configure_agent")
	assert.Contains(t, obs.after, "get_agent")
}

// TestLoggingObserverExtractsShapeAndAgentID grounds the maintainer-
// requested logging observer: it derives input_shape and agent_id from
// the raw input at Before time and carries them through to After without
// panicking on either the success or failure path.
func TestLoggingObserverExtractsShapeAndAgentID(t *testing.T) {
	obs := LoggingObserver{}
	raw := json.RawMessage(`{"agentId":"a1","prompt":"hello"}`)

	state := obs.Before("execute_agent", raw)
	st, ok := state.(*loggingState)
	require.True(t, ok)
	assert.Equal(t, "a1", st.agentID)
	assert.ElementsMatch(t, []string{"agentId", "prompt"}, st.inputShape)

	assert.NotPanics(t, func() { obs.After("execute_agent", state, map[string]any{"ok": true}, 12, nil) })
	assert.NotPanics(t, func() { obs.After("execute_agent", state, nil, 12, assert.AnError) })
	assert.NotPanics(t, func() { obs.After("execute_agent", nil, nil, 0, assert.AnError) })
}

func TestDispatchUnknownToolReturnsErrorEnvelope(t *testing.T) {
	f, _ := newTestFrontend(t)
	result := f.Dispatch(context.Background(), "no_such_tool", json.RawMessage(`{}`))
	assert.True(t, result.IsError)
}

// TestExecuteAgentRejectsMissingRequiredField grounds spec §4.1's schema
// validation: a call missing the required "prompt" field is rejected
// before the handler ever runs, with a structured error in the envelope.
func TestExecuteAgentRejectsMissingRequiredField(t *testing.T) {
	f, _ := newTestFrontend(t)
	result := f.Dispatch(context.Background(), "execute_agent", json.RawMessage(`{"agentId":"a1"}`))
	assert.True(t, result.IsError)
}

func TestExecuteAgentSynchronousRun(t *testing.T) {
	f, _ := newTestFrontend(t)
	ctx := context.Background()

	f.Dispatch(ctx, "configure_agent", json.RawMessage(`{"agentId":"a1","name":"Assistant","maxTokens":256}`))
	result := f.Dispatch(ctx, "execute_agent", json.RawMessage(`{"agentId":"a1","prompt":"hello","verbose":true}`))
	require.False(t, result.IsError)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &got))
	assert.Equal(t, "a1", got["agentId"])
	assert.Contains(t, got["response"], "hello")
}

func TestWaitForBlocksUntilAsyncAgentCompletes(t *testing.T) {
	f, _ := newTestFrontend(t)
	ctx := context.Background()

	f.Dispatch(ctx, "configure_agent", json.RawMessage(`{"agentId":"a1","name":"Assistant","maxTokens":256}`))
	result := f.Dispatch(ctx, "execute_agent_async", json.RawMessage(`{"agentId":"a1","prompt":"hello"}`))
	require.False(t, result.IsError)

	var started map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &started))
	handleID, ok := started["handleId"].(string)
	require.True(t, ok)

	waitResult := f.Dispatch(ctx, "wait_for", json.RawMessage(`{"handleId":"`+handleID+`"}`))
	require.False(t, waitResult.IsError)
	var waited map[string]any
	require.NoError(t, json.Unmarshal([]byte(waitResult.Content[0].Text), &waited))
	assert.Equal(t, "completed", waited["status"])
}

func TestAgentTeamsLinearMode(t *testing.T) {
	f, _ := newTestFrontend(t)
	ctx := context.Background()

	result := f.Dispatch(ctx, "agent_teams", json.RawMessage(`{
		"agents": [{"id":"a"},{"id":"b"}],
		"task": "plan a launch",
		"mode": "linear",
		"maxRounds": 1,
		"verbose": true
	}`))
	require.False(t, result.IsError)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &got))
	assert.Equal(t, "linear", got["mode"])
}

func TestCreateSkillListFiltersAndCompose(t *testing.T) {
	f, _ := newTestFrontend(t)
	ctx := context.Background()

	r := f.Dispatch(ctx, "create_skill", json.RawMessage(`{"id":"s1","name":"Skill One","metadata":{"category":"ops"}}`))
	require.False(t, r.IsError)
	r = f.Dispatch(ctx, "create_skill", json.RawMessage(`{"id":"s2","name":"Skill Two","metadata":{"category":"dev"}}`))
	require.False(t, r.IsError)

	r = f.Dispatch(ctx, "list_skills", json.RawMessage(`{"category":"ops"}`))
	require.False(t, r.IsError)
	var list []map[string]any
	require.NoError(t, json.Unmarshal([]byte(r.Content[0].Text), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "s1", list[0]["id"])

	r = f.Dispatch(ctx, "compose_skills", json.RawMessage(`{"skillIds":["s1","s2"]}`))
	require.False(t, r.IsError)
}
