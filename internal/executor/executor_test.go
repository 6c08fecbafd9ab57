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

package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentcore/core/internal/budget"
	"github.com/agentcore/core/internal/errs"
	"github.com/agentcore/core/internal/model"
	"github.com/agentcore/core/internal/sampler"
	"github.com/agentcore/core/internal/skills"
	"github.com/agentcore/core/internal/toolkit"
	"github.com/agentcore/core/internal/usage"
)

func newTestExecutor(t *testing.T) (*Executor, *budget.Manager, *usage.Log) {
	t.Helper()
	sk, err := skills.New(t.TempDir(), toolkit.NewStaticRegistry(nil))
	require.NoError(t, err)
	bm := budget.NewManager(budget.NewMemoryStore(), sampler.DefaultCost)
	ul := usage.NewLog()
	ex := New(&sampler.EchoSampler{}, sk, bm, ul, nil)
	return ex, bm, ul
}

func TestRunReturnsFullRecordWhenVerbose(t *testing.T) {
	ex, _, _ := newTestExecutor(t)
	resolved := model.ResolvedAgent{ID: "a1", Role: "Researcher", Model: "default", MaxTokens: 100}

	out, err := ex.Run(context.Background(), resolved, Input{AgentID: "a1", Prompt: "hello", Verbose: true})
	require.NoError(t, err)
	assert.Equal(t, "a1", out["agentId"])
	assert.Contains(t, out["response"], "Acknowledged: hello")
	assert.Contains(t, out, "usage")
}

func TestRunAppliesTerseProjectionByDefault(t *testing.T) {
	ex, _, _ := newTestExecutor(t)
	resolved := model.ResolvedAgent{ID: "a1", Role: "Researcher", Model: "default", MaxTokens: 100}

	out, err := ex.Run(context.Background(), resolved, Input{AgentID: "a1", Prompt: "hello"})
	require.NoError(t, err)
	assert.Contains(t, out, "contribution")
	assert.NotContains(t, out, "usage")
}

func TestRunHonorsOutputFields(t *testing.T) {
	ex, _, _ := newTestExecutor(t)
	resolved := model.ResolvedAgent{ID: "a1", Role: "Researcher", Model: "default", MaxTokens: 100}

	out, err := ex.Run(context.Background(), resolved, Input{
		AgentID: "a1", Prompt: "hello", OutputFields: []string{"response"},
	})
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Contains(t, out, "response")
}

func TestRunRecordsUsageEvent(t *testing.T) {
	ex, _, ul := newTestExecutor(t)
	resolved := model.ResolvedAgent{ID: "a1", Role: "Researcher", Model: "default", MaxTokens: 100}

	_, err := ex.Run(context.Background(), resolved, Input{AgentID: "a1", Prompt: "hello"})
	require.NoError(t, err)

	events := ul.ForAgent("a1")
	require.Len(t, events, 1)
	assert.True(t, events[0].Success)
}

// TestRunRefusesOnBudgetExceeded grounds scenario S2.
func TestRunRefusesOnBudgetExceeded(t *testing.T) {
	ex, bm, ul := newTestExecutor(t)
	bm.SetBudget(model.AgentBudget{
		AgentID: "a1",
		Limits: []model.BudgetLimit{
			{Dimension: model.DimensionTokens, Window: model.WindowTotal, Limit: 1},
		},
	})
	resolved := model.ResolvedAgent{ID: "a1", Role: "Researcher", Model: "default", MaxTokens: 100}

	_, err := ex.Run(context.Background(), resolved, Input{AgentID: "a1", Prompt: "hello"})
	require.Error(t, err)
	var budgetErr *errs.BudgetError
	require.ErrorAs(t, err, &budgetErr)

	events := ul.ForAgent("a1")
	require.Len(t, events, 1)
	assert.False(t, events[0].Success)
	assert.Zero(t, events[0].TotalTokens)
}

func TestRunComposesSkillsIntoMessages(t *testing.T) {
	sk, err := skills.New(t.TempDir(), toolkit.NewStaticRegistry(nil))
	require.NoError(t, err)
	_, err = sk.Create(context.Background(), "s1", "S1", "", model.SkillConfig{
		Instructions: model.Instructions{Overview: "Be concise."},
		SystemPrompt: "You are terse.",
	}, model.SkillMetadata{})
	require.NoError(t, err)

	bm := budget.NewManager(budget.NewMemoryStore(), nil)
	echo := &sampler.EchoSampler{}
	ex := New(echo, sk, bm, usage.NewLog(), nil)

	resolved := model.ResolvedAgent{ID: "a1", Model: "default", MaxTokens: 100}
	out, err := ex.Run(context.Background(), resolved, Input{
		AgentID: "a1", Prompt: "hello", Skills: []string{"s1"}, Verbose: true,
	})
	require.NoError(t, err)
	assert.Contains(t, out["skillsUsed"], "s1")
}
