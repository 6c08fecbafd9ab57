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

package budget

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentcore/core/internal/errs"
	"github.com/agentcore/core/internal/model"
)

func TestPrecheckAllowsUnbudgetedAgent(t *testing.T) {
	m := NewManager(NewMemoryStore(), nil)
	err := m.Precheck(context.Background(), "ghost", "default", 100, 200)
	require.NoError(t, err)
}

// TestPrecheckTokenBudgetExceeded grounds scenario S2: a token budget
// refusal must surface as a BudgetError and leave no usage recorded (P6).
func TestPrecheckTokenBudgetExceeded(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store, nil)
	m.SetBudget(model.AgentBudget{
		AgentID: "a1",
		Limits: []model.BudgetLimit{
			{Dimension: model.DimensionTokens, Window: model.WindowTotal, Limit: 100},
		},
	})

	err := m.Precheck(context.Background(), "a1", "default", 80, 80)
	require.Error(t, err)
	var budgetErr *errs.BudgetError
	require.ErrorAs(t, err, &budgetErr)
	assert.Equal(t, "tokens", budgetErr.Dimension)

	used, getErr := m.Usage(context.Background(), "a1", model.DimensionTokens, model.WindowTotal)
	require.NoError(t, getErr)
	assert.Zero(t, used, "a refused precheck must not record any usage")
}

func TestRecordAccumulatesAcrossCalls(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store, nil)
	m.SetBudget(model.AgentBudget{
		AgentID: "a1",
		Limits: []model.BudgetLimit{
			{Dimension: model.DimensionTokens, Window: model.WindowTotal, Limit: 1000},
		},
	})

	ctx := context.Background()
	require.NoError(t, m.Precheck(ctx, "a1", "default", 50, 50))
	require.NoError(t, m.Record(ctx, "a1", "default", 50, 50, time.Now()))

	used, err := m.Usage(ctx, "a1", model.DimensionTokens, model.WindowTotal)
	require.NoError(t, err)
	assert.Equal(t, float64(100), used)

	require.NoError(t, m.Precheck(ctx, "a1", "default", 50, 50))
	require.NoError(t, m.Record(ctx, "a1", "default", 50, 50, time.Now()))

	used, err = m.Usage(ctx, "a1", model.DimensionTokens, model.WindowTotal)
	require.NoError(t, err)
	assert.Equal(t, float64(200), used)
}

func TestCostBudgetUsesCostFunc(t *testing.T) {
	store := NewMemoryStore()
	flatCost := func(modelName string, prompt, completion int) float64 { return 1.0 }
	m := NewManager(store, flatCost)
	m.SetBudget(model.AgentBudget{
		AgentID: "a1",
		Limits: []model.BudgetLimit{
			{Dimension: model.DimensionCost, Window: model.WindowTotal, Limit: 0.5},
		},
	})

	err := m.Precheck(context.Background(), "a1", "default", 10, 10)
	require.Error(t, err)
	var budgetErr *errs.BudgetError
	require.ErrorAs(t, err, &budgetErr)
	assert.Equal(t, "cost", budgetErr.Dimension)
}

func TestRateLimitExceeded(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store, nil)
	m.SetBudget(model.AgentBudget{
		AgentID:   "a1",
		RateLimit: &model.RateLimitRule{Calls: 1, Period: time.Minute},
	})

	ctx := context.Background()
	require.NoError(t, m.Precheck(ctx, "a1", "default", 10, 10))
	require.NoError(t, m.RecordCall(ctx, "a1", time.Now()))
	require.NoError(t, m.Record(ctx, "a1", "default", 10, 10, time.Now()))

	err := m.Precheck(ctx, "a1", "default", 10, 10)
	require.Error(t, err)
	var rlErr *errs.RateLimitError
	require.ErrorAs(t, err, &rlErr)
}

func TestResetClearsExhaustedCallsWindow(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store, nil)
	m.SetBudget(model.AgentBudget{
		AgentID: "a1",
		Limits: []model.BudgetLimit{
			{Dimension: model.DimensionCalls, Window: model.WindowMinute, Limit: 1},
		},
	})

	ctx := context.Background()
	require.NoError(t, m.Precheck(ctx, "a1", "default", 1, 1))
	require.NoError(t, m.Record(ctx, "a1", "default", 1, 1, time.Now()))

	err := m.Precheck(ctx, "a1", "default", 1, 1)
	require.Error(t, err)

	require.NoError(t, m.Reset(ctx, "a1"))
	require.NoError(t, m.Precheck(ctx, "a1", "default", 1, 1))
}
