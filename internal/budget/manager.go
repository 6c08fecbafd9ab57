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
	"fmt"
	"time"

	"github.com/agentcore/core/internal/errs"
	"github.com/agentcore/core/internal/model"
)

// CostFunc prices a sample call given its token counts. The default table
// lives in internal/sampler; the manager is handed one at construction so
// the pricing concern stays out of the budget package itself.
type CostFunc func(model string, promptTokens, completionTokens int) float64

// Manager enforces per-agent budgets and a sliding-window rate limit
// before every sample call, then records the actual usage afterwards
// (spec §4.4). Checks run in a fixed order — tokens, then cost, then
// calls, then the rate limit — and the first violation wins (P6: a
// refused call must not leave a partial usage trace).
type Manager struct {
	store    Store
	budgets  map[string]model.AgentBudget
	costFunc CostFunc
}

// NewManager builds a Manager over store. costFunc may be nil, in which
// case cost-dimension checks always pass (no pricing table configured).
func NewManager(store Store, costFunc CostFunc) *Manager {
	return &Manager{
		store:    store,
		budgets:  make(map[string]model.AgentBudget),
		costFunc: costFunc,
	}
}

// SetBudget installs or replaces the budget configuration for an agent.
func (m *Manager) SetBudget(b model.AgentBudget) {
	m.budgets[b.AgentID] = b
}

// GetBudget returns the configured budget for an agent, if any.
func (m *Manager) GetBudget(agentID string) (model.AgentBudget, bool) {
	b, ok := m.budgets[agentID]
	return b, ok
}

// Precheck estimates the cost of a call of the given token counts and
// verifies every configured limit still has headroom, without consuming
// any of it. It is the gate a caller runs before invoking the sampler.
// On refusal it returns an *errs.BudgetError or *errs.RateLimitError and
// performs no writes (P6).
func (m *Manager) Precheck(ctx context.Context, agentID, modelName string, estPromptTokens, estCompletionTokens int) error {
	budget, ok := m.budgets[agentID]
	if !ok {
		return m.checkRateLimit(ctx, agentID, nil)
	}

	estTokens := float64(estPromptTokens + estCompletionTokens)
	estCost := 0.0
	if m.costFunc != nil {
		estCost = m.costFunc(modelName, estPromptTokens, estCompletionTokens)
	}

	ordered := make([]model.BudgetLimit, 0, len(budget.Limits))
	for _, dim := range []model.BudgetDimension{model.DimensionTokens, model.DimensionCost, model.DimensionCalls} {
		for _, limit := range budget.Limits {
			if limit.Dimension == dim {
				ordered = append(ordered, limit)
			}
		}
	}

	for _, limit := range ordered {
		var projected float64
		switch limit.Dimension {
		case model.DimensionTokens:
			projected = estTokens
		case model.DimensionCost:
			projected = estCost
		case model.DimensionCalls:
			projected = 1
		default:
			continue
		}

		current, _, err := m.store.GetUsage(ctx, agentID, limit.Dimension, limit.Window)
		if err != nil {
			return fmt.Errorf("budget: checking %s/%s: %w", limit.Dimension, limit.Window, err)
		}
		if current+projected > limit.Limit {
			return &errs.BudgetError{
				Dimension: string(limit.Dimension),
				Reason: fmt.Sprintf("%s budget exceeded for window %q: %.2f + %.2f > %.2f",
					limit.Dimension, limit.Window, current, projected, limit.Limit),
			}
		}
	}

	return m.checkRateLimit(ctx, agentID, budget.RateLimit)
}

func (m *Manager) checkRateLimit(ctx context.Context, agentID string, rule *model.RateLimitRule) error {
	if rule == nil {
		return nil
	}
	calls, err := m.store.GetCallWindow(ctx, agentID, rule.Period)
	if err != nil {
		return fmt.Errorf("budget: checking rate limit: %w", err)
	}
	if len(calls) >= rule.Calls {
		retryAfter := rule.Period - time.Since(calls[0])
		if retryAfter < 0 {
			retryAfter = 0
		}
		return &errs.RateLimitError{
			RetryAfter: retryAfter,
			Reason:     fmt.Sprintf("rate limit exceeded: %d calls per %s", rule.Calls, rule.Period),
		}
	}
	return nil
}

// RecordCall appends a rate-limit call timestamp for agentID. Spec §4.4
// calls for this to happen before sampling, as soon as Precheck grants
// the call, so a rate limit window reflects in-flight calls rather than
// only ones that have already returned.
func (m *Manager) RecordCall(ctx context.Context, agentID string, at time.Time) error {
	if err := m.store.RecordCall(ctx, agentID, at); err != nil {
		return fmt.Errorf("budget: recording call: %w", err)
	}
	return nil
}

// Record consumes the budget for a completed call: it increments every
// configured window for every dimension with the sampler's actual usage.
// Called only after a sample returns — Precheck already vetted headroom,
// so Record itself never refuses. It does not touch the rate-limit call
// window; RecordCall handles that ahead of sampling.
func (m *Manager) Record(ctx context.Context, agentID, modelName string, promptTokens, completionTokens int, at time.Time) error {
	budget, ok := m.budgets[agentID]
	if !ok {
		return nil
	}

	tokens := float64(promptTokens + completionTokens)
	cost := 0.0
	if m.costFunc != nil {
		cost = m.costFunc(modelName, promptTokens, completionTokens)
	}

	for _, limit := range budget.Limits {
		var amount float64
		switch limit.Dimension {
		case model.DimensionTokens:
			amount = tokens
		case model.DimensionCost:
			amount = cost
		case model.DimensionCalls:
			amount = 1
		default:
			continue
		}
		if err := m.store.IncrementUsage(ctx, agentID, limit.Dimension, limit.Window, amount); err != nil {
			return fmt.Errorf("budget: recording %s/%s: %w", limit.Dimension, limit.Window, err)
		}
	}
	return nil
}

// Usage reports the current accumulated amount for one dimension/window,
// for introspection tools (a supplemented feature — see SPEC_FULL.md).
func (m *Manager) Usage(ctx context.Context, agentID string, dim model.BudgetDimension, window model.BudgetWindow) (float64, error) {
	amount, _, err := m.store.GetUsage(ctx, agentID, dim, window)
	return amount, err
}

// Reset clears all recorded usage and call history for an agent.
func (m *Manager) Reset(ctx context.Context, agentID string) error {
	return m.store.Reset(ctx, agentID)
}
