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

// Package budget implements the Budget & Usage Subsystem (spec §4.4):
// per-agent token/cost/call budgets checked in order before every
// sampling call, a sliding-window rate limiter, and post-hoc usage
// accounting. The Store abstraction and its in-memory/SQL
// implementations generalize the teacher repository's rate-limit store
// from per-session LLM throttling to per-agent budget+rate-limit
// accounting (see SPEC_FULL.md's domain stack table).
package budget

import (
	"context"
	"sync"
	"time"

	"github.com/agentcore/core/internal/model"
)

// usageKey identifies one counter: an agent, a dimension, a window.
type usageKey struct {
	AgentID   string
	Dimension model.BudgetDimension
	Window    model.BudgetWindow
}

// Store is the persistence layer for budget counters (spec §6.2's
// "Budget store" collaborator).
type Store interface {
	// GetUsage returns the current accumulated amount and the window's
	// end time. A window that has already ended is reported as 0/new.
	GetUsage(ctx context.Context, agentID string, dim model.BudgetDimension, window model.BudgetWindow) (float64, time.Time, error)

	// IncrementUsage adds amount to the counter, rolling the window over
	// if it has expired.
	IncrementUsage(ctx context.Context, agentID string, dim model.BudgetDimension, window model.BudgetWindow, amount float64) error

	// GetCallWindow returns the call timestamps still inside the current
	// rate-limit period for agentID.
	GetCallWindow(ctx context.Context, agentID string, period time.Duration) ([]time.Time, error)

	// RecordCall appends a call timestamp to the rate-limit window.
	RecordCall(ctx context.Context, agentID string, at time.Time) error

	// Reset clears every counter for agentID. Used by tests.
	Reset(ctx context.Context, agentID string) error

	Close() error
}

// MemoryStore is a process-local Store, the default backend
// (RATE_LIMIT_BACKEND=memory).
type MemoryStore struct {
	mu      sync.Mutex
	usage   map[usageKey]usageRecord
	calls   map[string][]time.Time
}

type usageRecord struct {
	Amount    float64
	WindowEnd time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		usage: make(map[usageKey]usageRecord),
		calls: make(map[string][]time.Time),
	}
}

func (s *MemoryStore) GetUsage(_ context.Context, agentID string, dim model.BudgetDimension, window model.BudgetWindow) (float64, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := usageKey{AgentID: agentID, Dimension: dim, Window: window}
	rec, ok := s.usage[key]
	now := time.Now()
	if !ok || (window != model.WindowTotal && rec.WindowEnd.Before(now)) {
		return 0, now.Add(window.Duration()), nil
	}
	return rec.Amount, rec.WindowEnd, nil
}

func (s *MemoryStore) IncrementUsage(_ context.Context, agentID string, dim model.BudgetDimension, window model.BudgetWindow, amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := usageKey{AgentID: agentID, Dimension: dim, Window: window}
	rec, ok := s.usage[key]
	now := time.Now()
	if !ok || (window != model.WindowTotal && rec.WindowEnd.Before(now)) {
		rec = usageRecord{Amount: 0, WindowEnd: now.Add(window.Duration())}
	}
	rec.Amount += amount
	s.usage[key] = rec
	return nil
}

func (s *MemoryStore) GetCallWindow(_ context.Context, agentID string, period time.Duration) ([]time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-period)
	calls := s.calls[agentID]
	kept := calls[:0:0]
	for _, t := range calls {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	s.calls[agentID] = kept
	out := make([]time.Time, len(kept))
	copy(out, kept)
	return out, nil
}

func (s *MemoryStore) RecordCall(_ context.Context, agentID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[agentID] = append(s.calls[agentID], at)
	return nil
}

func (s *MemoryStore) Reset(_ context.Context, agentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.usage {
		if key.AgentID == agentID {
			delete(s.usage, key)
		}
	}
	delete(s.calls, agentID)
	return nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
