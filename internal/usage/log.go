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

// Package usage is the append-only UsageEvent ledger (spec §3
// "UsageEvent"): every agent execution, success or failure, is recorded
// once; per-agent and per-model aggregates are derived on demand rather
// than maintained incrementally.
package usage

import (
	"sync"

	"github.com/agentcore/core/internal/model"
)

// Log is a process-local, mutex-guarded append-only event store.
type Log struct {
	mu     sync.Mutex
	events []model.UsageEvent
}

// NewLog creates an empty usage log.
func NewLog() *Log {
	return &Log{}
}

// Record appends one usage event. Recording never fails (spec §4.4:
// "failing to record a usage event must never fail the tool call") —
// callers that want failure visibility should check the return channel
// of whatever sink backs Record in a persistent deployment; the
// in-memory Log simply cannot fail.
func (l *Log) Record(e model.UsageEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

// ForAgent returns every recorded event for one agent, oldest first.
func (l *Log) ForAgent(agentID string) []model.UsageEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []model.UsageEvent
	for _, e := range l.events {
		if e.AgentID == agentID {
			out = append(out, e)
		}
	}
	return out
}

// AgentTotals is the derived per-agent aggregate.
type AgentTotals struct {
	AgentID          string
	Calls            int
	Failures         int
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Cost             float64
}

// TotalsForAgent computes the derived aggregate for one agent on demand.
func (l *Log) TotalsForAgent(agentID string) AgentTotals {
	l.mu.Lock()
	defer l.mu.Unlock()

	t := AgentTotals{AgentID: agentID}
	for _, e := range l.events {
		if e.AgentID != agentID {
			continue
		}
		t.Calls++
		if !e.Success {
			t.Failures++
		}
		t.PromptTokens += e.PromptTokens
		t.CompletionTokens += e.CompletionTokens
		t.TotalTokens += e.TotalTokens
		t.Cost += e.Cost
	}
	return t
}

// TotalsByModel computes the derived aggregate per model across every
// recorded event.
func (l *Log) TotalsByModel() map[string]AgentTotals {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]AgentTotals)
	for _, e := range l.events {
		t := out[e.Model]
		t.AgentID = e.Model // reused as the grouping key for this view
		t.Calls++
		if !e.Success {
			t.Failures++
		}
		t.PromptTokens += e.PromptTokens
		t.CompletionTokens += e.CompletionTokens
		t.TotalTokens += e.TotalTokens
		t.Cost += e.Cost
		out[e.Model] = t
	}
	return out
}
