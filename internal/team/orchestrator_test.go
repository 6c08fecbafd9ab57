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

package team

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentcore/core/internal/agentregistry"
	"github.com/agentcore/core/internal/config"
	"github.com/agentcore/core/internal/model"
	"github.com/agentcore/core/internal/sampler"
	"github.com/agentcore/core/internal/waithandle"
)

// delayedSampler echoes the prompt back with a configurable artificial
// latency, used to exercise ordering and timeout behavior.
type delayedSampler struct {
	delay time.Duration
	calls int32
	mu    sync.Mutex
}

func (s *delayedSampler) Sample(ctx context.Context, req sampler.Request) (sampler.Response, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return sampler.Response{}, ctx.Err()
		}
	}
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	last := req.Messages[len(req.Messages)-1].Content
	return sampler.Response{Content: "reply to: " + last, Model: req.Model, FinishReason: "stop"}, nil
}

func newOrchestrator(smp sampler.Sampler) *Orchestrator {
	return New(agentregistry.New(), smp, config.SamplingDefaults{Model: "default", Temperature: 0.7, MaxTokens: 100, TopP: 1}, nil)
}

func agentSpecs(ids ...string) []model.InlineAgentSpec {
	out := make([]model.InlineAgentSpec, len(ids))
	for i, id := range ids {
		out[i] = model.InlineAgentSpec{ID: id, Role: id}
	}
	return out
}

// TestParallelOrderingIndependentOfLatency grounds P7/S4: agent "c"
// finishes first but must still be reported last.
func TestParallelOrderingIndependentOfLatency(t *testing.T) {
	smp := &latencyByRoleSampler{delays: map[string]time.Duration{
		"a": 30 * time.Millisecond,
		"b": 15 * time.Millisecond,
		"c": 1 * time.Millisecond,
	}}
	o := newOrchestrator(smp)

	result, err := o.Run(context.Background(), Input{
		Agents: agentSpecs("a", "b", "c"),
		Task:   "T",
		Mode:   model.ModeParallel,
		Verbose: true,
	})
	require.NoError(t, err)
	require.Len(t, result.Results, 3)

	var roles []string
	for _, r := range result.Results {
		roles = append(roles, r.(map[string]any)["role"].(string))
	}
	assert.Equal(t, []string{"a", "b", "c"}, roles)
	assert.Equal(t, 1, result.CompletedRounds)
}

type latencyByRoleSampler struct{ delays map[string]time.Duration }

func (s *latencyByRoleSampler) Sample(ctx context.Context, req sampler.Request) (sampler.Response, error) {
	content := req.Messages[len(req.Messages)-1].Content
	for role, d := range s.delays {
		if strings.Contains(content, "Role: "+role) {
			time.Sleep(d)
			return sampler.Response{Content: "contribution from " + role, Model: req.Model, FinishReason: "stop"}, nil
		}
	}
	return sampler.Response{Content: "contribution", FinishReason: "stop"}, nil
}

func TestLinearAppendsContextAndStopsOnCondition(t *testing.T) {
	smp := &fixedContentSampler{content: "this contains error"}
	o := newOrchestrator(smp)

	result, err := o.Run(context.Background(), Input{
		Agents:    agentSpecs("a", "b"),
		Task:      "T",
		Mode:      model.ModeLinear,
		MaxRounds: 3,
		Conditions: []model.Condition{
			{Check: "error", Action: model.ActionStop},
		},
		Verbose: true,
	})
	require.NoError(t, err)
	assert.True(t, result.StoppedEarly)
	assert.Len(t, result.Results, 1)
}

type fixedContentSampler struct{ content string }

func (s *fixedContentSampler) Sample(ctx context.Context, req sampler.Request) (sampler.Response, error) {
	return sampler.Response{Content: s.content, FinishReason: "stop"}, nil
}

func TestRoundsModeTagsContributions(t *testing.T) {
	var captured []string
	smp := &capturingSampler{capture: &captured}
	o := newOrchestrator(smp)

	_, err := o.Run(context.Background(), Input{
		Agents:    agentSpecs("a"),
		Task:      "T",
		Mode:      model.ModeRounds,
		MaxRounds: 2,
	})
	require.NoError(t, err)

	require.Len(t, captured, 2)
	assert.Contains(t, captured[1], "[Round 0] a:")
}

type capturingSampler struct{ capture *[]string }

func (s *capturingSampler) Sample(ctx context.Context, req sampler.Request) (sampler.Response, error) {
	*s.capture = append(*s.capture, req.Messages[len(req.Messages)-1].Content)
	return sampler.Response{Content: "ok", FinishReason: "stop"}, nil
}

func TestIntelligentModeParsesSelectionIndices(t *testing.T) {
	smp := &intelligentTestSampler{}
	o := newOrchestrator(smp)

	result, err := o.Run(context.Background(), Input{
		Agents:               agentSpecs("a", "b", "c"),
		Task:                 "T",
		Mode:                 model.ModeIntelligent,
		MaxRounds:             1,
		IntelligentSelection: &model.IntelligentSelection{PoolSize: 2, Criteria: "relevance"},
		Verbose:               true,
	})
	require.NoError(t, err)
	require.Len(t, result.Results, 2)
}

type intelligentTestSampler struct{ round int }

func (s *intelligentTestSampler) Sample(ctx context.Context, req sampler.Request) (sampler.Response, error) {
	content := req.Messages[len(req.Messages)-1].Content
	if strings.Contains(content, "Respond with the selected agent indices") {
		return sampler.Response{Content: "I'd pick 0 and 2"}, nil
	}
	return sampler.Response{Content: "ok", FinishReason: "stop"}, nil
}

// TestAsyncContinuablePreservesPartialResults grounds P8/S5.
func TestAsyncContinuablePreservesPartialResults(t *testing.T) {
	smp := &delayedSampler{delay: 50 * time.Millisecond}
	o := newOrchestrator(smp)
	handles := waithandle.New()

	timeoutMs := int64(120)
	handle := o.AsyncRun(context.Background(), Input{
		Agents:    agentSpecs("a", "b", "c"),
		Task:      "T",
		Mode:      model.ModeLinear,
		MaxRounds: 3,
		Verbose:   true,
	}, handles, &timeoutMs, true)

	got, err := handles.Wait(handle.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, model.WaitCompleted, got.Status)

	payload, ok := got.Result.(model.TeamResult)
	require.True(t, ok)
	assert.True(t, payload.Interrupted)
	assert.False(t, payload.StoppedEarly)
	assert.GreaterOrEqual(t, payload.CompletedRounds, 0)
	assert.LessOrEqual(t, payload.CompletedRounds, 3)
}

func TestAsyncNonContinuableFailsOnTimeout(t *testing.T) {
	smp := &delayedSampler{delay: 200 * time.Millisecond}
	o := newOrchestrator(smp)
	handles := waithandle.New()

	timeoutMs := int64(20)
	handle := o.AsyncRun(context.Background(), Input{
		Agents: agentSpecs("a"),
		Task:   "T",
		Mode:   model.ModeLinear,
	}, handles, &timeoutMs, false)

	// The sampler takes 200ms, so the 20ms deadline fires first; for a
	// non-continuable handle the registry fails it on deadline (see
	// waithandle.Registry.onDeadline).
	time.Sleep(40 * time.Millisecond)
	got, err := handles.Lookup(handle.ID)
	require.NoError(t, err)
	assert.Equal(t, model.WaitFailed, got.Status)
}
