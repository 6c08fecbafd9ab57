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

// Package team implements the Team Orchestrator (spec §4.8): the four
// scheduling modes (linear, parallel, rounds, intelligent), condition
// evaluation, and timeout-safe partial-result preservation for the
// async entry point.
package team

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agentcore/core/internal/agentregistry"
	"github.com/agentcore/core/internal/config"
	"github.com/agentcore/core/internal/metrics"
	"github.com/agentcore/core/internal/model"
	"github.com/agentcore/core/internal/sampler"
)

// errTimeoutContinue is the distinguished signal executeAgent raises
// when it observes the deadline flag tripped (spec §4.8 "Timeout
// handling"). It never escapes the orchestrator.
var errTimeoutContinue = errors.New("team: timeout continue")

// Input is a validated agent_teams/agent_teams_async call.
type Input struct {
	Agents               []model.InlineAgentSpec
	Task                 string
	Mode                 model.TeamMode
	MaxRounds            int
	IntelligentSelection *model.IntelligentSelection
	Conditions           []model.Condition
	OutputFields         []string
	Verbose              bool
	Model                string
	ForceModel           bool
}

// Orchestrator runs multi-agent collaborations over a resolved agent
// pool (spec §4.8).
type Orchestrator struct {
	agents   *agentregistry.Registry
	sampler  sampler.Sampler
	defaults config.SamplingDefaults
	metrics  *metrics.Metrics
}

// New wires an Orchestrator from its collaborators.
func New(agents *agentregistry.Registry, smp sampler.Sampler, defaults config.SamplingDefaults, m *metrics.Metrics) *Orchestrator {
	return &Orchestrator{agents: agents, sampler: smp, defaults: defaults, metrics: m}
}

// timedOutFunc reports whether the current run's deadline has already
// fired. The synchronous entry point always passes a func returning
// false; Async binds it to a wait handle's TimedOut flag.
type timedOutFunc func() bool

func neverTimedOut() bool { return false }

// Run executes in.Agents over in.Task under the requested mode and
// returns the final shaped payload (spec §4.8 "Output shaping").
func (o *Orchestrator) Run(ctx context.Context, in Input) (model.TeamResult, error) {
	return o.run(ctx, in, neverTimedOut)
}

func (o *Orchestrator) run(ctx context.Context, in Input, timedOut timedOutFunc) (model.TeamResult, error) {
	start := time.Now()
	resolved := make([]model.ResolvedAgent, 0, len(in.Agents))
	participants := make([]string, 0, len(in.Agents))
	for _, spec := range in.Agents {
		r := o.agents.Resolve(spec, o.defaults)
		if in.ForceModel {
			r.Model = ""
		} else if in.Model != "" && spec.Model == "" {
			r.Model = in.Model
		}
		resolved = append(resolved, r)
		participants = append(participants, r.ID)
	}

	maxRounds := in.MaxRounds
	if maxRounds <= 0 {
		maxRounds = 1
	}

	var (
		results         []model.ContributionResult
		completedRounds int
		interrupted     bool
		stoppedEarly    bool
		err             error
	)

	switch in.Mode {
	case model.ModeParallel:
		results, err = o.runParallel(ctx, resolved, in.Task)
		completedRounds = 1
	case model.ModeRounds:
		results, completedRounds, interrupted, stoppedEarly, err = o.runSequential(ctx, resolved, in, maxRounds, timedOut, true)
	case model.ModeIntelligent:
		results, completedRounds, interrupted, stoppedEarly, err = o.runIntelligent(ctx, resolved, in, maxRounds, timedOut)
	default: // linear
		results, completedRounds, interrupted, stoppedEarly, err = o.runSequential(ctx, resolved, in, maxRounds, timedOut, false)
	}

	if err != nil {
		return model.TeamResult{}, err
	}

	if o.metrics != nil {
		o.metrics.ObserveTeamRun(string(in.Mode), time.Since(start))
	}

	anyResults := make([]any, len(results))
	for i, r := range results {
		anyResults[i] = shapeContribution(r, in.OutputFields, in.Verbose)
	}

	return model.TeamResult{
		Task:               in.Task,
		Mode:               in.Mode,
		Rounds:             maxRounds,
		CompletedRounds:    completedRounds,
		Participants:       participants,
		TotalContributions: len(results),
		Results:            anyResults,
		StoppedEarly:       stoppedEarly,
		Interrupted:        interrupted,
		Continuable:        interrupted,
		Timestamp:          start.UTC().Format(time.RFC3339Nano),
	}, nil
}

// executeAgent builds the shared per-agent prompt, invokes the sampler,
// and returns one contribution (spec §4.8, paragraph 2).
func (o *Orchestrator) executeAgent(ctx context.Context, agent model.ResolvedAgent, runningContext string, round int, timedOut timedOutFunc, forceModel bool) (model.ContributionResult, error) {
	if timedOut() {
		return model.ContributionResult{}, errTimeoutContinue
	}

	prompt := fmt.Sprintf("Role: %s\nTask: %s\nProvide your contribution:", agent.Role, runningContext)

	var messages []sampler.Message
	if agent.SystemPrompt != "" {
		messages = append(messages, sampler.Message{Role: "system", Content: agent.SystemPrompt})
	}
	messages = append(messages, sampler.Message{Role: "user", Content: prompt})

	modelName := agent.Model
	if forceModel {
		modelName = ""
	}

	resp, err := o.sampler.Sample(ctx, sampler.Request{
		Messages:    messages,
		Model:       modelName,
		Temperature: agent.Temperature,
		MaxTokens:   agent.MaxTokens,
		TopP:        agent.TopP,
	})
	if err != nil {
		return model.ContributionResult{}, err
	}

	return model.ContributionResult{
		Round:        round,
		AgentID:      agent.ID,
		Role:         agent.Role,
		Contribution: resp.Content,
		Model:        resp.Model,
		Usage:        resp.Usage,
		FinishReason: resp.FinishReason,
	}, nil
}

// runParallel executes every resolved agent concurrently, preserving
// resolved-agent-list ordering in the output regardless of completion
// order (P7). Conditions are not evaluated in this mode.
func (o *Orchestrator) runParallel(ctx context.Context, resolved []model.ResolvedAgent, task string) ([]model.ContributionResult, error) {
	out := make([]model.ContributionResult, len(resolved))
	g, gctx := errgroup.WithContext(ctx)
	for i, agent := range resolved {
		i, agent := i, agent
		g.Go(func() error {
			r, err := o.executeAgent(gctx, agent, task, 0, neverTimedOut, false)
			if err != nil {
				return fmt.Errorf("team: agent %q: %w", agent.ID, err)
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// runSequential implements both LINEAR and ROUNDS modes, which share
// everything but the context-append tag format and whether conditions
// gate on more than `stop`.
func (o *Orchestrator) runSequential(ctx context.Context, resolved []model.ResolvedAgent, in Input, maxRounds int, timedOut timedOutFunc, roundsMode bool) ([]model.ContributionResult, int, bool, bool, error) {
	var results []model.ContributionResult
	runningContext := in.Task
	completedRounds := 0
	stoppedEarly := false

	for round := 0; round < maxRounds; round++ {
		interruptedThisRound := false

		for _, agent := range resolved {
			r, err := o.executeAgent(ctx, agent, runningContext, round, timedOut, in.ForceModel)
			if errors.Is(err, errTimeoutContinue) {
				interruptedThisRound = true
				break
			}
			if err != nil {
				return results, completedRounds, false, stoppedEarly, fmt.Errorf("team: agent %q: %w", agent.ID, err)
			}
			results = append(results, r)
			runningContext += formatAppend(r, roundsMode, round)

			stop, branchAgent := o.evaluateConditions(in.Conditions, runningContext, r, resolved)
			if branchAgent != nil && !roundsMode {
				br, err := o.executeAgent(ctx, *branchAgent, runningContext, round, timedOut, in.ForceModel)
				if err == nil {
					results = append(results, br)
					runningContext += formatAppend(br, roundsMode, round)
				}
			}
			if stop {
				stoppedEarly = true
				break
			}
		}

		if interruptedThisRound {
			return results, completedRounds, true, stoppedEarly, nil
		}
		completedRounds++
		if stoppedEarly {
			break
		}
	}

	return results, completedRounds, false, stoppedEarly, nil
}

func formatAppend(r model.ContributionResult, roundsMode bool, round int) string {
	if roundsMode {
		return fmt.Sprintf("\n\n[Round %d] %s: %s", round, r.Role, r.Contribution)
	}
	return fmt.Sprintf("\n\n%s says: %s", r.Role, r.Contribution)
}

// evaluateConditions runs every condition in order. A "stop" wins
// immediately; a "branch" executes the named agent once more; "repeat"
// re-executes the current agent once; "continue" is a no-op. Branch and
// repeat both come back as the agent to execute; in ROUNDS mode the
// caller acts on stop only.
func (o *Orchestrator) evaluateConditions(conditions []model.Condition, runningContext string, latest model.ContributionResult, pool []model.ResolvedAgent) (stop bool, branch *model.ResolvedAgent) {
	for _, cond := range conditions {
		if !evaluate(cond, runningContext, latest) {
			continue
		}
		switch cond.Action {
		case model.ActionStop:
			return true, nil
		case model.ActionBranch:
			for _, a := range pool {
				if a.ID == cond.BranchTo {
					agent := a
					return false, &agent
				}
			}
		case model.ActionRepeat:
			for _, a := range pool {
				if a.ID == latest.AgentID {
					agent := a
					return false, &agent
				}
			}
		case model.ActionContinue:
			// no-op.
		}
	}
	return false, nil
}

var selectionIndexPattern = regexp.MustCompile(`\d+`)

// runIntelligent runs a selection sub-call each round to pick which
// agents contribute, then executes exactly those (spec §4.8 "Mode
// INTELLIGENT").
func (o *Orchestrator) runIntelligent(ctx context.Context, resolved []model.ResolvedAgent, in Input, maxRounds int, timedOut timedOutFunc) ([]model.ContributionResult, int, bool, bool, error) {
	var results []model.ContributionResult
	runningContext := in.Task
	completedRounds := 0
	stoppedEarly := false
	sel := in.IntelligentSelection
	if sel == nil {
		sel = &model.IntelligentSelection{PoolSize: len(resolved), Criteria: "general relevance"}
	}

	for round := 0; round < maxRounds; round++ {
		if timedOut() {
			return results, completedRounds, true, stoppedEarly, nil
		}

		selected, err := o.selectAgents(ctx, resolved, sel)
		if err != nil {
			return results, completedRounds, false, stoppedEarly, fmt.Errorf("team: selection sub-call: %w", err)
		}

		interruptedThisRound := false
		for _, agent := range selected {
			r, err := o.executeAgent(ctx, agent, runningContext, round, timedOut, in.ForceModel)
			if errors.Is(err, errTimeoutContinue) {
				interruptedThisRound = true
				break
			}
			if err != nil {
				return results, completedRounds, false, stoppedEarly, fmt.Errorf("team: agent %q: %w", agent.ID, err)
			}
			results = append(results, r)
			runningContext += formatAppend(r, false, round)

			stop, _ := o.evaluateConditions(in.Conditions, runningContext, r, resolved)
			if stop {
				stoppedEarly = true
				break
			}
		}

		if interruptedThisRound {
			return results, completedRounds, true, stoppedEarly, nil
		}
		completedRounds++
		if stoppedEarly {
			break
		}
	}

	return results, completedRounds, false, stoppedEarly, nil
}

func (o *Orchestrator) selectAgents(ctx context.Context, resolved []model.ResolvedAgent, sel *model.IntelligentSelection) ([]model.ResolvedAgent, error) {
	var roster strings.Builder
	for i, a := range resolved {
		fmt.Fprintf(&roster, "%d: %s (%s)\n", i, a.ID, a.Role)
	}

	prompt := fmt.Sprintf(
		"From the following agents, select up to %d to contribute next, based on criteria: %s\n\nAgents:\n%s\nRespond with the selected agent indices (0-based), separated by commas.",
		sel.PoolSize, sel.Criteria, roster.String(),
	)

	resp, err := o.sampler.Sample(ctx, sampler.Request{
		Messages: []sampler.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, err
	}

	matches := selectionIndexPattern.FindAllString(resp.Content, -1)
	seen := make(map[int]bool)
	var selected []model.ResolvedAgent
	for _, m := range matches {
		idx, convErr := strconv.Atoi(m)
		if convErr != nil || idx < 0 || idx >= len(resolved) || seen[idx] {
			continue
		}
		seen[idx] = true
		selected = append(selected, resolved[idx])
		if len(selected) >= sel.PoolSize {
			break
		}
	}

	// Spec §9 open question: when no parsed index falls in range, the
	// round produces zero contributions rather than silently falling
	// back to running every resolved agent (documented in DESIGN.md).
	return selected, nil
}

// shapeContribution applies the same outputFields/verbose projection as
// single-agent execution (spec §4.8 "Output shaping").
func shapeContribution(r model.ContributionResult, outputFields []string, verbose bool) map[string]any {
	full := map[string]any{
		"round":        r.Round,
		"agentId":      r.AgentID,
		"role":         r.Role,
		"contribution": r.Contribution,
		"model":        r.Model,
		"usage":        r.Usage,
		"finishReason": r.FinishReason,
	}

	if len(outputFields) > 0 {
		filtered := make(map[string]any, len(outputFields))
		for _, f := range outputFields {
			if v, ok := full[f]; ok {
				filtered[f] = v
			}
		}
		return filtered
	}

	if !verbose {
		return map[string]any{"agentId": r.AgentID, "contribution": r.Contribution}
	}
	return full
}
