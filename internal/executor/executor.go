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

// Package executor implements the Agent Executor (spec §4.7): skill
// assembly, message assembly, tool-set merge, budget gate, rate-limit
// check, the sample call, usage accounting, and output shaping.
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agentcore/core/internal/budget"
	"github.com/agentcore/core/internal/errs"
	"github.com/agentcore/core/internal/metrics"
	"github.com/agentcore/core/internal/model"
	"github.com/agentcore/core/internal/sampler"
	"github.com/agentcore/core/internal/skills"
	"github.com/agentcore/core/internal/usage"
)

// Input is a validated execute_agent/chat_with_agent call (spec §4.7).
type Input struct {
	AgentID      string
	Prompt       string
	Model        string
	Temperature  *float64
	MaxTokens    *int
	TopP         *float64
	SystemPrompt string
	Context      []string
	Tools        []string
	Toolkits     []string
	Skills       []string
	Documents    []Document
	OutputFields []string
	Verbose      bool
}

// Document is one labeled document concatenated into the assembled
// system message (spec §4.7 step 2(v)).
type Document struct {
	Label   string
	Content string
}

// Result is the full, unshaped execution record (spec §4.7 step 8).
type Result struct {
	AgentID        string            `json:"agentId"`
	Response       string            `json:"response"`
	Model          string            `json:"model"`
	Usage          model.SampleUsage `json:"usage"`
	FinishReason   string            `json:"finishReason"`
	SkillsUsed     []string          `json:"skillsUsed,omitempty"`
	ToolsAvailable []string          `json:"toolsAvailable,omitempty"`
	Timestamp      time.Time         `json:"timestamp"`
	Contribution   string            `json:"contribution,omitempty"`
}

// Executor runs the single-agent execution algorithm.
type Executor struct {
	sampler sampler.Sampler
	skills  *skills.Service
	budget  *budget.Manager
	usage   *usage.Log
	metrics *metrics.Metrics
}

// New wires an Executor from its collaborators. metrics may be nil.
func New(smp sampler.Sampler, sk *skills.Service, bm *budget.Manager, ul *usage.Log, m *metrics.Metrics) *Executor {
	return &Executor{sampler: smp, skills: sk, budget: bm, usage: ul, metrics: m}
}

// Run executes a resolved agent against in against its assembled input.
// resolved carries the already-merged AgentConfig-vs-inline-spec fields
// (agentregistry.Resolve, spec §4.2); Run itself only composes skills,
// assembles messages, enforces budget, samples, and shapes output.
func (e *Executor) Run(ctx context.Context, resolved model.ResolvedAgent, in Input) (map[string]any, error) {
	start := time.Now()
	executionID := uuid.NewString()

	modelName := in.Model
	if modelName == "" {
		modelName = resolved.Model
	}
	temperature := resolved.Temperature
	if in.Temperature != nil {
		temperature = *in.Temperature
	}
	maxTokens := resolved.MaxTokens
	if in.MaxTokens != nil {
		maxTokens = *in.MaxTokens
	}
	topP := resolved.TopP
	if in.TopP != nil {
		topP = *in.TopP
	}

	skillIDs := in.Skills
	if len(skillIDs) == 0 {
		skillIDs = resolved.Skills
	}

	// Step 1: skill assembly.
	var comp model.SkillComposition
	if len(skillIDs) > 0 && e.skills != nil {
		var err error
		comp, err = e.skills.Compose(skillIDs)
		if err != nil {
			return e.fail(ctx, executionID, in.AgentID, modelName, start, err)
		}
	}

	// Step 2: message assembly.
	effectiveSystemPrompt := in.SystemPrompt
	if effectiveSystemPrompt == "" {
		effectiveSystemPrompt = resolved.SystemPrompt
	}
	messages := e.assembleMessages(comp, in, effectiveSystemPrompt)

	// Step 3: tool-set merge.
	tools := unionTools(in.Tools, resolved.EnabledTools, comp.Tools)

	// Step 4/5: budget gate + rate-limit check.
	promptEst, completionEst := sampler.EstimateTokens(maxTokens)
	if e.budget != nil {
		if err := e.budget.Precheck(ctx, in.AgentID, modelName, promptEst, completionEst); err != nil {
			e.observeBudgetRefusal(in.AgentID, err)
			return e.fail(ctx, executionID, in.AgentID, modelName, start, err)
		}
		// Spec §4.4: the call counts against the rate-limit window as
		// soon as it's granted, before sampling runs, not after.
		if err := e.budget.RecordCall(ctx, in.AgentID, start); err != nil {
			_ = err
		}
	}

	// Step 6: sample.
	req := sampler.Request{
		Messages:     messages,
		Model:        modelName,
		Temperature:  temperature,
		MaxTokens:    maxTokens,
		TopP:         topP,
		EnabledTools: tools,
	}
	resp, sampleErr := e.sampler.Sample(ctx, req)
	duration := time.Since(start)

	if sampleErr != nil {
		return e.fail(ctx, executionID, in.AgentID, modelName, start, &errs.SamplerError{Cause: sampleErr})
	}

	// Step 7: usage accounting.
	cost := sampler.DefaultCost(modelName, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	if e.budget != nil {
		if err := e.budget.Record(ctx, in.AgentID, modelName, resp.Usage.PromptTokens, resp.Usage.CompletionTokens, start); err != nil {
			// Recording failure never fails the call (spec §4.4).
			_ = err
		}
	}
	if e.usage != nil {
		e.usage.Record(model.UsageEvent{
			ExecutionID:      executionID,
			AgentID:          in.AgentID,
			Model:            modelName,
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
			Cost:             cost,
			DurationMs:       duration.Milliseconds(),
			Success:          true,
			Timestamp:        start,
		})
	}
	if e.metrics != nil {
		e.metrics.ObserveAgentCall(in.AgentID, modelName, duration, nil)
		e.metrics.ObserveUsage(modelName, resp.Usage.PromptTokens, resp.Usage.CompletionTokens, cost)
	}
	if e.skills != nil {
		for _, id := range skillIDs {
			e.skills.RecordInvocation(id)
		}
	}

	result := Result{
		AgentID:        in.AgentID,
		Response:       resp.Content,
		Model:          resp.Model,
		Usage:          resp.Usage,
		FinishReason:   resp.FinishReason,
		SkillsUsed:     skillIDs,
		ToolsAvailable: tools,
		Timestamp:      start,
		Contribution:   resp.Content,
	}

	return shapeOutput(result, in.OutputFields, in.Verbose), nil
}

func (e *Executor) fail(ctx context.Context, executionID, agentID, modelName string, start time.Time, cause error) (map[string]any, error) {
	duration := time.Since(start)
	if e.usage != nil {
		e.usage.Record(model.UsageEvent{
			ExecutionID: executionID,
			AgentID:     agentID,
			Model:       modelName,
			DurationMs:  duration.Milliseconds(),
			Success:     false,
			Error:       cause.Error(),
			Timestamp:   start,
		})
	}
	if e.metrics != nil {
		e.metrics.ObserveAgentCall(agentID, modelName, duration, cause)
	}
	return nil, cause
}

func (e *Executor) observeBudgetRefusal(agentID string, err error) {
	if e.metrics == nil {
		return
	}
	var budgetErr *errs.BudgetError
	if errors.As(err, &budgetErr) {
		e.metrics.ObserveBudgetRefusal(agentID, budgetErr.Dimension)
		return
	}
	var rlErr *errs.RateLimitError
	if errors.As(err, &rlErr) {
		e.metrics.ObserveRateLimitHit(agentID)
	}
}

func (e *Executor) assembleMessages(comp model.SkillComposition, in Input, effectiveSystemPrompt string) []sampler.Message {
	var messages []sampler.Message

	// (i) skill instructions, (ii) skill rules, skill system prompt
	// (spec §4.7 step 1's three derived blocks).
	if instr := renderInstructions(comp.Instructions); instr != "" {
		messages = append(messages, sampler.Message{Role: "system", Content: instr})
	}
	if rules := skills.RenderRules(comp.Rules); rules != "" {
		messages = append(messages, sampler.Message{Role: "system", Content: rules})
	}
	if comp.SystemPrompt != "" {
		messages = append(messages, sampler.Message{Role: "system", Content: comp.SystemPrompt})
	}

	// (iii) explicit systemPrompt.
	if effectiveSystemPrompt != "" {
		messages = append(messages, sampler.Message{Role: "system", Content: effectiveSystemPrompt})
	}

	for _, c := range in.Context {
		messages = append(messages, sampler.Message{Role: "system", Content: c})
	}

	if len(in.Documents) > 0 {
		var doc string
		for _, d := range in.Documents {
			doc += fmt.Sprintf("[Document: %s]\n%s\n\n", d.Label, d.Content)
		}
		messages = append(messages, sampler.Message{Role: "system", Content: doc})
	}

	messages = append(messages, sampler.Message{Role: "user", Content: in.Prompt})
	return messages
}

func renderInstructions(ins model.Instructions) string {
	var out string
	for _, section := range []string{ins.Overview, ins.Usage, ins.Examples, ins.BestPractices, ins.Warnings, ins.Prerequisites} {
		if section == "" {
			continue
		}
		if out != "" {
			out += "\n\n"
		}
		out += section
	}
	return out
}

func unionTools(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, t := range list {
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// shapeOutput applies outputFields filtering, else the verbose
// projection (spec §4.7 step 8).
func shapeOutput(r Result, outputFields []string, verbose bool) map[string]any {
	full := map[string]any{
		"agentId":        r.AgentID,
		"response":       r.Response,
		"model":          r.Model,
		"usage":          r.Usage,
		"finishReason":   r.FinishReason,
		"skillsUsed":     r.SkillsUsed,
		"toolsAvailable": r.ToolsAvailable,
		"timestamp":      r.Timestamp,
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
		return map[string]any{
			"agentId":      r.AgentID,
			"contribution": r.Contribution,
		}
	}

	return full
}
