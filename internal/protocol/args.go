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

// Arg types declare each tool's schema via jsonschema struct tags
// (generateSchema reflects them, spec §4.1). Slice fields reflect to a
// schema with an "items" clause and map fields to "additionalProperties"
// automatically — satisfying the spec's "array parameters must declare
// item schemas; map-valued parameters must be object-with-unrestricted-
// properties" constraint without any extra bookkeeping here.
package protocol

// DocumentArg is one labeled document passed to execute_agent.
type DocumentArg struct {
	Label   string `json:"label" jsonschema:"required,description=Document label shown in the assembled prompt"`
	Content string `json:"content" jsonschema:"required,description=Document body"`
}

// InlineAgentSpecArg is one team member reference.
type InlineAgentSpecArg struct {
	ID           string   `json:"id" jsonschema:"required,description=Agent ID, either a registered preset or a purely inline spec"`
	Role         string   `json:"role,omitempty" jsonschema:"description=Role label; falls back to the registered preset's name"`
	Model        string   `json:"model,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty" jsonschema:"minimum=0,maximum=2"`
	MaxTokens    *int     `json:"maxTokens,omitempty" jsonschema:"minimum=1"`
	SystemPrompt string   `json:"systemPrompt,omitempty"`
}

// ConditionArg is one team flow-control rule.
type ConditionArg struct {
	Check    string `json:"check" jsonschema:"required,description=Text to match against running context and latest contribution"`
	Action   string `json:"action" jsonschema:"required,enum=stop,enum=branch,enum=repeat,enum=continue"`
	BranchTo string `json:"branchTo,omitempty" jsonschema:"description=Agent ID to branch to, required when action=branch"`
}

// IntelligentSelectionArg configures INTELLIGENT mode's per-round
// selection sub-call.
type IntelligentSelectionArg struct {
	PoolSize int    `json:"poolSize" jsonschema:"required,minimum=1"`
	Criteria string `json:"criteria" jsonschema:"required"`
}

// ConfigureAgentArgs upserts an agent preset.
type ConfigureAgentArgs struct {
	AgentID        string            `json:"agentId" jsonschema:"required,description=Unique identifier for the agent preset"`
	Name           string            `json:"name" jsonschema:"required"`
	Model          string            `json:"model,omitempty"`
	Temperature    float64           `json:"temperature,omitempty" jsonschema:"minimum=0,maximum=2"`
	MaxTokens      int               `json:"maxTokens,omitempty" jsonschema:"minimum=1"`
	TopP           float64           `json:"topP,omitempty" jsonschema:"minimum=0,maximum=1"`
	SystemPrompt   string            `json:"systemPrompt,omitempty"`
	Skills         []string          `json:"skills,omitempty"`
	Toolkits       []string          `json:"toolkits,omitempty"`
	EnabledTools   []string          `json:"enabledTools,omitempty"`
	SkillOverrides map[string]any    `json:"skillOverrides,omitempty" jsonschema:"description=Per-skill attachment overrides, keyed by skill ID"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// ListAgentsArgs takes no parameters.
type ListAgentsArgs struct{}

// GetAgentArgs, DeleteAgentArgs, LoadSkillArgs, UnloadSkillArgs,
// DeleteSkillArgs, and GetSkillArgs share the same {id} shape, but are
// kept as distinct types, one per tool.
type GetAgentArgs struct {
	AgentID string `json:"agentId" jsonschema:"required"`
}

type DeleteAgentArgs struct {
	AgentID string `json:"agentId" jsonschema:"required"`
}

// ExecuteAgentArgs is a synchronous single-agent execution request.
type ExecuteAgentArgs struct {
	AgentID      string        `json:"agentId" jsonschema:"required"`
	Prompt       string        `json:"prompt" jsonschema:"required"`
	Model        string        `json:"model,omitempty"`
	Temperature  *float64      `json:"temperature,omitempty" jsonschema:"minimum=0,maximum=2"`
	MaxTokens    *int          `json:"maxTokens,omitempty" jsonschema:"minimum=1"`
	TopP         *float64      `json:"topP,omitempty" jsonschema:"minimum=0,maximum=1"`
	SystemPrompt string        `json:"systemPrompt,omitempty"`
	Context      []string      `json:"context,omitempty"`
	Tools        []string      `json:"tools,omitempty"`
	Toolkits     []string      `json:"toolkits,omitempty"`
	Skills       []string      `json:"skills,omitempty"`
	Documents    []DocumentArg `json:"documents,omitempty"`
	OutputFields []string      `json:"outputFields,omitempty"`
	Verbose      bool          `json:"verbose,omitempty"`
}

// ExecuteAgentAsyncArgs is execute_agent plus an optional deadline.
type ExecuteAgentAsyncArgs struct {
	ExecuteAgentArgs
	TimeoutMs *int64 `json:"timeoutMs,omitempty" jsonschema:"minimum=1"`
}

// ChatWithAgentArgs is a one-shot convenience wrapper over execute_agent.
type ChatWithAgentArgs struct {
	AgentID        string `json:"agentId" jsonschema:"required"`
	Message        string `json:"message" jsonschema:"required"`
	ConversationID string `json:"conversationId,omitempty"`
}

// AgentTeamsArgs drives a synchronous team orchestration.
type AgentTeamsArgs struct {
	Agents               []InlineAgentSpecArg     `json:"agents" jsonschema:"required"`
	Task                 string                   `json:"task" jsonschema:"required"`
	Mode                 string                   `json:"mode" jsonschema:"required,enum=linear,enum=parallel,enum=rounds,enum=intelligent"`
	MaxRounds            int                      `json:"maxRounds,omitempty" jsonschema:"minimum=1"`
	IntelligentSelection *IntelligentSelectionArg `json:"intelligentSelection,omitempty"`
	Conditions           []ConditionArg           `json:"conditions,omitempty"`
	OutputFields         []string                 `json:"outputFields,omitempty"`
	Verbose              bool                     `json:"verbose,omitempty"`
	Model                string                   `json:"model,omitempty"`
	ForceModel           bool                     `json:"forceModel,omitempty"`
}

// AgentTeamsAsyncArgs is agent_teams plus async/continuation controls.
type AgentTeamsAsyncArgs struct {
	AgentTeamsArgs
	TimeoutMs   *int64 `json:"timeoutMs,omitempty" jsonschema:"minimum=1"`
	Continuable *bool  `json:"continuable,omitempty" jsonschema:"description=Defaults to true: preserve partial results on deadline instead of failing"`
}

// WaitForArgs blocks on a previously issued async handle.
type WaitForArgs struct {
	HandleID  string `json:"handleId" jsonschema:"required"`
	TimeoutMs *int64 `json:"timeoutMs,omitempty" jsonschema:"minimum=1"`
}

// InstructionsArg mirrors model.Instructions for the wire schema.
type InstructionsArg struct {
	Overview      string `json:"overview,omitempty"`
	Usage         string `json:"usage,omitempty"`
	Examples      string `json:"examples,omitempty"`
	BestPractices string `json:"bestPractices,omitempty"`
	Warnings      string `json:"warnings,omitempty"`
	Prerequisites string `json:"prerequisites,omitempty"`
}

// RuleArg mirrors model.Rule.
type RuleArg struct {
	ID          string `json:"id" jsonschema:"required"`
	Description string `json:"description" jsonschema:"required"`
	Priority    int    `json:"priority"`
	Enabled     bool   `json:"enabled"`
	Condition   string `json:"condition,omitempty"`
}

// SkillConfigArg mirrors model.SkillConfig.
type SkillConfigArg struct {
	Toolkits          []string        `json:"toolkits,omitempty"`
	Tools             []string        `json:"tools,omitempty"`
	Instructions      InstructionsArg `json:"instructions,omitempty"`
	Rules             []RuleArg       `json:"rules,omitempty"`
	SystemPrompt      string          `json:"systemPrompt,omitempty"`
	RequiredSkills    []string        `json:"requiredSkills,omitempty"`
	ConflictingSkills []string        `json:"conflictingSkills,omitempty"`
}

// SkillMetadataArg mirrors model.SkillMetadata.
type SkillMetadataArg struct {
	Author   string   `json:"author,omitempty"`
	Version  string   `json:"version,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Category string   `json:"category,omitempty"`
	Rating   *float64 `json:"rating,omitempty" jsonschema:"minimum=0,maximum=5"`
}

// CreateSkillArgs creates a new skill.
type CreateSkillArgs struct {
	ID          string           `json:"id" jsonschema:"required"`
	Name        string           `json:"name" jsonschema:"required"`
	Description string           `json:"description,omitempty"`
	Config      SkillConfigArg   `json:"config,omitempty"`
	Metadata    SkillMetadataArg `json:"metadata,omitempty"`
}

// UpdateSkillArgs patches an existing skill; every field besides ID is
// optional and applied only when present.
type UpdateSkillArgs struct {
	ID          string            `json:"id" jsonschema:"required"`
	Name        *string           `json:"name,omitempty"`
	Description *string           `json:"description,omitempty"`
	Enabled     *bool             `json:"enabled,omitempty"`
	Config      *SkillConfigArg   `json:"config,omitempty"`
	Metadata    *SkillMetadataArg `json:"metadata,omitempty"`
}

type GetSkillArgs struct {
	ID string `json:"id" jsonschema:"required"`
}

// ListSkillsArgs filters, sorts, and paginates the skill catalog (spec
// §6.1's "filters: search, category, tags, author, enabled, loaded,
// hasToolkit; sortBy name/created/updated/usage/rating with direction,
// plus limit/offset").
type ListSkillsArgs struct {
	Search     string   `json:"search,omitempty"`
	Category   string   `json:"category,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Author     string   `json:"author,omitempty"`
	Enabled    *bool    `json:"enabled,omitempty"`
	Loaded     *bool    `json:"loaded,omitempty"`
	HasToolkit string   `json:"hasToolkit,omitempty"`
	SortBy     string   `json:"sortBy,omitempty" jsonschema:"enum=name,enum=created,enum=updated,enum=usage,enum=rating"`
	Direction  string   `json:"direction,omitempty" jsonschema:"enum=asc,enum=desc"`
	Limit      int      `json:"limit,omitempty" jsonschema:"minimum=0"`
	Offset     int      `json:"offset,omitempty" jsonschema:"minimum=0"`
}

type LoadSkillArgs struct {
	ID string `json:"id" jsonschema:"required"`
}

type UnloadSkillArgs struct {
	ID string `json:"id" jsonschema:"required"`
}

type DeleteSkillArgs struct {
	ID string `json:"id" jsonschema:"required"`
}

// AttachmentTargetArg mirrors model.AttachmentTarget.
type AttachmentTargetArg struct {
	Type string `json:"type" jsonschema:"required,enum=agent,enum=workflow,enum=team,enum=collection"`
	ID   string `json:"id" jsonschema:"required"`
}

// AttachmentOverridesArg mirrors model.AttachmentOverrides.
type AttachmentOverridesArg struct {
	Rules        map[string]bool `json:"rules,omitempty"`
	Tools        []string        `json:"tools,omitempty"`
	SystemPrompt string          `json:"systemPrompt,omitempty"`
}

type AttachSkillArgs struct {
	ID         string                  `json:"id" jsonschema:"required"`
	Target     AttachmentTargetArg     `json:"target" jsonschema:"required"`
	AttachedBy string                  `json:"attachedBy,omitempty"`
	Overrides  *AttachmentOverridesArg `json:"overrides,omitempty"`
}

type DetachSkillArgs struct {
	ID     string              `json:"id" jsonschema:"required"`
	Target AttachmentTargetArg `json:"target" jsonschema:"required"`
}

type GetAttachedSkillsArgs struct {
	Target AttachmentTargetArg `json:"target" jsonschema:"required"`
}

type ComposeSkillsArgs struct {
	SkillIDs []string `json:"skillIds" jsonschema:"required"`
}

type ExportSkillArgs struct {
	ID                  string `json:"id" jsonschema:"required"`
	IncludeDependencies bool   `json:"includeDependencies,omitempty"`
	IncludeUsageStats   bool   `json:"includeUsageStats,omitempty"`
	// Format selects the bundle's wire encoding: "json" (default) or
	// "yaml". YAML bundles round-trip through export_skill/import_skill's
	// "yaml" field instead of "bundle".
	Format string `json:"format,omitempty" jsonschema:"enum=json,enum=yaml"`
}

// ImportSkillArgs carries a previously exported bundle. Bundle mirrors
// whatever export_skill produced in JSON form, reflected via
// map[string]any rather than a narrower struct; YAML carries the same
// bundle as a YAML document instead, as produced by export_skill's
// format:"yaml" path. Exactly one of the two is expected to be set.
type ImportSkillArgs struct {
	Bundle map[string]any `json:"bundle,omitempty" jsonschema:"description=A JSON bundle previously produced by export_skill"`
	YAML   string         `json:"yaml,omitempty" jsonschema:"description=A YAML bundle previously produced by export_skill"`
}

type GetSkillUsageStatsArgs struct {
	ID string `json:"id" jsonschema:"required"`
}
