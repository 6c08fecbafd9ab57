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

package model

import "time"

// Instructions is the structured instruction block a skill contributes.
type Instructions struct {
	Overview       string `json:"overview,omitempty"`
	Usage          string `json:"usage,omitempty"`
	Examples       string `json:"examples,omitempty"`
	BestPractices  string `json:"bestPractices,omitempty"`
	Warnings       string `json:"warnings,omitempty"`
	Prerequisites  string `json:"prerequisites,omitempty"`
}

// Rule is one conditional instruction a skill attaches to an agent.
type Rule struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
	Enabled     bool   `json:"enabled"`
	Condition   string `json:"condition,omitempty"`
}

// SkillConfig is the composable part of a skill: the toolkits/tools it
// grants, its rules, instructions, system prompt, and its DAG edges.
type SkillConfig struct {
	Toolkits          []string     `json:"toolkits"`
	Tools             []string     `json:"tools,omitempty"`
	Instructions      Instructions `json:"instructions"`
	Rules             []Rule       `json:"rules,omitempty"`
	SystemPrompt      string       `json:"systemPrompt,omitempty"`
	RequiredSkills    []string     `json:"requiredSkills,omitempty"`
	ConflictingSkills []string     `json:"conflictingSkills,omitempty"`
}

// SkillMetadata is descriptive/bookkeeping data about a skill.
type SkillMetadata struct {
	Author    string    `json:"author,omitempty"`
	Version   string    `json:"version,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	Category  string    `json:"category,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Rating    *float64  `json:"rating,omitempty"`
}

// Skill is a composable capability bundle (spec §3 "Skill").
type Skill struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Enabled     bool          `json:"enabled"`
	Loaded      bool          `json:"loaded"`
	Validated   bool          `json:"validated"`
	Config      SkillConfig   `json:"config"`
	Metadata    SkillMetadata `json:"metadata"`

	// Runtime fields, populated on Load.
	LoadedToolkits []string `json:"loadedToolkits,omitempty"`
	LoadedTools    []string `json:"loadedTools,omitempty"`
}

// AttachmentTarget identifies the entity a skill is attached to.
type AttachmentTarget struct {
	Type string `json:"type"` // "agent", "workflow", "team", "collection"
	ID   string `json:"id"`
}

// AttachmentOverrides lets the attaching entity override rule
// enablement, the granted tool set, or the system prompt for this one
// attachment, without mutating the shared skill definition.
type AttachmentOverrides struct {
	Rules        map[string]bool `json:"rules,omitempty"`
	Tools        []string        `json:"tools,omitempty"`
	SystemPrompt string          `json:"systemPrompt,omitempty"`
}

// SkillAttachment is the {skill -> entity} relation.
type SkillAttachment struct {
	SkillID      string                `json:"skillId"`
	AttachedTo   AttachmentTarget      `json:"attachedTo"`
	AttachedAt   time.Time             `json:"attachedAt"`
	AttachedBy   string                `json:"attachedBy,omitempty"`
	Overrides    *AttachmentOverrides  `json:"overrides,omitempty"`
	Active       bool                  `json:"active"`
}

// RuleConflict records one rule-ID collision resolved during composition.
// Affected names the rule ID(s) this resolution entry covers (spec §8
// scenario S3: composing two rules sharing id "r" yields one conflict
// entry with affected=["r"]) — the skills that contributed them are
// recoverable from the skill list passed to Compose.
type RuleConflict struct {
	RuleID   string   `json:"ruleId"`
	Winner   string   `json:"winner"` // skill ID whose rule won
	Affected []string `json:"affected"`
}

// SkillComposition is the derived, merged record produced by composing an
// ordered list of skill IDs (spec §4.3 "Composition").
type SkillComposition struct {
	ComposedID   string         `json:"composedId"`
	SkillIDs     []string       `json:"skillIds"`
	Toolkits     []string       `json:"toolkits"`
	Tools        []string       `json:"tools"`
	Rules        []Rule         `json:"rules"`
	Conflicts    []RuleConflict `json:"conflicts"`
	Instructions Instructions   `json:"instructions"`
	SystemPrompt string         `json:"systemPrompt"`
}

// SkillUsageStats are derived aggregates for get_skill_usage_stats.
type SkillUsageStats struct {
	SkillID           string     `json:"skillId"`
	TotalAttachments  int        `json:"totalAttachments"`
	TotalInvocations  int64      `json:"totalInvocations"`
	LastUsedAt        *time.Time `json:"lastUsedAt,omitempty"`
	AverageRating     *float64   `json:"averageRating,omitempty"`
}

// SkillExport bundles a skill (and optionally its dependency closure and
// usage stats) for portable transfer.
type SkillExport struct {
	Version           string            `json:"version"`
	ExportedAt        time.Time         `json:"exportedAt"`
	Skill             Skill             `json:"skill"`
	Dependencies      []Skill           `json:"dependencies,omitempty"`
	UsageStats        *SkillUsageStats  `json:"usageStats,omitempty"`
	IncludedDeps      bool              `json:"includedDependencies"`
	IncludedUsage     bool              `json:"includedUsageStats"`
}
