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

package protocol

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/agentcore/core/internal/model"
)

// registerSkillsTools wires the 14 skills tools (spec §6.1 "Skills").
func registerSkillsTools(f *Frontend, c *Core) {
	registerTool(f, "create_skill", "Create a new skill.", func(ctx context.Context, a CreateSkillArgs) (any, error) {
		return c.Skills.Create(ctx, a.ID, a.Name, a.Description, toSkillConfig(a.Config), toSkillMetadata(a.Metadata))
	})

	registerTool(f, "update_skill", "Patch an existing skill's fields.", func(ctx context.Context, a UpdateSkillArgs) (any, error) {
		var cfg *model.SkillConfig
		if a.Config != nil {
			c := toSkillConfig(*a.Config)
			cfg = &c
		}
		var meta *model.SkillMetadata
		if a.Metadata != nil {
			m := toSkillMetadata(*a.Metadata)
			meta = &m
		}
		return c.Skills.Update(ctx, a.ID, a.Name, a.Description, a.Enabled, cfg, meta)
	})

	registerTool(f, "get_skill", "Fetch one skill's full record.", func(_ context.Context, a GetSkillArgs) (any, error) {
		return c.Skills.Get(a.ID)
	})

	registerTool(f, "list_skills", "List skills with optional filters, sorting, and pagination.", func(_ context.Context, a ListSkillsArgs) (any, error) {
		return listSkills(c, a), nil
	})

	registerTool(f, "load_skill", "Acquire a skill: materialize its toolkits/tools and recursively load its dependencies.", func(ctx context.Context, a LoadSkillArgs) (any, error) {
		return c.Skills.Load(ctx, a.ID)
	})

	registerTool(f, "unload_skill", "Release a skill, refusing if a loaded skill still requires it.", func(_ context.Context, a UnloadSkillArgs) (any, error) {
		return c.Skills.Unload(a.ID)
	})

	registerTool(f, "delete_skill", "Remove a skill, refusing while it is still attached.", func(_ context.Context, a DeleteSkillArgs) (any, error) {
		if err := c.Skills.Delete(a.ID); err != nil {
			return nil, err
		}
		return map[string]any{"id": a.ID, "deleted": true}, nil
	})

	registerTool(f, "attach_skill", "Attach a skill to an agent/workflow/team/collection, auto-loading it first.", func(ctx context.Context, a AttachSkillArgs) (any, error) {
		target := model.AttachmentTarget{Type: a.Target.Type, ID: a.Target.ID}
		var overrides *model.AttachmentOverrides
		if a.Overrides != nil {
			overrides = &model.AttachmentOverrides{
				Rules:        a.Overrides.Rules,
				Tools:        a.Overrides.Tools,
				SystemPrompt: a.Overrides.SystemPrompt,
			}
		}
		return c.Skills.Attach(ctx, a.ID, target, a.AttachedBy, overrides)
	})

	registerTool(f, "detach_skill", "Remove a skill attachment.", func(_ context.Context, a DetachSkillArgs) (any, error) {
		target := model.AttachmentTarget{Type: a.Target.Type, ID: a.Target.ID}
		if err := c.Skills.Detach(a.ID, target); err != nil {
			return nil, err
		}
		return map[string]any{"id": a.ID, "detached": true}, nil
	})

	registerTool(f, "get_attached_skills", "List every skill attached to a target.", func(_ context.Context, a GetAttachedSkillsArgs) (any, error) {
		target := model.AttachmentTarget{Type: a.Target.Type, ID: a.Target.ID}
		return c.Skills.AttachmentsFor(target), nil
	})

	registerTool(f, "compose_skills", "Merge an ordered list of skills into a derived toolkit/rule/instruction bundle.", func(_ context.Context, a ComposeSkillsArgs) (any, error) {
		return c.Skills.Compose(a.SkillIDs)
	})

	registerTool(f, "export_skill", "Bundle a skill, optionally with its dependency closure and usage stats, for portable transfer (JSON by default, YAML with format:\"yaml\").", func(_ context.Context, a ExportSkillArgs) (any, error) {
		if strings.EqualFold(a.Format, "yaml") {
			data, err := c.Skills.ExportYAML(a.ID, a.IncludeDependencies, a.IncludeUsageStats)
			if err != nil {
				return nil, err
			}
			return map[string]any{"format": "yaml", "yaml": string(data)}, nil
		}
		return c.Skills.Export(a.ID, a.IncludeDependencies, a.IncludeUsageStats)
	})

	registerTool(f, "import_skill", "Import a bundle previously produced by export_skill, in either JSON (bundle) or YAML (yaml) form.", func(_ context.Context, a ImportSkillArgs) (any, error) {
		if a.YAML != "" {
			return c.Skills.ImportYAML([]byte(a.YAML))
		}
		data, err := json.Marshal(a.Bundle)
		if err != nil {
			return nil, err
		}
		var bundle model.SkillExport
		if err := json.Unmarshal(data, &bundle); err != nil {
			return nil, err
		}
		return c.Skills.Import(bundle)
	})

	registerTool(f, "get_skill_usage_stats", "Fetch a skill's derived usage aggregates.", func(_ context.Context, a GetSkillUsageStatsArgs) (any, error) {
		return c.Skills.UsageStats(a.ID)
	})
}

func toSkillConfig(a SkillConfigArg) model.SkillConfig {
	rules := make([]model.Rule, len(a.Rules))
	for i, r := range a.Rules {
		rules[i] = model.Rule{ID: r.ID, Description: r.Description, Priority: r.Priority, Enabled: r.Enabled, Condition: r.Condition}
	}
	return model.SkillConfig{
		Toolkits: a.Toolkits,
		Tools:    a.Tools,
		Instructions: model.Instructions{
			Overview:      a.Instructions.Overview,
			Usage:         a.Instructions.Usage,
			Examples:      a.Instructions.Examples,
			BestPractices: a.Instructions.BestPractices,
			Warnings:      a.Instructions.Warnings,
			Prerequisites: a.Instructions.Prerequisites,
		},
		Rules:             rules,
		SystemPrompt:      a.SystemPrompt,
		RequiredSkills:    a.RequiredSkills,
		ConflictingSkills: a.ConflictingSkills,
	}
}

func toSkillMetadata(a SkillMetadataArg) model.SkillMetadata {
	return model.SkillMetadata{
		Author:   a.Author,
		Version:  a.Version,
		Tags:     a.Tags,
		Category: a.Category,
		Rating:   a.Rating,
	}
}

// listSkills applies list_skills' filters, sort, and pagination over the
// service's in-memory catalog (spec §6.1's filter/sort/pagination list,
// kept in the protocol layer since it is purely a view concern over
// skills.Service.List — the service itself only owns lifecycle state).
func listSkills(c *Core, a ListSkillsArgs) []model.Skill {
	all := c.Skills.List()
	search := strings.ToLower(a.Search)

	filtered := all[:0:0]
	for _, sk := range all {
		if search != "" && !strings.Contains(strings.ToLower(sk.Name+" "+sk.Description), search) {
			continue
		}
		if a.Category != "" && sk.Metadata.Category != a.Category {
			continue
		}
		if a.Author != "" && sk.Metadata.Author != a.Author {
			continue
		}
		if len(a.Tags) > 0 && !containsAll(sk.Metadata.Tags, a.Tags) {
			continue
		}
		if a.Enabled != nil && sk.Enabled != *a.Enabled {
			continue
		}
		if a.Loaded != nil && sk.Loaded != *a.Loaded {
			continue
		}
		if a.HasToolkit != "" && !contains(sk.Config.Toolkits, a.HasToolkit) {
			continue
		}
		filtered = append(filtered, sk)
	}

	sortSkills(c, filtered, a.SortBy, a.Direction)

	offset := a.Offset
	if offset < 0 || offset > len(filtered) {
		offset = len(filtered)
	}
	limit := a.Limit
	if limit <= 0 || offset+limit > len(filtered) {
		limit = len(filtered) - offset
	}
	return filtered[offset : offset+limit]
}

func sortSkills(c *Core, skillList []model.Skill, sortBy, direction string) {
	desc := direction == "desc"
	less := func(i, j int) bool {
		a, b := skillList[i], skillList[j]
		switch sortBy {
		case "created":
			return a.Metadata.CreatedAt.Before(b.Metadata.CreatedAt)
		case "updated":
			return a.Metadata.UpdatedAt.Before(b.Metadata.UpdatedAt)
		case "usage":
			sa, _ := c.Skills.UsageStats(a.ID)
			sb, _ := c.Skills.UsageStats(b.ID)
			return sa.TotalInvocations < sb.TotalInvocations
		case "rating":
			return ratingOf(a) < ratingOf(b)
		default: // "name"
			return a.Name < b.Name
		}
	}
	sort.SliceStable(skillList, func(i, j int) bool {
		if desc {
			return less(j, i)
		}
		return less(i, j)
	})
}

func ratingOf(sk model.Skill) float64 {
	if sk.Metadata.Rating == nil {
		return 0
	}
	return *sk.Metadata.Rating
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsAll(list, want []string) bool {
	for _, w := range want {
		if !contains(list, w) {
			return false
		}
	}
	return true
}
