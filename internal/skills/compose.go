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

package skills

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/agentcore/core/internal/model"
)

// compose merges an ordered list of skills into one derived record (spec
// §4.3 "Composition"). Caller supplies skills in the same order as the
// requested ID list; composedID is derived from that list so composing
// the same IDs in the same order twice yields the same ID.
func compose(ids []string, resolved []model.Skill) model.SkillComposition {
	out := model.SkillComposition{
		ComposedID: composedID(ids),
		SkillIDs:   ids,
	}

	out.Toolkits = unionStrings(func(yield func(s string)) {
		for _, sk := range resolved {
			for _, t := range sk.Config.Toolkits {
				yield(t)
			}
		}
	})
	out.Tools = unionStrings(func(yield func(s string)) {
		for _, sk := range resolved {
			for _, t := range sk.Config.Tools {
				yield(t)
			}
		}
	})

	out.Rules, out.Conflicts = composeRules(resolved)
	out.Instructions = composeInstructions(resolved)
	out.SystemPrompt = composeSystemPrompt(resolved)

	return out
}

// composedID is a deterministic digest of the ordered ID list, stable
// across process restarts (used to cache/compare compositions).
func composedID(ids []string) string {
	h := sha1.New()
	h.Write([]byte(strings.Join(ids, "\x1f")))
	return "composed_" + hex.EncodeToString(h.Sum(nil))[:16]
}

func unionStrings(iterate func(yield func(string))) []string {
	seen := make(map[string]bool)
	var out []string
	iterate(func(s string) {
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	})
	return out
}

// composeRules resolves rule-ID collisions: higher priority wins; equal
// priority favors the earlier skill in the list. Every collision is
// recorded in conflicts with the rule ID and the winning skill.
func composeRules(resolved []model.Skill) ([]model.Rule, []model.RuleConflict) {
	type candidate struct {
		rule    model.Rule
		skillID string
		index   int
	}
	byID := make(map[string][]candidate)
	var order []string

	idx := 0
	for _, sk := range resolved {
		for _, rule := range sk.Config.Rules {
			if _, ok := byID[rule.ID]; !ok {
				order = append(order, rule.ID)
			}
			byID[rule.ID] = append(byID[rule.ID], candidate{rule: rule, skillID: sk.ID, index: idx})
			idx++
		}
	}

	var rules []model.Rule
	var conflicts []model.RuleConflict

	for _, id := range order {
		cands := byID[id]
		winner := cands[0]
		for _, c := range cands[1:] {
			if c.rule.Priority > winner.rule.Priority ||
				(c.rule.Priority == winner.rule.Priority && c.index < winner.index) {
				winner = c
			}
		}
		rules = append(rules, winner.rule)

		if len(cands) > 1 {
			conflicts = append(conflicts, model.RuleConflict{
				RuleID:   id,
				Winner:   winner.skillID,
				Affected: []string{id},
			})
		}
	}

	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority > rules[j].Priority })

	return rules, conflicts
}

func composeInstructions(resolved []model.Skill) model.Instructions {
	var overview, usage, examples, bestPractices, warnings, prerequisites []string
	for _, sk := range resolved {
		appendNonEmpty(&overview, sk.Config.Instructions.Overview)
		appendNonEmpty(&usage, sk.Config.Instructions.Usage)
		appendNonEmpty(&examples, sk.Config.Instructions.Examples)
		appendNonEmpty(&bestPractices, sk.Config.Instructions.BestPractices)
		appendNonEmpty(&warnings, sk.Config.Instructions.Warnings)
		appendNonEmpty(&prerequisites, sk.Config.Instructions.Prerequisites)
	}
	return model.Instructions{
		Overview:      strings.Join(overview, "\n\n"),
		Usage:         strings.Join(usage, "\n\n"),
		Examples:      strings.Join(examples, "\n\n"),
		BestPractices: strings.Join(bestPractices, "\n\n"),
		Warnings:      strings.Join(warnings, "\n\n"),
		Prerequisites: strings.Join(prerequisites, "\n\n"),
	}
}

func composeSystemPrompt(resolved []model.Skill) string {
	var parts []string
	for _, sk := range resolved {
		appendNonEmpty(&parts, sk.Config.SystemPrompt)
	}
	return strings.Join(parts, "\n\n")
}

func appendNonEmpty(dst *[]string, s string) {
	if strings.TrimSpace(s) != "" {
		*dst = append(*dst, s)
	}
}

// RenderRules formats a composition's enabled rules as the
// `[Rule <id>] <description>` lines the executor injects as a system
// message, sorted by descending priority (spec §4.7 step 1).
func RenderRules(rules []model.Rule) string {
	sorted := make([]model.Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority > sorted[j].Priority })

	var lines []string
	for _, r := range sorted {
		if !r.Enabled {
			continue
		}
		lines = append(lines, "[Rule "+r.ID+"] "+r.Description)
	}
	return strings.Join(lines, "\n")
}
