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
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/agentcore/core/internal/errs"
	"github.com/agentcore/core/internal/model"
)

const exportFormatVersion = "1.0"

// Export bundles a skill for portable transfer (spec §4.3 "Export"),
// optionally including its requiredSkills transitive closure and its
// usage stats.
func (s *Service) Export(id string, includeDeps, includeUsage bool) (model.SkillExport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sk, ok := s.skills.Get(id)
	if !ok {
		return model.SkillExport{}, &errs.NotFoundError{Kind: "skill", ID: id}
	}

	out := model.SkillExport{
		Version:       exportFormatVersion,
		ExportedAt:    time.Now(),
		Skill:         sk,
		IncludedDeps:  includeDeps,
		IncludedUsage: includeUsage,
	}

	if includeDeps {
		seen := map[string]bool{id: true}
		var deps []model.Skill
		var collect func(ids []string)
		collect = func(ids []string) {
			for _, depID := range ids {
				if seen[depID] {
					continue
				}
				seen[depID] = true
				dep, ok := s.skills.Get(depID)
				if !ok {
					continue
				}
				deps = append(deps, dep)
				collect(dep.Config.RequiredSkills)
			}
		}
		collect(sk.Config.RequiredSkills)
		out.Dependencies = deps
	}

	if includeUsage {
		stats := s.usageStats[id]
		stats.SkillID = id
		stats.TotalAttachments = s.attachments.countAttachments(id)
		out.UsageStats = &stats
	}

	return out, nil
}

// ExportYAML renders an export bundle as YAML instead of JSON (spec
// SPEC_FULL DOMAIN STACK: "skill export bundles optionally round-trip
// through YAML"), the teacher's config loader's parse-into-a-generic-map
// approach run in reverse so the YAML keys match the JSON ones exactly.
func (s *Service) ExportYAML(id string, includeDeps, includeUsage bool) ([]byte, error) {
	bundle, err := s.Export(id, includeDeps, includeUsage)
	if err != nil {
		return nil, err
	}
	return bundleToYAML(bundle)
}

func bundleToYAML(bundle model.SkillExport) ([]byte, error) {
	data, err := json.Marshal(bundle)
	if err != nil {
		return nil, fmt.Errorf("skills: marshal bundle: %w", err)
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("skills: re-decode bundle: %w", err)
	}
	out, err := yaml.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("skills: marshal yaml bundle: %w", err)
	}
	return out, nil
}

// ImportYAML parses a bundle previously produced by ExportYAML and
// imports it the same way Import does.
func (s *Service) ImportYAML(data []byte) (ImportResult, error) {
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return ImportResult{}, fmt.Errorf("skills: parse yaml bundle: %w", err)
	}
	jsonData, err := json.Marshal(generic)
	if err != nil {
		return ImportResult{}, fmt.Errorf("skills: convert yaml bundle: %w", err)
	}
	var bundle model.SkillExport
	if err := json.Unmarshal(jsonData, &bundle); err != nil {
		return ImportResult{}, fmt.Errorf("skills: decode yaml bundle: %w", err)
	}
	return s.Import(bundle)
}

// ImportResult reports what Import actually did, distinguishing skipped
// duplicates from genuinely imported skills.
type ImportResult struct {
	Imported []string
	Skipped  []string
}

// Import installs an exported bundle: dependencies first, then the
// primary skill, initializing fresh usage stats. A duplicate ID is
// reported as skipped rather than overwritten (spec §4.3 "Import").
func (s *Service) Import(bundle model.SkillExport) (ImportResult, error) {
	var result ImportResult

	for _, dep := range bundle.Dependencies {
		if s.importOne(dep) {
			result.Imported = append(result.Imported, dep.ID)
		} else {
			result.Skipped = append(result.Skipped, dep.ID)
		}
	}

	if s.importOne(bundle.Skill) {
		result.Imported = append(result.Imported, bundle.Skill.ID)
	} else {
		result.Skipped = append(result.Skipped, bundle.Skill.ID)
	}

	return result, nil
}

func (s *Service) importOne(sk model.Skill) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.skills.Has(sk.ID) {
		return false
	}

	now := time.Now()
	sk.Metadata.CreatedAt = now
	sk.Metadata.UpdatedAt = now
	sk.Loaded = false
	sk.LoadedToolkits = nil
	sk.LoadedTools = nil

	if err := s.store.save(sk); err != nil {
		return false
	}
	s.skills.Set(sk.ID, sk)
	s.usageStats[sk.ID] = model.SkillUsageStats{SkillID: sk.ID}
	return true
}
