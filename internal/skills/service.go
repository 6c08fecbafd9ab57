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

// Package skills implements the Skills Service (spec §4.3): skill
// lifecycle (create/load/unload/attach/detach/delete), the composition
// engine, the attachment index, export/import, and JSON-file persistence
// with startup rehydration.
package skills

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/agentcore/core/internal/errs"
	"github.com/agentcore/core/internal/logger"
	"github.com/agentcore/core/internal/model"
	"github.com/agentcore/core/internal/registry"
	"github.com/agentcore/core/internal/toolkit"
)

// Service owns the skill registry, attachment index, and persistence
// layer. Mutations are synchronous and mutex-guarded (spec §5).
type Service struct {
	mu          sync.Mutex
	skills      *registry.BaseRegistry[model.Skill]
	toolkits    toolkit.Registry
	attachments *attachmentIndex
	store       *persister
	usageStats  map[string]model.SkillUsageStats
}

// New opens (and rehydrates) a skills service rooted at storageDir.
func New(storageDir string, toolkits toolkit.Registry) (*Service, error) {
	store, err := newPersister(storageDir)
	if err != nil {
		return nil, err
	}

	s := &Service{
		skills:      registry.NewBaseRegistry[model.Skill](),
		toolkits:    toolkits,
		attachments: newAttachmentIndex(),
		store:       store,
	}

	loaded, err := store.loadAll()
	if err != nil {
		return nil, err
	}
	for _, sk := range loaded {
		s.skills.Set(sk.ID, sk)
	}

	stats, err := store.loadUsageStats()
	if err != nil {
		return nil, err
	}
	s.usageStats = stats

	logger.Get().Info("skills: rehydrated from disk", "count", len(loaded), "dir", storageDir)
	return s, nil
}

// Create validates cfg against I1-I3/I6 and persists a new skill. A
// duplicate ID is a conflict; use Update to modify an existing skill.
func (s *Service) Create(ctx context.Context, id, name, description string, cfg model.SkillConfig, metadata model.SkillMetadata) (model.Skill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.skills.Has(id) {
		return model.Skill{}, &errs.ConflictError{Reason: fmt.Sprintf("skill %q already exists", id)}
	}

	now := time.Now()
	metadata.CreatedAt = now
	metadata.UpdatedAt = now

	sk := model.Skill{
		ID:          id,
		Name:        name,
		Description: description,
		Enabled:     true,
		Config:      cfg,
		Metadata:    metadata,
		Validated:   false,
	}

	if err := validate(ctx, s.toolkits, s.allSkillsLocked(), sk); err != nil {
		return model.Skill{}, err
	}
	sk.Validated = true

	if err := s.store.save(sk); err != nil {
		logger.Get().Error("skills: failed to persist new skill", "id", id, "error", err)
		return model.Skill{}, err
	}
	s.skills.Set(id, sk)
	return sk, nil
}

// Update re-validates and persists changes to name/description/enabled/
// config/metadata on an existing skill, preserving loaded/runtime state
// and the original CreatedAt. Re-validation means the same I1-I3/I6
// checks Create applies, re-run against the updated config.
func (s *Service) Update(ctx context.Context, id string, name, description *string, enabled *bool, cfg *model.SkillConfig, metadata *model.SkillMetadata) (model.Skill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sk, ok := s.skills.Get(id)
	if !ok {
		return model.Skill{}, &errs.NotFoundError{Kind: "skill", ID: id}
	}

	if name != nil {
		sk.Name = *name
	}
	if description != nil {
		sk.Description = *description
	}
	if enabled != nil {
		sk.Enabled = *enabled
	}
	if cfg != nil {
		sk.Config = *cfg
	}
	if metadata != nil {
		metadata.CreatedAt = sk.Metadata.CreatedAt
		sk.Metadata = *metadata
	}
	sk.Metadata.UpdatedAt = time.Now()

	siblings := s.allSkillsLocked()
	delete(siblings, id)
	siblings[id] = sk
	if err := validate(ctx, s.toolkits, siblings, sk); err != nil {
		return model.Skill{}, err
	}
	sk.Validated = true

	if err := s.store.save(sk); err != nil {
		logger.Get().Error("skills: failed to persist updated skill", "id", id, "error", err)
		return model.Skill{}, err
	}
	s.skills.Set(id, sk)
	return sk, nil
}

func (s *Service) allSkillsLocked() map[string]model.Skill {
	out := make(map[string]model.Skill)
	for _, sk := range s.skills.List() {
		out[sk.ID] = sk
	}
	return out
}

// Get returns a registered skill.
func (s *Service) Get(id string) (model.Skill, error) {
	sk, ok := s.skills.Get(id)
	if !ok {
		return model.Skill{}, &errs.NotFoundError{Kind: "skill", ID: id}
	}
	return sk, nil
}

// List returns every registered skill.
func (s *Service) List() []model.Skill { return s.skills.List() }

// Load acquires a skill: marks loaded, materializes loadedToolkits and
// loadedTools from the toolkit registry, recursively loading
// requiredSkills first. Idempotent — loading an already-loaded skill is
// a no-op that still returns its current state.
func (s *Service) Load(ctx context.Context, id string) (model.Skill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx, id, make(map[string]bool))
}

func (s *Service) loadLocked(ctx context.Context, id string, loading map[string]bool) (model.Skill, error) {
	sk, ok := s.skills.Get(id)
	if !ok {
		return model.Skill{}, &errs.NotFoundError{Kind: "skill", ID: id}
	}
	if sk.Loaded {
		return sk, nil
	}
	if loading[id] {
		return model.Skill{}, &errs.ConflictError{Reason: fmt.Sprintf("requiredSkills cycle detected while loading %q", id)}
	}
	loading[id] = true

	for _, dep := range sk.Config.RequiredSkills {
		if _, err := s.loadLocked(ctx, dep, loading); err != nil {
			return model.Skill{}, fmt.Errorf("skills: loading required skill %q: %w", dep, err)
		}
	}

	loadedToolkits := make([]string, 0, len(sk.Config.Toolkits))
	for _, tk := range sk.Config.Toolkits {
		if err := s.toolkits.LoadToolkit(ctx, tk); err != nil {
			return model.Skill{}, fmt.Errorf("skills: loading %q: %w", id, err)
		}
		loadedToolkits = append(loadedToolkits, tk)
	}

	loadedTools := append([]string(nil), sk.Config.Tools...)
	for _, tk := range loadedToolkits {
		tools, err := s.toolkits.ListTools(ctx, tk)
		if err != nil {
			return model.Skill{}, fmt.Errorf("skills: listing tools for toolkit %q: %w", tk, err)
		}
		loadedTools = append(loadedTools, tools...)
	}

	sk.Loaded = true
	sk.LoadedToolkits = loadedToolkits
	sk.LoadedTools = dedup(loadedTools)
	s.skills.Set(id, sk)

	if err := s.store.save(sk); err != nil {
		logger.Get().Error("skills: failed to persist load state", "id", id, "error", err)
	}
	return sk, nil
}

// Unload releases a skill, refusing if a loaded skill still requires it
// (I5). Idempotent.
func (s *Service) Unload(id string) (model.Skill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sk, ok := s.skills.Get(id)
	if !ok {
		return model.Skill{}, &errs.NotFoundError{Kind: "skill", ID: id}
	}
	if !sk.Loaded {
		return sk, nil
	}

	for _, other := range s.skills.List() {
		if other.ID == id || !other.Loaded {
			continue
		}
		for _, dep := range other.Config.RequiredSkills {
			if dep == id {
				return model.Skill{}, &errs.ConflictError{
					Reason: fmt.Sprintf("skill %q is required by loaded skill %q", id, other.ID),
				}
			}
		}
	}

	sk.Loaded = false
	sk.LoadedToolkits = nil
	sk.LoadedTools = nil
	s.skills.Set(id, sk)

	if err := s.store.save(sk); err != nil {
		logger.Get().Error("skills: failed to persist unload state", "id", id, "error", err)
	}
	return sk, nil
}

// Delete removes a skill, refusing while it is attached anywhere (I4).
func (s *Service) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.skills.Has(id) {
		return &errs.NotFoundError{Kind: "skill", ID: id}
	}
	if s.attachments.isAttached(id) {
		return &errs.ConflictError{Reason: fmt.Sprintf("skill %q is still attached", id)}
	}

	if err := s.store.delete(id); err != nil {
		return err
	}
	_ = s.skills.Remove(id)
	delete(s.usageStats, id)
	return nil
}

// Attach records a {skill, target} relation, auto-loading the skill if
// needed.
func (s *Service) Attach(ctx context.Context, id string, target model.AttachmentTarget, attachedBy string, overrides *model.AttachmentOverrides) (model.SkillAttachment, error) {
	s.mu.Lock()
	if !s.skills.Has(id) {
		s.mu.Unlock()
		return model.SkillAttachment{}, &errs.NotFoundError{Kind: "skill", ID: id}
	}
	s.mu.Unlock()

	if _, err := s.Load(ctx, id); err != nil {
		return model.SkillAttachment{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.attachments.attach(id, target, attachedBy, overrides)

	stats := s.usageStats[id]
	stats.SkillID = id
	stats.TotalAttachments = s.attachments.countAttachments(id)
	s.usageStats[id] = stats
	if err := s.store.saveUsageStats(s.usageStats); err != nil {
		logger.Get().Warn("skills: failed to persist usage stats", "error", err)
	}

	return a, nil
}

// Detach removes the matching {skill, target} tuple.
func (s *Service) Detach(id string, target model.AttachmentTarget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attachments.detach(id, target) {
		return &errs.NotFoundError{Kind: "skill attachment", ID: id}
	}
	stats := s.usageStats[id]
	stats.TotalAttachments = s.attachments.countAttachments(id)
	s.usageStats[id] = stats
	return nil
}

// AttachmentsFor lists every skill attached to target.
func (s *Service) AttachmentsFor(target model.AttachmentTarget) []model.SkillAttachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attachments.forTarget(target)
}

// Compose resolves and merges an ordered list of skill IDs (spec §4.3
// "Composition").
func (s *Service) Compose(ids []string) (model.SkillComposition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resolved := make([]model.Skill, 0, len(ids))
	for _, id := range ids {
		sk, ok := s.skills.Get(id)
		if !ok {
			return model.SkillComposition{}, &errs.NotFoundError{Kind: "skill", ID: id}
		}
		resolved = append(resolved, sk)
	}
	return compose(ids, resolved), nil
}

// RecordInvocation bumps a skill's usage-stats counters, called by the
// executor after a successful run that used this skill.
func (s *Service) RecordInvocation(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := s.usageStats[id]
	stats.SkillID = id
	stats.TotalInvocations++
	now := time.Now()
	stats.LastUsedAt = &now
	s.usageStats[id] = stats
	if err := s.store.saveUsageStats(s.usageStats); err != nil {
		logger.Get().Warn("skills: failed to persist usage stats", "error", err)
	}
}

// UsageStats returns the derived usage aggregates for a skill.
func (s *Service) UsageStats(id string) (model.SkillUsageStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.skills.Has(id) {
		return model.SkillUsageStats{}, &errs.NotFoundError{Kind: "skill", ID: id}
	}
	stats := s.usageStats[id]
	stats.SkillID = id
	stats.TotalAttachments = s.attachments.countAttachments(id)
	return stats, nil
}

func dedup(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
