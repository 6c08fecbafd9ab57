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
	"time"

	"github.com/agentcore/core/internal/model"
)

// attachmentIndex is the {skill -> entity} relation, keyed forward by
// target for attach/detach and reverse-scannable by skill ID for "is this
// skill attached anywhere" checks (I4) and export bundling.
type attachmentIndex struct {
	byTarget map[model.AttachmentTarget][]model.SkillAttachment
}

func newAttachmentIndex() *attachmentIndex {
	return &attachmentIndex{byTarget: make(map[model.AttachmentTarget][]model.SkillAttachment)}
}

func (idx *attachmentIndex) attach(skillID string, target model.AttachmentTarget, attachedBy string, overrides *model.AttachmentOverrides) model.SkillAttachment {
	a := model.SkillAttachment{
		SkillID:    skillID,
		AttachedTo: target,
		AttachedAt: time.Now(),
		AttachedBy: attachedBy,
		Overrides:  overrides,
		Active:     true,
	}
	existing := idx.byTarget[target]
	for i, e := range existing {
		if e.SkillID == skillID {
			existing[i] = a
			idx.byTarget[target] = existing
			return a
		}
	}
	idx.byTarget[target] = append(existing, a)
	return a
}

func (idx *attachmentIndex) detach(skillID string, target model.AttachmentTarget) bool {
	existing := idx.byTarget[target]
	for i, e := range existing {
		if e.SkillID == skillID {
			idx.byTarget[target] = append(existing[:i], existing[i+1:]...)
			return true
		}
	}
	return false
}

// forTarget lists every skill attached to one entity.
func (idx *attachmentIndex) forTarget(target model.AttachmentTarget) []model.SkillAttachment {
	out := make([]model.SkillAttachment, len(idx.byTarget[target]))
	copy(out, idx.byTarget[target])
	return out
}

// isAttached reports whether skillID is attached to anything (I4).
func (idx *attachmentIndex) isAttached(skillID string) bool {
	for _, attachments := range idx.byTarget {
		for _, a := range attachments {
			if a.SkillID == skillID {
				return true
			}
		}
	}
	return false
}

// countAttachments is used for usage-stats reporting.
func (idx *attachmentIndex) countAttachments(skillID string) int {
	n := 0
	for _, attachments := range idx.byTarget {
		for _, a := range attachments {
			if a.SkillID == skillID {
				n++
			}
		}
	}
	return n
}
