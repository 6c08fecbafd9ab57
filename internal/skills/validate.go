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
	"context"
	"fmt"

	"github.com/agentcore/core/internal/errs"
	"github.com/agentcore/core/internal/model"
	"github.com/agentcore/core/internal/toolkit"
)

// validate checks a skill against invariants I1-I3, I6 (spec §3). I1
// (toolkit references resolve) and I2/I3 (requiredSkills DAG, no cycle)
// need the sibling set, so the full skill universe is passed in.
func validate(ctx context.Context, toolkits toolkit.Registry, siblings map[string]model.Skill, s model.Skill) error {
	seen := make(map[string]bool, len(s.Config.Rules))
	for _, rule := range s.Config.Rules {
		if seen[rule.ID] {
			return &errs.ConflictError{Reason: fmt.Sprintf("skill %q has duplicate rule id %q", s.ID, rule.ID)}
		}
		seen[rule.ID] = true
	}

	for _, toolkitID := range s.Config.Toolkits {
		if ok := toolkits.GetToolkit(ctx, toolkitID); !ok {
			return &errs.MissingDependencyError{SkillID: s.ID, Kind: "toolkit", Ref: toolkitID}
		}
	}

	for _, reqID := range s.Config.RequiredSkills {
		if reqID == s.ID {
			return &errs.ConflictError{Reason: fmt.Sprintf("skill %q requires itself", s.ID)}
		}
		if _, ok := siblings[reqID]; !ok {
			return &errs.MissingDependencyError{SkillID: s.ID, Kind: "requiredSkill", Ref: reqID}
		}
	}

	return detectCycle(s.ID, siblings)
}

// detectCycle runs a DFS from root over the requiredSkills edges in
// siblings, reporting a ConflictError if it revisits a node still on the
// current path (I3).
func detectCycle(root string, siblings map[string]model.Skill) error {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(siblings))

	var visit func(id string, path []string) error
	visit = func(id string, path []string) error {
		switch state[id] {
		case done:
			return nil
		case visiting:
			return &errs.ConflictError{Reason: fmt.Sprintf("requiredSkills cycle: %v -> %s", path, id)}
		}
		state[id] = visiting
		if sk, ok := siblings[id]; ok {
			for _, dep := range sk.Config.RequiredSkills {
				if err := visit(dep, append(path, id)); err != nil {
					return err
				}
			}
		}
		state[id] = done
		return nil
	}

	return visit(root, nil)
}
