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
	"github.com/agentcore/core/internal/agentregistry"
	"github.com/agentcore/core/internal/config"
	"github.com/agentcore/core/internal/executor"
	"github.com/agentcore/core/internal/skills"
	"github.com/agentcore/core/internal/team"
	"github.com/agentcore/core/internal/waithandle"
)

// Core bundles every collaborator the tool surface dispatches into. It
// is assembled once at process start (cmd/'s wiring step) and handed to
// RegisterAll.
type Core struct {
	Agents    *agentregistry.Registry
	Skills    *skills.Service
	Executor  *executor.Executor
	Team      *team.Orchestrator
	Handles   *waithandle.Registry
	Defaults  config.SamplingDefaults
}

// RegisterAll wires the full tool surface (spec §6.1: agent lifecycle,
// execution, team, async, and the 14 skills tools) onto f.
func RegisterAll(f *Frontend, c *Core) {
	registerAgentTools(f, c)
	registerExecutionTools(f, c)
	registerTeamTools(f, c)
	registerSkillsTools(f, c)
}
