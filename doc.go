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

// Package core provides an agent-orchestration server that speaks a
// JSON-RPC-style tool protocol to an external host model runtime.
//
// The server exposes a registry of callable tools: configuring and
// executing single agents against a host sampling facility, running
// cooperative multi-agent teams under linear/parallel/rounds/intelligent
// scheduling, composing reusable skills onto agents and teams, and
// tracking every long-running operation through a wait-handle registry.
//
// # Architecture
//
//	Tool call → protocol frontend → handler → {agent executor, team
//	orchestrator, skills service, wait-handle registry}
//
// The host's sampling facility, the toolkit registry, and persistent
// billing stores are external collaborators; this module only describes
// and consumes their interfaces (see internal/sampler and
// internal/toolkit).
//
// # Status
//
// Alpha. APIs may change.
package core
