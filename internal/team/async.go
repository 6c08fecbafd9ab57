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

package team

import (
	"context"

	"github.com/agentcore/core/internal/model"
	"github.com/agentcore/core/internal/waithandle"
)

// AsyncRun registers a wait handle, then runs the team in the
// background. When timeoutMs is set and continuable is true, the
// handle's own deadline timer flips a flag that executeAgent observes
// (spec §4.8 "Timeout handling (async variant only)") — the run then
// completes with whatever partial results it has rather than failing.
// Non-continuable runs that exceed their deadline fail the handle
// instead, via the registry's own non-continuable timeout path.
func (o *Orchestrator) AsyncRun(ctx context.Context, in Input, handles *waithandle.Registry, timeoutMs *int64, continuable bool) *model.WaitHandle {
	metadata := map[string]any{"mode": string(in.Mode), "task": in.Task}
	handle := handles.Register(model.WaitKindTeam, metadata, timeoutMs, continuable)

	go func() {
		result, err := o.run(ctx, in, func() bool { return handles.TimedOut(handle.ID) })
		if err != nil {
			_ = handles.Fail(handle.ID, err.Error())
			return
		}
		_ = handles.Complete(handle.ID, result)
	}()

	return handle
}
