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
	"encoding/json"
	"sort"

	"github.com/agentcore/core/internal/logger"
)

// LoggingObserver is the concrete form of spec §4.1's observability hook:
// every call logs {tool, input_shape, duration_ms} at Info, and a failed
// call logs {tool, agent_id, error} at Warn instead.
type LoggingObserver struct{}

// loggingState is the token threaded from Before to After: the shape and
// agent ID are cheapest to compute once, from the raw input, rather than
// re-deriving them from whatever a handler happened to return.
type loggingState struct {
	inputShape []string
	agentID    string
}

func (LoggingObserver) Before(toolName string, input any) any {
	raw, _ := input.(json.RawMessage)
	return &loggingState{inputShape: jsonObjectKeys(raw), agentID: jsonAgentID(raw)}
}

func (LoggingObserver) After(toolName string, state any, _ any, durationMs int64, err error) {
	st, _ := state.(*loggingState)
	if st == nil {
		st = &loggingState{}
	}

	if err != nil {
		logger.Get().Warn("tool call failed", "tool", toolName, "agent_id", st.agentID, "error", err)
		return
	}
	logger.Get().Info("tool call completed", "tool", toolName, "input_shape", st.inputShape, "duration_ms", durationMs)
}

// jsonObjectKeys returns the sorted top-level field names of a JSON
// object, logged in place of the raw input so handler arguments (which
// may carry prompts or other sensitive content) never reach the log.
func jsonObjectKeys(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func jsonAgentID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var args struct {
		AgentID string `json:"agentId"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return ""
	}
	return args.AgentID
}
