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

package sampler

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentcore/core/internal/model"
)

// EchoSampler is a deterministic stand-in for the host sampling facility,
// used by tests and as a fallback when no production Sampler is wired.
// It never calls out to a network: the host sampling facility is an
// external collaborator whose internals are explicitly out of scope
// (spec §1), so this module carries no concrete LLM SDK dependency.
type EchoSampler struct {
	// Fixed, if set, is returned verbatim instead of the default echo
	// behavior — used by tests to script specific contributions.
	Fixed map[string]Response
}

// Sample returns a deterministic response derived from the last user
// message, with usage proportional to content length.
func (s *EchoSampler) Sample(ctx context.Context, req Request) (Response, error) {
	if ctx.Err() != nil {
		return Response{}, ctx.Err()
	}

	last := ""
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			last = req.Messages[i].Content
			break
		}
	}

	if fixed, ok := s.Fixed[last]; ok {
		return fixed, nil
	}

	content := fmt.Sprintf("Acknowledged: %s", strings.TrimSpace(last))
	prompt := 0
	for _, m := range req.Messages {
		prompt += len(strings.Fields(m.Content))
	}
	completion := len(strings.Fields(content))

	return Response{
		Content:      content,
		Model:        req.Model,
		FinishReason: "stop",
		Usage: model.SampleUsage{
			PromptTokens:     prompt,
			CompletionTokens: completion,
			TotalTokens:      prompt + completion,
		},
	}, nil
}

var _ Sampler = (*EchoSampler)(nil)
