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

// Package protocol implements the Tool Protocol Frontend (spec §4.1): a
// flat namespace of tools exposed to an external host, each validated
// against a declared schema and dispatched through a uniform
// observability hook. The envelope shape and MCP wiring mirror
// germanamz-shelly's pkg/tools/mcpserver — a toolbox.Handler that
// returns (string, error) wrapped into {content, isError}.
package protocol

import "encoding/json"

// ContentBlock is one element of a ToolResult's content array. The
// protocol only ever emits "text" blocks, each a UTF-8 JSON
// serialization of the handler's result.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolResult is the uniform envelope every tool call returns (spec
// §4.1): `{content: [{type: "text", text}], isError?: true}`. Handlers
// never throw out of process — failures are caught and folded into this
// same shape with IsError set.
type ToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// textResult wraps v as a successful envelope, JSON-encoding it into a
// single text block.
func textResult(v any) ToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult(err)
	}
	return ToolResult{Content: []ContentBlock{{Type: "text", Text: string(data)}}}
}

// errorResult wraps err as a failed envelope (spec §4.1: "errors thrown
// inside handlers are caught and returned as isError: true envelopes").
func errorResult(err error) ToolResult {
	return ToolResult{
		Content: []ContentBlock{{Type: "text", Text: err.Error()}},
		IsError: true,
	}
}
