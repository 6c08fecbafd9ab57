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

// MCPServer exposes a Frontend's tool surface over the Model Context
// Protocol, grounded on germanamz-shelly's pkg/tools/mcpserver: one
// mcp.Server, one mcp.AddTool call per registered tool, and a handler
// that folds Dispatch's ToolResult straight into mcp.CallToolResult.
package protocol

import (
	"context"
	"encoding/json"
	"io"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MCPServer wraps the official MCP Go SDK server around a Frontend.
type MCPServer struct {
	server *mcp.Server
}

// NewMCPServer builds an MCP server named name/version that serves every
// tool registered on f.
func NewMCPServer(name, version string, f *Frontend) *MCPServer {
	server := mcp.NewServer(&mcp.Implementation{Name: name, Version: version}, nil)

	for _, desc := range f.Tools() {
		schema, err := json.Marshal(desc.InputSchema)
		if err != nil {
			panic("protocol: marshal input schema for " + desc.Name + ": " + err.Error())
		}
		tool := &mcp.Tool{
			Name:        desc.Name,
			Description: desc.Description,
			InputSchema: json.RawMessage(schema),
		}
		server.AddTool(tool, mcpHandler(f, desc.Name))
	}

	return &MCPServer{server: server}
}

// mcpHandler adapts one Frontend.Dispatch call into an mcp.ToolHandler,
// translating protocol.ToolResult's {content, isError} shape directly
// into mcp.CallToolResult.
func mcpHandler(f *Frontend, toolName string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.Params.Arguments
		if args == nil {
			args = json.RawMessage("{}")
		}
		result := f.Dispatch(ctx, toolName, args)

		content := make([]mcp.Content, len(result.Content))
		for i, block := range result.Content {
			content[i] = &mcp.TextContent{Text: block.Text}
		}
		return &mcp.CallToolResult{Content: content, IsError: result.IsError}, nil
	}
}

// Run serves MCP requests over transport until ctx is canceled or the
// transport closes.
func (s *MCPServer) Run(ctx context.Context, transport mcp.Transport) error {
	return s.server.Run(ctx, transport)
}

// Serve reads requests from in and writes responses to out, the
// stdio-transport convenience wrapper germanamz-shelly's mcpserver
// exposes over mcp.IOTransport. It blocks until ctx is canceled or the
// transport closes.
func (s *MCPServer) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	transport := &mcp.IOTransport{
		Reader: io.NopCloser(in),
		Writer: nopWriteCloser{out},
	}
	return s.Run(ctx, transport)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
