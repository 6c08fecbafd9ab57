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
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/agentcore/core/internal/errs"
)

// Observer is the uniform observability hook every tool call passes
// through (spec §4.1): Before fires with the raw decoded input ahead of
// dispatch and returns an opaque per-call token; After fires with that
// same token, the handler's result (or nil), the elapsed duration, and
// the handler's error (nil on success) once it returns.
type Observer interface {
	Before(toolName string, input any) any
	After(toolName string, state any, output any, durationMs int64, err error)
}

// NoopObserver discards every event; the zero value is ready to use.
type NoopObserver struct{}

func (NoopObserver) Before(string, any) any              { return nil }
func (NoopObserver) After(string, any, any, int64, error) {}

// ToolDescriptor is the host-facing advertisement of one tool: its name,
// description, and the JSON schema inbound arguments must satisfy.
type ToolDescriptor struct {
	Name        string
	Description string
	InputSchema map[string]any
}

type toolEntry struct {
	descriptor ToolDescriptor
	validator  *validator
	invoke     func(ctx context.Context, raw json.RawMessage) (any, error)
}

// Frontend is the Tool Protocol Frontend (spec §4.1): a flat namespace
// of schema-validated tools dispatched through a uniform observability
// hook, always returning the {content, isError} envelope rather than
// letting a handler's error propagate out of process.
type Frontend struct {
	tools    map[string]*toolEntry
	observer Observer
}

// New creates an empty frontend. Register the tool surface with
// RegisterAll (core.go) before calling Dispatch.
func New(observer Observer) *Frontend {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &Frontend{tools: make(map[string]*toolEntry), observer: observer}
}

// Tools lists every registered tool's descriptor, e.g. for an MCP
// server's tools/list response or for wiring server.AddTool per entry
// (germanamz-shelly/pkg/tools/mcpserver.Register).
func (f *Frontend) Tools() []ToolDescriptor {
	out := make([]ToolDescriptor, 0, len(f.tools))
	for _, t := range f.tools {
		out = append(out, t.descriptor)
	}
	return out
}

// Dispatch validates raw against toolName's declared schema, invokes its
// handler, and always returns a well-formed envelope — never an error —
// per spec §4.1: "the protocol never throws out of process."
func (f *Frontend) Dispatch(ctx context.Context, toolName string, raw json.RawMessage) ToolResult {
	entry, ok := f.tools[toolName]
	if !ok {
		return errorResult(&errs.NotFoundError{Kind: "tool", ID: toolName})
	}
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}

	state := f.observer.Before(toolName, json.RawMessage(raw))
	start := time.Now()

	out, err := func() (out any, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("protocol: tool %q panicked: %v", toolName, r)
			}
		}()
		if verr := entry.validator.Validate(raw); verr != nil {
			return nil, &errs.ValidationError{Tool: toolName, Msg: verr.Error()}
		}
		return entry.invoke(ctx, raw)
	}()

	f.observer.After(toolName, state, out, time.Since(start).Milliseconds(), err)

	if err != nil {
		return errorResult(err)
	}
	return textResult(out)
}

// registerTool reflects T's schema, compiles an instance validator for
// it, decodes raw into a T before calling handler, and files the whole
// thing under name. It panics on a schema that fails to reflect or
// compile — those are programmer errors in args.go, not runtime input,
// so they surface at wiring time (cmd/'s frontend construction) rather
// than being swallowed into every Dispatch call.
func registerTool[T any](f *Frontend, name, description string, handler func(context.Context, T) (any, error)) {
	schemaMap, err := generateSchema[T]()
	if err != nil {
		panic(fmt.Sprintf("protocol: generate schema for %q: %v", name, err))
	}
	compiled, err := compileValidator(name, schemaMap)
	if err != nil {
		panic(fmt.Sprintf("protocol: compile schema for %q: %v", name, err))
	}

	f.tools[name] = &toolEntry{
		descriptor: ToolDescriptor{Name: name, Description: description, InputSchema: schemaMap},
		validator:  &validator{schema: compiled},
		invoke: func(ctx context.Context, raw json.RawMessage) (any, error) {
			var args T
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, &errs.ValidationError{Tool: name, Msg: err.Error()}
			}
			return handler(ctx, args)
		},
	}
}
