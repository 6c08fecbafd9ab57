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
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	tekuri "github.com/santhosh-tekuri/jsonschema/v5"
)

// generateSchema reflects a Go argument type into the map[string]any
// shape the tool surface advertises to the host, following the
// teacher's functiontool.generateSchema[T] exactly: struct tags declare
// required/description/enum/range constraints, definitions are inlined
// rather than $ref'd, and array/map fields are expected to carry
// item/property schemas of their own (spec §4.1's "array parameters
// must declare item schemas; map-valued parameters must be declared as
// object-with-unrestricted-properties").
func generateSchema[T any]() (map[string]any, error) {
	reflector := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}
	schema := reflector.Reflect(new(T))

	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("protocol: marshal schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(data, &schemaMap); err != nil {
		return nil, fmt.Errorf("protocol: unmarshal schema: %w", err)
	}
	delete(schemaMap, "$schema")
	delete(schemaMap, "$id")
	return schemaMap, nil
}

// validator wraps a compiled tekuri schema behind a package-private type
// so frontend.go doesn't need to import santhosh-tekuri/jsonschema
// directly.
type validator struct {
	schema *tekuri.Schema
}

// Validate decodes raw JSON and checks it against the compiled schema.
func (v *validator) Validate(raw json.RawMessage) error {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("decode arguments: %w", err)
	}
	return v.schema.Validate(decoded)
}

// compileValidator compiles schemaMap into a reusable instance
// validator. Unlike generateSchema's map form (handed to the host so it
// can render a form/autocomplete), this is what actually rejects
// malformed inbound arguments (spec §4.1's "validates inbound arguments
// against it and rejects on violation with a structured error"),
// grounded on haasonsaas-nexus's pluginsdk.compileSchema.
func compileValidator(name string, schemaMap map[string]any) (*tekuri.Schema, error) {
	data, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("protocol: marshal %s schema for compilation: %w", name, err)
	}

	c := tekuri.NewCompiler()
	resource := name + ".schema.json"
	if err := c.AddResource(resource, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("protocol: add %s schema resource: %w", name, err)
	}
	return c.Compile(resource)
}
