/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// envelopeSchema validates the structured storage format. Format values are
// deliberately not constrained here: unknown labels are normalized to action
// by the parser rather than rejected, matching legacy import behavior.
const envelopeSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["version", "lines"],
  "properties": {
    "version": {"type": "integer", "minimum": 1},
    "lines": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["format", "content"],
        "properties": {
          "id": {"type": "string"},
          "format": {"type": "string"},
          "content": {"type": "string"}
        }
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(envelopeSchema)

// ValidateEnvelope checks data against the structured document schema.
func ValidateEnvelope(data []byte) error {
	res, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validate script envelope: %w", err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("invalid script envelope: %s", strings.Join(msgs, "; "))
}
