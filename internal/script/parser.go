/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"bufio"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// EnvelopeVersion is the current structured storage format version.
const EnvelopeVersion = 1

// Envelope is the structured persisted form of a document.
type Envelope struct {
	Version int    `json:"version"`
	Lines   []Line `json:"lines"`
}

// reTagged matches one legacy line: <format>text</format>. The closing tag
// must repeat the opening one; anything else is treated as untagged text.
var reTagged = regexp.MustCompile(`^<([a-zA-Z-]+)>(.*)</([a-zA-Z-]+)>$`)

// Parse accepts either persisted representation and normalizes it to a
// document: the structured JSON envelope, or the legacy tagged-text form
// where each non-blank line reads <format>text</format>.
func Parse(data []byte) (*Document, error) {
	trimmed := strings.TrimLeftFunc(string(data), func(r rune) bool { return r == ' ' || r == '\t' || r == '\n' || r == '\r' })
	if strings.HasPrefix(trimmed, "{") {
		return ParseEnvelope(data)
	}
	return ParseLegacy(string(data)), nil
}

// ParseEnvelope parses the structured JSON form, validating it against the
// document schema first. Lines keep their persisted ids.
func ParseEnvelope(data []byte) (*Document, error) {
	if err := ValidateEnvelope(data); err != nil {
		return nil, err
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parse script envelope: %w", err)
	}
	for i := range env.Lines {
		env.Lines[i].Format = ParseFormat(string(env.Lines[i].Format))
	}
	return FromLines(env.Lines), nil
}

// ParseLegacy parses the legacy plain-text form. Each non-blank line is
// expected as <format>text</format>; unrecognized tags and unwrapped lines
// become action lines so no text is lost. Blank lines are dropped.
func ParseLegacy(text string) *Document {
	var lines []Line
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		raw := strings.TrimRight(scanner.Text(), "\r")
		trim := strings.TrimSpace(raw)
		if trim == "" {
			continue
		}
		if m := reTagged.FindStringSubmatch(trim); m != nil && strings.EqualFold(m[1], m[3]) {
			lines = append(lines, NewLine(ParseFormat(m[1]), m[2]))
			continue
		}
		lines = append(lines, NewLine(FormatAction, trim))
	}
	return FromLines(lines)
}

// Serialize emits the structured JSON envelope for d.
func Serialize(d *Document) ([]byte, error) {
	env := Envelope{Version: EnvelopeVersion, Lines: d.Lines()}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialize script: %w", err)
	}
	return append(data, '\n'), nil
}

// SerializeLegacy emits the legacy tagged-text form, one line per document
// line. Kept for export compatibility with older installs.
func SerializeLegacy(d *Document) string {
	var b strings.Builder
	for _, ln := range d.Lines() {
		b.WriteString("<")
		b.WriteString(string(ln.Format))
		b.WriteString(">")
		b.WriteString(ln.Content)
		b.WriteString("</")
		b.WriteString(string(ln.Format))
		b.WriteString(">\n")
	}
	return b.String()
}
