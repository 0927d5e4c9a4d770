/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package suggest completes in-progress speaker lines against the speaker
// names already used in the document. Matching is case-insensitive prefix
// matching over a deduplicated, upper-cased candidate list in document
// order; the first match wins.
package suggest

import (
	"strings"

	"goscreenwriter/internal/script"
)

// Suggestion is the transient completion state for a single line. It is not
// part of the document.
type Suggestion struct {
	Candidate string // matched speaker name, upper-cased
	Prefix    string // text the user has typed so far
	Suffix    string // remainder that would complete the candidate
}

// Matcher holds the harvested candidate list.
type Matcher struct {
	names []string
}

// NewMatcher harvests speaker names from doc: every non-empty speaker line,
// upper-cased, deduplicated, in first-seen document order.
func NewMatcher(doc *script.Document) *Matcher {
	m := &Matcher{}
	seen := make(map[string]struct{})
	for _, ln := range doc.Lines() {
		if ln.Format != script.FormatSpeaker {
			continue
		}
		name := strings.ToUpper(strings.TrimSpace(ln.Content))
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		m.names = append(m.names, name)
	}
	return m
}

// Candidates returns the harvested names in order.
func (m *Matcher) Candidates() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Find returns the first candidate with the given prefix. A prefix equal to
// a full candidate yields no suggestion (nothing left to complete), and an
// empty prefix never matches.
func (m *Matcher) Find(prefix string) (Suggestion, bool) {
	p := strings.ToUpper(strings.TrimSpace(prefix))
	if p == "" {
		return Suggestion{}, false
	}
	for _, name := range m.names {
		if strings.HasPrefix(name, p) && len(name) > len(p) {
			return Suggestion{Candidate: name, Prefix: prefix, Suffix: name[len(p):]}, true
		}
	}
	return Suggestion{}, false
}

// Tracker keeps at most one active suggestion, tied to a single line. It
// clears the suggestion when the line loses focus, stops being a speaker
// line, empties out, or no longer matches the stored candidate.
type Tracker struct {
	lineID string
	s      Suggestion
	active bool
}

// Active returns the current suggestion, if any.
func (t *Tracker) Active() (string, Suggestion, bool) {
	return t.lineID, t.s, t.active
}

// Clear drops any active suggestion.
func (t *Tracker) Clear() {
	t.lineID = ""
	t.s = Suggestion{}
	t.active = false
}

// Observe updates the tracker for the focused line. Passing focused=false
// (or a different line than the active one) invalidates the current
// suggestion first; then, if the line is a non-empty speaker line, a new
// match is attempted.
func (t *Tracker) Observe(m *Matcher, ln script.Line, focused bool) (Suggestion, bool) {
	if t.active && (t.lineID != ln.ID || !focused) {
		t.Clear()
	}
	if !focused || ln.Format != script.FormatSpeaker || strings.TrimSpace(ln.Content) == "" {
		t.Clear()
		return Suggestion{}, false
	}
	s, ok := m.Find(ln.Content)
	if !ok {
		t.Clear()
		return Suggestion{}, false
	}
	t.lineID = ln.ID
	t.s = s
	t.active = true
	return s, true
}
