/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package chapter maintains chapter-break markers inside a screenplay
// document. Numbering is two-phase on purpose: inserting a break assigns
// max(existing)+1 and never touches siblings, and Renumber is the only
// operation that compacts gaps left by deletion back to a contiguous 1..N.
package chapter

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"goscreenwriter/internal/engine"
	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/script"
)

// reBreak matches the marker content convention: "Chapter N" or
// "Chapter N: Title".
var reBreak = regexp.MustCompile(`^Chapter (\d+)(?::\s*(.*))?$`)

// BreakContent formats the content of a chapter-break line.
func BreakContent(n int, title string) string {
	if strings.TrimSpace(title) == "" {
		return fmt.Sprintf("Chapter %d", n)
	}
	return fmt.Sprintf("Chapter %d: %s", n, strings.TrimSpace(title))
}

// ParseNumber extracts the chapter number from a marker's content.
func ParseNumber(content string) (int, bool) {
	m := reBreak.FindStringSubmatch(strings.TrimSpace(content))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseTitle returns the optional title part of a marker's content.
func parseTitle(content string) string {
	m := reBreak.FindStringSubmatch(strings.TrimSpace(content))
	if m == nil {
		return ""
	}
	return m[2]
}

// Manager mutates chapter markers through the command engine so every change
// stays undoable.
type Manager struct {
	eng *engine.Engine
	doc *script.Document
	log *slog.Logger
}

// NewManager creates a manager bound to doc.
func NewManager(eng *engine.Engine, doc *script.Document) *Manager {
	return &Manager{eng: eng, doc: doc, log: applog.WithComponent("chapter")}
}

// breaks returns all chapter-break lines in document order.
func (m *Manager) breaks() []script.Line {
	var out []script.Line
	for _, ln := range m.doc.Lines() {
		if ln.Format == script.FormatChapterBreak {
			out = append(out, ln)
		}
	}
	return out
}

// Count returns the number of chapter markers.
func (m *Manager) Count() int { return len(m.breaks()) }

// Numbers returns the chapter numbers in document order.
func (m *Manager) Numbers() []int {
	brs := m.breaks()
	out := make([]int, 0, len(brs))
	for _, ln := range brs {
		if n, ok := ParseNumber(ln.Content); ok {
			out = append(out, n)
		}
	}
	return out
}

// NextNumber returns max(existing chapter numbers)+1. Deleted chapters leave
// gaps, so this is not Count()+1.
func (m *Manager) NextNumber() int {
	max := 0
	for _, n := range m.Numbers() {
		if n > max {
			max = n
		}
	}
	return max + 1
}

// ByNumber returns the marker line carrying chapter number n.
func (m *Manager) ByNumber(n int) (script.Line, bool) {
	for _, ln := range m.breaks() {
		if got, ok := ParseNumber(ln.Content); ok && got == n {
			return ln, true
		}
	}
	return script.Line{}, false
}

// InsertBreakAfter inserts a chapter marker after the line with afterID and
// returns the assigned number, the new marker line and the inverse commands.
func (m *Manager) InsertBreakAfter(afterID, title string) (int, script.Line, *engine.Result, error) {
	n := m.NextNumber()
	ln := script.NewLine(script.FormatChapterBreak, BreakContent(n, title))
	res, err := m.eng.Apply(m.doc, []engine.Command{engine.AddAfter(afterID, ln)})
	if err != nil {
		return 0, script.Line{}, nil, err
	}
	m.log.Debug("chapter break inserted", slog.Int("number", n), slog.String("after", afterID))
	return n, ln, res, nil
}

// InsertBreakAt inserts a chapter marker at an absolute index.
func (m *Manager) InsertBreakAt(index int, title string) (int, script.Line, *engine.Result, error) {
	n := m.NextNumber()
	ln := script.NewLine(script.FormatChapterBreak, BreakContent(n, title))
	res, err := m.eng.Apply(m.doc, []engine.Command{engine.AddAt(index, ln)})
	if err != nil {
		return 0, script.Line{}, nil, err
	}
	return n, ln, res, nil
}

// DeleteByNumber removes the marker carrying chapter number n. The numbering
// gap it leaves persists until Renumber is invoked.
func (m *Manager) DeleteByNumber(n int) (*engine.Result, error) {
	ln, ok := m.ByNumber(n)
	if !ok {
		return nil, fmt.Errorf("chapter %d: %w", n, engine.ErrUnknownLine)
	}
	return m.eng.Apply(m.doc, []engine.Command{engine.Delete(ln.ID)})
}

// Renumber walks the markers in document order and reassigns 1..N
// contiguously, keeping titles. Markers already holding the right number are
// skipped (no-op edits generate no undo entries anyway).
func (m *Manager) Renumber() (*engine.Result, error) {
	var cmds []engine.Command
	for i, ln := range m.breaks() {
		want := BreakContent(i+1, parseTitle(ln.Content))
		if ln.Content != want {
			cmds = append(cmds, engine.EditContent(ln.ID, want))
		}
	}
	if len(cmds) == 0 {
		return &engine.Result{}, nil
	}
	res, err := m.eng.Apply(m.doc, cmds)
	if err != nil {
		return nil, err
	}
	m.log.Debug("chapters renumbered", slog.Int("count", m.Count()))
	return res, nil
}
