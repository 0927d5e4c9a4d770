/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package script defines the line-oriented screenplay document model and its
// two persisted representations (a structured JSON envelope and a legacy
// tagged-text form). The document is an ordered sequence of flat lines, each
// tagged with a single format label. All structural mutation goes through
// the command engine; this package only exposes the low-level commit surface
// the engine and undo machinery operate on.
package script

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Line is the atomic unit of a screenplay document. The ID is assigned at
// creation, stays stable across edits and is never reused.
type Line struct {
	ID      string `json:"id"`
	Format  Format `json:"format"`
	Content string `json:"content"`
}

// NewLine creates a line with a fresh ID. Invalid formats fall back to action.
func NewLine(format Format, content string) Line {
	if !format.Valid() {
		format = FormatAction
	}
	return Line{ID: uuid.NewString(), Format: format, Content: content}
}

// Document is an ordered sequence of lines with an id index for O(1) lookup.
// A document is never empty: creation seeds a header line, and the engine
// rejects deleting the last remaining line.
type Document struct {
	lines []Line
	index map[string]int
}

// New creates a document seeded with a single empty header line.
func New() *Document {
	d := &Document{index: make(map[string]int)}
	_ = d.InsertAt(0, NewLine(FormatHeader, ""))
	return d
}

// FromLines builds a document from an explicit line list. Lines without an ID
// or with a duplicate ID get a fresh one; invalid formats are normalized to
// action. An empty input yields the seeded single-header document.
func FromLines(lines []Line) *Document {
	if len(lines) == 0 {
		return New()
	}
	d := &Document{lines: make([]Line, 0, len(lines)), index: make(map[string]int, len(lines))}
	for _, ln := range lines {
		if ln.ID == "" {
			ln.ID = uuid.NewString()
		}
		if _, dup := d.index[ln.ID]; dup {
			ln.ID = uuid.NewString()
		}
		if !ln.Format.Valid() {
			ln.Format = FormatAction
		}
		d.index[ln.ID] = len(d.lines)
		d.lines = append(d.lines, ln)
	}
	return d
}

// Lines returns a copy of the ordered line sequence.
func (d *Document) Lines() []Line {
	out := make([]Line, len(d.lines))
	copy(out, d.lines)
	return out
}

// LineCount returns the live number of lines.
func (d *Document) LineCount() int { return len(d.lines) }

// LineByID returns the line with the given id.
func (d *Document) LineByID(id string) (Line, bool) {
	i, ok := d.index[id]
	if !ok {
		return Line{}, false
	}
	return d.lines[i], true
}

// LineAt returns the line at index i.
func (d *Document) LineAt(i int) (Line, bool) {
	if i < 0 || i >= len(d.lines) {
		return Line{}, false
	}
	return d.lines[i], true
}

// IndexOf resolves a line id to its index, or -1 when absent.
func (d *Document) IndexOf(id string) int {
	if i, ok := d.index[id]; ok {
		return i
	}
	return -1
}

// IDs returns the ordered id sequence.
func (d *Document) IDs() []string {
	out := make([]string, len(d.lines))
	for i, ln := range d.lines {
		out[i] = ln.ID
	}
	return out
}

// InsertAt inserts ln before index i (i == LineCount appends). The id must
// not already be present.
func (d *Document) InsertAt(i int, ln Line) error {
	if i < 0 || i > len(d.lines) {
		return fmt.Errorf("insert index %d out of range [0,%d]", i, len(d.lines))
	}
	if ln.ID == "" {
		return errors.New("insert: line id is empty")
	}
	if _, dup := d.index[ln.ID]; dup {
		return fmt.Errorf("insert: duplicate line id %s", ln.ID)
	}
	if !ln.Format.Valid() {
		ln.Format = FormatAction
	}
	d.lines = append(d.lines, Line{})
	copy(d.lines[i+1:], d.lines[i:])
	d.lines[i] = ln
	d.reindexFrom(i)
	return nil
}

// RemoveAt removes and returns the line at index i.
func (d *Document) RemoveAt(i int) (Line, error) {
	if i < 0 || i >= len(d.lines) {
		return Line{}, fmt.Errorf("remove index %d out of range", i)
	}
	ln := d.lines[i]
	d.lines = append(d.lines[:i], d.lines[i+1:]...)
	delete(d.index, ln.ID)
	d.reindexFrom(i)
	return ln, nil
}

// SetAt replaces the line at index i. The replacement keeps the original id.
func (d *Document) SetAt(i int, ln Line) error {
	if i < 0 || i >= len(d.lines) {
		return fmt.Errorf("set index %d out of range", i)
	}
	if ln.ID != d.lines[i].ID {
		return fmt.Errorf("set: id mismatch at index %d", i)
	}
	if !ln.Format.Valid() {
		ln.Format = FormatAction
	}
	d.lines[i] = ln
	return nil
}

// Clone returns a deep copy.
func (d *Document) Clone() *Document {
	c := &Document{lines: make([]Line, len(d.lines)), index: make(map[string]int, len(d.index))}
	copy(c.lines, d.lines)
	for id, i := range d.index {
		c.index[id] = i
	}
	return c
}

// CopyFrom replaces the receiver's content with src's.
func (d *Document) CopyFrom(src *Document) {
	d.lines = make([]Line, len(src.lines))
	copy(d.lines, src.lines)
	d.index = make(map[string]int, len(src.index))
	for id, i := range src.index {
		d.index[id] = i
	}
}

// Equal reports whether both documents hold the same ordered lines
// (ids, formats and contents).
func (d *Document) Equal(o *Document) bool {
	if len(d.lines) != len(o.lines) {
		return false
	}
	for i := range d.lines {
		if d.lines[i] != o.lines[i] {
			return false
		}
	}
	return true
}

func (d *Document) reindexFrom(i int) {
	for ; i < len(d.lines); i++ {
		d.index[d.lines[i].ID] = i
	}
}
