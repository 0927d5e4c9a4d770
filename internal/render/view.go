/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package render reconciles document state into a paginated live view. The
// view itself is a capability interface: the controller decides what to
// create, move, update and remove, keyed by line id, and a host (browser
// DOM, TUI, test fake) carries the operations out. The controller owns the
// id→element cache; the document never holds view references.
package render

import (
	"context"

	"goscreenwriter/internal/script"
)

// LineData is everything the view needs to draw one line.
type LineData struct {
	ID      string
	Format  script.Format
	Content string
}

// DataFor extracts the view payload from a document line.
func DataFor(ln script.Line) LineData {
	return LineData{ID: ln.ID, Format: ln.Format, Content: ln.Content}
}

// Element is an opaque handle to one rendered line, owned by the view.
type Element interface {
	LineID() string
}

// CaretPos names the caret anchor within a line.
type CaretPos string

const (
	CaretStart CaretPos = "start"
	CaretEnd   CaretPos = "end"
)

// View is the rendering capability the controller drives. EnsurePages sets
// the page-container count to exactly n (creating or discarding trailing
// containers); it may await layout and is therefore context-bound and
// fallible.
type View interface {
	CreateElement(data LineData) Element
	UpdateElement(el Element, data LineData)
	// PlaceElement moves el into page container page at position slot.
	// Placing an element already at that position is a no-op for the host.
	PlaceElement(el Element, page, slot int)
	RemoveElement(el Element)
	PageCount() int
	EnsurePages(ctx context.Context, n int) error
	// Clear discards all line elements and empties every page container.
	Clear()
}

// Caret is the caret/selection capability, assumed primitive: reading and
// writing a text cursor position inside a rendered line.
type Caret interface {
	PlaceCaret(el Element, pos CaretPos) error
	CursorPosition(el Element) (int, error)
}
