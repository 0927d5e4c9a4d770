/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/script"
)

// ErrUnknownElement is returned when an incremental operation names a line id
// the controller has never rendered.
var ErrUnknownElement = errors.New("render: no element for line id")

// Options tunes one reconciliation pass.
type Options struct {
	// AllowInPlace permits the cheap paths (in-place patch, keyed reuse).
	// When false the pass always rebuilds from scratch.
	AllowInPlace bool
	// Focus requests caret placement after the pass.
	Focus bool
	// FocusLineID overrides the tracked focus line; empty keeps it.
	FocusLineID string
	// Caret anchors the caret within the focused line (default end).
	Caret CaretPos
}

type cached struct {
	el   Element
	data LineData
}

// Controller reconciles a document into the view. It owns the id→element
// cache and the rendered order; all methods must run on one goroutine (the
// operation sequencer provides that).
type Controller struct {
	view    View
	caret   Caret
	planner *Planner
	log     *slog.Logger

	cache   map[string]*cached
	order   []string
	focusID string
}

// NewController creates a controller over view. caret may be nil when the
// host has no caret capability.
func NewController(view View, caret Caret, maxLinesPerPage int) *Controller {
	return &Controller{
		view:    view,
		caret:   caret,
		planner: NewPlanner(view, maxLinesPerPage),
		log:     applog.WithComponent("render"),
		cache:   make(map[string]*cached),
	}
}

// Planner exposes the pagination planner for callers that need page math.
func (c *Controller) Planner() *Planner { return c.planner }

// RenderedIDs returns the line ids currently rendered, in document order.
func (c *Controller) RenderedIDs() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// FocusedLine returns the id of the line holding focus, if any.
func (c *Controller) FocusedLine() string { return c.focusID }

// SetFocus records the focused line without touching the view.
func (c *Controller) SetFocus(lineID string) { c.focusID = lineID }

// Reconcile brings the view in sync with doc. Three strategies, tried in
// order: an in-place patch when the id sequence is unchanged, a keyed reuse
// pass that moves and patches surviving elements, and a full rebuild. A panic
// out of the view is caught here and answered with a rebuild, so a rendering
// fault never corrupts the document model.
func (c *Controller) Reconcile(ctx context.Context, doc *script.Document, opts Options) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("reconcile panicked, rebuilding", slog.Any("panic", r))
			err = c.safeRebuild(ctx, doc.Lines())
		}
	}()

	lines := doc.Lines()
	switch {
	case opts.AllowInPlace && c.sameOrder(lines):
		c.patchInPlace(lines)
	case opts.AllowInPlace && len(c.cache) > 0:
		if err := c.keyedReuse(ctx, lines); err != nil {
			c.log.Warn("keyed reuse failed, rebuilding", slog.Any("err", err))
			if err := c.rebuild(ctx, lines); err != nil {
				return err
			}
		}
	default:
		if err := c.rebuild(ctx, lines); err != nil {
			return err
		}
	}

	if opts.Focus {
		c.restoreFocus(lines, opts)
	}
	return nil
}

// sameOrder reports whether the rendered id sequence matches lines exactly.
func (c *Controller) sameOrder(lines []script.Line) bool {
	if len(c.order) != len(lines) {
		return false
	}
	for i, ln := range lines {
		if c.order[i] != ln.ID {
			return false
		}
	}
	return true
}

// patchInPlace writes only format and content diffs; no element moves.
func (c *Controller) patchInPlace(lines []script.Line) {
	for _, ln := range lines {
		entry := c.cache[ln.ID]
		data := DataFor(ln)
		if entry.data != data {
			c.view.UpdateElement(entry.el, data)
			entry.data = data
		}
	}
}

// keyedReuse repositions surviving elements, creates new ones and removes the
// rest. Element identity survives for every id present on both sides.
func (c *Controller) keyedReuse(ctx context.Context, lines []script.Line) error {
	if err := c.planner.EnsureCapacity(ctx, c.planner.Required(len(lines))); err != nil {
		return err
	}
	seen := make(map[string]bool, len(lines))
	order := make([]string, len(lines))
	for i, ln := range lines {
		data := DataFor(ln)
		entry, ok := c.cache[ln.ID]
		if ok {
			if entry.data != data {
				c.view.UpdateElement(entry.el, data)
				entry.data = data
			}
		} else {
			entry = &cached{el: c.view.CreateElement(data), data: data}
			c.cache[ln.ID] = entry
		}
		page, slot := c.planner.Position(i)
		c.view.PlaceElement(entry.el, page, slot)
		seen[ln.ID] = true
		order[i] = ln.ID
	}
	for id, entry := range c.cache {
		if !seen[id] {
			c.view.RemoveElement(entry.el)
			delete(c.cache, id)
		}
	}
	c.order = order
	return nil
}

// rebuild clears the view and renders every line fresh.
func (c *Controller) rebuild(ctx context.Context, lines []script.Line) error {
	c.view.Clear()
	c.cache = make(map[string]*cached, len(lines))
	c.order = c.order[:0]
	if err := c.planner.EnsureCapacity(ctx, c.planner.Required(len(lines))); err != nil {
		return err
	}
	for i, ln := range lines {
		data := DataFor(ln)
		entry := &cached{el: c.view.CreateElement(data), data: data}
		c.cache[ln.ID] = entry
		page, slot := c.planner.Position(i)
		c.view.PlaceElement(entry.el, page, slot)
		c.order = append(c.order, ln.ID)
	}
	return nil
}

// safeRebuild is the panic-recovery path; a second panic becomes an error.
func (c *Controller) safeRebuild(ctx context.Context, lines []script.Line) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rebuild panicked: %v", r)
		}
	}()
	return c.rebuild(ctx, lines)
}

// restoreFocus re-applies focus after a pass. Preference order: explicit
// option, previously tracked line, first line of the document.
func (c *Controller) restoreFocus(lines []script.Line, opts Options) {
	id := opts.FocusLineID
	if id == "" {
		id = c.focusID
	}
	if _, ok := c.cache[id]; !ok {
		if len(lines) == 0 {
			c.focusID = ""
			return
		}
		id = lines[0].ID
	}
	c.focusID = id
	if c.caret == nil {
		return
	}
	pos := opts.Caret
	if pos == "" {
		pos = CaretEnd
	}
	if err := c.caret.PlaceCaret(c.cache[id].el, pos); err != nil {
		c.log.Warn("caret placement failed", slog.String("line", id), slog.Any("err", err))
	}
}

// AppendLine renders one new line at the end without a full pass.
func (c *Controller) AppendLine(ctx context.Context, ln script.Line) error {
	idx := len(c.order)
	if err := c.planner.EnsureCapacity(ctx, c.planner.Required(idx+1)); err != nil {
		return err
	}
	data := DataFor(ln)
	entry := &cached{el: c.view.CreateElement(data), data: data}
	c.cache[ln.ID] = entry
	page, slot := c.planner.Position(idx)
	c.view.PlaceElement(entry.el, page, slot)
	c.order = append(c.order, ln.ID)
	return nil
}

// UpdateLineByID patches a single rendered line.
func (c *Controller) UpdateLineByID(ln script.Line) error {
	entry, ok := c.cache[ln.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownElement, ln.ID)
	}
	data := DataFor(ln)
	if entry.data != data {
		c.view.UpdateElement(entry.el, data)
		entry.data = data
	}
	return nil
}

// RemoveLineByID removes one rendered line and compacts the lines after it.
func (c *Controller) RemoveLineByID(ctx context.Context, id string) error {
	entry, ok := c.cache[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownElement, id)
	}
	pos := -1
	for i, oid := range c.order {
		if oid == id {
			pos = i
			break
		}
	}
	c.view.RemoveElement(entry.el)
	delete(c.cache, id)
	if pos < 0 {
		return nil
	}
	c.order = append(c.order[:pos], c.order[pos+1:]...)
	for i := pos; i < len(c.order); i++ {
		page, slot := c.planner.Position(i)
		c.view.PlaceElement(c.cache[c.order[i]].el, page, slot)
	}
	if c.focusID == id {
		c.focusID = ""
	}
	return c.planner.EnsureCapacity(ctx, c.planner.Required(len(c.order)))
}
