/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package engine applies structured mutation commands to a screenplay
// document. Batches are atomic: every command is validated against the
// evolving in-batch state, and a single invalid command rejects the whole
// batch without touching the document. Each applied batch yields the inverse
// commands needed for exact undo.
package engine

import (
	"fmt"
	"log/slog"

	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/script"
)

// Engine validates and applies command batches. The format-flow table is
// injected configuration; the engine consults it only to suggest formats for
// synthesized lines.
type Engine struct {
	flow FlowTable
	log  *slog.Logger
}

// New creates an engine with the given flow table.
func New(flow FlowTable) *Engine {
	return &Engine{flow: flow, log: applog.WithComponent("engine")}
}

// Flow returns the injected format-flow table.
func (e *Engine) Flow() FlowTable { return e.flow }

// Apply applies cmds to doc as an atomic batch. On success doc is mutated and
// the result carries per-command outcomes plus the inverse command list
// (undo = apply Inverse in reverse order). On any validation error doc is
// left untouched and a wrapped sentinel error is returned.
func (e *Engine) Apply(doc *script.Document, cmds []Command) (*Result, error) {
	if len(cmds) == 0 {
		return &Result{}, nil
	}
	staged := doc.Clone()
	res := &Result{Results: make([]CommandResult, 0, len(cmds))}
	for i, cmd := range cmds {
		cr, inv, err := e.applyOne(staged, cmd)
		if err != nil {
			e.log.Debug("batch rejected",
				slog.Int("command", i), slog.String("op", string(cmd.Op)), slog.Any("err", err))
			return nil, fmt.Errorf("command %d (%s): %w", i, cmd.Op, err)
		}
		res.Results = append(res.Results, cr)
		res.Inverse = append(res.Inverse, inv...)
	}
	doc.CopyFrom(staged)
	return res, nil
}

func (e *Engine) applyOne(doc *script.Document, cmd Command) (CommandResult, []Command, error) {
	switch cmd.Op {
	case OpAdd:
		return e.applyAdd(doc, cmd)
	case OpEdit:
		return e.applyEdit(doc, cmd)
	case OpDelete:
		return e.applyDelete(doc, cmd)
	case OpMergeLines:
		return e.applyMerge(doc, cmd)
	default:
		return CommandResult{}, nil, fmt.Errorf("%w: unknown op %q", ErrBadCommand, cmd.Op)
	}
}

func (e *Engine) applyAdd(doc *script.Document, cmd Command) (CommandResult, []Command, error) {
	ln := cmd.Line
	if ln.ID == "" {
		ln = script.NewLine(ln.Format, ln.Content)
	}
	if !ln.Format.Valid() {
		ln.Format = script.FormatAction
	}
	var at int
	switch {
	case cmd.AfterID != "":
		idx := doc.IndexOf(cmd.AfterID)
		if idx < 0 {
			return CommandResult{}, nil, fmt.Errorf("%w: after %s", ErrUnknownLine, cmd.AfterID)
		}
		at = idx + 1
	case cmd.Index != nil:
		at = *cmd.Index
		if at < 0 || at > doc.LineCount() {
			return CommandResult{}, nil, fmt.Errorf("%w: %d of %d", ErrBadIndex, at, doc.LineCount())
		}
	default:
		return CommandResult{}, nil, fmt.Errorf("%w: ADD needs an index or afterId", ErrBadCommand)
	}
	if err := doc.InsertAt(at, ln); err != nil {
		return CommandResult{}, nil, fmt.Errorf("%w: %v", ErrBadCommand, err)
	}
	return CommandResult{Op: OpAdd, ID: ln.ID, Index: at}, []Command{Delete(ln.ID)}, nil
}

func (e *Engine) applyEdit(doc *script.Document, cmd Command) (CommandResult, []Command, error) {
	idx := doc.IndexOf(cmd.ID)
	if idx < 0 {
		return CommandResult{}, nil, fmt.Errorf("%w: %s", ErrUnknownLine, cmd.ID)
	}
	cur, _ := doc.LineAt(idx)
	next := cur
	if cmd.Content != nil {
		next.Content = *cmd.Content
	}
	if cmd.Format != nil {
		next.Format = script.ParseFormat(string(*cmd.Format))
	}
	if next == cur {
		// Redundant save; succeed without producing an undo entry.
		return CommandResult{Op: OpEdit, ID: cur.ID, Index: idx, NoOp: true}, nil, nil
	}
	// The first line anchors the document structure; its format is locked.
	if idx == 0 && next.Format != cur.Format {
		return CommandResult{}, nil, ErrFirstLineLocked
	}
	if err := doc.SetAt(idx, next); err != nil {
		return CommandResult{}, nil, fmt.Errorf("%w: %v", ErrBadCommand, err)
	}
	return CommandResult{Op: OpEdit, ID: cur.ID, Index: idx},
		[]Command{Edit(cur.ID, cur.Content, cur.Format)}, nil
}

func (e *Engine) applyDelete(doc *script.Document, cmd Command) (CommandResult, []Command, error) {
	idx := doc.IndexOf(cmd.ID)
	if idx < 0 {
		return CommandResult{}, nil, fmt.Errorf("%w: %s", ErrUnknownLine, cmd.ID)
	}
	if doc.LineCount() == 1 {
		return CommandResult{}, nil, ErrLastLine
	}
	removed, err := doc.RemoveAt(idx)
	if err != nil {
		return CommandResult{}, nil, fmt.Errorf("%w: %v", ErrBadCommand, err)
	}
	return CommandResult{Op: OpDelete, ID: removed.ID, Index: idx},
		[]Command{AddAt(idx, removed)}, nil
}

func (e *Engine) applyMerge(doc *script.Document, cmd Command) (CommandResult, []Command, error) {
	if cmd.ToID == cmd.FromID {
		return CommandResult{}, nil, fmt.Errorf("%w: merge target equals source", ErrBadCommand)
	}
	to, ok := doc.LineByID(cmd.ToID)
	if !ok {
		return CommandResult{}, nil, fmt.Errorf("%w: %s", ErrUnknownLine, cmd.ToID)
	}
	fromIdx := doc.IndexOf(cmd.FromID)
	if fromIdx < 0 {
		return CommandResult{}, nil, fmt.Errorf("%w: %s", ErrUnknownLine, cmd.FromID)
	}
	from, _ := doc.LineAt(fromIdx)

	merged := to
	merged.Content = to.Content + from.Content
	if err := doc.SetAt(doc.IndexOf(to.ID), merged); err != nil {
		return CommandResult{}, nil, fmt.Errorf("%w: %v", ErrBadCommand, err)
	}
	if _, err := doc.RemoveAt(doc.IndexOf(from.ID)); err != nil {
		return CommandResult{}, nil, fmt.Errorf("%w: %v", ErrBadCommand, err)
	}
	// Undo re-adds the source line first, then restores the target content
	// (inverse commands run in reverse order).
	inv := []Command{
		Edit(to.ID, to.Content, to.Format),
		AddAt(fromIdx, from),
	}
	return CommandResult{Op: OpMergeLines, ID: to.ID, Index: fromIdx}, inv, nil
}
