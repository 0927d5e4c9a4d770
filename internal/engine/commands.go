/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package engine

import (
	"errors"

	"goscreenwriter/internal/script"
)

// Op tags a mutation command.
type Op string

const (
	OpAdd        Op = "ADD"
	OpEdit       Op = "EDIT"
	OpDelete     Op = "DELETE"
	OpMergeLines Op = "MERGE_LINES"
)

// Command is a structured mutation intent. Exactly one Op applies; unused
// fields stay zero. Commands serialize to JSON so batches (and their
// inverses) can be logged and persisted.
type Command struct {
	Op Op `json:"op"`

	// ADD: the line to insert. An empty Line.ID gets a fresh id assigned.
	// Placement is AfterID when set, otherwise Index.
	Line    script.Line `json:"line,omitempty"`
	Index   *int        `json:"index,omitempty"`
	AfterID string      `json:"afterId,omitempty"`

	// EDIT and DELETE target. A nil Content or Format leaves that field
	// unchanged on EDIT.
	ID      string         `json:"id,omitempty"`
	Content *string        `json:"content,omitempty"`
	Format  *script.Format `json:"format,omitempty"`

	// MERGE_LINES: FromID's content is appended to ToID; FromID is removed.
	ToID   string `json:"toId,omitempty"`
	FromID string `json:"fromId,omitempty"`
}

// Validation sentinels. Apply wraps these with positional context.
var (
	ErrUnknownLine     = errors.New("unknown line id")
	ErrBadIndex        = errors.New("index out of range")
	ErrBadCommand      = errors.New("malformed command")
	ErrLastLine        = errors.New("cannot delete the last remaining line")
	ErrFirstLineLocked = errors.New("format of the first line is locked")
)

// AddAt builds an ADD command inserting ln at an absolute index.
func AddAt(index int, ln script.Line) Command {
	i := index
	return Command{Op: OpAdd, Line: ln, Index: &i}
}

// AddAfter builds an ADD command inserting ln after the line with afterID.
func AddAfter(afterID string, ln script.Line) Command {
	return Command{Op: OpAdd, Line: ln, AfterID: afterID}
}

// EditContent builds an EDIT command replacing only the content of id.
func EditContent(id, content string) Command {
	c := content
	return Command{Op: OpEdit, ID: id, Content: &c}
}

// EditFormat builds an EDIT command replacing only the format of id.
func EditFormat(id string, f script.Format) Command {
	ff := f
	return Command{Op: OpEdit, ID: id, Format: &ff}
}

// Edit builds an EDIT command replacing both content and format of id.
func Edit(id, content string, f script.Format) Command {
	c, ff := content, f
	return Command{Op: OpEdit, ID: id, Content: &c, Format: &ff}
}

// Delete builds a DELETE command for id.
func Delete(id string) Command { return Command{Op: OpDelete, ID: id} }

// Merge builds a MERGE_LINES command appending fromID's content to toID.
func Merge(toID, fromID string) Command {
	return Command{Op: OpMergeLines, ToID: toID, FromID: fromID}
}

// CommandResult describes one successfully applied command.
type CommandResult struct {
	Op    Op     `json:"op"`
	ID    string `json:"id"`    // affected line id
	Index int    `json:"index"` // index of the line after ADD/EDIT, prior index for DELETE/MERGE source
	NoOp  bool   `json:"noop"`  // EDIT matching the current state exactly
}

// Result carries the outcome of an applied batch. Inverse holds the commands
// that undo the batch when applied in reverse order; no-op edits contribute
// nothing to it.
type Result struct {
	Results []CommandResult `json:"results"`
	Inverse []Command       `json:"inverse"`
}
