/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor wires the document model, the command engine, the render
// controller, chapter numbering, undo history, speaker completion and the
// debounced persistence notifier into one editing service. Every operation
// that touches the document runs through the operation sequencer, so there is
// never more than one mutation (including its render step) in flight.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"goscreenwriter/internal/chapter"
	"goscreenwriter/internal/engine"
	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/notify"
	"goscreenwriter/internal/queue"
	"goscreenwriter/internal/render"
	"goscreenwriter/internal/script"
	"goscreenwriter/internal/suggest"
	"goscreenwriter/internal/undo"
)

// ErrNoHistory is returned when undo or redo has nothing to replay.
var ErrNoHistory = errors.New("editor: history empty")

// Options configures a Service. View is required; everything else has
// defaults.
type Options struct {
	View            render.View
	Caret           render.Caret
	Sink            notify.Sink
	MaxLinesPerPage int
	AutosaveDelay   time.Duration
	QueueBuffer     int
	Undo            undo.Config
}

// Service is the single entry point for editing one open document.
type Service struct {
	doc      *script.Document
	eng      *engine.Engine
	seq      *queue.Sequencer
	ctrl     *render.Controller
	chapters *chapter.Manager
	history  *undo.Manager
	notifier *notify.Notifier
	tracker  *suggest.Tracker
	log      *slog.Logger
}

// New builds a service around doc. A nil doc starts an empty document.
func New(doc *script.Document, opts Options) *Service {
	if doc == nil {
		doc = script.New()
	}
	if opts.QueueBuffer <= 0 {
		opts.QueueBuffer = 64
	}
	eng := engine.New(engine.DefaultFlow())
	s := &Service{
		doc:      doc,
		eng:      eng,
		seq:      queue.New(opts.QueueBuffer),
		ctrl:     render.NewController(opts.View, opts.Caret, opts.MaxLinesPerPage),
		history:  undo.NewManager(opts.Undo),
		tracker:  &suggest.Tracker{},
		log:      applog.WithComponent("editor"),
	}
	s.chapters = chapter.NewManager(eng, doc)
	s.notifier = notify.New(opts.AutosaveDelay, s.snapshot, opts.Sink)
	return s
}

// snapshot serializes the document on the sequencer, so the notifier's timer
// goroutine never reads the document concurrently with a mutation.
func (s *Service) snapshot() ([]byte, error) {
	v, err := s.seq.Enqueue(context.Background(), func(context.Context) (any, error) {
		return script.Serialize(s.doc)
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Notifier exposes the persistence notifier (for callbacks and Flush).
func (s *Service) Notifier() *notify.Notifier { return s.notifier }

// Controller exposes the render controller (read-side helpers only; mutation
// stays behind the service methods).
func (s *Service) Controller() *render.Controller { return s.ctrl }

// Chapters exposes read-side chapter queries.
func (s *Service) Chapters() *chapter.Manager { return s.chapters }

// Lines returns the current ordered line list.
func (s *Service) Lines(ctx context.Context) ([]script.Line, error) {
	v, err := s.seq.Enqueue(ctx, func(context.Context) (any, error) {
		return s.doc.Lines(), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]script.Line), nil
}

// Render performs a full reconciliation pass, focusing the first line.
func (s *Service) Render(ctx context.Context) error {
	_, err := s.seq.Enqueue(ctx, func(ctx context.Context) (any, error) {
		return nil, s.ctrl.Reconcile(ctx, s.doc, render.Options{Focus: true})
	})
	return err
}

// mutate runs cmds as one atomic batch on the sequencer, records history,
// reconciles the view and arms the autosave debounce. focusID receives the
// caret when non-empty.
func (s *Service) mutate(ctx context.Context, cmds []engine.Command, focusID string) (*engine.Result, error) {
	v, err := s.seq.Enqueue(ctx, func(ctx context.Context) (any, error) {
		res, err := s.eng.Apply(s.doc, cmds)
		if err != nil {
			return nil, err
		}
		if len(res.Inverse) > 0 {
			s.history.Push(undo.Batch{Forward: cmds, Inverse: res.Inverse, TS: time.Now()})
		}
		if err := s.ctrl.Reconcile(ctx, s.doc, render.Options{
			AllowInPlace: true,
			Focus:        focusID != "",
			FocusLineID:  focusID,
		}); err != nil {
			return nil, err
		}
		if len(res.Inverse) > 0 {
			s.notifier.MarkChanged()
		}
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*engine.Result), nil
}

// InsertLineAfter creates a new line after afterID. When format is empty the
// flow table picks the natural successor of the reference line's format.
func (s *Service) InsertLineAfter(ctx context.Context, afterID string, format script.Format, content string) (script.Line, error) {
	v, err := s.seq.Enqueue(ctx, func(ctx context.Context) (any, error) {
		ref, ok := s.doc.LineByID(afterID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", engine.ErrUnknownLine, afterID)
		}
		if format == "" {
			format = s.eng.Flow().NextOnCommit(ref.Format)
		}
		ln := script.NewLine(format, content)
		cmds := []engine.Command{engine.AddAfter(afterID, ln)}
		res, err := s.eng.Apply(s.doc, cmds)
		if err != nil {
			return nil, err
		}
		s.history.Push(undo.Batch{Forward: cmds, Inverse: res.Inverse, TS: time.Now()})
		if err := s.ctrl.Reconcile(ctx, s.doc, render.Options{
			AllowInPlace: true, Focus: true, FocusLineID: ln.ID, Caret: render.CaretStart,
		}); err != nil {
			return nil, err
		}
		s.notifier.MarkChanged()
		return ln, nil
	})
	if err != nil {
		return script.Line{}, err
	}
	return v.(script.Line), nil
}

// SyncContent writes the line's edited text back into the model. A content
// sync that changes nothing produces no history entry and no autosave.
func (s *Service) SyncContent(ctx context.Context, id, content string) error {
	res, err := s.mutate(ctx, []engine.Command{engine.EditContent(id, content)}, "")
	if err != nil {
		return err
	}
	if len(res.Results) == 1 && !res.Results[0].NoOp {
		s.log.Debug("content synced", slog.String("line", id))
	}
	return nil
}

// ChangeFormat assigns a format to the line.
func (s *Service) ChangeFormat(ctx context.Context, id string, f script.Format) error {
	_, err := s.mutate(ctx, []engine.Command{engine.EditFormat(id, f)}, id)
	return err
}

// CycleFormat rotates the line's format one step through the cycle order.
// dir > 0 cycles right, dir < 0 cycles left.
func (s *Service) CycleFormat(ctx context.Context, id string, dir int) (script.Format, error) {
	v, err := s.seq.Enqueue(ctx, func(ctx context.Context) (any, error) {
		ln, ok := s.doc.LineByID(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", engine.ErrUnknownLine, id)
		}
		var next script.Format
		if dir < 0 {
			next = s.eng.Flow().CycleLeft(ln.Format)
		} else {
			next = s.eng.Flow().CycleRight(ln.Format)
		}
		cmds := []engine.Command{engine.EditFormat(id, next)}
		res, err := s.eng.Apply(s.doc, cmds)
		if err != nil {
			return nil, err
		}
		s.history.Push(undo.Batch{Forward: cmds, Inverse: res.Inverse, TS: time.Now()})
		if err := s.ctrl.Reconcile(ctx, s.doc, render.Options{
			AllowInPlace: true, Focus: true, FocusLineID: id,
		}); err != nil {
			return nil, err
		}
		s.notifier.MarkChanged()
		return next, nil
	})
	if err != nil {
		return "", err
	}
	return v.(script.Format), nil
}

// DeleteLines removes the given lines as one atomic batch.
func (s *Service) DeleteLines(ctx context.Context, ids ...string) error {
	cmds := make([]engine.Command, len(ids))
	for i, id := range ids {
		cmds[i] = engine.Delete(id)
	}
	_, err := s.mutate(ctx, cmds, "")
	return err
}

// MergeLines appends fromID's content onto toID and removes fromID. The
// caret lands at the end of the merged line.
func (s *Service) MergeLines(ctx context.Context, toID, fromID string) error {
	_, err := s.mutate(ctx, []engine.Command{engine.Merge(toID, fromID)}, toID)
	return err
}

// InsertChapterBreak places a chapter marker after afterID and returns the
// assigned chapter number.
func (s *Service) InsertChapterBreak(ctx context.Context, afterID, title string) (int, error) {
	v, err := s.seq.Enqueue(ctx, func(ctx context.Context) (any, error) {
		n, ln, res, err := s.chapters.InsertBreakAfter(afterID, title)
		if err != nil {
			return nil, err
		}
		s.history.Push(undo.Batch{
			Forward: []engine.Command{engine.AddAfter(afterID, ln)},
			Inverse: res.Inverse,
			TS:      time.Now(),
		})
		if err := s.ctrl.Reconcile(ctx, s.doc, render.Options{
			AllowInPlace: true, Focus: true, FocusLineID: ln.ID,
		}); err != nil {
			return nil, err
		}
		s.notifier.MarkChanged()
		return n, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// RenumberChapters compacts chapter numbering to a contiguous 1..N.
func (s *Service) RenumberChapters(ctx context.Context) error {
	_, err := s.seq.Enqueue(ctx, func(ctx context.Context) (any, error) {
		res, err := s.chapters.Renumber()
		if err != nil {
			return nil, err
		}
		if len(res.Inverse) > 0 {
			// Rebuild the forward edits from the now-renumbered document so
			// redo can replay them.
			fwd := make([]engine.Command, 0, len(res.Inverse))
			for _, inv := range res.Inverse {
				if ln, ok := s.doc.LineByID(inv.ID); ok {
					fwd = append(fwd, engine.EditContent(ln.ID, ln.Content))
				}
			}
			s.history.Push(undo.Batch{Forward: fwd, Inverse: res.Inverse, TS: time.Now()})
			s.notifier.MarkChanged()
		}
		return nil, s.ctrl.Reconcile(ctx, s.doc, render.Options{AllowInPlace: true})
	})
	return err
}

// Undo reverts the newest history step by applying its inverse commands in
// reverse order.
func (s *Service) Undo(ctx context.Context) error {
	_, err := s.seq.Enqueue(ctx, func(ctx context.Context) (any, error) {
		b, ok := s.history.Undo()
		if !ok {
			return nil, ErrNoHistory
		}
		if _, err := s.eng.Apply(s.doc, reversed(b.Inverse)); err != nil {
			return nil, fmt.Errorf("undo replay: %w", err)
		}
		if err := s.ctrl.Reconcile(ctx, s.doc, render.Options{AllowInPlace: true, Focus: true}); err != nil {
			return nil, err
		}
		s.notifier.MarkChanged()
		return nil, nil
	})
	return err
}

// Redo re-applies the newest undone step's forward commands.
func (s *Service) Redo(ctx context.Context) error {
	_, err := s.seq.Enqueue(ctx, func(ctx context.Context) (any, error) {
		b, ok := s.history.Redo()
		if !ok {
			return nil, ErrNoHistory
		}
		if _, err := s.eng.Apply(s.doc, b.Forward); err != nil {
			return nil, fmt.Errorf("redo replay: %w", err)
		}
		if err := s.ctrl.Reconcile(ctx, s.doc, render.Options{AllowInPlace: true, Focus: true}); err != nil {
			return nil, err
		}
		s.notifier.MarkChanged()
		return nil, nil
	})
	return err
}

// CanUndo reports whether history has a step to revert.
func (s *Service) CanUndo() bool { return s.history.CanUndo() }

// CanRedo reports whether history has a step to replay.
func (s *Service) CanRedo() bool { return s.history.CanRedo() }

// Suggest observes the focused line and returns a speaker completion, if one
// applies. The matcher is harvested fresh so new speaker names take effect
// immediately.
func (s *Service) Suggest(ctx context.Context, lineID string, focused bool) (suggest.Suggestion, bool, error) {
	type out struct {
		s  suggest.Suggestion
		ok bool
	}
	v, err := s.seq.Enqueue(ctx, func(context.Context) (any, error) {
		ln, found := s.doc.LineByID(lineID)
		if !found {
			s.tracker.Clear()
			return out{}, nil
		}
		sg, ok := s.tracker.Observe(suggest.NewMatcher(s.doc), ln, focused)
		return out{s: sg, ok: ok}, nil
	})
	if err != nil {
		return suggest.Suggestion{}, false, err
	}
	o := v.(out)
	return o.s, o.ok, nil
}

// AcceptSuggestion commits the active suggestion into its line.
func (s *Service) AcceptSuggestion(ctx context.Context) error {
	_, err := s.seq.Enqueue(ctx, func(ctx context.Context) (any, error) {
		id, sg, active := s.tracker.Active()
		if !active {
			return nil, errors.New("editor: no active suggestion")
		}
		s.tracker.Clear()
		cmds := []engine.Command{engine.EditContent(id, sg.Candidate)}
		res, err := s.eng.Apply(s.doc, cmds)
		if err != nil {
			return nil, err
		}
		if len(res.Inverse) > 0 {
			s.history.Push(undo.Batch{Forward: cmds, Inverse: res.Inverse, TS: time.Now()})
			s.notifier.MarkChanged()
		}
		return nil, s.ctrl.Reconcile(ctx, s.doc, render.Options{
			AllowInPlace: true, Focus: true, FocusLineID: id, Caret: render.CaretEnd,
		})
	})
	return err
}

// Serialize returns the current persisted form of the document.
func (s *Service) Serialize(ctx context.Context) ([]byte, error) {
	v, err := s.seq.Enqueue(ctx, func(context.Context) (any, error) {
		return script.Serialize(s.doc)
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Flush forces a pending autosave out immediately.
func (s *Service) Flush(ctx context.Context) error {
	return s.notifier.Flush(ctx)
}

// Close flushes pending persistence and stops the sequencer.
func (s *Service) Close(ctx context.Context) error {
	err := s.notifier.Flush(ctx)
	s.notifier.Close()
	s.seq.Close()
	return err
}

func reversed(cmds []engine.Command) []engine.Command {
	out := make([]engine.Command, len(cmds))
	for i, c := range cmds {
		out[len(cmds)-1-i] = c
	}
	return out
}
