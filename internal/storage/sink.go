/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/script"
)

// DefaultKeepRevisions bounds the revision history kept in the index.
const DefaultKeepRevisions = 200

// RevisionSink receives debounced document payloads from the editor and
// persists them: the manifest is saved transactionally, a revision row is
// appended to the index, and the line index is refreshed. It satisfies the
// editor's persistence sink interface.
type RevisionSink struct {
	ph   *ProjectHandle
	keep int
	log  *slog.Logger
}

// NewRevisionSink creates a sink bound to an open project. keep bounds the
// revision history (0 means DefaultKeepRevisions).
func NewRevisionSink(ph *ProjectHandle, keep int) *RevisionSink {
	if keep <= 0 {
		keep = DefaultKeepRevisions
	}
	return &RevisionSink{ph: ph, keep: keep, log: applog.WithComponent("storage")}
}

// PersistScript writes one serialized document state through to disk.
func (s *RevisionSink) PersistScript(ctx context.Context, payload []byte) error {
	if s.ph == nil {
		return errors.New("sink has no project handle")
	}
	doc, err := script.Parse(payload)
	if err != nil {
		return fmt.Errorf("persist payload: %w", err)
	}
	s.ph.Doc = doc
	if err := Save(s.ph); err != nil {
		return err
	}
	if err := SaveRevision(ctx, s.ph, string(payload), time.Now()); err != nil {
		return err
	}
	if _, err := PruneRevisions(ctx, s.ph, s.keep); err != nil {
		s.log.Warn("revision prune failed", slog.Any("err", err))
	}
	if err := UpdateIndex(ctx, s.ph); err != nil {
		s.log.Warn("index refresh failed", slog.Any("err", err))
	}
	s.log.Debug("script persisted", slog.Int("bytes", len(payload)))
	return nil
}
