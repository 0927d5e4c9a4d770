/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// language=SQL
// dialect=SQLite
const insertRevisionSQL = `INSERT INTO revisions(ts, payload) VALUES (?, ?)`

// language=SQL
// dialect=SQLite
const selectLatestRevisionSQL = `SELECT ts, payload FROM revisions ORDER BY ts DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const listRevisionsSQL = `SELECT ts, payload FROM revisions ORDER BY ts DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneRevisionsSQL = `DELETE FROM revisions WHERE id NOT IN (
	SELECT id FROM revisions ORDER BY ts DESC LIMIT ?
)`

// Revision is one stored document state.
type Revision struct {
	TS      time.Time
	Payload string
}

// SaveRevision persists a full serialized document with a timestamp. The
// index database is ephemeral and derived; this history is meant for editor
// change tracking, not canonical storage.
func SaveRevision(ctx context.Context, ph *ProjectHandle, payload string, ts time.Time) error {
	if ph == nil {
		return errors.New("nil ProjectHandle")
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	_, err = db.ExecContext(ctx, insertRevisionSQL, ts.UTC().Format(time.RFC3339Nano), payload)
	return err
}

// LatestRevision returns the newest stored revision, or a zero value when
// none exists.
func LatestRevision(ctx context.Context, ph *ProjectHandle) (Revision, error) {
	if ph == nil {
		return Revision{}, errors.New("nil ProjectHandle")
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return Revision{}, err
	}
	defer func() { _ = db.Close() }()
	var tsStr, payload string
	err = db.QueryRowContext(ctx, selectLatestRevisionSQL).Scan(&tsStr, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Revision{}, nil
	}
	if err != nil {
		return Revision{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, tsStr)
	if err != nil {
		return Revision{Payload: payload}, nil
	}
	return Revision{TS: ts, Payload: payload}, nil
}

// ListRevisions returns up to limit most recent revisions, newest first.
func ListRevisions(ctx context.Context, ph *ProjectHandle, limit int) ([]Revision, error) {
	if ph == nil {
		return nil, errors.New("nil ProjectHandle")
	}
	if limit <= 0 {
		limit = 50
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	rows, err := db.QueryContext(ctx, listRevisionsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Revision
	for rows.Next() {
		var tsStr, payload string
		if err := rows.Scan(&tsStr, &payload); err != nil {
			return nil, err
		}
		ts, _ := time.Parse(time.RFC3339Nano, tsStr)
		out = append(out, Revision{TS: ts, Payload: payload})
	}
	return out, rows.Err()
}

// PruneRevisions keeps at most keepLast revisions and deletes older ones.
func PruneRevisions(ctx context.Context, ph *ProjectHandle, keepLast int) (int64, error) {
	if ph == nil {
		return 0, errors.New("nil ProjectHandle")
	}
	if keepLast <= 0 {
		return 0, nil
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()
	res, err := db.ExecContext(ctx, pruneRevisionsSQL, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
