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
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "goscreenwriter/internal/log"
	"goscreenwriter/internal/script"
	"goscreenwriter/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// IndexDirName stores all per-project ephemeral/index data under the
	// project root.
	IndexDirName  = ".gsw"
	IndexFileName = "index.sqlite"

	// schemaVersion tracks the local SQLite schema for the embedded index.
	// Bump this when you perform breaking schema changes and add migrations.
	schemaVersion = 1
)

// IndexPath returns the full path to the project's embedded index database.
func IndexPath(projectRoot string) string {
	return filepath.Join(projectRoot, IndexDirName, IndexFileName)
}

// InitOrOpenIndex ensures that the per-project SQLite index exists at
// .gsw/index.sqlite, opens the database, enables WAL mode, and ensures the
// meta/version tables plus the line index schema exist.
func InitOrOpenIndex(projectRoot string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_init").With(
		slog.String("root", projectRoot),
	)
	if strings.TrimSpace(projectRoot) == "" {
		return nil, errors.New("project root is required")
	}
	if err := os.MkdirAll(filepath.Join(projectRoot, IndexDirName), 0o755); err != nil {
		l.Error("create .gsw dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create .gsw dir: %w", err)
	}

	path := IndexPath(projectRoot)
	uriPath := filepath.ToSlash(path)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", uriPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		l.Warn("enable foreign_keys failed", slog.Any("err", err))
	}

	if err := ensureMetaAndVersion(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure meta/version failed", slog.Any("err", err))
		return nil, err
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure index schema failed", slog.Any("err", err))
		return nil, err
	}

	l.Info("index ready", slog.String("path", path))
	return db, nil
}

func ensureMetaAndVersion(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var curSchema int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&curSchema)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		// Update app and timestamp only; keep existing schema for migrations.
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// ensureIndexSchema creates the line index tables and FTS structures if they
// do not exist. The lines table mirrors the manifest's line list; the
// contentless FTS index is kept in sync via triggers.
func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS lines (
			rowid_id INTEGER PRIMARY KEY,
			line_id  TEXT    NOT NULL UNIQUE,
			position INTEGER NOT NULL,
			format   TEXT    NOT NULL,
			content  TEXT    NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_lines_position ON lines(position);`,
		`CREATE INDEX IF NOT EXISTS idx_lines_format ON lines(format);`,

		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_lines USING fts5(
			content,
			content='',
			tokenize = 'unicode61'
		);`,

		// Revision history: full serialized envelopes for change tracking.
		`CREATE TABLE IF NOT EXISTS revisions (
			id      INTEGER PRIMARY KEY,
			ts      TEXT    NOT NULL,
			payload TEXT    NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_revisions_ts ON revisions(ts);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure index schema: %w", err)
		}
	}
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS lines_ai AFTER INSERT ON lines BEGIN
			INSERT INTO fts_lines(rowid, content) VALUES (new.rowid_id, new.content);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS lines_ad AFTER DELETE ON lines BEGIN
			INSERT INTO fts_lines(fts_lines, rowid, content) VALUES ('delete', old.rowid_id, old.content);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS lines_au AFTER UPDATE OF content ON lines BEGIN
			INSERT INTO fts_lines(fts_lines, rowid, content) VALUES ('delete', old.rowid_id, old.content);
			INSERT INTO fts_lines(rowid, content) VALUES (new.rowid_id, new.content);
		END;`,
	}
	for _, q := range triggers {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure fts triggers: %w", err)
		}
	}
	return nil
}

// UpdateIndex replaces the line index content from the handle's document.
// The index is derived data; this is always safe to re-run.
func UpdateIndex(ctx context.Context, ph *ProjectHandle) error {
	if ph == nil {
		return errors.New("nil ProjectHandle")
	}
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		return err
	}
	defer db.Close()
	return rebuildLines(ctx, db, ph.Doc)
}

// DetectAndRebuildIndex checks for corruption or missing schema and rebuilds
// the index if needed. It returns true when a rebuild was performed.
func DetectAndRebuildIndex(ctx context.Context, ph *ProjectHandle) (bool, error) {
	if ph == nil {
		return false, errors.New("nil ProjectHandle")
	}
	path := IndexPath(ph.Root)
	db, err := InitOrOpenIndex(ph.Root)
	if err != nil {
		backupIndexFile(path)
		_ = os.Remove(path)
		if rbErr := UpdateIndex(ctx, ph); rbErr != nil {
			return false, fmt.Errorf("rebuild after open failure: %w (open err: %v)", rbErr, err)
		}
		return true, nil
	}
	defer db.Close()
	needs := false
	var chk string
	if err := db.QueryRowContext(ctx, `PRAGMA quick_check;`).Scan(&chk); err != nil || !strings.Contains(strings.ToLower(chk), "ok") {
		needs = true
	}
	if !needs {
		if _, err := db.ExecContext(ctx, `SELECT 1 FROM lines LIMIT 1;`); err != nil {
			needs = true
		}
	}
	if !needs {
		return false, nil
	}
	backupIndexFile(path)
	_ = os.Remove(path)
	if err := UpdateIndex(ctx, ph); err != nil {
		return false, err
	}
	return true, nil
}

// backupIndexFile copies the current index file into a timestamped backup in
// .gsw/backups.
func backupIndexFile(indexPath string) {
	bdir := filepath.Join(filepath.Dir(indexPath), "backups")
	_ = os.MkdirAll(bdir, 0o755)
	stamp := time.Now().Format("20060102-150405")
	bak := filepath.Join(bdir, fmt.Sprintf("%s.%s.bak", filepath.Base(indexPath), stamp))
	if data, err := os.ReadFile(indexPath); err == nil {
		_ = os.WriteFile(bak, data, 0o644)
	}
}

// rebuildLines replaces the lines table content from doc in one transaction.
func rebuildLines(ctx context.Context, db *sql.DB, doc *script.Document) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM lines;"); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear lines: %w", err)
	}
	ins, err := tx.PrepareContext(ctx, "INSERT INTO lines(line_id, position, format, content) VALUES(?,?,?,?);")
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer ins.Close()
	for i, ln := range doc.Lines() {
		if _, err := ins.ExecContext(ctx, ln.ID, i, string(ln.Format), ln.Content); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert line: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
