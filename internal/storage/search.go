/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * Licensed under the Apache License, Version 2.0.
 */
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// SearchQuery describes the in-app search request.
// Text uses SQLite FTS5 syntax (simple terms, phrases in quotes, AND/OR/NOT).
// Formats can restrict matches to line formats (speaker, dialog, ...).
// Limit/Offset implement pagination; reasonable defaults applied if zero.
type SearchQuery struct {
	Text    string
	Formats []string
	Limit   int
	Offset  int
}

// SearchResult represents a single matched line. Snippet is a highlighted
// excerpt using [ ] markers when FTS text is used. Position is the line's
// document index at the time the index was built.
type SearchResult struct {
	LineID   string
	Format   string
	Position int
	Content  string
	Snippet  string
}

// Search performs full-text search with optional filters over the embedded
// line index. When q.Text is empty, it falls back to a non-FTS scan over
// lines with filters applied.
func Search(ctx context.Context, projectRoot string, q SearchQuery) ([]SearchResult, error) {
	if strings.TrimSpace(projectRoot) == "" {
		return nil, errors.New("project root is required")
	}
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return searchDB(ctx, db, q)
}

func searchDB(ctx context.Context, db *sql.DB, q SearchQuery) ([]SearchResult, error) {
	var args []any
	var sb strings.Builder
	useFTS := strings.TrimSpace(q.Text) != ""
	if useFTS {
		sb.WriteString("SELECT l.line_id, l.format, l.position, l.content, snippet(fts_lines, 0, '[', ']', '…', 10)\n")
		sb.WriteString("FROM fts_lines JOIN lines l ON fts_lines.rowid = l.rowid_id\n")
		sb.WriteString("WHERE fts_lines MATCH ?\n")
		args = append(args, q.Text)
	} else {
		sb.WriteString("SELECT l.line_id, l.format, l.position, l.content, ''\n")
		sb.WriteString("FROM lines l\nWHERE 1=1\n")
	}
	if len(q.Formats) > 0 {
		sb.WriteString(" AND l.format IN (" + placeholders(len(q.Formats)) + ")\n")
		for _, f := range q.Formats {
			args = append(args, f)
		}
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	sb.WriteString("ORDER BY l.position\n")
	sb.WriteString("LIMIT ? OFFSET ?")
	args = append(args, limit, q.Offset)

	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()
	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		var sn sql.NullString
		if err := rows.Scan(&r.LineID, &r.Format, &r.Position, &r.Content, &sn); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if sn.Valid {
			r.Snippet = sn.String
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Speakers returns the distinct speaker names in the index, in first-seen
// document order. It backs cross-project completion lists.
func Speakers(ctx context.Context, projectRoot string) ([]string, error) {
	db, err := InitOrOpenIndex(projectRoot)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	rows, err := db.QueryContext(ctx,
		`SELECT content FROM lines WHERE format='speaker' AND trim(content) <> '' ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("speakers query: %w", err)
	}
	defer rows.Close()
	seen := make(map[string]struct{})
	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		name := strings.ToUpper(strings.TrimSpace(c))
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	b := strings.Builder{}
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("?")
	}
	return b.String()
}
