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
	"os"
	"testing"
	"time"

	"goscreenwriter/internal/script"
)

func TestInitOrOpenIndexCreatesSchema(t *testing.T) {
	root := t.TempDir()
	db, err := InitOrOpenIndex(root)
	if err != nil {
		t.Fatalf("init index: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(IndexPath(root)); err != nil {
		t.Fatalf("index file missing: %v", err)
	}
	var mode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&mode); err != nil {
		t.Fatalf("journal mode: %v", err)
	}
	if mode != "wal" {
		t.Fatalf("journal mode %q, want wal", mode)
	}
	var schema int
	if err := db.QueryRow("SELECT schema FROM version WHERE id=1").Scan(&schema); err != nil {
		t.Fatalf("version row: %v", err)
	}
	if schema != schemaVersion {
		t.Fatalf("schema %d, want %d", schema, schemaVersion)
	}
}

func TestUpdateIndexAndSearch(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	ph, err := InitProject(root, "idx", script.FromLines([]script.Line{
		{Format: script.FormatHeader, Content: "INT. BARN - DAY"},
		{Format: script.FormatSpeaker, Content: "ANNA"},
		{Format: script.FormatDialog, Content: "The barn door is open."},
		{Format: script.FormatAction, Content: "Wind rattles the door."},
	}))
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := UpdateIndex(ctx, ph); err != nil {
		t.Fatalf("update index: %v", err)
	}

	res, err := Search(ctx, root, SearchQuery{Text: "door"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res) != 2 {
		t.Fatalf("search hits = %d, want 2", len(res))
	}
	if res[0].Position > res[1].Position {
		t.Fatalf("results not in document order")
	}

	res, err = Search(ctx, root, SearchQuery{Text: "door", Formats: []string{"dialog"}})
	if err != nil {
		t.Fatalf("filtered search: %v", err)
	}
	if len(res) != 1 || res[0].Format != "dialog" {
		t.Fatalf("format filter: %+v", res)
	}

	names, err := Speakers(ctx, root)
	if err != nil {
		t.Fatalf("speakers: %v", err)
	}
	if len(names) != 1 || names[0] != "ANNA" {
		t.Fatalf("speakers = %v", names)
	}
}

func TestDetectAndRebuildIndexOnCorruption(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	ph, err := InitProject(root, "p", sampleDoc())
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := UpdateIndex(ctx, ph); err != nil {
		t.Fatalf("update: %v", err)
	}
	// Clobber the database file.
	if err := os.WriteFile(IndexPath(root), []byte("garbage"), 0o644); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	rebuilt, err := DetectAndRebuildIndex(ctx, ph)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if !rebuilt {
		t.Fatalf("corruption not detected")
	}
	res, err := Search(ctx, root, SearchQuery{Text: "light"})
	if err != nil {
		t.Fatalf("search after rebuild: %v", err)
	}
	if len(res) != 1 {
		t.Fatalf("rebuilt index hits = %d", len(res))
	}
}

func TestRevisionHistory(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	ph, err := InitProject(root, "rev", sampleDoc())
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	t0 := time.Now().Add(-3 * time.Minute)
	for i, payload := range []string{"one", "two", "three"} {
		if err := SaveRevision(ctx, ph, payload, t0.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("save revision: %v", err)
		}
	}
	latest, err := LatestRevision(ctx, ph)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.Payload != "three" {
		t.Fatalf("latest payload %q", latest.Payload)
	}
	list, err := ListRevisions(ctx, ph, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 || list[0].Payload != "three" || list[2].Payload != "one" {
		t.Fatalf("list order: %+v", list)
	}
	n, err := PruneRevisions(ctx, ph, 1)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 2 {
		t.Fatalf("pruned %d rows, want 2", n)
	}
	list, _ = ListRevisions(ctx, ph, 10)
	if len(list) != 1 || list[0].Payload != "three" {
		t.Fatalf("prune kept wrong rows: %+v", list)
	}
}

func TestRevisionSinkPersistsEverything(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	ph, err := InitProject(root, "sink", sampleDoc())
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	doc := ph.Doc.Clone()
	lines := doc.Lines()
	payloadDoc := script.FromLines(append(lines, script.Line{Format: script.FormatAction, Content: "She flips the switch."}))
	payload, err := script.Serialize(payloadDoc)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	sink := NewRevisionSink(ph, 5)
	if err := sink.PersistScript(ctx, payload); err != nil {
		t.Fatalf("persist: %v", err)
	}

	got, err := Open(root)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got.Doc.LineCount() != 4 {
		t.Fatalf("manifest holds %d lines, want 4", got.Doc.LineCount())
	}
	latest, err := LatestRevision(ctx, ph)
	if err != nil || latest.Payload == "" {
		t.Fatalf("revision not recorded: %v", err)
	}
	res, err := Search(ctx, root, SearchQuery{Text: "switch"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res) != 1 {
		t.Fatalf("index not refreshed: %d hits", len(res))
	}
}
