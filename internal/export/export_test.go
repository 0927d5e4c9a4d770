/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"goscreenwriter/internal/script"
	"goscreenwriter/internal/storage"
)

func testProject(t *testing.T, lineCount int) *storage.ProjectHandle {
	t.Helper()
	lines := []script.Line{{Format: script.FormatHeader, Content: "INT. OFFICE - DAY"}}
	for i := 1; i < lineCount; i++ {
		lines = append(lines, script.Line{Format: script.FormatAction, Content: fmt.Sprintf("Beat %d.", i)})
	}
	ph, err := storage.InitProject(t.TempDir(), "Export Test", script.FromLines(lines))
	if err != nil {
		t.Fatalf("init project: %v", err)
	}
	return ph
}

func TestExportPDFWritesWellFormedFile(t *testing.T) {
	ph := testProject(t, 5)
	if err := ExportPDF(ph, "script.pdf", PDFOptions{}); err != nil {
		t.Fatalf("export: %v", err)
	}
	out := filepath.Join(ph.Root, "exports", "script.pdf")
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF")) {
		t.Fatalf("output is not a PDF (starts with %q)", b[:min(8, len(b))])
	}
}

func TestExportPDFPaginatesByLineCapacity(t *testing.T) {
	ph := testProject(t, 45)
	if err := ExportPDF(ph, "long.pdf", PDFOptions{MaxLinesPerPage: 20}); err != nil {
		t.Fatalf("export: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(ph.Root, "exports", "long.pdf"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	// 45 lines at 20 per page need 3 pages.
	if got := bytes.Count(b, []byte("/Type /Page\n")); got != 3 {
		t.Fatalf("PDF has %d pages, want 3", got)
	}
}

func TestExportLegacyTextRoundTrips(t *testing.T) {
	ph := testProject(t, 3)
	if err := ExportLegacyText(ph, "script.txt"); err != nil {
		t.Fatalf("export: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(ph.Root, "exports", "script.txt"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(b), "<header>INT. OFFICE - DAY</header>") {
		t.Fatalf("legacy form missing tagged header: %s", b)
	}
	doc := script.ParseLegacy(string(b))
	if doc.LineCount() != ph.Doc.LineCount() {
		t.Fatalf("round trip lost lines: %d vs %d", doc.LineCount(), ph.Doc.LineCount())
	}
}
