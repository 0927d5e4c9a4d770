/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package chapter

import (
	"testing"

	"goscreenwriter/internal/engine"
	"goscreenwriter/internal/script"
)

func newManager() (*Manager, *script.Document) {
	doc := script.FromLines([]script.Line{
		{ID: "a", Format: script.FormatAction, Content: "A"},
		{ID: "b", Format: script.FormatAction, Content: "B"},
		{ID: "c", Format: script.FormatAction, Content: "C"},
	})
	return NewManager(engine.New(engine.DefaultFlow()), doc), doc
}

func TestInsertAssignsMonotonicNumbersWithoutRenumbering(t *testing.T) {
	m, doc := newManager()

	n, _, _, err := m.InsertBreakAfter("b", "")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if n != 1 {
		t.Fatalf("first chapter number = %d, want 1", n)
	}
	if got := m.NextNumber(); got != 2 {
		t.Fatalf("NextNumber after one insert = %d, want 2", got)
	}

	// A second insertion elsewhere gets 2, and the next number becomes 3
	// even though nothing was renumbered.
	n2, _, _, err := m.InsertBreakAfter("a", "")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if n2 != 2 {
		t.Fatalf("second chapter number = %d, want 2", n2)
	}
	if got := m.NextNumber(); got != 3 {
		t.Fatalf("NextNumber = %d, want 3", got)
	}
	// Document order now holds chapter 2 before chapter 1.
	if nums := m.Numbers(); len(nums) != 2 || nums[0] != 2 || nums[1] != 1 {
		t.Fatalf("numbers in document order = %v", nums)
	}
	if doc.LineCount() != 5 {
		t.Fatalf("line count = %d, want 5", doc.LineCount())
	}
}

func TestDeleteLeavesGapUntilRenumber(t *testing.T) {
	m, _ := newManager()
	for i := 0; i < 3; i++ {
		if _, _, _, err := m.InsertBreakAfter("c", ""); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	if _, err := m.DeleteByNumber(2); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := m.NextNumber(); got != 4 {
		t.Fatalf("NextNumber with gap = %d, want 4", got)
	}
	if _, ok := m.ByNumber(2); ok {
		t.Fatalf("chapter 2 should be gone")
	}

	if _, err := m.Renumber(); err != nil {
		t.Fatalf("renumber: %v", err)
	}
	nums := m.Numbers()
	if len(nums) != 2 {
		t.Fatalf("chapter count after renumber = %d", len(nums))
	}
	for i, n := range nums {
		if n != i+1 {
			t.Fatalf("numbers after renumber = %v, want contiguous from 1", nums)
		}
	}
	if got := m.NextNumber(); got != 3 {
		t.Fatalf("NextNumber after renumber = %d, want 3", got)
	}
}

func TestRenumberKeepsTitles(t *testing.T) {
	m, _ := newManager()
	if _, _, _, err := m.InsertBreakAfter("a", "The Setup"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, _, _, err := m.InsertBreakAfter("c", "The Payoff"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := m.DeleteByNumber(1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := m.Renumber(); err != nil {
		t.Fatalf("renumber: %v", err)
	}
	ln, ok := m.ByNumber(1)
	if !ok {
		t.Fatalf("no chapter 1 after renumber")
	}
	if ln.Content != "Chapter 1: The Payoff" {
		t.Fatalf("title lost on renumber: %q", ln.Content)
	}
}

func TestBreakContentRoundTrip(t *testing.T) {
	cases := []struct {
		n     int
		title string
		want  string
	}{
		{1, "", "Chapter 1"},
		{12, "The End", "Chapter 12: The End"},
		{3, "  padded  ", "Chapter 3: padded"},
	}
	for _, c := range cases {
		got := BreakContent(c.n, c.title)
		if got != c.want {
			t.Fatalf("BreakContent(%d, %q) = %q, want %q", c.n, c.title, got, c.want)
		}
		n, ok := ParseNumber(got)
		if !ok || n != c.n {
			t.Fatalf("ParseNumber(%q) = %d,%v", got, n, ok)
		}
	}
	if _, ok := ParseNumber("Not a chapter"); ok {
		t.Fatalf("ParseNumber accepted junk")
	}
}
