/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"strings"
	"testing"
)

func TestParseLegacyTaggedLines(t *testing.T) {
	input := `<header>EPISODE ONE</header>
<action>A door creaks open.</action>

<speaker>JOHN</speaker>
<dialog>Anyone home?</dialog>
<bogus>tag is unknown</bogus>
A line without any tag at all
`
	d := ParseLegacy(input)
	if d.LineCount() != 6 {
		t.Fatalf("expected 6 lines (blank dropped), got %d", d.LineCount())
	}
	wantFormats := []Format{FormatHeader, FormatAction, FormatSpeaker, FormatDialog, FormatAction, FormatAction}
	for i, wf := range wantFormats {
		ln, _ := d.LineAt(i)
		if ln.Format != wf {
			t.Fatalf("line %d format = %q, want %q", i, ln.Format, wf)
		}
	}
	// Unknown tag keeps the inner text, untagged keeps the whole line.
	l4, _ := d.LineAt(4)
	if l4.Content != "tag is unknown" {
		t.Fatalf("unknown tag content = %q", l4.Content)
	}
	l5, _ := d.LineAt(5)
	if l5.Content != "A line without any tag at all" {
		t.Fatalf("untagged content = %q", l5.Content)
	}
}

func TestParseLegacyEmptyInputSeedsDocument(t *testing.T) {
	d := ParseLegacy("\n\n  \n")
	if d.LineCount() != 1 {
		t.Fatalf("expected seeded document, got %d lines", d.LineCount())
	}
	first, _ := d.LineAt(0)
	if first.Format != FormatHeader {
		t.Fatalf("seed format = %q", first.Format)
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	src := FromLines([]Line{
		{ID: "a", Format: FormatHeader, Content: "PILOT"},
		{ID: "b", Format: FormatSpeaker, Content: "JOHN"},
		{ID: "c", Format: FormatDialog, Content: "Hello."},
		{ID: "d", Format: FormatChapterBreak, Content: "Chapter 1"},
	})
	data, err := Serialize(src)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	got, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !src.Equal(got) {
		t.Fatalf("round trip mismatch:\nsrc %+v\ngot %+v", src.Lines(), got.Lines())
	}
}

func TestParseAutoDetectsLegacy(t *testing.T) {
	d, err := Parse([]byte("<speaker>ALICE</speaker>\n<dialog>Hi.</dialog>\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.LineCount() != 2 {
		t.Fatalf("expected 2 lines, got %d", d.LineCount())
	}
	l0, _ := d.LineAt(0)
	if l0.Format != FormatSpeaker || l0.Content != "ALICE" {
		t.Fatalf("unexpected first line: %+v", l0)
	}
}

func TestParseEnvelopeRejectsMalformed(t *testing.T) {
	cases := []string{
		`{"lines": []}`,                               // missing version
		`{"version": 1}`,                              // missing lines
		`{"version": 1, "lines": [{"format": "x"}]}`,  // line missing content
		`{"version": "one", "lines": []}`,             // wrong version type
		`{"version": 1, "lines": [{"content": "x"}]}`, // line missing format
	}
	for _, c := range cases {
		if _, err := ParseEnvelope([]byte(c)); err == nil {
			t.Fatalf("expected schema error for %s", c)
		}
	}
}

func TestParseEnvelopeNormalizesUnknownFormat(t *testing.T) {
	d, err := ParseEnvelope([]byte(`{"version":1,"lines":[{"id":"a","format":"shout","content":"HEY"}]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ln, _ := d.LineAt(0)
	if ln.Format != FormatAction {
		t.Fatalf("unknown format should default to action, got %q", ln.Format)
	}
}

func TestSerializeLegacyWrapsEveryLine(t *testing.T) {
	d := FromLines([]Line{
		{ID: "a", Format: FormatSpeaker, Content: "JOHN"},
		{ID: "b", Format: FormatDialog, Content: "Hi."},
	})
	out := SerializeLegacy(d)
	if !strings.Contains(out, "<speaker>JOHN</speaker>") || !strings.Contains(out, "<dialog>Hi.</dialog>") {
		t.Fatalf("unexpected legacy output: %q", out)
	}
}
