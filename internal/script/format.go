/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import "strings"

// Format is the closed set of line format labels. A line carries exactly one
// format; there is no inline or nested markup.
type Format string

const (
	FormatHeader       Format = "header"
	FormatAction       Format = "action"
	FormatSpeaker      Format = "speaker"
	FormatDialog       Format = "dialog"
	FormatDirections   Format = "directions"
	FormatChapterBreak Format = "chapter-break"
)

// Formats lists all valid formats in their canonical order.
var Formats = []Format{
	FormatHeader,
	FormatAction,
	FormatSpeaker,
	FormatDialog,
	FormatDirections,
	FormatChapterBreak,
}

// Valid reports whether f is a member of the format enumeration.
func (f Format) Valid() bool {
	switch f {
	case FormatHeader, FormatAction, FormatSpeaker, FormatDialog, FormatDirections, FormatChapterBreak:
		return true
	}
	return false
}

// ParseFormat normalizes s to a Format. Unknown or malformed values fall back
// to FormatAction so that imported documents never carry labels outside the
// enumeration.
func ParseFormat(s string) Format {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f.Valid() {
		return f
	}
	return FormatAction
}
