/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package engine

import "goscreenwriter/internal/script"

// FlowTable is the format-flow state machine: for each format, the successor
// used when a new line is committed below it (Enter), and a fixed circular
// order for cycling a line's own format (Tab / boundary navigation). The
// table is immutable configuration; construct one and inject it into the
// engine.
type FlowTable struct {
	next  map[script.Format]script.Format
	cycle []script.Format
}

// NewFlow builds a flow table from a successor map and a cycle order. Both
// are copied so callers cannot mutate the table afterwards.
func NewFlow(next map[script.Format]script.Format, cycle []script.Format) FlowTable {
	n := make(map[script.Format]script.Format, len(next))
	for k, v := range next {
		n[k] = v
	}
	c := make([]script.Format, len(cycle))
	copy(c, cycle)
	return FlowTable{next: n, cycle: c}
}

// DefaultFlow returns the standard screenplay flow:
// header→action→speaker→dialog→speaker→..., directions and chapter breaks
// fall back to action.
func DefaultFlow() FlowTable {
	return NewFlow(
		map[script.Format]script.Format{
			script.FormatHeader:       script.FormatAction,
			script.FormatAction:       script.FormatSpeaker,
			script.FormatSpeaker:      script.FormatDialog,
			script.FormatDialog:       script.FormatSpeaker,
			script.FormatDirections:   script.FormatAction,
			script.FormatChapterBreak: script.FormatAction,
		},
		[]script.Format{
			script.FormatHeader,
			script.FormatAction,
			script.FormatDirections,
			script.FormatSpeaker,
			script.FormatDialog,
			script.FormatChapterBreak,
		},
	)
}

// NextOnCommit returns the format suggested for a line committed below one
// of format f. Unmapped formats fall back to action.
func (t FlowTable) NextOnCommit(f script.Format) script.Format {
	if n, ok := t.next[f]; ok {
		return n
	}
	return script.FormatAction
}

// CycleRight returns the next format in the circular cycle order.
func (t FlowTable) CycleRight(f script.Format) script.Format { return t.step(f, 1) }

// CycleLeft returns the previous format in the circular cycle order.
func (t FlowTable) CycleLeft(f script.Format) script.Format { return t.step(f, -1) }

func (t FlowTable) step(f script.Format, dir int) script.Format {
	if len(t.cycle) == 0 {
		return f
	}
	for i, c := range t.cycle {
		if c == f {
			return t.cycle[(i+dir+len(t.cycle))%len(t.cycle)]
		}
	}
	return t.cycle[0]
}
