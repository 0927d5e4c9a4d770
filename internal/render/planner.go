/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"context"
	"fmt"
)

// DefaultMaxLinesPerPage is the page capacity used when none is configured.
// Capacity is counted in lines, not measured height.
const DefaultMaxLinesPerPage = 56

// RequiredPages returns how many page containers a document of lineCount
// lines needs. A document always occupies at least one page.
func RequiredPages(lineCount, maxLinesPerPage int) int {
	if maxLinesPerPage <= 0 {
		maxLinesPerPage = DefaultMaxLinesPerPage
	}
	if lineCount <= 0 {
		return 1
	}
	return (lineCount + maxLinesPerPage - 1) / maxLinesPerPage
}

// CanReuse reports whether an existing page set already matches the required
// count, so reconciliation can skip the capacity round-trip.
func CanReuse(existing, required int) bool {
	return existing == required
}

// Planner maps line counts to page positions for one view.
type Planner struct {
	view       View
	maxPerPage int
}

func NewPlanner(view View, maxLinesPerPage int) *Planner {
	if maxLinesPerPage <= 0 {
		maxLinesPerPage = DefaultMaxLinesPerPage
	}
	return &Planner{view: view, maxPerPage: maxLinesPerPage}
}

// MaxLinesPerPage returns the configured page capacity.
func (p *Planner) MaxLinesPerPage() int { return p.maxPerPage }

// Required returns the page count for lineCount lines.
func (p *Planner) Required(lineCount int) int {
	return RequiredPages(lineCount, p.maxPerPage)
}

// Position returns the page and slot for the line at document index i.
func (p *Planner) Position(i int) (page, slot int) {
	return i / p.maxPerPage, i % p.maxPerPage
}

// EnsureCapacity adjusts the view's page set to exactly required containers.
// It is a no-op when the counts already match.
func (p *Planner) EnsureCapacity(ctx context.Context, required int) error {
	if required < 1 {
		required = 1
	}
	if CanReuse(p.view.PageCount(), required) {
		return nil
	}
	if err := p.view.EnsurePages(ctx, required); err != nil {
		return fmt.Errorf("ensure %d pages: %w", required, err)
	}
	return nil
}
