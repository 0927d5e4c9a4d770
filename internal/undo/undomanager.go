/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package undo

import (
	"sync"
	"time"

	"goscreenwriter/internal/engine"
)

// Batch is one undoable step: the forward commands that were applied and the
// inverse commands that revert them (inverse runs in reverse order).
type Batch struct {
	Forward []engine.Command
	Inverse []engine.Command
	TS      time.Time
}

// Config controls depth caps and coalescing behavior.
type Config struct {
	// MaxDepth limits the number of retained undo steps (0 means the
	// default cap, negative means unlimited).
	MaxDepth int
	// MinInterval coalesces batches pushed within the interval into the
	// previous step, so a typing burst undoes as one unit.
	MinInterval time.Duration
}

// Manager keeps the undo/redo stacks for one document. It is safe for
// concurrent use.
type Manager struct {
	cfg  Config
	mu   sync.Mutex
	undo []Batch
	redo []Batch
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxDepth == 0 {
		cfg.MaxDepth = 200
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 250 * time.Millisecond
	}
	return &Manager{cfg: cfg}
}

// Push records an applied batch. If the previous step is younger than
// MinInterval the batches merge: forward commands append, inverse commands
// append as well (reverse-order application then undoes the newer edits
// first). Any push clears the redo stack.
func (m *Manager) Push(b Batch) {
	if b.TS.IsZero() {
		b.TS = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if n := len(m.undo); n > 0 {
		last := &m.undo[n-1]
		if b.TS.Sub(last.TS) < m.cfg.MinInterval {
			last.Forward = append(last.Forward, b.Forward...)
			last.Inverse = append(last.Inverse, b.Inverse...)
			last.TS = b.TS
			m.redo = nil
			return
		}
	}
	m.undo = append(m.undo, b)
	m.redo = nil
	if m.cfg.MaxDepth > 0 && len(m.undo) > m.cfg.MaxDepth {
		m.undo = append([]Batch{}, m.undo[len(m.undo)-m.cfg.MaxDepth:]...)
	}
}

// Undo pops the newest step onto the redo stack and returns it.
func (m *Manager) Undo() (Batch, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.undo)
	if n == 0 {
		return Batch{}, false
	}
	b := m.undo[n-1]
	m.undo = m.undo[:n-1]
	m.redo = append(m.redo, b)
	return b, true
}

// Redo pops the newest undone step back onto the undo stack and returns it.
func (m *Manager) Redo() (Batch, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.redo)
	if n == 0 {
		return Batch{}, false
	}
	b := m.redo[n-1]
	m.redo = m.redo[:n-1]
	m.undo = append(m.undo, b)
	return b, true
}

// CanUndo reports whether an undo step is available.
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo) > 0
}

// CanRedo reports whether a redo step is available.
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redo) > 0
}

// Depths returns current stack sizes for diagnostics.
func (m *Manager) Depths() (undoDepth, redoDepth int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo), len(m.redo)
}

// Clear drops both stacks (e.g., after loading a different document).
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undo = nil
	m.redo = nil
}
