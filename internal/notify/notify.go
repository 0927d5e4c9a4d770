/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package notify emits debounced content-changed notifications for external
// persistence. The timer is reset, not queued, on each change: a burst of
// edits produces exactly one notification carrying the final serialized
// document. The notifier performs no I/O itself; a Sink does.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	applog "goscreenwriter/internal/log"
)

// DefaultDelay is the debounce interval applied when none is configured.
const DefaultDelay = 300 * time.Millisecond

// Sink receives the serialized document once the debounce window closes.
type Sink interface {
	PersistScript(ctx context.Context, payload []byte) error
}

// Notifier debounces change marks and drives the sink. Callbacks are
// optional and run on the timer goroutine.
type Notifier struct {
	delay  time.Duration
	source func() ([]byte, error)
	sink   Sink
	log    *slog.Logger

	mu          sync.Mutex
	timer       *time.Timer
	closed      bool
	onChanged   func(payload []byte)
	onPersisted func(payload []byte)
}

// New creates a notifier. source serializes the current document; sink may
// be nil when only the callbacks matter.
func New(delay time.Duration, source func() ([]byte, error), sink Sink) *Notifier {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Notifier{
		delay:  delay,
		source: source,
		sink:   sink,
		log:    applog.WithComponent("notify"),
	}
}

// OnChanged registers a callback fired when the debounce window closes.
func (n *Notifier) OnChanged(fn func(payload []byte)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onChanged = fn
}

// OnPersisted registers a callback fired after the sink accepted the payload.
func (n *Notifier) OnPersisted(fn func(payload []byte)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.onPersisted = fn
}

// MarkChanged restarts the debounce window.
func (n *Notifier) MarkChanged() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	if n.timer != nil {
		n.timer.Reset(n.delay)
		return
	}
	n.timer = time.AfterFunc(n.delay, n.fire)
}

// Flush fires immediately, canceling any pending window.
func (n *Notifier) Flush(ctx context.Context) error {
	n.mu.Lock()
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.mu.Unlock()
	return n.emit(ctx)
}

// Close cancels any pending notification.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
}

func (n *Notifier) fire() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.timer = nil
	n.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := n.emit(ctx); err != nil {
		n.log.Warn("persist notification failed", slog.Any("err", err))
	}
}

func (n *Notifier) emit(ctx context.Context) error {
	payload, err := n.source()
	if err != nil {
		return err
	}
	n.mu.Lock()
	changed, persisted, sink := n.onChanged, n.onPersisted, n.sink
	n.mu.Unlock()

	if changed != nil {
		changed(payload)
	}
	if sink != nil {
		if err := sink.PersistScript(ctx, payload); err != nil {
			return err
		}
	}
	if persisted != nil {
		persisted(payload)
	}
	return nil
}
