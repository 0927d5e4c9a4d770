/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package queue serializes asynchronous editor operations. Structural
// mutations each involve an async render step; running two of them
// concurrently could interleave their document reads and writes. The
// sequencer is a task channel with a single consumer goroutine, so
// operations execute strictly in submission order and a failing operation
// never stalls the ones queued behind it.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	applog "goscreenwriter/internal/log"
)

// ErrClosed is returned for operations submitted after Close.
var ErrClosed = errors.New("sequencer closed")

// Op is a unit of serialized work.
type Op func(ctx context.Context) (any, error)

type task struct {
	ctx  context.Context
	op   Op
	done chan outcome
}

type outcome struct {
	value any
	err   error
}

// Sequencer executes submitted operations one at a time in submission order.
type Sequencer struct {
	tasks chan task
	quit  chan struct{}
	once  sync.Once
	wg    sync.WaitGroup
	log   *slog.Logger
}

// New starts a sequencer with the given submission buffer.
func New(buffer int) *Sequencer {
	if buffer < 0 {
		buffer = 0
	}
	s := &Sequencer{
		tasks: make(chan task, buffer),
		quit:  make(chan struct{}),
		log:   applog.WithComponent("sequencer"),
	}
	s.wg.Add(1)
	go s.run()
	return s
}

// Enqueue submits op and blocks until it has executed (or ctx is done while
// waiting to submit). Errors and panics inside op are isolated: they are
// logged and returned to this caller only, and the queue keeps draining.
func (s *Sequencer) Enqueue(ctx context.Context, op Op) (any, error) {
	t := task{ctx: ctx, op: op, done: make(chan outcome, 1)}
	select {
	case s.tasks <- t:
	case <-s.quit:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case out := <-t.done:
		return out.value, out.err
	case <-s.quit:
		return nil, ErrClosed
	}
}

// Close stops the consumer. Pending submissions fail with ErrClosed.
func (s *Sequencer) Close() {
	s.once.Do(func() { close(s.quit) })
	s.wg.Wait()
}

func (s *Sequencer) run() {
	defer s.wg.Done()
	for {
		select {
		case <-s.quit:
			return
		case t := <-s.tasks:
			t.done <- s.execute(t)
		}
	}
}

func (s *Sequencer) execute(t task) (out outcome) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("operation panicked", slog.Any("panic", r))
			out = outcome{err: fmt.Errorf("operation panic: %v", r)}
		}
	}()
	if err := t.ctx.Err(); err != nil {
		return outcome{err: err}
	}
	v, err := t.op(t.ctx)
	if err != nil {
		s.log.Warn("operation failed", slog.Any("err", err))
	}
	return outcome{value: v, err: err}
}
