/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package prompt

import (
	"context"
	"sync"
)

// Status of a generation task.
type Status int

const (
	Pending Status = iota
	Resolved
	Failed
)

func (s Status) String() string {
	switch s {
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	}
	return "pending"
}

// Task is a one-shot asynchronous generation. It starts once and cannot be cancelled;
// the caller polls Status or waits for Done.
type Task struct {
	done   chan struct{}
	mu     sync.Mutex
	status Status
	result string
	err    error
}

// Start runs g in the background. ctx only carries values and deadlines set by the caller.
func Start(ctx context.Context, g Generator, req Request) *Task {
	t := &Task{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		out, err := g.Generate(ctx, req)
		t.mu.Lock()
		defer t.mu.Unlock()
		if err != nil {
			t.status, t.err = Failed, err
			return
		}
		t.status, t.result = Resolved, out
	}()
	return t
}

func (t *Task) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Result returns the outcome; both values are zero while pending.
func (t *Task) Result() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result, t.err
}

// Done is closed once the task resolved or failed.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the task finishes or ctx ends. Ending ctx stops the wait, not the task.
func (t *Task) Wait(ctx context.Context) (string, error) {
	select {
	case <-t.done:
		return t.Result()
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
