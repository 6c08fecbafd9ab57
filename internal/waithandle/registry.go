// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package waithandle implements the Wait-Handle Registry (spec §4.6): a
// process-wide, mutex-guarded map of async operations keyed by opaque
// handle ID, with terminal completed/failed states and optional
// deadline timers for continuable operations.
package waithandle

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentcore/core/internal/errs"
	"github.com/agentcore/core/internal/model"
)

// Registry tracks every in-flight async operation. Like agentregistry
// and the other process-local registries, it follows the single
// mutex-guarded map pattern of internal/registry (spec §5) rather than
// using internal/registry.BaseRegistry directly, because handles need
// condition-variable wakeups that a plain map doesn't give callers.
type Registry struct {
	mu      sync.Mutex
	handles map[string]*entry
}

type entry struct {
	handle    model.WaitHandle
	timedOut  bool
	done      chan struct{}
	timer     *time.Timer
	continuable bool
}

// New creates an empty wait-handle registry.
func New() *Registry {
	return &Registry{handles: make(map[string]*entry)}
}

// Register creates a pending handle for an async operation. kind names
// the operation family ("agent", "team", "custom"); when timeoutMs is
// non-nil, a deadline timer is armed. continuable marks operations whose
// background work should observe TimedOut() and wind down gracefully
// rather than being force-failed (spec §4.6, P8).
func (r *Registry) Register(kind model.WaitKind, metadata map[string]any, timeoutMs *int64, continuable bool) *model.WaitHandle {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	id := fmt.Sprintf("wait_%d_%s", now.UnixNano(), uuid.NewString()[:8])

	h := model.WaitHandle{
		ID:        id,
		Kind:      kind,
		Status:    model.WaitPending,
		StartTime: now,
		TimeoutMs: timeoutMs,
		Metadata:  metadata,
	}
	e := &entry{handle: h, done: make(chan struct{}), continuable: continuable}
	r.handles[id] = e

	if timeoutMs != nil {
		d := time.Duration(*timeoutMs) * time.Millisecond
		e.timer = time.AfterFunc(d, func() { r.onDeadline(id) })
	}

	out := h
	return &out
}

func (r *Registry) onDeadline(id string) {
	r.mu.Lock()
	e, ok := r.handles[id]
	if !ok || e.handle.Status != model.WaitPending {
		r.mu.Unlock()
		return
	}
	if e.continuable {
		e.timedOut = true
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	r.Fail(id, fmt.Sprintf("operation timed out after %dms", *e.handle.TimeoutMs))
}

// TimedOut reports whether a continuable operation's deadline has
// already fired, so background work can short-circuit while preserving
// whatever partial state it has accumulated (spec §4.6).
func (r *Registry) TimedOut(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.handles[id]
	return ok && e.timedOut
}

// Complete transitions a handle to completed, terminal (H1), storing the
// result. Completing an already-terminal handle is a no-op — status
// transitions are one-way.
func (r *Registry) Complete(id string, result any) error {
	r.mu.Lock()
	e, ok := r.handles[id]
	if !ok {
		r.mu.Unlock()
		return &errs.NotFoundError{Kind: "wait handle", ID: id}
	}
	if e.handle.Status != model.WaitPending {
		r.mu.Unlock()
		return nil
	}
	e.handle.Status = model.WaitCompleted
	e.handle.Result = result
	if e.timer != nil {
		e.timer.Stop()
	}
	done := e.done
	r.mu.Unlock()
	close(done)
	return nil
}

// Fail transitions a handle to failed, terminal (H1), storing errorMessage.
func (r *Registry) Fail(id string, errorMessage string) error {
	r.mu.Lock()
	e, ok := r.handles[id]
	if !ok {
		r.mu.Unlock()
		return &errs.NotFoundError{Kind: "wait handle", ID: id}
	}
	if e.handle.Status != model.WaitPending {
		r.mu.Unlock()
		return nil
	}
	e.handle.Status = model.WaitFailed
	e.handle.Error = errorMessage
	if e.timer != nil {
		e.timer.Stop()
	}
	done := e.done
	r.mu.Unlock()
	close(done)
	return nil
}

// Lookup returns a snapshot of the handle's current state.
func (r *Registry) Lookup(id string) (model.WaitHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.handles[id]
	if !ok {
		return model.WaitHandle{}, &errs.NotFoundError{Kind: "wait handle", ID: id}
	}
	return e.handle, nil
}

// Wait blocks until the handle reaches a terminal state or timeoutMs
// elapses, whichever comes first (the `wait_for` tool, spec §6.1). A
// nil or zero timeoutMs waits indefinitely.
func (r *Registry) Wait(id string, timeoutMs *int64) (model.WaitHandle, error) {
	r.mu.Lock()
	e, ok := r.handles[id]
	if !ok {
		r.mu.Unlock()
		return model.WaitHandle{}, &errs.NotFoundError{Kind: "wait handle", ID: id}
	}
	done := e.done
	r.mu.Unlock()

	if timeoutMs == nil || *timeoutMs <= 0 {
		<-done
		return r.Lookup(id)
	}

	select {
	case <-done:
		return r.Lookup(id)
	case <-time.After(time.Duration(*timeoutMs) * time.Millisecond):
		return r.Lookup(id)
	}
}
