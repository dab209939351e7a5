// Copyright 2026 The gVisor Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package kernel

import (
	"context"
	"slices"
	"sync"

	"golang.org/x/sync/semaphore"
	"gvisor.dev/userprog/pkg/errors/linuxerr"
)

// ChildEntry is a parent's record of one child.
type ChildEntry struct {
	// ID is the child's thread ID.
	ID ThreadID

	// Resolved is set once the child has exited and published ExitStatus.
	Resolved bool

	// ExitStatus is the child's exit status. It is only meaningful if
	// Resolved is set.
	ExitStatus int32
}

// ChildRegistry tracks the children of one task and lets the task wait for
// them.
//
// The registry is owned by the parent, but an exiting child publishes its
// status into it from the child's own goroutine, so all fields are
// protected by mu.
type ChildRegistry struct {
	mu sync.Mutex

	// entries holds one entry per unreaped child, in spawn order.
	entries []ChildEntry

	// awaited is the child the owner is blocked waiting for, or 0.
	awaited ThreadID

	// signal wakes the owner when awaited exits. It holds at most one
	// token, and only between the child's Release and the owner's
	// Acquire.
	signal *semaphore.Weighted
}

// NewChildRegistry returns an empty registry.
func NewChildRegistry() *ChildRegistry {
	r := &ChildRegistry{
		signal: semaphore.NewWeighted(1),
	}
	// Start drained, so the first Acquire blocks until a child signals.
	r.signal.TryAcquire(1)
	return r
}

// add records a newly spawned child.
func (r *ChildRegistry) add(id ThreadID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, ChildEntry{ID: id})
}

// find returns the index of the entry for id, or -1.
//
// Preconditions: r.mu is locked.
func (r *ChildRegistry) find(id ThreadID) int {
	return slices.IndexFunc(r.entries, func(e ChildEntry) bool {
		return e.ID == id
	})
}

// resolve publishes the exit status of child id and wakes the owner if it
// is waiting for id. It returns false if id is not a child.
func (r *ChildRegistry) resolve(id ThreadID, status int32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.find(id)
	if i < 0 {
		return false
	}
	r.entries[i].Resolved = true
	r.entries[i].ExitStatus = status
	if r.awaited == id {
		r.awaited = 0
		r.signal.Release(1)
	}
	return true
}

// reap removes the entry at index i and returns its exit status.
//
// Preconditions: r.mu is locked. The entry is resolved.
func (r *ChildRegistry) reap(i int) int32 {
	status := r.entries[i].ExitStatus
	r.entries = slices.Delete(r.entries, i, i+1)
	return status
}

// Wait blocks until child id has exited, then reaps it and returns its exit
// status.
//
// It fails with ECHILD if id is not an unreaped child, with EBUSY if another
// Wait is already in progress, and with the context's error if ctx is
// cancelled first.
func (r *ChildRegistry) Wait(ctx context.Context, id ThreadID) (int32, error) {
	r.mu.Lock()
	i := r.find(id)
	if i < 0 {
		r.mu.Unlock()
		return -1, linuxerr.ECHILD
	}
	if r.awaited != 0 {
		r.mu.Unlock()
		return -1, linuxerr.EBUSY
	}
	if r.entries[i].Resolved {
		defer r.mu.Unlock()
		return r.reap(i), nil
	}
	r.awaited = id
	r.mu.Unlock()

	err := r.signal.Acquire(ctx, 1)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		if r.awaited == id {
			// The child has not exited.
			r.awaited = 0
			return -1, err
		}
		// The child signalled after cancellation. Drain the token so
		// the next Wait starts from an empty semaphore.
		r.signal.TryAcquire(1)
	}
	return r.reap(r.find(id)), nil
}

// Entries returns a copy of the child entries.
func (r *ChildRegistry) Entries() []ChildEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.entries)
}

// Awaited returns the child being waited for, or 0.
func (r *ChildRegistry) Awaited() ThreadID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.awaited
}
