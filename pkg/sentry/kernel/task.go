// Copyright 2018 The gVisor Authors.
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
	"gvisor.dev/userprog/pkg/abi/pintos"
	"gvisor.dev/userprog/pkg/hostarch"
	"gvisor.dev/userprog/pkg/sentry/mm"
	"gvisor.dev/userprog/pkg/ulib"
	"gvisor.dev/userprog/pkg/usermem"
)

// Task represents a user process: a single thread of execution with its own
// address space and open files.
//
// Unless noted otherwise, the fields of a Task are only used by the task's
// own goroutine.
type Task struct {
	k *Kernel

	// id is the task's thread ID. Immutable.
	id ThreadID

	// parentID is the ID of the task that spawned this one, or 0. The
	// parent is looked up by ID, and may have exited. Immutable.
	parentID ThreadID

	// name is the program name. Immutable.
	name string

	// mm is the task's page table. Other goroutines may translate through
	// it concurrently.
	mm *mm.PageTable

	// env is the user-mode view of the task.
	env *ulib.Env

	// fdTable holds the task's open files.
	fdTable *FDTable

	// children is shared with exiting children, see ChildRegistry.
	children *ChildRegistry

	// exiting is set once the exit path has started.
	exiting bool

	// exitStatus is set on exit. Other goroutines may read it once done
	// is closed.
	exitStatus int32

	// done is closed when the task has terminated.
	done chan struct{}
}

// ID returns the task's thread ID.
func (t *Task) ID() ThreadID {
	return t.id
}

// ParentID returns the ID of the task's parent, or 0 for a root task.
func (t *Task) ParentID() ThreadID {
	return t.parentID
}

// Name returns the program name.
func (t *Task) Name() string {
	return t.name
}

// Kernel returns the kernel the task runs on.
func (t *Task) Kernel() *Kernel {
	return t.k
}

// MemoryManager returns the task's page table.
func (t *Task) MemoryManager() *mm.PageTable {
	return t.mm
}

// FDTable returns the task's descriptor table.
func (t *Task) FDTable() *FDTable {
	return t.fdTable
}

// Children returns the task's child registry.
func (t *Task) Children() *ChildRegistry {
	return t.children
}

// Done returns a channel that is closed when the task terminates.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// ExitStatus returns the status the task exited with.
//
// Preconditions: Done is closed.
func (t *Task) ExitStatus() int32 {
	return t.exitStatus
}

// CopyInString copies a NUL-terminated string, such as a file name or a
// command line, from the task's memory.
func (t *Task) CopyInString(addr hostarch.Addr) (string, error) {
	return usermem.CopyInString(t.mm, addr, pintos.MaxPathLen)
}

// CopyInBytes copies len(dst) bytes from the task's memory at addr.
func (t *Task) CopyInBytes(addr hostarch.Addr, dst []byte) error {
	return usermem.CopyIn(t.mm, addr, dst)
}

// CopyOutBytes copies src into the task's memory at addr.
func (t *Task) CopyOutBytes(addr hostarch.Addr, src []byte) error {
	return usermem.CopyOut(t.mm, addr, src)
}

// CheckRange validates a user buffer without accessing it.
func (t *Task) CheckRange(addr hostarch.Addr, length uint32) error {
	return usermem.CheckRange(t.mm, addr, length)
}

// Exec starts a child task running cmdline and returns its ID.
func (t *Task) Exec(cmdline string) (ThreadID, error) {
	child, err := t.k.spawn(t, cmdline)
	if err != nil {
		return pintos.TID_ERROR, err
	}
	return child.id, nil
}

// Wait waits for child id to exit and returns its exit status. It returns
// early with an error if the machine is halted.
func (t *Task) Wait(id ThreadID) (int32, error) {
	return t.children.Wait(t.k.ctx, id)
}
