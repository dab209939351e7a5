// Copyright 2018 Google LLC
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

// Package kernel provides an emulation of the kernel side of a small
// teaching operating system's user program support: tasks, their open files,
// the parent/child exit protocol, and the trap entry point.
//
// Each task runs on its own goroutine. Tasks interact through three shared
// objects, each with its own lock:
//
//   - Kernel.mu protects the task table.
//   - FSGate serializes the filesystem.
//   - ChildRegistry.mu protects a parent's child entries.
//
// Locks are never nested.
package kernel

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"gvisor.dev/userprog/pkg/abi/pintos"
	"gvisor.dev/userprog/pkg/errors/linuxerr"
	"gvisor.dev/userprog/pkg/hostarch"
	"gvisor.dev/userprog/pkg/log"
	"gvisor.dev/userprog/pkg/sentry/fs"
	"gvisor.dev/userprog/pkg/sentry/mm"
	"gvisor.dev/userprog/pkg/ulib"
)

// ThreadID is a task identifier. Valid IDs are positive.
type ThreadID int32

// Console is the machine console.
type Console interface {
	// ReadByte returns the next input byte. It blocks until one is
	// available and returns an error at end of input.
	ReadByte() (byte, error)

	// Write writes b as a single unit. Concurrent writes do not
	// interleave.
	Write(b []byte)
}

// Power controls the machine power.
type Power interface {
	// Halt powers the machine off.
	Halt()
}

// PowerFunc adapts a function to Power.
type PowerFunc func()

// Halt implements Power.Halt.
func (f PowerFunc) Halt() { f() }

// Loader finds user programs by name.
type Loader interface {
	// Load returns the entry point of the named program.
	Load(name string) (ulib.Main, error)
}

// Default resource limits.
const (
	DefaultStackPages   = 1
	DefaultHeapPages    = 16
	DefaultMaxOpenFiles = 128
)

// Options configure a Kernel.
type Options struct {
	// Filesystem is shared by all tasks. Required.
	Filesystem fs.Filesystem

	// Console is the machine console. Required.
	Console Console

	// Power is called on halt. Optional.
	Power Power

	// Loader resolves program names on exec. Required.
	Loader Loader

	// Table is the syscall table. Required.
	Table *SyscallTable

	// StackPages and HeapPages size each task's address space.
	StackPages int
	HeapPages  int

	// MaxOpenFiles bounds each task's descriptor table. Negative means
	// no limit.
	MaxOpenFiles int

	// Strace logs every syscall at info level.
	Strace bool
}

// Kernel is the machine: the shared state of every task.
type Kernel struct {
	// ctx is cancelled on halt.
	ctx    context.Context
	cancel context.CancelFunc

	fsGate  *FSGate
	console Console
	power   Power
	loader  Loader
	table   *SyscallTable

	stackPages   int
	heapPages    int
	maxOpenFiles int
	strace       bool

	// halted is set once Halt has been called.
	halted atomic.Bool

	// killLog reports killed tasks. A misbehaving program that spawns
	// faulting children in a loop should not flood the log.
	killLog log.Logger

	// running counts tasks whose goroutine has not finished.
	running sync.WaitGroup

	// mu protects the fields below.
	mu sync.Mutex

	// tasks maps live task IDs to tasks.
	tasks map[ThreadID]*Task

	// nextTID is the ID of the next task.
	nextTID ThreadID
}

// New returns a kernel that stops when ctx is cancelled.
func New(ctx context.Context, opts Options) (*Kernel, error) {
	switch {
	case opts.Filesystem == nil:
		return nil, fmt.Errorf("kernel requires a filesystem")
	case opts.Console == nil:
		return nil, fmt.Errorf("kernel requires a console")
	case opts.Loader == nil:
		return nil, fmt.Errorf("kernel requires a loader")
	case opts.Table == nil:
		return nil, fmt.Errorf("kernel requires a syscall table")
	}
	if err := opts.Table.Validate(); err != nil {
		return nil, fmt.Errorf("invalid syscall table %q: %w", opts.Table.Name, err)
	}
	if opts.StackPages == 0 {
		opts.StackPages = DefaultStackPages
	}
	if opts.HeapPages == 0 {
		opts.HeapPages = DefaultHeapPages
	}
	switch {
	case opts.MaxOpenFiles == 0:
		opts.MaxOpenFiles = DefaultMaxOpenFiles
	case opts.MaxOpenFiles < 0:
		opts.MaxOpenFiles = 0
	}
	if opts.StackPages < 0 || opts.HeapPages < 0 {
		return nil, fmt.Errorf("invalid address space size: %d stack pages, %d heap pages", opts.StackPages, opts.HeapPages)
	}
	if limit := (pintos.PhysBase - pintos.CodeBase) / hostarch.PageSize; opts.StackPages+opts.HeapPages > limit {
		return nil, fmt.Errorf("address space of %d pages exceeds %d pages", opts.StackPages+opts.HeapPages, limit)
	}
	if opts.Power == nil {
		opts.Power = PowerFunc(func() {})
	}

	ctx, cancel := context.WithCancel(ctx)
	return &Kernel{
		ctx:          ctx,
		cancel:       cancel,
		fsGate:       NewFSGate(opts.Filesystem),
		console:      opts.Console,
		power:        opts.Power,
		loader:       opts.Loader,
		table:        opts.Table,
		stackPages:   opts.StackPages,
		heapPages:    opts.HeapPages,
		maxOpenFiles: opts.MaxOpenFiles,
		strace:       opts.Strace,
		killLog:      log.BasicRateLimitedLogger(time.Second),
		tasks:        make(map[ThreadID]*Task),
		nextTID:      1,
	}, nil
}

// FSGate returns the filesystem gate.
func (k *Kernel) FSGate() *FSGate {
	return k.fsGate
}

// Console returns the console.
func (k *Kernel) Console() Console {
	return k.console
}

// SyscallTable returns the syscall table.
func (k *Kernel) SyscallTable() *SyscallTable {
	return k.table
}

// Start starts a task with no parent running cmdline.
func (k *Kernel) Start(cmdline string) (*Task, error) {
	return k.spawn(nil, cmdline)
}

// layout returns the address space layout of a new task.
func (k *Kernel) layout() ulib.Layout {
	stackStart := hostarch.Addr(pintos.PhysBase) - hostarch.Addr(k.stackPages)*hostarch.PageSize
	heapEnd := hostarch.Addr(pintos.CodeBase) + hostarch.Addr(k.heapPages)*hostarch.PageSize
	return ulib.Layout{
		Heap:  hostarch.AddrRange{Start: pintos.CodeBase, End: heapEnd},
		Stack: hostarch.AddrRange{Start: stackStart, End: pintos.PhysBase},
	}
}

// spawn creates a task running cmdline as a child of parent, which may be
// nil. The child entry is added to parent before the task starts running.
func (k *Kernel) spawn(parent *Task, cmdline string) (*Task, error) {
	args := strings.Fields(cmdline)
	if len(args) == 0 {
		return nil, linuxerr.ENOENT
	}
	main, err := k.loader.Load(args[0])
	if err != nil {
		return nil, err
	}

	pt := mm.NewPageTable()
	layout := k.layout()
	for _, ar := range []hostarch.AddrRange{layout.Heap, layout.Stack} {
		if err := pt.Map(ar); err != nil {
			pt.Release()
			return nil, err
		}
	}

	t := &Task{
		k:        k,
		name:     args[0],
		mm:       pt,
		fdTable:  NewFDTable(k.maxOpenFiles),
		children: NewChildRegistry(),
		done:     make(chan struct{}),
	}
	if parent != nil {
		t.parentID = parent.id
	}
	t.env = ulib.NewEnv(t, pt, layout, args)

	k.mu.Lock()
	if k.halted.Load() {
		k.mu.Unlock()
		pt.Release()
		return nil, linuxerr.ESRCH
	}
	t.id = k.nextTID
	k.nextTID++
	k.tasks[t.id] = t
	k.running.Add(1)
	k.mu.Unlock()

	if parent != nil {
		parent.children.add(t.id)
	}
	log.Debugf("[%d] started %q, parent %d", t.id, cmdline, t.parentID)
	go t.run(main)
	return t, nil
}

// TaskWithID returns the live task with the given ID, or nil.
func (k *Kernel) TaskWithID(id ThreadID) *Task {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.tasks[id]
}

// NumTasks returns the number of live tasks.
func (k *Kernel) NumTasks() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.tasks)
}

// unregister removes t from the task table.
func (k *Kernel) unregister(t *Task) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.tasks, t.id)
}

// Halt powers off the machine. Tasks blocked in the kernel are woken and
// every task is terminated at its next kernel entry.
func (k *Kernel) Halt() {
	k.mu.Lock()
	first := k.halted.CompareAndSwap(false, true)
	k.mu.Unlock()
	if !first {
		return
	}
	log.Infof("Halting machine")
	k.cancel()
	k.power.Halt()
}

// Done returns a channel that is closed when the machine halts or the
// context passed to New is cancelled.
func (k *Kernel) Done() <-chan struct{} {
	return k.ctx.Done()
}

// Halted returns true once the machine has been halted.
func (k *Kernel) Halted() bool {
	return k.halted.Load()
}

// WaitIdle blocks until every task has terminated.
func (k *Kernel) WaitIdle() {
	k.running.Wait()
}
