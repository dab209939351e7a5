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

package pintos

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"gvisor.dev/userprog/pkg/hostarch"
	"gvisor.dev/userprog/pkg/sentry/console"
	"gvisor.dev/userprog/pkg/sentry/fs/fstest"
	"gvisor.dev/userprog/pkg/sentry/fs/memfs"
	"gvisor.dev/userprog/pkg/sentry/kernel"
	"gvisor.dev/userprog/pkg/sentry/loader"
	"gvisor.dev/userprog/pkg/ulib"
)

// timeout bounds how long a test waits for a task.
const timeout = 10 * time.Second

// machine is a kernel with in-memory devices.
type machine struct {
	k       *kernel.Kernel
	mem     *memfs.Filesystem
	fs      *fstest.Counting
	console *console.Buffer
	loader  *loader.Registry
	halts   chan struct{}
}

func newMachine(t *testing.T, input string) *machine {
	t.Helper()
	m := &machine{
		mem:     memfs.New(0),
		console: console.NewBuffer(input),
		loader:  loader.NewRegistry(),
		halts:   make(chan struct{}, 1),
	}
	m.fs = fstest.NewCounting(m.mem)
	k, err := kernel.New(context.Background(), kernel.Options{
		Filesystem: m.fs,
		Console:    m.console,
		Power:      kernel.PowerFunc(func() { m.halts <- struct{}{} }),
		Loader:     m.loader,
		Table:      Table,
	})
	if err != nil {
		t.Fatalf("kernel.New: %v", err)
	}
	m.k = k
	return m
}

// register adds a program.
func (m *machine) register(t *testing.T, name string, main ulib.Main) {
	t.Helper()
	if err := m.loader.Register(name, main); err != nil {
		t.Fatalf("Register(%q): %v", name, err)
	}
}

// start starts cmdline as a root task.
func (m *machine) start(t *testing.T, cmdline string) *kernel.Task {
	t.Helper()
	task, err := m.k.Start(cmdline)
	if err != nil {
		t.Fatalf("Start(%q): %v", cmdline, err)
	}
	return task
}

// wait waits for task to terminate and returns its exit status.
func (m *machine) wait(t *testing.T, task *kernel.Task) int32 {
	t.Helper()
	select {
	case <-task.Done():
		return task.ExitStatus()
	case <-time.After(timeout):
		t.Fatalf("task %d (%s) did not terminate", task.ID(), task.Name())
		return 0
	}
}

// run runs a program registered under name to completion.
func (m *machine) run(t *testing.T, name string, main ulib.Main) int32 {
	t.Helper()
	m.register(t, name, main)
	return m.wait(t, m.start(t, name))
}

// word encodes a machine word as laid out on the user stack.
func word(v uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, v)
}

// stackTop returns the address of the top word of the stack.
func stackTop(env *ulib.Env) hostarch.Addr {
	return env.Layout().Stack.End - 4
}
