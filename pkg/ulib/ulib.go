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

// Package ulib is the user-mode runtime: the code a user program links
// against to reach the kernel.
//
// A user program is a Main function. It only ever touches its own address
// space, and it enters the kernel by laying out a call number and arguments
// on its stack and raising the syscall trap, exactly as a compiled program
// would. Nothing here is trusted by the kernel.
package ulib

import (
	"fmt"

	"gvisor.dev/userprog/pkg/abi/pintos"
	"gvisor.dev/userprog/pkg/hostarch"
	"gvisor.dev/userprog/pkg/sentry/arch"
	"gvisor.dev/userprog/pkg/usermem"
)

// Main is the entry point of a user program. Its return value becomes the
// process exit status.
type Main func(env *Env) int

// Kernel is the hardware interface seen by user code.
type Kernel interface {
	// Trap raises the syscall interrupt with the given frame. The result
	// is stored in tf.EAX. Trap does not return if the call terminates
	// the process.
	Trap(tf *arch.TrapFrame)

	// PageFault reports a user-mode access to unmapped memory. It does
	// not return.
	PageFault(addr hostarch.Addr)
}

// Layout describes the regions mapped for a new process.
type Layout struct {
	// Heap is the data region handed out by Env.Alloc.
	Heap hostarch.AddrRange

	// Stack is the stack region. The stack grows down from Stack.End.
	Stack hostarch.AddrRange
}

// Env is the execution environment of one user process.
type Env struct {
	k      Kernel
	as     usermem.AddressSpace
	layout Layout

	// Args holds the command line split into words. Args[0] is the
	// program name.
	Args []string

	// brk is the next free heap address.
	brk hostarch.Addr

	// sp is the current stack pointer.
	sp hostarch.Addr
}

// NewEnv returns an environment for a process whose memory is as, laid out
// as described by layout.
func NewEnv(k Kernel, as usermem.AddressSpace, layout Layout, args []string) *Env {
	return &Env{
		k:      k,
		as:     as,
		layout: layout,
		Args:   args,
		brk:    layout.Heap.Start,
		sp:     layout.Stack.End,
	}
}

// Layout returns the process layout.
func (e *Env) Layout() Layout {
	return e.layout
}

// Alloc reserves n bytes of heap, word aligned, and returns their address.
// Running out of heap faults the process.
func (e *Env) Alloc(n int) hostarch.Addr {
	addr := e.brk
	end, ok := addr.AddLength(uint32(n))
	if !ok || end > e.layout.Heap.End {
		e.k.PageFault(e.layout.Heap.End)
	}
	e.brk = (end + pintos.WordSize - 1) &^ (pintos.WordSize - 1)
	return addr
}

// scratch returns a function that releases every allocation made after the
// call to scratch.
func (e *Env) scratch() func() {
	brk := e.brk
	return func() { e.brk = brk }
}

// Poke writes b into user memory at addr.
func (e *Env) Poke(addr hostarch.Addr, b []byte) {
	if err := usermem.CopyOut(e.as, addr, b); err != nil {
		e.k.PageFault(addr)
	}
}

// Peek reads n bytes of user memory at addr.
func (e *Env) Peek(addr hostarch.Addr, n int) []byte {
	b := make([]byte, n)
	if err := usermem.CopyIn(e.as, addr, b); err != nil {
		e.k.PageFault(addr)
	}
	return b
}

// CString copies s into the heap with a NUL terminator.
func (e *Env) CString(s string) hostarch.Addr {
	addr := e.Alloc(len(s) + 1)
	e.Poke(addr, append([]byte(s), 0))
	return addr
}

// Bytes copies b into the heap.
func (e *Env) Bytes(b []byte) hostarch.Addr {
	addr := e.Alloc(len(b))
	e.Poke(addr, b)
	return addr
}

// Syscall pushes the call number and args below the stack pointer and traps.
func (e *Env) Syscall(sysno uint32, args ...uint32) int32 {
	words := append([]uint32{sysno}, args...)
	esp := e.sp - hostarch.Addr(len(words)*pintos.WordSize)
	for i, w := range words {
		addr := esp + hostarch.Addr(i*pintos.WordSize)
		if err := usermem.CopyOutWord(e.as, addr, w); err != nil {
			e.k.PageFault(addr)
		}
	}
	return e.SyscallAt(esp)
}

// SyscallAt traps with the stack pointer set to esp, without touching the
// stack. The caller is responsible for the frame contents.
func (e *Env) SyscallAt(esp hostarch.Addr) int32 {
	tf := &arch.TrapFrame{ESP: esp}
	e.k.Trap(tf)
	return tf.Return()
}

// Halt powers off the machine.
func (e *Env) Halt() {
	e.Syscall(pintos.SYS_HALT)
	panic("halt returned")
}

// Exit terminates the process with the given status.
func (e *Env) Exit(status int) {
	e.Syscall(pintos.SYS_EXIT, uint32(int32(status)))
	panic("exit returned")
}

// Exec starts a child running cmdline and returns its pid, or -1.
func (e *Env) Exec(cmdline string) int32 {
	defer e.scratch()()
	return e.Syscall(pintos.SYS_EXEC, uint32(e.CString(cmdline)))
}

// Wait waits for the child pid to exit and returns its status.
func (e *Env) Wait(pid int32) int32 {
	return e.Syscall(pintos.SYS_WAIT, uint32(pid))
}

// Create creates a file of the given initial size.
func (e *Env) Create(name string, size uint32) bool {
	defer e.scratch()()
	return e.Syscall(pintos.SYS_CREATE, uint32(e.CString(name)), size) != 0
}

// Remove removes a file.
func (e *Env) Remove(name string) bool {
	defer e.scratch()()
	return e.Syscall(pintos.SYS_REMOVE, uint32(e.CString(name))) != 0
}

// Open opens a file and returns its descriptor, or -1.
func (e *Env) Open(name string) int32 {
	defer e.scratch()()
	return e.Syscall(pintos.SYS_OPEN, uint32(e.CString(name)))
}

// Filesize returns the size of the open file fd.
func (e *Env) Filesize(fd int32) int32 {
	return e.Syscall(pintos.SYS_FILESIZE, uint32(fd))
}

// Read reads up to n bytes from fd into user memory at buf.
func (e *Env) Read(fd int32, buf hostarch.Addr, n uint32) int32 {
	return e.Syscall(pintos.SYS_READ, uint32(fd), uint32(buf), n)
}

// Write writes n bytes from user memory at buf to fd.
func (e *Env) Write(fd int32, buf hostarch.Addr, n uint32) int32 {
	return e.Syscall(pintos.SYS_WRITE, uint32(fd), uint32(buf), n)
}

// Seek moves the position of fd.
func (e *Env) Seek(fd int32, pos uint32) {
	e.Syscall(pintos.SYS_SEEK, uint32(fd), pos)
}

// Tell returns the position of fd.
func (e *Env) Tell(fd int32) int32 {
	return e.Syscall(pintos.SYS_TELL, uint32(fd))
}

// Close closes fd.
func (e *Env) Close(fd int32) {
	e.Syscall(pintos.SYS_CLOSE, uint32(fd))
}

// ReadBytes reads up to n bytes from fd through a scratch heap buffer.
func (e *Env) ReadBytes(fd int32, n int) []byte {
	defer e.scratch()()
	buf := e.Alloc(n)
	got := e.Read(fd, buf, uint32(n))
	if got <= 0 {
		return nil
	}
	return e.Peek(buf, int(got))
}

// WriteBytes writes b to fd through a scratch heap buffer.
func (e *Env) WriteBytes(fd int32, b []byte) int32 {
	defer e.scratch()()
	return e.Write(fd, e.Bytes(b), uint32(len(b)))
}

// Printf formats to the console.
func (e *Env) Printf(format string, v ...any) {
	e.WriteBytes(pintos.STDOUT_FILENO, []byte(fmt.Sprintf(format, v...)))
}
