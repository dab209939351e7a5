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
	"gvisor.dev/userprog/pkg/sentry/arch"
	"gvisor.dev/userprog/pkg/sentry/kernel"
)

// Halt implements halt. The machine is powered off and the calling task is
// terminated on return to the dispatcher.
func Halt(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	t.Kernel().Halt()
	return 0, nil
}

// Exit implements exit.
func Exit(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	status := args[0].Int()

	t.Exit(status)
	panic("unreachable")
}

// Exec implements exec.
func Exec(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	addr := args[0].Pointer()

	cmdline, err := t.CopyInString(addr)
	if err != nil {
		return 0, err
	}
	tid, err := t.Exec(cmdline)
	if err != nil {
		return 0, err
	}
	return uintptr(tid), nil
}

// Wait implements wait.
func Wait(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	tid := kernel.ThreadID(args[0].Int())

	status, err := t.Wait(tid)
	if err != nil {
		return 0, err
	}
	return uintptr(uint32(status)), nil
}
