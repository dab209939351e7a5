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

// Package pintos provides the syscall table of the teaching OS user program
// ABI.
package pintos

import (
	"gvisor.dev/userprog/pkg/abi/pintos"
	"gvisor.dev/userprog/pkg/errors/linuxerr"
	"gvisor.dev/userprog/pkg/log"
	"gvisor.dev/userprog/pkg/sentry/kernel"
	"gvisor.dev/userprog/pkg/sentry/strace"
	"gvisor.dev/userprog/pkg/sentry/syscalls"
)

// Table is the user program syscall table, indexed by the call numbers in
// lib/syscall-nr.h. Numbers missing from the table kill the caller.
var Table = &kernel.SyscallTable{
	Name: "pintos",
	Table: map[uint32]kernel.Syscall{
		pintos.SYS_HALT:     syscalls.Supported("halt", Halt),
		pintos.SYS_EXIT:     syscalls.Supported("exit", Exit, strace.Int),
		pintos.SYS_EXEC:     syscalls.Supported("exec", Exec, strace.Path),
		pintos.SYS_WAIT:     syscalls.Supported("wait", Wait, strace.Int),
		pintos.SYS_CREATE:   syscalls.Supported("create", Create, strace.Path, strace.Uint),
		pintos.SYS_REMOVE:   syscalls.Supported("remove", Remove, strace.Path),
		pintos.SYS_OPEN:     syscalls.Supported("open", Open, strace.Path),
		pintos.SYS_FILESIZE: syscalls.Supported("filesize", Filesize, strace.FD),
		pintos.SYS_READ:     syscalls.Supported("read", Read, strace.FD, strace.ReadBuffer, strace.Uint),
		pintos.SYS_WRITE:    syscalls.Supported("write", Write, strace.FD, strace.WriteBuffer, strace.Uint),
		pintos.SYS_SEEK:     syscalls.Supported("seek", Seek, strace.FD, strace.Uint),
		pintos.SYS_TELL:     syscalls.Supported("tell", Tell, strace.FD),
		pintos.SYS_CLOSE:    syscalls.Supported("close", Close, strace.FD),
	},
}

// boolResult converts the outcome of a call returning a boolean. Faults are
// passed through so the caller is killed; any other failure is false.
func boolResult(t *kernel.Task, op string, err error) (uintptr, error) {
	switch {
	case err == nil:
		return 1, nil
	case linuxerr.Equals(linuxerr.EFAULT, err):
		return 0, err
	default:
		log.Debugf("[%d] %s: %v", t.ID(), op, err)
		return 0, nil
	}
}
