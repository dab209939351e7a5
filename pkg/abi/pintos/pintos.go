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


// Package pintos contains the constants of the user/kernel boundary shared
// with the user-mode runtime: call numbers, reserved descriptors and the
// address-space split. These values are an external contract and must not
// change.
package pintos

// Syscall numbers, from lib/syscall-nr.h.
const (
	SYS_HALT     = 0
	SYS_EXIT     = 1
	SYS_EXEC     = 2
	SYS_WAIT     = 3
	SYS_CREATE   = 4
	SYS_REMOVE   = 5
	SYS_OPEN     = 6
	SYS_FILESIZE = 7
	SYS_READ     = 8
	SYS_WRITE    = 9
	SYS_SEEK     = 10
	SYS_TELL     = 11
	SYS_CLOSE    = 12
)

// Standard descriptors. They are served by the console and never appear in a
// process's descriptor table.
const (
	STDIN_FILENO  = 0
	STDOUT_FILENO = 1

	// FirstFD is the first descriptor handed out by open.
	FirstFD = 2
)

// Address space layout.
const (
	// PhysBase is the user/kernel split. Every user virtual address is
	// strictly below it.
	PhysBase = 0xc0000000

	// CodeBase is where user program images start.
	CodeBase = 0x08048000

	// WordSize is the size of a machine word on the trap stack.
	WordSize = 4
)

// Limits.
const (
	// NameMax is the longest file name the filesystem accepts.
	NameMax = 14

	// MaxPathLen bounds strings copied in from user memory, including
	// command lines.
	MaxPathLen = 4096
)

// TID_ERROR is returned by exec when the child cannot be created.
const TID_ERROR = -1

// IsUserAddr reports whether addr lies below the user/kernel split.
func IsUserAddr(addr uint32) bool {
	return addr < PhysBase
}
