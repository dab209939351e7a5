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
	"fmt"
	"slices"

	"gvisor.dev/userprog/pkg/sentry/arch"
	"gvisor.dev/userprog/pkg/sentry/strace"
)

// SyscallFn is a syscall implementation.
//
// A non-nil error is reported to the caller as -1. EFAULT additionally
// kills the caller, so implementations must return it before any side
// effect.
type SyscallFn func(t *Task, args arch.SyscallArguments) (uintptr, error)

// Syscall includes the syscall implementation and compatibility information.
type Syscall struct {
	// Name is the syscall name.
	Name string

	// Fn is the implementation of the syscall.
	Fn SyscallFn

	// Args describes each argument, for tracing. The number of entries is
	// the number of words fetched from the user stack.
	Args []strace.ArgKind
}

// Arity returns the number of arguments taken by the syscall.
func (s Syscall) Arity() int {
	return len(s.Args)
}

// SyscallTable is a lookup table of system calls.
type SyscallTable struct {
	// Name identifies the ABI implemented by the table.
	Name string

	// Table is the collection of functions.
	Table map[uint32]Syscall
}

// Lookup returns the syscall implementation for sysno.
func (s *SyscallTable) Lookup(sysno uint32) (Syscall, bool) {
	sc, ok := s.Table[sysno]
	return sc, ok
}

// Numbers returns every implemented syscall number in increasing order.
func (s *SyscallTable) Numbers() []uint32 {
	nums := make([]uint32, 0, len(s.Table))
	for n := range s.Table {
		nums = append(nums, n)
	}
	slices.Sort(nums)
	return nums
}

// Validate checks that the table is usable.
func (s *SyscallTable) Validate() error {
	for n, sc := range s.Table {
		if sc.Fn == nil {
			return fmt.Errorf("syscall %d (%s) has no implementation", n, sc.Name)
		}
		if sc.Arity() > arch.MaxSyscallArgs {
			return fmt.Errorf("syscall %d (%s) takes %d arguments, at most %d are supported", n, sc.Name, sc.Arity(), arch.MaxSyscallArgs)
		}
	}
	return nil
}
