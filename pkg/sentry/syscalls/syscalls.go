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

// Package syscalls is the interface from the application to the kernel.
// Traditionally, syscalls is the interface that is used by applications to
// request services from the kernel of a operating system. We provide a
// kernel that needs to handle those requests coming from user programs.
// Therefore, we still use the term "syscalls" to denote this interface.
//
// The helpers in this package build kernel.Syscall table entries.
package syscalls

import (
	"gvisor.dev/userprog/pkg/sentry/kernel"
	"gvisor.dev/userprog/pkg/sentry/strace"
)

// Supported returns a syscall that is fully supported. args describes each
// argument the syscall takes.
func Supported(name string, fn kernel.SyscallFn, args ...strace.ArgKind) kernel.Syscall {
	return kernel.Syscall{
		Name: name,
		Fn:   fn,
		Args: args,
	}
}
