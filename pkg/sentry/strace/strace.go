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

// Package strace implements the logic to print out the input and the return
// value of each traced syscall.
package strace

import (
	"fmt"
	"strings"

	"gvisor.dev/userprog/pkg/abi/pintos"
	"gvisor.dev/userprog/pkg/sentry/arch"
	"gvisor.dev/userprog/pkg/usermem"
)

// ArgKind describes how an argument is printed.
type ArgKind int

// Valid ArgKinds.
const (
	// Int is a signed decimal.
	Int ArgKind = iota

	// Uint is an unsigned decimal.
	Uint

	// FD is a descriptor.
	FD

	// Path is a pointer to a NUL-terminated string.
	Path

	// ReadBuffer is a buffer filled by the call; printed on exit.
	ReadBuffer

	// WriteBuffer is a buffer consumed by the call; printed on entry.
	WriteBuffer
)

// Maximum number of bytes of a buffer argument shown.
const bufferPreview = 32

// Entry formats a syscall invocation. Buffer arguments that depend on a
// length argument take it from the following argument. Memory is read
// through as, and unreadable memory is shown as a bare pointer.
func Entry(as usermem.AddressSpace, name string, kinds []ArgKind, args arch.SyscallArguments) string {
	return format(as, name, kinds, args, false)
}

// Exit formats a completed syscall and its result.
func Exit(as usermem.AddressSpace, name string, kinds []ArgKind, args arch.SyscallArguments, ret int32) string {
	return fmt.Sprintf("%s = %d", format(as, name, kinds, args, true), ret)
}

func format(as usermem.AddressSpace, name string, kinds []ArgKind, args arch.SyscallArguments, exit bool) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('(')
	for i, k := range kinds {
		if i > 0 {
			b.WriteString(", ")
		}
		a := args[i]
		switch k {
		case Int:
			fmt.Fprintf(&b, "%d", a.Int())
		case Uint:
			fmt.Fprintf(&b, "%d", a.Uint())
		case FD:
			b.WriteString(fd(a.Int()))
		case Path:
			s, err := usermem.CopyInString(as, a.Pointer(), pintos.MaxPathLen)
			if err != nil {
				fmt.Fprintf(&b, "%v (bad)", a.Pointer())
			} else {
				fmt.Fprintf(&b, "%v %q", a.Pointer(), s)
			}
		case ReadBuffer, WriteBuffer:
			show := (k == WriteBuffer) != exit
			var n uint32
			if i+1 < len(args) {
				n = args[i+1].SizeT()
			}
			b.WriteString(buffer(as, a, n, show))
		default:
			fmt.Fprintf(&b, "%v", a.Pointer())
		}
	}
	b.WriteByte(')')
	return b.String()
}

func fd(v int32) string {
	switch v {
	case pintos.STDIN_FILENO:
		return "0 (stdin)"
	case pintos.STDOUT_FILENO:
		return "1 (stdout)"
	}
	return fmt.Sprintf("%d", v)
}

func buffer(as usermem.AddressSpace, a arch.SyscallArgument, n uint32, show bool) string {
	if !show || n == 0 {
		return a.Pointer().String()
	}
	if n > bufferPreview {
		n = bufferPreview
	}
	data := make([]byte, n)
	if err := usermem.CopyIn(as, a.Pointer(), data); err != nil {
		return fmt.Sprintf("%v (bad)", a.Pointer())
	}
	return fmt.Sprintf("%v %q", a.Pointer(), data)
}

// String implements fmt.Stringer.
func (k ArgKind) String() string {
	switch k {
	case Int:
		return "int"
	case Uint:
		return "uint"
	case FD:
		return "fd"
	case Path:
		return "path"
	case ReadBuffer:
		return "read-buffer"
	case WriteBuffer:
		return "write-buffer"
	}
	return fmt.Sprintf("ArgKind(%d)", int(k))
}
