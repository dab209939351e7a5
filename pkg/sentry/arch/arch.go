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


// Package arch describes the trap frame handed to the syscall layer and the
// typed view of syscall arguments fetched from the user stack.
package arch

import (
	"fmt"

	"gvisor.dev/userprog/pkg/hostarch"
)

// MaxSyscallArgs is the largest arity of any syscall.
const MaxSyscallArgs = 3

// TrapFrame is the register state captured when a user program issues the
// syscall interrupt. Only the fields consumed by the syscall layer are
// modelled.
type TrapFrame struct {
	// ESP is the user stack pointer. The call number is the word at ESP,
	// argument k is the word at ESP + 4*(k+1).
	ESP hostarch.Addr

	// EAX is the result slot.
	EAX uint32
}

// SetReturn stores a signed result in the result slot.
func (tf *TrapFrame) SetReturn(v int32) {
	tf.EAX = uint32(v)
}

// Return returns the result slot as a signed value.
func (tf *TrapFrame) Return() int32 {
	return int32(tf.EAX)
}

// String implements fmt.Stringer.
func (tf *TrapFrame) String() string {
	return fmt.Sprintf("esp=%v eax=%#x", tf.ESP, tf.EAX)
}

// SyscallArgument is an argument supplied to a syscall implementation. The
// accessors are named after the C type of the argument.
type SyscallArgument struct {
	// Prefer to use accessor methods instead of 'Value' directly.
	Value uint32
}

// SyscallArguments represents the set of arguments passed to a syscall.
type SyscallArguments [MaxSyscallArgs]SyscallArgument

// Pointer returns the hostarch.Addr representation of a pointer argument.
func (a SyscallArgument) Pointer() hostarch.Addr {
	return hostarch.Addr(a.Value)
}

// Int returns the int32 representation of a 32-bit signed integer argument.
func (a SyscallArgument) Int() int32 {
	return int32(a.Value)
}

// Uint returns the uint32 representation of a 32-bit unsigned integer argument.
func (a SyscallArgument) Uint() uint32 {
	return a.Value
}

// SizeT returns the uint32 representation of a size_t argument.
func (a SyscallArgument) SizeT() uint32 {
	return a.Value
}
