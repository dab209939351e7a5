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
	"gvisor.dev/userprog/pkg/abi/pintos"
	"gvisor.dev/userprog/pkg/errors/linuxerr"
	"gvisor.dev/userprog/pkg/hostarch"
	"gvisor.dev/userprog/pkg/sentry/arch"
	"gvisor.dev/userprog/pkg/sentry/kernel"
)

// Read implements read.
func Read(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	fd := args[0].Int()
	addr := args[1].Pointer()
	size := args[2].SizeT()

	// The whole destination must be valid before anything is consumed.
	if err := t.CheckRange(addr, size); err != nil {
		return 0, err
	}

	switch fd {
	case pintos.STDIN_FILENO:
		return readConsole(t, addr, size)
	case pintos.STDOUT_FILENO:
		return 0, linuxerr.EBADF
	}

	file, err := getFile(t, fd)
	if err != nil {
		return 0, err
	}
	buf := make([]byte, size)
	n, err := t.Kernel().FSGate().Read(file, buf)
	if err != nil {
		return 0, err
	}
	if err := t.CopyOutBytes(addr, buf[:n]); err != nil {
		return 0, err
	}
	return uintptr(n), nil
}

// readConsole reads size bytes of console input, one byte at a time. It
// stops early only at end of input.
func readConsole(t *kernel.Task, addr hostarch.Addr, size uint32) (uintptr, error) {
	console := t.Kernel().Console()
	buf := make([]byte, 0, size)
	for uint32(len(buf)) < size {
		c, err := console.ReadByte()
		if err != nil {
			break
		}
		buf = append(buf, c)
	}
	if err := t.CopyOutBytes(addr, buf); err != nil {
		return 0, err
	}
	return uintptr(len(buf)), nil
}

// Write implements write.
func Write(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	fd := args[0].Int()
	addr := args[1].Pointer()
	size := args[2].SizeT()

	if err := t.CheckRange(addr, size); err != nil {
		return 0, err
	}
	buf := make([]byte, size)
	if err := t.CopyInBytes(addr, buf); err != nil {
		return 0, err
	}

	switch fd {
	case pintos.STDOUT_FILENO:
		t.Kernel().Console().Write(buf)
		return uintptr(size), nil
	case pintos.STDIN_FILENO:
		return 0, linuxerr.EBADF
	}

	file, err := getFile(t, fd)
	if err != nil {
		return 0, err
	}
	n, err := t.Kernel().FSGate().Write(file, buf)
	if err != nil {
		return 0, err
	}
	return uintptr(n), nil
}
