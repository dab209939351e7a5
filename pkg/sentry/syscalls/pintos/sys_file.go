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
	"gvisor.dev/userprog/pkg/errors/linuxerr"
	"gvisor.dev/userprog/pkg/log"
	"gvisor.dev/userprog/pkg/sentry/arch"
	"gvisor.dev/userprog/pkg/sentry/fs"
	"gvisor.dev/userprog/pkg/sentry/kernel"
)

// Create implements create.
func Create(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	addr := args[0].Pointer()
	size := args[1].Uint()

	name, err := t.CopyInString(addr)
	if err != nil {
		return boolResult(t, "create", err)
	}
	return boolResult(t, "create", t.Kernel().FSGate().Create(name, int64(size)))
}

// Remove implements remove.
func Remove(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	addr := args[0].Pointer()

	name, err := t.CopyInString(addr)
	if err != nil {
		return boolResult(t, "remove", err)
	}
	return boolResult(t, "remove", t.Kernel().FSGate().Remove(name))
}

// Open implements open.
func Open(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	addr := args[0].Pointer()

	name, err := t.CopyInString(addr)
	if err != nil {
		return 0, err
	}
	gate := t.Kernel().FSGate()
	file, err := gate.Open(name)
	if err != nil {
		return 0, err
	}
	fd, err := t.FDTable().NewFD(file)
	if err != nil {
		if cerr := gate.Close(file); cerr != nil {
			log.Warningf("[%d] closing %q: %v", t.ID(), name, cerr)
		}
		return 0, err
	}
	return uintptr(fd), nil
}

// getFile returns the file open at fd. The console descriptors are never in
// the table.
func getFile(t *kernel.Task, fd int32) (fs.File, error) {
	file := t.FDTable().Get(fd)
	if file == nil {
		return nil, linuxerr.EBADF
	}
	return file, nil
}

// Filesize implements filesize.
func Filesize(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	fd := args[0].Int()

	file, err := getFile(t, fd)
	if err != nil {
		return 0, err
	}
	return uintptr(t.Kernel().FSGate().Length(file)), nil
}

// Seek implements seek.
func Seek(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	fd := args[0].Int()
	pos := args[1].Uint()

	file, err := getFile(t, fd)
	if err != nil {
		return 0, err
	}
	t.Kernel().FSGate().Seek(file, int64(pos))
	return 0, nil
}

// Tell implements tell.
func Tell(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	fd := args[0].Int()

	file, err := getFile(t, fd)
	if err != nil {
		return 0, err
	}
	return uintptr(t.Kernel().FSGate().Tell(file)), nil
}

// Close implements close. Closing a descriptor that is not open does
// nothing.
func Close(t *kernel.Task, args arch.SyscallArguments) (uintptr, error) {
	fd := args[0].Int()

	// Remove from the table before closing, so a second close finds
	// nothing.
	file := t.FDTable().Remove(fd)
	if file == nil {
		return 0, nil
	}
	if err := t.Kernel().FSGate().Close(file); err != nil {
		log.Warningf("[%d] close(%d): %v", t.ID(), fd, err)
	}
	return 0, nil
}
