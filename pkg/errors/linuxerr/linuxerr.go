// Copyright 2021 The gVisor Authors.
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


// Package linuxerr contains syscall error codes exported as error interface
// pointers. This allows for fast comparison and return operations comparable
// to unix.Errno constants.
package linuxerr

import (
	goerrors "errors"

	"golang.org/x/sys/unix"
	"gvisor.dev/userprog/pkg/errors"
)

// The following errors are semantically identical to Errno of type unix.Errno.
// However, since the types are distinct (these are *errors.Error), they are
// not directly comparable. The Errno method returns an Errno number such that
// the error can be compared to unix.Errno (e.g. EFAULT.Errno() == unix.EFAULT
// is true).
var (
	noError *errors.Error = nil

	ENOENT       = errors.New(unix.ENOENT, "no such file or directory")
	ESRCH        = errors.New(unix.ESRCH, "no such process")
	EBADF        = errors.New(unix.EBADF, "bad file number")
	ECHILD       = errors.New(unix.ECHILD, "no child processes")
	EFAULT       = errors.New(unix.EFAULT, "bad address")
	EBUSY        = errors.New(unix.EBUSY, "device or resource busy")
	EEXIST       = errors.New(unix.EEXIST, "file exists")
	EFBIG        = errors.New(unix.EFBIG, "file too large")
	EISDIR       = errors.New(unix.EISDIR, "is a directory")
	EINVAL       = errors.New(unix.EINVAL, "invalid argument")
	EMFILE       = errors.New(unix.EMFILE, "too many open files")
	ENOSPC       = errors.New(unix.ENOSPC, "no space left on device")
	ENOEXEC      = errors.New(unix.ENOEXEC, "exec format error")
	ENOMEM       = errors.New(unix.ENOMEM, "out of memory")
	ENAMETOOLONG = errors.New(unix.ENAMETOOLONG, "file name too long")
	ENOSYS       = errors.New(unix.ENOSYS, "invalid system call number")
	EIO          = errors.New(unix.EIO, "I/O error")
)

var errorMap = map[unix.Errno]*errors.Error{
	unix.ENOENT:       ENOENT,
	unix.ESRCH:        ESRCH,
	unix.EBADF:        EBADF,
	unix.ECHILD:       ECHILD,
	unix.EFAULT:       EFAULT,
	unix.EBUSY:        EBUSY,
	unix.EEXIST:       EEXIST,
	unix.EFBIG:        EFBIG,
	unix.EISDIR:       EISDIR,
	unix.EINVAL:       EINVAL,
	unix.EMFILE:       EMFILE,
	unix.ENOSPC:       ENOSPC,
	unix.ENOEXEC:      ENOEXEC,
	unix.ENOMEM:       ENOMEM,
	unix.ENAMETOOLONG: ENAMETOOLONG,
	unix.ENOSYS:       ENOSYS,
	unix.EIO:          EIO,
}

// ErrorFromUnix returns a linuxerr from a unix.Errno. Errnos without a
// dedicated value map to EIO.
func ErrorFromUnix(err unix.Errno) error {
	if err == unix.Errno(0) {
		return nil
	}
	if e, ok := errorMap[err]; ok {
		return e
	}
	return EIO
}

// ToError converts a linuxerr to an error type.
func ToError(err *errors.Error) error {
	if err == noError {
		return nil
	}
	return err
}

// ToUnix converts a linuxerr to a unix.Errno.
func ToUnix(e *errors.Error) unix.Errno {
	var unixErr unix.Errno
	if e != noError {
		unixErr = e.Errno()
	}
	return unixErr
}

// Equals compares a linuxerr to a given error. Wrapped errors are unwrapped.
func Equals(e *errors.Error, err error) bool {
	if err == nil {
		return e == noError
	}
	var target *errors.Error
	if goerrors.As(err, &target) {
		return target == e
	}
	var unixErr unix.Errno
	if goerrors.As(err, &unixErr) {
		return e != noError && e.Errno() == unixErr
	}
	return false
}
