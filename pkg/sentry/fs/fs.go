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

// Package fs defines the filesystem capability consumed by the syscall layer.
//
// Implementations are not required to be safe for concurrent use. The kernel
// serializes every call made through these interfaces behind a single lock,
// so implementations may assume at most one call is in flight at a time.
//
// The namespace is flat: names are plain file names, without directories.
package fs

import (
	"strings"

	"gvisor.dev/userprog/pkg/abi/pintos"
	"gvisor.dev/userprog/pkg/errors/linuxerr"
)

// Filesystem is a flat namespace of files.
type Filesystem interface {
	// Create creates a file called name, initially size bytes long and
	// zero-filled. It fails with EEXIST if the name is taken.
	Create(name string, size int64) error

	// Remove removes the named file. Files that are open stay usable
	// through their existing handles until closed.
	Remove(name string) error

	// Open opens the named file. Every call returns an independent handle
	// with its own position, starting at 0.
	Open(name string) (File, error)
}

// File is an open handle on a file.
type File interface {
	// Length returns the size of the file in bytes.
	Length() int64

	// Read reads up to len(dst) bytes at the current position and
	// advances it. It returns 0 at end of file.
	Read(dst []byte) (int, error)

	// Write writes up to len(src) bytes at the current position and
	// advances it. It returns the number of bytes actually written, which
	// may be short.
	Write(src []byte) (int, error)

	// Seek sets the position. Positions past the end of file are allowed.
	Seek(pos int64)

	// Tell returns the position.
	Tell() int64

	// Close releases the handle. The handle must not be used afterwards.
	Close() error
}

// MaxFileSize is the largest size a file may be created with.
const MaxFileSize = 8 << 20

// ValidateSize checks a requested file size.
func ValidateSize(size int64) error {
	switch {
	case size < 0:
		return linuxerr.EINVAL
	case size > MaxFileSize:
		return linuxerr.EFBIG
	}
	return nil
}

// ValidateName checks a file name against the namespace rules shared by all
// implementations.
func ValidateName(name string) error {
	switch {
	case name == "":
		return linuxerr.ENOENT
	case len(name) > pintos.NameMax:
		return linuxerr.ENAMETOOLONG
	case strings.ContainsRune(name, '/'):
		return linuxerr.EINVAL
	}
	return nil
}
