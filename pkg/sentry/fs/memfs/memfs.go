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

// Package memfs provides an in-memory fs.Filesystem.
//
// File sizes are fixed at creation: writes stop at end of file and never
// extend it. Removing a file unlinks the name immediately, while the data
// stays reachable from handles opened before the removal.
package memfs

import (
	"sort"

	"gvisor.dev/userprog/pkg/errors/linuxerr"
	"gvisor.dev/userprog/pkg/sentry/fs"
)

// inode holds file contents. Its length never changes.
type inode struct {
	data []byte
}

// Filesystem implements fs.Filesystem.
type Filesystem struct {
	// capacity bounds the sum of all file sizes. Zero means unlimited.
	capacity int64

	// used is the sum of all linked file sizes.
	used int64

	files map[string]*inode
}

var _ fs.Filesystem = (*Filesystem)(nil)

// DefaultCapacity is the capacity used by the command line unless another is
// given.
const DefaultCapacity = 64 << 20

// New returns an empty filesystem. capacity bounds the total number of bytes
// held by linked files; zero means unlimited.
func New(capacity int64) *Filesystem {
	return &Filesystem{
		capacity: capacity,
		files:    make(map[string]*inode),
	}
}

// Create implements fs.Filesystem.Create.
func (f *Filesystem) Create(name string, size int64) error {
	if err := fs.ValidateName(name); err != nil {
		return err
	}
	if err := fs.ValidateSize(size); err != nil {
		return err
	}
	if _, ok := f.files[name]; ok {
		return linuxerr.EEXIST
	}
	if f.capacity > 0 && f.used+size > f.capacity {
		return linuxerr.ENOSPC
	}
	f.files[name] = &inode{data: make([]byte, size)}
	f.used += size
	return nil
}

// Remove implements fs.Filesystem.Remove.
func (f *Filesystem) Remove(name string) error {
	in, ok := f.files[name]
	if !ok {
		return linuxerr.ENOENT
	}
	delete(f.files, name)
	f.used -= int64(len(in.data))
	return nil
}

// Open implements fs.Filesystem.Open.
func (f *Filesystem) Open(name string) (fs.File, error) {
	if err := fs.ValidateName(name); err != nil {
		return nil, err
	}
	in, ok := f.files[name]
	if !ok {
		return nil, linuxerr.ENOENT
	}
	return &file{inode: in}, nil
}

// Names returns the linked file names in sorted order.
func (f *Filesystem) Names() []string {
	names := make([]string, 0, len(f.files))
	for name := range f.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// file implements fs.File.
type file struct {
	inode *inode
	pos   int64
}

// Length implements fs.File.Length.
func (f *file) Length() int64 {
	return int64(len(f.inode.data))
}

// Read implements fs.File.Read.
func (f *file) Read(dst []byte) (int, error) {
	if f.pos >= f.Length() {
		return 0, nil
	}
	n := copy(dst, f.inode.data[f.pos:])
	f.pos += int64(n)
	return n, nil
}

// Write implements fs.File.Write.
func (f *file) Write(src []byte) (int, error) {
	if f.pos >= f.Length() {
		return 0, nil
	}
	n := copy(f.inode.data[f.pos:], src)
	f.pos += int64(n)
	return n, nil
}

// Seek implements fs.File.Seek.
func (f *file) Seek(pos int64) {
	f.pos = pos
}

// Tell implements fs.File.Tell.
func (f *file) Tell() int64 {
	return f.pos
}

// Close implements fs.File.Close.
func (f *file) Close() error {
	f.inode = nil
	return nil
}
