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

// Package hostfs provides an fs.Filesystem backed by a directory on the host.
//
// Every file lives directly in the root directory. As with memfs, a file's
// size is set when it is created and writes never extend it.
package hostfs

import (
	"errors"
	"fmt"
	"path/filepath"

	"golang.org/x/sys/unix"
	"gvisor.dev/userprog/pkg/errors/linuxerr"
	"gvisor.dev/userprog/pkg/log"
	"gvisor.dev/userprog/pkg/sentry/fs"
)

// Filesystem implements fs.Filesystem.
type Filesystem struct {
	root string
}

var _ fs.Filesystem = (*Filesystem)(nil)

// New returns a filesystem rooted at the host directory root.
func New(root string) (*Filesystem, error) {
	var st unix.Stat_t
	if err := unix.Stat(root, &st); err != nil {
		return nil, fmt.Errorf("stat %q: %w", root, err)
	}
	if st.Mode&unix.S_IFMT != unix.S_IFDIR {
		return nil, fmt.Errorf("%q is not a directory", root)
	}
	return &Filesystem{root: root}, nil
}

func (f *Filesystem) path(name string) (string, error) {
	if err := fs.ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(f.root, name), nil
}

// Create implements fs.Filesystem.Create.
func (f *Filesystem) Create(name string, size int64) error {
	p, err := f.path(name)
	if err != nil {
		return err
	}
	if err := fs.ValidateSize(size); err != nil {
		return err
	}
	fd, err := unix.Open(p, unix.O_RDWR|unix.O_CREAT|unix.O_EXCL|unix.O_CLOEXEC, 0644)
	if err != nil {
		return translate(err)
	}
	defer unix.Close(fd)
	if err := unix.Ftruncate(fd, size); err != nil {
		unix.Unlink(p)
		return translate(err)
	}
	return nil
}

// Remove implements fs.Filesystem.Remove.
func (f *Filesystem) Remove(name string) error {
	p, err := f.path(name)
	if err != nil {
		return err
	}
	return translate(unix.Unlink(p))
}

// Open implements fs.Filesystem.Open.
func (f *Filesystem) Open(name string) (fs.File, error) {
	p, err := f.path(name)
	if err != nil {
		return nil, err
	}
	fd, err := unix.Open(p, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, translate(err)
	}
	return &file{fd: fd}, nil
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	var errno unix.Errno
	if errors.As(err, &errno) {
		return linuxerr.ErrorFromUnix(errno)
	}
	return linuxerr.EIO
}

// file implements fs.File over a host descriptor.
type file struct {
	fd  int
	pos int64
}

// Length implements fs.File.Length.
func (f *file) Length() int64 {
	var st unix.Stat_t
	if err := unix.Fstat(f.fd, &st); err != nil {
		log.Warningf("fstat on host fd %d failed: %v", f.fd, err)
		return 0
	}
	return st.Size
}

// Read implements fs.File.Read.
func (f *file) Read(dst []byte) (int, error) {
	n, err := unix.Pread(f.fd, dst, f.pos)
	if err != nil {
		return 0, translate(err)
	}
	f.pos += int64(n)
	return n, nil
}

// Write implements fs.File.Write.
func (f *file) Write(src []byte) (int, error) {
	length := f.Length()
	if f.pos >= length {
		return 0, nil
	}
	if rem := length - f.pos; int64(len(src)) > rem {
		src = src[:rem]
	}
	n, err := unix.Pwrite(f.fd, src, f.pos)
	if err != nil {
		return 0, translate(err)
	}
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
	return translate(unix.Close(f.fd))
}
