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

package kernel

import (
	"math"
	"bytes"
	"fmt"

	"github.com/google/btree"
	"gvisor.dev/userprog/pkg/abi/pintos"
	"gvisor.dev/userprog/pkg/errors/linuxerr"
	"gvisor.dev/userprog/pkg/sentry/fs"
)

// descriptor binds a descriptor number to an open file.
type descriptor struct {
	fd   int32
	file fs.File
}

func descriptorLess(a, b descriptor) bool {
	return a.fd < b.fd
}

// FDTable is the set of files a task has open.
//
// Descriptors are handed out in increasing order starting at
// pintos.FirstFD and are never reused, even after a close. The console
// descriptors 0 and 1 are never in the table.
//
// An FDTable is owned by a single task and is only used from that task's
// goroutine, so it has no lock.
type FDTable struct {
	// next is the next descriptor to hand out.
	next int32

	// limit is the maximum number of open descriptors, or 0 for no limit.
	limit int

	// descriptors is ordered by descriptor number.
	descriptors *btree.BTreeG[descriptor]
}

// NewFDTable returns an empty table holding at most limit descriptors. A
// limit of 0 means no limit.
func NewFDTable(limit int) *FDTable {
	return &FDTable{
		next:        pintos.FirstFD,
		limit:       limit,
		descriptors: btree.NewG(2, descriptorLess),
	}
}

// NewFD installs file under the next free descriptor and returns it. Once
// every positive descriptor has been handed out, NewFD fails with EMFILE.
func (f *FDTable) NewFD(file fs.File) (int32, error) {
	if f.limit > 0 && f.descriptors.Len() >= f.limit {
		return -1, linuxerr.EMFILE
	}
	if f.next == math.MaxInt32 {
		return -1, linuxerr.EMFILE
	}
	fd := f.next
	f.next++
	f.descriptors.ReplaceOrInsert(descriptor{fd: fd, file: file})
	return fd, nil
}

// Get returns the file for fd, or nil if fd is not open.
func (f *FDTable) Get(fd int32) fs.File {
	d, ok := f.descriptors.Get(descriptor{fd: fd})
	if !ok {
		return nil
	}
	return d.file
}

// Remove removes fd from the table and returns its file, or nil if fd was
// not open. The caller is responsible for closing the file.
func (f *FDTable) Remove(fd int32) fs.File {
	d, ok := f.descriptors.Delete(descriptor{fd: fd})
	if !ok {
		return nil
	}
	return d.file
}

// RemoveAll empties the table and returns every file that was open, in
// descriptor order.
func (f *FDTable) RemoveAll() []fs.File {
	files := make([]fs.File, 0, f.Size())
	f.forEach(func(_ int32, file fs.File) {
		files = append(files, file)
	})
	f.descriptors.Clear(false)
	return files
}

// Size returns the number of open descriptors.
func (f *FDTable) Size() int {
	return f.descriptors.Len()
}

// GetFDs returns the open descriptors in increasing order.
func (f *FDTable) GetFDs() []int32 {
	fds := make([]int32, 0, f.Size())
	f.forEach(func(fd int32, _ fs.File) {
		fds = append(fds, fd)
	})
	return fds
}

// forEach iterates over all open descriptors in order.
func (f *FDTable) forEach(fn func(fd int32, file fs.File)) {
	f.descriptors.Ascend(func(d descriptor) bool {
		fn(d.fd, d.file)
		return true
	})
}

// String is a stringer for FDTable.
func (f *FDTable) String() string {
	var b bytes.Buffer
	f.forEach(func(fd int32, file fs.File) {
		fmt.Fprintf(&b, "\tfd:%d => %T\n", fd, file)
	})
	return b.String()
}
