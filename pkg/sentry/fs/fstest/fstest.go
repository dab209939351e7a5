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

// Package fstest provides an instrumented fs.Filesystem for tests. It counts
// how many calls are inside the wrapped filesystem at once, so tests can
// check that callers serialize access.
package fstest

import (
	"runtime"
	"sync/atomic"

	"gvisor.dev/userprog/pkg/sentry/fs"
)

// Counting wraps a filesystem and records the maximum number of concurrent
// calls into it and its files.
type Counting struct {
	fs.Filesystem

	inside atomic.Int32
	max    atomic.Int32
	calls  atomic.Int64
}

var _ fs.Filesystem = (*Counting)(nil)

// NewCounting wraps inner.
func NewCounting(inner fs.Filesystem) *Counting {
	return &Counting{Filesystem: inner}
}

// MaxConcurrency returns the largest number of calls observed in flight at
// the same time.
func (c *Counting) MaxConcurrency() int {
	return int(c.max.Load())
}

// Calls returns the total number of calls made.
func (c *Counting) Calls() int64 {
	return c.calls.Load()
}

func (c *Counting) enter() {
	c.calls.Add(1)
	n := c.inside.Add(1)
	for {
		m := c.max.Load()
		if n <= m || c.max.CompareAndSwap(m, n) {
			break
		}
	}
	// Widen the window in which an unserialized caller would overlap.
	runtime.Gosched()
}

func (c *Counting) exit() {
	c.inside.Add(-1)
}

// Create implements fs.Filesystem.Create.
func (c *Counting) Create(name string, size int64) error {
	c.enter()
	defer c.exit()
	return c.Filesystem.Create(name, size)
}

// Remove implements fs.Filesystem.Remove.
func (c *Counting) Remove(name string) error {
	c.enter()
	defer c.exit()
	return c.Filesystem.Remove(name)
}

// Open implements fs.Filesystem.Open.
func (c *Counting) Open(name string) (fs.File, error) {
	c.enter()
	defer c.exit()
	f, err := c.Filesystem.Open(name)
	if err != nil {
		return nil, err
	}
	return &countingFile{File: f, c: c}, nil
}

type countingFile struct {
	fs.File
	c *Counting
}

func (f *countingFile) Length() int64 {
	f.c.enter()
	defer f.c.exit()
	return f.File.Length()
}

func (f *countingFile) Read(dst []byte) (int, error) {
	f.c.enter()
	defer f.c.exit()
	return f.File.Read(dst)
}

func (f *countingFile) Write(src []byte) (int, error) {
	f.c.enter()
	defer f.c.exit()
	return f.File.Write(src)
}

func (f *countingFile) Seek(pos int64) {
	f.c.enter()
	defer f.c.exit()
	f.File.Seek(pos)
}

func (f *countingFile) Tell() int64 {
	f.c.enter()
	defer f.c.exit()
	return f.File.Tell()
}

func (f *countingFile) Close() error {
	f.c.enter()
	defer f.c.exit()
	return f.File.Close()
}
