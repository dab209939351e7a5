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

package kernel

import (
	"sync"

	"gvisor.dev/userprog/pkg/sentry/fs"
)

// FSGate serializes access to a filesystem. Every call into the filesystem
// or into one of its open files is made with mu held, so the filesystem
// never sees two callers at once.
//
// A single FSGate is shared by every task of a kernel.
type FSGate struct {
	mu sync.Mutex

	// fs is the filesystem. It is only used with mu held.
	fs fs.Filesystem
}

// NewFSGate returns a gate in front of filesystem.
func NewFSGate(filesystem fs.Filesystem) *FSGate {
	return &FSGate{fs: filesystem}
}

// Create creates name with the given initial size.
func (g *FSGate) Create(name string, size int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fs.Create(name, size)
}

// Remove removes name.
func (g *FSGate) Remove(name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fs.Remove(name)
}

// Open opens name.
func (g *FSGate) Open(name string) (fs.File, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fs.Open(name)
}

// Length returns the size of f.
func (g *FSGate) Length(f fs.File) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return f.Length()
}

// Read reads from f into dst.
func (g *FSGate) Read(f fs.File, dst []byte) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return f.Read(dst)
}

// Write writes src to f.
func (g *FSGate) Write(f fs.File, src []byte) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return f.Write(src)
}

// Seek sets the position of f.
func (g *FSGate) Seek(f fs.File, pos int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	f.Seek(pos)
}

// Tell returns the position of f.
func (g *FSGate) Tell(f fs.File) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return f.Tell()
}

// Close closes f.
func (g *FSGate) Close(f fs.File) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return f.Close()
}
