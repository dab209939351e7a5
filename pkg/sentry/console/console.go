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

// Package console provides the machine consoles used by the kernel.
package console

import (
	"bufio"
	"bytes"
	"io"
	"sync"

	"gvisor.dev/userprog/pkg/log"
)

// Host is a console attached to host streams, usually the standard input
// and output of the process.
type Host struct {
	// in is only read with inMu held.
	inMu sync.Mutex
	in   *bufio.Reader

	// out is only written with outMu held.
	outMu sync.Mutex
	out   io.Writer
}

// NewHost returns a console reading from in and writing to out.
func NewHost(in io.Reader, out io.Writer) *Host {
	return &Host{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// ReadByte implements kernel.Console.ReadByte.
func (h *Host) ReadByte() (byte, error) {
	h.inMu.Lock()
	defer h.inMu.Unlock()
	return h.in.ReadByte()
}

// Write implements kernel.Console.Write.
func (h *Host) Write(b []byte) {
	h.outMu.Lock()
	defer h.outMu.Unlock()
	if _, err := h.out.Write(b); err != nil {
		log.Warningf("Console write failed: %v", err)
	}
}

// Buffer is an in-memory console. Input is supplied up front and output is
// accumulated for inspection.
type Buffer struct {
	mu  sync.Mutex
	in  *bytes.Reader
	out bytes.Buffer

	// writes counts calls to Write.
	writes int
}

// NewBuffer returns a console whose input is in.
func NewBuffer(in string) *Buffer {
	return &Buffer{in: bytes.NewReader([]byte(in))}
}

// ReadByte implements kernel.Console.ReadByte.
func (b *Buffer) ReadByte() (byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.in.ReadByte()
}

// Write implements kernel.Console.Write.
func (b *Buffer) Write(p []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.out.Write(p)
	b.writes++
}

// Output returns everything written so far.
func (b *Buffer) Output() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.out.String()
}

// Writes returns the number of Write calls made so far.
func (b *Buffer) Writes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writes
}
