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


// Package mm implements the page table of a simulated 32-bit user address
// space. Only the mapping state is modelled: a page is either mapped to a
// zero-filled frame or absent.
package mm

import (
	"fmt"
	"sync"

	"gvisor.dev/userprog/pkg/abi/pintos"
	"gvisor.dev/userprog/pkg/errors/linuxerr"
	"gvisor.dev/userprog/pkg/hostarch"
)

// PageTable maps user pages to frames.
//
// Translate may be called concurrently with Map and Release.
type PageTable struct {
	// mu protects pages.
	mu sync.RWMutex

	// pages maps a page-aligned user address to its frame. Every frame
	// is exactly hostarch.PageSize bytes long.
	pages map[hostarch.Addr][]byte
}

// NewPageTable returns an empty page table.
func NewPageTable() *PageTable {
	return &PageTable{
		pages: make(map[hostarch.Addr][]byte),
	}
}

// Map maps every page in ar to a fresh zero-filled frame. Pages that are
// already mapped keep their contents.
//
// ar must be page aligned and lie entirely in user space.
func (pt *PageTable) Map(ar hostarch.AddrRange) error {
	if !ar.WellFormed() || !ar.IsPageAligned() {
		return fmt.Errorf("mapping %v: %w", ar, linuxerr.EINVAL)
	}
	if ar.Length() == 0 {
		return nil
	}
	if !pintos.IsUserAddr(uint32(ar.End - 1)) {
		return fmt.Errorf("mapping %v above user space: %w", ar, linuxerr.EFAULT)
	}

	pt.mu.Lock()
	defer pt.mu.Unlock()
	ar.Pages(func(page hostarch.Addr) bool {
		if _, ok := pt.pages[page]; !ok {
			pt.pages[page] = make([]byte, hostarch.PageSize)
		}
		return true
	})
	return nil
}

// Translate returns the frame backing the page that contains addr, or false
// if that page is not mapped. Kernel addresses are never mapped.
func (pt *PageTable) Translate(addr hostarch.Addr) ([]byte, bool) {
	if !pintos.IsUserAddr(uint32(addr)) {
		return nil, false
	}
	pt.mu.RLock()
	frame, ok := pt.pages[addr.RoundDown()]
	pt.mu.RUnlock()
	return frame, ok
}

// MappedPages returns the number of mapped pages.
func (pt *PageTable) MappedPages() int {
	pt.mu.RLock()
	defer pt.mu.RUnlock()
	return len(pt.pages)
}

// Release unmaps everything.
func (pt *PageTable) Release() {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	pt.pages = make(map[hostarch.Addr][]byte)
}
