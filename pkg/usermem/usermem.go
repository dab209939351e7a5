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

// Package usermem governs kernel access to user memory.
//
// Every address handed to the kernel by a user program is untrusted. An
// address is usable only if it lies below pintos.PhysBase and the page
// containing it is mapped in the calling process's address space. All copy
// functions check the whole range before touching any byte, and report a
// violation as linuxerr.EFAULT.
package usermem

import (
	"encoding/binary"

	"gvisor.dev/userprog/pkg/abi/pintos"
	"gvisor.dev/userprog/pkg/errors/linuxerr"
	"gvisor.dev/userprog/pkg/hostarch"
)

// AddressSpace is the page-table query consumed by this package.
type AddressSpace interface {
	// Translate returns the frame backing the page containing addr, or
	// false if the page is not mapped.
	Translate(addr hostarch.Addr) ([]byte, bool)
}

// CheckAddr validates a single user address and returns the kernel view of
// the mapped page, starting at addr.
func CheckAddr(as AddressSpace, addr hostarch.Addr) ([]byte, error) {
	if !pintos.IsUserAddr(uint32(addr)) {
		return nil, linuxerr.EFAULT
	}
	frame, ok := as.Translate(addr)
	if !ok {
		return nil, linuxerr.EFAULT
	}
	return frame[addr.PageOffset():], nil
}

// CheckRange validates every address in [addr, addr+length). An empty range
// is always valid.
func CheckRange(as AddressSpace, addr hostarch.Addr, length uint32) error {
	if length == 0 {
		return nil
	}
	ar, ok := addr.ToRange(length)
	if !ok || !pintos.IsUserAddr(uint32(ar.End-1)) {
		return linuxerr.EFAULT
	}
	var err error
	ar.Pages(func(page hostarch.Addr) bool {
		if _, ok := as.Translate(page); !ok {
			err = linuxerr.EFAULT
			return false
		}
		return true
	})
	return err
}

// CopyIn copies len(dst) bytes from user memory at addr into dst.
func CopyIn(as AddressSpace, addr hostarch.Addr, dst []byte) error {
	if err := CheckRange(as, addr, uint32(len(dst))); err != nil {
		return err
	}
	for done := 0; done < len(dst); {
		frame, err := CheckAddr(as, addr+hostarch.Addr(done))
		if err != nil {
			return err
		}
		done += copy(dst[done:], frame)
	}
	return nil
}

// CopyOut copies src into user memory at addr.
func CopyOut(as AddressSpace, addr hostarch.Addr, src []byte) error {
	if err := CheckRange(as, addr, uint32(len(src))); err != nil {
		return err
	}
	for done := 0; done < len(src); {
		frame, err := CheckAddr(as, addr+hostarch.Addr(done))
		if err != nil {
			return err
		}
		done += copy(frame, src[done:])
	}
	return nil
}

// CopyInWord reads one little-endian machine word at addr.
func CopyInWord(as AddressSpace, addr hostarch.Addr) (uint32, error) {
	var b [pintos.WordSize]byte
	if err := CopyIn(as, addr, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

// CopyOutWord writes one little-endian machine word at addr.
func CopyOutWord(as AddressSpace, addr hostarch.Addr, v uint32) error {
	var b [pintos.WordSize]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return CopyOut(as, addr, b[:])
}

// CopyInString copies a NUL-terminated string from user memory. The string
// is validated page by page as it is scanned, so a terminator before an
// unmapped page is enough. maxlen bounds the length excluding the
// terminator; a longer string yields ENAMETOOLONG.
func CopyInString(as AddressSpace, addr hostarch.Addr, maxlen int) (string, error) {
	buf := make([]byte, 0, 64)
	for {
		frame, err := CheckAddr(as, addr)
		if err != nil {
			return "", err
		}
		for _, c := range frame {
			if c == 0 {
				return string(buf), nil
			}
			if len(buf) == maxlen {
				return "", linuxerr.ENAMETOOLONG
			}
			buf = append(buf, c)
		}
		next, ok := addr.RoundDown().AddLength(hostarch.PageSize)
		if !ok {
			return "", linuxerr.EFAULT
		}
		addr = next
	}
}
