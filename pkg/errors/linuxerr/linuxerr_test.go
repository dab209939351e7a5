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


package linuxerr_test

import (
	"fmt"
	"testing"

	"golang.org/x/sys/unix"
	"gvisor.dev/userprog/pkg/errors/linuxerr"
)

func TestEquals(t *testing.T) {
	for _, tc := range []struct {
		name string
		err  error
		want bool
	}{
		{name: "same", err: linuxerr.EFAULT, want: true},
		{name: "wrapped", err: fmt.Errorf("reading arg 1: %w", linuxerr.EFAULT), want: true},
		{name: "unix errno", err: unix.EFAULT, want: true},
		{name: "other errno", err: linuxerr.EBADF, want: false},
		{name: "nil", err: nil, want: false},
		{name: "plain", err: fmt.Errorf("bad address"), want: false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := linuxerr.Equals(linuxerr.EFAULT, tc.err); got != tc.want {
				t.Errorf("Equals(EFAULT, %v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestErrorFromUnix(t *testing.T) {
	if err := linuxerr.ErrorFromUnix(0); err != nil {
		t.Errorf("ErrorFromUnix(0) = %v, want nil", err)
	}
	if err := linuxerr.ErrorFromUnix(unix.ENOENT); err != linuxerr.ENOENT {
		t.Errorf("ErrorFromUnix(ENOENT) = %v, want %v", err, linuxerr.ENOENT)
	}
	if err := linuxerr.ErrorFromUnix(unix.EXDEV); err != linuxerr.EIO {
		t.Errorf("ErrorFromUnix(EXDEV) = %v, want %v", err, linuxerr.EIO)
	}
	if got := linuxerr.ToUnix(linuxerr.ECHILD); got != unix.ECHILD {
		t.Errorf("ToUnix(ECHILD) = %v, want %v", got, unix.ECHILD)
	}
}
