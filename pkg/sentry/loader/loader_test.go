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

package loader

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"gvisor.dev/userprog/pkg/errors/linuxerr"
	"gvisor.dev/userprog/pkg/ulib"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	prog := func(*ulib.Env) int { return 7 }
	for _, name := range []string{"zeta", "alpha"} {
		if err := r.Register(name, prog); err != nil {
			t.Fatalf("Register(%q): %v", name, err)
		}
	}

	main, err := r.Load("alpha")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := main(nil); got != 7 {
		t.Errorf("loaded program returned %d, want 7", got)
	}

	if _, err := r.Load("missing"); !linuxerr.Equals(linuxerr.ENOEXEC, err) {
		t.Errorf("Load of unknown program got err %v, want %v", err, linuxerr.ENOEXEC)
	}

	if diff := cmp.Diff([]string{"alpha", "zeta"}, r.Names()); diff != "" {
		t.Errorf("Names mismatch (-want +got):\n%s", diff)
	}
}

func TestRegisterInvalid(t *testing.T) {
	r := NewRegistry()
	prog := func(*ulib.Env) int { return 0 }
	if err := r.Register("echo", prog); err != nil {
		t.Fatalf("Register(echo): %v", err)
	}

	for _, tc := range []struct {
		name string
		main ulib.Main
	}{
		{name: "", main: prog},
		{name: "two words", main: prog},
		{name: "echo", main: prog},
		{name: "nil", main: nil},
	} {
		if err := r.Register(tc.name, tc.main); err == nil {
			t.Errorf("Register(%q) succeeded, want error", tc.name)
		}
	}
}
