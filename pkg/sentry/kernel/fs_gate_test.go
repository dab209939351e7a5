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
	"fmt"
	"testing"

	"golang.org/x/sync/errgroup"
	"gvisor.dev/userprog/pkg/sentry/fs/fstest"
	"gvisor.dev/userprog/pkg/sentry/fs/memfs"
)

func TestFSGateSerializes(t *testing.T) {
	counting := fstest.NewCounting(memfs.New(0))
	gate := NewFSGate(counting)

	const workers = 16
	var g errgroup.Group
	for i := 0; i < workers; i++ {
		name := fmt.Sprintf("f%d", i)
		g.Go(func() error {
			if err := gate.Create(name, 8); err != nil {
				return err
			}
			f, err := gate.Open(name)
			if err != nil {
				return err
			}
			if _, err := gate.Write(f, []byte("12345678")); err != nil {
				return err
			}
			gate.Seek(f, 0)
			buf := make([]byte, 8)
			if _, err := gate.Read(f, buf); err != nil {
				return err
			}
			if got := gate.Tell(f); got != 8 {
				return fmt.Errorf("%s: Tell got %d, want 8", name, got)
			}
			if got := gate.Length(f); got != 8 {
				return fmt.Errorf("%s: Length got %d, want 8", name, got)
			}
			if err := gate.Close(f); err != nil {
				return err
			}
			return gate.Remove(name)
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	if got := counting.MaxConcurrency(); got != 1 {
		t.Errorf("MaxConcurrency got %d, want 1", got)
	}
	if got, want := counting.Calls(), int64(workers*9); got != want {
		t.Errorf("Calls got %d, want %d", got, want)
	}
}
