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
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"
	"gvisor.dev/userprog/pkg/errors/linuxerr"
)

func TestWaitResolved(t *testing.T) {
	r := NewChildRegistry()
	r.add(5)
	if !r.resolve(5, 42) {
		t.Fatalf("resolve(5) got false, want true")
	}

	got, err := r.Wait(context.Background(), 5)
	if err != nil || got != 42 {
		t.Fatalf("Wait(5) got (%d, %v), want (42, nil)", got, err)
	}
	if _, err := r.Wait(context.Background(), 5); !linuxerr.Equals(linuxerr.ECHILD, err) {
		t.Errorf("second Wait(5) got err %v, want ECHILD", err)
	}
}

func TestWaitNotChild(t *testing.T) {
	r := NewChildRegistry()
	r.add(1)
	if _, err := r.Wait(context.Background(), 2); !linuxerr.Equals(linuxerr.ECHILD, err) {
		t.Errorf("Wait(2) got err %v, want ECHILD", err)
	}
	if r.resolve(2, 0) {
		t.Errorf("resolve(2) of a non-child got true, want false")
	}
}

func TestWaitBlocks(t *testing.T) {
	r := NewChildRegistry()
	r.add(1)
	r.add(2)

	var g errgroup.Group
	var got int32
	g.Go(func() error {
		var err error
		got, err = r.Wait(context.Background(), 2)
		return err
	})

	// Resolving another child must not wake the waiter.
	for r.Awaited() != 2 {
		time.Sleep(time.Millisecond)
	}
	r.resolve(1, 10)
	if a := r.Awaited(); a != 2 {
		t.Errorf("Awaited after unrelated exit got %d, want 2", a)
	}

	r.resolve(2, -1)
	if err := g.Wait(); err != nil {
		t.Fatalf("Wait(2): %v", err)
	}
	if got != -1 {
		t.Errorf("Wait(2) got %d, want -1", got)
	}

	want := []ChildEntry{{ID: 1, Resolved: true, ExitStatus: 10}}
	if diff := cmp.Diff(want, r.Entries()); diff != "" {
		t.Errorf("Entries mismatch (-want +got):\n%s", diff)
	}
	if a := r.Awaited(); a != 0 {
		t.Errorf("Awaited after wait got %d, want 0", a)
	}
}

func TestWaitConcurrentBusy(t *testing.T) {
	r := NewChildRegistry()
	r.add(1)
	r.add(2)

	done := make(chan error, 1)
	go func() {
		_, err := r.Wait(context.Background(), 1)
		done <- err
	}()
	for r.Awaited() != 1 {
		time.Sleep(time.Millisecond)
	}

	if _, err := r.Wait(context.Background(), 2); !linuxerr.Equals(linuxerr.EBUSY, err) {
		t.Errorf("concurrent Wait(2) got err %v, want EBUSY", err)
	}

	r.resolve(1, 0)
	if err := <-done; err != nil {
		t.Errorf("Wait(1): %v", err)
	}
}

func TestWaitCancelled(t *testing.T) {
	r := NewChildRegistry()
	r.add(1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := r.Wait(ctx, 1)
		done <- err
	}()
	for r.Awaited() != 1 {
		time.Sleep(time.Millisecond)
	}
	cancel()
	if err := <-done; err == nil {
		t.Fatalf("cancelled Wait got nil error")
	}

	// The child is still unreaped, and a later wait sees its status.
	r.resolve(1, 3)
	if got, err := r.Wait(context.Background(), 1); err != nil || got != 3 {
		t.Errorf("Wait after cancel got (%d, %v), want (3, nil)", got, err)
	}
}

// TestWaitManyChildren waits for many children exiting concurrently, one
// wait at a time, the way a single-threaded parent would.
func TestWaitManyChildren(t *testing.T) {
	const n = 50
	r := NewChildRegistry()
	for id := ThreadID(1); id <= n; id++ {
		r.add(id)
	}

	var g errgroup.Group
	for id := ThreadID(1); id <= n; id++ {
		id := id
		g.Go(func() error {
			r.resolve(id, int32(id)*2)
			return nil
		})
	}

	for id := ThreadID(1); id <= n; id++ {
		got, err := r.Wait(context.Background(), id)
		if err != nil {
			t.Fatalf("Wait(%d): %v", id, err)
		}
		if want := int32(id) * 2; got != want {
			t.Errorf("Wait(%d) got %d, want %d", id, got, want)
		}
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if got := len(r.Entries()); got != 0 {
		t.Errorf("Entries after reaping all got %d, want 0", got)
	}
}
