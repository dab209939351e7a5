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

package pintos

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"
	"gvisor.dev/userprog/pkg/abi/pintos"
	"gvisor.dev/userprog/pkg/sentry/fs"
	"gvisor.dev/userprog/pkg/sentry/kernel"
	"gvisor.dev/userprog/pkg/ulib"
)

func TestCreateRemove(t *testing.T) {
	m := newMachine(t, "")
	var got []bool
	status := m.run(t, "prog", func(env *ulib.Env) int {
		got = append(got,
			env.Create("a", 10),
			env.Create("a", 10),
			env.Create("", 10),
			env.Create(strings.Repeat("n", pintos.NameMax), 0),
			env.Create(strings.Repeat("n", pintos.NameMax+1), 0),
			env.Remove("a"),
			env.Remove("a"),
			env.Remove(""),
		)
		return int(env.Open("a"))
	})
	want := []bool{true, false, false, true, false, true, false, false}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}
	if status != -1 {
		t.Errorf("open of removed file got %d, want -1", status)
	}
	if diff := cmp.Diff([]string{strings.Repeat("n", pintos.NameMax)}, m.mem.Names()); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateTooLarge(t *testing.T) {
	m := newMachine(t, "")
	var got []bool
	m.run(t, "prog", func(env *ulib.Env) int {
		got = append(got,
			env.Create("big", 0xc0000000),
			env.Create("big", fs.MaxFileSize+1),
			env.Create("big", fs.MaxFileSize),
		)
		return 0
	})
	if diff := cmp.Diff([]bool{false, false, true}, got); diff != "" {
		t.Errorf("results mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"big"}, m.mem.Names()); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
}

// TestDescriptorsIncrease checks that descriptors are distinct and strictly
// increasing across interleaved closes.
func TestDescriptorsIncrease(t *testing.T) {
	m := newMachine(t, "")
	if err := m.mem.Create("f", 4); err != nil {
		t.Fatalf("Create: %v", err)
	}
	var fds []int32
	m.run(t, "prog", func(env *ulib.Env) int {
		for i := 0; i < 20; i++ {
			fd := env.Open("f")
			fds = append(fds, fd)
			if i%3 == 0 {
				env.Close(fd)
			}
		}
		return 0
	})
	if len(fds) != 20 {
		t.Fatalf("got %d descriptors, want 20", len(fds))
	}
	if fds[0] != pintos.FirstFD {
		t.Errorf("first descriptor got %d, want %d", fds[0], pintos.FirstFD)
	}
	for i := 1; i < len(fds); i++ {
		if fds[i] <= fds[i-1] {
			t.Errorf("descriptor %d is %d, not above %d", i, fds[i], fds[i-1])
		}
	}
}

// TestDescriptorsPerProcess checks that every process numbers its own
// descriptors.
func TestDescriptorsPerProcess(t *testing.T) {
	m := newMachine(t, "")
	if err := m.mem.Create("f", 4); err != nil {
		t.Fatalf("Create: %v", err)
	}
	m.register(t, "child", func(env *ulib.Env) int {
		return int(env.Open("f"))
	})
	var parentFD, childFD int32
	m.run(t, "parent", func(env *ulib.Env) int {
		parentFD = env.Open("f")
		env.Open("f")
		childFD = env.Wait(env.Exec("child"))
		return 0
	})
	if parentFD != pintos.FirstFD || childFD != pintos.FirstFD {
		t.Errorf("first descriptors got parent %d child %d, want %d", parentFD, childFD, pintos.FirstFD)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	m := newMachine(t, "")
	data := []byte("the quick brown fox jumps over the lazy dog")
	n := uint32(len(data))

	var (
		created          bool
		written, read    int32
		size, pos, after int32
		got              []byte
	)
	status := m.run(t, "prog", func(env *ulib.Env) int {
		created = env.Create("data", n)
		fd := env.Open("data")
		written = env.WriteBytes(fd, data)
		env.Close(fd)

		fd = env.Open("data")
		size = env.Filesize(fd)
		buf := env.Alloc(int(n))
		read = env.Read(fd, buf, n)
		got = env.Peek(buf, int(n))
		pos = env.Tell(fd)
		env.Seek(fd, 4)
		after = env.Tell(fd)
		env.Close(fd)
		return 0
	})
	if status != 0 {
		t.Fatalf("exit status got %d, want 0", status)
	}
	if !created {
		t.Fatalf("create failed")
	}
	if written != int32(n) || read != int32(n) {
		t.Errorf("write/read got %d/%d, want %d/%d", written, read, n, n)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("read got %q, want %q", got, data)
	}
	if size != int32(n) || pos != int32(n) || after != 4 {
		t.Errorf("filesize/tell/tell-after-seek got %d/%d/%d, want %d/%d/4", size, pos, after, n, n)
	}
}

// TestWriteDoesNotExtend checks that files keep the size they were created
// with.
func TestWriteDoesNotExtend(t *testing.T) {
	m := newMachine(t, "")
	var written, size, atEnd int32
	m.run(t, "prog", func(env *ulib.Env) int {
		env.Create("small", 4)
		fd := env.Open("small")
		written = env.WriteBytes(fd, []byte("123456"))
		atEnd = env.WriteBytes(fd, []byte("7"))
		size = env.Filesize(fd)
		return 0
	})
	if written != 4 || atEnd != 0 || size != 4 {
		t.Errorf("write/write-at-end/filesize got %d/%d/%d, want 4/0/4", written, atEnd, size)
	}
}

func TestConsole(t *testing.T) {
	const input = "hello world"
	m := newMachine(t, input)

	var (
		wrote, read, short int32
		got, rest          []byte
	)
	m.run(t, "prog", func(env *ulib.Env) int {
		wrote = env.WriteBytes(pintos.STDOUT_FILENO, []byte("some output"))
		buf := env.Alloc(5)
		read = env.Read(pintos.STDIN_FILENO, buf, 5)
		got = env.Peek(buf, 5)
		// Only six bytes of input remain.
		buf = env.Alloc(32)
		short = env.Read(pintos.STDIN_FILENO, buf, 32)
		rest = env.Peek(buf, int(short))
		return 0
	})
	if wrote != 11 {
		t.Errorf("console write got %d, want 11", wrote)
	}
	if read != 5 || string(got) != "hello" {
		t.Errorf("console read got %d %q, want 5 %q", read, got, "hello")
	}
	if short != 6 || string(rest) != " world" {
		t.Errorf("console read at end of input got %d %q, want 6 %q", short, rest, " world")
	}
	if got, want := m.console.Output(), "some outputprog: exit(0)\n"; got != want {
		t.Errorf("console output got %q, want %q", got, want)
	}
	if calls := m.fs.Calls(); calls != 0 {
		t.Errorf("console I/O made %d filesystem calls, want 0", calls)
	}
}

// TestConsoleWriteAtomic checks that each console write reaches the console
// as one unit.
func TestConsoleWriteAtomic(t *testing.T) {
	m := newMachine(t, "")
	line := strings.Repeat("x", 3*4096) + "\n"
	m.run(t, "prog", func(env *ulib.Env) int {
		env.WriteBytes(pintos.STDOUT_FILENO, []byte(line))
		return 0
	})
	// One write for the line, one for the exit message.
	if got := m.console.Writes(); got != 2 {
		t.Errorf("console writes got %d, want 2", got)
	}
}

// TestMissingDescriptor checks that every descriptor-based call fails with
// -1 on a descriptor that is not open, without killing the caller.
func TestMissingDescriptor(t *testing.T) {
	m := newMachine(t, "")
	got := make(map[string]int32)
	status := m.run(t, "prog", func(env *ulib.Env) int {
		buf := env.Alloc(8)
		got["filesize"] = env.Filesize(99)
		got["tell"] = env.Tell(99)
		got["seek"] = env.Syscall(pintos.SYS_SEEK, 99, 0)
		got["read"] = env.Read(99, buf, 8)
		got["write"] = env.Write(99, buf, 8)
		got["read stdout"] = env.Read(pintos.STDOUT_FILENO, buf, 8)
		got["write stdin"] = env.Write(pintos.STDIN_FILENO, buf, 8)
		got["filesize stdin"] = env.Filesize(pintos.STDIN_FILENO)
		got["negative"] = env.Filesize(-1)
		return 0
	})
	if status != 0 {
		t.Fatalf("exit status got %d, want 0", status)
	}
	for name, v := range got {
		if v != -1 {
			t.Errorf("%s got %d, want -1", name, v)
		}
	}
}

func TestClose(t *testing.T) {
	m := newMachine(t, "")
	if err := m.mem.Create("f", 4); err != nil {
		t.Fatalf("Create: %v", err)
	}
	var sizeAfter int32
	var task *kernel.Task
	m.register(t, "prog", func(env *ulib.Env) int {
		env.Close(pintos.STDIN_FILENO)
		env.Close(pintos.STDOUT_FILENO)
		env.Close(42)
		fd := env.Open("f")
		env.Close(fd)
		env.Close(fd)
		sizeAfter = env.Filesize(fd)
		return 0
	})
	task = m.start(t, "prog")
	if status := m.wait(t, task); status != 0 {
		t.Fatalf("exit status got %d, want 0", status)
	}
	if sizeAfter != -1 {
		t.Errorf("filesize on closed fd got %d, want -1", sizeAfter)
	}
	// open, close
	if got := m.fs.Calls(); got != 2 {
		t.Errorf("filesystem calls got %d, want 2", got)
	}
}

// TestExitClosesFiles checks that files left open are closed on exit.
func TestExitClosesFiles(t *testing.T) {
	m := newMachine(t, "")
	if err := m.mem.Create("f", 4); err != nil {
		t.Fatalf("Create: %v", err)
	}
	m.register(t, "prog", func(env *ulib.Env) int {
		for i := 0; i < 3; i++ {
			env.Open("f")
		}
		return 0
	})
	task := m.start(t, "prog")
	m.wait(t, task)
	if got := task.FDTable().Size(); got != 0 {
		t.Errorf("open descriptors after exit got %d, want 0", got)
	}
	// Three opens and three closes.
	if got := m.fs.Calls(); got != 6 {
		t.Errorf("filesystem calls got %d, want 6", got)
	}
}

// TestFilesystemSerialized runs many processes doing file I/O at once and
// checks that the filesystem never sees two calls at the same time.
func TestFilesystemSerialized(t *testing.T) {
	const (
		procs  = 8
		rounds = 20
	)
	m := newMachine(t, "")
	m.register(t, "worker", func(env *ulib.Env) int {
		name := env.Args[1]
		payload := []byte(fmt.Sprintf("%-16s", name))
		if !env.Create(name, uint32(len(payload))) {
			return 1
		}
		for i := 0; i < rounds; i++ {
			fd := env.Open(name)
			if fd < 0 {
				return 2
			}
			if env.WriteBytes(fd, payload) != int32(len(payload)) {
				return 3
			}
			env.Seek(fd, 0)
			if !bytes.Equal(env.ReadBytes(fd, len(payload)), payload) {
				return 4
			}
			env.Close(fd)
		}
		if !env.Remove(name) {
			return 5
		}
		return 0
	})

	var g errgroup.Group
	for i := 0; i < procs; i++ {
		task := m.start(t, fmt.Sprintf("worker w%d", i))
		g.Go(func() error {
			<-task.Done()
			if status := task.ExitStatus(); status != 0 {
				return fmt.Errorf("worker %d exited with %d", task.ID(), status)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	if got := m.fs.MaxConcurrency(); got != 1 {
		t.Errorf("max concurrent filesystem calls got %d, want 1", got)
	}
	if got := m.mem.Names(); len(got) != 0 {
		t.Errorf("files left behind: %v", got)
	}
}

func TestTooManyFiles(t *testing.T) {
	m := newMachine(t, "")
	if err := m.mem.Create("f", 4); err != nil {
		t.Fatalf("Create: %v", err)
	}
	var last int32
	m.run(t, "prog", func(env *ulib.Env) int {
		for i := 0; i <= kernel.DefaultMaxOpenFiles; i++ {
			last = env.Open("f")
		}
		return 0
	})
	if last != -1 {
		t.Errorf("open beyond the limit got %d, want -1", last)
	}
}
