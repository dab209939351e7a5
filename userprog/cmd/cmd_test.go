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

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gvisor.dev/userprog/pkg/programs"
	"gvisor.dev/userprog/pkg/sentry/console"
	"gvisor.dev/userprog/pkg/sentry/fs/memfs"
	"gvisor.dev/userprog/pkg/sentry/syscalls/pintos"
	"gvisor.dev/userprog/userprog/config"
)

func defaultConfig(t *testing.T, args ...string) *config.Config {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse(%v): %v", args, err)
	}
	conf, err := config.NewFromFlags(fs)
	if err != nil {
		t.Fatalf("NewFromFlags: %v", err)
	}
	return conf
}

func TestSplitCommands(t *testing.T) {
	for _, tc := range []struct {
		args []string
		want []string
	}{
		{args: nil, want: nil},
		{args: []string{"echo", "hi"}, want: []string{"echo hi"}},
		{args: []string{"echo", "a", "--", "cat", "f"}, want: []string{"echo a", "cat f"}},
		{args: []string{"--", "halt", "--", "--"}, want: []string{"halt"}},
	} {
		if got := splitCommands(tc.args); !cmp.Equal(got, tc.want) {
			t.Errorf("splitCommands(%q) = %q, want %q", tc.args, got, tc.want)
		}
	}
}

func TestParsePut(t *testing.T) {
	for _, tc := range []struct {
		in, name, path string
	}{
		{in: "a=/tmp/b", name: "a", path: "/tmp/b"},
		{in: "/tmp/b", name: "b", path: "/tmp/b"},
		{in: "b", name: "b", path: "b"},
	} {
		name, path := parsePut(tc.in)
		if name != tc.name || path != tc.path {
			t.Errorf("parsePut(%q) = (%q, %q), want (%q, %q)", tc.in, name, path, tc.name, tc.path)
		}
	}
}

func TestStringFlags(t *testing.T) {
	var s stringFlags
	for _, v := range []string{"a", "b"} {
		if err := s.Set(v); err != nil {
			t.Fatalf("Set(%q): %v", v, err)
		}
	}
	if err := s.Set(""); err == nil {
		t.Errorf("Set(\"\") succeeded")
	}
	if got, want := s.String(), "a,b"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestPutFile(t *testing.T) {
	hostPath := filepath.Join(t.TempDir(), "data")
	if err := os.WriteFile(hostPath, []byte("contents"), 0644); err != nil {
		t.Fatal(err)
	}
	filesystem := memfs.New(0)
	if err := putFile(filesystem, "data", hostPath); err != nil {
		t.Fatalf("putFile: %v", err)
	}
	f, err := filesystem.Open("data")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()
	buf := make([]byte, 16)
	n, err := f.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got := string(buf[:n]); got != "contents" {
		t.Errorf("file contents = %q, want %q", got, "contents")
	}

	if err := putFile(filesystem, "data", hostPath); err == nil {
		t.Errorf("putFile over an existing file succeeded")
	}
	if err := putFile(filesystem, "other", filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Errorf("putFile of a missing host file succeeded")
	}
}

func TestRunAll(t *testing.T) {
	hostPath := filepath.Join(t.TempDir(), "greeting")
	if err := os.WriteFile(hostPath, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	out := console.NewBuffer("")
	k, err := bootKernel(context.Background(), defaultConfig(t), out, []string{hostPath})
	if err != nil {
		t.Fatalf("bootKernel: %v", err)
	}
	defer k.Halt()

	got, err := runAll(k, []string{"cat greeting", "exit 3"})
	if err != nil {
		t.Fatalf("runAll: %v", err)
	}
	if want := []int32{0, 3}; !cmp.Equal(got, want) {
		t.Errorf("runAll statuses = %v, want %v", got, want)
	}
	for _, want := range []string{"hello", "cat: exit(0)\n", "exit: exit(3)\n"} {
		if !strings.Contains(out.Output(), want) {
			t.Errorf("console output %q does not contain %q", out.Output(), want)
		}
	}

	if _, err := runAll(k, []string{"no-such-program"}); err == nil {
		t.Errorf("runAll of a missing program succeeded")
	}
}

func TestRunAllHalt(t *testing.T) {
	k, err := bootKernel(context.Background(), defaultConfig(t), console.NewBuffer(""), nil)
	if err != nil {
		t.Fatalf("bootKernel: %v", err)
	}
	if _, err := runAll(k, []string{"halt"}); err != nil {
		t.Fatalf("runAll: %v", err)
	}
	if !k.Halted() {
		t.Errorf("machine still running after halt")
	}
}

func TestSyscallDocs(t *testing.T) {
	docs := syscallDocs(pintos.Table)
	if got, want := len(docs), 13; got != want {
		t.Fatalf("got %d syscalls, want %d", got, want)
	}
	for i, d := range docs {
		if d.Num != uint32(i) {
			t.Errorf("docs[%d].Num = %d", i, d.Num)
		}
	}
	if diff := cmp.Diff(SyscallDoc{Num: 9, Name: "write", Args: []string{"fd", "write-buffer", "uint"}}, docs[9]); diff != "" {
		t.Errorf("write doc mismatch (-want +got):\n%s", diff)
	}

	for name, out := range outputMap {
		var b bytes.Buffer
		if err := out(&b, docs); err != nil {
			t.Errorf("%s output: %v", name, err)
		}
		if !strings.Contains(b.String(), "filesize") {
			t.Errorf("%s output %q does not list filesize", name, b.String())
		}
	}

	var b bytes.Buffer
	if err := outputJSON(&b, docs); err != nil {
		t.Fatal(err)
	}
	var decoded []SyscallDoc
	if err := json.Unmarshal(b.Bytes(), &decoded); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	if diff := cmp.Diff(docs, decoded); diff != "" {
		t.Errorf("json round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestListPrograms(t *testing.T) {
	var b bytes.Buffer
	if err := listPrograms(&b, programs.All); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	if got, want := len(lines), len(programs.All)+1; got != want {
		t.Fatalf("got %d lines, want %d:\n%s", got, want, b.String())
	}
	if !strings.HasPrefix(lines[1], "bad-ptr") {
		t.Errorf("first program line = %q, want bad-ptr", lines[1])
	}
}
