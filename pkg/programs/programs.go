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

// Package programs contains the user programs shipped with the system.
//
// Every program is an ordinary user program: it only reaches the kernel
// through the syscalls in ulib.
package programs

import (
	"strconv"
	"strings"

	"gvisor.dev/userprog/pkg/abi/pintos"
	"gvisor.dev/userprog/pkg/sentry/loader"
	"gvisor.dev/userprog/pkg/ulib"
)

// chunk is the size of the buffer used for file copies.
const chunk = 512

// Program describes a built-in program.
type Program struct {
	Name  string
	Usage string
	Main  ulib.Main
}

// All is the list of built-in programs, sorted by name.
//
// It is populated in init to break the initialization cycle through usage.
var All []Program

func init() {
	All = []Program{
		{Name: "bad-ptr", Usage: "bad-ptr", Main: BadPtr},
		{Name: "cat", Usage: "cat [file...]", Main: Cat},
		{Name: "cp", Usage: "cp src dst", Main: Cp},
		{Name: "create", Usage: "create name size", Main: Create},
		{Name: "echo", Usage: "echo [word...]", Main: Echo},
		{Name: "exit", Usage: "exit status", Main: Exit},
		{Name: "halt", Usage: "halt", Main: Halt},
		{Name: "rm", Usage: "rm file...", Main: Rm},
		{Name: "spawn", Usage: "spawn cmd [arg...]", Main: Spawn},
	}
}

// Register adds every built-in program to r.
func Register(r *loader.Registry) error {
	for _, p := range All {
		if err := r.Register(p.Name, p.Main); err != nil {
			return err
		}
	}
	return nil
}

// usage prints the usage line of the running program and returns the exit
// status for a usage error.
func usage(env *ulib.Env) int {
	for _, p := range All {
		if p.Name == env.Args[0] {
			env.Printf("usage: %s\n", p.Usage)
		}
	}
	return 2
}

// Echo prints its arguments.
func Echo(env *ulib.Env) int {
	env.Printf("%s\n", strings.Join(env.Args[1:], " "))
	return 0
}

// Cat prints files, or console input if no file is named.
func Cat(env *ulib.Env) int {
	if len(env.Args) == 1 {
		copyAll(env, pintos.STDIN_FILENO, pintos.STDOUT_FILENO)
		return 0
	}
	for _, name := range env.Args[1:] {
		fd := env.Open(name)
		if fd < 0 {
			env.Printf("cat: %s: cannot open\n", name)
			return 1
		}
		copyAll(env, fd, pintos.STDOUT_FILENO)
		env.Close(fd)
	}
	return 0
}

// copyAll copies src to dst until src is exhausted and returns the number of
// bytes copied.
func copyAll(env *ulib.Env, src, dst int32) int {
	total := 0
	for {
		b := env.ReadBytes(src, chunk)
		if len(b) == 0 {
			return total
		}
		if n := env.WriteBytes(dst, b); n != int32(len(b)) {
			return total + max(int(n), 0)
		}
		total += len(b)
	}
}

// Cp copies a file. The destination is created with the size of the
// source.
func Cp(env *ulib.Env) int {
	if len(env.Args) != 3 {
		return usage(env)
	}
	src, dst := env.Args[1], env.Args[2]
	in := env.Open(src)
	if in < 0 {
		env.Printf("cp: %s: cannot open\n", src)
		return 1
	}
	defer env.Close(in)
	size := env.Filesize(in)
	if !env.Create(dst, uint32(size)) {
		env.Printf("cp: %s: cannot create\n", dst)
		return 1
	}
	out := env.Open(dst)
	if out < 0 {
		env.Printf("cp: %s: cannot open\n", dst)
		return 1
	}
	defer env.Close(out)
	if n := copyAll(env, in, out); n != int(size) {
		env.Printf("cp: copied %d of %d bytes\n", n, size)
		return 1
	}
	return 0
}

// Create creates an empty file of the given size.
func Create(env *ulib.Env) int {
	if len(env.Args) != 3 {
		return usage(env)
	}
	size, err := strconv.ParseUint(env.Args[2], 10, 32)
	if err != nil {
		return usage(env)
	}
	if !env.Create(env.Args[1], uint32(size)) {
		env.Printf("create: %s: failed\n", env.Args[1])
		return 1
	}
	return 0
}

// Rm removes files.
func Rm(env *ulib.Env) int {
	if len(env.Args) < 2 {
		return usage(env)
	}
	status := 0
	for _, name := range env.Args[1:] {
		if !env.Remove(name) {
			env.Printf("rm: %s: failed\n", name)
			status = 1
		}
	}
	return status
}

// Halt powers off the machine.
func Halt(env *ulib.Env) int {
	env.Halt()
	return 0
}

// Exit exits with the given status.
func Exit(env *ulib.Env) int {
	if len(env.Args) != 2 {
		return usage(env)
	}
	status, err := strconv.ParseInt(env.Args[1], 10, 32)
	if err != nil {
		return usage(env)
	}
	env.Exit(int(status))
	return 0
}

// Spawn runs a command as a child, waits for it, and exits with its status.
func Spawn(env *ulib.Env) int {
	if len(env.Args) < 2 {
		return usage(env)
	}
	cmdline := strings.Join(env.Args[1:], " ")
	pid := env.Exec(cmdline)
	if pid < 0 {
		env.Printf("spawn: %s: exec failed\n", env.Args[1])
		return 1
	}
	status := env.Wait(pid)
	env.Printf("spawn: %s (pid %d) exited with %d\n", env.Args[1], pid, status)
	return int(status)
}

// BadPtr passes a kernel address to write. It is killed before the call
// does anything.
func BadPtr(env *ulib.Env) int {
	env.Syscall(pintos.SYS_WRITE, pintos.STDOUT_FILENO, pintos.PhysBase, 4)
	env.Printf("bad-ptr: survived\n")
	return 0
}
