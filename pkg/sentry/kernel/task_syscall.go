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
	"gvisor.dev/userprog/pkg/abi/pintos"
	"gvisor.dev/userprog/pkg/errors/linuxerr"
	"gvisor.dev/userprog/pkg/hostarch"
	"gvisor.dev/userprog/pkg/log"
	"gvisor.dev/userprog/pkg/sentry/arch"
	"gvisor.dev/userprog/pkg/sentry/strace"
	"gvisor.dev/userprog/pkg/usermem"
)

// Trap handles a syscall trap raised by the task. The call number and its
// arguments are read from the user stack at tf.ESP and the result is stored
// in tf.EAX.
//
// A bad stack pointer, a bad argument address or an unknown call number kills
// the task. Trap does not return if the call terminates the task.
func (t *Task) Trap(tf *arch.TrapFrame) {
	if t.k.Halted() {
		t.terminate()
	}

	sysno, err := t.fetchWord(tf.ESP)
	if err != nil {
		t.kill("bad syscall number address %v: %v", tf.ESP, err)
	}
	s, ok := t.k.table.Lookup(sysno)
	if !ok {
		t.kill("unknown syscall %d", sysno)
	}
	// Every argument is fetched before the call has any side effect.
	args, err := t.fetchArgs(tf, s.Arity())
	if err != nil {
		t.kill("bad %s argument: %v", s.Name, err)
	}

	if t.k.strace {
		log.Infof("[%3d] %s E %s", t.id, t.name, strace.Entry(t.mm, s.Name, s.Args, args))
	}
	ret, err := s.Fn(t, args)
	switch {
	case err == nil:
		tf.EAX = uint32(ret)
	case linuxerr.Equals(linuxerr.EFAULT, err):
		t.kill("%s: %v", s.Name, err)
	default:
		log.Debugf("[%d] %s failed: %v", t.id, s.Name, err)
		tf.SetReturn(-1)
	}
	if t.k.strace {
		log.Infof("[%3d] %s X %s", t.id, t.name, strace.Exit(t.mm, s.Name, s.Args, args, tf.Return()))
	}

	if t.k.Halted() {
		t.terminate()
	}
}

// PageFault handles a fault taken by user code. The task is killed.
func (t *Task) PageFault(addr hostarch.Addr) {
	t.kill("page fault at %v", addr)
}

// fetchWord reads the machine word at addr in the task's memory.
func (t *Task) fetchWord(addr hostarch.Addr) (uint32, error) {
	return usermem.CopyInWord(t.mm, addr)
}

// fetchArgs reads n argument words above the call number at tf.ESP.
func (t *Task) fetchArgs(tf *arch.TrapFrame, n int) (arch.SyscallArguments, error) {
	var args arch.SyscallArguments
	for i := 0; i < n; i++ {
		addr, ok := tf.ESP.AddLength(uint32((i + 1) * pintos.WordSize))
		if !ok {
			return args, linuxerr.EFAULT
		}
		v, err := t.fetchWord(addr)
		if err != nil {
			return args, err
		}
		args[i].Value = v
	}
	return args, nil
}
