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
	"runtime"

	"gvisor.dev/userprog/pkg/log"
)

// Exit terminates the task with the given status. It does not return.
//
// Exit publishes status to the parent, if the parent is still alive, before
// releasing any of the task's resources, so a parent that wakes from Wait
// always finds the status in place.
func (t *Task) Exit(status int32) {
	t.exiting = true
	t.exitStatus = status
	t.k.console.Write([]byte(fmt.Sprintf("%s: exit(%d)\n", t.name, status)))
	if parent := t.k.TaskWithID(t.parentID); parent != nil {
		parent.children.resolve(t.id, status)
	}
	t.terminate()
}

// kill terminates the task with status -1 after logging why.
func (t *Task) kill(format string, v ...any) {
	t.k.killLog.Warningf("Killing task %d (%s): %s", t.id, t.name, fmt.Sprintf(format, v...))
	t.Exit(-1)
}

// terminate releases the task's resources and ends its goroutine. It does
// not return.
func (t *Task) terminate() {
	t.exiting = true
	for _, f := range t.fdTable.RemoveAll() {
		if err := t.k.fsGate.Close(f); err != nil {
			log.Warningf("[%d] closing file on exit: %v", t.id, err)
		}
	}
	t.mm.Release()
	t.k.unregister(t)
	log.Debugf("[%d] terminated with status %d", t.id, t.exitStatus)
	close(t.done)
	t.k.running.Done()
	runtime.Goexit()
}
