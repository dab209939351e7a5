// Copyright 2018 The gVisor Authors.
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
	"gvisor.dev/userprog/pkg/ulib"
)

// run runs the task's program on the task goroutine. It does not return.
//
// A program that panics is killed as if it had faulted.
func (t *Task) run(main ulib.Main) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if t.exiting {
			panic(r)
		}
		t.kill("panic: %v", r)
	}()
	t.Exit(int32(main(t.env)))
}
