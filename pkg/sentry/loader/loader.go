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

// Package loader resolves program names to user program images.
//
// Programs are registered under a name ahead of time, the way a disk image
// carries a set of executables. Loading a name that was never registered
// fails with ENOEXEC.
package loader

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"gvisor.dev/userprog/pkg/errors/linuxerr"
	"gvisor.dev/userprog/pkg/ulib"
)

// Registry is a set of named programs. It implements kernel.Loader.
type Registry struct {
	mu       sync.RWMutex
	programs map[string]ulib.Main
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{programs: make(map[string]ulib.Main)}
}

// Register adds a program. It fails if name is already taken or is not a
// single word.
func (r *Registry) Register(name string, main ulib.Main) error {
	if name == "" || strings.ContainsAny(name, " \t\n") {
		return fmt.Errorf("invalid program name %q", name)
	}
	if main == nil {
		return fmt.Errorf("program %q has no entry point", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.programs[name]; ok {
		return fmt.Errorf("program %q already registered", name)
	}
	r.programs[name] = main
	return nil
}

// Load implements kernel.Loader.Load.
func (r *Registry) Load(name string) (ulib.Main, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	main, ok := r.programs[name]
	if !ok {
		return nil, fmt.Errorf("loading %q: %w", name, linuxerr.ENOEXEC)
	}
	return main, nil
}

// Names returns the registered program names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.programs))
	for name := range r.programs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
