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
	"context"
	"fmt"
	"os"
	"strings"

	"gvisor.dev/userprog/pkg/log"
	"gvisor.dev/userprog/pkg/programs"
	"gvisor.dev/userprog/pkg/sentry/fs"
	"gvisor.dev/userprog/pkg/sentry/fs/hostfs"
	"gvisor.dev/userprog/pkg/sentry/fs/memfs"
	"gvisor.dev/userprog/pkg/sentry/kernel"
	"gvisor.dev/userprog/pkg/sentry/loader"
	"gvisor.dev/userprog/pkg/sentry/syscalls/pintos"
	"gvisor.dev/userprog/userprog/config"
)

// newFilesystem creates the filesystem selected by conf.
func newFilesystem(conf *config.Config) (fs.Filesystem, error) {
	switch conf.Filesystem {
	case config.FilesystemMem:
		return memfs.New(conf.FSCapacity), nil
	case config.FilesystemHost:
		return hostfs.New(conf.HostRoot)
	}
	return nil, fmt.Errorf("unknown filesystem %v", conf.Filesystem)
}

// putFile copies the host file at hostPath into filesystem as name.
func putFile(filesystem fs.Filesystem, name, hostPath string) error {
	data, err := os.ReadFile(hostPath)
	if err != nil {
		return err
	}
	if err := filesystem.Create(name, int64(len(data))); err != nil {
		return fmt.Errorf("creating %q: %w", name, err)
	}
	f, err := filesystem.Open(name)
	if err != nil {
		return fmt.Errorf("opening %q: %w", name, err)
	}
	defer f.Close()
	if n, err := f.Write(data); err != nil {
		return fmt.Errorf("writing %q: %w", name, err)
	} else if n != len(data) {
		return fmt.Errorf("writing %q: short write of %d bytes out of %d", name, n, len(data))
	}
	return nil
}

// parsePut splits a --put value of the form name=hostpath. A bare hostpath
// uses the base name of the host file.
func parsePut(v string) (name, hostPath string) {
	if name, hostPath, ok := strings.Cut(v, "="); ok {
		return name, hostPath
	}
	name = v
	if i := strings.LastIndexByte(v, '/'); i >= 0 {
		name = v[i+1:]
	}
	return name, v
}

// bootKernel creates a kernel configured by conf, with every built-in
// program installed and the files in puts copied in.
func bootKernel(ctx context.Context, conf *config.Config, console kernel.Console, puts []string) (*kernel.Kernel, error) {
	filesystem, err := newFilesystem(conf)
	if err != nil {
		return nil, fmt.Errorf("creating filesystem: %w", err)
	}
	for _, p := range puts {
		name, hostPath := parsePut(p)
		if err := putFile(filesystem, name, hostPath); err != nil {
			return nil, fmt.Errorf("copying %q into the filesystem: %w", hostPath, err)
		}
		log.Infof("Copied %q to %q", hostPath, name)
	}

	r := loader.NewRegistry()
	if err := programs.Register(r); err != nil {
		return nil, err
	}

	return kernel.New(ctx, kernel.Options{
		Filesystem:   filesystem,
		Console:      console,
		Power:        kernel.PowerFunc(func() { log.Infof("Powering off") }),
		Loader:       r,
		Table:        pintos.Table,
		StackPages:   conf.StackPages,
		HeapPages:    conf.HeapPages,
		MaxOpenFiles: conf.MaxOpenFiles,
		Strace:       conf.Strace,
	})
}
