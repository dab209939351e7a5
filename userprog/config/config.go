// Copyright 2020 The gVisor Authors.
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

// Package config provides basic infrastructure to set configuration settings
// for userprog. Each setting is defined as a command line flag, and may also
// be given in a TOML configuration file.
package config

import (
	"fmt"

	"gvisor.dev/userprog/pkg/log"
)

// Config holds configuration that is not part of the programs being run.
// Fields tagged with `flag` are populated from the flag of that name.
type Config struct {
	// ConfigFile is the TOML file flags were loaded from, if any.
	ConfigFile string `flag:"config"`

	// LogFilename is the filename to log to, if not empty.
	LogFilename string `flag:"log"`

	// Debug indicates that debug logging should be enabled.
	Debug bool `flag:"debug"`

	// DebugLogFormat is the log format for debug logs.
	DebugLogFormat string `flag:"debug-log-format"`

	// Strace indicates that strace should be enabled.
	Strace bool `flag:"strace"`

	// Filesystem selects the filesystem shared by all programs.
	Filesystem FilesystemType `flag:"fs"`

	// HostRoot is the host directory backing the hostfs filesystem.
	HostRoot string `flag:"host-root"`

	// FSCapacity bounds the bytes held by the memfs filesystem. Zero means
	// no bound.
	FSCapacity int64 `flag:"fs-capacity"`

	// StackPages is the number of stack pages given to each process.
	StackPages int `flag:"stack-pages"`

	// HeapPages is the number of heap pages given to each process.
	HeapPages int `flag:"heap-pages"`

	// MaxOpenFiles limits the descriptors each process may hold. Negative
	// means no limit.
	MaxOpenFiles int `flag:"max-open-files"`
}

func (c *Config) validate() error {
	switch c.DebugLogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q, must be 'text' or 'json'", c.DebugLogFormat)
	}
	if c.Filesystem == FilesystemHost && c.HostRoot == "" {
		return fmt.Errorf("--fs=%v requires --host-root", c.Filesystem)
	}
	if c.FSCapacity < 0 {
		return fmt.Errorf("--fs-capacity must be non-negative, got %d", c.FSCapacity)
	}
	if c.StackPages <= 0 {
		return fmt.Errorf("--stack-pages must be positive, got %d", c.StackPages)
	}
	if c.HeapPages <= 0 {
		return fmt.Errorf("--heap-pages must be positive, got %d", c.HeapPages)
	}
	return nil
}

// Log logs important aspects of the configuration to the given log function.
func (c *Config) Log() {
	log.Infof("Config.Filesystem: %v", c.Filesystem)
	if c.Filesystem == FilesystemHost {
		log.Infof("Config.HostRoot: %s", c.HostRoot)
	}
	log.Infof("Config.StackPages: %d, HeapPages: %d, MaxOpenFiles: %d", c.StackPages, c.HeapPages, c.MaxOpenFiles)
	log.Infof("Config.Debug: %t, Strace: %t", c.Debug, c.Strace)
}

// FilesystemType tells which filesystem programs share.
type FilesystemType int

const (
	// FilesystemMem keeps files in memory for the lifetime of the process.
	FilesystemMem FilesystemType = iota

	// FilesystemHost keeps files in a host directory.
	FilesystemHost
)

func filesystemTypePtr(v FilesystemType) *FilesystemType {
	return &v
}

// Set implements flag.Value.
func (f *FilesystemType) Set(v string) error {
	switch v {
	case "memfs":
		*f = FilesystemMem
	case "hostfs":
		*f = FilesystemHost
	default:
		return fmt.Errorf("invalid filesystem type %q", v)
	}
	return nil
}

// Get implements flag.Getter.
func (f *FilesystemType) Get() any {
	return *f
}

// String implements flag.Value.
func (f FilesystemType) String() string {
	switch f {
	case FilesystemMem:
		return "memfs"
	case FilesystemHost:
		return "hostfs"
	}
	panic(fmt.Sprintf("Invalid filesystem type %d", f))
}
