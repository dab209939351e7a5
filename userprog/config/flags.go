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

package config

import (
	"flag"
	"fmt"
	"reflect"
	"slices"
	"strconv"

	"github.com/BurntSushi/toml"
	"gvisor.dev/userprog/pkg/sentry/fs/memfs"
	"gvisor.dev/userprog/pkg/sentry/kernel"
)

// RegisterFlags registers flags used to populate Config.
func RegisterFlags(flagSet *flag.FlagSet) {
	flagSet.String("config", "", "TOML file with flag values. Keys are flag names; flags given on the command line take precedence.")

	// Debugging flags.
	flagSet.String("log", "", "file path where internal debug information is written, default is stderr.")
	flagSet.Bool("debug", false, "enable debug logging.")
	flagSet.String("debug-log-format", "text", "log format: text (default) or json.")
	flagSet.Bool("strace", false, "enable strace.")

	// Flags that control the machine.
	flagSet.Var(filesystemTypePtr(FilesystemMem), "fs", "specifies which filesystem to use: memfs (default), hostfs.")
	flagSet.String("host-root", "", "host directory holding the files of the hostfs filesystem.")
	flagSet.Int64("fs-capacity", memfs.DefaultCapacity, "maximum number of bytes held by memfs. 0 means unlimited.")
	flagSet.Int("stack-pages", kernel.DefaultStackPages, "number of stack pages per process.")
	flagSet.Int("heap-pages", kernel.DefaultHeapPages, "number of heap pages per process.")
	flagSet.Int("max-open-files", kernel.DefaultMaxOpenFiles, "maximum number of open files per process. Negative means unlimited.")
}

// NewFromFlags creates a new Config with values coming from command line
// flags, and from the file named by --config for flags not set on the
// command line.
func NewFromFlags(flagSet *flag.FlagSet) (*Config, error) {
	if path := flagSet.Lookup("config").Value.String(); path != "" {
		if err := ApplyFile(flagSet, path); err != nil {
			return nil, err
		}
	}

	conf := &Config{}

	obj := reflect.ValueOf(conf).Elem()
	st := obj.Type()
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		name, ok := f.Tag.Lookup("flag")
		if !ok {
			// No flag set for this field.
			continue
		}
		fl := flagSet.Lookup(name)
		if fl == nil {
			panic(fmt.Sprintf("Flag %q not found", name))
		}
		x := reflect.ValueOf(fl.Value.(flag.Getter).Get())
		obj.Field(i).Set(x)
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// ApplyFile sets flags from the TOML file at path. Every top-level key names
// a flag. Flags already set on the command line are left alone.
func ApplyFile(flagSet *flag.FlagSet, path string) error {
	var values map[string]any
	if _, err := toml.DecodeFile(path, &values); err != nil {
		return fmt.Errorf("loading config file %q: %w", path, err)
	}

	explicit := make(map[string]bool)
	flagSet.Visit(func(f *flag.Flag) {
		explicit[f.Name] = true
	})

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if name == "config" {
			return fmt.Errorf("config file %q: %q cannot be set from a config file", path, name)
		}
		fl := flagSet.Lookup(name)
		if fl == nil {
			return fmt.Errorf("config file %q: unknown flag %q", path, name)
		}
		if explicit[name] {
			continue
		}
		if err := fl.Value.Set(fmt.Sprint(values[name])); err != nil {
			return fmt.Errorf("config file %q: error setting flag %s=%v: %w", path, name, values[name], err)
		}
	}
	return nil
}

// ToFlags returns a slice of flags that correspond to the given Config.
func (c *Config) ToFlags() []string {
	var rv []string

	// Construct a temporary set for default plumbing.
	flagSet := flag.NewFlagSet("tmp", flag.ContinueOnError)
	RegisterFlags(flagSet)

	obj := reflect.ValueOf(c).Elem()
	st := obj.Type()
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		name, ok := f.Tag.Lookup("flag")
		if !ok {
			// No flag set for this field.
			continue
		}
		val := getVal(obj.Field(i))

		flag := flagSet.Lookup(name)
		if flag == nil {
			panic(fmt.Sprintf("Flag %q not found", name))
		}
		if val == flag.DefValue {
			continue
		}
		rv = append(rv, fmt.Sprintf("--%s=%s", flag.Name, val))
	}
	return rv
}

func getVal(field reflect.Value) string {
	if str, ok := field.Addr().Interface().(fmt.Stringer); ok {
		return str.String()
	}
	switch field.Kind() {
	case reflect.Bool:
		return strconv.FormatBool(field.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(field.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(field.Uint(), 10)
	case reflect.String:
		return field.String()
	default:
		panic("unknown type " + field.Kind().String())
	}
}
