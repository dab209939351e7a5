// Copyright 2018 Google LLC
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
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/google/subcommands"
	"golang.org/x/sync/errgroup"
	"gvisor.dev/userprog/pkg/log"
	"gvisor.dev/userprog/pkg/sentry/console"
	"gvisor.dev/userprog/pkg/sentry/kernel"
	"gvisor.dev/userprog/userprog/cmd/util"
	"gvisor.dev/userprog/userprog/config"
)

// Run implements subcommands.Command for the "run" command.
type Run struct {
	// input is a file used as console input instead of stdin.
	input string

	// puts lists host files copied into the filesystem before boot.
	puts stringFlags
}

// Name implements subcommands.Command.Name.
func (*Run) Name() string {
	return "run"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Run) Synopsis() string {
	return "boot the machine and run user programs"
}

// Usage implements subcommands.Command.Usage.
func (*Run) Usage() string {
	return `run [flags] <program> [args...] [-- <program> [args...]]...

Boots the machine and runs each program concurrently as a process without a
parent. The exit status is that of the first program that exits with a
non-zero status, or 0.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (r *Run) SetFlags(f *flag.FlagSet) {
	f.StringVar(&r.input, "input", "", "file to use as console input instead of stdin.")
	f.Var(&r.puts, "put", "copy a host file into the filesystem before boot, as name=hostpath or hostpath. May be repeated.")
}

// Execute implements subcommands.Command.Execute.
func (r *Run) Execute(ctx context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	cmdlines := splitCommands(f.Args())
	if len(cmdlines) == 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	conf := args[0].(*config.Config)
	waitStatus := args[1].(*int)

	var in io.Reader = os.Stdin
	if r.input != "" {
		file, err := os.Open(r.input)
		if err != nil {
			return util.Errorf("opening console input: %v", err)
		}
		defer file.Close()
		in = file
	}

	k, err := bootKernel(ctx, conf, console.NewHost(in, os.Stdout), r.puts)
	if err != nil {
		return util.Errorf("booting: %v", err)
	}

	// An interrupt powers the machine off.
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	go func() {
		select {
		case <-sigCtx.Done():
			log.Warningf("Interrupted, halting")
			k.Halt()
		case <-k.Done():
		}
	}()

	statuses, err := runAll(k, cmdlines)
	if err != nil {
		return util.Errorf("running: %v", err)
	}
	for i, status := range statuses {
		log.Infof("%q exited with status %d", cmdlines[i], status)
		if status != 0 && *waitStatus == 0 {
			*waitStatus = int(status)
		}
	}
	return subcommands.ExitSuccess
}

// runAll starts every command line as a root process and waits until each
// one has exited or the machine has halted. It returns the exit statuses in
// command line order. A process cut short by a halt reports status 0.
func runAll(k *kernel.Kernel, cmdlines []string) ([]int32, error) {
	tasks := make([]*kernel.Task, 0, len(cmdlines))
	for _, c := range cmdlines {
		task, err := k.Start(c)
		if err != nil {
			return nil, fmt.Errorf("starting %q: %w", c, err)
		}
		tasks = append(tasks, task)
	}

	statuses := make([]int32, len(tasks))
	var g errgroup.Group
	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			select {
			case <-task.Done():
				statuses[i] = task.ExitStatus()
			case <-k.Done():
				log.Infof("Machine halted before %q (pid %d) exited", cmdlines[i], task.ID())
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return statuses, nil
}
