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
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"
	"gvisor.dev/userprog/pkg/programs"
	"gvisor.dev/userprog/userprog/cmd/util"
)

// Programs implements subcommands.Command for the "programs" command.
type Programs struct{}

// Name implements subcommands.Command.Name.
func (*Programs) Name() string {
	return "programs"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Programs) Synopsis() string {
	return "list the built-in user programs"
}

// Usage implements subcommands.Command.Usage.
func (*Programs) Usage() string {
	return "programs - list the built-in user programs that run can start.\n"
}

// SetFlags implements subcommands.Command.SetFlags.
func (*Programs) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*Programs) Execute(context.Context, *flag.FlagSet, ...any) subcommands.ExitStatus {
	if err := listPrograms(os.Stdout, programs.All); err != nil {
		return util.Errorf("listing programs: %v", err)
	}
	return subcommands.ExitSuccess
}

func listPrograms(w io.Writer, all []programs.Program) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tUSAGE")
	for _, p := range all {
		fmt.Fprintf(tw, "%s\t%s\n", p.Name, p.Usage)
	}
	return tw.Flush()
}
