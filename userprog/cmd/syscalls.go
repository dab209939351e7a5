// Copyright 2019 The gVisor Authors.
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
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/google/subcommands"
	"gvisor.dev/userprog/pkg/sentry/kernel"
	"gvisor.dev/userprog/pkg/sentry/syscalls/pintos"
	"gvisor.dev/userprog/userprog/cmd/util"
)

// Syscalls implements subcommands.Command for the "syscalls" command.
type Syscalls struct {
	output string
}

// SyscallDoc represents a single item of syscall documentation.
type SyscallDoc struct {
	Num  uint32   `json:"num"`
	Name string   `json:"name"`
	Args []string `json:"args"`
}

type outputFunc func(io.Writer, []SyscallDoc) error

// A map of output type names to output functions.
var outputMap = map[string]outputFunc{
	"table": outputTable,
	"json":  outputJSON,
	"csv":   outputCSV,
}

// Name implements subcommands.Command.Name.
func (*Syscalls) Name() string {
	return "syscalls"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Syscalls) Synopsis() string {
	return "Print the supported syscalls."
}

// Usage implements subcommands.Command.Usage.
func (*Syscalls) Usage() string {
	return `syscalls [options] - Print the supported syscalls.
`
}

// SetFlags implements subcommands.Command.SetFlags.
func (s *Syscalls) SetFlags(f *flag.FlagSet) {
	f.StringVar(&s.output, "o", "table", "Output format (table, csv, json).")
}

// Execute implements subcommands.Command.Execute.
func (s *Syscalls) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	out, ok := outputMap[s.output]
	if !ok {
		util.Fatalf("Unsupported output format %q", s.output)
	}
	if err := out(os.Stdout, syscallDocs(pintos.Table)); err != nil {
		util.Fatalf("Error writing output: %v", err)
	}
	return subcommands.ExitSuccess
}

// syscallDocs returns documentation for every entry of t, ordered by number.
func syscallDocs(t *kernel.SyscallTable) []SyscallDoc {
	var docs []SyscallDoc
	for _, num := range t.Numbers() {
		sc := t.Table[num]
		doc := SyscallDoc{Num: num, Name: sc.Name, Args: []string{}}
		for _, k := range sc.Args {
			doc.Args = append(doc.Args, k.String())
		}
		docs = append(docs, doc)
	}
	return docs
}

// outputTable outputs the syscall info in tabular format.
func outputTable(w io.Writer, docs []SyscallDoc) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NUM\tNAME\tARGS")
	for _, d := range docs {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", d.Num, d.Name, strings.Join(d.Args, ", "))
	}
	return tw.Flush()
}

// outputJSON outputs the syscall info in JSON format.
func outputJSON(w io.Writer, docs []SyscallDoc) error {
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(docs)
}

// outputCSV outputs the syscall info in tabular format.
func outputCSV(w io.Writer, docs []SyscallDoc) error {
	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write([]string{"num", "name", "args"}); err != nil {
		return err
	}
	for _, d := range docs {
		if err := csvWriter.Write([]string{
			strconv.FormatUint(uint64(d.Num), 10),
			d.Name,
			strings.Join(d.Args, " "),
		}); err != nil {
			return err
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}
