// Copyright 2024 The kpt Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cmdadd contains the add command
package cmdadd

import (
	"context"

	"github.com/kptdev/paravendor/internal/errors"
	"github.com/kptdev/paravendor/internal/types"
	"github.com/kptdev/paravendor/internal/util/cmdutil"
	"github.com/kptdev/paravendor/pkg/printer"
	"github.com/spf13/cobra"
)

// NewRunner returns a command runner.
func NewRunner(ctx context.Context, f *cmdutil.Factory, parent string) *Runner {
	r := &Runner{
		ctx:     ctx,
		factory: f,
	}
	c := &cobra.Command{
		Use:        "add NAME URL",
		Args:       cobra.ExactArgs(2),
		Short:      AddShort,
		Long:       AddShort + "\n" + AddLong,
		Example:    AddExamples,
		PreRunE:    r.preRunE,
		RunE:       r.runE,
		SuggestFor: []string{"vendor", "get"},
	}
	cmdutil.FixDocs("$ paravendor", "$ "+parent, c)
	r.Command = c
	return r
}

func NewCommand(ctx context.Context, f *cmdutil.Factory, parent string) *cobra.Command {
	return NewRunner(ctx, f, parent).Command
}

// Runner contains the run function
type Runner struct {
	ctx     context.Context
	factory *cmdutil.Factory
	Command *cobra.Command
	Name    string
	URL     string
}

func (r *Runner) preRunE(_ *cobra.Command, args []string) error {
	r.Name = args[0]
	r.URL = args[1]
	return nil
}

func (r *Runner) runE(_ *cobra.Command, _ []string) error {
	const op errors.Op = "cmdadd.runE"
	e, err := r.factory.Engine(r.ctx)
	if err != nil {
		return errors.E(op, err)
	}
	if err := e.AddDependency(r.ctx, r.Name, r.URL); err != nil {
		return errors.E(op, types.DependencyName(r.Name), err)
	}
	printer.FromContextOrDie(r.ctx).OptPrintf(printer.NewOpt().Dep(types.DependencyName(r.Name)),
		"added from %s\n", r.URL)
	return nil
}

var AddShort = `Vendorizes a new dependency`
var AddLong = `
Fetches every branch and tag of the repository at URL and records them
under NAME in a single new ledger commit. The fetched history is kept
reachable from the ledger branch.

Args:

  NAME:
    Name the dependency is recorded under. Must not be recorded yet.

  URL:
    Anything git can fetch from: a remote URL or a local path.
`
var AddExamples = `
  # vendor a library hosted on GitHub
  $ paravendor add lib https://github.com/example/lib.git

  # vendor a repository from a local path
  $ paravendor add tools ../tools
`
