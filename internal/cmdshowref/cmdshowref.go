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

// Package cmdshowref contains the show-ref command
package cmdshowref

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
		Use:     "show-ref NAME REF",
		Args:    cobra.ExactArgs(2),
		Short:   ShowRefShort,
		Long:    ShowRefShort + "\n" + ShowRefLong,
		Example: ShowRefExamples,
		PreRunE: r.preRunE,
		RunE:    r.runE,
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
	Ref     string
}

func (r *Runner) preRunE(_ *cobra.Command, args []string) error {
	r.Name = args[0]
	r.Ref = args[1]
	return nil
}

func (r *Runner) runE(_ *cobra.Command, _ []string) error {
	const op errors.Op = "cmdshowref.runE"
	e, err := r.factory.Engine(r.ctx)
	if err != nil {
		return errors.E(op, err)
	}
	id, err := e.ResolveReference(r.ctx, r.Name, r.Ref)
	if err != nil {
		return errors.E(op, types.DependencyName(r.Name), types.RefName(r.Ref), err)
	}
	printer.FromContextOrDie(r.ctx).Outf("%s\n", id)
	return nil
}

var ShowRefShort = `Resolves a ref in a vendorized dependency`
var ShowRefLong = `
Prints the commit id REF pointed at when NAME was last synced.

REF is looked up as given, then as a branch (refs/heads/REF), then as the
commit a tag points at (refs/tags/REF^{}) and finally as the tag itself
(refs/tags/REF).
`
var ShowRefExamples = `
  # commit of the main branch of lib
  $ paravendor show-ref lib main

  # commit tagged v1.2.0
  $ paravendor show-ref lib v1.2.0
`
