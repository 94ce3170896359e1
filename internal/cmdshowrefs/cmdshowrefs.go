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

// Package cmdshowrefs contains the show-refs command
package cmdshowrefs

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
		Use:     "show-refs NAME",
		Args:    cobra.ExactArgs(1),
		Short:   "Shows all refs for a vendorized dependency",
		Example: "  # list the branches and tags recorded for lib\n  $ paravendor show-refs lib",
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
}

func (r *Runner) runE(_ *cobra.Command, args []string) error {
	const op errors.Op = "cmdshowrefs.runE"
	e, err := r.factory.Engine(r.ctx)
	if err != nil {
		return errors.E(op, err)
	}
	refs, err := e.ListReferences(r.ctx, args[0])
	if err != nil {
		return errors.E(op, types.DependencyName(args[0]), err)
	}
	pr := printer.FromContextOrDie(r.ctx)
	for _, ref := range refs {
		pr.Outf("%s\n", ref)
	}
	return nil
}
