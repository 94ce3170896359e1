// Copyright 2019 Google LLC
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

// Package cmdinit contains the init command
package cmdinit

import (
	"context"

	"github.com/kptdev/paravendor/internal/errors"
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
		Use:     "init",
		Args:    cobra.NoArgs,
		Short:   InitShort,
		Long:    InitShort + "\n" + InitLong,
		Example: InitExamples,
		RunE:    r.runE,
	}
	c.Flags().BoolVar(&r.IgnoreRemote, "ignore-remote", false,
		"do not adopt a paravendor branch from a remote if no local one exists.")
	cmdutil.FixDocs("$ paravendor", "$ "+parent, c)
	r.Command = c
	return r
}

func NewCommand(ctx context.Context, f *cmdutil.Factory, parent string) *cobra.Command {
	return NewRunner(ctx, f, parent).Command
}

// Runner contains the run function
type Runner struct {
	ctx          context.Context
	factory      *cmdutil.Factory
	Command      *cobra.Command
	IgnoreRemote bool
}

func (r *Runner) runE(_ *cobra.Command, _ []string) error {
	const op errors.Op = "cmdinit.runE"
	e, err := r.factory.Engine(r.ctx)
	if err != nil {
		return errors.E(op, err)
	}
	l, err := e.Bootstrap(r.ctx, r.IgnoreRemote)
	if err != nil {
		return errors.E(op, err)
	}
	printer.FromContextOrDie(r.ctx).Printf("Initialized %s at %s\n", e.Branch(), l.Tip)
	return nil
}

var InitShort = `Initializes paravendor in a repository`
var InitLong = `
Creates the paravendor ledger branch holding an empty manifest.

If no local ledger branch exists but the upstream remote of the current
branch (or, failing that, the first remote by name) has one, it is adopted
instead. Pass --ignore-remote to always start a new ledger.
`
var InitExamples = `
  # start vendoring in the current repository
  $ paravendor init

  # start a fresh ledger even if a remote already has one
  $ paravendor init --ignore-remote
`
