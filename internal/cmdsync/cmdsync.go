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

// Package cmdsync contains the sync command
package cmdsync

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
		Use:     "sync [NAME...]",
		Short:   SyncShort,
		Long:    SyncShort + "\n" + SyncLong,
		Example: SyncExamples,
		RunE:    r.runE,
		Args:    cobra.ArbitraryArgs,
		PreRunE: r.preRunE,
	}
	cmdutil.FixDocs("$ paravendor", "$ "+parent, c)
	r.Command = c
	return r
}

func NewCommand(ctx context.Context, f *cmdutil.Factory, parent string) *cobra.Command {
	return NewRunner(ctx, f, parent).Command
}

type Runner struct {
	ctx     context.Context
	factory *cmdutil.Factory
	Command *cobra.Command
	Names   []string
}

func (r *Runner) preRunE(_ *cobra.Command, args []string) error {
	r.Names = args
	return nil
}

func (r *Runner) runE(_ *cobra.Command, _ []string) error {
	const op errors.Op = "cmdsync.runE"
	e, err := r.factory.Engine(r.ctx)
	if err != nil {
		return errors.E(op, err)
	}
	changed, err := e.Sync(r.ctx, r.Names)
	if err != nil {
		return errors.E(op, err)
	}

	pr := printer.FromContextOrDie(r.ctx)
	if len(changed) == 0 {
		pr.Printf("No updates detected\n")
		return nil
	}
	for _, name := range changed {
		pr.Outf("Synced %s\n", name)
	}
	return nil
}

var SyncShort = `Sync vendorized dependencies`
var SyncLong = `
Refetches dependencies and records every changed one in a single ledger
commit. With no NAME all dependencies are synced.

If any fetch fails nothing is written. Naming a dependency that is not
recorded is an error and nothing is fetched.
`
var SyncExamples = `
  # sync everything
  $ paravendor sync

  # sync two dependencies
  $ paravendor sync lib tools
`
