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

// Package cmdlog contains the log command
package cmdlog

import (
	"context"
	"io"

	"github.com/kptdev/paravendor/internal/errors"
	"github.com/kptdev/paravendor/internal/gitutil"
	"github.com/kptdev/paravendor/internal/ledger"
	"github.com/kptdev/paravendor/internal/util/cmdutil"
	"github.com/kptdev/paravendor/pkg/printer"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

// GitRunner runs git with its output streamed to the printer.
type GitRunner interface {
	RunStreaming(ctx context.Context, stdout, stderr io.Writer, args ...string) error
}

// NewRunner returns a command runner.
func NewRunner(ctx context.Context, f *cmdutil.Factory, parent string) *Runner {
	r := &Runner{
		ctx:     ctx,
		factory: f,
		newGitRunner: func() (GitRunner, error) {
			gr, err := f.GitRunner()
			if err != nil {
				return nil, err
			}
			return gr, nil
		},
	}
	c := &cobra.Command{
		Use:     "log [-- GIT_LOG_OPTIONS...]",
		Args:    cobra.ArbitraryArgs,
		Short:   LogShort,
		Long:    LogShort + "\n" + LogLong,
		Example: LogExamples,
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
	ctx          context.Context
	factory      *cmdutil.Factory
	newGitRunner func() (GitRunner, error)
	Command      *cobra.Command
	Options      []string
}

func (r *Runner) preRunE(_ *cobra.Command, args []string) error {
	const op errors.Op = "cmdlog.preRunE"
	cfg, err := r.factory.Config()
	if err != nil {
		return errors.E(op, err)
	}
	opts, err := cfg.LogArgs()
	if err != nil {
		return errors.E(op, err)
	}
	r.Options = append(opts, args...)
	return nil
}

func (r *Runner) runE(_ *cobra.Command, _ []string) error {
	const op errors.Op = "cmdlog.runE"
	e, err := r.factory.Engine(r.ctx)
	if err != nil {
		return errors.E(op, err)
	}
	// Opening the history first makes sure the ledger exists, adopting it
	// from a remote if needed.
	history, err := e.History(r.ctx)
	if err != nil {
		return errors.E(op, err)
	}

	pr := printer.FromContextOrDie(r.ctx)
	gr, err := r.newGitRunner()
	switch {
	case err == nil:
		args := append([]string{"log"}, r.Options...)
		args = append(args, "refs/heads/"+e.Branch(), "--first-parent")
		if err := gr.RunStreaming(r.ctx, pr.OutStream(), pr.ErrStream(), args...); err != nil {
			return errors.E(op, err)
		}
		return nil
	case gitutil.IsGitNotFound(err):
		klog.V(2).Infof("git not found, printing ledger history directly")
	default:
		return errors.E(op, err)
	}

	err = history.ForEach(func(h ledger.HistoryEntry) error {
		pr.Outf("%s %s\n", h.Hash, h.Summary)
		return nil
	})
	if err != nil {
		return errors.E(op, err)
	}
	return nil
}

var LogShort = `Shows commits belonging to the paravendor branch`
var LogLong = `
Follows the first parent of the ledger branch from its tip to the
initializing commit.

When git is installed the output comes from ` + "`git log --first-parent`" + ` and
any options after -- (or configured as log.options) are passed to it.
Otherwise each commit is printed as its id followed by its summary line and
the options are ignored.
`
var LogExamples = `
  # show the ledger history
  $ paravendor log

  # show the ledger history with the changed manifest
  $ paravendor log -- --patch
`
