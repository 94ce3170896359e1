// Copyright 2022 Google LLC
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

// Package cmdlist contains the list command
package cmdlist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/kptdev/paravendor/internal/errors"
	"github.com/kptdev/paravendor/internal/util/cmdutil"
	"github.com/kptdev/paravendor/pkg/paravendor"
	"github.com/kptdev/paravendor/pkg/printer"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	OutputText  = "text"
	OutputTable = "table"
	OutputYAML  = "yaml"
	OutputJSON  = "json"
)

var outputFormats = []string{OutputText, OutputTable, OutputYAML, OutputJSON}

func newRunner(ctx context.Context, f *cmdutil.Factory, parent string) *runner {
	r := &runner{
		ctx:     ctx,
		factory: f,
	}
	c := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		Short:   "List vendorized dependencies",
		Long:    listLong,
		Example: listExamples,
		PreRunE: r.preRunE,
		RunE:    r.runE,
	}
	c.Flags().StringVarP(&r.output, "output", "o", OutputText,
		"Output format. One of: "+strings.Join(outputFormats, ", "))
	_ = c.RegisterFlagCompletionFunc("output", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return outputFormats, cobra.ShellCompDirectiveDefault
	})
	cmdutil.FixDocs("$ paravendor", "$ "+parent, c)
	r.Command = c
	return r
}

func NewCommand(ctx context.Context, f *cmdutil.Factory, parent string) *cobra.Command {
	return newRunner(ctx, f, parent).Command
}

type runner struct {
	ctx     context.Context
	factory *cmdutil.Factory
	Command *cobra.Command

	printer printer.Printer

	// Flags
	output string
}

func (r *runner) preRunE(_ *cobra.Command, _ []string) error {
	const op errors.Op = "cmdlist.preRunE"
	for _, f := range outputFormats {
		if r.output == f {
			r.printer = printer.FromContextOrDie(r.ctx)
			return nil
		}
	}
	return errors.E(op, errors.InvalidParam, &errors.ValidationError{
		Violations: errors.Violations{{
			Field:  "output",
			Value:  r.output,
			Type:   errors.Invalid,
			Reason: "must be one of " + strings.Join(outputFormats, ", "),
		}},
	})
}

func (r *runner) runE(_ *cobra.Command, _ []string) error {
	const op errors.Op = "cmdlist.runE"
	e, err := r.factory.Engine(r.ctx)
	if err != nil {
		return errors.E(op, err)
	}
	deps, err := e.ListDependencies(r.ctx)
	if err != nil {
		return errors.E(op, err)
	}
	if err := r.render(deps); err != nil {
		return errors.E(op, err)
	}
	return nil
}

func (r *runner) render(deps []paravendor.DependencyInfo) error {
	switch r.output {
	case OutputTable:
		t := table.NewWriter()
		t.SetOutputMirror(r.printer.OutStream())
		t.AppendHeader(table.Row{"NAME", "URL", "REFS"})
		for _, d := range deps {
			t.AppendRow(table.Row{d.Name, d.URL, d.Refs})
		}
		t.Render()
	case OutputYAML:
		enc := yaml.NewEncoder(r.printer.OutStream())
		enc.SetIndent(2)
		if err := enc.Encode(deps); err != nil {
			return err
		}
		return enc.Close()
	case OutputJSON:
		enc := json.NewEncoder(r.printer.OutStream())
		enc.SetIndent("", "  ")
		return enc.Encode(deps)
	default:
		for _, d := range deps {
			r.printer.Outf("%s %s\n", d.Name, d.URL)
		}
	}
	return nil
}

var listLong = fmt.Sprintf(`
List vendorized dependencies.

Dependencies are sorted by name. The default output prints one
"NAME URL" pair per line.

Flags:

--output, -o
	Output format. One of %s.
`, strings.Join(outputFormats, ", "))

var listExamples = `
  # list dependencies
  $ paravendor list

  # list dependencies with their reference counts as a table
  $ paravendor list -o table
`
