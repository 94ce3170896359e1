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

package commands

import (
	"context"

	"github.com/kptdev/paravendor/internal/cmdadd"
	"github.com/kptdev/paravendor/internal/cmdinit"
	"github.com/kptdev/paravendor/internal/cmdlist"
	"github.com/kptdev/paravendor/internal/cmdlog"
	"github.com/kptdev/paravendor/internal/cmdshowref"
	"github.com/kptdev/paravendor/internal/cmdshowrefs"
	"github.com/kptdev/paravendor/internal/cmdsync"
	"github.com/kptdev/paravendor/internal/util/cmdutil"
	"github.com/spf13/cobra"
)

// GetParavendorCommands returns the set of paravendor commands to be
// registered
func GetParavendorCommands(ctx context.Context, name string, f *cmdutil.Factory) []*cobra.Command {
	c := []*cobra.Command{
		cmdinit.NewCommand(ctx, f, name),
		cmdadd.NewCommand(ctx, f, name),
		cmdlist.NewCommand(ctx, f, name),
		cmdshowrefs.NewCommand(ctx, f, name),
		cmdshowref.NewCommand(ctx, f, name),
		cmdsync.NewCommand(ctx, f, name),
		cmdlog.NewCommand(ctx, f, name),
	}

	// apply cross-cutting issues to commands
	NormalizeCommand(c...)
	return c
}

// NormalizeCommand will modify commands to be consistent, e.g. silencing usage
func NormalizeCommand(c ...*cobra.Command) {
	for i := range c {
		cmd := c[i]
		cmd.SilenceUsage = true
		cmdutil.WrapRunE(cmd)
		NormalizeCommand(cmd.Commands()...)
	}
}
