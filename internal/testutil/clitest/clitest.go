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

// Package clitest sets up a repository and printer for exercising
// commands end to end.
package clitest

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/kptdev/paravendor/internal/testutil"
	"github.com/kptdev/paravendor/internal/util/cmdutil"
	"github.com/kptdev/paravendor/pkg/printer/fake"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// Env is a repository on disk with a Factory pointed at it and a printer
// capturing output.
type Env struct {
	Dir     string
	Repo    *git.Repository
	Factory *cmdutil.Factory
	Ctx     context.Context
	Out     *bytes.Buffer
	Err     *bytes.Buffer
}

// NewEnv creates an uninitialized repository. Config files in the real
// home directory are ignored.
func NewEnv(t *testing.T) *Env {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	testutil.RequireGit(t)

	repo, dir := testutil.NewDiskRepo(t)
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return &Env{
		Dir:     dir,
		Repo:    repo,
		Factory: &cmdutil.Factory{Dir: dir, Quiet: true},
		Ctx:     fake.CtxWithPrinter(out, errOut),
		Out:     out,
		Err:     errOut,
	}
}

// NewInitializedEnv creates a repository with a fresh ledger.
func NewInitializedEnv(t *testing.T) *Env {
	t.Helper()
	env := NewEnv(t)
	e, err := env.Factory.Engine(env.Ctx)
	require.NoError(t, err)
	_, err = e.Bootstrap(env.Ctx, true)
	require.NoError(t, err)
	return env
}

// Execute runs c with args and resets the captured output first.
func (env *Env) Execute(c *cobra.Command, args ...string) error {
	env.Out.Reset()
	env.Err.Reset()
	c.SetArgs(args)
	c.SetOut(io.Discard)
	c.SetErr(io.Discard)
	c.SilenceErrors = true
	c.SilenceUsage = true
	return c.Execute()
}
