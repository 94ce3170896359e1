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

package cmdsync_test

import (
	"testing"

	"github.com/kptdev/paravendor/internal/cmdsync"
	"github.com/kptdev/paravendor/internal/errors"
	"github.com/kptdev/paravendor/internal/ledger"
	"github.com/kptdev/paravendor/internal/testutil"
	"github.com/kptdev/paravendor/internal/testutil/clitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCmd(t *testing.T) {
	env := clitest.NewInitializedEnv(t)
	lib := testutil.NewTestGitRepo(t)
	lib.Commit(t, "main", "lib 1")
	tools := testutil.NewTestGitRepo(t)
	tools.Commit(t, "main", "tools 1")

	e, err := env.Factory.Engine(env.Ctx)
	require.NoError(t, err)
	require.NoError(t, e.AddDependency(env.Ctx, "lib", lib.URL()))
	require.NoError(t, e.AddDependency(env.Ctx, "tools", tools.URL()))
	before := testutil.BranchHash(t, env.Repo, ledger.DefaultBranch)

	// nothing changed upstream
	r := cmdsync.NewRunner(env.Ctx, env.Factory, "paravendor")
	require.NoError(t, env.Execute(r.Command))
	assert.Equal(t, "No updates detected\n", env.Err.String())
	assert.Empty(t, env.Out.String())
	assert.Equal(t, before, testutil.BranchHash(t, env.Repo, ledger.DefaultBranch))

	lib.Commit(t, "main", "lib 2")
	tools.Commit(t, "main", "tools 2")

	// only the named dependency is synced
	r = cmdsync.NewRunner(env.Ctx, env.Factory, "paravendor")
	require.NoError(t, env.Execute(r.Command, "tools"))
	assert.Equal(t, "Synced tools\n", env.Out.String())
	tip := testutil.GetCommit(t, env.Repo, testutil.BranchHash(t, env.Repo, ledger.DefaultBranch))
	assert.Equal(t, "Sync: tools", tip.Message)

	r = cmdsync.NewRunner(env.Ctx, env.Factory, "paravendor")
	require.NoError(t, env.Execute(r.Command))
	assert.Equal(t, "Synced lib\n", env.Out.String())
}

func TestCmd_UnknownDependency(t *testing.T) {
	env := clitest.NewInitializedEnv(t)
	before := testutil.BranchHash(t, env.Repo, ledger.DefaultBranch)

	r := cmdsync.NewRunner(env.Ctx, env.Factory, "paravendor")
	err := env.Execute(r.Command, "nope")
	assert.True(t, errors.Is(err, errors.DependencyNotFound))
	assert.Equal(t, before, testutil.BranchHash(t, env.Repo, ledger.DefaultBranch))
}

func TestCmd_NotInitialized(t *testing.T) {
	env := clitest.NewEnv(t)

	r := cmdsync.NewRunner(env.Ctx, env.Factory, "paravendor")
	err := env.Execute(r.Command)
	assert.True(t, errors.Is(err, errors.NotInitialized))
}
