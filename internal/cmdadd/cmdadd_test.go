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

package cmdadd_test

import (
	"testing"

	"github.com/kptdev/paravendor/internal/cmdadd"
	"github.com/kptdev/paravendor/internal/errors"
	"github.com/kptdev/paravendor/internal/ledger"
	"github.com/kptdev/paravendor/internal/testutil"
	"github.com/kptdev/paravendor/internal/testutil/clitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCmd(t *testing.T) {
	env := clitest.NewInitializedEnv(t)
	dep := testutil.NewTestGitRepo(t)
	head := dep.Commit(t, "main", "first")

	r := cmdadd.NewRunner(env.Ctx, env.Factory, "paravendor")
	require.NoError(t, env.Execute(r.Command, "lib", dep.URL()))
	assert.Equal(t, "Dependency \"lib\": added from "+dep.URL()+"\n", env.Err.String())
	assert.Equal(t, "lib", r.Name)

	tip := testutil.GetCommit(t, env.Repo, testutil.BranchHash(t, env.Repo, ledger.DefaultBranch))
	assert.Equal(t, "Add lib from "+dep.URL(), tip.Message)
	if assert.Len(t, tip.ParentHashes, 2) {
		assert.Equal(t, head, tip.ParentHashes[1])
	}
}

func TestCmd_Errors(t *testing.T) {
	testCases := map[string]struct {
		initialized bool
		args        []string
		kind        errors.Kind
	}{
		"not initialized": {
			args: []string{"lib", "/nowhere"},
			kind: errors.NotInitialized,
		},
		"empty name": {
			initialized: true,
			args:        []string{"", "/nowhere"},
			kind:        errors.InvalidParam,
		},
		"unreachable url": {
			initialized: true,
			args:        []string{"lib", "/does/not/exist"},
			kind:        errors.NetworkFetch,
		},
	}

	for tn, tc := range testCases {
		t.Run(tn, func(t *testing.T) {
			var env *clitest.Env
			if tc.initialized {
				env = clitest.NewInitializedEnv(t)
			} else {
				env = clitest.NewEnv(t)
			}
			r := cmdadd.NewRunner(env.Ctx, env.Factory, "paravendor")
			err := env.Execute(r.Command, tc.args...)
			assert.True(t, errors.Is(err, tc.kind), "got %v", err)
		})
	}

	t.Run("wrong number of arguments", func(t *testing.T) {
		env := clitest.NewInitializedEnv(t)
		r := cmdadd.NewRunner(env.Ctx, env.Factory, "paravendor")
		assert.Error(t, env.Execute(r.Command, "lib"))
	})
}

func TestCmd_Duplicate(t *testing.T) {
	env := clitest.NewInitializedEnv(t)
	dep := testutil.NewTestGitRepo(t)
	dep.Commit(t, "main", "first")

	r := cmdadd.NewRunner(env.Ctx, env.Factory, "paravendor")
	require.NoError(t, env.Execute(r.Command, "lib", dep.URL()))

	r = cmdadd.NewRunner(env.Ctx, env.Factory, "paravendor")
	err := env.Execute(r.Command, "lib", dep.URL())
	assert.True(t, errors.Is(err, errors.DuplicateDependency))
	assert.Equal(t, "lib", string(errors.DependencyOf(err)))
}
