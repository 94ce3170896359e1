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

package cmdlog

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/kptdev/paravendor/internal/errors"
	"github.com/kptdev/paravendor/internal/gitutil"
	"github.com/kptdev/paravendor/internal/ledger"
	"github.com/kptdev/paravendor/internal/testutil"
	"github.com/kptdev/paravendor/internal/testutil/clitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRunner struct {
	args []string
}

func (r *recordingRunner) RunStreaming(_ context.Context, stdout, _ io.Writer, args ...string) error {
	r.args = args
	_, err := fmt.Fprintln(stdout, "from git")
	return err
}

func withDependency(t *testing.T) (*clitest.Env, string) {
	env := clitest.NewInitializedEnv(t)
	dep := testutil.NewTestGitRepo(t)
	dep.Commit(t, "main", "first")
	e, err := env.Factory.Engine(env.Ctx)
	require.NoError(t, err)
	require.NoError(t, e.AddDependency(env.Ctx, "lib", dep.URL()))
	return env, dep.URL()
}

func TestCmd_Git(t *testing.T) {
	testCases := map[string]struct {
		logOptions string
		args       []string
		want       []string
	}{
		"no options": {
			want: []string{"log", "refs/heads/paravendor", "--first-parent"},
		},
		"options from the command line": {
			args: []string{"--", "--oneline", "-n", "1"},
			want: []string{"log", "--oneline", "-n", "1", "refs/heads/paravendor", "--first-parent"},
		},
		"configured options come first": {
			logOptions: "--format='%h %s'",
			args:       []string{"--", "--stat"},
			want:       []string{"log", "--format=%h %s", "--stat", "refs/heads/paravendor", "--first-parent"},
		},
	}

	for tn, tc := range testCases {
		t.Run(tn, func(t *testing.T) {
			t.Setenv("PARAVENDOR_LOG_OPTIONS", tc.logOptions)
			env, _ := withDependency(t)

			rec := &recordingRunner{}
			r := NewRunner(env.Ctx, env.Factory, "paravendor")
			r.newGitRunner = func() (GitRunner, error) { return rec, nil }

			require.NoError(t, env.Execute(r.Command, tc.args...))
			assert.Equal(t, tc.want, rec.args)
			assert.Equal(t, "from git\n", env.Out.String())
		})
	}
}

func TestCmd_WithoutGit(t *testing.T) {
	env, url := withDependency(t)
	tip := testutil.BranchHash(t, env.Repo, ledger.DefaultBranch)
	root := testutil.GetCommit(t, env.Repo, tip).ParentHashes[0]

	r := NewRunner(env.Ctx, env.Factory, "paravendor")
	r.newGitRunner = func() (GitRunner, error) {
		return nil, errors.E(errors.Op("test"), errors.Git, &gitutil.GitExecError{
			Type: gitutil.GitExecutableNotFound,
			Err:  fmt.Errorf("no 'git' program on path"),
		})
	}

	require.NoError(t, env.Execute(r.Command, "--", "--oneline"))
	assert.Equal(t, fmt.Sprintf("%s Add lib from %s\n%s %s\n", tip, url, root, ledger.InitMessage),
		env.Out.String())
}

func TestCmd_GitFailure(t *testing.T) {
	env, _ := withDependency(t)

	r := NewRunner(env.Ctx, env.Factory, "paravendor")
	r.newGitRunner = func() (GitRunner, error) {
		return nil, errors.E(errors.Op("test"), errors.Internal, "boom")
	}
	err := env.Execute(r.Command)
	assert.True(t, errors.Is(err, errors.Internal))
	assert.Empty(t, env.Out.String())
}

func TestCmd_NotInitialized(t *testing.T) {
	env := clitest.NewEnv(t)
	rec := &recordingRunner{}
	r := NewRunner(env.Ctx, env.Factory, "paravendor")
	r.newGitRunner = func() (GitRunner, error) { return rec, nil }

	err := env.Execute(r.Command)
	assert.True(t, errors.Is(err, errors.NotInitialized))
	assert.Nil(t, rec.args)
}
