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

package cmdshowref_test

import (
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/kptdev/paravendor/internal/cmdshowref"
	"github.com/kptdev/paravendor/internal/errors"
	"github.com/kptdev/paravendor/internal/testutil"
	"github.com/kptdev/paravendor/internal/testutil/clitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCmd(t *testing.T) {
	env := clitest.NewInitializedEnv(t)
	dep := testutil.NewTestGitRepo(t)
	first := dep.Commit(t, "main", "first")
	second := dep.Commit(t, "main", "second")
	tag := dep.Tag(t, "v1", first, "release v1")

	e, err := env.Factory.Engine(env.Ctx)
	require.NoError(t, err)
	require.NoError(t, e.AddDependency(env.Ctx, "lib", dep.URL()))

	testCases := map[string]struct {
		ref  string
		want plumbing.Hash
	}{
		"short branch name": {
			ref:  "main",
			want: second,
		},
		"full branch name": {
			ref:  "refs/heads/main",
			want: second,
		},
		"annotated tag peels to commit": {
			ref:  "v1",
			want: first,
		},
		"full tag name is the tag object": {
			ref:  "refs/tags/v1",
			want: tag,
		},
	}

	for tn, tc := range testCases {
		t.Run(tn, func(t *testing.T) {
			r := cmdshowref.NewRunner(env.Ctx, env.Factory, "paravendor")
			require.NoError(t, env.Execute(r.Command, "lib", tc.ref))
			assert.Equal(t, tc.want.String()+"\n", env.Out.String())
		})
	}
}

func TestCmd_Errors(t *testing.T) {
	env := clitest.NewInitializedEnv(t)
	dep := testutil.NewTestGitRepo(t)
	dep.Commit(t, "main", "first")

	e, err := env.Factory.Engine(env.Ctx)
	require.NoError(t, err)
	require.NoError(t, e.AddDependency(env.Ctx, "lib", dep.URL()))

	testCases := map[string]struct {
		args []string
		kind errors.Kind
	}{
		"unknown dependency": {
			args: []string{"nope", "main"},
			kind: errors.DependencyNotFound,
		},
		"unknown ref": {
			args: []string{"lib", "v9"},
			kind: errors.ReferenceNotFound,
		},
	}

	for tn, tc := range testCases {
		t.Run(tn, func(t *testing.T) {
			r := cmdshowref.NewRunner(env.Ctx, env.Factory, "paravendor")
			err := env.Execute(r.Command, tc.args...)
			assert.True(t, errors.Is(err, tc.kind), "got %v", err)
			assert.Equal(t, tc.args[1], string(errors.RefOf(err)))
		})
	}
}
