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

package prune

import (
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/kptdev/paravendor/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// graph builds:
//
//	a - b - c        (main)
//	     \
//	      d - m      (m merges d and x)
//	         /
//	    x --'
//	y                (unrelated root)
func graph(t *testing.T) (*git.Repository, map[string]plumbing.Hash) {
	repo := testutil.NewMemRepo(t)
	h := map[string]plumbing.Hash{}
	h["a"] = testutil.CommitWithParents(t, repo, "", "a")
	h["b"] = testutil.CommitWithParents(t, repo, "", "b", h["a"])
	h["c"] = testutil.CommitWithParents(t, repo, "", "c", h["b"])
	h["d"] = testutil.CommitWithParents(t, repo, "", "d", h["b"])
	h["x"] = testutil.CommitWithParents(t, repo, "", "x")
	h["m"] = testutil.CommitWithParents(t, repo, "", "m", h["d"], h["x"])
	h["y"] = testutil.CommitWithParents(t, repo, "", "y")
	return repo, h
}

func commits(t *testing.T, repo *git.Repository, h map[string]plumbing.Hash, names ...string) []*object.Commit {
	var cs []*object.Commit
	for _, n := range names {
		cs = append(cs, testutil.GetCommit(t, repo, h[n]))
	}
	return cs
}

func names(h map[string]plumbing.Hash, cs []*object.Commit) []string {
	byHash := map[plumbing.Hash]string{}
	for n, hash := range h {
		byHash[hash] = n
	}
	var out []string
	for _, c := range cs {
		out = append(out, byHash[c.Hash])
	}
	return out
}

func TestPrune(t *testing.T) {
	repo, h := graph(t)

	testCases := map[string]struct {
		input    []string
		expected []string
	}{
		"empty": {
			input:    nil,
			expected: nil,
		},
		"single": {
			input:    []string{"a"},
			expected: []string{"a"},
		},
		"ancestor dropped": {
			input:    []string{"a", "b"},
			expected: []string{"b"},
		},
		"ancestor dropped regardless of order": {
			input:    []string{"b", "a"},
			expected: []string{"b"},
		},
		"diverged branches both kept": {
			input:    []string{"c", "d"},
			expected: []string{"c", "d"},
		},
		"reachable through second parent": {
			input:    []string{"x", "m"},
			expected: []string{"m"},
		},
		"transitive ancestors": {
			input:    []string{"a", "c", "b", "d", "m"},
			expected: []string{"c", "m"},
		},
		"duplicates count once": {
			input:    []string{"c", "c", "a", "c"},
			expected: []string{"c"},
		},
		"unrelated commits kept in input order": {
			input:    []string{"y", "c", "x"},
			expected: []string{"y", "c", "x"},
		},
	}

	for tn, tc := range testCases {
		t.Run(tn, func(t *testing.T) {
			p, err := New(repo.Storer, 0)
			require.NoError(t, err)

			got, err := p.Prune(commits(t, repo, h, tc.input...))
			if !assert.NoError(t, err) {
				t.FailNow()
			}
			assert.Equal(t, tc.expected, names(h, got))
		})
	}
}

func TestPruneMembershipIsOrderIndependent(t *testing.T) {
	repo, h := graph(t)
	p, err := New(repo.Storer, 0)
	require.NoError(t, err)

	orders := [][]string{
		{"a", "b", "c", "d", "m", "x", "y"},
		{"y", "x", "m", "d", "c", "b", "a"},
		{"m", "a", "y", "c", "x", "b", "d"},
	}
	for _, order := range orders {
		got, err := p.Prune(commits(t, repo, h, order...))
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"c", "m", "y"}, names(h, got))
	}
}

func TestReachable(t *testing.T) {
	repo, h := graph(t)
	p, err := New(repo.Storer, 0)
	require.NoError(t, err)

	testCases := map[string]struct {
		from     string
		targets  []string
		expected []string
	}{
		"parent":          {from: "c", targets: []string{"b"}, expected: []string{"b"}},
		"grandparent":     {from: "m", targets: []string{"a"}, expected: []string{"a"}},
		"second parent":   {from: "m", targets: []string{"x"}, expected: []string{"x"}},
		"not reflexive":   {from: "c", targets: []string{"c"}},
		"child":           {from: "b", targets: []string{"c"}},
		"sibling":         {from: "d", targets: []string{"c"}},
		"unrelated roots": {from: "y", targets: []string{"x"}},
		"several targets": {from: "m", targets: []string{"a", "c", "x", "y"}, expected: []string{"a", "x"}},
	}

	for tn, tc := range testCases {
		t.Run(tn, func(t *testing.T) {
			var targets []plumbing.Hash
			for _, n := range tc.targets {
				targets = append(targets, h[n])
			}
			found, err := p.reachable(h[tc.from], targets)
			require.NoError(t, err)

			var got []string
			for _, n := range tc.targets {
				if found[h[n]] {
					got = append(got, n)
				}
			}
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestPruneCachesAnswers(t *testing.T) {
	repo, h := graph(t)
	p, err := New(repo.Storer, 3)
	require.NoError(t, err)

	got, err := p.Prune(commits(t, repo, h, "a", "c", "y"))
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "y"}, names(h, got))
	assert.LessOrEqual(t, p.cache.len(), 3)

	reachable, found := p.cache.get(h["a"], h["c"])
	if found {
		assert.True(t, reachable)
	}

	// Answers served from the cache give the same result.
	again, err := p.Prune(commits(t, repo, h, "y", "c", "a"))
	require.NoError(t, err)
	assert.Equal(t, []string{"y", "c"}, names(h, again))
}

func TestMissingParentEndsWalk(t *testing.T) {
	repo := testutil.NewMemRepo(t)
	missing := plumbing.NewHash("0123456789012345678901234567890123456789")
	orphan := testutil.CommitWithParents(t, repo, "", "orphan", missing)
	child := testutil.CommitWithParents(t, repo, "", "child", orphan)

	p, err := New(repo.Storer, 0)
	require.NoError(t, err)

	got, err := p.Prune([]*object.Commit{
		testutil.GetCommit(t, repo, orphan),
		testutil.GetCommit(t, repo, child),
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, child, got[0].Hash)

	found, err := p.reachable(child, []plumbing.Hash{missing})
	require.NoError(t, err)
	assert.True(t, found[missing])
}
