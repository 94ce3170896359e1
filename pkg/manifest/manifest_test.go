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

package manifest

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/kptdev/paravendor/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	commitA = "1111111111111111111111111111111111111111"
	commitB = "2222222222222222222222222222222222222222"
)

func TestDecode(t *testing.T) {
	testCases := map[string]struct {
		input    string
		expected *Manifest
		kind     errors.Kind
	}{
		"empty manifest": {
			input: "version = '1.1'\n[dependencies]\n",
			expected: &Manifest{
				Version:      "1.1",
				Dependencies: map[string]Dependency{},
			},
		},
		"missing dependencies table": {
			input: "version = \"1.1\"\n",
			expected: &Manifest{
				Version:      "1.1",
				Dependencies: map[string]Dependency{},
			},
		},
		"dependency with heads": {
			input: `version = "1.1"

[dependencies.dep]
url = "/tmp/dep"

[dependencies.dep.heads.HEAD]
commit = "1111111111111111111111111111111111111111"

[dependencies.dep.heads."refs/heads/master"]
commit = "1111111111111111111111111111111111111111"
`,
			expected: &Manifest{
				Version: "1.1",
				Dependencies: map[string]Dependency{
					"dep": {
						URL: "/tmp/dep",
						Heads: map[string]Head{
							"HEAD":              {Commit: commitA},
							"refs/heads/master": {Commit: commitA},
						},
					},
				},
			},
		},
		"dependency without heads": {
			input: "version = '1.0'\n[dependencies.dep]\nurl = 'x'\n",
			expected: &Manifest{
				Version: "1.0",
				Dependencies: map[string]Dependency{
					"dep": {URL: "x", Heads: map[string]Head{}},
				},
			},
		},
		"malformed": {
			input: "version = \n",
			kind:  errors.ManifestParse,
		},
		"unknown field": {
			input: "version = '1.1'\nlockfile = true\n",
			kind:  errors.ManifestParse,
		},
		"unsupported version": {
			input: "version = '2.0'\n",
			kind:  errors.ManifestParse,
		},
		"missing version": {
			input: "[dependencies]\n",
			kind:  errors.ManifestParse,
		},
		"garbage version": {
			input: "version = 'latest'\n",
			kind:  errors.ManifestParse,
		},
	}

	for tn, tc := range testCases {
		t.Run(tn, func(t *testing.T) {
			m, err := Decode([]byte(tc.input))
			if tc.kind != errors.Other {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tc.kind), "unexpected error: %v", err)
				return
			}
			if !assert.NoError(t, err) {
				t.FailNow()
			}
			if diff := cmp.Diff(tc.expected, m); diff != "" {
				t.Errorf("manifest mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	build := func(order []string) *Manifest {
		m := New()
		for _, name := range order {
			m.Set(name, Dependency{
				URL: "https://example.com/" + name + ".git",
				Heads: map[string]Head{
					"refs/tags/v1":       {Commit: commitB},
					"HEAD":               {Commit: commitA},
					"refs/heads/main":    {Commit: commitA},
					"refs/tags/v1^{}":    {Commit: commitA},
					"refs/heads/feature": {Commit: commitB},
				},
			})
		}
		return m
	}

	first, err := Encode(build([]string{"zeta", "alpha", "mid"}))
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Encode(build([]string{"mid", "zeta", "alpha"}))
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}

	decoded, err := Decode(first)
	require.NoError(t, err)
	if diff := cmp.Diff(build([]string{"alpha", "mid", "zeta"}), decoded); diff != "" {
		t.Errorf("decoded manifest mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeEmpty(t *testing.T) {
	b, err := Encode(New())
	require.NoError(t, err)
	m, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, m.Version)
	assert.Empty(t, m.Dependencies)
}

func TestResolve(t *testing.T) {
	dep := Dependency{
		URL: "https://example.com/lib.git",
		Heads: map[string]Head{
			"HEAD":             {Commit: commitA},
			"refs/heads/main":  {Commit: commitA},
			"refs/tags/v1^{}":  {Commit: commitB},
			"refs/tags/v1":     {Commit: "3333333333333333333333333333333333333333"},
			"refs/tags/v2":     {Commit: "4444444444444444444444444444444444444444"},
			"refs/heads/v2":    {Commit: "5555555555555555555555555555555555555555"},
			"refs/heads/HEAD2": {Commit: commitB},
		},
	}

	testCases := map[string]struct {
		name     string
		expected string
	}{
		"exact key":             {name: "HEAD", expected: commitA},
		"fully qualified":       {name: "refs/tags/v1", expected: "3333333333333333333333333333333333333333"},
		"branch shorthand":      {name: "main", expected: commitA},
		"peeled tag wins":       {name: "v1", expected: commitB},
		"branch before tag":     {name: "v2", expected: "5555555555555555555555555555555555555555"},
		"branch named like ref": {name: "HEAD2", expected: commitB},
	}

	for tn, tc := range testCases {
		t.Run(tn, func(t *testing.T) {
			got, err := dep.Resolve(tc.name)
			if !assert.NoError(t, err) {
				t.FailNow()
			}
			assert.Equal(t, tc.expected, got)
		})
	}

	_, err := dep.Resolve("missing")
	assert.True(t, errors.Is(err, errors.ReferenceNotFound))
}

func TestResolveUnpeeledTag(t *testing.T) {
	dep := Dependency{Heads: map[string]Head{"refs/tags/v3": {Commit: commitA}}}
	got, err := dep.Resolve("v3")
	require.NoError(t, err)
	assert.Equal(t, commitA, got)
}

func TestManifestHelpers(t *testing.T) {
	m := New()
	m.Set("b", Dependency{URL: "u-b", Heads: HeadsFromRefs(map[string]string{"HEAD": commitA})})
	m.Set("a", Dependency{URL: "u-a", Heads: map[string]Head{}})

	assert.Equal(t, []string{"a", "b"}, m.DependencyNames())
	assert.True(t, m.Has("a"))
	assert.False(t, m.Has("A"))

	_, err := m.Get("c")
	assert.True(t, errors.Is(err, errors.DependencyNotFound))

	c := m.Clone()
	b, err := c.Get("b")
	require.NoError(t, err)
	b.Heads["HEAD"] = Head{Commit: commitB}
	orig, err := m.Get("b")
	require.NoError(t, err)
	assert.Equal(t, commitA, orig.Heads["HEAD"].Commit)
	assert.False(t, orig.HeadsEqual(b))
	assert.True(t, orig.HeadsEqual(orig.Clone()))
	assert.Equal(t, []string{"HEAD"}, orig.RefNames())
}

func TestValidateDependency(t *testing.T) {
	assert.NoError(t, ValidateDependency("lib", "https://example.com/lib.git"))

	err := ValidateDependency(" ", "")
	var verr *errors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"name", "url"}, verr.Violations.Fields())

	err = ValidateDependency("a\nb", "x")
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, errors.Invalid, verr.Violations[0].Type)
}
