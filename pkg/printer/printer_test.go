// Copyright 2021 The kpt Authors
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

package printer

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptPrintf(t *testing.T) {
	testCases := map[string]struct {
		opt      *Options
		format   string
		expected string
	}{
		"nil options": {
			format:   "General message\n",
			expected: "General message\n",
		},
		"dependency": {
			opt:      NewOpt().Dep("lib"),
			format:   "fetched\n",
			expected: "Dependency \"lib\": fetched\n",
		},
		"dependency and ref": {
			opt:      NewOpt().Dep("lib").WithRef("refs/heads/main"),
			format:   "resolved\n",
			expected: "Dependency \"lib\" (refs/heads/main): resolved\n",
		},
		"ref without dependency": {
			opt:      NewOpt().WithRef("main"),
			format:   "ignored prefix\n",
			expected: "ignored prefix\n",
		},
	}

	for tn, tc := range testCases {
		t.Run(tn, func(t *testing.T) {
			var out, errOut bytes.Buffer
			pr := New(&out, &errOut)
			pr.OptPrintf(tc.opt, tc.format)
			assert.Equal(t, tc.expected, errOut.String())
			assert.Empty(t, out.String())
		})
	}
}

func TestOutfAndPrintfStreams(t *testing.T) {
	var out, errOut bytes.Buffer
	pr := New(&out, &errOut)

	pr.Outf("%s %s\n", "lib", "https://example.com/lib.git")
	pr.Printf("No updates detected\n")

	assert.Equal(t, "lib https://example.com/lib.git\n", out.String())
	assert.Equal(t, "No updates detected\n", errOut.String())
}

func TestContext(t *testing.T) {
	var out bytes.Buffer
	pr := New(&out, &out)
	ctx := WithContext(context.Background(), pr)

	assert.Same(t, pr, FromContextOrDie(ctx))
	assert.Same(t, pr, FromContext(ctx))
	assert.NotNil(t, FromContext(context.Background()))
	assert.Panics(t, func() { FromContextOrDie(context.Background()) })
}
