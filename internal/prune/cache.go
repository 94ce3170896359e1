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
	"github.com/go-git/go-git/v5/plumbing"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of ancestry answers kept in memory.
const DefaultCacheSize = 4096

type pair struct {
	ancestor, descendant plumbing.Hash
}

// reachCache memoizes whether one commit is a strict ancestor of another.
// Commits are immutable so entries never need invalidation.
type reachCache struct {
	answers *lru.Cache[pair, bool]
}

func newReachCache(size int) (*reachCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	answers, err := lru.New[pair, bool](size)
	if err != nil {
		return nil, err
	}
	return &reachCache{answers: answers}, nil
}

func (c *reachCache) get(ancestor, descendant plumbing.Hash) (bool, bool) {
	return c.answers.Get(pair{ancestor: ancestor, descendant: descendant})
}

func (c *reachCache) add(ancestor, descendant plumbing.Hash, reachable bool) {
	c.answers.Add(pair{ancestor: ancestor, descendant: descendant}, reachable)
}

func (c *reachCache) len() int {
	return c.answers.Len()
}
