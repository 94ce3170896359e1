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

// Package prune reduces a set of commits to the ones not reachable from any
// other commit of the set.
package prune

import (
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/kptdev/paravendor/internal/errors"
	"k8s.io/klog/v2"
)

// Pruner computes minimal commit sets over an object store.
type Pruner struct {
	store storer.EncodedObjectStorer
	cache *reachCache
}

// New returns a Pruner reading commits from store and remembering up to
// cacheSize ancestry answers. A non-positive size selects DefaultCacheSize.
func New(store storer.EncodedObjectStorer, cacheSize int) (*Pruner, error) {
	const op errors.Op = "prune.New"
	cache, err := newReachCache(cacheSize)
	if err != nil {
		return nil, errors.E(op, errors.Internal, err)
	}
	return &Pruner{store: store, cache: cache}, nil
}

// Prune drops every commit that is a strict ancestor, through any parent, of
// another distinct commit in the input. Duplicates count once. The result
// keeps the order of first occurrence in the input.
func (p *Pruner) Prune(commits []*object.Commit) ([]*object.Commit, error) {
	const op errors.Op = "prune.Prune"

	seen := make(map[plumbing.Hash]bool, len(commits))
	unique := make([]*object.Commit, 0, len(commits))
	for _, c := range commits {
		if c == nil || seen[c.Hash] {
			continue
		}
		seen[c.Hash] = true
		unique = append(unique, c)
	}

	redundant := make(map[plumbing.Hash]bool, len(unique))
	for _, d := range unique {
		var targets []plumbing.Hash
		for _, a := range unique {
			if a.Hash == d.Hash || redundant[a.Hash] {
				continue
			}
			if reachable, found := p.cache.get(a.Hash, d.Hash); found {
				redundant[a.Hash] = reachable
				continue
			}
			targets = append(targets, a.Hash)
		}
		if len(targets) == 0 {
			continue
		}
		found, err := p.reachable(d.Hash, targets)
		if err != nil {
			return nil, errors.E(op, errors.Git, err)
		}
		for _, a := range targets {
			p.cache.add(a, d.Hash, found[a])
			if found[a] {
				redundant[a] = true
			}
		}
	}

	result := make([]*object.Commit, 0, len(unique))
	for _, c := range unique {
		if redundant[c.Hash] {
			klog.V(2).Infof("pruning %s: reachable from another head", c.Hash)
			continue
		}
		result = append(result, c)
	}
	return result, nil
}

// reachable walks the history of from, through every parent, and reports
// which of targets are strict ancestors of it. The walk stops as soon as
// all targets have been seen, and only the visited set is kept, so memory
// stays proportional to one history. Commits missing from the store
// (shallow or partial fetches) end the walk along that path.
func (p *Pruner) reachable(from plumbing.Hash, targets []plumbing.Hash) (map[plumbing.Hash]bool, error) {
	want := make(map[plumbing.Hash]bool, len(targets))
	for _, t := range targets {
		want[t] = true
	}
	found := make(map[plumbing.Hash]bool, len(targets))

	visited := map[plumbing.Hash]struct{}{}
	queue := []plumbing.Hash{from}
	for len(queue) > 0 && len(found) < len(want) {
		current := queue[0]
		queue = queue[1:]

		c, err := object.GetCommit(p.store, current)
		if err == plumbing.ErrObjectNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, parent := range c.ParentHashes {
			if _, ok := visited[parent]; ok {
				continue
			}
			visited[parent] = struct{}{}
			if want[parent] {
				found[parent] = true
			}
			queue = append(queue, parent)
		}
	}
	return found, nil
}
