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

// Package paravendor vendors git dependencies into a repository by recording
// their fetched history on a ledger branch.
package paravendor

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/kptdev/paravendor/internal/errors"
	"github.com/kptdev/paravendor/internal/ledger"
	"github.com/kptdev/paravendor/internal/prune"
	"github.com/kptdev/paravendor/internal/remote"
	"github.com/kptdev/paravendor/internal/types"
	"github.com/kptdev/paravendor/pkg/manifest"
	"k8s.io/klog/v2"
)

// Fetcher downloads a dependency into the local object store.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*remote.Result, error)
}

// Options configures an Engine.
type Options struct {
	Ledger ledger.Options

	// PruneCacheSize bounds the number of memoized ancestry answers.
	PruneCacheSize int

	// Progress receives fetch progress. Nil disables it.
	Progress io.Writer

	// Fetcher replaces the go-git fetcher.
	Fetcher Fetcher
}

// DependencyInfo describes a recorded dependency.
type DependencyInfo struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
	Refs int    `json:"refs" yaml:"refs"`
}

// Engine runs paravendor operations against one repository.
type Engine struct {
	repo    *git.Repository
	opts    Options
	fetcher Fetcher
}

// New returns an Engine for repo.
func New(repo *git.Repository, opts Options) *Engine {
	f := opts.Fetcher
	if f == nil {
		f = remote.NewFetcher(repo, opts.Progress)
	}
	return &Engine{repo: repo, opts: opts, fetcher: f}
}

// Branch is the short name of the ledger branch.
func (e *Engine) Branch() string {
	if e.opts.Ledger.Branch == "" {
		return ledger.DefaultBranch
	}
	return e.opts.Ledger.Branch
}

// Bootstrap initializes the ledger branch.
func (e *Engine) Bootstrap(ctx context.Context, ignoreRemote bool) (*ledger.Ledger, error) {
	return ledger.Bootstrap(ctx, e.repo, e.opts.Ledger, ignoreRemote)
}

// AddDependency fetches url and records it as name in a single ledger
// commit.
func (e *Engine) AddDependency(ctx context.Context, name, url string) error {
	const op errors.Op = "paravendor.AddDependency"
	dep := types.DependencyName(name)

	if err := manifest.ValidateDependency(name, url); err != nil {
		return errors.E(op, errors.InvalidParam, dep, err)
	}

	l, err := ledger.Open(ctx, e.repo, e.opts.Ledger)
	if err != nil {
		return errors.E(op, dep, err)
	}
	if l.Manifest.Has(name) {
		return errors.E(op, errors.DuplicateDependency, dep,
			fmt.Sprintf("%s has been already added", name))
	}

	pruner, err := prune.New(e.repo.Storer, e.opts.PruneCacheSize)
	if err != nil {
		return errors.E(op, err)
	}
	heads, commits, err := e.fetchPruned(ctx, pruner, url)
	if err != nil {
		return errors.E(op, dep, err)
	}

	m := l.Manifest.Clone()
	m.Set(name, manifest.Dependency{URL: url, Heads: manifest.HeadsFromRefs(heads)})

	extra, err := unretained(l, commits)
	if err != nil {
		return errors.E(op, dep, err)
	}
	if _, _, err := l.Update(ctx, m, extra, fmt.Sprintf("Add %s from %s", name, url)); err != nil {
		return errors.E(op, dep, err)
	}
	return nil
}

// Sync refetches the named dependencies, or all of them when names is
// empty, and records every change in one ledger commit. It returns the
// names whose heads changed. Nothing is written if any fetch fails.
func (e *Engine) Sync(ctx context.Context, names []string) ([]string, error) {
	const op errors.Op = "paravendor.Sync"

	l, err := ledger.Open(ctx, e.repo, e.opts.Ledger)
	if err != nil {
		return nil, errors.E(op, err)
	}

	targets, err := selectDependencies(l.Manifest, names)
	if err != nil {
		return nil, errors.E(op, err)
	}

	pruner, err := prune.New(e.repo.Storer, e.opts.PruneCacheSize)
	if err != nil {
		return nil, errors.E(op, err)
	}

	m := l.Manifest.Clone()
	var changed []string
	var commits []*object.Commit
	for _, name := range targets {
		dep := m.Dependencies[name]
		heads, pruned, err := e.fetchPruned(ctx, pruner, dep.URL)
		if err != nil {
			return nil, errors.E(op, types.DependencyName(name), err)
		}
		commits = append(commits, pruned...)

		updated := manifest.Dependency{URL: dep.URL, Heads: manifest.HeadsFromRefs(heads)}
		if !dep.HeadsEqual(updated) {
			klog.V(2).Infof("dependency %s changed", name)
			changed = append(changed, name)
		}
		m.Set(name, updated)
	}

	if len(changed) == 0 {
		return nil, nil
	}

	extra, err := unretained(l, commits)
	if err != nil {
		return nil, errors.E(op, err)
	}
	if _, _, err := l.Update(ctx, m, extra, "Sync: "+strings.Join(changed, ", ")); err != nil {
		return nil, errors.E(op, err)
	}
	return changed, nil
}

// ListDependencies returns the recorded dependencies sorted by name.
func (e *Engine) ListDependencies(ctx context.Context) ([]DependencyInfo, error) {
	const op errors.Op = "paravendor.ListDependencies"
	l, err := ledger.Open(ctx, e.repo, e.opts.Ledger)
	if err != nil {
		return nil, errors.E(op, err)
	}
	infos := make([]DependencyInfo, 0, len(l.Manifest.Dependencies))
	for _, name := range l.Manifest.DependencyNames() {
		dep := l.Manifest.Dependencies[name]
		infos = append(infos, DependencyInfo{Name: name, URL: dep.URL, Refs: len(dep.Heads)})
	}
	return infos, nil
}

// ListReferences returns the reference names recorded for a dependency.
func (e *Engine) ListReferences(ctx context.Context, name string) ([]string, error) {
	const op errors.Op = "paravendor.ListReferences"
	dep, err := e.dependency(ctx, name)
	if err != nil {
		return nil, errors.E(op, err)
	}
	return dep.RefNames(), nil
}

// ResolveReference returns the commit id ref resolves to within a
// dependency.
func (e *Engine) ResolveReference(ctx context.Context, name, ref string) (string, error) {
	const op errors.Op = "paravendor.ResolveReference"
	dep, err := e.dependency(ctx, name)
	if err != nil {
		return "", errors.E(op, err)
	}
	id, err := dep.Resolve(ref)
	if err != nil {
		return "", errors.E(op, types.DependencyName(name), err)
	}
	return id, nil
}

// History iterates over the ledger commits from the tip to the root.
func (e *Engine) History(ctx context.Context) (*ledger.HistoryIter, error) {
	const op errors.Op = "paravendor.History"
	l, err := ledger.Open(ctx, e.repo, e.opts.Ledger)
	if err != nil {
		return nil, errors.E(op, err)
	}
	return l.History(), nil
}

func (e *Engine) dependency(ctx context.Context, name string) (manifest.Dependency, error) {
	l, err := ledger.Open(ctx, e.repo, e.opts.Ledger)
	if err != nil {
		return manifest.Dependency{}, err
	}
	return l.Manifest.Get(name)
}

// fetchPruned fetches url and reduces the fetched commits to the ones not
// reachable from each other.
func (e *Engine) fetchPruned(ctx context.Context, pruner *prune.Pruner, url string) (map[string]string, []*object.Commit, error) {
	res, err := e.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, nil, err
	}
	pruned, err := pruner.Prune(res.Commits)
	if err != nil {
		return nil, nil, err
	}
	klog.V(2).Infof("%s: %d refs, %d commits, %d after pruning", url, len(res.Heads), len(res.Commits), len(pruned))
	return res.Heads, pruned, nil
}

// selectDependencies returns the dependencies to sync, in manifest order.
func selectDependencies(m *manifest.Manifest, names []string) ([]string, error) {
	const op errors.Op = "paravendor.selectDependencies"
	if len(names) == 0 {
		return m.DependencyNames(), nil
	}

	requested := map[string]bool{}
	var missing []string
	for _, name := range names {
		if !m.Has(name) {
			missing = append(missing, name)
			continue
		}
		requested[name] = true
	}
	if len(missing) > 0 {
		return nil, errors.E(op, errors.DependencyNotFound, types.DependencyName(missing[0]),
			fmt.Sprintf("unknown dependencies: %s", strings.Join(missing, ", ")))
	}

	var targets []string
	for _, name := range m.DependencyNames() {
		if requested[name] {
			targets = append(targets, name)
		}
	}
	return targets, nil
}

// unretained drops commits the ledger already keeps reachable, so syncing
// unchanged dependencies splices nothing in. Order and uniqueness of the
// remaining commits are preserved.
func unretained(l *ledger.Ledger, commits []*object.Commit) ([]plumbing.Hash, error) {
	retained, err := l.Retained()
	if err != nil {
		return nil, err
	}
	var extra []plumbing.Hash
	seen := map[plumbing.Hash]bool{}
	for _, c := range commits {
		if retained[c.Hash] || seen[c.Hash] {
			continue
		}
		seen[c.Hash] = true
		extra = append(extra, c.Hash)
	}
	return extra, nil
}
