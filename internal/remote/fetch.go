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

// Package remote fetches the advertised references of a dependency into the
// local object store.
package remote

import (
	"context"
	goerrors "errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/kptdev/paravendor/internal/errors"
	"k8s.io/klog/v2"
)

const (
	// fetchNamespace is where fetched refs are parked until the objects
	// they point at are safely in the store.
	fetchNamespace = "refs/paravendor-fetch/"

	peeledSuffix = "^{}"
)

// Result is what a fetch learned about a remote.
type Result struct {
	// Heads is the reference advertisement of the remote, reference name to
	// commit id, including HEAD and peeled tags (suffixed with "^{}").
	Heads map[string]string

	// Commits are the advertised commits that can be read from the local
	// store, ordered by reference name and without duplicates. Advertised
	// ids that cannot be resolved to a local commit are left out here but
	// remain in Heads.
	Commits []*object.Commit
}

// Fetcher downloads dependencies into a repository's object store.
type Fetcher struct {
	repo *git.Repository

	// Progress receives the sideband progress of the remote. It is written
	// to synchronously from within the fetch; nil disables progress.
	Progress io.Writer
}

// NewFetcher returns a Fetcher storing objects in repo.
func NewFetcher(repo *git.Repository, progress io.Writer) *Fetcher {
	return &Fetcher{repo: repo, Progress: progress}
}

// Fetch downloads every object reachable from the references advertised by
// url, without following tags, and returns the advertisement. No
// references are left behind in the repository.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Result, error) {
	const op errors.Op = "remote.Fetch"

	r, err := f.repo.CreateRemoteAnonymous(&config.RemoteConfig{
		Name: "anonymous",
		URLs: []string{url},
	})
	if err != nil {
		return nil, errors.E(op, errors.InvalidParam, fmt.Errorf("invalid url %q: %w", url, err))
	}

	namespace := fmt.Sprintf("%s%d/", fetchNamespace, time.Now().UnixNano())
	defer func() {
		if err := f.removeRefs(namespace); err != nil {
			klog.Warningf("failed to clean up fetch refs under %s: %v", namespace, err)
		}
	}()

	klog.V(2).Infof("fetching %s", url)
	err = r.FetchContext(ctx, &git.FetchOptions{
		RefSpecs: []config.RefSpec{config.RefSpec("+refs/*:" + namespace + "*")},
		Tags:     git.NoTags,
		Progress: f.Progress,
		Force:    true,
	})
	switch {
	case err == nil, goerrors.Is(err, git.NoErrAlreadyUpToDate):
	case goerrors.Is(err, transport.ErrEmptyRemoteRepository):
		klog.V(2).Infof("remote %s is empty", url)
		return &Result{Heads: map[string]string{}}, nil
	default:
		return nil, errors.E(op, errors.NetworkFetch, fmt.Errorf("fetching %s: %w", url, err))
	}

	refs, err := r.ListContext(ctx, &git.ListOptions{PeelingOption: git.AppendPeeled})
	if err != nil {
		if goerrors.Is(err, transport.ErrEmptyRemoteRepository) {
			return &Result{Heads: map[string]string{}}, nil
		}
		return nil, errors.E(op, errors.NetworkFetch, fmt.Errorf("listing %s: %w", url, err))
	}

	heads := f.advertisedHeads(refs)
	if err := f.checkFetched(namespace, heads); err != nil {
		return nil, errors.E(op, errors.NetworkFetch, fmt.Errorf("%s: %w", url, err))
	}
	return &Result{
		Heads:   heads,
		Commits: f.localCommits(heads),
	}, nil
}

// advertisedHeads flattens an advertisement into name to id pairs.
// Symbolic references are resolved within the advertisement; everything
// else, peeled tags included, is taken as advertised.
func (f *Fetcher) advertisedHeads(refs []*plumbing.Reference) map[string]string {
	byName := make(map[plumbing.ReferenceName]*plumbing.Reference, len(refs))
	for _, ref := range refs {
		byName[ref.Name()] = ref
	}

	heads := make(map[string]string, len(refs))
	for _, ref := range refs {
		target := ref
		for i := 0; target != nil && target.Type() == plumbing.SymbolicReference && i < 10; i++ {
			target = byName[target.Target()]
		}
		if target == nil || target.Type() != plumbing.HashReference {
			klog.V(2).Infof("skipping unresolvable reference %s", ref.Name())
			continue
		}
		heads[ref.Name().String()] = target.Hash().String()
	}

	return heads
}

// checkFetched compares the references the fetch wrote under namespace with
// the listed heads. The remote is asked twice, so a push landing in between
// makes the two disagree; the result is then rejected rather than recording
// heads whose objects were not fetched.
func (f *Fetcher) checkFetched(namespace string, heads map[string]string) error {
	iter, err := f.repo.Storer.IterReferences()
	if err != nil {
		return err
	}
	fetched := map[string]string{}
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().String()
		if ref.Type() == plumbing.HashReference && strings.HasPrefix(name, namespace) {
			fetched["refs/"+strings.TrimPrefix(name, namespace)] = ref.Hash().String()
		}
		return nil
	})
	if err != nil {
		return err
	}

	listed := 0
	for name, id := range heads {
		if !strings.HasPrefix(name, "refs/") || strings.HasSuffix(name, peeledSuffix) {
			continue
		}
		listed++
		if fetched[name] != id {
			return fmt.Errorf("remote changed during fetch: %s is %s, fetched %q", name, id, fetched[name])
		}
	}
	if listed != len(fetched) {
		return fmt.Errorf("remote changed during fetch: %d references listed, %d fetched", listed, len(fetched))
	}
	return nil
}

// localCommits returns the commits named by heads that exist in the store.
func (f *Fetcher) localCommits(heads map[string]string) []*object.Commit {
	names := make([]string, 0, len(heads))
	for name := range heads {
		names = append(names, name)
	}
	sort.Strings(names)

	seen := map[plumbing.Hash]bool{}
	var commits []*object.Commit
	for _, name := range names {
		h := plumbing.NewHash(heads[name])
		if h.IsZero() || seen[h] {
			continue
		}
		seen[h] = true
		c, err := object.GetCommit(f.repo.Storer, h)
		if err != nil {
			klog.V(2).Infof("%s (%s) is not a local commit: %v", name, h, err)
			continue
		}
		commits = append(commits, c)
	}
	return commits
}

func (f *Fetcher) removeRefs(namespace string) error {
	iter, err := f.repo.Storer.IterReferences()
	if err != nil {
		return err
	}
	var names []plumbing.ReferenceName
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if strings.HasPrefix(ref.Name().String(), namespace) {
			names = append(names, ref.Name())
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := f.repo.Storer.RemoveReference(name); err != nil {
			return err
		}
	}
	return nil
}
