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

package ledger

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/kptdev/paravendor/internal/errors"
	"github.com/kptdev/paravendor/pkg/manifest"
	"github.com/kptdev/paravendor/pkg/printer"
	"k8s.io/klog/v2"
)

// Bootstrap creates the ledger branch. Unless ignoreRemote is set, a
// remote-tracking copy of the branch is adopted with its whole history.
// Otherwise the branch starts at a root commit holding an empty manifest.
func Bootstrap(ctx context.Context, repo *git.Repository, opts Options, ignoreRemote bool) (*Ledger, error) {
	const op errors.Op = "ledger.Bootstrap"
	opts = opts.withDefaults()

	_, err := repo.Storer.Reference(opts.RefName())
	switch {
	case err == nil:
		return nil, errors.E(op, errors.AlreadyInitialized,
			"'"+opts.Branch+"' branch already exists")
	case err != plumbing.ErrReferenceNotFound:
		return nil, errors.E(op, errors.Git, err)
	}

	if !ignoreRemote {
		ref, err := adoptRemote(ctx, repo, opts)
		if err != nil {
			return nil, errors.E(op, err)
		}
		if ref != nil {
			return load(repo, opts, ref.Hash())
		}
	}

	encoded, err := manifest.Encode(manifest.New())
	if err != nil {
		return nil, errors.E(op, err)
	}
	blob, err := storeBlob(repo.Storer, encoded)
	if err != nil {
		return nil, errors.E(op, errors.StorageWrite, err)
	}
	tree, err := storeTree(repo.Storer, nil, opts.ManifestFile, blob)
	if err != nil {
		return nil, errors.E(op, errors.StorageWrite, err)
	}
	commit, err := storeCommit(repo.Storer, signature(repo, opts), nil, tree, InitMessage)
	if err != nil {
		return nil, errors.E(op, errors.StorageWrite, err)
	}
	if err := createBranch(repo, plumbing.NewHashReference(opts.RefName(), commit)); err != nil {
		return nil, errors.E(op, err)
	}

	klog.V(2).Infof("created ledger branch %s at %s", opts.Branch, commit)
	return &Ledger{repo: repo, opts: opts, Tip: commit, Manifest: manifest.New()}, nil
}

// adoptRemote creates the local ledger branch from the remote-tracking copy
// of the candidate remote. It returns nil when there is nothing to adopt.
func adoptRemote(ctx context.Context, repo *git.Repository, opts Options) (*plumbing.Reference, error) {
	const op errors.Op = "ledger.adoptRemote"

	remote, err := candidateRemote(ctx, repo)
	if err != nil {
		return nil, errors.E(op, errors.Git, err)
	}
	if remote == "" {
		return nil, nil
	}

	tracking, err := repo.Storer.Reference(plumbing.NewRemoteReferenceName(remote, opts.Branch))
	if err == plumbing.ErrReferenceNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.E(op, errors.Git, err)
	}

	ref := plumbing.NewHashReference(opts.RefName(), tracking.Hash())
	if err := createBranch(repo, ref); err != nil {
		return nil, errors.E(op, err)
	}
	printer.FromContext(ctx).Printf("Adopted %s from %s\n", opts.Branch, tracking.Name().Short())
	return ref, nil
}

// candidateRemote picks the remote to adopt the ledger from: the upstream
// of the checked-out branch, else the first configured remote by name.
// Falling back to the first of several remotes is reported to the user.
func candidateRemote(ctx context.Context, repo *git.Repository) (string, error) {
	cfg, err := repo.Config()
	if err != nil {
		return "", err
	}

	head, err := repo.Storer.Reference(plumbing.HEAD)
	if err == nil {
		branch := head.Name()
		if head.Type() == plumbing.SymbolicReference {
			branch = head.Target()
		}
		if branch.IsBranch() {
			if b, found := cfg.Branches[branch.Short()]; found && b.Remote != "" {
				if _, found := cfg.Remotes[b.Remote]; found {
					return b.Remote, nil
				}
			}
		}
	}

	names := make([]string, 0, len(cfg.Remotes))
	for name := range cfg.Remotes {
		names = append(names, name)
	}
	if len(names) == 0 {
		return "", nil
	}
	sort.Strings(names)
	if len(names) > 1 {
		printer.FromContext(ctx).Printf(
			"Current branch has no upstream, looking for paravendor on remote %q (of %d remotes)\n",
			names[0], len(names))
	}
	return names[0], nil
}

// createBranch sets ref unless it appeared since Bootstrap checked for it.
// go-git has no create-only primitive, so a writer racing between the check
// and the write is not detected.
func createBranch(repo *git.Repository, ref *plumbing.Reference) error {
	const op errors.Op = "ledger.createBranch"
	_, err := repo.Storer.Reference(ref.Name())
	switch {
	case err == nil:
		return errors.E(op, errors.LedgerConflict,
			fmt.Sprintf("%s was created concurrently", ref.Name().Short()))
	case err != plumbing.ErrReferenceNotFound:
		return errors.E(op, errors.Git, err)
	}
	if err := repo.Storer.SetReference(ref); err != nil {
		return errors.E(op, errors.StorageWrite, err)
	}
	return nil
}
