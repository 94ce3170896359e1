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
	"bytes"
	"context"
	goerrors "errors"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage"
	"github.com/kptdev/paravendor/internal/errors"
	"github.com/kptdev/paravendor/pkg/manifest"
	"k8s.io/klog/v2"
)

// Update records m on the ledger. The new commit has the current tip as its
// first parent followed by extraParents in the given order. When m encodes
// to the blob already at the tip and there are no extra parents nothing is
// written and Update returns l and false.
//
// The branch is only moved if it still points at l.Tip; otherwise the
// error has kind LedgerConflict and the branch is left alone.
func (l *Ledger) Update(ctx context.Context, m *manifest.Manifest, extraParents []plumbing.Hash, message string) (*Ledger, bool, error) {
	const op errors.Op = "ledger.Update"

	if err := ctx.Err(); err != nil {
		return nil, false, errors.E(op, err)
	}

	encoded, err := manifest.Encode(m)
	if err != nil {
		return nil, false, errors.E(op, err)
	}

	tip, err := l.Commit()
	if err != nil {
		return nil, false, errors.E(op, errors.Git, err)
	}

	parents := []plumbing.Hash{l.Tip}
	seen := map[plumbing.Hash]bool{l.Tip: true}
	for _, p := range extraParents {
		if seen[p] {
			continue
		}
		seen[p] = true
		parents = append(parents, p)
	}

	if len(parents) == 1 {
		current, err := readManifestBlob(tip, l.opts.ManifestFile)
		if err == nil && bytes.Equal(current, encoded) {
			klog.V(2).Infof("ledger %s unchanged", l.Tip)
			return l, false, nil
		}
	}

	store := l.repo.Storer
	blob, err := storeBlob(store, encoded)
	if err != nil {
		return nil, false, errors.E(op, errors.StorageWrite, err)
	}

	base, err := tip.Tree()
	if err != nil {
		return nil, false, errors.E(op, errors.Git, err)
	}
	tree, err := storeTree(store, base, l.opts.ManifestFile, blob)
	if err != nil {
		return nil, false, errors.E(op, errors.StorageWrite, err)
	}

	commit, err := storeCommit(store, signature(l.repo, l.opts), parents, tree, message)
	if err != nil {
		return nil, false, errors.E(op, errors.StorageWrite, err)
	}

	name := l.opts.RefName()
	err = store.CheckAndSetReference(
		plumbing.NewHashReference(name, commit),
		plumbing.NewHashReference(name, l.Tip),
	)
	if goerrors.Is(err, storage.ErrReferenceHasChanged) {
		return nil, false, errors.E(op, errors.LedgerConflict, err)
	}
	if err != nil {
		return nil, false, errors.E(op, errors.StorageWrite, err)
	}

	klog.V(2).Infof("ledger %s advanced %s -> %s with %d extra parents", name, l.Tip, commit, len(parents)-1)
	return &Ledger{
		repo:     l.repo,
		opts:     l.opts,
		Tip:      commit,
		Manifest: m.Clone(),
	}, true, nil
}
