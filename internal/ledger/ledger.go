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

// Package ledger maintains the paravendor branch: a first-parent chain of
// commits whose trees hold the manifest, with vendored commits spliced in as
// additional parents so the object store keeps them reachable.
package ledger

import (
	"context"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/kptdev/paravendor/internal/errors"
	"github.com/kptdev/paravendor/pkg/manifest"
	"k8s.io/klog/v2"
)

const (
	// DefaultBranch is the name of the ledger branch.
	DefaultBranch = "paravendor"

	// DefaultManifestFile is the tree entry holding the manifest.
	DefaultManifestFile = "config"

	// InitMessage is the message of the root ledger commit.
	InitMessage = "Initialize paravendor"

	defaultAuthorName  = "paravendor"
	defaultAuthorEmail = "paravendor@localhost"
)

// Options controls where the ledger lives and who writes to it.
type Options struct {
	// Branch is the short name of the ledger branch.
	Branch string

	// ManifestFile is the tree entry the manifest is stored under.
	ManifestFile string

	// AuthorName and AuthorEmail override the repository's user config.
	AuthorName  string
	AuthorEmail string
}

func (o Options) withDefaults() Options {
	if o.Branch == "" {
		o.Branch = DefaultBranch
	}
	if o.ManifestFile == "" {
		o.ManifestFile = DefaultManifestFile
	}
	return o
}

// RefName is the full reference name of the ledger branch.
func (o Options) RefName() plumbing.ReferenceName {
	return plumbing.NewBranchReferenceName(o.withDefaults().Branch)
}

// Ledger is a handle on the ledger branch at a known tip. Handles are
// values: writing through one returns a new handle and leaves the old one
// pointing at the previous tip.
type Ledger struct {
	repo *git.Repository
	opts Options

	// Tip is the ledger commit this handle was read from.
	Tip plumbing.Hash

	// Manifest is the manifest recorded at Tip.
	Manifest *manifest.Manifest
}

// Open reads the ledger. When the local branch is missing but a
// remote-tracking copy exists, the local branch is created from it first.
func Open(ctx context.Context, repo *git.Repository, opts Options) (*Ledger, error) {
	const op errors.Op = "ledger.Open"
	opts = opts.withDefaults()

	ref, err := repo.Storer.Reference(opts.RefName())
	switch {
	case err == plumbing.ErrReferenceNotFound:
		ref, err = adoptRemote(ctx, repo, opts)
		if err != nil {
			return nil, errors.E(op, err)
		}
		if ref == nil {
			return nil, errors.E(op, errors.NotInitialized,
				"paravendor is not initialized, run `git paravendor init`")
		}
	case err != nil:
		return nil, errors.E(op, errors.Git, err)
	}

	return load(repo, opts, ref.Hash())
}

// load reads the manifest stored at tip.
func load(repo *git.Repository, opts Options, tip plumbing.Hash) (*Ledger, error) {
	const op errors.Op = "ledger.load"

	c, err := object.GetCommit(repo.Storer, tip)
	if err != nil {
		return nil, errors.E(op, errors.Git, err)
	}
	m, _, err := readManifest(c, opts.ManifestFile)
	if err != nil {
		return nil, errors.E(op, err)
	}
	return &Ledger{repo: repo, opts: opts, Tip: tip, Manifest: m}, nil
}

// RefName is the full name of the ledger branch.
func (l *Ledger) RefName() plumbing.ReferenceName {
	return l.opts.RefName()
}

// Commit returns the commit at the tip of this handle.
func (l *Ledger) Commit() (*object.Commit, error) {
	return object.GetCommit(l.repo.Storer, l.Tip)
}

// signature returns the identity ledger commits are written with: explicit
// options first, then the git user config, then a fixed fallback.
func signature(repo *git.Repository, opts Options) object.Signature {
	sig := object.Signature{
		Name:  opts.AuthorName,
		Email: opts.AuthorEmail,
		When:  time.Now(),
	}
	if sig.Name == "" || sig.Email == "" {
		cfg, err := repo.ConfigScoped(config.GlobalScope)
		if err != nil {
			klog.V(2).Infof("cannot read git config for signature: %v", err)
		} else {
			if sig.Name == "" {
				sig.Name = cfg.User.Name
			}
			if sig.Email == "" {
				sig.Email = cfg.User.Email
			}
		}
	}
	if sig.Name == "" {
		sig.Name = defaultAuthorName
	}
	if sig.Email == "" {
		sig.Email = defaultAuthorEmail
	}
	return sig
}
