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

// Package testutil builds git repositories for tests. Repositories are
// written through go-git; fetching from them needs a git executable.
package testutil

import (
	"fmt"
	"os/exec"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/assert"
)

// DefaultBranch is the branch new test repositories start on.
const DefaultBranch = "main"

var clock int64

// TestGitRepo is a repository on disk used as a dependency remote.
type TestGitRepo struct {
	// RepoDirectory is the temp directory of the git repo
	RepoDirectory string

	Repo *git.Repository
}

// NewTestGitRepo initializes a bare repository in a temp dir, with HEAD
// pointing at DefaultBranch.
func NewTestGitRepo(t *testing.T) *TestGitRepo {
	dir := t.TempDir()
	repo, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName(DefaultBranch)},
		Bare:        true,
	})
	if !assert.NoError(t, err) {
		t.FailNow()
	}
	return &TestGitRepo{RepoDirectory: dir, Repo: repo}
}

// URL is the location to fetch the repository from.
func (g *TestGitRepo) URL() string {
	return g.RepoDirectory
}

// Commit adds a commit to branch on top of its current tip and returns it.
func (g *TestGitRepo) Commit(t *testing.T, branch, message string) plumbing.Hash {
	var parents []plumbing.Hash
	if ref, err := g.Repo.Reference(plumbing.NewBranchReferenceName(branch), true); err == nil {
		parents = append(parents, ref.Hash())
	}
	return CommitWithParents(t, g.Repo, branch, message, parents...)
}

// Tag creates a lightweight tag, or an annotated one when message is set.
// It returns the hash the tag reference points at.
func (g *TestGitRepo) Tag(t *testing.T, name string, target plumbing.Hash, message string) plumbing.Hash {
	var opts *git.CreateTagOptions
	if message != "" {
		opts = &git.CreateTagOptions{Tagger: nextSignature(), Message: message}
	}
	ref, err := g.Repo.CreateTag(name, target, opts)
	if !assert.NoError(t, err) {
		t.FailNow()
	}
	return ref.Hash()
}

// SetHead points HEAD at branch.
func (g *TestGitRepo) SetHead(t *testing.T, branch string) {
	ref := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(branch))
	if !assert.NoError(t, g.Repo.Storer.SetReference(ref)) {
		t.FailNow()
	}
}

// Head returns the commit branch points at.
func (g *TestGitRepo) Head(t *testing.T, branch string) plumbing.Hash {
	return BranchHash(t, g.Repo, branch)
}

// BranchHash returns the commit a local branch points at.
func BranchHash(t *testing.T, repo *git.Repository, branch string) plumbing.Hash {
	ref, err := repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if !assert.NoError(t, err) {
		t.FailNow()
	}
	return ref.Hash()
}

// CommitWithParents writes a commit with the given parents, a tree holding
// a single file derived from message, and moves branch to it. An empty
// branch leaves the commit unreferenced.
func CommitWithParents(t *testing.T, repo *git.Repository, branch, message string, parents ...plumbing.Hash) plumbing.Hash {
	blob := repo.Storer.NewEncodedObject()
	blob.SetType(plumbing.BlobObject)
	w, err := blob.Writer()
	if !assert.NoError(t, err) {
		t.FailNow()
	}
	_, err = fmt.Fprintf(w, "%s\n", message)
	assert.NoError(t, err)
	assert.NoError(t, w.Close())
	blobHash, err := repo.Storer.SetEncodedObject(blob)
	if !assert.NoError(t, err) {
		t.FailNow()
	}

	tree := &object.Tree{Entries: []object.TreeEntry{
		{Name: "README", Mode: filemode.Regular, Hash: blobHash},
	}}
	treeObj := repo.Storer.NewEncodedObject()
	if !assert.NoError(t, tree.Encode(treeObj)) {
		t.FailNow()
	}
	treeHash, err := repo.Storer.SetEncodedObject(treeObj)
	if !assert.NoError(t, err) {
		t.FailNow()
	}

	sig := nextSignature()
	commit := &object.Commit{
		Author:       *sig,
		Committer:    *sig,
		Message:      message + "\n",
		TreeHash:     treeHash,
		ParentHashes: parents,
	}
	commitObj := repo.Storer.NewEncodedObject()
	if !assert.NoError(t, commit.Encode(commitObj)) {
		t.FailNow()
	}
	commitHash, err := repo.Storer.SetEncodedObject(commitObj)
	if !assert.NoError(t, err) {
		t.FailNow()
	}

	if branch != "" {
		ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(branch), commitHash)
		if !assert.NoError(t, repo.Storer.SetReference(ref)) {
			t.FailNow()
		}
	}
	return commitHash
}

// GetCommit reads a commit from repo.
func GetCommit(t *testing.T, repo *git.Repository, h plumbing.Hash) *object.Commit {
	c, err := repo.CommitObject(h)
	if !assert.NoError(t, err) {
		t.FailNow()
	}
	return c
}

// NewMemRepo returns an in-memory repository with a worktree, HEAD on
// DefaultBranch and no commits.
func NewMemRepo(t *testing.T) *git.Repository {
	repo, err := git.InitWithOptions(memory.NewStorage(), memfs.New(), git.InitOptions{
		DefaultBranch: plumbing.NewBranchReferenceName(DefaultBranch),
	})
	if !assert.NoError(t, err) {
		t.FailNow()
	}
	return repo
}

// NewDiskRepo initializes a non-bare repository in a temp dir.
func NewDiskRepo(t *testing.T) (*git.Repository, string) {
	dir := t.TempDir()
	repo, err := git.PlainInitWithOptions(dir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName(DefaultBranch)},
	})
	if !assert.NoError(t, err) {
		t.FailNow()
	}
	return repo, dir
}

// AddRemote configures a named remote on repo.
func AddRemote(t *testing.T, repo *git.Repository, name, url string) {
	_, err := repo.CreateRemote(&config.RemoteConfig{Name: name, URLs: []string{url}})
	if !assert.NoError(t, err) {
		t.FailNow()
	}
}

// SetTracking makes branch track the same-named branch on remote.
func SetTracking(t *testing.T, repo *git.Repository, branch, remote string) {
	err := repo.CreateBranch(&config.Branch{
		Name:   branch,
		Remote: remote,
		Merge:  plumbing.NewBranchReferenceName(branch),
	})
	if !assert.NoError(t, err) {
		t.FailNow()
	}
}

// SetRef points name at h.
func SetRef(t *testing.T, repo *git.Repository, name plumbing.ReferenceName, h plumbing.Hash) {
	if !assert.NoError(t, repo.Storer.SetReference(plumbing.NewHashReference(name, h))) {
		t.FailNow()
	}
}

// RequireGit skips the test unless a git executable is installed. Fetches
// from local paths run git-upload-pack, and commits made by git itself get
// a fixed identity.
func RequireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git executable not available")
	}
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")
	t.Setenv("GIT_AUTHOR_NAME", "Test User")
	t.Setenv("GIT_AUTHOR_EMAIL", "test@example.com")
	t.Setenv("GIT_COMMITTER_NAME", "Test User")
	t.Setenv("GIT_COMMITTER_EMAIL", "test@example.com")
}

func nextSignature() *object.Signature {
	tick := atomic.AddInt64(&clock, 1)
	return &object.Signature{
		Name:  "Test User",
		Email: "test@example.com",
		When:  time.Unix(1700000000+tick, 0).UTC(),
	}
}
