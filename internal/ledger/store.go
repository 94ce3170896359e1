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
	"fmt"
	"io"
	"sort"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/kptdev/paravendor/internal/errors"
	"github.com/kptdev/paravendor/pkg/manifest"
)

func storeBlob(store storer.EncodedObjectStorer, data []byte) (plumbing.Hash, error) {
	eo := store.NewEncodedObject()
	eo.SetType(plumbing.BlobObject)
	eo.SetSize(int64(len(data)))

	w, err := eo.Writer()
	if err != nil {
		return plumbing.Hash{}, err
	}

	_, err = w.Write(data)
	w.Close()
	if err != nil {
		return plumbing.Hash{}, err
	}
	return store.SetEncodedObject(eo)
}

// storeTree writes base with the entry called name pointing at blob. All
// other entries are kept as they are.
func storeTree(store storer.EncodedObjectStorer, base *object.Tree, name string, blob plumbing.Hash) (plumbing.Hash, error) {
	tree := &object.Tree{}
	if base != nil {
		tree.Entries = append(tree.Entries, base.Entries...)
	}
	setOrAddFileEntry(tree, name, blob)

	entries := tree.Entries
	sort.Slice(entries, func(i, j int) bool {
		return entrySortKey(&entries[i]) < entrySortKey(&entries[j])
	})

	eo := store.NewEncodedObject()
	if err := tree.Encode(eo); err != nil {
		return plumbing.Hash{}, err
	}
	return store.SetEncodedObject(eo)
}

func setOrAddFileEntry(tree *object.Tree, name string, hash plumbing.Hash) {
	te := object.TreeEntry{
		Name: name,
		Mode: filemode.Regular,
		Hash: hash,
	}
	for i := range tree.Entries {
		if tree.Entries[i].Name == name {
			tree.Entries[i] = te
			return
		}
	}
	tree.Entries = append(tree.Entries, te)
}

// Git sorts tree entries as though directories have '/' appended to them.
func entrySortKey(e *object.TreeEntry) string {
	if e.Mode == filemode.Dir {
		return e.Name + "/"
	}
	return e.Name
}

func storeCommit(store storer.EncodedObjectStorer, sig object.Signature, parents []plumbing.Hash, tree plumbing.Hash, message string) (plumbing.Hash, error) {
	commit := &object.Commit{
		Author:       sig,
		Committer:    sig,
		Message:      message,
		TreeHash:     tree,
		ParentHashes: parents,
	}

	eo := store.NewEncodedObject()
	if err := commit.Encode(eo); err != nil {
		return plumbing.Hash{}, err
	}
	return store.SetEncodedObject(eo)
}

// readManifest decodes the manifest stored in c's tree and also returns
// the raw blob contents.
func readManifest(c *object.Commit, name string) (*manifest.Manifest, []byte, error) {
	const op errors.Op = "ledger.readManifest"

	data, err := readManifestBlob(c, name)
	if err != nil {
		return nil, nil, errors.E(op, errors.ManifestParse, err)
	}
	m, err := manifest.Decode(data)
	if err != nil {
		return nil, nil, errors.E(op, err)
	}
	return m, data, nil
}

func readManifestBlob(c *object.Commit, name string) ([]byte, error) {
	tree, err := c.Tree()
	if err != nil {
		return nil, fmt.Errorf("cannot read tree of %s: %w", c.Hash, err)
	}
	entry := findEntry(tree, name)
	if entry == nil || !entry.Mode.IsFile() {
		return nil, fmt.Errorf("paravendor %s not found in %s", name, c.Hash)
	}
	blob, err := tree.TreeEntryFile(entry)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s in %s: %w", name, c.Hash, err)
	}
	r, err := blob.Reader()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func findEntry(tree *object.Tree, name string) *object.TreeEntry {
	for i := range tree.Entries {
		e := &tree.Entries[i]
		if e.Name == name {
			return e
		}
	}
	return nil
}
