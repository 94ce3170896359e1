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
	"io"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/kptdev/paravendor/internal/errors"
)

// HistoryEntry is one ledger commit.
type HistoryEntry struct {
	Hash plumbing.Hash
	// Summary is the first line of the commit message.
	Summary string
}

// HistoryIter walks the ledger from a tip to the root along first parents.
// It reads commits lazily and can be restarted with Reset.
type HistoryIter struct {
	store storer.EncodedObjectStorer
	start plumbing.Hash
	next  plumbing.Hash
}

// History returns an iterator over the ledger starting at l.Tip.
func (l *Ledger) History() *HistoryIter {
	return &HistoryIter{store: l.repo.Storer, start: l.Tip, next: l.Tip}
}

// Next returns the next entry, or io.EOF once the root has been returned.
func (it *HistoryIter) Next() (HistoryEntry, error) {
	const op errors.Op = "ledger.History"
	if it.next.IsZero() {
		return HistoryEntry{}, io.EOF
	}
	c, err := object.GetCommit(it.store, it.next)
	if err != nil {
		return HistoryEntry{}, errors.E(op, errors.Git, err)
	}
	if len(c.ParentHashes) > 0 {
		it.next = c.ParentHashes[0]
	} else {
		it.next = plumbing.ZeroHash
	}
	return HistoryEntry{Hash: c.Hash, Summary: summary(c.Message)}, nil
}

// Reset restarts the iteration at the tip.
func (it *HistoryIter) Reset() {
	it.next = it.start
}

// ForEach calls fn for every remaining entry. Returning storer.ErrStop from
// fn ends the iteration without error.
func (it *HistoryIter) ForEach(fn func(HistoryEntry) error) error {
	for {
		e, err := it.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(e); err != nil {
			if err == storer.ErrStop {
				return nil
			}
			return err
		}
	}
}

func summary(message string) string {
	line, _, _ := strings.Cut(message, "\n")
	return strings.TrimRight(line, "\r")
}

// Retained returns every commit the ledger already keeps reachable through
// its first-parent chain: the ledger commits and their spliced parents.
func (l *Ledger) Retained() (map[plumbing.Hash]bool, error) {
	const op errors.Op = "ledger.Retained"
	retained := map[plumbing.Hash]bool{}
	for h := l.Tip; !h.IsZero(); {
		c, err := object.GetCommit(l.repo.Storer, h)
		if err != nil {
			return nil, errors.E(op, errors.Git, err)
		}
		retained[h] = true
		h = plumbing.ZeroHash
		for i, p := range c.ParentHashes {
			if i == 0 {
				h = p
				continue
			}
			retained[p] = true
		}
	}
	return retained, nil
}
