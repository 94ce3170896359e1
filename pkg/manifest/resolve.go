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

package manifest

import (
	"github.com/kptdev/paravendor/internal/errors"
	"github.com/kptdev/paravendor/internal/types"
)

// candidates returns the reference names tried for a user supplied name,
// in resolution order.
func candidates(name string) []string {
	return []string{
		name,
		"refs/heads/" + name,
		"refs/tags/" + name + "^{}",
		"refs/tags/" + name,
	}
}

// Resolve returns the commit id recorded for name. The name is tried as
// given, then as a branch, then as a peeled tag and finally as a tag.
func (d Dependency) Resolve(name string) (string, error) {
	const op errors.Op = "manifest.Resolve"
	for _, ref := range candidates(name) {
		if h, found := d.Heads[ref]; found {
			return h.Commit, nil
		}
	}
	return "", errors.E(op, errors.ReferenceNotFound, types.RefName(name))
}
