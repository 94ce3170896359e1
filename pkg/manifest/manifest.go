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

// Package manifest defines the document recorded on the ledger branch: the
// vendored dependencies, where they come from and which references their
// remotes advertised when they were last synced.
package manifest

import (
	"sort"
	"strings"

	"github.com/kptdev/paravendor/internal/errors"
	"github.com/kptdev/paravendor/internal/types"
)

const (
	// CurrentVersion is the schema version written by this release.
	CurrentVersion = "1.1"

	// SupportedVersions is the semver constraint a decoded manifest
	// version must satisfy.
	SupportedVersions = "^1.0"
)

// Manifest is the root document stored as a single blob in every ledger
// commit.
type Manifest struct {
	Version      string                `toml:"version"`
	Dependencies map[string]Dependency `toml:"dependencies"`
}

// Dependency is a vendored repository.
type Dependency struct {
	URL string `toml:"url"`
	// Heads maps fully qualified reference names, as advertised by the
	// remote, to the commit they pointed at. It is replaced wholesale on
	// every sync.
	Heads map[string]Head `toml:"heads"`
}

// Head is the commit a reference pointed at.
type Head struct {
	Commit string `toml:"commit"`
}

// New returns an empty manifest at the current schema version.
func New() *Manifest {
	return &Manifest{
		Version:      CurrentVersion,
		Dependencies: map[string]Dependency{},
	}
}

// Has reports whether a dependency with the given name is recorded.
func (m *Manifest) Has(name string) bool {
	_, found := m.Dependencies[name]
	return found
}

// Get returns the named dependency or a DependencyNotFound error.
func (m *Manifest) Get(name string) (Dependency, error) {
	const op errors.Op = "manifest.Get"
	dep, found := m.Dependencies[name]
	if !found {
		return Dependency{}, errors.E(op, errors.DependencyNotFound, types.DependencyName(name))
	}
	return dep, nil
}

// Set records dep under name, replacing whatever was there.
func (m *Manifest) Set(name string, dep Dependency) {
	if m.Dependencies == nil {
		m.Dependencies = map[string]Dependency{}
	}
	m.Dependencies[name] = dep
}

// DependencyNames returns the recorded dependency names in sorted order.
func (m *Manifest) DependencyNames() []string {
	names := make([]string, 0, len(m.Dependencies))
	for name := range m.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of the manifest.
func (m *Manifest) Clone() *Manifest {
	c := &Manifest{
		Version:      m.Version,
		Dependencies: make(map[string]Dependency, len(m.Dependencies)),
	}
	for name, dep := range m.Dependencies {
		c.Dependencies[name] = dep.Clone()
	}
	return c
}

// Clone returns a deep copy of the dependency.
func (d Dependency) Clone() Dependency {
	heads := make(map[string]Head, len(d.Heads))
	for ref, h := range d.Heads {
		heads[ref] = h
	}
	return Dependency{URL: d.URL, Heads: heads}
}

// RefNames returns the recorded reference names in sorted order.
func (d Dependency) RefNames() []string {
	refs := make([]string, 0, len(d.Heads))
	for ref := range d.Heads {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

// HeadsEqual reports whether two dependencies record the same heads.
func (d Dependency) HeadsEqual(other Dependency) bool {
	if len(d.Heads) != len(other.Heads) {
		return false
	}
	for ref, h := range d.Heads {
		o, found := other.Heads[ref]
		if !found || o != h {
			return false
		}
	}
	return true
}

// HeadsFromRefs builds a heads mapping from a reference name to commit id
// mapping.
func HeadsFromRefs(refs map[string]string) map[string]Head {
	heads := make(map[string]Head, len(refs))
	for ref, commit := range refs {
		heads[ref] = Head{Commit: commit}
	}
	return heads
}

// ValidateDependency checks user supplied input for a new dependency.
func ValidateDependency(name, url string) error {
	var violations errors.Violations
	if strings.TrimSpace(name) == "" {
		violations = append(violations, errors.Violation{
			Field:  "name",
			Value:  name,
			Type:   errors.Missing,
			Reason: "dependency name must not be empty",
		})
	} else if strings.ContainsAny(name, "\n\r") {
		violations = append(violations, errors.Violation{
			Field:  "name",
			Value:  name,
			Type:   errors.Invalid,
			Reason: "dependency name must be a single line",
		})
	}
	if strings.TrimSpace(url) == "" {
		violations = append(violations, errors.Violation{
			Field:  "url",
			Value:  url,
			Type:   errors.Missing,
			Reason: "dependency url must not be empty",
		})
	}
	if len(violations) == 0 {
		return nil
	}
	return &errors.ValidationError{Violations: violations}
}
