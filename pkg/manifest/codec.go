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
	"bytes"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/kptdev/paravendor/internal/errors"
	"github.com/pelletier/go-toml/v2"
)

// Decode parses an encoded manifest. Unknown fields and versions outside
// SupportedVersions are rejected.
func Decode(b []byte) (*Manifest, error) {
	const op errors.Op = "manifest.Decode"

	var m Manifest
	d := toml.NewDecoder(bytes.NewReader(b))
	d.DisallowUnknownFields()
	if err := d.Decode(&m); err != nil {
		return nil, errors.E(op, errors.ManifestParse, err)
	}

	if err := checkVersion(m.Version); err != nil {
		return nil, errors.E(op, errors.ManifestParse, err)
	}

	if m.Dependencies == nil {
		m.Dependencies = map[string]Dependency{}
	}
	for name, dep := range m.Dependencies {
		if dep.Heads == nil {
			dep.Heads = map[string]Head{}
			m.Dependencies[name] = dep
		}
	}
	return &m, nil
}

// Encode serializes the manifest. Map keys are emitted in sorted order, so
// equal manifests always encode to identical bytes.
func Encode(m *Manifest) ([]byte, error) {
	const op errors.Op = "manifest.Encode"

	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(m); err != nil {
		return nil, errors.E(op, errors.Internal, err)
	}
	return buf.Bytes(), nil
}

func checkVersion(v string) error {
	if v == "" {
		return fmt.Errorf("manifest version is missing")
	}
	version, err := semver.NewVersion(v)
	if err != nil {
		return fmt.Errorf("invalid manifest version %q: %w", v, err)
	}
	constraint, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return err
	}
	if !constraint.Check(version) {
		return fmt.Errorf("manifest version %s is not supported (want %s)", v, SupportedVersions)
	}
	return nil
}
