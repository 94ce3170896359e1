// Copyright 2021 The kpt Authors
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

// Package types defines the basic types used by the paravendor codebase.
package types

import "strings"

// DependencyName is the user-chosen identifier of a vendored dependency.
// Names are opaque and case-sensitive.
type DependencyName string

// String returns the name in string format.
func (d DependencyName) String() string {
	return string(d)
}

// Empty returns true if the name is unset.
func (d DependencyName) Empty() bool {
	return len(strings.TrimSpace(string(d))) == 0
}

// RefName is a fully-qualified reference name as advertised by a remote,
// e.g. refs/heads/main, refs/tags/v1^{} or HEAD.
type RefName string

// String returns the reference name in string format.
func (r RefName) String() string {
	return string(r)
}

// Empty returns true if the reference name is unset.
func (r RefName) Empty() bool {
	return len(strings.TrimSpace(string(r))) == 0
}
