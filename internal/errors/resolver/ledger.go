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

package resolver

import (
	goerrors "errors"

	"github.com/kptdev/paravendor/internal/errors"
)

//nolint:gochecknoinits
func init() {
	AddErrorResolver(&ledgerErrorResolver{})
}

const (
	notInitializedMsg = `
Error: paravendor is not initialized, run ` + "`git paravendor init`" + `
`

	alreadyInitializedMsg = `
Error: The ledger branch already exists. Nothing to initialize.
`

	duplicateDependencyMsg = `
Error: Dependency {{ printf "%q" .dep }} is already vendored. Use ` + "`git paravendor sync`" + ` to update it.
`

	dependencyNotFoundMsg = `
Error: Dependency {{ printf "%q" .dep }} is not vendored. Use ` + "`git paravendor list`" + ` to see recorded dependencies.
`

	referenceNotFoundMsg = `
Error: Reference {{ printf "%q" .ref }} is not recorded for dependency {{ printf "%q" .dep }}. Use ` + "`git paravendor show-refs`" + ` to see recorded references.
`

	manifestParseMsg = `
Error: The paravendor manifest is malformed or uses an unsupported version.

{{- template "NestedErrDetails" . }}
`

	networkFetchMsg = `
Error: Unable to fetch
{{- if gt (len .dep) 0 }} dependency {{ printf "%q" .dep }}{{ end }}. The ledger was not modified.

{{- template "NestedErrDetails" . }}
`

	storageWriteMsg = `
Error: Unable to write to the repository object store. The ledger was not modified.

{{- template "NestedErrDetails" . }}
`

	ledgerConflictMsg = `
Error: The ledger branch was changed by another process. Please re-run the command.
`
)

// ledgerErrorResolver is an implementation of the ErrorResolver interface
// that produces messages for the ledger error kinds.
type ledgerErrorResolver struct{}

func (*ledgerErrorResolver) Resolve(err error) (ResolvedResult, bool) {
	var e *errors.Error
	if !goerrors.As(err, &e) {
		return ResolvedResult{}, false
	}

	var tmpl string
	switch errors.KindOf(err) {
	case errors.NotInitialized:
		tmpl = notInitializedMsg
	case errors.AlreadyInitialized:
		tmpl = alreadyInitializedMsg
	case errors.DuplicateDependency:
		tmpl = duplicateDependencyMsg
	case errors.DependencyNotFound:
		tmpl = dependencyNotFoundMsg
	case errors.ReferenceNotFound:
		tmpl = referenceNotFoundMsg
	case errors.ManifestParse:
		tmpl = manifestParseMsg
	case errors.NetworkFetch:
		tmpl = networkFetchMsg
	case errors.StorageWrite:
		tmpl = storageWriteMsg
	case errors.LedgerConflict:
		tmpl = ledgerConflictMsg
	default:
		return ResolvedResult{}, false
	}

	tmplArgs := map[string]interface{}{
		"dep":     string(errors.DependencyOf(err)),
		"ref":     string(errors.RefOf(err)),
		"details": rootCause(err),
	}
	return ResolvedResult{
		Message: ExecuteTemplate(tmpl, tmplArgs),
	}, true
}

// rootCause returns the message of the innermost error that is not an
// *errors.Error.
func rootCause(err error) string {
	for err != nil {
		e, ok := err.(*errors.Error)
		if !ok {
			return err.Error()
		}
		err = e.Err
	}
	return ""
}
