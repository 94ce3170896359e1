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

package resolver

import (
	goerrors "errors"
	"fmt"
	"strings"

	"github.com/kptdev/paravendor/internal/errors"
)

//nolint:gochecknoinits
func init() {
	AddErrorResolver(&validationErrorResolver{})
}

// validationErrorResolver is an implementation of the ErrorResolver interface
// to resolve errors from validating user input.
type validationErrorResolver struct{}

func (*validationErrorResolver) Resolve(err error) (ResolvedResult, bool) {
	var validationErr *errors.ValidationError
	if !goerrors.As(err, &validationErr) {
		return ResolvedResult{}, false
	}
	var sb strings.Builder
	sb.WriteString("Error: ")
	sb.WriteString(validationErr.Error())
	for _, v := range validationErr.Violations {
		sb.WriteString("\n  ")
		switch v.Type {
		case errors.Missing:
			sb.WriteString(fmt.Sprintf("%s: value is required", v.Field))
		default:
			sb.WriteString(fmt.Sprintf("%s: %q is invalid", v.Field, v.Value))
		}
		if v.Reason != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", v.Reason))
		}
	}
	return ResolvedResult{
		Message: sb.String(),
	}, true
}
