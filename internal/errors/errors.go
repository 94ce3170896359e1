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

// Package errors defines the error handling used by the paravendor codebase.
package errors

import (
	goerrors "errors"
	"fmt"
	"strings"

	"github.com/kptdev/paravendor/internal/types"
)

// Error is an implementation of the error interface used in the paravendor
// codebase.
// It is based on the design in https://commandcenter.blogspot.com/2017/12/error-handling-in-upspin.html
type Error struct {
	// Dependency is the name of the vendored dependency involved in the operation.
	Dependency types.DependencyName

	// Ref is the reference involved in the operation, if any.
	Ref types.RefName

	// Op is the operation being performed, for ex. ledger.Update, remote.Fetch
	Op Op

	// Kind refers to classs of errors
	Kind Kind

	// Err refers to wrapped error (if any)
	Err error
}

func (e *Error) Error() string {
	b := new(strings.Builder)

	if e.Op != "" {
		pad(b, ": ")
		b.WriteString(string(e.Op))
	}

	if e.Dependency != "" {
		pad(b, ": ")
		b.WriteString("dependency ")
		b.WriteString(string(e.Dependency))
	}

	if e.Ref != "" {
		pad(b, ": ")
		b.WriteString("ref ")
		b.WriteString(string(e.Ref))
	}

	if e.Kind != 0 {
		pad(b, ": ")
		b.WriteString(e.Kind.String())
	}

	if e.Err != nil {
		if wrappedErr, ok := e.Err.(*Error); ok {
			if !wrappedErr.Zero() {
				pad(b, ":\n\t")
				b.WriteString(wrappedErr.Error())
			}
		} else {
			pad(b, ": ")
			b.WriteString(e.Err.Error())
		}
	}
	if b.Len() == 0 {
		return "no error"
	}
	return b.String()
}

// Unwrap returns the wrapped error so the standard library helpers can
// inspect the chain.
func (e *Error) Unwrap() error {
	return e.Err
}

// pad appends given str to the string buffer.
func pad(b *strings.Builder, str string) {
	if b.Len() == 0 {
		return
	}
	b.WriteString(str)
}

func (e *Error) Zero() bool {
	return e.Op == "" && e.Dependency == "" && e.Ref == "" && e.Kind == 0 && e.Err == nil
}

// Op describes the operation being performed.
type Op string

// Kind describes the class of errors encountered.
type Kind int

const (
	Other               Kind = iota // Unclassified. Will not be printed.
	Exist                           // Item already exists.
	Internal                        // Internal error.
	InvalidParam                    // Value is not valid.
	MissingParam                    // Required value is missing or empty.
	Git                             // Errors from Git
	NotInitialized                  // Ledger branch does not exist.
	AlreadyInitialized              // Ledger branch already exists.
	DuplicateDependency             // Dependency name already recorded.
	DependencyNotFound              // Dependency name not recorded.
	ReferenceNotFound               // Reference not recorded for a dependency.
	ManifestParse                   // Manifest blob is malformed or incompatible.
	NetworkFetch                    // Remote could not be fetched.
	StorageWrite                    // Object or reference write failed.
	LedgerConflict                  // Ledger branch moved underneath us.
)

func (k Kind) String() string {
	switch k {
	case Other:
		return "other error"
	case Exist:
		return "item already exist"
	case Internal:
		return "internal error"
	case InvalidParam:
		return "invalid parameter value"
	case MissingParam:
		return "missing parameter value"
	case Git:
		return "git error"
	case NotInitialized:
		return "ledger not initialized"
	case AlreadyInitialized:
		return "ledger already initialized"
	case DuplicateDependency:
		return "dependency already exists"
	case DependencyNotFound:
		return "dependency not found"
	case ReferenceNotFound:
		return "reference not found"
	case ManifestParse:
		return "malformed manifest"
	case NetworkFetch:
		return "fetch failed"
	case StorageWrite:
		return "storage write failed"
	case LedgerConflict:
		return "ledger branch changed concurrently"
	}
	return "unknown kind"
}

func E(args ...interface{}) error {
	if len(args) == 0 {
		panic("errors.E must have at least one argument")
	}

	e := &Error{}
	for _, arg := range args {
		switch a := arg.(type) {
		case types.DependencyName:
			e.Dependency = a
		case types.RefName:
			e.Ref = a
		case Op:
			e.Op = a
		case Kind:
			e.Kind = a
		case *Error:
			cp := *a
			e.Err = &cp
		case error:
			e.Err = a
		case string:
			e.Err = goerrors.New(a)
		default:
			panic(fmt.Errorf("unknown type %T for value %v in call to error.E", a, a))
		}
	}

	wrappedErr, ok := e.Err.(*Error)
	if !ok {
		return e
	}

	if e.Dependency == wrappedErr.Dependency {
		wrappedErr.Dependency = ""
	}

	if e.Ref == wrappedErr.Ref {
		wrappedErr.Ref = ""
	}

	if e.Op == wrappedErr.Op {
		wrappedErr.Op = ""
	}

	if e.Kind == wrappedErr.Kind {
		wrappedErr.Kind = 0
	}

	return e
}

// Is reports whether err, or any *Error wrapped by it, is of the given kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !goerrors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}

// KindOf returns the first non-zero kind found in the error chain, or Other.
func KindOf(err error) Kind {
	for err != nil {
		var e *Error
		if !goerrors.As(err, &e) {
			return Other
		}
		if e.Kind != Other {
			return e.Kind
		}
		err = e.Err
	}
	return Other
}

// DependencyOf returns the first dependency name found in the error chain.
func DependencyOf(err error) types.DependencyName {
	for err != nil {
		var e *Error
		if !goerrors.As(err, &e) {
			return ""
		}
		if e.Dependency != "" {
			return e.Dependency
		}
		err = e.Err
	}
	return ""
}

// RefOf returns the first reference name found in the error chain.
func RefOf(err error) types.RefName {
	for err != nil {
		var e *Error
		if !goerrors.As(err, &e) {
			return ""
		}
		if e.Ref != "" {
			return e.Ref
		}
		err = e.Err
	}
	return ""
}

// As is a passthrough to the standard library so callers only need to
// import this package.
func As(err error, target interface{}) bool {
	return goerrors.As(err, target)
}
