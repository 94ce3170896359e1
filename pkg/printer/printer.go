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

// Package printer defines utilities to display paravendor CLI output.
package printer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/kptdev/paravendor/internal/types"
)

// Printer defines capabilities to display content in the paravendor CLI.
// Results of a command (dependency listings, commit ids) go to the out
// stream, everything else (status, progress, warnings) to the err stream.
type Printer interface {
	Printf(format string, args ...interface{})
	OptPrintf(opt *Options, format string, args ...interface{})
	Outf(format string, args ...interface{})
	OutStream() io.Writer
	ErrStream() io.Writer
}

// Options are optional options for printer
type Options struct {
	// Dependency is the name of the dependency the message is about
	Dependency types.DependencyName
	// Ref is the reference of the dependency the message is about
	Ref types.RefName
}

// NewOpt returns a pointer to new options
func NewOpt() *Options {
	return &Options{}
}

// Dep sets the dependency name in options
func (opt *Options) Dep(name types.DependencyName) *Options {
	opt.Dependency = name
	return opt
}

// WithRef sets the reference in options
func (opt *Options) WithRef(ref types.RefName) *Options {
	opt.Ref = ref
	return opt
}

// New returns an instance of Printer.
func New(outStream, errStream io.Writer) Printer {
	if outStream == nil {
		outStream = os.Stdout
	}
	if errStream == nil {
		errStream = os.Stderr
	}
	return &printer{
		outStream: outStream,
		errStream: errStream,
	}
}

// printer implements default Printer to be used in paravendor codebase.
type printer struct {
	outStream io.Writer
	errStream io.Writer
}

type contextKey int

const printerKey contextKey = 0

// OutStream returns the StdOut stream, this can be used by callers to print
// command output to stdout, do not print error/debug logs to this stream
func (pr *printer) OutStream() io.Writer {
	return pr.outStream
}

// ErrStream returns the StdErr stream, this can be used by callers to print
// command output to stderr, print only error/debug/info logs to this stream
func (pr *printer) ErrStream() io.Writer {
	return pr.errStream
}

// Printf is the wrapper over fmt.Printf that displays the output.
// this will print messages to stderr stream
func (pr *printer) Printf(format string, args ...interface{}) {
	fmt.Fprintf(pr.errStream, format, args...)
}

// Outf prints command results to the stdout stream.
func (pr *printer) Outf(format string, args ...interface{}) {
	fmt.Fprintf(pr.outStream, format, args...)
}

// OptPrintf is the wrapper over fmt.Printf that displays the output according
// to the opt, this will print messages to stderr stream
func (pr *printer) OptPrintf(opt *Options, format string, args ...interface{}) {
	if opt == nil {
		fmt.Fprintf(pr.errStream, format, args...)
		return
	}
	prefix := ""
	if !opt.Dependency.Empty() {
		prefix = fmt.Sprintf("Dependency %q", string(opt.Dependency))
		if !opt.Ref.Empty() {
			prefix += fmt.Sprintf(" (%s)", string(opt.Ref))
		}
		prefix += ": "
	}
	fmt.Fprintf(pr.errStream, prefix+format, args...)
}

// FromContextOrDie returns printer instance associated with the context.
func FromContextOrDie(ctx context.Context) Printer {
	pr, ok := ctx.Value(printerKey).(Printer)
	if ok {
		return pr
	}
	panic("printer missing in context")
}

// FromContext returns the printer associated with the context, or a printer
// writing to the os streams when none is set.
func FromContext(ctx context.Context) Printer {
	if pr, ok := ctx.Value(printerKey).(Printer); ok {
		return pr
	}
	return New(nil, nil)
}

// WithContext creates new context from the given parent context
// by setting the printer instance.
func WithContext(ctx context.Context, pr Printer) context.Context {
	return context.WithValue(ctx, printerKey, pr)
}
