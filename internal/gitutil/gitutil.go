// Copyright 2019 Google LLC
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

// Package gitutil runs the git executable for the few things paravendor
// hands off to it.
package gitutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/kptdev/paravendor/internal/errors"
)

// NewLocalGitRunner returns a new GitLocalRunner for the repository in dir.
// If gitDir is not empty it is passed to git as --git-dir.
func NewLocalGitRunner(dir, gitDir string) (*GitLocalRunner, error) {
	const op errors.Op = "gitutil.NewLocalGitRunner"
	p, err := exec.LookPath("git")
	if err != nil {
		return nil, errors.E(op, errors.Git, &GitExecError{
			Type: GitExecutableNotFound,
			Err:  fmt.Errorf("no 'git' program on path: %w", err),
		})
	}

	return &GitLocalRunner{
		gitPath: p,
		Dir:     dir,
		GitDir:  gitDir,
	}, nil
}

// GitLocalRunner runs git commands in a local git repo.
type GitLocalRunner struct {
	// Path to the git executable.
	gitPath string

	// Dir is the directory the commands are run in.
	Dir string

	// GitDir overrides the repository location git discovers from Dir.
	GitDir string
}

// RunStreaming runs a git command with its output connected to the given
// writers, so pagers and colors behave as if git had been run directly.
func (g *GitLocalRunner) RunStreaming(ctx context.Context, stdout, stderr io.Writer, args ...string) error {
	return g.run(ctx, stdout, stderr, args...)
}

func (g *GitLocalRunner) run(ctx context.Context, stdout, stderr io.Writer, args ...string) error {
	const op errors.Op = "gitutil.run"
	if len(args) == 0 {
		return errors.E(op, errors.InvalidParam, "no git command given")
	}

	fullArgs := args
	if g.GitDir != "" {
		fullArgs = append([]string{"--git-dir=" + g.GitDir}, args...)
	}

	cmd := exec.CommandContext(ctx, g.gitPath, fullArgs...)
	cmd.Dir = g.Dir
	cmd.Env = os.Environ()
	cmd.Stdin = os.Stdin

	errBuf := &bytes.Buffer{}
	outBuf := &bytes.Buffer{}
	cmd.Stdout = io.MultiWriter(outBuf, stdout)
	cmd.Stderr = io.MultiWriter(errBuf, stderr)

	if err := cmd.Run(); err != nil {
		return errors.E(op, errors.Git, &GitExecError{
			Type:    determineErrorType(errBuf.String()),
			Command: args[0],
			Args:    args[1:],
			Err:     err,
			StdOut:  outBuf.String(),
			StdErr:  errBuf.String(),
		})
	}
	return nil
}
