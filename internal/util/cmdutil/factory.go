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

package cmdutil

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"github.com/kptdev/paravendor/internal/config"
	"github.com/kptdev/paravendor/internal/errors"
	"github.com/kptdev/paravendor/internal/gitutil"
	"github.com/kptdev/paravendor/pkg/paravendor"
	"github.com/kptdev/paravendor/pkg/printer"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"
)

// Factory opens the repository and builds the engine the commands run
// against. Its fields are bound to the global flags.
type Factory struct {
	// Dir is the directory paravendor runs as if started in.
	Dir string

	// GitDir points at the repository directory directly.
	GitDir string

	// ConfigFile replaces the .paravendor.yaml search.
	ConfigFile string

	// Quiet suppresses fetch progress.
	Quiet bool

	flags *pflag.FlagSet
	repo  *git.Repository
	cfg   *config.Config
}

// NewFactory registers the global flags on flags and returns a Factory
// reading them.
func NewFactory(flags *pflag.FlagSet, gitDirEnv string) *Factory {
	f := &Factory{flags: flags}
	flags.StringVarP(&f.Dir, "directory", "C", "",
		"Run as if paravendor was started in this directory.")
	flags.StringVar(&f.GitDir, "git-dir", gitDirEnv,
		"Path to the repository directory. Defaults to $GIT_DIR.")
	flags.StringVar(&f.ConfigFile, "config", "",
		"Config file. Defaults to .paravendor.yaml in the repository root or $HOME.")
	flags.BoolVarP(&f.Quiet, "quiet", "q", false,
		"Do not report fetch progress.")
	return f
}

func (f *Factory) dir() string {
	if f.Dir == "" {
		return "."
	}
	return f.Dir
}

func (f *Factory) gitDir() string {
	if f.GitDir == "" || filepath.IsAbs(f.GitDir) {
		return f.GitDir
	}
	return filepath.Join(f.dir(), f.GitDir)
}

// Repository opens the repository selected by the flags.
func (f *Factory) Repository() (*git.Repository, error) {
	const op errors.Op = "cmdutil.Repository"
	if f.repo != nil {
		return f.repo, nil
	}

	var repo *git.Repository
	var err error
	if gitDir := f.gitDir(); gitDir != "" {
		st := filesystem.NewStorage(osfs.New(gitDir), cache.NewObjectLRUDefault())
		repo, err = git.Open(st, osfs.New(f.dir()))
	} else {
		repo, err = git.PlainOpenWithOptions(f.dir(), &git.PlainOpenOptions{DetectDotGit: true})
	}
	if err != nil {
		return nil, errors.E(op, errors.Git, fmt.Errorf("%s: %w", f.dir(), err))
	}
	klog.V(2).Infof("opened repository at %s", f.dir())
	f.repo = repo
	return repo, nil
}

// Config loads the configuration, searching the repository root for a
// config file.
func (f *Factory) Config() (config.Config, error) {
	const op errors.Op = "cmdutil.Config"
	if f.cfg != nil {
		return *f.cfg, nil
	}

	var searchDirs []string
	if repo, err := f.Repository(); err == nil {
		if wt, err := repo.Worktree(); err == nil {
			searchDirs = append(searchDirs, wt.Filesystem.Root())
		}
	}

	v := config.New(f.ConfigFile, searchDirs...)
	if f.flags != nil {
		if quiet := f.flags.Lookup("quiet"); quiet != nil {
			if err := v.BindPFlag("quiet", quiet); err != nil {
				return config.Config{}, errors.E(op, errors.Internal, err)
			}
		}
	}
	cfg, err := config.Load(v)
	if err != nil {
		return config.Config{}, errors.E(op, err)
	}
	f.cfg = &cfg
	return cfg, nil
}

// Engine returns an engine for the selected repository. Fetch progress is
// written to the error stream of the printer in ctx unless quiet.
func (f *Factory) Engine(ctx context.Context) (*paravendor.Engine, error) {
	const op errors.Op = "cmdutil.Engine"
	repo, err := f.Repository()
	if err != nil {
		return nil, errors.E(op, err)
	}
	cfg, err := f.Config()
	if err != nil {
		return nil, errors.E(op, err)
	}

	opts := paravendor.Options{
		Ledger:         cfg.LedgerOptions(),
		PruneCacheSize: cfg.Prune.CacheSize,
	}
	if !cfg.Quiet && !f.Quiet {
		opts.Progress = printer.FromContextOrDie(ctx).ErrStream()
	}
	return paravendor.New(repo, opts), nil
}

// GitRunner returns a runner for the git executable pointed at the
// selected repository.
func (f *Factory) GitRunner() (*gitutil.GitLocalRunner, error) {
	return gitutil.NewLocalGitRunner(f.dir(), f.gitDir())
}
