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

// Package config loads paravendor settings from flags, PARAVENDOR_*
// environment variables and an optional .paravendor.yaml file.
package config

import (
	goerrors "errors"
	"os"
	"strings"

	"github.com/google/shlex"
	"github.com/kptdev/paravendor/internal/errors"
	"github.com/kptdev/paravendor/internal/ledger"
	"github.com/kptdev/paravendor/internal/prune"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment variable read by paravendor.
	EnvPrefix = "PARAVENDOR"

	// FileName is the base name of the optional config file.
	FileName = ".paravendor"
)

// AuthorConfig overrides the identity recorded on ledger commits.
type AuthorConfig struct {
	Name  string `mapstructure:"name"`
	Email string `mapstructure:"email"`
}

// LogConfig holds settings for the log command.
type LogConfig struct {
	// Options is a shell-quoted string of extra `git log` arguments.
	Options string `mapstructure:"options"`
}

// PruneConfig holds settings for the ancestry pruner.
type PruneConfig struct {
	CacheSize int `mapstructure:"cache_size"`
}

// Config holds all runtime configuration for a paravendor invocation.
type Config struct {
	Branch       string       `mapstructure:"branch"`
	ManifestFile string       `mapstructure:"manifest_file"`
	Author       AuthorConfig `mapstructure:"author"`
	Quiet        bool         `mapstructure:"quiet"`
	Log          LogConfig    `mapstructure:"log"`
	Prune        PruneConfig  `mapstructure:"prune"`
}

// New returns a viper instance wired to the environment and the config
// file search path. configFile, when set, replaces the search.
func New(configFile string, searchDirs ...string) *viper.Viper {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		for _, dir := range searchDirs {
			if dir != "" {
				v.AddConfigPath(dir)
			}
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("branch", ledger.DefaultBranch)
	v.SetDefault("manifest_file", ledger.DefaultManifestFile)
	v.SetDefault("author.name", "")
	v.SetDefault("author.email", "")
	v.SetDefault("quiet", false)
	v.SetDefault("log.options", "")
	v.SetDefault("prune.cache_size", prune.DefaultCacheSize)
}

// Load reads the config file, if any, and returns the merged
// configuration. A missing config file is not an error unless it was
// named explicitly.
func Load(v *viper.Viper) (Config, error) {
	const op errors.Op = "config.Load"
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !goerrors.As(err, &notFound) {
			return Config{}, errors.E(op, errors.InvalidParam, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.E(op, errors.InvalidParam, err)
	}
	if cfg.Prune.CacheSize < 0 {
		return Config{}, errors.E(op, errors.InvalidParam, &errors.ValidationError{
			Violations: errors.Violations{{
				Field:  "prune.cache_size",
				Value:  v.GetString("prune.cache_size"),
				Type:   errors.Invalid,
				Reason: "must not be negative",
			}},
		})
	}
	return cfg, nil
}

// LedgerOptions maps the configuration onto the ledger settings.
func (c Config) LedgerOptions() ledger.Options {
	return ledger.Options{
		Branch:       c.Branch,
		ManifestFile: c.ManifestFile,
		AuthorName:   c.Author.Name,
		AuthorEmail:  c.Author.Email,
	}
}

// LogArgs splits the configured log options the way a shell would.
func (c Config) LogArgs() ([]string, error) {
	const op errors.Op = "config.LogArgs"
	if strings.TrimSpace(c.Log.Options) == "" {
		return nil, nil
	}
	args, err := shlex.Split(c.Log.Options)
	if err != nil {
		return nil, errors.E(op, errors.InvalidParam, err)
	}
	return args, nil
}
