// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	lkerr "github.com/lorekeep-dev/lorekeep/pkg/errors"
)

// Config is the top-level Lorekeep configuration.
type Config struct {
	DataDir   string                    `mapstructure:"data_dir"`
	Verbose   bool                      `mapstructure:"verbose"`
	Index     IndexConfig               `mapstructure:"index"`
	Providers map[string]ProviderConfig `mapstructure:"providers"`
}

// IndexConfig controls semantic index defaults. Every field can be
// overridden per CLI invocation.
type IndexConfig struct {
	Provider           string   `mapstructure:"provider"`
	Model              string   `mapstructure:"model"`
	TopK               int      `mapstructure:"top_k"`
	ExcludedAttributes []string `mapstructure:"excluded_attributes"`
}

// ProviderConfig holds endpoint and credential for one embedding backend.
// APIKey may be a plain value or a keyring://service/key URI.
type ProviderConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
}

// SetDefaults installs configuration defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("index.provider", "lmstudio")
	v.SetDefault("index.top_k", 10)
	v.SetDefault("providers.lmstudio.endpoint", "http://127.0.0.1:1234/v1")
}

// SetupEnv binds environment variable overrides (prefix LOREKEEP_).
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix("LOREKEEP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// FromViper unmarshals and validates the configuration carried by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, lkerr.Wrapf(err, lkerr.CodeConfigValidateInvalidValue, "unmarshalling config")
	}

	if cfg.DataDir == "" {
		dir, err := DefaultDataDir()
		if err != nil {
			return nil, err
		}
		cfg.DataDir = dir
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, lkerr.Wrapf(errors.Join(errs...), lkerr.CodeConfigValidateInvalidValue, "validating config")
	}

	return &cfg, nil
}

// DefaultDataDir returns ~/.local/share/lorekeep.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", lkerr.Wrapf(err, lkerr.CodeConfigLoadReadFailure, "resolving home directory")
	}
	return filepath.Join(home, ".local", "share", "lorekeep"), nil
}

// DatabasePath returns the world database file under the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "world.db")
}

// Provider returns the configuration block for the named backend, empty if
// none was configured.
func (c *Config) Provider(name string) ProviderConfig {
	return c.Providers[name]
}

// Validate checks the configuration for logical errors, collecting all
// issues rather than stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	validProviders := map[string]bool{"lmstudio": true, "sentence-transformers": true}
	if !validProviders[c.Index.Provider] {
		errs = append(errs, lkerr.Errorf(lkerr.CodeConfigValidateInvalidValue,
			"config: index.provider must be one of [lmstudio, sentence-transformers], got %q",
			c.Index.Provider,
		))
	}

	if c.Index.TopK <= 0 {
		errs = append(errs, lkerr.Errorf(lkerr.CodeConfigValidateInvalidValue,
			"config: index.top_k must be greater than 0, got %d",
			c.Index.TopK,
		))
	}

	if c.Index.Provider == "lmstudio" && c.Provider("lmstudio").Endpoint == "" {
		errs = append(errs, lkerr.Errorf(lkerr.CodeConfigValidateInvalidValue,
			"config: providers.lmstudio.endpoint must not be empty when index.provider is lmstudio",
		))
	}

	return errs
}
