// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lorekeep-dev/lorekeep/internal/compose"
	"github.com/lorekeep-dev/lorekeep/internal/config"
	"github.com/lorekeep-dev/lorekeep/internal/index"
	"github.com/lorekeep-dev/lorekeep/internal/provider"
	_ "github.com/lorekeep-dev/lorekeep/internal/provider/lmstudio"             // register lmstudio backend
	_ "github.com/lorekeep-dev/lorekeep/internal/provider/sentencetransformers" // register local backend
	"github.com/lorekeep-dev/lorekeep/internal/secrets"
	"github.com/lorekeep-dev/lorekeep/internal/store/sqlite"
	lkerr "github.com/lorekeep-dev/lorekeep/pkg/errors"
)

// app holds the wired subsystems for one command invocation.
type app struct {
	cfg     *config.Config
	store   *sqlite.Store
	manager *index.Manager
	query   *index.QueryEngine
}

// openApp resolves config (including keyring secrets), opens the world
// database, and wires the index components over it.
func openApp() (*app, error) {
	v := viper.GetViper()
	secrets.ResolveViperSecrets(v, secretStoreFactory())

	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, lkerr.Wrapf(err, lkerr.CodeCLISetupFailure, "creating data directory")
	}

	st, err := sqlite.Open(cfg.DatabasePath())
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:     cfg,
		store:   st,
		manager: index.NewManager(st, st),
		query:   index.NewQueryEngine(st),
	}, nil
}

// Close releases the world database.
func (a *app) Close() error {
	return a.store.Close()
}

// embedder builds the embedding backend for this invocation: --provider and
// --model flags override the configured defaults; endpoint and credential
// always come from the matching providers block.
func (a *app) embedder(cmd *cobra.Command) (provider.Embedder, error) {
	name := a.cfg.Index.Provider
	if cmd.Flags().Changed("provider") {
		name, _ = cmd.Flags().GetString("provider")
	}

	pc := a.cfg.Provider(name)

	model := pc.Model
	if a.cfg.Index.Model != "" {
		model = a.cfg.Index.Model
	}
	if cmd.Flags().Changed("model") {
		model, _ = cmd.Flags().GetString("model")
	}

	return provider.New(provider.Config{
		Provider: name,
		Model:    model,
		Endpoint: pc.Endpoint,
		APIKey:   pc.APIKey,
	})
}

// indexOptions reads the attribute exclusion set: the flag wins when set,
// otherwise the configured default applies.
func (a *app) indexOptions(cmd *cobra.Command) index.Options {
	if cmd.Flags().Changed("excluded-attributes") {
		csv, _ := cmd.Flags().GetString("excluded-attributes")
		return index.Options{Excluded: compose.ExclusionSet(csv)}
	}

	if len(a.cfg.Index.ExcludedAttributes) == 0 {
		return index.Options{}
	}
	set := make(map[string]bool, len(a.cfg.Index.ExcludedAttributes))
	for _, name := range a.cfg.Index.ExcludedAttributes {
		set[name] = true
	}
	return index.Options{Excluded: set}
}
