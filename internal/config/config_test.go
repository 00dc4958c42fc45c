// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package config_test

import (
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorekeep-dev/lorekeep/internal/config"
	lkerr "github.com/lorekeep-dev/lorekeep/pkg/errors"
)

func newViper() *viper.Viper {
	v := viper.New()
	config.SetDefaults(v)
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := config.FromViper(newViper())
	require.NoError(t, err)

	assert.Equal(t, "lmstudio", cfg.Index.Provider)
	assert.Equal(t, 10, cfg.Index.TopK)
	assert.Equal(t, "http://127.0.0.1:1234/v1", cfg.Provider("lmstudio").Endpoint)
	assert.NotEmpty(t, cfg.DataDir)
}

func TestFromViper_ExplicitValuesWin(t *testing.T) {
	v := newViper()
	v.Set("data_dir", "/tmp/lorekeep-test")
	v.Set("index.provider", "sentence-transformers")
	v.Set("index.model", "all-mpnet-base-v2")
	v.Set("index.top_k", 3)
	v.Set("index.excluded_attributes", []string{"tags"})

	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/lorekeep-test", cfg.DataDir)
	assert.Equal(t, "sentence-transformers", cfg.Index.Provider)
	assert.Equal(t, "all-mpnet-base-v2", cfg.Index.Model)
	assert.Equal(t, 3, cfg.Index.TopK)
	assert.Equal(t, []string{"tags"}, cfg.Index.ExcludedAttributes)
}

func TestFromViper_RejectsUnknownProvider(t *testing.T) {
	v := newViper()
	v.Set("index.provider", "openai")

	_, err := config.FromViper(v)
	require.Error(t, err)
	assert.True(t, lkerr.HasCode(err, lkerr.CodeConfigValidateInvalidValue))
	assert.Contains(t, err.Error(), "index.provider")
}

func TestFromViper_CollectsAllValidationIssues(t *testing.T) {
	v := newViper()
	v.Set("index.provider", "openai")
	v.Set("index.top_k", 0)

	_, err := config.FromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index.provider")
	assert.Contains(t, err.Error(), "index.top_k")
}

func TestFromViper_LMStudioRequiresEndpoint(t *testing.T) {
	v := newViper()
	v.Set("providers.lmstudio.endpoint", "")

	_, err := config.FromViper(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "providers.lmstudio.endpoint")
}

func TestDatabasePath(t *testing.T) {
	cfg := config.Config{DataDir: "/var/lib/lorekeep"}
	assert.Equal(t, filepath.Join("/var/lib/lorekeep", "world.db"), cfg.DatabasePath())
}

func TestProvider_UnconfiguredIsEmpty(t *testing.T) {
	cfg := config.Config{}
	assert.Equal(t, config.ProviderConfig{}, cfg.Provider("lmstudio"))
}

func TestSetupEnv_OverridesFromEnvironment(t *testing.T) {
	t.Setenv("LOREKEEP_INDEX_TOP_K", "7")

	v := newViper()
	config.SetupEnv(v)

	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Index.TopK)
}
