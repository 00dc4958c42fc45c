// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lorekeep-dev/lorekeep/internal/config"
	lkerr "github.com/lorekeep-dev/lorekeep/pkg/errors"
)

// NewRootCmd creates the root lorekeep command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lorekeep",
		Short:         "Lorekeep — worldbuilding knowledge base",
		Long:          "Lorekeep stores worldbuilding entities and events and finds them by semantic similarity.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initViper(cmd)
		},
	}

	// Global flags — these map to viper keys via initViper.
	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().String("data-dir", "", "path to data directory")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	// Register subcommands
	root.AddCommand(
		newEntityCmd(),
		newEventCmd(),
		newIndexCmd(),
		newSecretCmd(),
		newVersionCmd(),
	)

	return root
}

// initViper sets up the global Viper with defaults, env bindings, flag
// bindings, and optional config file so the standard precedence
// (flag > env > file > defaults) is handled uniformly.
func initViper(cmd *cobra.Command) error {
	v := viper.GetViper()

	config.SetDefaults(v)
	config.SetupEnv(v)

	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return lkerr.Wrapf(err, lkerr.CodeConfigLoadReadFailure, "reading config file")
		}
	} else {
		// Auto-discover lorekeep.yaml from standard locations.
		// Note: SetConfigType is intentionally omitted. When set, Viper
		// falls back to trying the bare config name without extension,
		// which collides with the ./lorekeep binary in the project root.
		v.SetConfigName("lorekeep")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/lorekeep")
		v.AddConfigPath("/etc/lorekeep")
		// No config file is fine — defaults and env vars still apply.
		// Parse or permission errors must surface.
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return lkerr.Wrapf(err, lkerr.CodeConfigLoadReadFailure, "reading config")
			}
			// No config found anywhere — bootstrap a default to ~/.config/lorekeep/.
			if path := config.BootstrapConfig(); path != "" {
				v.SetConfigFile(path)
				if err := v.ReadInConfig(); err != nil {
					return lkerr.Wrapf(err, lkerr.CodeConfigLoadReadFailure, "reading bootstrapped config")
				}
			}
		}
	}

	// Bind persistent flags to viper keys.
	if err := v.BindPFlag("data_dir", cmd.Root().PersistentFlags().Lookup("data-dir")); err != nil {
		return lkerr.Wrapf(err, lkerr.CodeCLISetupFailure, "binding data-dir flag")
	}
	if err := v.BindPFlag("verbose", cmd.Root().PersistentFlags().Lookup("verbose")); err != nil {
		return lkerr.Wrapf(err, lkerr.CodeCLISetupFailure, "binding verbose flag")
	}

	level := slog.LevelInfo
	if v.GetBool("verbose") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	return nil
}
