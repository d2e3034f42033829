// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package main

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/wikicat/wikicat/internal/config"
	"github.com/wikicat/wikicat/internal/secrets"
	wkerr "github.com/wikicat/wikicat/pkg/errors"
)

// app carries the state every subcommand shares. Each root command owns
// its own viper instance so tests can build several side by side.
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	logger *slog.Logger
}

func newApp() *app {
	return &app{v: viper.New(), logger: slog.Default()}
}

// NewRootCmd creates the root wikicat command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	return newRootCmd(newApp())
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "wikicat",
		Short:         "wikicat: versioned DBpedia category graph",
		Long:          "wikicat imports DBpedia category datasets into a relational store, keeps them per release, computes subtree statistics and exports or serves the category graph.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().String("db", "", "sqlite database file (overrides storage.path)")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newFetchCmd(a),
		newImportCmd(a),
		newStatsCmd(a),
		newSubtreeCmd(a),
		newVersionsCmd(a),
		newServeCmd(a),
		newSecretCmd(),
		newDoctorCmd(a),
		newVersionCmd(),
	)

	return root
}

// init loads configuration, resolves keyring references and installs the logger.
func (a *app) init(cmd *cobra.Command) error {
	if err := initViper(cmd, a.v); err != nil {
		return err
	}

	level := slog.LevelInfo
	if a.v.GetBool("verbose") {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(a.logger)

	// An unreadable keyring leaves the reference in place; the component
	// that needs the credential reports the failure.
	if err := secrets.ResolveViper(a.v, secretStoreFactory()); err != nil {
		a.logger.Warn("unresolved keyring references", "error", err)
	}

	cfg, err := config.FromViper(a.v)
	if err != nil {
		return err
	}
	config.WarnInsecurePermissions(a.v.ConfigFileUsed(), cfg)
	a.cfg = cfg
	return nil
}

// initViper sets up v with defaults, env bindings, flag bindings and an
// optional config file so the standard precedence
// (flag > env > file > defaults) is handled uniformly.
func initViper(cmd *cobra.Command, v *viper.Viper) error {
	config.SetDefaults(v)
	config.SetupEnv(v)

	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return wkerr.Errorf(wkerr.CodeConfigLoadReadFailure, "reading config file: %w", err)
		}
	} else {
		// SetConfigType is omitted: with it, viper also tries the bare
		// name, which collides with a ./wikicat binary.
		v.SetConfigName("wikicat")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/wikicat")
		v.AddConfigPath("/etc/wikicat")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return wkerr.Errorf(wkerr.CodeConfigLoadReadFailure, "reading config: %w", err)
			}
			if path := config.BootstrapConfig(); path != "" {
				v.SetConfigFile(path)
				if err := v.ReadInConfig(); err != nil {
					return wkerr.Errorf(wkerr.CodeConfigLoadReadFailure, "reading bootstrapped config: %w", err)
				}
			}
		}
	}

	flags := cmd.Root().PersistentFlags()
	if err := v.BindPFlag("storage.path", flags.Lookup("db")); err != nil {
		return wkerr.Errorf(wkerr.CodeCLISetupFailure, "binding db flag: %w", err)
	}
	if err := v.BindPFlag("verbose", flags.Lookup("verbose")); err != nil {
		return wkerr.Errorf(wkerr.CodeCLISetupFailure, "binding verbose flag: %w", err)
	}

	return nil
}

// bindFlag maps a subcommand flag onto a config key.
func (a *app) bindFlag(cmd *cobra.Command, key, flag string) {
	_ = a.v.BindPFlag(key, cmd.Flags().Lookup(flag))
}
