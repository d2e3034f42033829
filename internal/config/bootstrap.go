// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package config

import (
	_ "embed"
	"log/slog"
	"os"
	"path/filepath"

	wkerr "github.com/wikicat/wikicat/pkg/errors"
)

//go:embed wikicat.yaml.default
var DefaultConfigYAML []byte

// DefaultConfigPath returns ~/.config/wikicat/wikicat.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", wkerr.Errorf(wkerr.CodeConfigLoadReadFailure, "resolving home directory: %w", err)
	}
	return filepath.Join(home, ".config", "wikicat", "wikicat.yaml"), nil
}

// BootstrapConfig writes the default commented config to the default path
// if nothing is there yet. It returns the path written, or "" when the file
// already existed or could not be written (logged at debug, not fatal).
func BootstrapConfig() string {
	cfgPath, err := DefaultConfigPath()
	if err != nil {
		slog.Debug("skipping config bootstrap", "error", err)
		return ""
	}
	return WriteDefault(cfgPath)
}

// WriteDefault writes DefaultConfigYAML to path unless a file exists there.
func WriteDefault(path string) string {
	if _, err := os.Stat(path); err == nil {
		return ""
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		slog.Debug("skipping config bootstrap: cannot create directory", "path", dir, "error", err)
		return ""
	}

	if err := os.WriteFile(path, DefaultConfigYAML, 0o600); err != nil {
		slog.Debug("skipping config bootstrap: cannot write config", "path", path, "error", err)
		return ""
	}

	slog.Info("created default config", "path", path)
	return path
}
