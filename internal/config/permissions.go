// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

//go:build !windows

package config

import (
	"io/fs"
	"log/slog"
	"os"
)

// WarnInsecurePermissions logs a warning when the config file at path holds
// inline credentials and is readable by group or others. Startup continues
// either way.
func WarnInsecurePermissions(path string, cfg *Config) {
	if path == "" || cfg == nil || !cfg.HasInlineSecrets() {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		slog.Debug("could not stat config file for permission check", "path", path, "error", err)
		return
	}

	const groupRead fs.FileMode = 0o040
	const otherRead fs.FileMode = 0o004

	mode := info.Mode()
	if mode.Perm()&(groupRead|otherRead) != 0 {
		slog.Warn("config file with inline credentials has insecure permissions",
			"path", path,
			"mode", mode,
			"recommended", "0600",
		)
	}
}
