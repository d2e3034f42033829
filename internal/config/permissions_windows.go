// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

//go:build windows

package config

import "log/slog"

// WarnInsecurePermissions is a no-op on Windows, where files carry ACLs
// instead of mode bits.
func WarnInsecurePermissions(path string, _ *Config) {
	if path != "" {
		slog.Debug("config permission check not implemented on Windows", "path", path)
	}
}
