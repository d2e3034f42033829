// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package main

import (
	"github.com/spf13/cobra"
	"github.com/wikicat/wikicat/internal/server"
	"github.com/wikicat/wikicat/pkg/health"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the category graph over a read-only HTTP API",
		Long:  "Start the browsing API with OpenAPI docs at /docs, Prometheus metrics at /metrics and dependency health at /health.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runServe(cmd)
		},
	}

	cmd.Flags().String("listen", "", "listen address (default: server.listen)")
	a.bindFlag(cmd, "server.listen", "listen")

	return cmd
}

func (a *app) runServe(cmd *cobra.Command) error {
	st, err := a.openStore()
	if err != nil {
		return err
	}
	defer a.closeQuietly("store", st)

	checks := map[string]health.Check{}
	if a.cfg.Lock.Backend == "redis" {
		lb, err := a.openLock()
		if err != nil {
			return err
		}
		defer func() { _ = lb.close() }()
		checks["lock"] = lb.check
	}

	srv, err := server.New(server.Config{
		ListenAddr:  a.cfg.Server.Listen,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		MaxLevels:   a.cfg.Traversal.MaxLevels,
		Checks:      checks,
		Logger:      a.logger,
	}, st)
	if err != nil {
		return err
	}
	return srv.Start(cmd.Context())
}
