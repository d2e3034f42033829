// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package health_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wikicat/wikicat/pkg/health"
)

func TestRun_AllHealthy(t *testing.T) {
	report := health.Run(context.Background(), map[string]health.Check{
		"store": func(context.Context) error { return nil },
		"lock":  func(context.Context) error { return nil },
	}, time.Second)

	assert.True(t, report.Healthy())
	require.Len(t, report.Checks, 2)
	assert.Equal(t, "lock", report.Checks[0].Name)
	assert.Equal(t, "store", report.Checks[1].Name)
}

func TestRun_Degraded(t *testing.T) {
	report := health.Run(context.Background(), map[string]health.Check{
		"store": func(context.Context) error { return nil },
		"redis": func(context.Context) error { return errors.New("connection refused") },
	}, 0)

	assert.Equal(t, health.StatusDegraded, report.Status)
	assert.False(t, report.Checks[0].Healthy)
	assert.Equal(t, "connection refused", report.Checks[0].Error)
	assert.True(t, report.Checks[1].Healthy)
}

func TestRun_Timeout(t *testing.T) {
	report := health.Run(context.Background(), map[string]health.Check{
		"slow": func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}, 10*time.Millisecond)

	assert.False(t, report.Healthy())
	assert.Contains(t, report.Checks[0].Error, "deadline")
}

func TestRun_NoChecks(t *testing.T) {
	report := health.Run(context.Background(), nil, time.Second)
	assert.True(t, report.Healthy())
	assert.Empty(t, report.Checks)
}
