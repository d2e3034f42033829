// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package secrets_test

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wikicat/wikicat/internal/secrets"
	wkerr "github.com/wikicat/wikicat/pkg/errors"
	"github.com/zalando/go-keyring"
)

func init() {
	keyring.MockInit()
}

func TestKeyring_SetGetDelete(t *testing.T) {
	ks := secrets.NewKeyring()
	svc := "test-set-get"

	require.NoError(t, ks.Set(svc, "postgres-dsn", "postgres://u:p@db/wikicat"))

	val, err := ks.Get(svc, "postgres-dsn")
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db/wikicat", val)

	require.NoError(t, ks.Delete(svc, "postgres-dsn"))

	_, err = ks.Get(svc, "postgres-dsn")
	require.Error(t, err)
	assert.True(t, wkerr.HasCode(err, wkerr.CodeSecretNotFound))
	assert.True(t, wkerr.IsNotFound(err))
}

func TestKeyring_MissingKey(t *testing.T) {
	ks := secrets.NewKeyring()

	_, err := ks.Get("no-such-service", "nothing")
	assert.True(t, wkerr.HasCode(err, wkerr.CodeSecretNotFound))

	err = ks.Delete("no-such-service", "nothing")
	assert.True(t, wkerr.HasCode(err, wkerr.CodeSecretNotFound))
}

func TestKeyring_EmptyNames(t *testing.T) {
	ks := secrets.NewKeyring()

	err := ks.Set("", "k", "v")
	assert.True(t, wkerr.IsInvalidInput(err))

	_, err = ks.Get("svc", "")
	assert.True(t, wkerr.IsInvalidInput(err))

	_, err = ks.List("")
	assert.True(t, wkerr.IsInvalidInput(err))
}

func TestKeyring_List(t *testing.T) {
	ks := secrets.NewKeyring()
	svc := "test-list"

	keys, err := ks.List(svc)
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, ks.Set(svc, "redis", "r"))
	require.NoError(t, ks.Set(svc, "postgres", "p"))
	require.NoError(t, ks.Set(svc, "redis", "r2"))

	keys, err = ks.List(svc)
	require.NoError(t, err)
	assert.Equal(t, []string{"postgres", "redis"}, keys)

	require.NoError(t, ks.Delete(svc, "redis"))
	require.NoError(t, ks.Delete(svc, "postgres"))

	keys, err = ks.List(svc)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestParseKeyringURI(t *testing.T) {
	tests := []struct {
		name        string
		uri         string
		wantService string
		wantKey     string
		wantErr     bool
	}{
		{"plain", "keyring://wikicat/redis", "wikicat", "redis", false},
		{"nested key", "keyring://wikicat/pg/prod", "wikicat", "pg/prod", false},
		{"other scheme", "vault://wikicat/redis", "", "", true},
		{"missing key", "keyring://wikicat/", "", "", true},
		{"missing service", "keyring:///redis", "", "", true},
		{"no path", "keyring://wikicat", "", "", true},
		{"scheme only", "keyring://", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, key, err := secrets.ParseKeyringURI(tt.uri)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, wkerr.HasCode(err, wkerr.CodeSecretInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantService, svc)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}

func TestResolve(t *testing.T) {
	ks := secrets.NewKeyring()
	require.NoError(t, ks.Set("wikicat", "resolve-key", "hunter2"))

	val, err := secrets.Resolve(ks, "keyring://wikicat/resolve-key")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", val)

	val, err = secrets.Resolve(ks, "plain-value")
	require.NoError(t, err)
	assert.Equal(t, "plain-value", val)

	_, err = secrets.Resolve(ks, "keyring://wikicat/absent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keyring://wikicat/absent")
}

func TestResolveViper(t *testing.T) {
	ks := secrets.NewKeyring()
	require.NoError(t, ks.Set("wikicat", "viper-dsn", "postgres://db/wikicat"))

	v := viper.New()
	v.Set("storage.dsn", "keyring://wikicat/viper-dsn")
	v.Set("storage.backend", "postgres")
	v.Set("import.batch_size", 100)

	require.NoError(t, secrets.ResolveViper(v, ks))
	assert.Equal(t, "postgres://db/wikicat", v.GetString("storage.dsn"))
	assert.Equal(t, "postgres", v.GetString("storage.backend"))
	assert.Equal(t, 100, v.GetInt("import.batch_size"))
}

func TestResolveViper_ReportsEveryFailure(t *testing.T) {
	v := viper.New()
	v.Set("storage.dsn", "keyring://wikicat/missing-dsn")
	v.Set("lock.redis_password", "keyring://wikicat/missing-redis")

	err := secrets.ResolveViper(v, secrets.NewKeyring())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing-dsn")
	assert.Contains(t, err.Error(), "missing-redis")
	assert.Equal(t, "keyring://wikicat/missing-dsn", v.GetString("storage.dsn"))
}
