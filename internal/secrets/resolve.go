// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package secrets

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
	wkerr "github.com/wikicat/wikicat/pkg/errors"
)

const scheme = "keyring://"

// IsKeyringURI reports whether value is a keyring:// reference.
func IsKeyringURI(value string) bool {
	return strings.HasPrefix(value, scheme)
}

// ParseKeyringURI splits keyring://service/key. The key may contain slashes.
func ParseKeyringURI(uri string) (service, key string, err error) {
	if !IsKeyringURI(uri) {
		return "", "", wkerr.Errorf(wkerr.CodeSecretInvalidInput, "not a keyring URI: %q", uri)
	}

	service, key, ok := strings.Cut(strings.TrimPrefix(uri, scheme), "/")
	if !ok || service == "" || key == "" {
		return "", "", wkerr.Errorf(wkerr.CodeSecretInvalidInput,
			"invalid keyring URI %q: expected keyring://service/key", uri)
	}
	return service, key, nil
}

// Resolve returns the secret a keyring:// value refers to. Other values are
// returned unchanged.
func Resolve(s Store, value string) (string, error) {
	if !IsKeyringURI(value) {
		return value, nil
	}

	service, key, err := ParseKeyringURI(value)
	if err != nil {
		return "", err
	}
	secret, err := s.Get(service, key)
	if err != nil {
		return "", wkerr.Wrapf(err, wkerr.CodeSecretResolveFailure, "resolving %q", value)
	}
	return secret, nil
}

// ResolveViper replaces every keyring:// string in v with its secret.
// All keys are attempted; the failures are returned joined.
func ResolveViper(v *viper.Viper, s Store) error {
	var errs []error
	for _, key := range v.AllKeys() {
		val, ok := v.Get(key).(string)
		if !ok || !IsKeyringURI(val) {
			continue
		}
		secret, err := Resolve(s, val)
		if err != nil {
			errs = append(errs, wkerr.With(err, wkerr.Field("config_key", key)))
			continue
		}
		v.Set(key, secret)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
