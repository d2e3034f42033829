// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package secrets

import (
	"encoding/json"
	"errors"
	"log/slog"
	"slices"

	wkerr "github.com/wikicat/wikicat/pkg/errors"
	"github.com/zalando/go-keyring"
)

// indexSuffix names the entry holding the JSON list of a service's keys.
// The OS keyrings behind go-keyring cannot enumerate entries.
const indexSuffix = "::index"

// Keyring is a Store backed by the OS keyring (Keychain, Secret Service
// or Windows Credential Manager).
type Keyring struct{}

var _ Store = Keyring{}

func NewKeyring() Keyring {
	return Keyring{}
}

func checkNames(op, service, key string) error {
	if service == "" {
		return wkerr.Errorf(wkerr.CodeSecretInvalidInput, "secret %s: service must not be empty", op)
	}
	if key == "" {
		return wkerr.Errorf(wkerr.CodeSecretInvalidInput, "secret %s: key must not be empty", op)
	}
	return nil
}

func (Keyring) Set(service, key, value string) error {
	if err := checkNames("set", service, key); err != nil {
		return err
	}
	if err := keyring.Set(service, key, value); err != nil {
		return wkerr.Wrapf(err, wkerr.CodeSecretStoreFailure, "storing secret %s/%s", service, key)
	}

	keys, err := loadIndex(service)
	if err != nil {
		return err
	}
	if slices.Contains(keys, key) {
		return nil
	}
	return saveIndex(service, append(keys, key))
}

func (Keyring) Get(service, key string) (string, error) {
	if err := checkNames("get", service, key); err != nil {
		return "", err
	}
	val, err := keyring.Get(service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", wkerr.Errorf(wkerr.CodeSecretNotFound, "secret %s/%s not found", service, key)
	}
	if err != nil {
		return "", wkerr.Wrapf(err, wkerr.CodeSecretStoreFailure, "reading secret %s/%s", service, key)
	}
	return val, nil
}

func (Keyring) Delete(service, key string) error {
	if err := checkNames("delete", service, key); err != nil {
		return err
	}
	err := keyring.Delete(service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return wkerr.Errorf(wkerr.CodeSecretNotFound, "secret %s/%s not found", service, key)
	}
	if err != nil {
		return wkerr.Wrapf(err, wkerr.CodeSecretDeleteFailure, "deleting secret %s/%s", service, key)
	}

	keys, err := loadIndex(service)
	if err != nil {
		return err
	}
	return saveIndex(service, slices.DeleteFunc(keys, func(k string) bool { return k == key }))
}

func (Keyring) List(service string) ([]string, error) {
	if service == "" {
		return nil, wkerr.New(wkerr.CodeSecretInvalidInput, "secret list: service must not be empty")
	}
	keys, err := loadIndex(service)
	if err != nil {
		return nil, err
	}
	slices.Sort(keys)
	return keys, nil
}

func loadIndex(service string) ([]string, error) {
	raw, err := keyring.Get(service, service+indexSuffix)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, wkerr.Wrapf(err, wkerr.CodeSecretListFailure, "loading key index for %s", service)
	}

	var keys []string
	if err := json.Unmarshal([]byte(raw), &keys); err != nil {
		return nil, wkerr.Wrapf(err, wkerr.CodeSecretListFailure, "decoding key index for %s", service)
	}
	return keys, nil
}

func saveIndex(service string, keys []string) error {
	name := service + indexSuffix
	if len(keys) == 0 {
		if err := keyring.Delete(service, name); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			slog.Debug("could not remove empty key index", "service", service, "error", err)
		}
		return nil
	}

	data, err := json.Marshal(keys)
	if err != nil {
		return wkerr.Wrapf(err, wkerr.CodeSecretListFailure, "encoding key index for %s", service)
	}
	if err := keyring.Set(service, name, string(data)); err != nil {
		return wkerr.Wrapf(err, wkerr.CodeSecretListFailure, "saving key index for %s", service)
	}
	return nil
}
