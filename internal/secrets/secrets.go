// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

// Package secrets keeps database and Redis credentials out of config files.
// Values of the form keyring://service/key are looked up in a Store after
// the configuration is read.
package secrets

// DefaultService is the keyring service wikicat stores its credentials under.
const DefaultService = "wikicat"

// Store holds named secrets grouped by service.
type Store interface {
	Set(service, key, value string) error
	// Get returns a CodeSecretNotFound error when key is absent.
	Get(service, key string) (string, error)
	Delete(service, key string) error
	List(service string) ([]string, error)
}
