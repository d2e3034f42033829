// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package store

import "errors"

// Sentinel errors for store operations.
// These errors can be checked using errors.Is() for classification.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates the input parameters are invalid or malformed,
	// such as an unknown table or an unscoped write.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDatabase indicates a general database error occurred.
	ErrDatabase = errors.New("database error")
)
