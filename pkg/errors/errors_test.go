// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	wkerr "github.com/wikicat/wikicat/pkg/errors"
)

// ---------------------------------------------------------------------------
// New / Errorf
// ---------------------------------------------------------------------------

func TestNewIncludesCodeAndFields(t *testing.T) {
	err := wkerr.New(
		wkerr.CodeGraphRootNotFound,
		"root category missing",
		wkerr.FieldCategory("Animals"),
		wkerr.FieldVersionID(3),
	)

	require.Error(t, err)
	assert.Equal(t, wkerr.CodeGraphRootNotFound, wkerr.CodeOf(err))
	assert.True(t, wkerr.HasCode(err, wkerr.CodeGraphRootNotFound))

	fields := wkerr.FieldsOf(err)
	assert.Equal(t, "Animals", fields["category"])
	assert.Equal(t, int64(3), fields["version_id"])
}

func TestErrorfWrapsInnerError(t *testing.T) {
	inner := stderrors.New("disk full")
	err := wkerr.Errorf(wkerr.CodeStoreDatabaseFailure, "write failed: %w", inner)
	require.Error(t, err)
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, wkerr.CodeStoreDatabaseFailure, wkerr.CodeOf(err))
	assert.Contains(t, err.Error(), "write failed: disk full")
}

// ---------------------------------------------------------------------------
// Wrap / With
// ---------------------------------------------------------------------------

func TestWrapPreservesWrappedErrorAndCode(t *testing.T) {
	root := stderrors.New("no rows")
	err := wkerr.Wrap(root, wkerr.CodeStoreEntityNotFound, "loading category", wkerr.FieldCategory("Cats"))

	require.Error(t, err)
	assert.ErrorIs(t, err, root)
	assert.True(t, wkerr.IsNotFound(err))
	assert.Equal(t, "Cats", wkerr.FieldsOf(err)["category"])
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.NoError(t, wkerr.Wrap(nil, wkerr.CodeStoreDatabaseFailure, "unused"))
	assert.NoError(t, wkerr.Wrapf(nil, wkerr.CodeStoreDatabaseFailure, "unused %d", 1))
	assert.NoError(t, wkerr.With(nil, wkerr.Field("k", "v")))
}

func TestWithAddsContextWithoutChangingCode(t *testing.T) {
	base := wkerr.New(wkerr.CodeLoaderRelationInvalid, "unknown relation")
	err := wkerr.With(base, wkerr.FieldRelation("category_categories"))

	assert.Equal(t, wkerr.CodeLoaderRelationInvalid, wkerr.CodeOf(err))
	assert.Equal(t, "category_categories", wkerr.FieldsOf(err)["relation"])
}

func TestWithOnPlainErrorDefaultsToInternalCode(t *testing.T) {
	err := wkerr.With(fmt.Errorf("plain"), wkerr.Field("k", "v"))
	assert.Equal(t, wkerr.CodeServerInternalFailure, wkerr.CodeOf(err))
}

func TestNestedWrapInnermostCodePersists(t *testing.T) {
	root := stderrors.New("io error")
	l1 := wkerr.Wrap(root, wkerr.CodeStoreDatabaseFailure, "store layer")
	l2 := wkerr.Wrap(l1, wkerr.CodeLoaderFlushFailure, "flush")

	assert.Equal(t, wkerr.CodeStoreDatabaseFailure, wkerr.CodeOf(l2))
	assert.ErrorIs(t, l2, root)
	assert.True(t, wkerr.IsStoreFailure(l2))
}

// ---------------------------------------------------------------------------
// Classification
// ---------------------------------------------------------------------------

func TestClassificationAndStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		code   wkerr.Code
		status int
		check  func(error) bool
	}{
		{name: "root not found", code: wkerr.CodeGraphRootNotFound, status: 404, check: wkerr.IsNotFound},
		{name: "entity not found", code: wkerr.CodeStoreEntityNotFound, status: 404, check: wkerr.IsNotFound},
		{name: "lock conflict", code: wkerr.CodeLockAcquireConflict, status: 409, check: wkerr.IsConflict},
		{name: "direction invalid", code: wkerr.CodeGraphDirectionInvalid, status: 400, check: wkerr.IsInvalidInput},
		{name: "dataset invalid", code: wkerr.CodeCatalogDatasetInvalid, status: 400, check: wkerr.IsInvalidInput},
		{name: "config value", code: wkerr.CodeConfigValidateInvalidValue, status: 400, check: wkerr.IsInvalidInput},
		{name: "triple format", code: wkerr.CodeTripleParseInvalid, status: 400, check: wkerr.IsInvalidInput},
		{name: "name input", code: wkerr.CodeResolveNameInvalid, status: 400, check: wkerr.IsInvalidInput},
		{name: "download upstream", code: wkerr.CodeDownloadUpstreamFailure, status: 502, check: wkerr.IsUpstreamFailure},
		{name: "store failure", code: wkerr.CodeStoreDatabaseFailure, status: 500, check: wkerr.IsStoreFailure},
		{name: "flush failure", code: wkerr.CodeLoaderFlushFailure, status: 500, check: wkerr.IsStoreFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := wkerr.New(tt.code, "boom")
			assert.Equal(t, tt.status, wkerr.HTTPStatus(err))
			assert.True(t, tt.check(err))
		})
	}
}

func TestClassificationNegativeCases(t *testing.T) {
	err := wkerr.New(wkerr.CodeStoreDatabaseFailure, "db error")
	assert.False(t, wkerr.IsNotFound(err))
	assert.False(t, wkerr.IsConflict(err))
	assert.False(t, wkerr.IsInvalidInput(err))
	assert.False(t, wkerr.IsUpstreamFailure(err))

	warn := wkerr.New(wkerr.CodeStatsPropagateNotConverged, "unresolved")
	assert.False(t, wkerr.IsStoreFailure(warn))
	assert.False(t, wkerr.IsInvalidInput(warn))
}

func TestClassificationOnPlainError(t *testing.T) {
	err := stderrors.New("plain")
	assert.Equal(t, wkerr.Code(""), wkerr.CodeOf(err))
	assert.Nil(t, wkerr.FieldsOf(err))
	assert.False(t, wkerr.IsNotFound(err))
	assert.Equal(t, http.StatusInternalServerError, wkerr.HTTPStatus(err))
	assert.Equal(t, http.StatusInternalServerError, wkerr.HTTPStatus(nil))
}

func TestFieldsWithEmptyKeyAreIgnored(t *testing.T) {
	err := wkerr.New(wkerr.CodeStoreInvalidInput, "bad", wkerr.Field("", "x"), wkerr.FieldDataset("category_labels"))
	fields := wkerr.FieldsOf(err)
	assert.NotContains(t, fields, "")
	assert.Equal(t, "category_labels", fields["dataset"])
}

func TestJoinCombinesErrors(t *testing.T) {
	a := stderrors.New("first")
	b := stderrors.New("second")
	err := wkerr.Join(a, b)

	require.Error(t, err)
	assert.ErrorIs(t, err, a)
	assert.ErrorIs(t, err, b)
	assert.Equal(t, wkerr.CodeServerInternalFailure, wkerr.CodeOf(err))
}
