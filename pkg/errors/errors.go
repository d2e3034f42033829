// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wikicat Contributors

// Package errors is the coded error taxonomy shared by every wikicat
// package. Codes follow area.op.reason; the trailing reason segment drives
// classification (not_found, invalid_input, conflict, failure).
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeStoreEntityNotFound     Code = "store.entity.get.not_found"
	CodeStoreDatabaseFailure    Code = "store.database.failure"
	CodeStoreMigrateFailure     Code = "store.migrate.failure"
	CodeStoreBackendUnsupported Code = "store.backend.unsupported"
	CodeStoreScopeInvalid       Code = "store.scope.invalid"
	CodeStoreInvalidInput       Code = "store.invalid_input"
	CodeStoreContiguousConflict Code = "store.contiguous.conflict"

	CodeConfigLoadReadFailure      Code = "config.load.read.failure"
	CodeConfigParseInvalidFormat   Code = "config.parse.invalid_format"
	CodeConfigValidateInvalidValue Code = "config.validate.invalid_value"

	CodeGraphDirectionInvalid Code = "graph.direction.invalid"
	CodeGraphOptionsInvalid   Code = "graph.options.invalid"
	CodeGraphRootNotFound     Code = "graph.root.not_found"

	CodeResolveNameInvalid Code = "resolve.name.invalid_input"

	CodeLoaderRelationInvalid Code = "loader.relation.invalid"
	CodeLoaderSourceFailure   Code = "loader.source.failure"
	CodeLoaderFlushFailure    Code = "loader.flush.failure"

	CodeStatsOptionsInvalid        Code = "stats.options.invalid"
	CodeStatsPropagateNotConverged Code = "stats.propagate.not_converged"

	CodeLockAcquireConflict Code = "lock.acquire.conflict"
	CodeLockBackendFailure  Code = "lock.backend.failure"

	CodeCatalogDatasetInvalid Code = "catalog.dataset.invalid"
	CodeCatalogVersionInvalid Code = "catalog.version.invalid"
	CodeCatalogLoadFailure    Code = "catalog.load.failure"

	CodeDownloadUpstreamFailure Code = "download.upstream.failure"
	CodeDownloadCacheFailure    Code = "download.cache.failure"
	CodeTripleParseInvalid      Code = "ntriples.parse.invalid_format"

	CodeServerInternalFailure Code = "server.internal.failure"
	CodeServerConfigInvalid   Code = "server.config.invalid"
	CodeServerStartFailure    Code = "server.start.failure"
	CodeServerShutdownFailure Code = "server.shutdown.failure"

	CodeSecretInvalidInput   Code = "secret.invalid_input"
	CodeSecretNotFound       Code = "secret.get.not_found"
	CodeSecretStoreFailure   Code = "secret.store.failure"
	CodeSecretDeleteFailure  Code = "secret.delete.failure"
	CodeSecretListFailure    Code = "secret.list.failure"
	CodeSecretResolveFailure Code = "secret.resolve.failure"

	CodeCLISetupFailure  Code = "cli.setup.failure"
	CodeCLIInputInvalid  Code = "cli.input.invalid"
	CodeCLIOutputFailure Code = "cli.output.failure"
)

// Attr is a structured key/value context attached to an error.
type Attr struct {
	Key   string
	Value any
}

// FieldValue creates a structured error field.
func FieldValue(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// Field is kept as the primary helper for terse callsites.
func Field(key string, value any) Attr {
	return FieldValue(key, value)
}

func FieldVersionID(value int64) Attr {
	return Field("version_id", value)
}

func FieldRelation(value string) Attr {
	return Field("relation", value)
}

func FieldCategory(value string) Attr {
	return Field("category", value)
}

func FieldDataset(value string) Attr {
	return Field("dataset", value)
}

func New(code Code, msg string, fields ...Attr) error {
	return oops.Code(code).With(flatten(fields)...).New(msg)
}

func Errorf(code Code, format string, args ...any) error {
	return oops.Code(code).Errorf(format, args...)
}

func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).With(flatten(fields)...).Wrapf(err, "%s", msg)
}

func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).Wrapf(err, format, args...)
}

// With adds structured fields to an existing error chain.
func With(err error, fields ...Attr) error {
	if err == nil {
		return nil
	}

	code := CodeOf(err)
	if code == "" {
		code = CodeServerInternalFailure
	}

	return oops.Code(code).With(flatten(fields)...).Wrap(err)
}

func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}

	if code, ok := oopsErr.Code().(Code); ok {
		return code
	}

	if code, ok := oopsErr.Code().(string); ok {
		return Code(code)
	}

	return Code(fmt.Sprintf("%v", oopsErr.Code()))
}

func FieldsOf(err error) map[string]any {
	if err == nil {
		return nil
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}

	return oopsErr.Context()
}

func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

func IsNotFound(err error) bool {
	return reason(CodeOf(err)) == "not_found"
}

func IsConflict(err error) bool {
	return reason(CodeOf(err)) == "conflict"
}

// IsInvalidInput reports configuration and input errors. Callers treat these
// as fatal before any store side effect happens.
func IsInvalidInput(err error) bool {
	r := reason(CodeOf(err))
	return r == "invalid" || r == "invalid_input" || r == "invalid_value" || r == "invalid_format"
}

// IsStoreFailure reports errors raised by the backing store. They are
// never retried automatically.
func IsStoreFailure(err error) bool {
	code := CodeOf(err)
	if code == CodeLoaderFlushFailure {
		return true
	}
	return strings.HasPrefix(string(code), "store.") && reason(code) == "failure"
}

func IsUpstreamFailure(err error) bool {
	code := CodeOf(err)
	return strings.Contains(string(code), "upstream") && reason(code) == "failure"
}

func HTTPStatus(err error) int {
	switch {
	case IsNotFound(err):
		return http.StatusNotFound
	case IsConflict(err):
		return http.StatusConflict
	case IsInvalidInput(err):
		return http.StatusBadRequest
	case IsUpstreamFailure(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func Join(errs ...error) error {
	return oops.Code(CodeServerInternalFailure).Wrap(stderrors.Join(errs...))
}

func flatten(fields []Attr) []any {
	pairs := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		if field.Key == "" {
			continue
		}
		pairs = append(pairs, field.Key, field.Value)
	}
	return pairs
}

func reason(code Code) string {
	if code == "" {
		return ""
	}

	raw := string(code)
	idx := strings.LastIndex(raw, ".")
	if idx == -1 || idx == len(raw)-1 {
		return raw
	}
	return raw[idx+1:]
}
