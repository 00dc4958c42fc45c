// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package errors

import (
	"fmt"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeProviderUnavailable       Code = "provider.embed.unavailable"
	CodeProviderRejected          Code = "provider.embed.rejected"
	CodeProviderMalformedResponse Code = "provider.embed.malformed_response"
	CodeProviderUnknown           Code = "provider.registry.unknown"

	CodeIndexDimensionConflict Code = "index.upsert.dimension_conflict"

	CodeRecordNotFound     Code = "record.object.not_found"
	CodeRecordInvalidInput Code = "record.invalid_input"

	CodeStoreDatabaseFailure Code = "store.database.failure"

	CodeConfigLoadReadFailure      Code = "config.load.read.failure"
	CodeConfigValidateInvalidValue Code = "config.validate.invalid_value"

	CodeSecretInvalidInput   Code = "secret.invalid_input"
	CodeSecretNotFound       Code = "secret.not_found"
	CodeSecretStoreFailure   Code = "secret.store.failure"
	CodeSecretResolveFailure Code = "secret.resolve.failure"

	CodeCLISetupFailure    Code = "cli.setup.failure"
	CodeCLIInputInvalid    Code = "cli.input.invalid"
	CodeCLIIndexIncomplete Code = "cli.index.rebuild_incomplete"
)

// Attr is a structured key/value context attached to an error.
type Attr struct {
	Key   string
	Value any
}

// Field creates a structured error field.
func Field(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

func FieldObjectID(value string) Attr {
	return Field("object_id", value)
}

func FieldObjectType(value string) Attr {
	return Field("object_type", value)
}

func FieldProvider(value string) Attr {
	return Field("provider", value)
}

func FieldModel(value string) Attr {
	return Field("model", value)
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
	r := reason(CodeOf(err))
	return r == "dimension_conflict" || r == "conflict"
}

func IsInvalidInput(err error) bool {
	r := reason(CodeOf(err))
	return r == "invalid" || r == "invalid_input" || r == "invalid_value" || r == "invalid_format"
}

// IsProviderFailure reports whether err came from the embedding backend,
// regardless of which of the three provider failure modes it is.
func IsProviderFailure(err error) bool {
	return strings.HasPrefix(string(CodeOf(err)), "provider.embed.")
}

// IsRetryable reports whether the operation may succeed if repeated.
// Only transient backend unavailability qualifies; rejections and
// malformed responses are deterministic.
func IsRetryable(err error) bool {
	return HasCode(err, CodeProviderUnavailable)
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
