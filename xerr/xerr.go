// Copyright 2026 The dmnflow Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package xerr defines the engine's closed error taxonomy (spec §7).
//
// Each kind is a distinct struct implementing error so callers can recover it
// with errors.As; each also gets a package-level constructor that wraps it
// with github.com/pkg/errors for a causal chain and message context.
package xerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// InvalidRequestError covers a missing selector or a reference to a decision
// that is not in PUBLISHED status.
type InvalidRequestError struct{ reason string }

func (e InvalidRequestError) Error() string { return "invalid request: " + e.reason }

func ErrInvalidRequest(format string, args ...any) error {
	return errors.WithStack(InvalidRequestError{reason: fmt.Sprintf(format, args...)})
}

// NotFoundError covers a missing decision id, key, or execution record.
type NotFoundError struct{ what string }

func (e NotFoundError) Error() string { return "not found: " + e.what }

func ErrNotFound(format string, args ...any) error {
	return errors.WithStack(NotFoundError{what: fmt.Sprintf(format, args...)})
}

// PolicyViolationError covers a UNIQUE/ANY/PRIORITY strict-mode contract
// breach: more than one match for UNIQUE, disagreeing matches for ANY, or a
// PRIORITY/OUTPUT ORDER policy with no declared priority list.
type PolicyViolationError struct{ reason string }

func (e PolicyViolationError) Error() string { return "hit policy violation: " + e.reason }

func ErrPolicyViolation(format string, args ...any) error {
	return errors.WithStack(PolicyViolationError{reason: fmt.Sprintf(format, args...)})
}

// EvaluationError covers FEEL or condition evaluation failures: type
// mismatches, division by zero, null property access, unknown
// variable/function, bad arguments.
type EvaluationErrorKind string

const (
	SyntaxError        EvaluationErrorKind = "SYNTAX_ERROR"
	TypeError          EvaluationErrorKind = "TYPE_ERROR"
	VariableNotFound   EvaluationErrorKind = "VARIABLE_NOT_FOUND"
	FunctionNotFound   EvaluationErrorKind = "FUNCTION_NOT_FOUND"
	InvalidArguments   EvaluationErrorKind = "INVALID_ARGUMENTS"
	DivisionByZero     EvaluationErrorKind = "DIVISION_BY_ZERO"
	NullValue          EvaluationErrorKind = "NULL_VALUE"
	RuntimeError       EvaluationErrorKind = "RUNTIME_ERROR"
)

type EvaluationError struct {
	Kind   EvaluationErrorKind
	detail string
}

func (e EvaluationError) Error() string { return string(e.Kind) + ": " + e.detail }

func ErrEvaluation(kind EvaluationErrorKind, format string, args ...any) error {
	return errors.WithStack(EvaluationError{Kind: kind, detail: fmt.Sprintf(format, args...)})
}

// XmlParseError covers syntactic XML failure or a missing definitions root.
// dmnxml.Parse returns this kind as its error value, together with an empty
// ParseResult; it is not recorded in ParseResult.Errors.
type XmlParseError struct{ reason string }

func (e XmlParseError) Error() string { return "xml parse error: " + e.reason }

func ErrXmlParse(format string, args ...any) error {
	return errors.WithStack(XmlParseError{reason: fmt.Sprintf(format, args...)})
}

// PersistenceError covers a failure in an injected store collaborator. The
// executor logs and swallows these; they never mask the functional result.
type PersistenceError struct{ reason string }

func (e PersistenceError) Error() string { return "persistence error: " + e.reason }

func ErrPersistence(format string, args ...any) error {
	return errors.WithStack(PersistenceError{reason: fmt.Sprintf(format, args...)})
}

// Cause unwraps to the deepest wrapped error, same contract as
// github.com/pkg/errors.Cause.
func Cause(err error) error { return errors.Cause(err) }
