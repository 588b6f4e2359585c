// Copyright (c) 2017,2019, AT&T Intellectual Property. All rights reserved
//
// Copyright (c) 2016-2017 by Brocade Communications Systems, Inc.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

// Package yerr implements the loader's failure taxonomy (spec.md §4.6) as
// constructors over github.com/danos/mgmterror, the same error type the
// teacher corpus's schema package (schema/errors.go) builds on. Every
// constructor fixes a stable Message and an error-kind-appropriate
// mgmterror constructor, and renders the breadcrumb path it is given with
// pathutil.Pathstr.
package yerr

import (
	"fmt"

	"github.com/danos/mgmterror"
	"github.com/danos/utils/pathutil"
)

// Code classifies a loader failure per spec.md §4.6. It is carried on
// every error this package returns so that callers that need to branch on
// failure kind (rather than just log/report it) do not have to string-match
// mgmterror messages.
type Code int

const (
	// Lexical
	UnexpectedChar Code = iota
	UnterminatedString
	BadEscape

	// Structural
	DuplicateStatement
	MissingRequiredChild
	UnexpectedStatementInContext

	// Semantic
	DuplicateIdentifier
	UnknownPrefix
	UnresolvedReference
	CircularLeafref
	InvalidRange
	BitPositionOverflow
	EnumValueOverflow
	MandatoryWithDefault

	// Integration
	ConflictingImplementedRevision
	DeviationOfOwnModule
	NotSupportedRemovesKey
	SubmoduleOrphaned

	// Catch-all for invariant violations that should never surface to a
	// well-formed caller.
	Internal
)

func (c Code) String() string {
	switch c {
	case UnexpectedChar:
		return "UnexpectedChar"
	case UnterminatedString:
		return "UnterminatedString"
	case BadEscape:
		return "BadEscape"
	case DuplicateStatement:
		return "DuplicateStatement"
	case MissingRequiredChild:
		return "MissingRequiredChild"
	case UnexpectedStatementInContext:
		return "UnexpectedStatementInContext"
	case DuplicateIdentifier:
		return "DuplicateIdentifier"
	case UnknownPrefix:
		return "UnknownPrefix"
	case UnresolvedReference:
		return "UnresolvedReference"
	case CircularLeafref:
		return "CircularLeafref"
	case InvalidRange:
		return "InvalidRange"
	case BitPositionOverflow:
		return "BitPositionOverflow"
	case EnumValueOverflow:
		return "EnumValueOverflow"
	case MandatoryWithDefault:
		return "MandatoryWithDefault"
	case ConflictingImplementedRevision:
		return "ConflictingImplementedRevision"
	case DeviationOfOwnModule:
		return "DeviationOfOwnModule"
	case NotSupportedRemovesKey:
		return "NotSupportedRemovesKey"
	case SubmoduleOrphaned:
		return "SubmoduleOrphaned"
	default:
		return "Internal"
	}
}

// LoadError is the thread-local "last error" record of spec.md §6,
// returned as a plain Go error value instead of being threaded through a
// package-global (see SPEC_FULL.md's ambient-stack note on error
// handling): {code, message, path}.
type LoadError struct {
	Code    Code
	Message string
	Path    string
	cause   *mgmterror.Error
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (at %s)", e.Code, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error { return e.cause }

// MgmtError returns the underlying NETCONF-style error, for callers that
// want the structured rpc-error form rather than a plain Go error string.
func (e *LoadError) MgmtError() *mgmterror.Error { return e.cause }

func newf(code Code, mk func() *mgmterror.Error, path []string, format string, args ...interface{}) *LoadError {
	msg := fmt.Sprintf(format, args...)
	me := mk()
	me.Message = msg
	if len(path) > 0 {
		me.Path = pathutil.Pathstr(path)
	}
	return &LoadError{Code: code, Message: msg, Path: me.Path, cause: me}
}

func New(code Code, path []string, format string, args ...interface{}) *LoadError {
	return newf(code, mgmterror.NewOperationFailedApplicationError, path, format, args...)
}

func NewDuplicateStatement(path []string, stmt string) *LoadError {
	return newf(DuplicateStatement, mgmterror.NewOperationFailedApplicationError,
		path, "statement %q may occur at most once in this context", stmt)
}

func NewMissingRequiredChild(path []string, stmt string) *LoadError {
	return newf(MissingRequiredChild, func() *mgmterror.Error {
		return mgmterror.NewMissingElementApplicationError(stmt)
	}, path, "required substatement %q is missing", stmt)
}

func NewUnexpectedStatement(path []string, stmt string) *LoadError {
	return newf(UnexpectedStatementInContext, mgmterror.NewOperationFailedApplicationError,
		path, "statement %q is not valid in this context", stmt)
}

func NewDuplicateIdentifier(path []string, kind, name string) *LoadError {
	return newf(DuplicateIdentifier, mgmterror.NewOperationFailedApplicationError,
		path, "duplicate %s identifier %q in scope", kind, name)
}

func NewUnknownPrefix(path []string, prefix string) *LoadError {
	return newf(UnknownPrefix, func() *mgmterror.Error {
		return mgmterror.NewUnknownElementApplicationError(prefix)
	}, path, "unknown prefix %q", prefix)
}

func NewUnresolvedReference(path []string, kind, detail string) *LoadError {
	return newf(UnresolvedReference, mgmterror.NewOperationFailedApplicationError,
		path, "could not resolve %s reference: %s", kind, detail)
}

func NewCircularLeafref(path []string, chain []string) *LoadError {
	return newf(CircularLeafref, mgmterror.NewOperationFailedApplicationError,
		path, "circular leafref chain: %v", chain)
}

func NewInvalidRange(path []string, detail string) *LoadError {
	return newf(InvalidRange, mgmterror.NewInvalidValueApplicationError, path, "invalid range: %s", detail)
}

func NewBitPositionOverflow(path []string, pos uint64) *LoadError {
	return newf(BitPositionOverflow, mgmterror.NewInvalidValueApplicationError,
		path, "bit position %d exceeds uint32 range", pos)
}

func NewEnumValueOverflow(path []string, val int64) *LoadError {
	return newf(EnumValueOverflow, mgmterror.NewInvalidValueApplicationError,
		path, "enum value %d exceeds int32 range", val)
}

func NewMandatoryWithDefault(path []string, name string) *LoadError {
	return newf(MandatoryWithDefault, mgmterror.NewOperationFailedApplicationError,
		path, "node %q cannot be both mandatory and carry a default", name)
}

func NewConflictingImplementedRevision(path []string, module, existingRev, newRev string) *LoadError {
	return newf(ConflictingImplementedRevision, mgmterror.NewOperationFailedApplicationError,
		path, "module %q revision %q is already implemented; cannot also implement %q",
		module, existingRev, newRev)
}

func NewDeviationOfOwnModule(path []string, module string) *LoadError {
	return newf(DeviationOfOwnModule, mgmterror.NewOperationFailedApplicationError,
		path, "module %q may not deviate itself", module)
}

func NewNotSupportedRemovesKey(path []string, leaf string) *LoadError {
	return newf(NotSupportedRemovesKey, mgmterror.NewOperationFailedApplicationError,
		path, "deviate not-supported cannot remove list key leaf %q", leaf)
}

func NewSubmoduleOrphaned(path []string, submodule, belongsTo string) *LoadError {
	return newf(SubmoduleOrphaned, mgmterror.NewOperationFailedApplicationError,
		path, "submodule %q belongs-to non-existent module %q", submodule, belongsTo)
}

func NewInternal(path []string, format string, args ...interface{}) *LoadError {
	return newf(Internal, mgmterror.NewOperationFailedApplicationError, path, format, args...)
}

var ErrUnsupportedFormat = New(Internal, nil, "unsupported input format")
