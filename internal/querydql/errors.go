package querydql

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a compile failure.
type ErrorCode string

const (
	CodeUnboundParameter    ErrorCode = "UNBOUND_PARAMETER"
	CodeAggregateArity      ErrorCode = "AGGREGATE_ARITY"
	CodeAggregateArgument   ErrorCode = "AGGREGATE_ARGUMENT"
	CodeUnsupportedFunction ErrorCode = "UNSUPPORTED_FUNCTION"
	CodeEmbeddedCollection  ErrorCode = "EMBEDDED_COLLECTION"
	CodeJoinTraversal       ErrorCode = "JOIN_TRAVERSAL"
	CodeNonRelationPath     ErrorCode = "NON_RELATION_PATH"
	CodeUnknownMember       ErrorCode = "UNKNOWN_MEMBER"
	CodeUnknownClass        ErrorCode = "UNKNOWN_CLASS"
	CodeUnsupportedValue    ErrorCode = "UNSUPPORTED_VALUE"
	CodeInvalidQuery        ErrorCode = "INVALID_QUERY"
)

// CompileError is a failure raised while compiling one clause.
//
// Hard errors abort the whole compile. The remaining ones (embedded
// collections, unsupported parameter values) only make their clause
// incomplete.
type CompileError struct {
	Code    ErrorCode
	Clause  Clause
	Message string
	Hard    bool
	Err     error
}

func (e *CompileError) Error() string {
	msg := string(e.Code) + ": " + e.Message
	if e.Clause != ClauseNone {
		msg = e.Clause.String() + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

func hardError(code ErrorCode, clause Clause, format string, args ...any) *CompileError {
	return &CompileError{Code: code, Clause: clause, Message: fmt.Sprintf(format, args...), Hard: true}
}

func softError(code ErrorCode, clause Clause, format string, args ...any) *CompileError {
	return &CompileError{Code: code, Clause: clause, Message: fmt.Sprintf(format, args...)}
}

// TranslationError is a structural failure inside one clause: an operand
// of the wrong shape, a missing operand, an unsupported node. It never
// escapes Compile.
type TranslationError struct {
	Clause Clause
	Reason string
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Clause, e.Reason)
}

func translationErr(clause Clause, format string, args ...any) *TranslationError {
	return &TranslationError{Clause: clause, Reason: fmt.Sprintf(format, args...)}
}

// IsHardFailure reports whether err aborts a compile.
func IsHardFailure(err error) bool {
	var ce *CompileError
	return errors.As(err, &ce) && ce.Hard
}

// IsUnboundParameter reports whether err is caused by a missing parameter
// binding.
func IsUnboundParameter(err error) bool {
	return HasCode(err, CodeUnboundParameter)
}

// HasCode reports whether err is a CompileError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var ce *CompileError
	return errors.As(err, &ce) && ce.Code == code
}
