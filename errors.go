package schemareg

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/schemareg/i18n"
	"github.com/reoring/schemareg/internal/engine"
)

// Error codes (exported consts for IDE completion and type safety by convention)
const (
	CodeUnsupportedDialect = "unsupported_dialect"
	CodeUnsupportedQuery   = "unsupported_query"
	CodeQueryMiss          = "query_miss"
	CodeSchemaCompile      = "schema_compile"
	CodeUnknownKeyword     = "unknown_keyword"
	CodeUnknownValidator   = "unknown_validator"
	CodeUnknownEngine      = "unknown_engine"
	CodeInvalidDefinition  = "invalid_definition"
	CodeDuplicateKey       = "duplicate_key"
	CodeUnknownFunction    = "unknown_function"
	CodeInvalidArgument    = "invalid_argument"
)

// Sentinels for errors.Is. Any *Error with the same Code matches.
var (
	ErrUnsupportedDialect = &Error{Code: CodeUnsupportedDialect}
	ErrUnsupportedQuery   = &Error{Code: CodeUnsupportedQuery}
	ErrQueryMiss          = &Error{Code: CodeQueryMiss}
	ErrSchemaCompile      = &Error{Code: CodeSchemaCompile}
	ErrUnknownKeyword     = &Error{Code: CodeUnknownKeyword}
	ErrUnknownValidator   = &Error{Code: CodeUnknownValidator}
	ErrUnknownEngine      = &Error{Code: CodeUnknownEngine}
	ErrInvalidDefinition  = &Error{Code: CodeInvalidDefinition}
	ErrDuplicateKey       = &Error{Code: CodeDuplicateKey}
	ErrUnknownFunction    = &Error{Code: CodeUnknownFunction}
	ErrInvalidArgument    = &Error{Code: CodeInvalidArgument}
)

// Error aborts a registry, query or decoding call.
type Error struct {
	Code string
	// Detail is appended to the translated code message.
	Detail string
	// Data feeds the translator (for example {"dialect": "draft-03"}).
	Data  map[string]string
	Cause error
}

func (e *Error) Error() string {
	msg := i18n.T(e.Code, e.Data)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches on Code so callers can compare against the sentinels.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func newError(code, detail string, data map[string]string, cause error) *Error {
	return &Error{Code: code, Detail: detail, Data: data, Cause: cause}
}

// NewError builds a coded error for layers built on the registry (host
// bindings, HTTP handlers).
func NewError(code, detail string, data map[string]string, cause error) *Error {
	return newError(code, detail, data, cause)
}

// Record is one engine-reported validation error. Records are passed through
// from the engine without interpretation.
type Record = engine.Record

// Records is a list of engine-reported validation errors.
type Records []Record

// Error summarizes the first few records.
func (rs Records) Error() string {
	if len(rs) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	lim := min(len(rs), maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		r := rs[i]
		at := r.InstancePath
		if at == "" {
			at = "/"
		}
		// e.g. type at /n: got string, want number
		fmt.Fprintf(b, "%s at %s: %s", r.Keyword, at, r.Message)
	}
	if len(rs) > lim {
		fmt.Fprintf(b, "; ... (total %d)", len(rs))
	}
	return b.String()
}

// AsError extracts an *Error using errors.As internally.
func AsError(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
