package errors

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	// CodeConfig covers invalid or missing configuration: bad project
	// paths, unknown presets, malformed patterns. Always fatal to the call.
	CodeConfig ErrorCode = "CONFIG_ERROR"
	// CodeNotFound marks a missing project root or history record.
	CodeNotFound ErrorCode = "NOT_FOUND"
	// CodeParse marks a per-file parse or extraction failure. Recovered by
	// excluding the file and continuing the run.
	CodeParse ErrorCode = "PARSE_ERROR"
	// CodeValidator marks a fitness validator failure. Recovered per policy
	// by emitting one error-level violation for the policy.
	CodeValidator ErrorCode = "VALIDATOR_ERROR"
	// CodeDetector marks a pattern detector failure. Recovered per pattern
	// as a zero-confidence match.
	CodeDetector ErrorCode = "DETECTOR_ERROR"
	// CodeStorage marks a history store failure.
	CodeStorage ErrorCode = "STORAGE_ERROR"
	// CodeCancelled marks a run aborted by context cancellation.
	CodeCancelled ErrorCode = "CANCELLED"
	// CodeNotSupported marks an unsupported language or file kind.
	CodeNotSupported ErrorCode = "NOT_SUPPORTED"
	// CodeInternal marks broken invariants.
	CodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Context keys shared across call sites so log/report output stays uniform.
const (
	CtxPath      = "path"
	CtxOperation = "operation"
	CtxLanguage  = "language"
	CtxPolicy    = "policy"
	CtxPattern   = "pattern"
)

type DomainError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]interface{}
}

func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Context) > 0 {
		msg += fmt.Sprintf(" %v", e.Context)
	}
	return msg
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg}
}

func Newf(code ErrorCode, format string, args ...interface{}) error {
	return &DomainError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(err error, code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg, Err: err}
}

// AddContext attaches a key/value pair to an existing DomainError, or wraps
// a foreign error so the context is not lost.
func AddContext(err error, key string, value interface{}) error {
	var de *DomainError
	if errors.As(err, &de) {
		de.WithContext(key, value)
		return de
	}
	return &DomainError{
		Code:    CodeInternal,
		Message: "wrapped error",
		Err:     err,
		Context: map[string]interface{}{key: value},
	}
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code ErrorCode) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}
