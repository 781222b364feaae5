package hints

import (
	"errors"
	"fmt"
)

// ErrorCode classifies the user-facing failures the hint store can raise.
// Anything not listed here is recoverable and never surfaces as an error.
type ErrorCode string

const (
	CodeUnknownBase     ErrorCode = "UNKNOWN_BASE"
	CodeNotARelation    ErrorCode = "NOT_A_RELATION"
	CodeMissingHyp      ErrorCode = "MISSING_HYPOTHESIS"
	CodeInvalidTarget   ErrorCode = "INVALID_TARGET"
	CodeInvalidRuleFile ErrorCode = "INVALID_RULE_FILE"
)

// UserError is fatal to the current command and reported verbatim to the
// user. It always aborts the whole invocation; rewriting already committed
// before the error stays committed.
type UserError struct {
	Code    ErrorCode
	Message string
}

// Error implements the error interface.
func (e *UserError) Error() string { return e.Message }

// NewUserError builds a UserError with a formatted message.
func NewUserError(code ErrorCode, format string, args ...interface{}) *UserError {
	return &UserError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsUserError reports whether err is (or wraps) a UserError.
func IsUserError(err error) bool {
	var ue *UserError
	return errors.As(err, &ue)
}
