package spreadsheet

import (
	"errors"
	"fmt"
)

// AppErrorCode represents gRPC-style error codes for structural errors
// returned by workbook operations. formula errors are values, not AppErrors.
type AppErrorCode int

const (
	// OK indicates the operation completed successfully.
	OK AppErrorCode = 0

	// Unknown error.
	Unknown AppErrorCode = 2

	// InvalidArgument indicates the caller passed a malformed name, address
	// or sort specification.
	InvalidArgument AppErrorCode = 3

	// NotFound means a sheet was not found.
	NotFound AppErrorCode = 5

	// AlreadyExists means a sheet with the same (case-folded) name exists.
	AlreadyExists AppErrorCode = 6

	// FailedPrecondition indicates the workbook is not in a state required
	// for the operation, e.g. a malformed document on load.
	FailedPrecondition AppErrorCode = 9

	// OutOfRange means an address or index past the valid range.
	OutOfRange AppErrorCode = 11

	// Internal errors. Means some invariant has been broken.
	Internal AppErrorCode = 13
)

var (
	ErrInvalidAddress   = errors.New("invalid address")
	ErrOutOfBounds      = errors.New("address out of bounds")
	ErrSheetNotFound    = errors.New("sheet not found")
	ErrDuplicateSheet   = errors.New("duplicate sheet name")
	ErrInvalidSheetName = errors.New("invalid sheet name")
	ErrInvalidSortSpec  = errors.New("invalid sort specification")
	ErrIndexOutOfRange  = errors.New("sheet index out of range")
	ErrMissingKey       = errors.New("missing key")
	ErrWrongType        = errors.New("wrong type")
)

// AppError represents errors at the application level (not
// spreadsheet formula errors)
type AppError struct {
	Code    AppErrorCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewApplicationError creates a new application error
func NewApplicationError(code AppErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// wrapError builds an AppError around a sentinel so callers can match it
// with errors.Is.
func wrapError(code AppErrorCode, cause error, format string, args ...any) *AppError {
	msg := fmt.Sprintf(format, args...)
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return &AppError{Code: code, Message: msg, Err: cause}
}

// addressError maps address parse failures onto AppError codes.
func addressError(err error, text string) *AppError {
	if errors.Is(err, ErrOutOfBounds) {
		return wrapError(OutOfRange, err, "address %q", text)
	}
	return wrapError(InvalidArgument, err, "address %q", text)
}

// CodeOf returns the AppErrorCode carried by err, or Unknown.
func CodeOf(err error) AppErrorCode {
	if err == nil {
		return OK
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return Unknown
}
