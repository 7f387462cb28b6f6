package document

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-readable error code. Every failure of the engine
// carries exactly one code; codes are part of the public contract and never
// change meaning between releases.
type Code string

const (
	CodeTemplateNotFound        Code = "TEMPLATE_NOT_FOUND"
	CodePackageUnreadable       Code = "PACKAGE_UNREADABLE"
	CodeExtractionFailed        Code = "EXTRACTION_FAILED"
	CodeSectionNotFound         Code = "SECTION_NOT_FOUND"
	CodeImageNotFound           Code = "IMAGE_NOT_FOUND"
	CodeReplacementImageMissing Code = "REPLACEMENT_IMAGE_MISSING"
	CodeUnsupportedFormat       Code = "UNSUPPORTED_FORMAT"
	CodeEmptyDestination        Code = "EMPTY_DESTINATION"
	CodeConverterUnavailable    Code = "CONVERTER_UNAVAILABLE"
	CodeConverterBinaryMissing  Code = "CONVERTER_BINARY_MISSING"
)

// Error is the error type returned by every engine operation. Engine errors
// are fatal to the current generation session: no operation retries or rolls
// back after returning one.
type Error struct {
	Code    Code
	Message string
	// Index carries the offending section index for SECTION_NOT_FOUND.
	Index int
	Cause error
}

func (e *Error) Error() string {
	if e.Code == CodeSectionNotFound {
		return fmt.Sprintf("%s: %s (index %d)", e.Code, e.Message, e.Index)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates an engine error with a stable code.
func NewError(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError creates an engine error caused by a lower-level failure.
func WrapError(code Code, cause error, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func sectionNotFound(idx int) *Error {
	return &Error{
		Code:    CodeSectionNotFound,
		Message: "no section with the requested index",
		Index:   idx,
	}
}

// IsCode reports whether err carries the given engine code.
func IsCode(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// ErrorHandler replaces the default abort-and-report behavior. The handler
// receives the error description and its stable code before the error
// propagates; the failing operation still aborts afterwards — control never
// resumes inside the engine.
type ErrorHandler func(code Code, message string)
