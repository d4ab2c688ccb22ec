package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Pipeline error taxonomy. Only ErrDocumentUnreadable is fatal for a document;
// the others mark recoverable stage degradations.
var (
	ErrDocumentUnreadable = errors.New("document unreadable")
	ErrRecognitionFailure = errors.New("recognition failure")
	ErrRefinementFailure  = errors.New("refinement failure")
	ErrExtractionParse    = errors.New("extraction parse failure")
	ErrSignatureRace      = errors.New("file changed during processing")
	ErrInvalidInput       = errors.New("invalid input")
	ErrStore              = errors.New("store error")
)

// NewAppError builds an AppError with a cause.
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapError annotates err with a message, preserving the chain.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
