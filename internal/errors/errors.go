package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeAI         ErrorType = "ai"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeStorage    ErrorType = "storage"
)

// AppError represents a structured application error
type AppError struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Cause   error          `json:"cause,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func newAppError(typ ErrorType, code, message string, cause error) *AppError {
	return &AppError{
		Type:    typ,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Error constructors for different types
func NewValidationError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeValidation, code, message, cause)
}

func NewIOError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeIO, code, message, cause)
}

func NewAIError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeAI, code, message, cause)
}

func NewNetworkError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeNetwork, code, message, cause)
}

func NewConfigError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeConfig, code, message, cause)
}

func NewInternalError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeInternal, code, message, cause)
}

func NewNotFoundError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeNotFound, code, message, cause)
}

func NewConflictError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeConflict, code, message, cause)
}

func NewStorageError(code, message string, cause error) *AppError {
	return newAppError(ErrorTypeStorage, code, message, cause)
}

// WithContext adds context to an error
func (e *AppError) WithContext(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// AsAppError finds the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether any AppError in err's chain carries code.
func HasCode(err error, code string) bool {
	for err != nil {
		var appErr *AppError
		if !stderrors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Cause
	}
	return false
}

// Common error codes
const (
	ErrCodeFileNotFound    = "FILE_NOT_FOUND"
	ErrCodeFileNotReadable = "FILE_NOT_READABLE"
	ErrCodeInvalidFormat   = "INVALID_FORMAT"
	ErrCodeAIServiceFailed = "AI_SERVICE_FAILED"
	ErrCodeAITimeout       = "AI_TIMEOUT"
	ErrCodeAIRateLimited   = "AI_RATE_LIMITED"
	ErrCodeInvalidRequest  = "INVALID_REQUEST"
	ErrCodeMissingAPIKey   = "MISSING_API_KEY"
	ErrCodeNetworkTimeout  = "NETWORK_TIMEOUT"
	ErrCodeInvalidConfig   = "INVALID_CONFIG"
	ErrCodeUnsupportedFile = "UNSUPPORTED_FILE_TYPE"
	ErrCodeStorageFailed   = "STORAGE_FAILED"
)

// Application lifecycle and collaborator error codes
const (
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeGenerationFailed  = "GENERATION_FAILED"
	ErrCodeAlreadyCompleted  = "ALREADY_COMPLETED"
	ErrCodePersistenceFailed = "PERSISTENCE_FAILED"
	ErrCodeParseFailed       = "PARSE_FAILED"
	ErrCodeSearchFailed      = "SEARCH_FAILED"
	ErrCodeInvalidQuestion   = "INVALID_QUESTION"
	ErrCodeInvalidStatus     = "INVALID_STATUS"
)

var userMessages = map[string]string{
	ErrCodeNotFound:          "Application not found.",
	ErrCodeGenerationFailed:  "Could not generate the test. Please try again.",
	ErrCodeAlreadyCompleted:  "This test has already been completed.",
	ErrCodePersistenceFailed: "Could not save your progress. Please try again.",
	ErrCodeParseFailed:       "Resume saved, but it could not be parsed.",
	ErrCodeSearchFailed:      "Job search failed. Please try again.",
	ErrCodeInvalidQuestion:   "That question does not belong to this test.",
	ErrCodeInvalidStatus:     "That status cannot be set on an application.",
	ErrCodeAIRateLimited:     "Rate limit exceeded. Please try again later.",
	ErrCodeUnsupportedFile:   "Invalid file type. Please upload PDF, Word, or text files.",
}

// UserMessage returns the message shown to end users for err. Errors
// outside the known codes fall back to the AppError message, then to a
// generic text.
func UserMessage(err error) string {
	if HasCode(err, ErrCodeAIRateLimited) {
		return userMessages[ErrCodeAIRateLimited]
	}
	appErr, ok := AsAppError(err)
	if !ok {
		return "Something went wrong. Please try again."
	}
	if msg, ok := userMessages[appErr.Code]; ok {
		return msg
	}
	return appErr.Message
}
