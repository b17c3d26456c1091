// Package errortypes provides error types and handling for textembed.
package errortypes

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
)

// ErrorType represents the type of error that occurred
type ErrorType string

// Error types
const (
	// ErrorTypeModelLoad covers unreachable or malformed configuration,
	// tokenizer, or weight files during model creation.
	ErrorTypeModelLoad ErrorType = "model_load"

	// ErrorTypeTokenize covers input rejected by the tokenizer.
	ErrorTypeTokenize ErrorType = "tokenize"

	// ErrorTypeInvalidConfig covers invalid chunking or pipeline parameters,
	// detected before any chunking work begins.
	ErrorTypeInvalidConfig ErrorType = "invalid_config"

	// ErrorTypeDegenerateVector covers a pooled chunk vector with zero norm.
	ErrorTypeDegenerateVector ErrorType = "degenerate_vector"

	// ErrorTypeEncode covers encoder invocation failures such as shape
	// mismatches or backend errors.
	ErrorTypeEncode ErrorType = "encode"

	// ErrorTypeDatabase covers embedding cache storage failures.
	ErrorTypeDatabase ErrorType = "database"

	// ErrorTypeConfig covers application configuration failures.
	ErrorTypeConfig ErrorType = "config"

	// ErrorTypeInternal covers everything else.
	ErrorTypeInternal ErrorType = "internal"
)

// AppError represents an application error with context
type AppError struct {
	Err       error
	Type      ErrorType
	Message   string
	StackInfo string
	Fields    map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Err.Error()
}

// Unwrap unwraps the error to support errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithField adds a field to the error for additional context
func (e *AppError) WithField(key string, value interface{}) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	e.Fields[key] = value
	return e
}

// WithFields adds multiple fields to the error for additional context
func (e *AppError) WithFields(fields map[string]interface{}) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]interface{})
	}
	for k, v := range fields {
		e.Fields[k] = v
	}
	return e
}

// captureStack captures the stack trace at the call site
func captureStack() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var builder strings.Builder
	for {
		frame, more := frames.Next()
		// Skip testing and standard library frames
		if !strings.Contains(frame.File, "testing/") && !strings.Contains(frame.File, "/go/src/") {
			fmt.Fprintf(&builder, "%s:%d %s\n", frame.File, frame.Line, frame.Function)
		}
		if !more {
			break
		}
	}
	return builder.String()
}

// newAppError creates a new AppError with the given type, underlying error, and message
func newAppError(errType ErrorType, err error, message string) *AppError {
	if err == nil {
		err = errors.New("unknown error")
	}

	return &AppError{
		Err:       err,
		Type:      errType,
		Message:   message,
		StackInfo: captureStack(),
		Fields:    make(map[string]interface{}),
	}
}

// ModelLoadError creates a new model load error
func ModelLoadError(err error, message string) *AppError {
	return newAppError(ErrorTypeModelLoad, err, message)
}

// TokenizeError creates a new tokenize error
func TokenizeError(err error, message string) *AppError {
	return newAppError(ErrorTypeTokenize, err, message)
}

// InvalidConfigError creates a new invalid pipeline configuration error
func InvalidConfigError(err error, message string) *AppError {
	return newAppError(ErrorTypeInvalidConfig, err, message)
}

// DegenerateVectorError creates a new degenerate vector error
func DegenerateVectorError(err error, message string) *AppError {
	return newAppError(ErrorTypeDegenerateVector, err, message)
}

// EncodeError creates a new encoder error
func EncodeError(err error, message string) *AppError {
	return newAppError(ErrorTypeEncode, err, message)
}

// DatabaseError creates a new database error
func DatabaseError(err error, message string) *AppError {
	return newAppError(ErrorTypeDatabase, err, message)
}

// ConfigError creates a new configuration error
func ConfigError(err error, message string) *AppError {
	return newAppError(ErrorTypeConfig, err, message)
}

// InternalError creates a new internal error
func InternalError(err error, message string) *AppError {
	return newAppError(ErrorTypeInternal, err, message)
}

// LogError logs an AppError using the provided slog.Logger or the default slog logger.
// It logs the error message, type, stack trace, and any associated fields.
func LogError(logger *slog.Logger, err error) {
	if logger == nil {
		logger = slog.Default()
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		args := []any{
			"type", string(appErr.Type),
			"original_error", appErr.Err.Error(),
		}
		if appErr.StackInfo != "" {
			args = append(args, "stack", appErr.StackInfo)
		}
		for k, v := range appErr.Fields {
			args = append(args, k, v)
		}
		logger.Error(appErr.Message, args...)
	} else {
		// For generic errors, log the error message and the error itself
		logger.Error(err.Error(), "error", err)
	}
}

// isType checks whether an error is an AppError of the given type
func isType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// IsModelLoadError checks if an error is a model load error
func IsModelLoadError(err error) bool {
	return isType(err, ErrorTypeModelLoad)
}

// IsTokenizeError checks if an error is a tokenize error
func IsTokenizeError(err error) bool {
	return isType(err, ErrorTypeTokenize)
}

// IsInvalidConfigError checks if an error is an invalid pipeline configuration error
func IsInvalidConfigError(err error) bool {
	return isType(err, ErrorTypeInvalidConfig)
}

// IsDegenerateVectorError checks if an error is a degenerate vector error
func IsDegenerateVectorError(err error) bool {
	return isType(err, ErrorTypeDegenerateVector)
}

// IsEncodeError checks if an error is an encoder error
func IsEncodeError(err error) bool {
	return isType(err, ErrorTypeEncode)
}

// IsDatabaseError checks if an error is a database error
func IsDatabaseError(err error) bool {
	return isType(err, ErrorTypeDatabase)
}

// IsConfigError checks if an error is a configuration error
func IsConfigError(err error) bool {
	return isType(err, ErrorTypeConfig)
}
