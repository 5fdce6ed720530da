// Package errortypes provides the error taxonomy shared by the transport,
// the tool handlers and the dispatcher.
package errortypes

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
)

// Kind identifies which class of failure occurred. The string values are
// what callers see in the response envelope.
type Kind string

// Error kinds
const (
	KindValidation       Kind = "ValidationError"
	KindNotFound         Kind = "NotFoundError"
	KindAuth             Kind = "AuthError"
	KindRemoteValidation Kind = "RemoteValidationError"
	KindTimeout          Kind = "TimeoutError"
	KindTransient        Kind = "TransientServerError"
	KindUnknownOperation Kind = "UnknownOperationError"
	KindInternal         Kind = "InternalError"
	KindConfig           Kind = "ConfigError"
)

// AppError represents an application error with context
type AppError struct {
	Err     error
	Kind    Kind
	Message string

	// Operation is the tool name the error surfaced from, if any.
	Operation string
	// ResourceID is the remote identifier involved, if any.
	ResourceID string
	// Status is the remote HTTP status code, 0 when no response was received.
	Status int
	// Details carries field-level messages reported by the remote API.
	Details []string

	StackInfo string
	Fields    map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		if e.Err == nil || e.Err.Error() == e.Message {
			return e.Message
		}
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

// WithStatus records the remote HTTP status code.
func (e *AppError) WithStatus(status int) *AppError {
	e.Status = status
	return e
}

// WithDetails records field-level messages.
func (e *AppError) WithDetails(details ...string) *AppError {
	e.Details = append(e.Details, details...)
	return e
}

// captureStack captures the stack trace at the call site
func captureStack() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(4, pcs[:])
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

// newAppError creates a new AppError with the given kind, underlying error, and message
func newAppError(kind Kind, err error, message string) *AppError {
	if err == nil {
		err = errors.New(message)
	}

	return &AppError{
		Err:       err,
		Kind:      kind,
		Message:   message,
		StackInfo: captureStack(),
		Fields:    make(map[string]interface{}),
	}
}

// New creates an error of the given kind.
func New(kind Kind, err error, message string) *AppError {
	return newAppError(kind, err, message)
}

// ValidationError creates an error for bad or missing local arguments.
func ValidationError(err error, message string) *AppError {
	return newAppError(KindValidation, err, message)
}

// NotFoundError creates an error for a remote 404.
func NotFoundError(err error, message string) *AppError {
	return newAppError(KindNotFound, err, message)
}

// AuthError creates an error for a remote 401 or 403.
func AuthError(err error, message string) *AppError {
	return newAppError(KindAuth, err, message)
}

// RemoteValidationError creates an error for a request the remote rejected
// as invalid, typically a 422 with field-level messages.
func RemoteValidationError(err error, message string) *AppError {
	return newAppError(KindRemoteValidation, err, message)
}

// TimeoutError creates an error for a call that exceeded its deadline.
func TimeoutError(err error, message string) *AppError {
	return newAppError(KindTimeout, err, message)
}

// TransientServerError creates an error for a remote 5xx or a network failure.
func TransientServerError(err error, message string) *AppError {
	return newAppError(KindTransient, err, message)
}

// UnknownOperationError creates an error for a dispatch to an unregistered name.
func UnknownOperationError(name string) *AppError {
	return newAppError(KindUnknownOperation, nil, fmt.Sprintf("unknown operation %q", name)).
		WithField("operation", name)
}

// InternalError creates a new internal error
func InternalError(err error, message string) *AppError {
	return newAppError(KindInternal, err, message)
}

// ConfigError creates a new configuration error
func ConfigError(err error, message string) *AppError {
	return newAppError(KindConfig, err, message)
}

// KindOf returns the kind of err, or KindInternal for errors outside the taxonomy.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// WithResource attaches a remote identifier to err. Errors outside the
// taxonomy are wrapped as internal errors first.
func WithResource(err error, id interface{}) error {
	if err == nil {
		return nil
	}
	appErr := As(err)
	if appErr.ResourceID == "" {
		appErr.ResourceID = fmt.Sprint(id)
	}
	return appErr
}

// WithOperation attaches the operation name to err unless one is already set.
func WithOperation(err error, operation string) *AppError {
	appErr := As(err)
	if appErr.Operation == "" {
		appErr.Operation = operation
	}
	return appErr
}

// As returns err as an *AppError, wrapping it as an internal error if needed.
func As(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return newAppError(KindInternal, err, err.Error())
}

// LogError logs an AppError using the provided slog.Logger or the default slog logger.
// It logs the error message, kind, stack trace, and any associated fields.
func LogError(logger *slog.Logger, err error) {
	if logger == nil {
		logger = slog.Default()
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		args := []any{"kind", string(appErr.Kind)}
		if appErr.Err != nil {
			args = append(args, "original_error", appErr.Err.Error())
		}
		if appErr.Operation != "" {
			args = append(args, "operation", appErr.Operation)
		}
		if appErr.ResourceID != "" {
			args = append(args, "resource_id", appErr.ResourceID)
		}
		if appErr.Status != 0 {
			args = append(args, "status", appErr.Status)
		}
		if appErr.StackInfo != "" {
			logger.Debug("error stack", "stack", appErr.StackInfo)
		}
		for k, v := range appErr.Fields {
			args = append(args, k, v)
		}
		logger.Error(appErr.Message, args...)
	} else {
		logger.Error(err.Error(), "error", err)
	}
}
