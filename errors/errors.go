package errors

import (
	"errors"
	"fmt"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// --- Common Error Constructors ---

// InvalidConfig creates a new AppError for an invalid configuration field.
func InvalidConfig(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidConfig, Message: fmt.Sprintf("Invalid configuration: %s", reason),
		Retryable: false, Details: details,
	}
}

// UnsupportedOptimizer creates a new AppError for an optimizer name outside the registry.
func UnsupportedOptimizer(name string, supported []string) *AppError {
	return &AppError{
		Code: ErrCodeUnsupportedOptimizer, Message: fmt.Sprintf("Optimizer %q is not supported.", name),
		Retryable: false,
		Details:   map[string]any{"name": name, "supported": supported},
	}
}

// UnsupportedScheduler creates a new AppError for a scheduler name outside the registry.
func UnsupportedScheduler(name string, supported []string) *AppError {
	return &AppError{
		Code: ErrCodeUnsupportedScheduler, Message: fmt.Sprintf("Scheduler %q is not supported.", name),
		Retryable: false,
		Details:   map[string]any{"name": name, "supported": supported},
	}
}

// CheckpointNotFound creates a new AppError for a missing checkpoint path.
func CheckpointNotFound(path string) *AppError {
	return &AppError{
		Code: ErrCodeCheckpointNotFound, Message: "The requested checkpoint was not found.",
		Retryable: false,
		Details:   map[string]any{"path": path},
	}
}

// CheckpointCorrupt creates a new AppError for a checkpoint blob that failed to deserialize.
func CheckpointCorrupt(path string) *AppError {
	return &AppError{
		Code: ErrCodeCheckpointCorrupt, Message: "Checkpoint blob could not be deserialized.",
		Retryable: false,
		Details:   map[string]any{"path": path},
	}
}

// CheckpointWrite creates a new AppError for a failed checkpoint save.
func CheckpointWrite(dir string) *AppError {
	return &AppError{
		Code: ErrCodeCheckpointWrite, Message: "Writing the checkpoint to disk failed.",
		Retryable: true,
		Details:   map[string]any{"dir": dir},
	}
}

// ShapeMismatch creates a new AppError for disagreeing tensor shapes.
func ShapeMismatch(reason string) *AppError {
	return &AppError{
		Code: ErrCodeShapeMismatch, Message: fmt.Sprintf("Shape mismatch: %s", reason),
		Retryable: false,
	}
}

// DeviceTransfer creates a new AppError for a failed device move.
func DeviceTransfer(device string) *AppError {
	return &AppError{
		Code: ErrCodeDeviceTransfer, Message: fmt.Sprintf("Moving batch to device %q failed.", device),
		Retryable: true,
		Details:   map[string]any{"device": device},
	}
}

// RecognitionFailed creates a new AppError for a failed decode pass.
func RecognitionFailed(model string) *AppError {
	return &AppError{
		Code: ErrCodeRecognitionFailed, Message: fmt.Sprintf("Recognition with model %q failed.", model),
		Retryable: false,
		Details:   map[string]any{"model": model},
	}
}

// OutcomeWrite creates a new AppError for a failed outcome-log append.
func OutcomeWrite(path string) *AppError {
	return &AppError{
		Code: ErrCodeOutcomeWrite, Message: "Appending to the outcome log failed.",
		Retryable: true,
		Details:   map[string]any{"path": path},
	}
}

// Internal creates a new AppError for an unexpected internal failure.
func Internal(message string) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: message,
		Retryable: false,
	}
}

// --- Inspection helpers ---

// IsRetryable reports whether err (or any error in its chain) is a retryable AppError.
func IsRetryable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}

// CodeOf returns the ErrorCode of err if it is an AppError, or ErrCodeInternal otherwise.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether err (or any error in its chain) carries the given code.
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
