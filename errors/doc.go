// Package errors provides unified error handling for the training harness.
// It implements structured error types with machine-readable codes, cause
// wrapping, and retryable detection so callers can distinguish transient
// failures (device busy, interrupted writes) from permanent ones
// (unsupported optimizer name, corrupt checkpoint).
package errors
