package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Configuration errors
const (
	// ErrCodeInvalidConfig indicates the training configuration is invalid.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	// ErrCodeUnsupportedOptimizer indicates an optimizer name outside the registry.
	ErrCodeUnsupportedOptimizer ErrorCode = "UNSUPPORTED_OPTIMIZER"
	// ErrCodeUnsupportedScheduler indicates a scheduler name outside the registry.
	ErrCodeUnsupportedScheduler ErrorCode = "UNSUPPORTED_SCHEDULER"
)

// Checkpoint errors
const (
	// ErrCodeCheckpointNotFound indicates a checkpoint file or version directory is missing.
	ErrCodeCheckpointNotFound ErrorCode = "CHECKPOINT_NOT_FOUND"
	// ErrCodeCheckpointCorrupt indicates a checkpoint blob failed to deserialize.
	ErrCodeCheckpointCorrupt ErrorCode = "CHECKPOINT_CORRUPT"
	// ErrCodeCheckpointWrite indicates a checkpoint save failed on disk.
	ErrCodeCheckpointWrite ErrorCode = "CHECKPOINT_WRITE_FAILED"
)

// Batch-processing errors
const (
	// ErrCodeShapeMismatch indicates tensor shapes disagree with declared lengths.
	ErrCodeShapeMismatch ErrorCode = "SHAPE_MISMATCH"
	// ErrCodeDeviceTransfer indicates moving a batch to the compute device failed.
	ErrCodeDeviceTransfer ErrorCode = "DEVICE_TRANSFER_FAILED"
	// ErrCodeRecognitionFailed indicates the model's decode procedure failed.
	ErrCodeRecognitionFailed ErrorCode = "RECOGNITION_FAILED"
	// ErrCodeOutcomeWrite indicates appending to an outcome transcript log failed.
	ErrCodeOutcomeWrite ErrorCode = "OUTCOME_WRITE_FAILED"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected internal failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeDeviceTransfer:  true,
	ErrCodeCheckpointWrite: true,
	ErrCodeOutcomeWrite:    true,
}

// IsRetryableCode reports whether an error code is considered retryable.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
