package qrexec

import "github.com/wagiedev/qrexec-go/internal/errors"

// Re-export error types from internal package

// QrexecError is the base interface for all transport errors.
type QrexecError = errors.QrexecError

// CapacityError indicates a message does not fit in the write buffer.
type CapacityError = errors.CapacityError

// FrameTooLargeError indicates the peer announced a message larger than accepted.
type FrameTooLargeError = errors.FrameTooLargeError

// ExecutableNotFoundError indicates qrexec-client-vm was not found.
type ExecutableNotFoundError = errors.ExecutableNotFoundError

// SpawnError indicates the bridge process failed to start.
type SpawnError = errors.SpawnError

// PipeError indicates one of the bridge's standard streams could not be attached.
type PipeError = errors.PipeError

// ProcessError indicates the bridge process exited unsuccessfully.
type ProcessError = errors.ProcessError

// InvalidArgumentError indicates a target or service name was rejected.
type InvalidArgumentError = errors.InvalidArgumentError

// Re-export sentinel errors from internal package.
var (
	// ErrShortHeader indicates the stream ended part way through a message header.
	ErrShortHeader = errors.ErrShortHeader

	// ErrShortBody indicates the stream ended before the announced message length.
	ErrShortBody = errors.ErrShortBody

	// ErrCapacityExceeded indicates a message does not fit in the write buffer.
	ErrCapacityExceeded = errors.ErrCapacityExceeded

	// ErrFrameTooLarge indicates the peer announced a message larger than accepted.
	ErrFrameTooLarge = errors.ErrFrameTooLarge

	// ErrInvalidCapacity indicates a buffer size too small to hold a header.
	ErrInvalidCapacity = errors.ErrInvalidCapacity

	// ErrTransportClosed indicates the transport has been closed.
	ErrTransportClosed = errors.ErrTransportClosed
)
