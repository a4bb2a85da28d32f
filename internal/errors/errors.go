package errors

import (
	"errors"
	"fmt"
)

// QrexecError is the base interface for all transport errors.
type QrexecError interface {
	error
	IsQrexecError() bool
}

// Compile-time verification that all error types implement QrexecError.
var (
	_ QrexecError = (*CapacityError)(nil)
	_ QrexecError = (*FrameTooLargeError)(nil)
	_ QrexecError = (*ExecutableNotFoundError)(nil)
	_ QrexecError = (*SpawnError)(nil)
	_ QrexecError = (*PipeError)(nil)
	_ QrexecError = (*ProcessError)(nil)
	_ QrexecError = (*InvalidArgumentError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrShortHeader indicates the stream ended part way through a frame header.
	ErrShortHeader = errors.New("short frame header")

	// ErrShortBody indicates the stream ended before the declared body length was read.
	ErrShortBody = errors.New("short frame body")

	// ErrCapacityExceeded indicates a frame does not fit in the write buffer.
	ErrCapacityExceeded = errors.New("frame exceeds write buffer capacity")

	// ErrFrameTooLarge indicates a peer declared a body larger than the reader accepts.
	ErrFrameTooLarge = errors.New("declared frame body too large")

	// ErrInvalidCapacity indicates a write buffer too small to hold a header.
	ErrInvalidCapacity = errors.New("write buffer capacity must exceed header length")

	// ErrTransportClosed indicates the transport has been closed.
	ErrTransportClosed = errors.New("transport closed")
)

// CapacityError indicates an outgoing frame is larger than the write buffer.
// Nothing was written to the stream when this error is returned.
type CapacityError struct {
	BodyLen  int
	FrameLen int
	Capacity int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("frame of %d bytes (body %d) exceeds write buffer capacity %d",
		e.FrameLen, e.BodyLen, e.Capacity)
}

func (e *CapacityError) Unwrap() error {
	return ErrCapacityExceeded
}

// IsQrexecError implements QrexecError.
func (e *CapacityError) IsQrexecError() bool { return true }

// FrameTooLargeError indicates a frame header declared more body bytes than
// the reader is willing or able to accept. The body was not consumed.
type FrameTooLargeError struct {
	Declared uint64
	Limit    uint64
}

func (e *FrameTooLargeError) Error() string {
	return fmt.Sprintf("frame declares %d body bytes, limit is %d", e.Declared, e.Limit)
}

func (e *FrameTooLargeError) Unwrap() error {
	return ErrFrameTooLarge
}

// IsQrexecError implements QrexecError.
func (e *FrameTooLargeError) IsQrexecError() bool { return true }

// ExecutableNotFoundError indicates the qrexec bridge binary was not found.
type ExecutableNotFoundError struct {
	SearchedPaths []string
}

func (e *ExecutableNotFoundError) Error() string {
	return fmt.Sprintf("qrexec-client-vm not found in: %v", e.SearchedPaths)
}

// IsQrexecError implements QrexecError.
func (e *ExecutableNotFoundError) IsQrexecError() bool { return true }

// SpawnError indicates the bridge process failed to start.
type SpawnError struct {
	Program string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn %s: %v", e.Program, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// IsQrexecError implements QrexecError.
func (e *SpawnError) IsQrexecError() bool { return true }

// PipeError indicates one of the child's standard streams could not be attached.
// Stream is one of "stdin", "stdout" or "stderr".
type PipeError struct {
	Stream string
	Err    error
}

func (e *PipeError) Error() string {
	return fmt.Sprintf("child process failed to produce %s: %v", e.Stream, e.Err)
}

func (e *PipeError) Unwrap() error {
	return e.Err
}

// IsQrexecError implements QrexecError.
func (e *PipeError) IsQrexecError() bool { return true }

// ProcessError indicates the bridge process exited unsuccessfully.
type ProcessError struct {
	ExitCode int
	Err      error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("bridge process failed (exit %d): %v", e.ExitCode, e.Err)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// IsQrexecError implements QrexecError.
func (e *ProcessError) IsQrexecError() bool { return true }

// InvalidArgumentError indicates a qube or service name was rejected before spawning.
type InvalidArgumentError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// IsQrexecError implements QrexecError.
func (e *InvalidArgumentError) IsQrexecError() bool { return true }
