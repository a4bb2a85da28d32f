// Package errors defines error types for the qrexec transport.
//
// This package provides structured error types for the three failure classes
// of the transport: stream I/O errors while reading or writing frames,
// capacity errors raised before any byte reaches the wire, and
// process-attachment errors raised while spawning the bridge program.
// All error types support unwrapping and can be checked using errors.Is,
// errors.As, and errors.AsType.
package errors
