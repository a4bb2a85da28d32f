// Package config provides configuration types for the qrexec transport.
package config

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultBufferSize is the write buffer capacity used when none is configured.
// It is also passed to the bridge as --buffer-size.
const DefaultBufferSize = 64 * 1024

// Options configures a qrexec transport.
type Options struct {
	// Logger is the slog logger for debug output.
	// If nil, logging is disabled (silent operation).
	Logger *slog.Logger

	// BufferSize is the write buffer capacity in bytes, header included.
	// Zero selects DefaultBufferSize.
	BufferSize int

	// MaxMessageSize bounds the body length accepted from the peer.
	// Zero selects BufferSize minus the header length, matching the peer's
	// own largest frame.
	MaxMessageSize int

	// BridgePath is an explicit path to qrexec-client-vm.
	// If empty, the bridge is searched in PATH and the Qubes install locations.
	BridgePath string

	// LocalProgram is started by the bridge with its streams connected to the
	// remote service. Optional.
	LocalProgram string

	// LocalProgramArgs are the arguments for LocalProgram.
	LocalProgramArgs []string

	// Env provides additional environment variables for the bridge process.
	Env map[string]string

	// Registerer receives the transport's Prometheus collectors. Optional.
	Registerer prometheus.Registerer
}
