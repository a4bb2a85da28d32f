package qrexec

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wagiedev/qrexec-go/internal/config"
	"github.com/wagiedev/qrexec-go/internal/observability"
)

// DefaultBufferSize is the write buffer capacity used when WithBufferSize is not given.
const DefaultBufferSize = config.DefaultBufferSize

// Options holds transport configuration.
type Options = config.Options

// Option configures Options using the functional options pattern.
type Option func(*Options)

// applyOptions applies functional options to an Options struct.
func applyOptions(opts []Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	return options
}

// WithLogger sets the logger for debug output.
// If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithBufferSize sets the write buffer capacity in bytes, header included.
// The largest message that can be sent is size - HeaderLen. For clients the
// size is also passed to the bridge, so both ends agree on the frame limit.
func WithBufferSize(size int) Option {
	return func(o *Options) {
		o.BufferSize = size
	}
}

// WithMaxMessageSize bounds the message length accepted from the peer.
// Messages declaring more are refused before their body is read.
func WithMaxMessageSize(size int) Option {
	return func(o *Options) {
		o.MaxMessageSize = size
	}
}

// WithBridgePath sets the explicit path to qrexec-client-vm.
// If not set, the bridge is searched in PATH and the Qubes install locations.
func WithBridgePath(path string) Option {
	return func(o *Options) {
		o.BridgePath = path
	}
}

// WithLocalProgram asks the bridge to start program with args and connect it
// to the remote service.
func WithLocalProgram(program string, args ...string) Option {
	return func(o *Options) {
		o.LocalProgram = program
		o.LocalProgramArgs = args
	}
}

// WithEnv provides additional environment variables for the bridge process.
func WithEnv(env map[string]string) Option {
	return func(o *Options) {
		o.Env = env
	}
}

// WithMetrics registers frame counters on reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *Options) {
		o.Registerer = reg
	}
}

// resolvedOptions are Options with defaults applied and validated.
type resolvedOptions struct {
	*Options
	logger         *slog.Logger
	bufferSize     int
	maxMessageSize int
}

func resolveOptions(options *Options) (*resolvedOptions, error) {
	r := &resolvedOptions{
		Options:        options,
		logger:         options.Logger,
		bufferSize:     options.BufferSize,
		maxMessageSize: options.MaxMessageSize,
	}

	if r.logger == nil {
		r.logger = NopLogger()
	}

	if r.bufferSize == 0 {
		r.bufferSize = DefaultBufferSize
	}

	if r.bufferSize <= HeaderLen {
		return nil, fmt.Errorf("buffer size %d: %w", r.bufferSize, ErrInvalidCapacity)
	}

	switch {
	case r.maxMessageSize < 0:
		return nil, fmt.Errorf("max message size %d must not be negative", r.maxMessageSize)
	case r.maxMessageSize == 0:
		r.maxMessageSize = r.bufferSize - HeaderLen
	}

	return r, nil
}

func (r *resolvedOptions) metrics(role string) (*observability.Metrics, error) {
	if r.Registerer == nil {
		return nil, nil
	}

	return observability.New(r.Registerer, role)
}

// environment flattens Env into KEY=VALUE pairs in a stable order.
func (r *resolvedOptions) environment() []string {
	if len(r.Env) == 0 {
		return nil
	}

	env := make([]string, 0, len(r.Env))
	for _, key := range slices.Sorted(maps.Keys(r.Env)) {
		env = append(env, key+"="+r.Env[key])
	}

	return env
}
