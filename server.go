package qrexec

import (
	"io"
	"os"
)

// Server is the service side of a qrexec call. A qrexec service handler runs
// with its standard input and output connected to the calling qube, so the
// server frames os.Stdin and os.Stdout.
type Server struct {
	*framed
	in io.Closer
}

// Compile-time verification that *Server implements Transport.
var _ Transport = (*Server)(nil)

// NewServer returns a Transport over the current process's standard streams.
//
// Standard input is duplicated and switched to non-blocking mode so that
// Close can interrupt a pending read. Do not read os.Stdin directly while
// the server is open.
func NewServer(opts ...Option) (*Server, error) {
	return NewStreamServer(os.Stdin, os.Stdout, opts...)
}

// NewStreamServer returns a Server reading frames from in and writing them
// to out, for handlers whose caller is connected through other streams than
// the process's own.
//
// If in is an *os.File it is duplicated, the server owns and closes the
// duplicate, and the caller keeps ownership of in. Otherwise Close closes in
// when it implements io.Closer.
func NewStreamServer(in io.Reader, out io.Writer, opts ...Option) (*Server, error) {
	var rc io.ReadCloser

	switch r := in.(type) {
	case *os.File:
		f, err := pollableFile(r)
		if err != nil {
			return nil, err
		}

		rc = f
	case io.ReadCloser:
		rc = r
	default:
		rc = io.NopCloser(r)
	}

	server, err := newServer(rc, out, applyOptions(opts))
	if err != nil {
		_ = rc.Close()

		return nil, err
	}

	return server, nil
}

func newServer(in io.ReadCloser, out io.Writer, options *Options) (*Server, error) {
	resolved, err := resolveOptions(options)
	if err != nil {
		return nil, err
	}

	log := resolved.logger.With("component", "qrexec_server")

	metrics, err := resolved.metrics("server")
	if err != nil {
		return nil, err
	}

	f, err := newFramed(log, in, out, resolved, metrics)
	if err != nil {
		return nil, err
	}

	log.Debug("Server transport ready",
		"buffer_size", resolved.bufferSize,
		"max_message_size", resolved.maxMessageSize,
	)

	return &Server{framed: f, in: in}, nil
}

// Close closes the server's input so a blocked read returns. Further calls
// to the transport return ErrTransportClosed. The output is left open.
func (s *Server) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	s.log.Debug("Closing server transport")

	return s.in.Close()
}
