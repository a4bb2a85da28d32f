package qrexec

import (
	stderrors "errors"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/wagiedev/qrexec-go/internal/errors"
	"github.com/wagiedev/qrexec-go/internal/frame"
	"github.com/wagiedev/qrexec-go/internal/observability"
)

// HeaderLen is the size of the length prefix preceding every message on the wire.
const HeaderLen = frame.HeaderLen

// Transport exchanges length-framed messages over a pair of byte streams.
//
// There are exactly two implementations: *Server, which frames the current
// process's standard input and output, and *Client, which frames the
// standard streams of a spawned qrexec-client-vm.
//
// The read and write sides use independent streams, so one goroutine may
// receive while another sends. Concurrent sends, or concurrent receives, on
// the same Transport are not supported.
type Transport interface {
	// ReadMessage reads one message into buf and returns its length.
	// It returns io.EOF when the peer closed the stream on a message boundary,
	// and a *FrameTooLargeError if the message does not fit in buf or exceeds
	// the configured maximum. After any error the transport should be closed.
	ReadMessage(buf []byte) (int, error)

	// ReceiveMessage reads one message into a newly allocated slice.
	ReceiveMessage() ([]byte, error)

	// SendMessage writes data as one message using a single write on the
	// underlying stream and returns the bytes written, header included.
	// Messages larger than the write buffer minus HeaderLen fail with a
	// *CapacityError before anything is written.
	SendMessage(data []byte) (int, error)

	// Close releases the transport. It never fails for a client, whose
	// bridge process is killed, and is safe to call more than once.
	Close() error

	transport()
}

// framed is the message layer shared by Server and Client.
type framed struct {
	log     *slog.Logger
	reader  *frame.Reader
	writer  *frame.Writer
	metrics *observability.Metrics
	closed  atomic.Bool
}

func newFramed(
	log *slog.Logger,
	r io.Reader,
	w io.Writer,
	options *resolvedOptions,
	metrics *observability.Metrics,
) (*framed, error) {
	fw, err := frame.NewWriter(w, options.bufferSize)
	if err != nil {
		return nil, err
	}

	return &framed{
		log:     log,
		reader:  frame.NewReader(r, uint64(options.maxMessageSize)),
		writer:  fw,
		metrics: metrics,
	}, nil
}

// ReadMessage implements Transport.
func (f *framed) ReadMessage(buf []byte) (int, error) {
	if f.closed.Load() {
		return 0, errors.ErrTransportClosed
	}

	n, err := f.reader.ReadFrame(buf)
	if err != nil {
		return 0, err
	}

	f.metrics.Received(HeaderLen + n)

	return n, nil
}

// ReceiveMessage implements Transport.
func (f *framed) ReceiveMessage() ([]byte, error) {
	if f.closed.Load() {
		return nil, errors.ErrTransportClosed
	}

	msg, err := f.reader.ReadMessage()
	if err != nil {
		return nil, err
	}

	f.metrics.Received(HeaderLen + len(msg))

	return msg, nil
}

// SendMessage implements Transport.
func (f *framed) SendMessage(data []byte) (int, error) {
	if f.closed.Load() {
		return 0, errors.ErrTransportClosed
	}

	n, err := f.writer.WriteFrame(data)
	if err != nil {
		if stderrors.Is(err, errors.ErrCapacityExceeded) {
			f.metrics.Rejected()
		}

		return n, err
	}

	f.metrics.Sent(n)

	return n, nil
}

// BufferSize returns the write buffer capacity, header included.
func (f *framed) BufferSize() int {
	return f.writer.Capacity()
}

// MaxMessageSize returns the largest message SendMessage accepts.
func (f *framed) MaxMessageSize() int {
	return f.writer.MaxBody()
}

func (f *framed) transport() {}
