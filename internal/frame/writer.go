package frame

import (
	"io"

	"github.com/wagiedev/qrexec-go/internal/errors"
)

// Writer encodes frames into a fixed-capacity buffer and flushes each one
// with a single Write call.
type Writer struct {
	w   io.Writer
	buf []byte
}

// NewWriter returns a Writer over w whose frames, header included, are at
// most capacity bytes. The buffer is allocated once here and reused.
func NewWriter(w io.Writer, capacity int) (*Writer, error) {
	if capacity <= HeaderLen {
		return nil, errors.ErrInvalidCapacity
	}

	return &Writer{w: w, buf: make([]byte, capacity)}, nil
}

// Capacity returns the write buffer size, which bounds header plus body.
func (fw *Writer) Capacity() int {
	return len(fw.buf)
}

// MaxBody returns the largest body a single frame may carry.
func (fw *Writer) MaxBody() int {
	return len(fw.buf) - HeaderLen
}

// WriteFrame sends body as one frame and returns the number of bytes put on
// the wire, header included.
//
// If the frame does not fit in the buffer a *CapacityError is returned and
// neither the buffer nor the stream is touched. Otherwise exactly one Write
// call is made on the underlying stream.
func (fw *Writer) WriteFrame(body []byte) (int, error) {
	total := HeaderLen + len(body)
	if total > len(fw.buf) {
		return 0, &errors.CapacityError{
			BodyLen:  len(body),
			FrameLen: total,
			Capacity: len(fw.buf),
		}
	}

	h := EncodeHeader(uint64(len(body)))
	copy(fw.buf[:HeaderLen], h[:])
	copy(fw.buf[HeaderLen:total], body)

	n, err := fw.w.Write(fw.buf[:total])
	if err != nil {
		return n, err
	}

	if n != total {
		return n, io.ErrShortWrite
	}

	return total, nil
}
