package frame

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/wagiedev/qrexec-go/internal/errors"
)

// Reader reads one frame at a time from an underlying stream.
type Reader struct {
	r       io.Reader
	maxBody uint64
}

// NewReader returns a Reader over r that refuses frames declaring more than
// maxBody body bytes. A maxBody of zero accepts any declared length.
func NewReader(r io.Reader, maxBody uint64) *Reader {
	return &Reader{r: r, maxBody: maxBody}
}

// MaxBody returns the largest body length the reader accepts, or zero when unbounded.
func (fr *Reader) MaxBody() uint64 {
	return fr.maxBody
}

// ReadFrame reads one frame and copies its body into dst, returning the body length.
//
// A stream that ends cleanly on a frame boundary yields io.EOF. A stream that
// ends inside the header or body yields an error matching ErrShortHeader or
// ErrShortBody as well as io.ErrUnexpectedEOF. If the declared length exceeds
// the reader's limit or len(dst), a *FrameTooLargeError is returned and the
// body is left unread. After any error the stream is no longer positioned on
// a frame boundary and must not be read again.
func (fr *Reader) ReadFrame(dst []byte) (int, error) {
	n, err := fr.readHeader()
	if err != nil {
		return 0, err
	}

	if n > uint64(len(dst)) {
		return 0, &errors.FrameTooLargeError{Declared: n, Limit: uint64(len(dst))}
	}

	if err := fr.readBody(dst[:n]); err != nil {
		return 0, err
	}

	return int(n), nil
}

// ReadMessage reads one frame and returns its body in a newly allocated slice
// of exactly the declared length. Errors follow ReadFrame. Large bodies are
// accumulated as they arrive, so a header announcing more than the stream
// carries fails with ErrShortBody instead of allocating the declared size.
func (fr *Reader) ReadMessage() ([]byte, error) {
	n, err := fr.readHeader()
	if err != nil {
		return nil, err
	}

	if n > uint64(maxInt) {
		return nil, &errors.FrameTooLargeError{Declared: n, Limit: uint64(maxInt)}
	}

	if n <= preallocLimit {
		body := make([]byte, n)
		if err := fr.readBody(body); err != nil {
			return nil, err
		}

		return body, nil
	}

	// The header alone is not trusted for the allocation: the buffer grows
	// only as body bytes arrive.
	var body bytes.Buffer

	body.Grow(preallocLimit)

	if _, err := io.CopyN(&body, fr.r, int64(n)); err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %w", errors.ErrShortBody, io.ErrUnexpectedEOF)
		}

		return nil, err
	}

	return body.Bytes(), nil
}

const maxInt = int(^uint(0) >> 1)

// preallocLimit is the largest body ReadMessage allocates up front.
const preallocLimit = 64 << 10

func (fr *Reader) readHeader() (uint64, error) {
	var h Header

	if _, err := io.ReadFull(fr.r, h[:]); err != nil {
		if stderrors.Is(err, io.ErrUnexpectedEOF) {
			return 0, fmt.Errorf("%w: %w", errors.ErrShortHeader, err)
		}

		return 0, err
	}

	n := DecodeHeader(h)
	if fr.maxBody > 0 && n > fr.maxBody {
		return 0, &errors.FrameTooLargeError{Declared: n, Limit: fr.maxBody}
	}

	return n, nil
}

func (fr *Reader) readBody(body []byte) error {
	if len(body) == 0 {
		return nil
	}

	if _, err := io.ReadFull(fr.r, body); err != nil {
		if stderrors.Is(err, io.EOF) || stderrors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: %w", errors.ErrShortBody, io.ErrUnexpectedEOF)
		}

		return err
	}

	return nil
}
