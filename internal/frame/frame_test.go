package frame

import (
	"bytes"
	stderrors "errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wagiedev/qrexec-go/internal/errors"
)

// spyWriter records every Write call it receives.
type spyWriter struct {
	calls [][]byte
	n     int // if > 0, accept at most n bytes per call
	err   error
}

func (w *spyWriter) Write(p []byte) (int, error) {
	w.calls = append(w.calls, bytes.Clone(p))

	if w.err != nil {
		return 0, w.err
	}

	if w.n > 0 && len(p) > w.n {
		return w.n, nil
	}

	return len(p), nil
}

func frameBytes(body string) []byte {
	h := EncodeHeader(uint64(len(body)))

	return append(h[:], body...)
}

func TestWriteFrame_ReadFrame_RoundTrip(t *testing.T) {
	bodies := [][]byte{
		{},
		[]byte("x"),
		[]byte("hello qube"),
		bytes.Repeat([]byte{0xAB}, 1024-HeaderLen),
	}

	for _, body := range bodies {
		var buf bytes.Buffer

		fw, err := NewWriter(&buf, 1024)
		require.NoError(t, err)

		n, err := fw.WriteFrame(body)
		require.NoError(t, err)
		require.Equal(t, HeaderLen+len(body), n)
		require.Equal(t, HeaderLen+len(body), buf.Len())

		dst := make([]byte, 1024)
		fr := NewReader(&buf, 0)

		got, err := fr.ReadFrame(dst)
		require.NoError(t, err)
		require.Equal(t, len(body), got)
		require.Equal(t, body, dst[:got])
		require.Zero(t, buf.Len())
	}
}

func TestWriteFrame_SingleWriteCall(t *testing.T) {
	spy := &spyWriter{}

	fw, err := NewWriter(spy, 64)
	require.NoError(t, err)

	_, err = fw.WriteFrame([]byte("payload"))
	require.NoError(t, err)

	require.Len(t, spy.calls, 1)
	require.Equal(t, frameBytes("payload"), spy.calls[0])
}

func TestWriteFrame_CapacityBoundary(t *testing.T) {
	spy := &spyWriter{}

	fw, err := NewWriter(spy, 16)
	require.NoError(t, err)
	require.Equal(t, 16, fw.Capacity())
	require.Equal(t, 8, fw.MaxBody())

	n, err := fw.WriteFrame([]byte("12345678"))
	require.NoError(t, err)
	require.Equal(t, 16, n)

	n, err = fw.WriteFrame([]byte("123456789"))
	require.Zero(t, n)
	require.ErrorIs(t, err, errors.ErrCapacityExceeded)

	capErr, ok := stderrors.AsType[*errors.CapacityError](err)
	require.True(t, ok)
	require.Equal(t, 9, capErr.BodyLen)
	require.Equal(t, 17, capErr.FrameLen)
	require.Equal(t, 16, capErr.Capacity)

	require.Len(t, spy.calls, 1, "rejected frame must not reach the sink")
}

func TestWriteFrame_RejectionLeavesBufferUntouched(t *testing.T) {
	spy := &spyWriter{}

	fw, err := NewWriter(spy, 32)
	require.NoError(t, err)

	_, err = fw.WriteFrame([]byte("previous"))
	require.NoError(t, err)

	before := bytes.Clone(fw.buf)

	_, err = fw.WriteFrame(bytes.Repeat([]byte("z"), 100))
	require.ErrorIs(t, err, errors.ErrCapacityExceeded)
	require.Equal(t, before, fw.buf)
	require.Len(t, spy.calls, 1)
}

func TestWriteFrame_ShortWrite(t *testing.T) {
	spy := &spyWriter{n: 4}

	fw, err := NewWriter(spy, 64)
	require.NoError(t, err)

	n, err := fw.WriteFrame([]byte("abcdef"))
	require.ErrorIs(t, err, io.ErrShortWrite)
	require.Equal(t, 4, n)
}

func TestWriteFrame_SinkError(t *testing.T) {
	spy := &spyWriter{err: io.ErrClosedPipe}

	fw, err := NewWriter(spy, 64)
	require.NoError(t, err)

	_, err = fw.WriteFrame([]byte("abc"))
	require.ErrorIs(t, err, io.ErrClosedPipe)
}

func TestNewWriter_InvalidCapacity(t *testing.T) {
	for _, capacity := range []int{-1, 0, HeaderLen} {
		_, err := NewWriter(io.Discard, capacity)
		require.ErrorIs(t, err, errors.ErrInvalidCapacity)
	}

	fw, err := NewWriter(io.Discard, HeaderLen+1)
	require.NoError(t, err)
	require.Equal(t, 1, fw.MaxBody())
}

func TestFrames_PreserveOrder(t *testing.T) {
	var buf bytes.Buffer

	fw, err := NewWriter(&buf, 64)
	require.NoError(t, err)

	for _, body := range []string{"A", "BB", "CCC"} {
		_, err := fw.WriteFrame([]byte(body))
		require.NoError(t, err)
	}

	fr := NewReader(&buf, 0)
	dst := make([]byte, 64)

	for i, want := range []string{"A", "BB", "CCC"} {
		n, err := fr.ReadFrame(dst)
		require.NoError(t, err)
		require.Equal(t, i+1, n)
		require.Equal(t, want, string(dst[:n]))
	}

	_, err = fr.ReadFrame(dst)
	require.ErrorIs(t, err, io.EOF)
}

func TestReadFrame_ShortHeader(t *testing.T) {
	fr := NewReader(bytes.NewReader([]byte{0, 0, 0}), 0)

	_, err := fr.ReadFrame(make([]byte, 16))
	require.ErrorIs(t, err, errors.ErrShortHeader)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReadFrame_CleanEOF(t *testing.T) {
	fr := NewReader(strings.NewReader(""), 0)

	_, err := fr.ReadFrame(make([]byte, 16))
	require.Equal(t, io.EOF, err)
}

func TestReadFrame_ShortBody(t *testing.T) {
	h := EncodeHeader(10)
	stream := append(h[:], "abc"...)

	fr := NewReader(bytes.NewReader(stream), 0)
	dst := make([]byte, 16)

	n, err := fr.ReadFrame(dst)
	require.Zero(t, n)
	require.ErrorIs(t, err, errors.ErrShortBody)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReadFrame_HeaderOnlyThenEOF(t *testing.T) {
	h := EncodeHeader(4)

	fr := NewReader(bytes.NewReader(h[:]), 0)

	msg, err := fr.ReadMessage()
	require.Nil(t, msg)
	require.ErrorIs(t, err, errors.ErrShortBody)
}

func TestReadFrame_ExceedsLimit(t *testing.T) {
	stream := bytes.NewReader(frameBytes("0123456789"))
	fr := NewReader(stream, 4)
	require.Equal(t, uint64(4), fr.MaxBody())

	_, err := fr.ReadFrame(make([]byte, 64))
	require.ErrorIs(t, err, errors.ErrFrameTooLarge)

	tooLarge, ok := stderrors.AsType[*errors.FrameTooLargeError](err)
	require.True(t, ok)
	require.Equal(t, uint64(10), tooLarge.Declared)
	require.Equal(t, uint64(4), tooLarge.Limit)
	require.Equal(t, 10, stream.Len(), "body must be left unread")
}

func TestReadFrame_DestinationTooSmall(t *testing.T) {
	stream := bytes.NewReader(frameBytes("0123456789"))
	fr := NewReader(stream, 0)

	_, err := fr.ReadFrame(make([]byte, 3))

	tooLarge, ok := stderrors.AsType[*errors.FrameTooLargeError](err)
	require.True(t, ok)
	require.Equal(t, uint64(3), tooLarge.Limit)
}

func TestReadMessage_AllocatesExactLength(t *testing.T) {
	var buf bytes.Buffer

	buf.Write(frameBytes("first"))
	buf.Write(frameBytes(""))
	buf.Write(frameBytes("third"))

	fr := NewReader(&buf, 16)

	for _, want := range []string{"first", "", "third"} {
		msg, err := fr.ReadMessage()
		require.NoError(t, err)
		require.Len(t, msg, len(want))
		require.Equal(t, want, string(msg))
	}
}

func TestReadMessage_HugeDeclaredLength(t *testing.T) {
	h := EncodeHeader(^uint64(0))

	fr := NewReader(bytes.NewReader(h[:]), 1<<20)

	_, err := fr.ReadMessage()
	require.ErrorIs(t, err, errors.ErrFrameTooLarge)
}

func TestReadMessage_UnboundedDeclaredLengthBeyondStream(t *testing.T) {
	for _, declared := range []uint64{1 << 62, uint64(maxInt), preallocLimit + 1} {
		h := EncodeHeader(declared)

		fr := NewReader(bytes.NewReader(h[:]), 0)

		msg, err := fr.ReadMessage()
		require.Nil(t, msg)
		require.ErrorIs(t, err, errors.ErrShortBody, "declared %d", declared)
		require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	}
}

func TestReadMessage_LargeBody(t *testing.T) {
	body := strings.Repeat("q", 3*preallocLimit+17)

	fr := NewReader(bytes.NewReader(append(frameBytes(body), frameBytes("next")...)), 0)

	msg, err := fr.ReadMessage()
	require.NoError(t, err)
	require.Len(t, msg, len(body))
	require.Equal(t, body, string(msg))

	msg, err = fr.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, "next", string(msg))
}

func TestReadMessage_LargeBodyTruncated(t *testing.T) {
	data := frameBytes(strings.Repeat("q", 2*preallocLimit))

	fr := NewReader(bytes.NewReader(data[:len(data)-1]), 0)

	_, err := fr.ReadMessage()
	require.ErrorIs(t, err, errors.ErrShortBody)
}

// FuzzReadFrame feeds arbitrary streams to the reader, which must either
// return a body no longer than the stream allows or an error, never panic.
func FuzzReadFrame(f *testing.F) {
	f.Add(frameBytes("hello"))
	f.Add(frameBytes(""))
	f.Add([]byte{0xFF, 0xFF, 0xFF})
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		fr := NewReader(bytes.NewReader(data), 0)

		msg, err := fr.ReadMessage()
		if err != nil {
			return
		}

		if HeaderLen+len(msg) > len(data) {
			t.Fatalf("read %d body bytes from a %d byte stream", len(msg), len(data))
		}
	})
}
