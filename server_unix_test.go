//go:build unix

package qrexec

import (
	"errors"
	"io"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// blockingPipe returns both ends of a pipe in blocking mode, as a qrexec
// service handler finds its standard input.
func blockingPipe(t *testing.T) (*os.File, *os.File) {
	t.Helper()

	var fds [2]int

	require.NoError(t, syscall.Pipe(fds[:]))

	r := os.NewFile(uintptr(fds[0]), "stdin-r")
	w := os.NewFile(uintptr(fds[1]), "stdin-w")

	t.Cleanup(func() {
		_ = r.Close()
		_ = w.Close()
	})

	return r, w
}

func TestNewStreamServer_CloseUnblocksFileRead(t *testing.T) {
	r, w := blockingPipe(t)

	server, err := NewStreamServer(r, io.Discard)
	require.NoError(t, err)

	_, err = w.Write(frameOf("hello"))
	require.NoError(t, err)

	msg, err := server.ReceiveMessage()
	require.NoError(t, err)
	require.Equal(t, "hello", string(msg))

	errCh := make(chan error, 1)

	go func() {
		_, err := server.ReceiveMessage()
		errCh <- err
	}()

	// Let the reader park in the poller.
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, server.Close())

	select {
	case err := <-errCh:
		require.True(t,
			errors.Is(err, os.ErrClosed) || errors.Is(err, ErrTransportClosed),
			"unexpected error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("read on a blocking file did not return after Close")
	}

	// The caller's descriptor is usable and back in blocking mode.
	_, err = w.Write(frameOf("after"))
	require.NoError(t, err)

	buf := make([]byte, HeaderLen+len("after"))

	_, err = io.ReadFull(r, buf)
	require.NoError(t, err)
	require.Equal(t, frameOf("after"), buf)
}

func TestNewStreamServer_ReaderWithoutCloser(t *testing.T) {
	server, err := NewStreamServer(io.MultiReader(inputOf(frameOf("x"))), io.Discard)
	require.NoError(t, err)

	msg, err := server.ReceiveMessage()
	require.NoError(t, err)
	require.Equal(t, "x", string(msg))

	require.NoError(t, server.Close())

	_, err = server.ReceiveMessage()
	require.ErrorIs(t, err, ErrTransportClosed)
}
