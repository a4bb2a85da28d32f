//go:build unix

package qrexec_test

import (
	"context"
	"errors"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"

	qrexec "github.com/wagiedev/qrexec-go"
)

func TestWithClient_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := qrexec.WithClient(ctx, "vault", "my.Echo", func(*qrexec.Client) error {
		t.Error("callback should not be called with cancelled context")

		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestWithClient_ConnectError(t *testing.T) {
	called := false

	err := qrexec.WithClient(context.Background(), "", "my.Echo", func(*qrexec.Client) error {
		called = true

		return nil
	})
	require.False(t, called)

	_, ok := errors.AsType[*qrexec.InvalidArgumentError](err)
	require.True(t, ok, "expected InvalidArgumentError, got %v", err)
}

func TestWithClient_RoundTrip(t *testing.T) {
	bridge, argsFile := echoBridge(t)

	var reply []byte

	err := qrexec.WithClient(context.Background(), "vault", "my.Echo", func(c *qrexec.Client) error {
		if _, err := c.SendMessage([]byte("hello")); err != nil {
			return err
		}

		var err error

		reply, err = c.ReceiveMessage()

		return err
	},
		qrexec.WithBridgePath(bridge),
		qrexec.WithEnv(map[string]string{"ARGS_FILE": argsFile}),
	)
	require.NoError(t, err)
	require.Equal(t, "hello", string(reply))
}

func TestWithClient_CallbackErrorReleasesBridge(t *testing.T) {
	bridge := fakeBridge(t, "exec sleep 30")
	errCallback := errors.New("callback failed")

	var (
		client *qrexec.Client
		pid    int
	)

	err := qrexec.WithClient(context.Background(), "vault", "my.Echo", func(c *qrexec.Client) error {
		client = c
		pid = c.Pid()

		return errCallback
	},
		qrexec.WithBridgePath(bridge),
	)
	require.ErrorIs(t, err, errCallback)
	require.ErrorIs(t, syscall.Kill(pid, 0), syscall.ESRCH)

	_, err = client.SendMessage([]byte("late"))
	require.ErrorIs(t, err, qrexec.ErrTransportClosed)
}

func TestWithClient_PanicReleasesBridge(t *testing.T) {
	bridge := fakeBridge(t, "exec sleep 30")

	var pid int

	require.PanicsWithValue(t, "boom", func() {
		_ = qrexec.WithClient(context.Background(), "vault", "my.Echo", func(c *qrexec.Client) error {
			pid = c.Pid()

			panic("boom")
		},
			qrexec.WithBridgePath(bridge),
		)
	})

	require.Positive(t, pid)
	require.ErrorIs(t, syscall.Kill(pid, 0), syscall.ESRCH)
}
