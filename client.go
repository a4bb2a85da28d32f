package qrexec

import (
	"context"
	"fmt"
	"io"

	"github.com/wagiedev/qrexec-go/internal/cli"
	"github.com/wagiedev/qrexec-go/internal/subprocess"
)

// Client calls a qrexec service in another qube by running qrexec-client-vm
// and framing its standard input and output.
//
// The client exclusively owns the bridge process. Close kills it, never
// fails, and is safe to defer; WithClient does this for you.
//
// Example usage:
//
//	client, err := qrexec.NewClient(ctx, "vault", "my.Secrets+get",
//	    qrexec.WithBufferSize(4096),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	if _, err := client.SendMessage([]byte("api-token")); err != nil {
//	    log.Fatal(err)
//	}
//
//	reply, err := client.ReceiveMessage()
type Client struct {
	*framed
	channel *subprocess.Channel
}

// Compile-time verification that *Client implements Transport.
var _ Transport = (*Client)(nil)

// NewClient starts qrexec-client-vm to call service in the target qube.
//
// The service may carry an argument ("my.Service+arg"). Returns
// *InvalidArgumentError for malformed names, *ExecutableNotFoundError if the
// bridge cannot be located, and *SpawnError or *PipeError if the bridge
// cannot be started with all three streams attached. No process is left
// running when an error is returned.
//
// ctx governs the bridge for the client's whole lifetime, not only the
// connection: cancelling it kills the bridge. Pass a context that lives as
// long as the call, and bound the connection attempt some other way.
func NewClient(ctx context.Context, target, service string, opts ...Option) (*Client, error) {
	if err := cli.ValidateTarget(target); err != nil {
		return nil, err
	}

	if err := cli.ValidateService(service); err != nil {
		return nil, err
	}

	resolved, err := resolveOptions(applyOptions(opts))
	if err != nil {
		return nil, err
	}

	log := resolved.logger.With("component", "qrexec_client", "target", target, "service", service)

	metrics, err := resolved.metrics("client")
	if err != nil {
		return nil, err
	}

	discoverer := cli.NewDiscoverer(&cli.Config{
		BridgePath: resolved.BridgePath,
		Logger:     log,
	})

	bridgePath, err := discoverer.Discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover bridge: %w", err)
	}

	args := cli.BuildArgs(
		resolved.bufferSize,
		target,
		service,
		resolved.LocalProgram,
		resolved.LocalProgramArgs,
	)
	log.Debug("Built bridge arguments", "bridge_path", bridgePath, "args", args)

	channel, err := subprocess.Spawn(ctx, log, bridgePath, args, resolved.environment())
	if err != nil {
		return nil, err
	}

	f, err := newFramed(log.With("channel_id", channel.ID()), channel.Stdout(), channel.Stdin(), resolved, metrics)
	if err != nil {
		_ = channel.Close()

		return nil, err
	}

	log.Info("Connected to qrexec service", "pid", channel.Pid(), "channel_id", channel.ID())

	return &Client{framed: f, channel: channel}, nil
}

// ID returns the correlation identifier used in the client's log records.
func (c *Client) ID() string {
	return c.channel.ID()
}

// Pid returns the process id of the bridge.
func (c *Client) Pid() int {
	return c.channel.Pid()
}

// Stderr returns the bridge's standard error. The bridge reports connection
// and policy failures here; callers that want them must drain it.
func (c *Client) Stderr() io.Reader {
	return c.channel.Stderr()
}

// EndInput closes the bridge's standard input, telling the remote service
// that no more messages will be sent. Replies can still be received.
func (c *Client) EndInput() error {
	return c.channel.CloseStdin()
}

// Wait blocks until the bridge exits. A non-zero exit status is returned as
// *ProcessError. Finish receiving before calling Wait.
func (c *Client) Wait() error {
	return c.channel.Wait()
}

// Close kills the bridge process and releases its streams. It always returns
// nil and is safe to call more than once.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	c.log.Debug("Closing client transport")

	return c.channel.Close()
}
