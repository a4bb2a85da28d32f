// Command qrexec-frame moves line-oriented text over a framed qrexec call.
//
//	qrexec-frame client [-config file] <target> <service>
//	qrexec-frame serve [-config file]
//
// In client mode every line read on standard input is sent as one message
// and every message received is printed as one line. In serve mode the tool
// is a qrexec service handler that echoes each message back to the caller.
package main

import (
	"bufio"
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	qrexec "github.com/wagiedev/qrexec-go"
	"github.com/wagiedev/qrexec-go/internal/config"
	"github.com/wagiedev/qrexec-go/internal/logging"
)

const usage = `usage:
  qrexec-frame client [-config file] <target> <service>
  qrexec-frame serve [-config file]
`

// errPeerClosed ends a session once the remote side has finished sending.
var errPeerClosed = stderrors.New("peer closed the stream")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	early := logging.FromEnv()
	early.Output = stderr
	logging.Configure(early)

	if len(args) == 0 {
		fmt.Fprint(stderr, usage)

		return 2
	}

	var err error

	switch args[0] {
	case "client":
		err = runClient(ctx, args[1:], stdin, stdout, stderr)
	case "serve":
		err = runServe(args[1:], stdin, stdout, stderr)
	default:
		fmt.Fprint(stderr, usage)

		return 2
	}

	if stderrors.Is(err, flag.ErrHelp) {
		return 2
	}

	if err != nil {
		logging.L().Error("qrexec-frame failed", "error", err)

		return 1
	}

	return 0
}

// setup parses the shared flags, loads configuration and configures logging.
func setup(name string, args []string, stderr io.Writer) (*flag.FlagSet, []qrexec.Option, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "path to a YAML configuration file")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		return nil, nil, err
	}

	logging.Configure(logging.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON, Output: stderr})

	log := logging.L().With("mode", name)
	log.Debug("Configuration loaded",
		"config", *configPath,
		"buffer_size", cfg.BufferSize,
		"max_message_size", cfg.MaxMessageSize,
	)

	opts := []qrexec.Option{
		qrexec.WithLogger(log),
		qrexec.WithBufferSize(cfg.BufferSize),
		qrexec.WithMaxMessageSize(cfg.MaxMessageSize),
		qrexec.WithBridgePath(cfg.BridgePath),
	}

	return fs, opts, nil
}

func runClient(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs, opts, err := setup("client", args, stderr)
	if err != nil {
		return err
	}

	if fs.NArg() != 2 {
		fmt.Fprint(stderr, usage)

		return flag.ErrHelp
	}

	client, err := qrexec.NewClient(ctx, fs.Arg(0), fs.Arg(1), opts...)
	if err != nil {
		return err
	}

	defer client.Close()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := sendLines(gCtx, client, stdin); err != nil {
			return err
		}

		return client.EndInput()
	})

	g.Go(func() error {
		return printMessages(client, stdout)
	})

	g.Go(func() error {
		<-gCtx.Done()

		// A hangup by the peer lets the bridge exit on its own and flush stderr.
		if stderrors.Is(context.Cause(gCtx), errPeerClosed) {
			return nil
		}

		return client.Close()
	})

	g.Go(func() error {
		// The bridge reports refused calls on stderr.
		_, _ = io.Copy(stderr, client.Stderr())

		return nil
	})

	if err := g.Wait(); err != nil && !stderrors.Is(err, errPeerClosed) {
		return err
	}

	// The peer hung up; a refused or failed call shows in the exit status.
	_ = client.EndInput()

	return client.Wait()
}

func runServe(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	_, opts, err := setup("serve", args, stderr)
	if err != nil {
		return err
	}

	server, err := qrexec.NewStreamServer(stdin, stdout, opts...)
	if err != nil {
		return err
	}

	defer server.Close()

	if err := echo(server); err != nil && !stderrors.Is(err, errPeerClosed) {
		return err
	}

	return nil
}

// sendLines sends each line of r as one message. Lines are read on their
// own goroutine so cancellation does not wait for input.
func sendLines(ctx context.Context, t qrexec.Transport, r io.Reader) error {
	lines := make(chan []byte)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(r)
		scanner.Buffer(nil, qrexec.DefaultBufferSize)

		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)

			select {
			case lines <- line:
			case <-ctx.Done():
				scanErr <- ctx.Err()

				return
			}
		}

		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return <-scanErr
			}

			if _, err := t.SendMessage(line); err != nil {
				return fmt.Errorf("send line: %w", err)
			}
		}
	}
}

// printMessages prints every received message as one line until the peer
// closes the stream.
func printMessages(t qrexec.Transport, w io.Writer) error {
	out := bufio.NewWriter(w)

	for {
		msg, err := t.ReceiveMessage()
		if stderrors.Is(err, io.EOF) {
			if err := out.Flush(); err != nil {
				return err
			}

			return errPeerClosed
		}

		if err != nil {
			return fmt.Errorf("receive message: %w", err)
		}

		_, _ = out.Write(msg)
		_ = out.WriteByte('\n')

		if err := out.Flush(); err != nil {
			return err
		}
	}
}

// echo sends every received message straight back.
func echo(t qrexec.Transport) error {
	for {
		msg, err := t.ReceiveMessage()
		if stderrors.Is(err, io.EOF) {
			return errPeerClosed
		}

		if err != nil {
			return fmt.Errorf("receive message: %w", err)
		}

		if _, err := t.SendMessage(msg); err != nil {
			return fmt.Errorf("send message: %w", err)
		}
	}
}
