package subprocess

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/wagiedev/qrexec-go/internal/errors"
)

// Stream names reported by *errors.PipeError.
const (
	StreamStdin  = "stdin"
	StreamStdout = "stdout"
	StreamStderr = "stderr"
)

// Channel is a spawned child process together with its three standard streams.
type Channel struct {
	id     string
	log    *slog.Logger
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser

	mu          sync.Mutex
	stdinClosed bool
	closed      bool
	state       *os.ProcessState

	waitOnce sync.Once
	waitErr  error
}

// Spawn starts program with args and captures its standard streams.
//
// A nil env inherits the parent's environment. The context kills the child
// if it is cancelled before the channel is closed. Construction is
// all-or-nothing: on failure every pipe already opened is closed and no
// Channel is returned.
func Spawn(
	ctx context.Context,
	log *slog.Logger,
	program string,
	args []string,
	env []string,
) (*Channel, error) {
	id := ulid.Make().String()
	log = log.With("component", "process_channel", "channel_id", id)

	//nolint:gosec // G204: the bridge is launched with caller-supplied arguments by design
	cmd := exec.CommandContext(ctx, program, args...)
	if env != nil {
		cmd.Env = append(os.Environ(), env...)
	}

	var opened []io.Closer

	closeOpened := func() {
		for _, c := range opened {
			_ = c.Close()
		}
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &errors.PipeError{Stream: StreamStdin, Err: err}
	}

	opened = append(opened, stdin)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		closeOpened()

		return nil, &errors.PipeError{Stream: StreamStdout, Err: err}
	}

	opened = append(opened, stdout)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		closeOpened()

		return nil, &errors.PipeError{Stream: StreamStderr, Err: err}
	}

	opened = append(opened, stderr)

	if err := cmd.Start(); err != nil {
		closeOpened()

		return nil, &errors.SpawnError{Program: program, Err: err}
	}

	log.Debug("Process channel started", "program", program, "pid", cmd.Process.Pid)

	return &Channel{
		id:     id,
		log:    log,
		cmd:    cmd,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}, nil
}

// ID returns the channel's correlation identifier.
func (c *Channel) ID() string {
	return c.id
}

// Pid returns the operating system process id of the child.
func (c *Channel) Pid() int {
	return c.cmd.Process.Pid
}

// Stdin returns the child's standard input.
func (c *Channel) Stdin() io.Writer {
	return c.stdin
}

// Stdout returns the child's standard output.
func (c *Channel) Stdout() io.Reader {
	return c.stdout
}

// Stderr returns the child's standard error.
func (c *Channel) Stderr() io.Reader {
	return c.stderr
}

// ProcessState returns the exit state of the child once it has been reaped,
// or nil while it is still running.
func (c *Channel) ProcessState() *os.ProcessState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// CloseStdin closes the child's standard input to signal end of input.
// It is safe to call more than once.
func (c *Channel) CloseStdin() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stdinClosed {
		return nil
	}

	c.stdinClosed = true

	return c.stdin.Close()
}

// Wait blocks until the child exits and reports how it ended. A non-zero
// exit is returned as *errors.ProcessError. Reads from Stdout and Stderr
// must be finished before calling Wait, since Wait closes them.
func (c *Channel) Wait() error {
	c.waitOnce.Do(func() {
		err := c.cmd.Wait()

		c.mu.Lock()
		c.stdinClosed = true
		c.state = c.cmd.ProcessState
		c.mu.Unlock()

		if err == nil {
			return
		}

		exitCode := -1
		if exitErr, ok := stderrors.AsType[*exec.ExitError](err); ok {
			exitCode = exitErr.ExitCode()
		}

		c.waitErr = &errors.ProcessError{ExitCode: exitCode, Err: err}
	})

	return c.waitErr
}

// Close kills the child process and reaps it. Kill failures, for example
// because the child already exited, are absorbed: Close always returns nil
// and is safe to call more than once.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()

		return nil
	}

	c.closed = true
	c.mu.Unlock()

	if err := c.cmd.Process.Kill(); err != nil {
		c.log.Debug("Kill failed, process likely already exited", "error", err)
	}

	_ = c.Wait()

	c.log.Debug("Process channel closed")

	return nil
}
