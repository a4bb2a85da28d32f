package qrexec

import "context"

// WithClient runs fn with a connected client and releases it afterwards.
//
// The bridge process is killed on every exit path, including a panic in fn.
// The error returned by fn is returned unchanged.
//
// Example usage:
//
//	err := qrexec.WithClient(ctx, "vault", "my.Secrets+get", func(c *qrexec.Client) error {
//	    if _, err := c.SendMessage([]byte("api-token")); err != nil {
//	        return err
//	    }
//	    reply, err := c.ReceiveMessage()
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Printf("%s\n", reply)
//	    return nil
//	},
//	    qrexec.WithLogger(log),
//	)
func WithClient(
	ctx context.Context,
	target string,
	service string,
	fn func(*Client) error,
	opts ...Option,
) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	client, err := NewClient(ctx, target, service, opts...)
	if err != nil {
		return err
	}

	defer client.Close()

	return fn(client)
}
