// Package qrexec provides message framing for Qubes OS qrexec services.
//
// A qrexec call connects two processes in different qubes with a pair of
// pipes. Pipes carry bytes, not messages, so this package prefixes every
// message with an 8-byte big-endian length and reads it back one whole
// message at a time.
//
// # Calling a Service
//
// NewClient runs qrexec-client-vm and frames its standard streams. Use
// WithClient to have the bridge process released automatically:
//
//	ctx := context.Background()
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
//	})
//
// # Implementing a Service
//
// A service handler runs with its standard input and output connected to the
// caller. NewServer frames them, and NewStreamServer frames any other pair of
// streams. Closing a server interrupts a read blocked on its input:
//
//	server, err := qrexec.NewServer()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer server.Close()
//
//	buf := make([]byte, server.MaxMessageSize())
//	for {
//	    n, err := server.ReadMessage(buf)
//	    if errors.Is(err, io.EOF) {
//	        return
//	    }
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if _, err := server.SendMessage(buf[:n]); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
// # Message Size
//
// Every message is assembled in a write buffer of WithBufferSize bytes
// (default 64 KiB) and written with a single write call. A message that does
// not fit, header included, fails with *CapacityError before anything is
// written. The client passes the buffer size to the bridge as --buffer-size,
// and by default refuses incoming messages larger than its own limit.
//
// # Error Handling
//
// Errors are typed and can be matched with errors.Is and errors.AsType:
//
//	if _, err := c.SendMessage(data); err != nil {
//	    if capErr, ok := errors.AsType[*qrexec.CapacityError](err); ok {
//	        log.Printf("split the message: %d > %d", capErr.FrameLen, capErr.Capacity)
//	    }
//	}
//
// After a read error the stream position is unknown. Close the transport
// rather than reading again.
package qrexec
