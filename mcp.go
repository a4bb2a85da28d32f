package qrexec

import (
	"context"
	"fmt"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewMCPTransport carries Model Context Protocol traffic over t, one JSON-RPC
// message per frame. A qrexec service handler can serve MCP with
//
//	server, _ := qrexec.NewServer()
//	session, err := mcpServer.Connect(ctx, qrexec.NewMCPTransport(server), nil)
//
// and a client qube can reach it through NewClient.
//
// The returned transport supports a single Connect call.
func NewMCPTransport(t Transport) mcp.Transport {
	return &mcpTransport{t: t}
}

type mcpTransport struct {
	t Transport
}

// Connect implements mcp.Transport.
func (m *mcpTransport) Connect(context.Context) (mcp.Connection, error) {
	return &mcpConn{t: m.t}, nil
}

// mcpConn adapts a Transport to mcp.Connection. The SDK may write from
// several goroutines, so writes are serialized here.
type mcpConn struct {
	t Transport

	writeMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

// Compile-time verification that mcpConn implements mcp.Connection.
var _ mcp.Connection = (*mcpConn)(nil)

// Read implements mcp.Connection.
func (c *mcpConn) Read(ctx context.Context) (jsonrpc.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := c.t.ReceiveMessage()
	if err != nil {
		return nil, err
	}

	msg, err := jsonrpc.DecodeMessage(data)
	if err != nil {
		return nil, fmt.Errorf("decode jsonrpc message: %w", err)
	}

	return msg, nil
}

// Write implements mcp.Connection.
func (c *mcpConn) Write(ctx context.Context, msg jsonrpc.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := jsonrpc.EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode jsonrpc message: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_, err = c.t.SendMessage(data)

	return err
}

// Close implements mcp.Connection.
func (c *mcpConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.t.Close()
	})

	return c.closeErr
}

// SessionID implements mcp.Connection.
func (c *mcpConn) SessionID() string {
	return ""
}
