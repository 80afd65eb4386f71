package mcpquic

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/quic-go/quic-go"
)

// Client is an MCP client speaking to a termfix server over QUIC.
type Client struct {
	conn   *quic.Conn
	stream *quic.Stream
	mcp    *client.Client
}

// Dial connects to addr, sends the magic prefix and performs the MCP
// initialize handshake. A nil tlsCfg verifies the server certificate.
func Dial(ctx context.Context, addr string, tlsCfg *tls.Config) (*Client, error) {
	if tlsCfg == nil {
		tlsCfg = ClientTLSConfig(false)
	}
	conn, err := quic.DialAddr(ctx, addr, tlsCfg, QUICConfig())
	if err != nil {
		return nil, fmt.Errorf("quic dial %s: %w", addr, err)
	}
	if alpn := conn.ConnectionState().TLS.NegotiatedProtocol; alpn != ALPN {
		conn.CloseWithError(ConnErrUnsupportedALPN, "bad ALPN")
		return nil, fmt.Errorf("%w (got %q)", ErrUnsupportedALPN, alpn)
	}

	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		conn.CloseWithError(ConnErrProtocol, "open stream")
		return nil, fmt.Errorf("open stream: %w", err)
	}
	c := &Client{conn: conn, stream: stream}
	if err := WriteMagic(stream); err != nil {
		c.Close()
		return nil, err
	}

	c.mcp = client.NewClient(transport.NewIO(stream, stream, io.NopCloser(strings.NewReader(""))))
	if err := c.mcp.Start(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("mcp start: %w", err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "termfix-quic", Version: "1"}

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := c.mcp.Initialize(initCtx, initReq); err != nil {
		c.Close()
		return nil, fmt.Errorf("mcp initialize: %w", err)
	}
	return c, nil
}

// CallTool invokes a tool and returns its text content. A tool-level error
// comes back as a Go error carrying the tool's message.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	if c.mcp == nil {
		return "", ErrNotConnected
	}
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	res, err := c.mcp.CallTool(ctx, req)
	if err != nil {
		return "", fmt.Errorf("call %s: %w", name, err)
	}

	var b strings.Builder
	for _, content := range res.Content {
		if tc, ok := mcp.AsTextContent(content); ok {
			b.WriteString(tc.Text)
		}
	}
	if res.IsError {
		return "", errors.New(b.String())
	}
	return b.String(), nil
}

// ListTools returns the names of the server's tools.
func (c *Client) ListTools(ctx context.Context) ([]string, error) {
	if c.mcp == nil {
		return nil, ErrNotConnected
	}
	res, err := c.mcp.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, err
	}
	names := make([]string, len(res.Tools))
	for i, t := range res.Tools {
		names[i] = t.Name
	}
	return names, nil
}

func (c *Client) Close() error {
	if c.mcp != nil {
		c.mcp.Close()
	}
	if c.stream != nil {
		c.stream.Close()
	}
	return c.conn.CloseWithError(ConnErrNone, "bye")
}
