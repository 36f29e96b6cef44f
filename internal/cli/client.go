package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/mcoot/creditshop/internal/protocol"
)

// ServerError is an error response from the shop server
type ServerError struct {
	Code    string
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// Client is a session protocol client. It holds one connection and is not
// safe for concurrent use.
type Client struct {
	conn    net.Conn
	reader  *protocol.FrameReader
	writer  *protocol.FrameWriter
	timeout time.Duration
}

// Dial connects to the shop server
func Dial(ctx context.Context, addr string, timeout time.Duration) (*Client, error) {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}
	return &Client{
		conn:    conn,
		reader:  protocol.NewFrameReader(conn, protocol.DefaultMaxFrameBytes),
		writer:  protocol.NewFrameWriter(conn),
		timeout: timeout,
	}, nil
}

// Do sends one request and waits for its response. Error responses are
// returned as *ServerError along with the response itself.
func (c *Client) Do(req protocol.Request) (*protocol.Response, error) {
	if c.timeout > 0 {
		_ = c.conn.SetDeadline(time.Now().Add(c.timeout))
	}

	if err := c.writer.Write(req); err != nil {
		return nil, err
	}

	frame, err := c.reader.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("server closed the connection")
		}
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp protocol.Response
	if err := json.Unmarshal(frame, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if !resp.IsOK() {
		return &resp, &ServerError{Code: resp.Code, Message: resp.Message}
	}
	return &resp, nil
}

// Login authenticates the connection
func (c *Client) Login(nickname string) (*protocol.Response, error) {
	return c.Do(protocol.Request{Action: protocol.ActionLogin, Nickname: nickname})
}

// Close sends quit and closes the connection
func (c *Client) Close() error {
	_, _ = c.Do(protocol.Request{Action: protocol.ActionQuit})
	return c.conn.Close()
}
