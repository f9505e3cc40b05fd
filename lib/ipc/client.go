// Copyright 2026 Tauri Programme within The Commons Conservancy
// SPDX-License-Identifier: Apache-2.0

package ipc

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/tauri-apps/tauri-sub008/lib/codec"
)

// dialTimeout covers only the connect phase.
const dialTimeout = 5 * time.Second

// responseReadTimeout is matched to the server's read and write
// timeouts plus handler time.
const responseReadTimeout = 45 * time.Second

// maxResponseSize matches the server's maxRequestSize.
const maxResponseSize = 1024 * 1024

// InvokeError is returned by Invoke when the server responds with
// ok=false.
type InvokeError struct {
	Command string
	Message string
}

func (e *InvokeError) Error() string {
	return fmt.Sprintf("invoking %q: %s", e.Command, e.Message)
}

// Client sends invocations to a Server. Each Invoke opens a new
// connection.
type Client struct {
	socketPath string
}

// NewClient returns a client for the server listening on socketPath.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// Invoke sends request and decodes the response data into result when
// both are present. A failure response is returned as *InvokeError;
// connection and encoding failures are plain errors.
func (c *Client) Invoke(ctx context.Context, request Request, result any) error {
	response, err := c.send(ctx, request)
	if err != nil {
		return fmt.Errorf("invoking %q on %s: %w", request.Command, c.socketPath, err)
	}
	if !response.OK {
		return &InvokeError{Command: request.Command, Message: response.Error}
	}
	if result != nil && len(response.Data) > 0 {
		if err := codec.Unmarshal(response.Data, result); err != nil {
			return fmt.Errorf("decoding response data for %q: %w", request.Command, err)
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, request Request) (*Response, error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("connecting: %w", err)
	}
	defer conn.Close()

	if err := codec.NewEncoder(conn).Encode(request); err != nil {
		return nil, fmt.Errorf("writing request: %w", err)
	}
	// Half-close so the server's read side sees EOF cleanly.
	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}

	conn.SetReadDeadline(time.Now().Add(responseReadTimeout))
	var response Response
	if err := codec.NewDecoder(io.LimitReader(conn, maxResponseSize)).Decode(&response); err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return &response, nil
}
