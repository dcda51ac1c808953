// Package sdk is a Go client for the pgstudio JSON-RPC endpoint.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
)

// Client talks JSON-RPC 2.0 over HTTP, on TCP or a unix socket.
type Client struct {
	url        string
	httpClient *http.Client
	nextID     atomic.Int64
}

// NewClient creates a client for a full endpoint URL such as
// http://127.0.0.1:7070/rpc.
func NewClient(url string) *Client {
	return &Client{url: url, httpClient: &http.Client{}}
}

// NewClientUnix creates a client that talks HTTP over a unix domain socket.
func NewClientUnix(socketPath string) *Client {
	dial := func(ctx context.Context, _, _ string) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, "unix", socketPath)
	}
	transport := &http.Transport{
		DialContext:         dial,
		DisableCompression:  true,
		MaxIdleConnsPerHost: 2,
	}
	return &Client{url: "http://unix/rpc", httpClient: &http.Client{Transport: transport}}
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
	ID      int64  `json:"id"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *wireError      `json:"error,omitempty"`
	ID      int64           `json:"id"`
}

type wireError struct {
	Code    int64           `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Error is an error reported by the server.
type Error struct {
	Code    int64
	Message string
	// Kind is the server's error kind, e.g. "not_connected" or "query_error".
	Kind string
}

func (e *Error) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("rpc error %d (%s): %s", e.Code, e.Kind, e.Message)
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func (c *Client) call(ctx context.Context, method string, params any, result any) error {
	body, err := json.Marshal(request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var rpcResp response
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error.toError()
	}
	if result != nil && len(rpcResp.Result) > 0 {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("failed to unmarshal result: %w", err)
		}
	}
	return nil
}

func (w *wireError) toError() *Error {
	e := &Error{Code: w.Code, Message: w.Message}
	if len(w.Data) > 0 {
		var data struct {
			Kind string `json:"kind"`
		}
		if json.Unmarshal(w.Data, &data) == nil {
			e.Kind = data.Kind
		}
	}
	return e
}
