package socketrpc

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/tinytelemetry/poolstat/internal/model"
)

const defaultCallTimeout = 30 * time.Second

// Client calls a poolstat socket server using JSON-RPC 2.0.
type Client struct {
	conn    net.Conn
	mu      sync.Mutex
	nextID  int
	scanner *bufio.Scanner
	encoder sonic.Encoder
}

// Dial connects to the socket RPC server at the given path.
func Dial(socketPath string) (*Client, error) {
	conn, err := net.DialTimeout("unix", socketPath, 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("socketrpc: dial: %w", err)
	}
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, scannerInitBufSize), scannerMaxTokenSize)
	return &Client{
		conn:    conn,
		scanner: scanner,
		encoder: codec.NewEncoder(conn),
	}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// call performs a JSON-RPC call and unmarshals the result into dest.
func (c *Client) call(ctx context.Context, method string, params any, dest any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID

	req := Request{JSONRPC: "2.0", ID: id, Method: method}
	if params != nil {
		data, err := codec.Marshal(params)
		if err != nil {
			return fmt.Errorf("socketrpc: marshal params: %w", err)
		}
		req.Params = data
	}

	deadline := time.Now().Add(defaultCallTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	c.conn.SetDeadline(deadline)
	defer c.conn.SetDeadline(time.Time{})

	if err := c.encoder.Encode(req); err != nil {
		return fmt.Errorf("socketrpc: send: %w", err)
	}

	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return fmt.Errorf("socketrpc: read: %w", err)
		}
		return fmt.Errorf("socketrpc: connection closed")
	}

	var resp Response
	if err := codec.Unmarshal(c.scanner.Bytes(), &resp); err != nil {
		return fmt.Errorf("socketrpc: unmarshal response: %w", err)
	}
	if resp.ID != id {
		return fmt.Errorf("socketrpc: response id %d, want %d", resp.ID, id)
	}

	if resp.Error != nil {
		if resp.Error.Code == codeHistoryDisabled {
			return model.ErrHistoryDisabled
		}
		return resp.Error
	}

	if dest != nil {
		if err := codec.Unmarshal(resp.Result, dest); err != nil {
			return fmt.Errorf("socketrpc: unmarshal result: %w", err)
		}
	}
	return nil
}

// Report fetches the combined metrics document.
func (c *Client) Report(ctx context.Context) (*model.MetricsReport, error) {
	var result model.MetricsReport
	if err := c.call(ctx, "Report", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Stats fetches a freshly parsed StatsResult.
func (c *Client) Stats(ctx context.Context) (*model.StatsResult, error) {
	var result model.StatsResult
	if err := c.call(ctx, "Stats", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Diagnostics fetches the diagnostics of a fresh parse.
func (c *Client) Diagnostics(ctx context.Context) (*model.Diagnostics, error) {
	var result model.Diagnostics
	if err := c.call(ctx, "Diagnostics", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// History fetches stored hashrate samples. It returns
// model.ErrHistoryDisabled when the server has no sample store.
func (c *Client) History(ctx context.Context, window time.Duration, limit int) ([]model.HashrateSample, error) {
	var result []model.HashrateSample
	err := c.call(ctx, "History", HistoryParams{Window: int64(window), Limit: limit}, &result)
	return result, err
}
