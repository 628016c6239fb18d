// Package noderpc is a minimal Bitcoin Core JSON-RPC client used to read
// the current network difficulty.
package noderpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
)

// DefaultTimeout bounds one RPC round trip.
const DefaultTimeout = 10 * time.Second

// maxResponseBytes caps how much of a node reply is read.
const maxResponseBytes = 1 << 20

// Config holds node connection settings.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Timeout  time.Duration
}

// Enabled reports whether credentials are configured. The node is only
// queried when both user and password are set.
func (c Config) Enabled() bool {
	return c.User != "" && c.Password != ""
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
	ID     int64           `json:"id"`
}

// RPCError is the error object a node returns.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("noderpc: rpc error %d: %s", e.Code, e.Message)
}

// Client calls a Bitcoin Core node over HTTP with basic auth.
type Client struct {
	url      string
	user     string
	password string
	http     *http.Client
	nextID   atomic.Int64
}

// New returns a client for cfg.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	host := cfg.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port == 0 {
		port = 8332
	}
	return &Client{
		url:      "http://" + net.JoinHostPort(host, strconv.Itoa(port)),
		user:     cfg.User,
		password: cfg.Password,
		http:     &http.Client{Timeout: timeout},
	}
}

// newWithURL is used by tests to point the client at an httptest server.
func newWithURL(url, user, password string) *Client {
	return &Client{url: url, user: user, password: password, http: &http.Client{Timeout: DefaultTimeout}}
}

// GetDifficulty returns the current proof-of-work difficulty.
func (c *Client) GetDifficulty(ctx context.Context) (float64, error) {
	var diff float64
	if err := c.callCtx(ctx, "getdifficulty", nil, &diff); err != nil {
		return 0, err
	}
	return diff, nil
}

func (c *Client) callCtx(ctx context.Context, method string, params []any, out any) error {
	if params == nil {
		params = []any{}
	}
	body, err := sonic.Marshal(request{
		JSONRPC: "1.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("noderpc: marshal %s: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("noderpc: build %s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.user, c.password)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("noderpc: %s: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("noderpc: read %s: %w", method, err)
	}

	// Bitcoin Core reports RPC errors with a non-200 status and a JSON body.
	var rpcResp response
	if err := sonic.Unmarshal(data, &rpcResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("noderpc: %s: http %d", method, resp.StatusCode)
		}
		return fmt.Errorf("noderpc: decode %s: %w", method, err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("noderpc: %s: http %d", method, resp.StatusCode)
	}
	if out != nil && len(rpcResp.Result) > 0 {
		if err := sonic.Unmarshal(rpcResp.Result, out); err != nil {
			return fmt.Errorf("noderpc: decode %s result: %w", method, err)
		}
	}
	return nil
}
