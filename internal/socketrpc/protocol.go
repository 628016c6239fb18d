package socketrpc

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
)

// JSON-RPC 2.0 Method Reference
//
// The socket RPC server exposes model.ReadAPI over a Unix domain socket,
// one newline-delimited JSON document per request and response.
//
//   Method        Params                                     Result
//   ───────────   ────────────────────────────────────────   ─────────────────
//   Report        (none)                                     MetricsReport
//   Stats         (none)                                     StatsResult
//   Diagnostics   (none)                                     Diagnostics
//   History       {Window: time.Duration, Limit: int}        []HashrateSample
//
// Every call re-parses the log; nothing is cached between requests.
//
// Error codes follow JSON-RPC 2.0:
//   -32700  Parse error (malformed JSON)
//   -32601  Method not found
//   -32602  Invalid params
//   -32603  Internal error (marshal failure)
//   -32000  Application error
//   -32001  History disabled

const (
	codeParseError      = -32700
	codeMethodNotFound  = -32601
	codeInvalidParams   = -32602
	codeInternal        = -32603
	codeApplication     = -32000
	codeHistoryDisabled = -32001
)

// codec is the JSON engine for the wire; it keeps encoding/json semantics
// so json.RawMessage and custom marshalers behave the same on both ends.
var codec = sonic.ConfigStd

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string { return e.Message }

// HistoryParams are the parameters of the History method.
type HistoryParams struct {
	Window int64 `json:"Window"`
	Limit  int   `json:"Limit"`
}

// DefaultSocketPath returns the default Unix socket path.
// It prefers $XDG_RUNTIME_DIR/poolstat/poolstat.sock, falling back to
// ~/.local/state/poolstat/poolstat.sock.
func DefaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "poolstat", "poolstat.sock")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "/tmp/poolstat.sock"
	}
	return filepath.Join(home, ".local", "state", "poolstat", "poolstat.sock")
}
