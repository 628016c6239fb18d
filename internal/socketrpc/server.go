package socketrpc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tinytelemetry/poolstat/internal/model"
)

const (
	// scannerInitBufSize is the initial buffer size for the per-connection scanner (1 MB).
	scannerInitBufSize = 1024 * 1024
	// scannerMaxTokenSize is the maximum token size the scanner will accept (10 MB).
	scannerMaxTokenSize = 10 * 1024 * 1024

	requestTimeout = 30 * time.Second
)

// Server exposes a model.ReadAPI over a Unix domain socket using JSON-RPC 2.0.
type Server struct {
	socketPath string
	api        model.ReadAPI
	listener   net.Listener
	wg         sync.WaitGroup
	quit       chan struct{}
	stopOnce   sync.Once

	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

// NewServer creates a new socket RPC server.
func NewServer(socketPath string, api model.ReadAPI) *Server {
	return &Server{
		socketPath: socketPath,
		api:        api,
		quit:       make(chan struct{}),
		conns:      make(map[net.Conn]struct{}),
	}
}

// Start begins listening on the Unix socket and accepting connections.
func (s *Server) Start() error {
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0755); err != nil {
		return fmt.Errorf("socketrpc: mkdir: %w", err)
	}

	if err := claimSocket(s.socketPath); err != nil {
		return err
	}

	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("socketrpc: listen: %w", err)
	}
	s.listener = ln

	s.wg.Add(1)
	go s.acceptLoop()

	log.Printf("socketrpc: listening on %s", s.socketPath)
	return nil
}

// Stop closes the listener and open connections, waits for handlers to
// return, and removes the socket file. It is safe to call more than once.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.quit)
		if s.listener != nil {
			s.listener.Close()
		}
		s.mu.Lock()
		for conn := range s.conns {
			conn.Close()
		}
		s.mu.Unlock()
		s.wg.Wait()
		os.Remove(s.socketPath)
	})
}

// claimSocket removes a stale socket file left by a crashed process and
// refuses to proceed when a live server still answers on it.
func claimSocket(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	conn, err := net.DialTimeout("unix", path, 500*time.Millisecond)
	if err == nil {
		conn.Close()
		return fmt.Errorf("socketrpc: another server is already listening on %s", path)
	}
	return os.Remove(path)
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
				log.Printf("socketrpc: accept error: %v", err)
				continue
			}
		}
		if !s.track(conn) {
			conn.Close()
			return
		}
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.quit:
		return false
	default:
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer s.untrack(conn)
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, scannerInitBufSize), scannerMaxTokenSize)
	encoder := codec.NewEncoder(conn)

	for scanner.Scan() {
		select {
		case <-s.quit:
			return
		default:
		}

		var req Request
		if err := codec.Unmarshal(scanner.Bytes(), &req); err != nil {
			encoder.Encode(Response{JSONRPC: "2.0", Error: &RPCError{Code: codeParseError, Message: "parse error"}})
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		resp := s.dispatch(ctx, req)
		cancel()
		if err := encoder.Encode(resp); err != nil {
			return
		}
	}
}

// handler answers one method. Params are raw JSON and may be empty.
type handler func(s *Server, ctx context.Context, params []byte) (any, *RPCError, error)

var handlers = map[string]handler{
	"Report": func(s *Server, ctx context.Context, _ []byte) (any, *RPCError, error) {
		report, err := s.api.Report(ctx)
		return report, nil, err
	},
	"Stats": func(s *Server, ctx context.Context, _ []byte) (any, *RPCError, error) {
		stats, _ := s.api.Stats(ctx)
		return stats, nil, nil
	},
	"Diagnostics": func(s *Server, ctx context.Context, _ []byte) (any, *RPCError, error) {
		_, diag := s.api.Stats(ctx)
		return diag, nil, nil
	},
	"History": func(s *Server, ctx context.Context, params []byte) (any, *RPCError, error) {
		var p HistoryParams
		if len(params) > 0 {
			if err := codec.Unmarshal(params, &p); err != nil {
				return nil, &RPCError{Code: codeInvalidParams, Message: fmt.Sprintf("invalid params: %v", err)}, nil
			}
		}
		if p.Window <= 0 || p.Limit <= 0 {
			return nil, &RPCError{Code: codeInvalidParams, Message: "invalid params: Window and Limit must be positive"}, nil
		}
		samples, err := s.api.History(ctx, time.Duration(p.Window), p.Limit)
		return samples, nil, err
	},
}

func (s *Server) dispatch(ctx context.Context, req Request) Response {
	resp := Response{JSONRPC: "2.0", ID: req.ID}

	h, ok := handlers[req.Method]
	if !ok {
		resp.Error = &RPCError{Code: codeMethodNotFound, Message: fmt.Sprintf("method not found: %s", req.Method)}
		return resp
	}

	result, rpcErr, err := h(s, ctx, req.Params)
	switch {
	case rpcErr != nil:
		resp.Error = rpcErr
	case errors.Is(err, model.ErrHistoryDisabled):
		resp.Error = &RPCError{Code: codeHistoryDisabled, Message: err.Error()}
	case err != nil:
		resp.Error = &RPCError{Code: codeApplication, Message: err.Error()}
	default:
		data, merr := codec.Marshal(result)
		if merr != nil {
			resp.Error = &RPCError{Code: codeInternal, Message: merr.Error()}
			break
		}
		resp.Result = data
	}
	return resp
}
