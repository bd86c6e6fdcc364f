package rpcjson

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/atvirokodosprendimai/studio/internal/bridge"
	"github.com/atvirokodosprendimai/studio/internal/platform/apperr"
	"github.com/atvirokodosprendimai/studio/internal/platform/logger"
)

const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeValidation     = 40000
	CodeNotFound       = 40400
	CodeConflict       = 40900
	CodeInternal       = 50000
)

type Server struct {
	table    *bridge.Table
	log      *logger.Logger
	listener net.Listener
	path     string

	mu      sync.Mutex
	conns   map[net.Conn]struct{}
	closing bool
	wg      sync.WaitGroup
}

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      any             `json:"id"`
}

type response struct {
	JSONRPC string    `json:"jsonrpc"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
	ID      any       `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Start listens on a unix socket at path, replacing any stale socket file.
func Start(path string, table *bridge.Table, log *logger.Logger) (*Server, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("rpc socket path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(path, 0o600); err != nil {
		_ = ln.Close()
		_ = os.Remove(path)
		return nil, err
	}

	s := NewServer(table, log)
	s.listener = ln
	s.path = path
	go s.serve()
	return s, nil
}

// NewServer builds a server without a listener; ServeConn drives it directly.
func NewServer(table *bridge.Table, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{table: table, log: log, conns: map[net.Conn]struct{}{}}
}

func (s *Server) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.ServeConn(conn)
	}
}

// Close stops accepting, hangs up every open connection and waits for
// in-flight requests to finish. Nothing reaches the table after it returns.
func (s *Server) Close() error {
	s.mu.Lock()
	s.closing = true
	open := make([]net.Conn, 0, len(s.conns))
	for c := range s.conns {
		open = append(open, c)
	}
	s.mu.Unlock()

	var err error
	if s.listener != nil {
		err = s.listener.Close()
		_ = os.Remove(s.path)
	}
	for _, c := range open {
		_ = c.Close()
	}
	s.wg.Wait()
	return err
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	s.wg.Done()
}

func (s *Server) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

// ServeConn answers newline-delimited requests until the peer hangs up or the
// server closes.
func (s *Server) ServeConn(conn net.Conn) {
	if !s.track(conn) {
		_ = conn.Close()
		return
	}
	defer s.untrack(conn)
	defer func() { _ = conn.Close() }()
	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)

	for {
		var req request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) || s.isClosing() {
				return
			}
			_ = enc.Encode(errorResponse(nil, CodeParseError, "parse error"))
			return
		}

		if err := enc.Encode(s.dispatch(context.Background(), req)); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, req request) response {
	if req.JSONRPC != "2.0" || strings.TrimSpace(req.Method) == "" {
		return errorResponse(req.ID, CodeInvalidRequest, "invalid request")
	}

	result, err := s.table.Invoke(ctx, req.Method, req.Params)
	if err != nil {
		return errorResponse(req.ID, errorCode(err), errorMessage(err))
	}
	return response{JSONRPC: "2.0", Result: result, ID: req.ID}
}

func errorCode(err error) int {
	if errors.Is(err, bridge.ErrUnknownOperation) {
		return CodeMethodNotFound
	}
	switch apperr.CodeOf(err) {
	case apperr.CodeValidation:
		return CodeValidation
	case apperr.CodeNotFound:
		return CodeNotFound
	case apperr.CodeConflict:
		return CodeConflict
	default:
		return CodeInternal
	}
}

// errorMessage returns the application message for client errors. Internal
// failures are reported without detail, as on the HTTP side.
func errorMessage(err error) string {
	if errors.Is(err, bridge.ErrUnknownOperation) {
		return "method not found"
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Message() != "" && appErr.Code() != apperr.CodeInternal {
		return appErr.Message()
	}
	return "internal error"
}

func errorResponse(id any, code int, message string) response {
	return response{JSONRPC: "2.0", Error: &rpcError{Code: code, Message: message}, ID: id}
}
