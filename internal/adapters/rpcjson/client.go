package rpcjson

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/atvirokodosprendimai/studio/internal/platform/apperr"
)

// Client sends one request per connection to a server started with Start.
type Client struct {
	socket      string
	dialTimeout time.Duration
	nextID      atomic.Int64
}

// CallError is an error object returned by the server.
type CallError struct {
	Code    int
	Message string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("rpc error (%d): %s", e.Code, e.Message)
}

// AppCode maps the wire code back to the application error code.
func (e *CallError) AppCode() apperr.Code {
	switch e.Code {
	case CodeValidation, CodeInvalidRequest, CodeParseError:
		return apperr.CodeValidation
	case CodeNotFound, CodeMethodNotFound:
		return apperr.CodeNotFound
	case CodeConflict:
		return apperr.CodeConflict
	default:
		return apperr.CodeInternal
	}
}

type reply struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
	ID      json.Number     `json:"id"`
}

func NewClient(socket string) *Client {
	return &Client{socket: socket, dialTimeout: 5 * time.Second}
}

// Call invokes method with params and decodes the result into out. A nil out
// discards the result. The context deadline, if any, bounds the whole exchange.
func (c *Client) Call(ctx context.Context, method string, params any, out any) error {
	var raw json.RawMessage
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("encode params: %w", err)
		}
		raw = b
	}

	dialer := net.Dialer{Timeout: c.dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", c.socket)
	if err != nil {
		return fmt.Errorf("connect to %s (is `studio serve` running?): %w", c.socket, err)
	}
	defer func() { _ = conn.Close() }()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	id := c.nextID.Add(1)
	if err := json.NewEncoder(conn).Encode(request{JSONRPC: "2.0", Method: method, Params: raw, ID: id}); err != nil {
		return fmt.Errorf("send %s: %w", method, err)
	}

	dec := json.NewDecoder(bufio.NewReader(conn))
	dec.UseNumber()
	var resp reply
	if err := dec.Decode(&resp); err != nil {
		return fmt.Errorf("read %s reply: %w", method, err)
	}
	if resp.Error != nil {
		return &CallError{Code: resp.Error.Code, Message: resp.Error.Message}
	}
	if got, err := resp.ID.Int64(); err != nil || got != id {
		return fmt.Errorf("reply id %q does not match request %d", resp.ID, id)
	}
	if out == nil || len(resp.Result) == 0 {
		return nil
	}
	return json.Unmarshal(resp.Result, out)
}
