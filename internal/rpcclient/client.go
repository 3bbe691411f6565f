// Package rpcclient provides a JSON-RPC 2.0 client for klingswap nodes.
package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/Klingon-tech/klingswap/internal/escrow"
	"github.com/Klingon-tech/klingswap/internal/processor"
	"github.com/Klingon-tech/klingswap/internal/rpc"
)

// DefaultTimeout bounds a call when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 8 << 20

// Client is a JSON-RPC 2.0 HTTP client. It is safe for concurrent use.
type Client struct {
	endpoint string
	http     *http.Client
	nextID   atomic.Uint64
}

// New creates a new RPC client targeting the given endpoint URL.
func New(endpoint string) *Client {
	return NewWithTimeout(endpoint, DefaultTimeout)
}

// NewWithTimeout creates a new RPC client with a custom HTTP timeout.
func NewWithTimeout(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
	}
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
	ID      uint64 `json:"id"`
}

type response struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  *struct {
		Code    int            `json:"code"`
		Message string         `json:"message"`
		Data    *rpc.ErrorData `json:"data,omitempty"`
	} `json:"error,omitempty"`
	ID uint64 `json:"id"`
}

// RPCError is returned when the server responds with an error. Escrow
// rejections unwrap to an *escrow.Error rebuilt from the error data, and
// replays unwrap to processor.ErrAlreadyApplied, so callers can use
// errors.Is and escrow.KindOf as they would in process.
type RPCError struct {
	Code    int
	Message string
	Data    *rpc.ErrorData
}

func (e *RPCError) Error() string {
	if e.Data != nil && e.Data.Code != 0 {
		return fmt.Sprintf("rpc error %d (%s %d): %s", e.Code, e.Data.Kind, e.Data.Code, e.Message)
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func (e *RPCError) Unwrap() error {
	switch e.Code {
	case rpc.CodeAlreadyApplied:
		return processor.ErrAlreadyApplied
	case rpc.CodeEscrowRejected, rpc.CodeNotFound:
		if e.Data == nil || e.Data.Code == 0 {
			return nil
		}
		kind, cause := escrow.CauseOf(escrow.Code(e.Data.Code))
		if cause == nil {
			return nil
		}
		if k, ok := escrow.ParseKind(e.Data.Kind); ok {
			kind = k
		}
		return &escrow.Error{
			Kind: kind,
			Code: escrow.Code(e.Data.Code),
			Err:  fmt.Errorf("%w: %s", cause, e.Message),
		}
	}
	return nil
}

// HTTPError reports a non-JSON-RPC reply, such as a 403 from the node's
// address filter.
type HTTPError struct {
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Body)
}

// Call invokes a JSON-RPC method and unmarshals the result into the provided pointer.
// If result is nil, the response result is discarded.
func (c *Client) Call(method string, params, result any) error {
	return c.CallContext(context.Background(), method, params, result)
}

// CallContext is Call bounded by ctx as well as the client timeout.
func (c *Client) CallContext(ctx context.Context, method string, params, result any) error {
	id := c.nextID.Add(1)
	body, err := json.Marshal(request{JSONRPC: "2.0", Method: method, Params: params, ID: id})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &HTTPError{Status: resp.StatusCode, Body: string(bytes.TrimSpace(data))}
	}

	var rpcResp response
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if e := rpcResp.Error; e != nil {
		return &RPCError{Code: e.Code, Message: e.Message, Data: e.Data}
	}
	if rpcResp.ID != id {
		return fmt.Errorf("response id %d does not match request %d", rpcResp.ID, id)
	}

	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
	}
	return nil
}

// IsNotFound reports whether err is the node's not-found reply.
func IsNotFound(err error) bool {
	var e *RPCError
	return errors.As(err, &e) && e.Code == rpc.CodeNotFound
}
