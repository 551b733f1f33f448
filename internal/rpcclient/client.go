// Package rpcclient provides a JSON-RPC 2.0 client for ledger nodes.
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

	"github.com/Klingon-tech/klingnet-stamp/internal/ledger"
	"github.com/Klingon-tech/klingnet-stamp/internal/rpc"
	"github.com/Klingon-tech/klingnet-stamp/pkg/block"
	"github.com/Klingon-tech/klingnet-stamp/pkg/tx"
	"github.com/Klingon-tech/klingnet-stamp/pkg/types"
	"go.uber.org/ratelimit"
)

// DefaultTimeout bounds one HTTP round trip.
const DefaultTimeout = 10 * time.Second

// Client is a JSON-RPC 2.0 HTTP client. It implements ledger.Client.
type Client struct {
	endpoint string
	http     *http.Client
	limiter  ratelimit.Limiter
	nextID   atomic.Int64
}

// Options tune a Client. Zero values select the defaults.
type Options struct {
	Timeout time.Duration
	Rate    int // requests per second, 0 = unlimited
}

// New creates a new RPC client targeting the given endpoint URL.
func New(endpoint string) *Client {
	return NewWithOptions(endpoint, Options{})
}

// NewWithOptions creates a client with a custom HTTP timeout and rate limit.
func NewWithOptions(endpoint string, opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	limiter := ratelimit.NewUnlimited()
	if opts.Rate > 0 {
		limiter = ratelimit.New(opts.Rate)
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
		limiter:  limiter,
	}
}

// request is a JSON-RPC 2.0 request.
type request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
	ID      int64       `json:"id"`
}

// response is a JSON-RPC 2.0 response.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpc.Error      `json:"error,omitempty"`
	ID      int64           `json:"id"`
}

// RPCError is returned when the server responds with an error.
type RPCError struct {
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Unwrap maps server error codes onto the ledger sentinels.
func (e *RPCError) Unwrap() error {
	switch e.Code {
	case rpc.CodeNotFound:
		return ledger.ErrNotFound
	case rpc.CodeRejected:
		return ledger.ErrRejected
	default:
		return nil
	}
}

// Call invokes a JSON-RPC method and unmarshals the result into the provided pointer.
// If result is nil, the response result is discarded. Transport and decoding
// failures, and server errors other than not-found and rejected, are returned
// as *ledger.NetworkError.
func (c *Client) Call(ctx context.Context, method string, params, result interface{}) error {
	req := request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	c.limiter.Take()
	if err := ctx.Err(); err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return ledger.NewNetworkError(method, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return ctxErr
		}
		return ledger.NewNetworkError(method, fmt.Errorf("http request: %w", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return ledger.NewNetworkError(method, fmt.Errorf("read response: %w", err))
	}

	var rpcResp response
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		return ledger.NewNetworkError(method, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err))
	}

	if rpcResp.Error != nil {
		rpcErr := &RPCError{
			Code:    rpcResp.Error.Code,
			Message: rpcResp.Error.Message,
		}
		if rpcErr.Unwrap() == nil {
			return ledger.NewNetworkError(method, rpcErr)
		}
		return rpcErr
	}

	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return ledger.NewNetworkError(method, fmt.Errorf("decode result: %w", err))
		}
	}

	return nil
}

// Info returns the node's protocol parameters.
func (c *Client) Info(ctx context.Context) (*ledger.NodeInfo, error) {
	var info ledger.NodeInfo
	if err := c.Call(ctx, rpc.MethodGetInfo, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// BasicOutputIDs lists the unspent outputs of addr.
func (c *Client) BasicOutputIDs(ctx context.Context, addr types.Address) ([]types.OutputID, error) {
	var res rpc.OutputIDsResult
	if err := c.Call(ctx, rpc.MethodOutputIDsByAddress, rpc.AddressParam{Address: addr.Hex()}, &res); err != nil {
		return nil, err
	}
	return res.Items, nil
}

// Outputs fetches outputs by id.
func (c *Client) Outputs(ctx context.Context, ids []types.OutputID) ([]*tx.Output, error) {
	var res rpc.OutputsResult
	if err := c.Call(ctx, rpc.MethodOutputGet, rpc.OutputIDsParam{OutputIDs: ids}, &res); err != nil {
		return nil, err
	}
	if len(res.Outputs) != len(ids) {
		return nil, ledger.NewNetworkError(rpc.MethodOutputGet,
			fmt.Errorf("asked for %d outputs, got %d", len(ids), len(res.Outputs)))
	}
	return res.Outputs, nil
}

// OutputMetadata reports whether an output has been spent.
func (c *Client) OutputMetadata(ctx context.Context, id types.OutputID) (*ledger.OutputMetadata, error) {
	var meta ledger.OutputMetadata
	if err := c.Call(ctx, rpc.MethodOutputGetMetadata, rpc.OutputIDParam{OutputID: id}, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// SubmitPayload attaches payload to a new block.
func (c *Client) SubmitPayload(ctx context.Context, payload *tx.Payload) (types.BlockID, error) {
	var res rpc.SubmitResult
	if err := c.Call(ctx, rpc.MethodSubmitPayload, rpc.PayloadParam{Payload: payload}, &res); err != nil {
		return types.BlockID{}, err
	}
	return res.BlockID, nil
}

// Block fetches a block by id.
func (c *Client) Block(ctx context.Context, id types.BlockID) (*block.Block, error) {
	var blk block.Block
	if err := c.Call(ctx, rpc.MethodBlockGet, rpc.BlockIDParam{BlockID: id}, &blk); err != nil {
		return nil, err
	}
	return &blk, nil
}

// IncludedBlock fetches the block that carried txID.
func (c *Client) IncludedBlock(ctx context.Context, txID types.TransactionID) (*block.Block, error) {
	var blk block.Block
	if err := c.Call(ctx, rpc.MethodIncludedBlock, rpc.TransactionIDParam{TransactionID: txID}, &blk); err != nil {
		return nil, err
	}
	return &blk, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

var _ ledger.Client = (*Client)(nil)
