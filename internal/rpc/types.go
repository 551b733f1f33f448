package rpc

import (
	"encoding/json"

	"github.com/Klingon-tech/klingnet-stamp/pkg/tx"
	"github.com/Klingon-tech/klingnet-stamp/pkg/types"
)

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeNotFound       = -32000
	CodeRejected       = -32001
)

// Method names.
const (
	MethodGetInfo            = "node_getInfo"
	MethodOutputIDsByAddress = "output_idsByAddress"
	MethodOutputGet          = "output_get"
	MethodOutputGetMetadata  = "output_getMetadata"
	MethodSubmitPayload      = "block_submitPayload"
	MethodBlockGet           = "block_get"
	MethodIncludedBlock      = "tx_getIncludedBlock"
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      interface{}     `json:"id"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ── Param types ─────────────────────────────────────────────────────────

// AddressParam is used by output_idsByAddress. Address is bech32 or hex.
type AddressParam struct {
	Address string `json:"address"`
}

// OutputIDsParam is used by output_get.
type OutputIDsParam struct {
	OutputIDs []types.OutputID `json:"outputIds"`
}

// OutputIDParam is used by output_getMetadata.
type OutputIDParam struct {
	OutputID types.OutputID `json:"outputId"`
}

// PayloadParam is used by block_submitPayload.
type PayloadParam struct {
	Payload *tx.Payload `json:"payload"`
}

// BlockIDParam is used by block_get.
type BlockIDParam struct {
	BlockID types.BlockID `json:"blockId"`
}

// TransactionIDParam is used by tx_getIncludedBlock.
type TransactionIDParam struct {
	TransactionID types.TransactionID `json:"transactionId"`
}

// ── Result types ────────────────────────────────────────────────────────

// OutputIDsResult is returned by output_idsByAddress.
type OutputIDsResult struct {
	Items []types.OutputID `json:"items"`
}

// OutputsResult is returned by output_get, in request order.
type OutputsResult struct {
	Outputs []*tx.Output `json:"outputs"`
}

// SubmitResult is returned by block_submitPayload.
type SubmitResult struct {
	BlockID       types.BlockID       `json:"blockId"`
	TransactionID types.TransactionID `json:"transactionId"`
}
