// Package ledger defines the boundary between the stamp tools and a ledger
// node: the operations the wallet, poller and orchestrator consume.
package ledger

import (
	"context"

	"github.com/Klingon-tech/klingnet-stamp/pkg/block"
	"github.com/Klingon-tech/klingnet-stamp/pkg/tx"
	"github.com/Klingon-tech/klingnet-stamp/pkg/types"
)

// Client is a connection to one ledger node.
type Client interface {
	// Info returns the node's protocol parameters.
	Info(ctx context.Context) (*NodeInfo, error)
	// BasicOutputIDs lists the unspent basic outputs locked to addr.
	BasicOutputIDs(ctx context.Context, addr types.Address) ([]types.OutputID, error)
	// Outputs fetches outputs by id, in the order requested.
	Outputs(ctx context.Context, ids []types.OutputID) ([]*tx.Output, error)
	// OutputMetadata reports the spend state of one output. Returns
	// ErrNotFound when the node has not seen the output.
	OutputMetadata(ctx context.Context, id types.OutputID) (*OutputMetadata, error)
	// SubmitPayload attaches a signed transaction to a new block.
	SubmitPayload(ctx context.Context, payload *tx.Payload) (types.BlockID, error)
	// Block fetches a block by id.
	Block(ctx context.Context, id types.BlockID) (*block.Block, error)
	// IncludedBlock fetches the block that carried transaction txID.
	IncludedBlock(ctx context.Context, txID types.TransactionID) (*block.Block, error)
	// Close releases the connection.
	Close() error
}

// NodeInfo describes the network a node serves.
type NodeInfo struct {
	Name            string           `json:"name"`
	Version         string           `json:"version"`
	NetworkName     string           `json:"networkName"`
	NetworkID       uint64           `json:"networkId"`
	Bech32HRP       string           `json:"bech32Hrp"`
	ProtocolVersion byte             `json:"protocolVersion"`
	Rent            tx.RentStructure `json:"rentStructure"`
}

// Params returns the parameters payloads are validated against.
func (i *NodeInfo) Params() tx.Params {
	return tx.Params{NetworkID: i.NetworkID, Rent: i.Rent}
}

// OutputMetadata is the spend state of an output.
type OutputMetadata struct {
	OutputID           types.OutputID      `json:"outputId"`
	BlockID            types.BlockID       `json:"blockId"`
	IsSpent            bool                `json:"isSpent"`
	TransactionIDSpent types.TransactionID `json:"transactionIdSpent"`
}
