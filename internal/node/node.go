// Package node is an embeddable single-process ledger used as a local
// devnet. It validates payloads the way a real node does and serves the
// ledger.Client interface in-process or over JSON-RPC.
package node

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Klingon-tech/klingnet-stamp/internal/ledger"
	"github.com/Klingon-tech/klingnet-stamp/internal/log"
	"github.com/Klingon-tech/klingnet-stamp/internal/storage"
	"github.com/Klingon-tech/klingnet-stamp/pkg/block"
	"github.com/Klingon-tech/klingnet-stamp/pkg/crypto"
	"github.com/Klingon-tech/klingnet-stamp/pkg/tx"
	"github.com/Klingon-tech/klingnet-stamp/pkg/types"
)

// Submission errors. All of them also match ledger.ErrRejected.
var (
	ErrInputNotFound = errors.New("input not found")
	ErrInputSpent    = errors.New("input already spent")
)

// Version is reported by Info.
const Version = "0.1.0"

// Config describes the network the node serves.
type Config struct {
	NetworkName string
	Bech32HRP   string
	Rent        tx.RentStructure
}

// DefaultConfig returns the devnet parameters.
func DefaultConfig() Config {
	return Config{
		NetworkName: "klingnet-stamp-devnet",
		Bech32HRP:   types.DevnetHRP,
		Rent:        tx.DefaultRentStructure(),
	}
}

// Ledger is the devnet node.
type Ledger struct {
	mu    sync.Mutex
	store *store
	info  ledger.NodeInfo
}

// New opens a ledger over db.
func New(db storage.DB, cfg Config) *Ledger {
	return &Ledger{
		store: newStore(db),
		info: ledger.NodeInfo{
			Name:            "stamp-devnet",
			Version:         Version,
			NetworkName:     cfg.NetworkName,
			NetworkID:       tx.NetworkIDFromName(cfg.NetworkName),
			Bech32HRP:       cfg.Bech32HRP,
			ProtocolVersion: block.CurrentVersion,
			Rent:            cfg.Rent,
		},
	}
}

// Faucet creates an unspent output of amount for addr out of thin air.
func (l *Ledger) Faucet(addr types.Address, amount uint64) (types.OutputID, error) {
	out := tx.NewOutput(amount, addr, nil)
	if need := l.info.Rent.MinDeposit(out); amount < need {
		return types.OutputID{}, fmt.Errorf("%w: %d < %d", tx.ErrBelowDeposit, amount, need)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	seq, err := l.store.nextSeq()
	if err != nil {
		return types.OutputID{}, err
	}
	txID := crypto.HashAll([]byte("faucet"), addr[:], []byte(fmt.Sprint(seq)))
	id := types.NewOutputID(txID, 0)

	w := l.store.writer()
	if err := putOutput(w, id, &outputRecord{Output: out}); err != nil {
		return types.OutputID{}, err
	}
	if err := w.Commit(); err != nil {
		return types.OutputID{}, err
	}
	log.Node.Info().
		Str("address", addr.Bech32(l.info.Bech32HRP)).
		Uint64("amount", amount).
		Str("output", id.String()).
		Msg("Faucet output created")
	return id, nil
}

// Info returns the node's protocol parameters.
func (l *Ledger) Info(_ context.Context) (*ledger.NodeInfo, error) {
	info := l.info
	return &info, nil
}

// BasicOutputIDs lists the unspent outputs of addr.
func (l *Ledger) BasicOutputIDs(_ context.Context, addr types.Address) ([]types.OutputID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.unspentByAddress(addr)
}

// Outputs fetches outputs by id.
func (l *Ledger) Outputs(_ context.Context, ids []types.OutputID) ([]*tx.Output, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	outs := make([]*tx.Output, len(ids))
	for i, id := range ids {
		rec, err := l.output(id)
		if err != nil {
			return nil, err
		}
		outs[i] = rec.Output
	}
	return outs, nil
}

// OutputMetadata reports whether an output has been spent.
func (l *Ledger) OutputMetadata(_ context.Context, id types.OutputID) (*ledger.OutputMetadata, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, err := l.output(id)
	if err != nil {
		return nil, err
	}
	return &ledger.OutputMetadata{
		OutputID:           id,
		BlockID:            rec.BlockID,
		IsSpent:            rec.Spent,
		TransactionIDSpent: rec.SpentBy,
	}, nil
}

// SubmitPayload validates payload against the ledger and attaches it to a
// new block on top of the current tip.
func (l *Ledger) SubmitPayload(_ context.Context, payload *tx.Payload) (types.BlockID, error) {
	if payload == nil || payload.Essence == nil {
		return types.BlockID{}, fmt.Errorf("%w: %w", ledger.ErrRejected, tx.ErrNilEssence)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	recs := make([]*outputRecord, len(payload.Essence.Inputs))
	consumed := make([]*tx.Output, len(payload.Essence.Inputs))
	for i, in := range payload.Essence.Inputs {
		rec, err := l.store.getOutput(in)
		if errors.Is(err, storage.ErrNotFound) {
			return types.BlockID{}, fmt.Errorf("%w: input %d (%s): %w", ledger.ErrRejected, i, in, ErrInputNotFound)
		}
		if err != nil {
			return types.BlockID{}, err
		}
		if rec.Spent {
			return types.BlockID{}, fmt.Errorf("%w: input %d (%s): %w", ledger.ErrRejected, i, in, ErrInputSpent)
		}
		recs[i] = rec
		consumed[i] = rec.Output
	}
	if err := payload.VerifyAgainst(consumed, l.info.Params()); err != nil {
		return types.BlockID{}, fmt.Errorf("%w: %w", ledger.ErrRejected, err)
	}

	tip, err := l.store.tip()
	if err != nil {
		return types.BlockID{}, err
	}
	seq, err := l.store.nextSeq()
	if err != nil {
		return types.BlockID{}, err
	}
	blk := block.NewBlock([]types.BlockID{tip}, payload)
	blk.Nonce = seq
	if err := blk.Validate(); err != nil {
		return types.BlockID{}, fmt.Errorf("%w: %w", ledger.ErrRejected, err)
	}
	if err := l.store.applyBlock(blk, recs); err != nil {
		return types.BlockID{}, fmt.Errorf("apply block: %w", err)
	}

	id := blk.ID()
	log.Node.Debug().
		Str("block", id.String()).
		Str("tx", payload.ID().String()).
		Int("inputs", len(consumed)).
		Int("outputs", len(payload.Essence.Outputs)).
		Msg("Block accepted")
	return id, nil
}

// Block fetches a block by id.
func (l *Ledger) Block(_ context.Context, id types.BlockID) (*block.Block, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	blk, err := l.store.getBlock(id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("block %s: %w", id, ledger.ErrNotFound)
	}
	return blk, err
}

// IncludedBlock fetches the block that carried txID.
func (l *Ledger) IncludedBlock(ctx context.Context, txID types.TransactionID) (*block.Block, error) {
	l.mu.Lock()
	id, err := l.store.includedBlockID(txID)
	l.mu.Unlock()
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("transaction %s: %w", txID, ledger.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return l.Block(ctx, id)
}

// Close is a no-op; the owner of the storage closes it.
func (l *Ledger) Close() error {
	return nil
}

// output maps storage misses to ledger.ErrNotFound. Callers hold l.mu.
func (l *Ledger) output(id types.OutputID) (*outputRecord, error) {
	rec, err := l.store.getOutput(id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("output %s: %w", id, ledger.ErrNotFound)
	}
	return rec, err
}

var _ ledger.Client = (*Ledger)(nil)
