package node

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/Klingon-tech/klingnet-stamp/internal/storage"
	"github.com/Klingon-tech/klingnet-stamp/pkg/block"
	"github.com/Klingon-tech/klingnet-stamp/pkg/tx"
	"github.com/Klingon-tech/klingnet-stamp/pkg/types"
)

// Key prefixes for the ledger store.
var (
	prefixOutput   = []byte("o/") // o/<outputID> -> outputRecord JSON
	prefixUnspent  = []byte("u/") // u/<address><outputID> -> empty (unspent index)
	prefixBlock    = []byte("b/") // b/<blockID> -> block JSON
	prefixIncluded = []byte("t/") // t/<txID> -> blockID
	keyTip         = []byte("m/tip")
	keySeq         = []byte("m/seq")
)

// outputRecord is an output plus its ledger bookkeeping.
type outputRecord struct {
	Output  *tx.Output          `json:"output"`
	BlockID types.BlockID       `json:"blockId"`
	Spent   bool                `json:"spent"`
	SpentBy types.TransactionID `json:"spentBy"`
}

// store persists ledger state in a storage.DB.
type store struct {
	db storage.DB
}

func newStore(db storage.DB) *store {
	return &store{db: db}
}

func outputKey(id types.OutputID) []byte {
	return append(append([]byte{}, prefixOutput...), id.Bytes()...)
}

func unspentPrefix(addr types.Address) []byte {
	return append(append([]byte{}, prefixUnspent...), addr[:]...)
}

func unspentKey(addr types.Address, id types.OutputID) []byte {
	return append(unspentPrefix(addr), id.Bytes()...)
}

func blockKey(id types.BlockID) []byte {
	return append(append([]byte{}, prefixBlock...), id[:]...)
}

func includedKey(id types.TransactionID) []byte {
	return append(append([]byte{}, prefixIncluded...), id[:]...)
}

// getOutput returns storage.ErrNotFound for unknown outputs.
func (s *store) getOutput(id types.OutputID) (*outputRecord, error) {
	data, err := s.db.Get(outputKey(id))
	if err != nil {
		return nil, err
	}
	var rec outputRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("output unmarshal: %w", err)
	}
	return &rec, nil
}

func (s *store) unspentByAddress(addr types.Address) ([]types.OutputID, error) {
	prefix := unspentPrefix(addr)
	var ids []types.OutputID
	err := s.db.ForEach(prefix, func(key, _ []byte) error {
		id, err := types.OutputIDFromBytes(key[len(prefix):])
		if err != nil {
			return fmt.Errorf("corrupt unspent index: %w", err)
		}
		ids = append(ids, id)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(ids, func(a, b types.OutputID) int {
		return bytes.Compare(a.Bytes(), b.Bytes())
	})
	return ids, nil
}

func (s *store) getBlock(id types.BlockID) (*block.Block, error) {
	data, err := s.db.Get(blockKey(id))
	if err != nil {
		return nil, err
	}
	var blk block.Block
	if err := json.Unmarshal(data, &blk); err != nil {
		return nil, fmt.Errorf("block unmarshal: %w", err)
	}
	return &blk, nil
}

func (s *store) includedBlockID(txID types.TransactionID) (types.BlockID, error) {
	data, err := s.db.Get(includedKey(txID))
	if err != nil {
		return types.BlockID{}, err
	}
	var id types.BlockID
	copy(id[:], data)
	return id, nil
}

func (s *store) tip() (types.BlockID, error) {
	data, err := s.db.Get(keyTip)
	if errors.Is(err, storage.ErrNotFound) {
		return types.BlockID{}, nil
	}
	if err != nil {
		return types.BlockID{}, err
	}
	var id types.BlockID
	copy(id[:], data)
	return id, nil
}

// nextSeq returns a monotonically increasing counter, used for block
// nonces and faucet transaction ids.
func (s *store) nextSeq() (uint64, error) {
	var seq uint64
	data, err := s.db.Get(keySeq)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return 0, err
	default:
		if err := json.Unmarshal(data, &seq); err != nil {
			return 0, fmt.Errorf("seq unmarshal: %w", err)
		}
	}
	seq++
	out, _ := json.Marshal(seq)
	if err := s.db.Put(keySeq, out); err != nil {
		return 0, err
	}
	return seq, nil
}

// writer returns an atomic batch when the DB supports one.
func (s *store) writer() storage.Batch {
	if b, ok := s.db.(storage.Batcher); ok {
		return b.NewBatch()
	}
	return storage.NewPrefixDB(s.db, nil).NewBatch()
}

func putOutput(w storage.Batch, id types.OutputID, rec *outputRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("output marshal: %w", err)
	}
	if err := w.Put(outputKey(id), data); err != nil {
		return err
	}
	if rec.Spent {
		return w.Delete(unspentKey(rec.Output.Address, id))
	}
	return w.Put(unspentKey(rec.Output.Address, id), []byte{})
}

// applyBlock records blk, marks consumed outputs spent and creates the
// payload's outputs in one batch.
func (s *store) applyBlock(blk *block.Block, consumed []*outputRecord) error {
	blockID := blk.ID()
	payload := blk.Payload
	txID := payload.ID()

	data, err := json.Marshal(blk)
	if err != nil {
		return fmt.Errorf("block marshal: %w", err)
	}

	w := s.writer()
	if err := w.Put(blockKey(blockID), data); err != nil {
		return err
	}
	if err := w.Put(includedKey(txID), blockID[:]); err != nil {
		return err
	}
	if err := w.Put(keyTip, blockID[:]); err != nil {
		return err
	}
	for i, in := range payload.Essence.Inputs {
		rec := consumed[i]
		rec.Spent = true
		rec.SpentBy = txID
		if err := putOutput(w, in, rec); err != nil {
			return err
		}
	}
	for i, out := range payload.Essence.Outputs {
		rec := &outputRecord{Output: out, BlockID: blockID}
		if err := putOutput(w, types.NewOutputID(txID, uint16(i)), rec); err != nil {
			return err
		}
	}
	return w.Commit()
}
