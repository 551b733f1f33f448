package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/Klingon-tech/klingnet-stamp/internal/log"
	"github.com/Klingon-tech/klingnet-stamp/internal/metrics"
	"github.com/Klingon-tech/klingnet-stamp/pkg/block"
	"github.com/Klingon-tech/klingnet-stamp/pkg/tx"
	"github.com/Klingon-tech/klingnet-stamp/pkg/types"
)

// Observed wraps a Client and records every call in Prometheus.
type Observed struct {
	next Client
	m    *metrics.LedgerClient
}

// Observe returns c instrumented with metrics labelled by network.
func Observe(c Client, network string) *Observed {
	return &Observed{next: c, m: metrics.NewLedgerClient(network)}
}

func (o *Observed) Info(ctx context.Context) (info *NodeInfo, err error) {
	defer o.observe("info", &err, time.Now())
	return o.next.Info(ctx)
}

func (o *Observed) BasicOutputIDs(ctx context.Context, addr types.Address) (ids []types.OutputID, err error) {
	defer o.observe("basic_output_ids", &err, time.Now())
	return o.next.BasicOutputIDs(ctx, addr)
}

func (o *Observed) Outputs(ctx context.Context, ids []types.OutputID) (outs []*tx.Output, err error) {
	defer o.observe("outputs", &err, time.Now())
	return o.next.Outputs(ctx, ids)
}

func (o *Observed) OutputMetadata(ctx context.Context, id types.OutputID) (md *OutputMetadata, err error) {
	defer o.observe("output_metadata", &err, time.Now())
	return o.next.OutputMetadata(ctx, id)
}

func (o *Observed) SubmitPayload(ctx context.Context, payload *tx.Payload) (id types.BlockID, err error) {
	defer o.observe("submit_payload", &err, time.Now())
	return o.next.SubmitPayload(ctx, payload)
}

func (o *Observed) Block(ctx context.Context, id types.BlockID) (b *block.Block, err error) {
	defer o.observe("block", &err, time.Now())
	return o.next.Block(ctx, id)
}

func (o *Observed) IncludedBlock(ctx context.Context, txID types.TransactionID) (b *block.Block, err error) {
	defer o.observe("included_block", &err, time.Now())
	return o.next.IncludedBlock(ctx, txID)
}

func (o *Observed) Close() error {
	return o.next.Close()
}

// observe reads *err after the call returns.
func (o *Observed) observe(op string, err *error, started time.Time) {
	o.m.Observe(op, *err, started)
	if *err != nil && !errors.Is(*err, ErrNotFound) {
		log.Ledger.Debug().Err(*err).Str("op", op).Dur("took", time.Since(started)).Msg("Ledger call failed")
	}
}
