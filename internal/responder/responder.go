// Package responder simulates the stamp counterparty on a devnet: it answers
// STAMP requests paid to its request address and sweeps funding payments.
package responder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Klingon-tech/klingnet-stamp/internal/clock"
	"github.com/Klingon-tech/klingnet-stamp/internal/ledger"
	"github.com/Klingon-tech/klingnet-stamp/internal/log"
	"github.com/Klingon-tech/klingnet-stamp/internal/stamp"
	"github.com/Klingon-tech/klingnet-stamp/internal/wallet"
	"github.com/Klingon-tech/klingnet-stamp/pkg/metadata"
	"github.com/Klingon-tech/klingnet-stamp/pkg/tx"
	"github.com/Klingon-tech/klingnet-stamp/pkg/types"
	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
)

// ResponseTag tags the reply payload.
var ResponseTag = []byte("stamp")

// Config sets the quote the responder hands out.
type Config struct {
	AmountToMint uint64
	DailyCost    uint64
	// SkipTTL is how long an output that is not a stamp request is ignored
	// before it is looked at again.
	SkipTTL time.Duration
}

// DefaultConfig returns the devnet quote.
func DefaultConfig() Config {
	return Config{
		AmountToMint: 200_000,
		DailyCost:    50_000,
		SkipTTL:      time.Minute,
	}
}

// Responder answers requests for one counterparty.
type Responder struct {
	client   ledger.Client
	requests wallet.Account
	funding  wallet.Account
	cfg      Config
	skipped  *ttlcache.Cache[types.OutputID, string]
}

// New creates a responder. requests owns the address clients pay stamp
// requests to; funding owns the address quoted for funding payments.
func New(client ledger.Client, requests, funding wallet.Account, cfg Config) *Responder {
	if cfg.SkipTTL <= 0 {
		cfg.SkipTTL = DefaultConfig().SkipTTL
	}
	return &Responder{
		client:   client,
		requests: requests,
		funding:  funding,
		cfg:      cfg,
		skipped: ttlcache.New[types.OutputID, string](
			ttlcache.WithTTL[types.OutputID, string](cfg.SkipTTL),
			ttlcache.WithDisableTouchOnHit[types.OutputID, string](),
		),
	}
}

// Run calls Step every interval until ctx is done.
func (r *Responder) Run(ctx context.Context, interval time.Duration) error {
	go r.skipped.Start()
	defer r.skipped.Stop()

	for {
		if _, err := r.Step(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Responder.Warn().Err(err).Msg("Responder step failed")
		}
		if err := clock.SleepWithContext(ctx, interval); err != nil {
			return err
		}
	}
}

// Step answers every pending request and sweeps pending funding once. It
// returns the number of requests answered.
func (r *Responder) Step(ctx context.Context) (int, error) {
	info, err := r.client.Info(ctx)
	if err != nil {
		return 0, err
	}
	reqAddr, err := r.requests.Address()
	if err != nil {
		return 0, err
	}
	fundAddr, err := r.funding.Address()
	if err != nil {
		return 0, err
	}

	ids, outs, err := r.unspent(ctx, reqAddr)
	if err != nil {
		return 0, err
	}
	answered := 0
	for i, id := range ids {
		if r.skipped.Has(id) {
			continue
		}
		req, ok := parseRequest(outs[i])
		if !ok {
			r.skipped.Set(id, "not a stamp request", ttlcache.DefaultTTL)
			continue
		}
		if err := r.answer(ctx, info, id, outs[i], req, reqAddr, fundAddr); err != nil {
			return answered, fmt.Errorf("answer %s: %w", id, err)
		}
		answered++
	}

	if err := r.sweep(ctx, info, fundAddr, reqAddr); err != nil {
		return answered, fmt.Errorf("sweep funding: %w", err)
	}
	return answered, nil
}

func (r *Responder) unspent(ctx context.Context, addr types.Address) ([]types.OutputID, []*tx.Output, error) {
	ids, err := r.client.BasicOutputIDs(ctx, addr)
	if err != nil || len(ids) == 0 {
		return nil, nil, err
	}
	if len(ids) > tx.MaxInputs {
		ids = ids[:tx.MaxInputs]
	}
	outs, err := r.client.Outputs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	return ids, outs, nil
}

func parseRequest(out *tx.Output) (stamp.Request, bool) {
	if len(out.Metadata) == 0 {
		return stamp.Request{}, false
	}
	var meta stamp.RequestMetadata
	if err := metadata.Unmarshal(out.Metadata, &meta); err != nil {
		return stamp.Request{}, false
	}
	if meta.Request.RequestType != stamp.RequestTypeStamp || meta.Request.URI == "" {
		return stamp.Request{}, false
	}
	return meta.Request, true
}

// answer consumes the request output into a plain output back to the
// request address, carrying the quote as tagged data.
func (r *Responder) answer(ctx context.Context, info *ledger.NodeInfo, id types.OutputID, out *tx.Output, req stamp.Request, reqAddr, fundAddr types.Address) error {
	resp := stamp.Response{
		AmountToMint: r.cfg.AmountToMint,
		DailyCost:    r.cfg.DailyCost,
		Address:      fundAddr.Bech32(info.Bech32HRP),
		Stamp:        uuid.NewString(),
	}
	data, err := metadata.Marshal(stamp.ResponseMetadata{Response: resp})
	if err != nil {
		return err
	}

	payload, err := wallet.Assemble(wallet.AssembleParams{
		NetworkID: info.NetworkID,
		Inputs:    []types.OutputID{id},
		Consumed:  []*tx.Output{out},
		Outputs:   []*tx.Output{tx.NewOutput(out.Amount, reqAddr, nil)},
		Payload:   &tx.TaggedData{Tag: ResponseTag, Data: data},
	}, r.requests)
	if err != nil {
		return err
	}
	blockID, err := r.client.SubmitPayload(ctx, payload)
	if err != nil {
		return err
	}

	log.Responder.Info().
		Str("request", id.String()).
		Str("uri", req.URI).
		Str("stamp", resp.Stamp).
		Str("block", blockID.String()).
		Msg("Stamp request answered")
	return nil
}

// sweep consumes every output paid to the funding address into one output
// at the request address.
func (r *Responder) sweep(ctx context.Context, info *ledger.NodeInfo, fundAddr, to types.Address) error {
	ids, outs, err := r.unspent(ctx, fundAddr)
	if err != nil || len(ids) == 0 {
		return err
	}
	total, err := tx.SumAmounts(outs)
	if err != nil {
		return err
	}

	payload, err := wallet.Assemble(wallet.AssembleParams{
		NetworkID: info.NetworkID,
		Inputs:    ids,
		Consumed:  outs,
		Outputs:   []*tx.Output{tx.NewOutput(total, to, nil)},
	}, r.funding)
	if err != nil {
		return err
	}
	blockID, err := r.client.SubmitPayload(ctx, payload)
	if err != nil {
		return err
	}

	log.Responder.Info().
		Int("outputs", len(ids)).
		Uint64("amount", total).
		Str("block", blockID.String()).
		Msg("Funding swept")
	return nil
}
