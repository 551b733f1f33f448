// Package poller waits for a submitted transaction's primary output to be
// consumed and reads the reply carried by the consuming transaction.
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Klingon-tech/klingnet-stamp/internal/clock"
	"github.com/Klingon-tech/klingnet-stamp/internal/ledger"
	"github.com/Klingon-tech/klingnet-stamp/internal/log"
	"github.com/Klingon-tech/klingnet-stamp/internal/metrics"
	"github.com/Klingon-tech/klingnet-stamp/pkg/tx"
	"github.com/Klingon-tech/klingnet-stamp/pkg/types"
)

// Defaults: 1200 attempts at 500ms is a ten minute ceiling.
const (
	DefaultInterval = 500 * time.Millisecond
	DefaultAttempts = 1200
)

var (
	// ErrPollTimeout means the output was still unspent after every attempt.
	ErrPollTimeout = errors.New("poll timeout: output not spent")
	// ErrNoResponse means the consuming transaction carried no usable reply.
	ErrNoResponse = errors.New("consuming transaction carries no response")
)

// Config bounds the poll loop.
type Config struct {
	Interval time.Duration
	Attempts int
}

// DefaultConfig returns the production bounds.
func DefaultConfig() Config {
	return Config{Interval: DefaultInterval, Attempts: DefaultAttempts}
}

// Poller runs one bounded poll loop at a time against a ledger client.
type Poller struct {
	client   ledger.Client
	interval time.Duration
	attempts int
	sleep    clock.SleepFunc
	metrics  *metrics.Poller
}

// New creates a poller. Non-positive config values select the defaults.
func New(client ledger.Client, cfg Config) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = DefaultAttempts
	}
	return &Poller{
		client:   client,
		interval: cfg.Interval,
		attempts: cfg.Attempts,
		sleep:    clock.SleepWithContext,
		metrics:  metrics.NewPoller(),
	}
}

// WithSleep replaces the suspension between attempts.
func (p *Poller) WithSleep(fn clock.SleepFunc) *Poller {
	p.sleep = fn
	return p
}

// AwaitSpent queries id until it is reported spent and returns the id of
// the consuming transaction. An output the node has not seen yet counts as
// unspent. Exactly one query is made per attempt and there is no wait after
// the last one.
func (p *Poller) AwaitSpent(ctx context.Context, id types.OutputID) (txID types.TransactionID, err error) {
	started := time.Now()
	defer func() { p.metrics.ObserveWait(err, started) }()

	for attempt := 1; attempt <= p.attempts; attempt++ {
		meta, err := p.client.OutputMetadata(ctx, id)
		switch {
		case errors.Is(err, ledger.ErrNotFound):
			p.metrics.ObserveAttempt(metrics.PollNotFound)
		case err != nil:
			p.metrics.ObserveAttempt(metrics.PollError)
			return types.TransactionID{}, fmt.Errorf("output %s metadata: %w", id, err)
		case meta.IsSpent:
			p.metrics.ObserveAttempt(metrics.PollSpent)
			log.Poller.Debug().
				Str("output", id.String()).
				Str("spent_by", meta.TransactionIDSpent.String()).
				Int("attempt", attempt).
				Msg("Output spent")
			return meta.TransactionIDSpent, nil
		default:
			p.metrics.ObserveAttempt(metrics.PollUnspent)
		}

		if attempt == p.attempts {
			break
		}
		if err := p.sleep(ctx, p.interval); err != nil {
			return types.TransactionID{}, err
		}
	}

	log.Poller.Warn().
		Str("output", id.String()).
		Int("attempts", p.attempts).
		Dur("interval", p.interval).
		Msg("Gave up waiting for output to be spent")
	return types.TransactionID{}, fmt.Errorf("%w: %s after %d attempts", ErrPollTimeout, id, p.attempts)
}

// AwaitConsumed waits for the primary output of the transaction in block
// blockID to be spent and returns the consuming transaction.
func (p *Poller) AwaitConsumed(ctx context.Context, blockID types.BlockID) (*tx.Payload, error) {
	blk, err := p.client.Block(ctx, blockID)
	if err != nil {
		return nil, fmt.Errorf("fetch block %s: %w", blockID, err)
	}
	if blk.Payload == nil {
		return nil, fmt.Errorf("block %s carries no transaction", blockID)
	}

	spentBy, err := p.AwaitSpent(ctx, blk.Payload.OutputID(0))
	if err != nil {
		return nil, err
	}

	consuming, err := p.client.IncludedBlock(ctx, spentBy)
	if err != nil {
		return nil, fmt.Errorf("fetch consuming transaction %s: %w", spentBy, err)
	}
	if consuming.Payload == nil || consuming.Payload.Essence == nil {
		return nil, fmt.Errorf("%w: block for %s has no essence", ErrNoResponse, spentBy)
	}
	return consuming.Payload, nil
}

// AwaitResponse waits like AwaitConsumed and decodes the "response" field
// of the consuming transaction's metadata into v.
func (p *Poller) AwaitResponse(ctx context.Context, blockID types.BlockID, v any) error {
	consuming, err := p.AwaitConsumed(ctx, blockID)
	if err != nil {
		return err
	}
	return DecodeResponse(consuming.Essence, v)
}
