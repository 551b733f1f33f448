package stamp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Klingon-tech/klingnet-stamp/internal/clock"
	"github.com/Klingon-tech/klingnet-stamp/internal/ledger"
	"github.com/Klingon-tech/klingnet-stamp/internal/log"
	"github.com/Klingon-tech/klingnet-stamp/internal/metrics"
	"github.com/Klingon-tech/klingnet-stamp/internal/poller"
	"github.com/Klingon-tech/klingnet-stamp/internal/storage"
	"github.com/Klingon-tech/klingnet-stamp/internal/wallet"
	"github.com/Klingon-tech/klingnet-stamp/pkg/types"
	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"github.com/rs/zerolog"
)

// DefaultRequestAmount is paid with the request leg.
const DefaultRequestAmount = 1_000_000

// Archiver packs a directory and returns the archive path.
type Archiver interface {
	Archive(ctx context.Context, dir string) (string, error)
}

// Uploader publishes an archive and returns its URI.
type Uploader interface {
	Upload(ctx context.Context, path string) (string, error)
}

// Dialer opens the ledger connection used for the rest of the run.
type Dialer func(ctx context.Context) (ledger.Client, error)

// Config parameterizes one run.
type Config struct {
	Dir           string
	Counterparty  types.Address
	Days          uint64
	RequestAmount uint64
	Poll          poller.Config
}

// Deps are the run's collaborators.
type Deps struct {
	Archiver Archiver
	Uploader Uploader
	Dial     Dialer
	Account  wallet.Account
	Journal  *Journal        // nil: in-memory, nothing survives the process
	Sleep    clock.SleepFunc // nil: real timers
}

// Result describes a completed run.
type Result struct {
	StampID    string
	Response   Response
	StampBlock types.BlockID
	FundBlock  types.BlockID
	FundAmount uint64
	Resumed    bool
}

// Orchestrator drives one run through the state machine. It is not safe
// for concurrent use and runs once.
type Orchestrator struct {
	cfg     Config
	deps    Deps
	fsm     *fsm.FSM
	metrics *metrics.Orchestrator
	logger  zerolog.Logger

	key         types.Hash
	rec         *Record
	archivePath string
	client      ledger.Client
	result      Result
}

// New validates cfg and creates an orchestrator.
func New(cfg Config, deps Deps) (*Orchestrator, error) {
	if cfg.Dir == "" {
		return nil, errors.New("stamp: directory is required")
	}
	if deps.Archiver == nil || deps.Uploader == nil || deps.Dial == nil || deps.Account == nil {
		return nil, errors.New("stamp: archiver, uploader, dialer and account are required")
	}
	if cfg.Days == 0 {
		cfg.Days = 1
	}
	if cfg.RequestAmount == 0 {
		cfg.RequestAmount = DefaultRequestAmount
	}
	if deps.Journal == nil {
		deps.Journal = NewJournal(storage.NewMemory())
	}
	if deps.Sleep == nil {
		deps.Sleep = clock.SleepWithContext
	}

	runID := uuid.NewString()
	o := &Orchestrator{
		cfg:     cfg,
		deps:    deps,
		metrics: metrics.NewOrchestrator(),
		logger:  log.WithRun(log.Stamp, runID),
	}
	return o, nil
}

// State returns the current state, "" before Run.
func (o *Orchestrator) State() string {
	if o.fsm == nil {
		return ""
	}
	return o.fsm.Current()
}

// Run executes the flow to DONE. On failure the machine ends in FAILED,
// the ledger connection is closed and the error is returned unchanged.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	if o.fsm != nil {
		return nil, errors.New("stamp: orchestrator already ran")
	}
	if err := o.restore(); err != nil {
		o.fsm = NewStateMachine(StateFailed, nil)
		return nil, err
	}
	o.fsm = NewStateMachine(o.rec.State, fsm.Callbacks{
		"enter_state": func(_ context.Context, e *fsm.Event) {
			o.metrics.SetState(e.Dst)
			o.logger.Debug().Str("from", e.Src).Str("to", e.Dst).Msg("State changed")
		},
	})
	o.metrics.SetState(o.fsm.Current())
	defer o.closeClient()

	for {
		event := nextEvent(o.fsm.Current())
		if event == "" {
			break
		}

		started := time.Now()
		err := o.step(ctx, event)
		o.metrics.ObserveStep(event, err, started)
		if err != nil {
			return nil, o.fail(ctx, event, err)
		}
		if err := o.fsm.Event(ctx, event); err != nil {
			return nil, o.fail(ctx, event, fmt.Errorf("transition %s: %w", event, err))
		}
		o.rec.State = o.fsm.Current()
		if resumable(o.rec.State) || o.rec.State == StateDone {
			if err := o.deps.Journal.Save(o.key, o.rec); err != nil {
				o.logger.Warn().Err(err).Msg("Failed to journal run progress")
			}
		}
	}

	o.result.StampID = o.rec.Response.Stamp
	o.result.Response = *o.rec.Response
	o.result.StampBlock = o.rec.StampBlock
	o.result.FundBlock = o.rec.FundBlock
	o.result.FundAmount = o.rec.FundAmount

	o.logger.Info().
		Str("stamp", o.result.StampID).
		Str("fund_block", o.result.FundBlock.String()).
		Uint64("funded", o.result.FundAmount).
		Msg("Stamp funded")
	return &o.result, nil
}

// restore loads the journal record for this run, or starts a fresh one.
func (o *Orchestrator) restore() error {
	sender, err := o.deps.Account.Address()
	if err != nil {
		return err
	}
	o.key = RunKey(o.cfg.Dir, o.cfg.Counterparty, sender)

	rec, err := o.deps.Journal.Load(o.key)
	if err != nil {
		return err
	}
	switch {
	case rec == nil:
	case rec.State == StateDone:
		if err := o.deps.Journal.Clear(o.key); err != nil {
			return err
		}
	case resumable(rec.State):
		o.logger.Info().
			Str("state", rec.State).
			Str("stamp_block", rec.StampBlock.String()).
			Msg("Resuming journaled run")
		o.rec = rec
		o.result.Resumed = true
		return nil
	}

	o.rec = &Record{
		State:        StateInit,
		Dir:          o.cfg.Dir,
		Counterparty: o.cfg.Counterparty.Hex(),
		Sender:       sender.Hex(),
	}
	return nil
}

// step performs the work behind event. The transition fires only after it
// succeeds.
func (o *Orchestrator) step(ctx context.Context, event string) error {
	switch event {
	case EventArchive:
		return o.archive(ctx)
	case EventUpload:
		return o.upload(ctx)
	case EventSendStamp:
		return o.sendStamp(ctx)
	case EventConfirmStamp:
		return o.confirmStamp(ctx)
	case EventSendFund:
		return o.sendFund(ctx)
	case EventConfirmFund:
		return o.confirmFund(ctx)
	case EventFinish:
		o.closeClient()
		return nil
	default:
		return fmt.Errorf("stamp: no step for event %q", event)
	}
}

func (o *Orchestrator) archive(ctx context.Context) error {
	path, err := o.deps.Archiver.Archive(ctx, o.cfg.Dir)
	if err != nil {
		return err
	}
	o.logger.Info().Str("dir", o.cfg.Dir).Str("archive", path).Msg("Directory archived")
	o.archivePath = path
	return nil
}

func (o *Orchestrator) upload(ctx context.Context) error {
	uri, err := o.deps.Uploader.Upload(ctx, o.archivePath)
	if err != nil {
		return err
	}
	o.logger.Info().Str("uri", uri).Msg("Archive uploaded")
	o.rec.URI = uri
	return nil
}

func (o *Orchestrator) sendStamp(ctx context.Context) error {
	sender, err := o.sender(ctx)
	if err != nil {
		return err
	}
	o.logger.Info().
		Str("to", o.cfg.Counterparty.Hex()).
		Uint64("amount", o.cfg.RequestAmount).
		Msg("Sending stamp request")
	blockID, err := sender.Send(ctx, wallet.SendParams{
		To:       o.cfg.Counterparty,
		Amount:   o.cfg.RequestAmount,
		Metadata: NewRequestMetadata(o.rec.URI),
	})
	if err != nil {
		return err
	}
	o.rec.StampBlock = blockID
	return nil
}

func (o *Orchestrator) confirmStamp(ctx context.Context) error {
	p, err := o.poller(ctx)
	if err != nil {
		return err
	}
	o.logger.Info().Str("block", o.rec.StampBlock.String()).Msg("Awaiting stamp response")
	var resp Response
	if err := p.AwaitResponse(ctx, o.rec.StampBlock, &resp); err != nil {
		return err
	}
	if _, err := resp.FundingAddress(); err != nil {
		return err
	}
	amount, err := resp.FundingAmount(o.cfg.Days)
	if err != nil {
		return err
	}
	o.rec.Response = &resp
	o.rec.FundAmount = amount
	o.logger.Info().
		Str("stamp", resp.Stamp).
		Uint64("amount_to_mint", resp.AmountToMint).
		Uint64("daily_cost", resp.DailyCost).
		Msg("Stamp response received")
	return nil
}

func (o *Orchestrator) sendFund(ctx context.Context) error {
	to, err := o.rec.Response.FundingAddress()
	if err != nil {
		return err
	}
	sender, err := o.sender(ctx)
	if err != nil {
		return err
	}
	o.logger.Info().Str("to", to.Hex()).Uint64("amount", o.rec.FundAmount).Msg("Sending stamp funding")
	blockID, err := sender.Send(ctx, wallet.SendParams{To: to, Amount: o.rec.FundAmount})
	if err != nil {
		return err
	}
	o.rec.FundBlock = blockID
	return nil
}

func (o *Orchestrator) confirmFund(ctx context.Context) error {
	p, err := o.poller(ctx)
	if err != nil {
		return err
	}
	o.logger.Info().Str("block", o.rec.FundBlock.String()).Msg("Awaiting funding confirmation")
	_, err = p.AwaitConsumed(ctx, o.rec.FundBlock)
	return err
}

// fail moves the machine to FAILED and returns err. The journal keeps the
// last completed state so a rerun can resume.
func (o *Orchestrator) fail(ctx context.Context, event string, err error) error {
	from := o.fsm.Current()
	if ferr := o.fsm.Event(ctx, EventFail); ferr != nil {
		o.fsm.SetState(StateFailed)
	}
	o.closeClient()
	o.logger.Error().Err(err).Str("state", from).Str("event", event).Msg("Stamp run failed")
	return err
}

// connect opens the ledger connection once per run.
func (o *Orchestrator) connect(ctx context.Context) (ledger.Client, error) {
	if o.client != nil {
		return o.client, nil
	}
	client, err := o.deps.Dial(ctx)
	if err != nil {
		return nil, err
	}
	o.client = client
	return client, nil
}

func (o *Orchestrator) closeClient() {
	if o.client == nil {
		return
	}
	if err := o.client.Close(); err != nil {
		o.logger.Warn().Err(err).Msg("Closing ledger connection")
	}
	o.client = nil
}

func (o *Orchestrator) sender(ctx context.Context) (*wallet.Sender, error) {
	client, err := o.connect(ctx)
	if err != nil {
		return nil, err
	}
	return wallet.NewSender(client, o.deps.Account), nil
}

func (o *Orchestrator) poller(ctx context.Context) (*poller.Poller, error) {
	client, err := o.connect(ctx)
	if err != nil {
		return nil, err
	}
	return poller.New(client, o.cfg.Poll).WithSleep(o.deps.Sleep), nil
}
