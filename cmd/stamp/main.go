// Klingnet stamp client.
//
// Archives a directory, uploads it, pays a stamp request carrying the
// upload URI to the counterparty, waits for its quote and funds the stamp.
//
// Usage:
//
//	klingnet-stamp --path=./dist --node=<rpc url> --otr-address=<addr> --upload-url=<url>
//	klingnet-stamp --help
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/Klingon-tech/klingnet-stamp/config"
	"github.com/Klingon-tech/klingnet-stamp/internal/archive"
	"github.com/Klingon-tech/klingnet-stamp/internal/ledger"
	klog "github.com/Klingon-tech/klingnet-stamp/internal/log"
	"github.com/Klingon-tech/klingnet-stamp/internal/metrics"
	"github.com/Klingon-tech/klingnet-stamp/internal/poller"
	"github.com/Klingon-tech/klingnet-stamp/internal/rpcclient"
	"github.com/Klingon-tech/klingnet-stamp/internal/stamp"
	"github.com/Klingon-tech/klingnet-stamp/internal/storage"
	"github.com/Klingon-tech/klingnet-stamp/internal/upload"
	"github.com/Klingon-tech/klingnet-stamp/internal/wallet"
	"github.com/Klingon-tech/klingnet-stamp/pkg/types"
	"golang.org/x/term"
)

const version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:], os.Getenv))
}

func run(args []string, getenv func(string) string) int {
	cfg, flags, err := config.Load(args, getenv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if flags.Help {
		config.Usage(os.Stdout)
		return 0
	}
	if flags.Version {
		fmt.Printf("klingnet-stamp version %s\n", version)
		return 0
	}

	if strings.TrimSpace(cfg.Mnemonic) == "" && term.IsTerminal(int(syscall.Stdin)) {
		phrase, err := readSecret("Mnemonic: ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: read mnemonic: %v\n", err)
			return 1
		}
		cfg.Mnemonic = string(phrase)
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid config: %v\n", err)
		return 1
	}

	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	logger := klog.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Addr != "" {
		srv := metrics.NewServer(cfg.Metrics.Addr)
		errc := make(chan error, 1)
		srv.Start(errc)
		go func() {
			if err := <-errc; err != nil {
				logger.Warn().Err(err).Str("addr", cfg.Metrics.Addr).Msg("Metrics server stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Stop(shutdownCtx)
		}()
	}

	res, err := stampDir(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("Stamp failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", describe(err))
		return 1
	}

	fmt.Printf("Stamp funded, stamp id %s\n", res.StampID)
	return 0
}

func stampDir(ctx context.Context, cfg *config.Config) (*stamp.Result, error) {
	counterparty, err := types.ParseAddress(cfg.OTRAddress)
	if err != nil {
		return nil, err
	}
	account, err := wallet.NewSecretManager(cfg.Mnemonic)
	if err != nil {
		return nil, err
	}

	journal, closeJournal, err := openJournal(cfg.State.Dir)
	if err != nil {
		return nil, err
	}
	defer closeJournal()

	dir, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, err
	}

	orch, err := stamp.New(stamp.Config{
		Dir:           dir,
		Counterparty:  counterparty,
		Days:          cfg.Days,
		RequestAmount: cfg.RequestAmount,
		Poll: poller.Config{
			Interval: cfg.Poll.Interval,
			Attempts: cfg.Poll.Attempts,
		},
	}, stamp.Deps{
		Archiver: archive.New(cfg.Archive.Output),
		Uploader: upload.New(cfg.Upload.URL, cfg.Upload.Token),
		Dial:     dialer(cfg),
		Account:  account,
		Journal:  journal,
	})
	if err != nil {
		return nil, err
	}
	return orch.Run(ctx)
}

// dialer connects to the configured node and checks it answers.
func dialer(cfg *config.Config) stamp.Dialer {
	return func(ctx context.Context) (ledger.Client, error) {
		c := rpcclient.NewWithOptions(cfg.Node, rpcclient.Options{
			Timeout: cfg.RPC.Timeout,
			Rate:    cfg.RPC.Rate,
		})
		info, err := c.Info(ctx)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("connect to %s: %w", cfg.Node, err)
		}
		return ledger.Observe(c, info.NetworkName), nil
	}
}

func openJournal(dir string) (*stamp.Journal, func(), error) {
	if dir == "" {
		return stamp.NewJournal(storage.NewMemory()), func() {}, nil
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, nil, fmt.Errorf("create state dir: %w", err)
	}
	db, err := storage.NewBadger(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("open state db: %w", err)
	}
	return stamp.NewJournal(db), func() { db.Close() }, nil
}

// describe prefixes err with the failure class operators act on.
func describe(err error) string {
	switch {
	case errors.Is(err, poller.ErrPollTimeout):
		return "counterparty did not respond in time: " + err.Error()
	case errors.Is(err, ledger.ErrNetwork):
		return "ledger node unreachable or failing: " + err.Error()
	case errors.Is(err, upload.ErrUpload):
		return "upload failed, nothing was spent: " + err.Error()
	case errors.Is(err, wallet.ErrNoFunds), errors.Is(err, wallet.ErrInsufficientFunds):
		return "wallet cannot cover the payment: " + err.Error()
	case errors.Is(err, context.Canceled):
		return "interrupted"
	}
	return err.Error()
}

func readSecret(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	secret, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, err
	}
	return secret, nil
}
